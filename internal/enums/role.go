package enums

// Role identifies the kind of operation a transaction performs.
type Role int

const (
	RoleUnknown Role = iota
	RoleCancel
	RoleDependsOn
	RoleRequiredBy
	RoleGetDetails
	RoleGetDetailsLocal
	RoleGetFiles
	RoleGetFilesLocal
	RoleGetPackages
	RoleGetRepoList
	RoleGetRequires
	RoleGetUpdateDetail
	RoleGetUpdates
	RoleInstallFiles
	RoleInstallPackages
	RoleInstallSignature
	RoleRefreshCache
	RoleRemovePackages
	RoleResolve
	RoleSearchName
	RoleSearchDetails
	RoleSearchGroup
	RoleSearchFile
	RoleUpdatePackages
	RoleRepoEnable
	RoleRepoSetData
	RoleRepoRemove
	RoleWhatProvides
	RoleAcceptEula
	RoleDownloadPackages
	RoleGetDistroUpgrades
	RoleGetCategories
	RoleGetOldTransactions
	RoleUpgradeSystem
	RoleRepairSystem
	RoleAdopt
	RoleGetProgress
)

var roleTokens = map[Role]string{
	RoleUnknown:            "unknown",
	RoleCancel:             "cancel",
	RoleDependsOn:          "depends-on",
	RoleRequiredBy:         "required-by",
	RoleGetDetails:         "get-details",
	RoleGetDetailsLocal:    "get-details-local",
	RoleGetFiles:           "get-files",
	RoleGetFilesLocal:      "get-files-local",
	RoleGetPackages:        "get-packages",
	RoleGetRepoList:        "get-repo-list",
	RoleGetRequires:        "get-requires",
	RoleGetUpdateDetail:    "get-update-detail",
	RoleGetUpdates:         "get-updates",
	RoleInstallFiles:       "install-files",
	RoleInstallPackages:    "install-packages",
	RoleInstallSignature:   "install-signature",
	RoleRefreshCache:       "refresh-cache",
	RoleRemovePackages:     "remove-packages",
	RoleResolve:            "resolve",
	RoleSearchName:         "search-name",
	RoleSearchDetails:      "search-details",
	RoleSearchGroup:        "search-group",
	RoleSearchFile:         "search-file",
	RoleUpdatePackages:     "update-packages",
	RoleRepoEnable:         "repo-enable",
	RoleRepoSetData:        "repo-set-data",
	RoleRepoRemove:         "repo-remove",
	RoleWhatProvides:       "what-provides",
	RoleAcceptEula:         "accept-eula",
	RoleDownloadPackages:   "download-packages",
	RoleGetDistroUpgrades:  "get-distro-upgrades",
	RoleGetCategories:      "get-categories",
	RoleGetOldTransactions: "get-old-transactions",
	RoleUpgradeSystem:      "upgrade-system",
	RoleRepairSystem:       "repair-system",
	RoleAdopt:              "adopt",
	RoleGetProgress:        "get-progress",
}

var roleFromToken = reverseTokens(roleTokens)

func (r Role) String() string {
	if s, ok := roleTokens[r]; ok {
		return s
	}
	return "unknown"
}

// ParseRole parses a kebab-case wire token into a Role.
func ParseRole(s string) (Role, bool) {
	r, ok := roleFromToken[s]
	return r, ok
}

// AllRoles lists every Role value, in declaration order.
func AllRoles() []Role {
	out := make([]Role, 0, len(roleTokens))
	for r := RoleUnknown; r <= RoleGetProgress; r++ {
		out = append(out, r)
	}
	return out
}

// IsWriteRole reports whether r mutates system state (§4.6 admission
// policy): WRITE roles are mutually exclusive at RUNNING, READ roles
// run concurrently with each other and with at most one WRITE.
func (r Role) IsWriteRole() bool {
	switch r {
	case RoleInstallFiles, RoleInstallPackages, RoleInstallSignature,
		RoleRefreshCache, RoleRemovePackages, RoleUpdatePackages,
		RoleRepoEnable, RoleRepoSetData, RoleRepoRemove,
		RoleAcceptEula, RoleUpgradeSystem, RoleRepairSystem,
		RoleDownloadPackages:
		return true
	default:
		return false
	}
}

func reverseTokens[K comparable](m map[K]string) map[string]K {
	out := make(map[string]K, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}
