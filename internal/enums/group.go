package enums

// Group is a package category (§3.2). The closed set is large (~35
// entries upstream); this carries the groups a broker realistically
// needs to advertise and route on. Additional groups can be added to
// the token table without touching any caller, since all lookups go
// through String/ParseGroup.
type Group int

const (
	GroupUnknown Group = iota
	GroupAccessibility
	GroupAccessories
	GroupAdminTools
	GroupCommunication
	GroupDesktopGnome
	GroupDesktopKde
	GroupDesktopOther
	GroupDesktopXfce
	GroupDocumentation
	GroupEducation
	GroupElectronics
	GroupFonts
	GroupGames
	GroupGraphics
	GroupInternet
	GroupLegacy
	GroupLocalization
	GroupMaps
	GroupMultimedia
	GroupNetwork
	GroupOffice
	GroupOther
	GroupPowerManagement
	GroupProgramming
	GroupPublishing
	GroupRepos
	GroupSecurity
	GroupServers
	GroupSystem
	GroupVirtualization
	GroupScience
	GroupCollections
	GroupVendor
	GroupNewest
)

var groupTokens = map[Group]string{
	GroupUnknown:         "unknown",
	GroupAccessibility:   "accessibility",
	GroupAccessories:     "accessories",
	GroupAdminTools:      "admin-tools",
	GroupCommunication:   "communication",
	GroupDesktopGnome:    "desktop-gnome",
	GroupDesktopKde:      "desktop-kde",
	GroupDesktopOther:    "desktop-other",
	GroupDesktopXfce:     "desktop-xfce",
	GroupDocumentation:   "documentation",
	GroupEducation:       "education",
	GroupElectronics:     "electronics",
	GroupFonts:           "fonts",
	GroupGames:           "games",
	GroupGraphics:        "graphics",
	GroupInternet:        "internet",
	GroupLegacy:          "legacy",
	GroupLocalization:    "localization",
	GroupMaps:            "maps",
	GroupMultimedia:      "multimedia",
	GroupNetwork:         "network",
	GroupOffice:          "office",
	GroupOther:           "other",
	GroupPowerManagement: "power-management",
	GroupProgramming:     "programming",
	GroupPublishing:      "publishing",
	GroupRepos:           "repos",
	GroupSecurity:        "security",
	GroupServers:         "servers",
	GroupSystem:          "system",
	GroupVirtualization:  "virtualization",
	GroupScience:         "science",
	GroupCollections:     "collections",
	GroupVendor:          "vendor",
	GroupNewest:          "newest",
}

var groupFromToken = reverseTokens(groupTokens)

func (g Group) String() string {
	if v, ok := groupTokens[g]; ok {
		return v
	}
	return "unknown"
}

// ParseGroup parses a kebab-case wire token into a Group.
func ParseGroup(s string) (Group, bool) {
	v, ok := groupFromToken[s]
	return v, ok
}

// AllGroups lists every Group value.
func AllGroups() []Group {
	out := make([]Group, 0, len(groupTokens))
	for g := range groupTokens {
		out = append(out, g)
	}
	return out
}

// RestartRequired is the kind of restart a package change requires.
type RestartRequired int

const (
	RestartNone RestartRequired = iota
	RestartApplication
	RestartSession
	RestartSystem
	RestartSecuritySession
	RestartSecuritySystem
)

var restartTokens = map[RestartRequired]string{
	RestartNone:            "none",
	RestartApplication:     "application",
	RestartSession:         "session",
	RestartSystem:          "system",
	RestartSecuritySession: "security-session",
	RestartSecuritySystem:  "security-system",
}

var restartFromToken = reverseTokens(restartTokens)

func (r RestartRequired) String() string {
	if v, ok := restartTokens[r]; ok {
		return v
	}
	return "none"
}

// ParseRestartRequired parses a kebab-case wire token into a
// RestartRequired. Outranks reports whether one kind takes priority
// over another (system > session > application > none, with security
// variants outranking their non-security sibling).
func ParseRestartRequired(s string) (RestartRequired, bool) {
	v, ok := restartFromToken[s]
	return v, ok
}

var restartRank = map[RestartRequired]int{
	RestartNone:            0,
	RestartApplication:     1,
	RestartSession:         2,
	RestartSecuritySession: 3,
	RestartSystem:          4,
	RestartSecuritySystem:  5,
}

// Outranks reports whether r is a stronger restart requirement than
// other, so a transaction's aggregate restart requirement can be
// tracked with a single running maximum.
func (r RestartRequired) Outranks(other RestartRequired) bool {
	return restartRank[r] > restartRank[other]
}
