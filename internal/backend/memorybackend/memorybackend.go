// Package memorybackend is a dummy in-memory backend exercising every
// role the control surface advertises. It is grounded on PackageKit's
// test-succeed backend (original_source/backends/test/
// pk-backend-test-succeed.c): every role it implements simply reports
// its canned data, if any, and finishes successfully. It is what
// pkgbrokerd loads when no real package manager integration is
// configured, and what the test suite exercises the transaction and
// scheduler layers against.
package memorybackend

import (
	"github.com/opkgd/pkgbrokerd/internal/backend"
	"github.com/opkgd/pkgbrokerd/internal/enums"
	"github.com/opkgd/pkgbrokerd/internal/pkgid"
	"github.com/opkgd/pkgbrokerd/internal/results"
)

// Package is one entry of the backend's canned catalog.
type Package struct {
	ID      pkgid.ID
	Info    enums.Info
	Summary string
}

// Catalog is the canned data set the backend answers queries from. A
// caller may replace it (e.g. in a test) before registering roles.
var Catalog = []Package{
	{ID: pkgid.ID{Name: "hello", Version: "2.10", Architecture: "x86_64", Data: "fedora"}, Info: enums.InfoInstalled, Summary: "The classic greeting program"},
	{ID: pkgid.ID{Name: "vim", Version: "9.1", Architecture: "x86_64", Data: "fedora"}, Info: enums.InfoAvailable, Summary: "A highly configurable text editor"},
	{ID: pkgid.ID{Name: "htop", Version: "3.3.0", Architecture: "x86_64", Data: "fedora"}, Info: enums.InfoAvailable, Summary: "Interactive process viewer"},
}

// New returns a fully-registered memory backend: one entry per role
// PackageKit's test-succeed backend implements, all reporting
// Catalog-derived data (where the role calls for any) before finishing
// successfully.
func New() *backend.Backend {
	b := backend.New("test-succeed", "in-memory reference backend").
		WithFilters(enums.FilterInstalled, enums.FilterNotInstalled, enums.FilterGui, enums.FilterDevel, enums.FilterFree).
		WithGroups(enums.GroupAccessibility, enums.GroupGames, enums.GroupSystem).
		WithMimeTypes()

	b.Register(enums.RoleResolve, resolveByName)
	b.Register(enums.RoleSearchName, resolveByName)
	b.Register(enums.RoleSearchDetails, resolveByName)
	b.Register(enums.RoleSearchGroup, finishOnly)
	b.Register(enums.RoleSearchFile, finishOnly)
	b.Register(enums.RoleGetPackages, getPackages)
	b.Register(enums.RoleGetDetails, getDetails)
	b.Register(enums.RoleGetDetailsLocal, finishOnly)
	b.Register(enums.RoleGetFiles, finishOnly)
	b.Register(enums.RoleGetFilesLocal, finishOnly)
	b.Register(enums.RoleGetUpdates, finishOnly)
	b.Register(enums.RoleGetUpdateDetail, finishOnly)
	b.Register(enums.RoleDependsOn, finishOnly)
	b.Register(enums.RoleRequiredBy, finishOnly)
	b.Register(enums.RoleGetCategories, finishOnly)
	b.Register(enums.RoleGetDistroUpgrades, finishOnly)
	b.Register(enums.RoleGetRepoList, finishOnly)
	b.Register(enums.RoleRepoEnable, finishOnly)
	b.Register(enums.RoleRepoSetData, finishOnly)
	b.Register(enums.RoleRepoRemove, finishOnly)
	b.Register(enums.RoleWhatProvides, finishOnly)
	b.Register(enums.RoleDownloadPackages, finishOnly)
	b.Register(enums.RoleInstallPackages, installOrRemove)
	b.Register(enums.RoleRemovePackages, installOrRemove)
	b.Register(enums.RoleUpdatePackages, installOrRemove)
	b.Register(enums.RoleInstallFiles, finishOnly)
	b.Register(enums.RoleInstallSignature, finishOnly)
	b.Register(enums.RoleAcceptEula, finishOnly)
	b.Register(enums.RoleRefreshCache, finishOnly)
	b.Register(enums.RoleUpgradeSystem, finishOnly)
	b.Register(enums.RoleRepairSystem, finishOnly)
	b.Register(enums.RoleGetOldTransactions, finishOnly)

	b.SetCancel(func(job *backend.Job) {
		job.Finished(enums.ExitCancelled)
	})

	return b
}

func finishOnly(job *backend.Job, _ backend.Params) {
	job.Finished(enums.ExitSuccess)
}

func getPackages(job *backend.Job, params backend.Params) {
	for _, pkg := range Catalog {
		if !matchesFilters(pkg, params.Filters) {
			continue
		}
		job.Package(results.Package{PackageID: pkg.ID, Info: pkg.Info, Summary: pkg.Summary})
	}
	job.Finished(enums.ExitSuccess)
}

func resolveByName(job *backend.Job, params backend.Params) {
	for _, pkg := range Catalog {
		if !matchesFilters(pkg, params.Filters) {
			continue
		}
		if !matchesAny(pkg, params) {
			continue
		}
		job.Package(results.Package{PackageID: pkg.ID, Info: pkg.Info, Summary: pkg.Summary})
	}
	job.Finished(enums.ExitSuccess)
}

func getDetails(job *backend.Job, params backend.Params) {
	for _, id := range params.PackageIDs {
		for _, pkg := range Catalog {
			if pkg.ID.EqualFuzzyArch(id) {
				job.Details(results.Details{
					PackageID:   pkg.ID,
					License:     "GPL-2.0-or-later",
					Group:       enums.GroupSystem,
					Description: pkg.Summary,
					Size:        1024,
				})
			}
		}
	}
	job.Finished(enums.ExitSuccess)
}

func installOrRemove(job *backend.Job, params backend.Params) {
	job.SetStatus(enums.StatusInstall)
	job.SetAllowCancel(false)
	for i, id := range params.PackageIDs {
		job.ItemProgress(results.ItemProgress{PackageID: id, Status: enums.StatusInstall, Percentage: 100})
		job.SetPercentage((i + 1) * 100 / len(params.PackageIDs))
	}
	job.Finished(enums.ExitSuccess)
}

func matchesFilters(pkg Package, filters enums.Bitfield[enums.Filter]) bool {
	if filters.Has(enums.FilterInstalled) && pkg.Info != enums.InfoInstalled {
		return false
	}
	if filters.Has(enums.FilterNotInstalled) && pkg.Info == enums.InfoInstalled {
		return false
	}
	return true
}

func matchesAny(pkg Package, params backend.Params) bool {
	if len(params.PackageIDs) > 0 {
		for _, id := range params.PackageIDs {
			if pkg.ID.EqualFuzzyArch(id) {
				return true
			}
		}
		return false
	}
	if len(params.SearchTerms) == 0 {
		return true
	}
	for _, term := range params.SearchTerms {
		if term == pkg.ID.Name {
			return true
		}
	}
	return false
}
