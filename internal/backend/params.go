// Package backend defines the backend contract (§4.4): the capability
// descriptor every backend advertises, the per-role entry point shape,
// and the job event channel an entry point uses to report back to the
// transaction that invoked it.
package backend

import (
	"github.com/opkgd/pkgbrokerd/internal/enums"
	"github.com/opkgd/pkgbrokerd/internal/pkgid"
)

// Params bundles the role-specific parameters an entry point may
// consult, drawn from the fixed set named in §4.4. An entry only reads
// the fields its role actually uses; the rest are left at their zero
// value.
type Params struct {
	Filters          enums.Bitfield[enums.Filter]
	TransactionFlags enums.Bitfield[enums.TransactionFlag]
	PackageIDs       []pkgid.ID
	Files            []string
	SearchTerms      []string
	Directory        string
	Force            bool
	Recursive        bool
	AllowDeps        bool
	Autoremove       bool
	RepoID           string
	Parameter        string
	Value            string
	Enabled          bool
	DistroID         string
	UpgradeKind      enums.UpgradeKind
	EulaID           string
	SigType          enums.SigType
	KeyID            string
	PackageID        pkgid.ID
	Number           uint64

	// HTTPProxy/FTPProxy carry the per-uid proxy hint recorded via
	// internal/control.Control.SetProxy (§4.7), resolved once at SETUP
	// so an entry point routing network I/O can honor it without its
	// own uid lookup.
	HTTPProxy string
	FTPProxy  string
}
