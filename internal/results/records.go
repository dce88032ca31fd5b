// Package results defines the typed records a backend emits during a
// transaction (§3.3) and the append-only container that collects them
// for the lifetime of the transaction (§4.2).
package results

import (
	"time"

	"github.com/opkgd/pkgbrokerd/internal/enums"
	"github.com/opkgd/pkgbrokerd/internal/pkgid"
)

// Source carries the originating role and transaction id common to every
// record (§3.3).
type Source struct {
	Role          enums.Role
	TransactionID string
}

// Package is a single search/resolve/list hit.
type Package struct {
	Source
	PackageID     pkgid.ID
	Info          enums.Info
	UpdateSeverity enums.UpdateSeverity
	Summary       string
}

// Details carries the long-form description of one package.
type Details struct {
	Source
	PackageID    pkgid.ID
	License      string
	Group        enums.Group
	Description  string
	URL          string
	Size         uint64
	DownloadSize *uint64
}

// UpdateDetail carries everything known about a pending update.
type UpdateDetail struct {
	Source
	PackageID    pkgid.ID
	Updates      []pkgid.ID
	Obsoletes    []pkgid.ID
	VendorURLs   []string
	BugzillaURLs []string
	CveURLs      []string
	Restart      enums.RestartRequired
	UpdateText   string
	Changelog    string
	State        enums.UpdateState
	Issued       time.Time
	Updated      time.Time
}

// Files lists the files owned by a package.
type Files struct {
	Source
	PackageID pkgid.ID
	Files     []string
}

// Category is one node of a backend's group-browsing hierarchy.
type Category struct {
	Source
	ParentID string
	CatID    string
	Name     string
	Summary  string
	Icon     string
}

// RepoDetail describes one configured repository.
type RepoDetail struct {
	Source
	RepoID      string
	Description string
	Enabled     bool
}

// RepoSignatureRequired is emitted when a repository's GPG key must be
// accepted before a transaction can proceed.
type RepoSignatureRequired struct {
	Source
	PackageID      pkgid.ID
	RepoName       string
	KeyURL         string
	KeyUserID      string
	KeyID          string
	KeyFingerprint string
	KeyTimestamp   string
	SigType        enums.SigType
}

// EulaRequired is emitted when a package's license must be accepted.
type EulaRequired struct {
	Source
	EulaID          string
	PackageID       pkgid.ID
	VendorName      string
	LicenseAgreement string
}

// MediaChangeRequired is emitted when a backend needs removable media.
type MediaChangeRequired struct {
	Source
	MediaType enums.MediaType
	MediaID   string
	MediaText string
}

// RequireRestart names the restart a just-changed package requires.
type RequireRestart struct {
	Source
	Restart   enums.RestartRequired
	PackageID pkgid.ID
}

// DistroUpgrade is one entry of GetDistroUpgrades.
type DistroUpgrade struct {
	Source
	State   enums.DistroUpgradeState
	Name    string
	Summary string
}

// ItemProgress is a per-package progress tick (§6.4 percentage
// encoding: 101 = unknown, represented here as Unknown=true).
type ItemProgress struct {
	Source
	PackageID  pkgid.ID
	Status     enums.Status
	Percentage int
	Unknown    bool
}

// ErrorRecord is a single ErrorCode event (§3.3, §7). Exactly one
// ErrorRecord may be in flight before Finished; it always precedes the
// terminal Finished signal.
type ErrorRecord struct {
	Source
	Code    enums.ErrorCode
	Details string
}

// Message is a free-text informational note a backend emits mid-flight.
type Message struct {
	Source
	Text string
}

// TransactionPast is the durable row written to the transaction
// database when a transaction finishes (§3.3, §4.9).
type TransactionPast struct {
	TID       string
	Timespec  time.Time
	Succeeded bool
	Role      enums.Role
	Duration  time.Duration
	Data      string
	UID       uint32
	Cmdline   string
}
