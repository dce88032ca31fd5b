package httpapi

import (
	"github.com/opkgd/pkgbrokerd/internal/enums"
	"github.com/opkgd/pkgbrokerd/internal/progress"
	"github.com/opkgd/pkgbrokerd/internal/transaction"
)

// startRequest is the JSON body of a Start call. It carries every field
// any role's parameters might need (§6.2); Start itself rejects
// whatever a given role doesn't expect via backend.Params/validate.
type startRequest struct {
	Filters          []string `json:"filters"`
	TransactionFlags []string `json:"transaction-flags"`
	PackageIDs       []string `json:"package-ids"`
	Files            []string `json:"files"`
	SearchTerms      []string `json:"values"`
	Directory        string   `json:"directory"`
	Force            bool     `json:"force"`
	Recursive        bool     `json:"recursive"`
	AllowDeps        bool     `json:"allow-deps"`
	Autoremove       bool     `json:"autoremove"`
	RepoID           string   `json:"repo-id"`
	Parameter        string   `json:"parameter"`
	Value            string   `json:"value"`
	Enabled          bool     `json:"enabled"`
	DistroID         string   `json:"distro-id"`
	UpgradeKind      string   `json:"upgrade-kind"`
	EulaID           string   `json:"eula-id"`
	SigType          string   `json:"sig-type"`
	KeyID            string   `json:"key-id"`
	PackageID        string   `json:"package-id"`
	Number           uint64   `json:"number"`
}

// toRequest folds the wire body and the caller identity the transport
// layer (not the client) is responsible for into a transaction.Request.
func (r startRequest) toRequest(callerUID uint32, cmdline, sender string, hints []string) transaction.Request {
	return transaction.Request{
		Filters:          r.Filters,
		TransactionFlags: r.TransactionFlags,
		PackageIDs:       r.PackageIDs,
		Files:            r.Files,
		SearchTerms:      r.SearchTerms,
		Directory:        r.Directory,
		Force:            r.Force,
		Recursive:        r.Recursive,
		AllowDeps:        r.AllowDeps,
		Autoremove:       r.Autoremove,
		RepoID:           r.RepoID,
		Parameter:        r.Parameter,
		Value:            r.Value,
		Enabled:          r.Enabled,
		DistroID:         r.DistroID,
		UpgradeKind:      r.UpgradeKind,
		EulaID:           r.EulaID,
		SigType:          r.SigType,
		KeyID:            r.KeyID,
		PackageID:        r.PackageID,
		Number:           r.Number,
		CallerUID:        callerUID,
		CallerCmdline:    cmdline,
		Sender:           sender,
		Hints:            hints,
	}
}

// setHintsRequest is the body of SetHints (§4.8, §6.2).
type setHintsRequest struct {
	Hints []string `json:"hints"`
}

// propertiesDTO renders the control surface's read-only properties
// (§4.7).
type propertiesDTO struct {
	BackendName        string `json:"backend-name"`
	BackendDescription string `json:"backend-description"`
	BackendAuthor      string `json:"backend-author"`
	MimeTypes          []string `json:"mime-types"`
	Roles              string `json:"roles"`
	Groups             string `json:"groups"`
	Filters            string `json:"filters"`
	VersionMajor       int    `json:"version-major"`
	VersionMinor       int    `json:"version-minor"`
	VersionMicro       int    `json:"version-micro"`
	Locked             bool   `json:"locked"`
	NetworkState       string `json:"network-state"`
	DistroID           string `json:"distro-id"`
}

// snapshotDTO renders a progress.Snapshot for the wire (§3.5, §6.3
// properties-changed keys).
type snapshotDTO struct {
	Role                  string `json:"role"`
	Status                string `json:"status"`
	Percentage            int    `json:"percentage"`
	AllowCancel           bool   `json:"allow-cancel"`
	CallerActive          bool   `json:"caller-active"`
	ElapsedTimeMS         int64  `json:"elapsed-time-ms"`
	RemainingTimeMS       int64  `json:"remaining-time-ms"`
	Speed                 uint32 `json:"speed"`
	DownloadSizeRemaining uint64 `json:"download-size-remaining"`
	TransactionFlags      string `json:"transaction-flags"`
	UID                   uint32 `json:"uid"`
	Sender                string `json:"sender"`
	PackageID             string `json:"package-id"`
	Package               string `json:"package"`
}

// percentageWire encodes a progress percentage per §6.4: 101 when
// unknown, the raw value otherwise.
func percentageWire(pct int, unknown bool) int {
	if unknown {
		return 101
	}
	return pct
}

func newSnapshotDTO(s progress.Snapshot) snapshotDTO {
	return snapshotDTO{
		Role:                  s.Role.String(),
		Status:                s.Status.String(),
		Percentage:            percentageWire(s.Percentage, s.PercentageUnknown),
		AllowCancel:           s.AllowCancel,
		CallerActive:          s.CallerActive,
		ElapsedTimeMS:         s.ElapsedTime.Milliseconds(),
		RemainingTimeMS:       s.RemainingTime.Milliseconds(),
		Speed:                 s.Speed,
		DownloadSizeRemaining: s.DownloadSizeRemaining,
		TransactionFlags:      s.TransactionFlags.Text(enums.AllTransactionFlags()),
		UID:                   s.UID,
		Sender:                s.Sender,
		PackageID:             s.PackageID.String(),
		Package:               s.Package,
	}
}
