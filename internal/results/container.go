package results

import (
	"fmt"
	"sync"

	"github.com/opkgd/pkgbrokerd/internal/enums"
	"github.com/opkgd/pkgbrokerd/internal/progress"
)

// Container is the append-only bag of records a transaction accumulates
// over its lifetime (§4.2). Every typed slot preserves insertion order;
// Exit and Error are single-valued with last-write-wins semantics.
// Nothing but the owning transaction ever holds a pointer to a
// Container; callers elsewhere reconstruct records from signal
// payloads rather than sharing this object (§3.6).
type Container struct {
	mu sync.RWMutex

	packages               []Package
	details                []Details
	updateDetails          []UpdateDetail
	files                  []Files
	categories             []Category
	repoDetails            []RepoDetail
	repoSignaturesRequired []RepoSignatureRequired
	eulasRequired          []EulaRequired
	mediaChangesRequired   []MediaChangeRequired
	requireRestarts        []RequireRestart
	distroUpgrades         []DistroUpgrade
	messages               []Message
	transactions           []TransactionPast

	exit         enums.Exit
	exitSet      bool
	err          *ErrorRecord
	lastProgress progress.Snapshot
}

// NewContainer returns an empty Container.
func NewContainer() *Container {
	return &Container{}
}

// AppendPackage appends to the packages[] slot.
func (c *Container) AppendPackage(r Package) {
	c.mu.Lock()
	c.packages = append(c.packages, r)
	c.mu.Unlock()
}

// Packages returns a borrowed snapshot of the packages[] slot in
// insertion order. Callers must not mutate the returned slice.
func (c *Container) Packages() []Package {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.packages
}

func (c *Container) AppendDetails(r Details) {
	c.mu.Lock()
	c.details = append(c.details, r)
	c.mu.Unlock()
}

func (c *Container) Details() []Details {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.details
}

func (c *Container) AppendUpdateDetail(r UpdateDetail) {
	c.mu.Lock()
	c.updateDetails = append(c.updateDetails, r)
	c.mu.Unlock()
}

func (c *Container) UpdateDetails() []UpdateDetail {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updateDetails
}

func (c *Container) AppendFiles(r Files) {
	c.mu.Lock()
	c.files = append(c.files, r)
	c.mu.Unlock()
}

func (c *Container) Files() []Files {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.files
}

func (c *Container) AppendCategory(r Category) {
	c.mu.Lock()
	c.categories = append(c.categories, r)
	c.mu.Unlock()
}

func (c *Container) Categories() []Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.categories
}

func (c *Container) AppendRepoDetail(r RepoDetail) {
	c.mu.Lock()
	c.repoDetails = append(c.repoDetails, r)
	c.mu.Unlock()
}

func (c *Container) RepoDetails() []RepoDetail {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.repoDetails
}

func (c *Container) AppendRepoSignatureRequired(r RepoSignatureRequired) {
	c.mu.Lock()
	c.repoSignaturesRequired = append(c.repoSignaturesRequired, r)
	c.mu.Unlock()
}

func (c *Container) RepoSignaturesRequired() []RepoSignatureRequired {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.repoSignaturesRequired
}

func (c *Container) AppendEulaRequired(r EulaRequired) {
	c.mu.Lock()
	c.eulasRequired = append(c.eulasRequired, r)
	c.mu.Unlock()
}

func (c *Container) EulasRequired() []EulaRequired {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.eulasRequired
}

func (c *Container) AppendMediaChangeRequired(r MediaChangeRequired) {
	c.mu.Lock()
	c.mediaChangesRequired = append(c.mediaChangesRequired, r)
	c.mu.Unlock()
}

func (c *Container) MediaChangesRequired() []MediaChangeRequired {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mediaChangesRequired
}

func (c *Container) AppendRequireRestart(r RequireRestart) {
	c.mu.Lock()
	c.requireRestarts = append(c.requireRestarts, r)
	c.mu.Unlock()
}

func (c *Container) RequireRestarts() []RequireRestart {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.requireRestarts
}

// StrongestRestart folds requireRestarts[] down to the single most
// severe RestartRequired value seen, for the transaction-level summary
// clients expect after an install/update/remove.
func (c *Container) StrongestRestart() enums.RestartRequired {
	c.mu.RLock()
	defer c.mu.RUnlock()
	strongest := enums.RestartNone
	for _, r := range c.requireRestarts {
		if r.Restart.Outranks(strongest) {
			strongest = r.Restart
		}
	}
	return strongest
}

func (c *Container) AppendDistroUpgrade(r DistroUpgrade) {
	c.mu.Lock()
	c.distroUpgrades = append(c.distroUpgrades, r)
	c.mu.Unlock()
}

func (c *Container) DistroUpgrades() []DistroUpgrade {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.distroUpgrades
}

func (c *Container) AppendMessage(r Message) {
	c.mu.Lock()
	c.messages = append(c.messages, r)
	c.mu.Unlock()
}

func (c *Container) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.messages
}

func (c *Container) AppendTransactionPast(r TransactionPast) {
	c.mu.Lock()
	c.transactions = append(c.transactions, r)
	c.mu.Unlock()
}

func (c *Container) Transactions() []TransactionPast {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.transactions
}

// SetExit records the transaction's single exit code. Last write wins.
func (c *Container) SetExit(e enums.Exit) {
	c.mu.Lock()
	c.exit = e
	c.exitSet = true
	c.mu.Unlock()
}

// Exit returns the recorded exit code and whether one has been set.
func (c *Container) Exit() (enums.Exit, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.exit, c.exitSet
}

// SetError records the transaction's single error record. Last write
// wins: a later SetError replaces an earlier one.
func (c *Container) SetError(e ErrorRecord) {
	c.mu.Lock()
	c.err = &e
	c.mu.Unlock()
}

// Error returns the recorded error record, or nil if none was set.
func (c *Container) Error() *ErrorRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// SnapshotProgress clones and retains the supplied progress snapshot
// for post-mortem queries after the transaction is gone (§4.2).
func (c *Container) SnapshotProgress(s progress.Snapshot) {
	c.mu.Lock()
	c.lastProgress = s
	c.mu.Unlock()
}

// LastProgress returns the most recently retained progress snapshot.
func (c *Container) LastProgress() progress.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastProgress
}

// ErrWrongSlot is returned by Append when the dynamic type of the
// record does not match any known slot (§4.2: "fails only on misuse").
var ErrWrongSlot = fmt.Errorf("results: record type does not match any slot")

// Append type-switches r into its matching slot. It is a convenience
// for callers that receive records as `any` off a job event channel;
// callers with a concrete type should prefer the typed AppendXxx
// methods above.
func (c *Container) Append(r any) error {
	switch v := r.(type) {
	case Package:
		c.AppendPackage(v)
	case Details:
		c.AppendDetails(v)
	case UpdateDetail:
		c.AppendUpdateDetail(v)
	case Files:
		c.AppendFiles(v)
	case Category:
		c.AppendCategory(v)
	case RepoDetail:
		c.AppendRepoDetail(v)
	case RepoSignatureRequired:
		c.AppendRepoSignatureRequired(v)
	case EulaRequired:
		c.AppendEulaRequired(v)
	case MediaChangeRequired:
		c.AppendMediaChangeRequired(v)
	case RequireRestart:
		c.AppendRequireRestart(v)
	case DistroUpgrade:
		c.AppendDistroUpgrade(v)
	case Message:
		c.AppendMessage(v)
	case TransactionPast:
		c.AppendTransactionPast(v)
	default:
		return ErrWrongSlot
	}
	return nil
}
