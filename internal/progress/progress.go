package progress

import (
	"sync"
	"time"

	"github.com/opkgd/pkgbrokerd/internal/enums"
	"github.com/opkgd/pkgbrokerd/internal/pkgid"
)

// Field identifies which attribute of a Progress changed, so a single
// typed notification can be keyed by it (§3.4: "every set triggers a
// single typed notification keyed by the changed field").
type Field int

const (
	FieldRole Field = iota
	FieldStatus
	FieldPercentage
	FieldAllowCancel
	FieldCallerActive
	FieldElapsedTime
	FieldRemainingTime
	FieldSpeed
	FieldDownloadSizeRemaining
	FieldTransactionFlags
	FieldUID
	FieldSender
	FieldPackageID
	FieldPackage
	FieldItemProgress
)

// Snapshot is an immutable, value-type copy of a Progress at one
// instant. It is what the results container retains for post-mortem
// queries and what the wire layer renders to clients; no client ever
// holds the live Progress itself (§3.6).
type Snapshot struct {
	Role                   enums.Role
	Status                 enums.Status
	Percentage             int
	PercentageUnknown      bool
	AllowCancel            bool
	CallerActive           bool
	ElapsedTime            time.Duration
	RemainingTime          time.Duration
	Speed                  uint32
	DownloadSizeRemaining  uint64
	TransactionFlags       enums.Bitfield[enums.TransactionFlag]
	UID                    uint32
	Sender                 string
	PackageID              pkgid.ID
	Package                string
	ItemProgress           int
}

// Progress is the live, mutable per-transaction progress entity
// (§3.4). Its Percentage field is backed by a Completion node so the
// same hierarchical-completion rules (§4.3) govern it; everything else
// is a flat attribute with last-write-wins semantics and its own
// change notification.
type Progress struct {
	mu sync.Mutex

	root *Completion

	role                  enums.Role
	status                enums.Status
	percentageUnknown     bool
	allowCancel           bool
	callerActive          bool
	elapsedTime           time.Duration
	remainingTime         time.Duration
	speed                 uint32
	downloadSizeRemaining uint64
	transactionFlags      enums.Bitfield[enums.TransactionFlag]
	uid                   uint32
	sender                string
	packageID             pkgid.ID
	pkg                   string
	itemProgress          int

	subscribers []func(Field)
}

// NewProgress returns a fresh Progress with an unset completion tree
// and percentage reported as unknown until the first successful
// SetPercentage call on the Progress itself.
func NewProgress() *Progress {
	return &Progress{
		root:              New(),
		percentageUnknown: true,
	}
}

// Root returns the hierarchical completion tree backing this
// Progress's percentage (§4.3). Callers may use SetSteps/Done/GetChild
// on it directly to report multi-stage work; changes made through Root
// do not clear the unknown flag and fire no FieldPercentage
// notification.
func (p *Progress) Root() *Completion {
	return p.root
}

// Subscribe registers a callback invoked with the Field that changed on
// every successful mutation.
func (p *Progress) Subscribe(fn func(Field)) {
	p.mu.Lock()
	p.subscribers = append(p.subscribers, fn)
	p.mu.Unlock()
}

func (p *Progress) notify(f Field) {
	p.mu.Lock()
	subs := append([]func(Field){}, p.subscribers...)
	p.mu.Unlock()
	for _, fn := range subs {
		fn(f)
	}
}

// SetRole sets the role this progress is reporting for.
func (p *Progress) SetRole(r enums.Role) {
	p.mu.Lock()
	p.role = r
	p.mu.Unlock()
	p.notify(FieldRole)
}

// SetStatus is total (not monotonic): a transaction moves freely among
// Status values as it changes phase.
func (p *Progress) SetStatus(s enums.Status) {
	p.mu.Lock()
	p.status = s
	p.mu.Unlock()
	p.notify(FieldStatus)
}

// SetPercentageUnknown marks the percentage as indeterminate (wire
// value 101, §6.4) until the next successful SetPercentage call.
func (p *Progress) SetPercentageUnknown() {
	p.mu.Lock()
	p.percentageUnknown = true
	p.mu.Unlock()
	p.notify(FieldPercentage)
}

// SetPercentage forwards to the backing Completion's monotonic
// SetPercentage and, on success, clears the unknown flag and notifies.
func (p *Progress) SetPercentage(pct int) error {
	if err := p.root.SetPercentage(pct); err != nil {
		return err
	}
	p.mu.Lock()
	p.percentageUnknown = false
	p.mu.Unlock()
	p.notify(FieldPercentage)
	return nil
}

// Percentage reports the current percentage and whether it is still
// unknown.
func (p *Progress) Percentage() (pct int, unknown bool) {
	p.mu.Lock()
	unknown = p.percentageUnknown
	p.mu.Unlock()
	return p.root.Percentage(), unknown
}

func (p *Progress) SetAllowCancel(v bool) {
	p.mu.Lock()
	p.allowCancel = v
	p.mu.Unlock()
	p.notify(FieldAllowCancel)
}

func (p *Progress) SetCallerActive(v bool) {
	p.mu.Lock()
	p.callerActive = v
	p.mu.Unlock()
	p.notify(FieldCallerActive)
}

func (p *Progress) SetElapsedTime(d time.Duration) {
	p.mu.Lock()
	p.elapsedTime = d
	p.mu.Unlock()
	p.notify(FieldElapsedTime)
}

func (p *Progress) SetRemainingTime(d time.Duration) {
	p.mu.Lock()
	p.remainingTime = d
	p.mu.Unlock()
	p.notify(FieldRemainingTime)
}

func (p *Progress) SetSpeed(v uint32) {
	p.mu.Lock()
	p.speed = v
	p.mu.Unlock()
	p.notify(FieldSpeed)
}

func (p *Progress) SetDownloadSizeRemaining(v uint64) {
	p.mu.Lock()
	p.downloadSizeRemaining = v
	p.mu.Unlock()
	p.notify(FieldDownloadSizeRemaining)
}

func (p *Progress) SetTransactionFlags(f enums.Bitfield[enums.TransactionFlag]) {
	p.mu.Lock()
	p.transactionFlags = f
	p.mu.Unlock()
	p.notify(FieldTransactionFlags)
}

func (p *Progress) SetUID(uid uint32) {
	p.mu.Lock()
	p.uid = uid
	p.mu.Unlock()
	p.notify(FieldUID)
}

func (p *Progress) SetSender(s string) {
	p.mu.Lock()
	p.sender = s
	p.mu.Unlock()
	p.notify(FieldSender)
}

func (p *Progress) SetPackageID(id pkgid.ID) {
	p.mu.Lock()
	p.packageID = id
	p.mu.Unlock()
	p.notify(FieldPackageID)
}

func (p *Progress) SetPackage(summary string) {
	p.mu.Lock()
	p.pkg = summary
	p.mu.Unlock()
	p.notify(FieldPackage)
}

func (p *Progress) SetItemProgress(pct int) {
	p.mu.Lock()
	p.itemProgress = pct
	p.mu.Unlock()
	p.notify(FieldItemProgress)
}

// Snapshot clones the current state into an immutable value, suitable
// for handing to a results container (§4.2 snapshot-progress) or
// rendering on the wire.
func (p *Progress) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	pct := p.root.Percentage()
	return Snapshot{
		Role:                  p.role,
		Status:                p.status,
		Percentage:            pct,
		PercentageUnknown:     p.percentageUnknown,
		AllowCancel:           p.allowCancel,
		CallerActive:          p.callerActive,
		ElapsedTime:           p.elapsedTime,
		RemainingTime:         p.remainingTime,
		Speed:                 p.speed,
		DownloadSizeRemaining: p.downloadSizeRemaining,
		TransactionFlags:      p.transactionFlags,
		UID:                   p.uid,
		Sender:                p.sender,
		PackageID:             p.packageID,
		Package:               p.pkg,
		ItemProgress:          p.itemProgress,
	}
}
