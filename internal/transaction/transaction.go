package transaction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/opkgd/pkgbrokerd/internal/apperrors"
	"github.com/opkgd/pkgbrokerd/internal/backend"
	"github.com/opkgd/pkgbrokerd/internal/enums"
	"github.com/opkgd/pkgbrokerd/internal/pkgid"
	"github.com/opkgd/pkgbrokerd/internal/progress"
	"github.com/opkgd/pkgbrokerd/internal/results"
	"github.com/opkgd/pkgbrokerd/internal/scheduler"
)

// AuthChecker decides whether a caller may invoke a WRITE role
// (§4.5 WAITING_FOR_AUTH → WAITING/FINISHED transition). It is
// satisfied by internal/policy.
type AuthChecker interface {
	CheckAuthorization(ctx context.Context, role enums.Role, callerUID uint32) (granted bool, err error)
}

// Persister records a finished transaction's summary for GetOldTransactions
// (§4.9). It is satisfied by internal/txndb.
type Persister interface {
	RecordTransaction(ctx context.Context, rec results.TransactionPast) error
}

// Request is the raw, wire-shaped input to Start: every field a role
// method might carry, still in string form so Start itself owns
// validation (§4.5).
type Request struct {
	Filters          []string
	TransactionFlags []string
	PackageIDs       []string
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
	UpgradeKind      string
	EulaID           string
	SigType          string
	KeyID            string
	PackageID        string
	Number           uint64
	HTTPProxy        string
	FTPProxy         string

	CallerUID     uint32
	CallerCmdline string
	Sender        string
	Hints         []string
}

// Transaction is one role invocation from SETUP through FINISHED
// (§3.5, §4.5). Its owning Container and Progress are exclusive to it
// (§3.6); only their wire projections ever leave this package.
type Transaction struct {
	mu sync.Mutex

	tid   string
	role  enums.Role
	state State
	exit  *enums.Exit

	filters          enums.Bitfield[enums.Filter]
	transactionFlags enums.Bitfield[enums.TransactionFlag]
	callerUID        uint32
	callerCmdline    string
	sender           string
	hints            Hints
	background       bool
	interactive      bool

	createdAt  time.Time
	startedAt  time.Time
	finishedAt time.Time

	results  *results.Container
	progress *progress.Progress

	ticket *scheduler.Ticket
	job    *backend.Job
	doneCh chan struct{}

	list    *scheduler.List
	backend *backend.Backend
	auth    AuthChecker
	persist Persister
	log     *zap.SugaredLogger

	onStateChanged []func(State)
	onRecord       []func(backend.Event)
	onFinished     []func(exit enums.Exit, runtimeMS int64)
}

// New allocates a Transaction in state NEW against the given tid. The
// scheduler, backend and auth/persistence collaborators are injected
// so tests can substitute fakes for any of them.
func New(tid string, list *scheduler.List, be *backend.Backend, auth AuthChecker, persist Persister) *Transaction {
	return &Transaction{
		tid:      tid,
		state:    StateNew,
		results:  results.NewContainer(),
		progress: progress.NewProgress(),
		list:     list,
		backend:  be,
		auth:     auth,
		persist:  persist,
		log:       zap.S().Named("transaction").With("tid", tid),
		createdAt: time.Now(),
		doneCh:    make(chan struct{}),
	}
}

// TID returns the opaque transaction id this object was allocated
// under.
func (t *Transaction) TID() string { return t.tid }

// Role returns the role Start bound this transaction to, or the zero
// Role before Start has been called.
func (t *Transaction) Role() enums.Role {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.role
}

// State returns the current machine state.
func (t *Transaction) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Results returns the append-only container this transaction has been
// accumulating records into.
func (t *Transaction) Results() *results.Container { return t.results }

// Progress returns the live progress entity this transaction reports
// through.
func (t *Transaction) Progress() *progress.Progress { return t.progress }

// Exit reports the terminal exit code, if the transaction has reached
// FINISHED.
func (t *Transaction) Exit() (enums.Exit, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.exit == nil {
		return enums.ExitUnknown, false
	}
	return *t.exit, true
}

// Subscribe registers a callback fired for every per-record event the
// backend emits (§4.5 "per-record event forwarding").
func (t *Transaction) Subscribe(fn func(backend.Event)) {
	t.mu.Lock()
	t.onRecord = append(t.onRecord, fn)
	t.mu.Unlock()
}

// OnStateChanged registers a callback fired on every state transition.
func (t *Transaction) OnStateChanged(fn func(State)) {
	t.mu.Lock()
	t.onStateChanged = append(t.onStateChanged, fn)
	t.mu.Unlock()
}

// OnFinished registers a callback fired exactly once, when the
// transaction reaches FINISHED.
func (t *Transaction) OnFinished(fn func(exit enums.Exit, runtimeMS int64)) {
	t.mu.Lock()
	t.onFinished = append(t.onFinished, fn)
	t.mu.Unlock()
}

func (t *Transaction) setState(s State) {
	t.mu.Lock()
	t.state = s
	subs := append([]func(State){}, t.onStateChanged...)
	t.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

// ErrAlreadyStarted is returned by Start when the transaction has
// already left NEW.
var ErrAlreadyStarted = fmt.Errorf("transaction: role already bound")

// Start validates req, binds role, and drives the transaction from
// SETUP through FINISHED asynchronously. A validation or authorization
// failure never surfaces as a returned error: it finishes the
// transaction through failSetup instead, observable only via the
// ErrorCode signal followed by Finished(failed) (§7 "never returned as
// a method error reply"). The only error Start itself returns is
// ErrAlreadyStarted, a caller misuse rather than a SETUP-stage failure.
// RUNNING and FINISHED happen on a background goroutine observable via
// Subscribe/OnStateChanged/OnFinished.
func (t *Transaction) Start(ctx context.Context, role enums.Role, req Request) error {
	t.mu.Lock()
	if t.state != StateNew {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	t.role = role
	t.callerUID = req.CallerUID
	t.callerCmdline = req.CallerCmdline
	t.sender = req.Sender
	t.hints = ParseHints(req.Hints)
	t.background = t.hints.Background
	t.interactive = t.hints.Interactive
	t.mu.Unlock()
	t.setState(StateSetup)

	if _, ok := t.backend.Entry(role); !ok {
		t.failSetup(enums.ErrCodeNotSupported, apperrors.NewBackendRoleUnsupportedError(role).Error())
		return nil
	}

	params, verr := t.validate(req)
	if verr != nil {
		t.failSetup(verr.Code, verr.Message)
		return nil
	}

	if role.IsWriteRole() {
		t.setState(StateWaitingForAuth)
		granted, err := t.auth.CheckAuthorization(ctx, role, req.CallerUID)
		if err != nil {
			t.failSetup(enums.ErrCodeNotAuthorized, err.Error())
			return nil
		}
		if !granted {
			t.failSetup(enums.ErrCodeNotAuthorized, apperrors.NewPolicyDeniedError(role, req.CallerUID).Error())
			return nil
		}
	}

	t.setState(StateWaiting)
	ticket := t.list.Submit(t.tid, role)
	t.mu.Lock()
	t.ticket = ticket
	t.mu.Unlock()

	go t.awaitAdmission(ctx, params)
	return nil
}

// validate parses req into backend.Params, returning the *apperrors.Error
// carrying the specific ErrorCode (filter-invalid, input-invalid,
// package-id-invalid, no-such-file, ...) a given failure maps to, per
// §7's per-category error-code contract. failSetup relays Code/Message
// verbatim onto the ErrorCode signal; validate never collapses every
// failure onto a single code.
func (t *Transaction) validate(req Request) (backend.Params, *apperrors.Error) {
	var params backend.Params

	filters, ok := parseFilters(req.Filters)
	if !ok {
		return params, apperrors.New(enums.ErrCodeFilterInvalid, "unrecognized filter token")
	}
	params.Filters = filters

	flags, ok := parseTransactionFlags(req.TransactionFlags)
	if !ok {
		return params, apperrors.New(enums.ErrCodeFilterInvalid, "unrecognized transaction-flag token")
	}
	params.TransactionFlags = flags
	t.mu.Lock()
	t.filters = filters
	t.transactionFlags = flags
	t.mu.Unlock()

	if req.PackageIDs != nil {
		if len(req.PackageIDs) == 0 {
			return params, apperrors.New(enums.ErrCodeInputInvalid, "no packages supplied")
		}
		ids, err := pkgid.ParseList(req.PackageIDs)
		if err != nil {
			return params, apperrors.New(enums.ErrCodePackageIDInvalid, err.Error())
		}
		params.PackageIDs = ids
	}
	if req.PackageID != "" {
		id, err := pkgid.Parse(req.PackageID)
		if err != nil {
			return params, apperrors.New(enums.ErrCodePackageIDInvalid, err.Error())
		}
		params.PackageID = id
	}

	if req.Files != nil {
		staged, ferr := stageFiles(req.Files)
		if ferr != nil {
			return params, ferr
		}
		params.Files = staged
	}
	params.SearchTerms = req.SearchTerms
	params.Directory = req.Directory
	params.Force = req.Force
	params.Recursive = req.Recursive
	params.AllowDeps = req.AllowDeps
	params.Autoremove = req.Autoremove
	params.RepoID = req.RepoID
	params.Parameter = req.Parameter
	params.Value = req.Value
	params.Enabled = req.Enabled
	params.DistroID = req.DistroID
	params.EulaID = req.EulaID
	params.KeyID = req.KeyID
	params.Number = req.Number
	params.HTTPProxy = req.HTTPProxy
	params.FTPProxy = req.FTPProxy

	if req.UpgradeKind != "" {
		k, ok := enums.ParseUpgradeKind(req.UpgradeKind)
		if !ok {
			return params, apperrors.New(enums.ErrCodeInputInvalid, fmt.Sprintf("unrecognized upgrade-kind %q", req.UpgradeKind))
		}
		params.UpgradeKind = k
	}
	if req.SigType != "" {
		s, ok := enums.ParseSigType(req.SigType)
		if !ok {
			return params, apperrors.New(enums.ErrCodeInputInvalid, fmt.Sprintf("unrecognized sig-type %q", req.SigType))
		}
		params.SigType = s
	}

	return params, nil
}

func parseFilters(tokens []string) (enums.Bitfield[enums.Filter], bool) {
	var bf enums.Bitfield[enums.Filter]
	for _, tok := range tokens {
		f, ok := enums.ParseFilter(tok)
		if !ok {
			return bf, false
		}
		bf = bf.With(f)
	}
	return bf, true
}

func parseTransactionFlags(tokens []string) (enums.Bitfield[enums.TransactionFlag], bool) {
	var bf enums.Bitfield[enums.TransactionFlag]
	for _, tok := range tokens {
		f, ok := enums.ParseTransactionFlag(tok)
		if !ok {
			return bf, false
		}
		bf = bf.With(f)
	}
	return bf, true
}

// failSetup moves the transaction straight to FINISHED(failed) from
// SETUP or WAITING_FOR_AUTH, as §4.5's validation/authorization-denial
// transitions require. It never returns an error: the failure is only
// ever observable through the ErrorCode signal it records here and the
// Finished(failed) event finish fires (§7).
func (t *Transaction) failSetup(code enums.ErrorCode, details string) {
	t.results.SetError(results.ErrorRecord{
		Source:  results.Source{Role: t.role, TransactionID: t.tid},
		Code:    code,
		Details: details,
	})
	t.finish(enums.ExitFailed)
}

func (t *Transaction) awaitAdmission(ctx context.Context, params backend.Params) {
	t.mu.Lock()
	ticket := t.ticket
	t.mu.Unlock()

	select {
	case <-ticket.Admitted():
	case <-t.doneCh:
		return // cancelled while still WAITING/WAITING_FOR_AUTH
	}

	t.mu.Lock()
	if t.state == StateFinished {
		t.mu.Unlock()
		return
	}
	t.startedAt = time.Now()
	t.mu.Unlock()
	t.setState(StateRunning)

	job, err := t.backend.Dispatch(ctx, t.tid, t.role, params)
	if err != nil {
		t.results.SetError(results.ErrorRecord{
			Source:  results.Source{Role: t.role, TransactionID: t.tid},
			Code:    enums.ErrCodeInternalError,
			Details: err.Error(),
		})
		t.finish(enums.ExitFailed)
		return
	}
	t.mu.Lock()
	t.job = job
	t.mu.Unlock()

	t.consume(job)
}

// consume drains job's event channel, forwarding every record into
// the results container, the progress entity, and any Subscribe
// callbacks, until Finished arrives.
func (t *Transaction) consume(job *backend.Job) {
	for ev := range job.Events() {
		stamped := t.stamp(ev)
		t.forward(stamped)

		if ev.Kind == backend.EventFinished {
			exit := ev.Payload.(enums.Exit)
			t.finish(exit)
			return
		}
	}
}

// stamp overwrites the Source of any record-shaped payload with this
// transaction's own role/tid, so a backend entry never has to know its
// own tid.
func (t *Transaction) stamp(ev backend.Event) backend.Event {
	source := results.Source{Role: t.role, TransactionID: t.tid}
	switch v := ev.Payload.(type) {
	case results.Package:
		v.Source = source
		ev.Payload = v
	case results.Details:
		v.Source = source
		ev.Payload = v
	case results.UpdateDetail:
		v.Source = source
		ev.Payload = v
	case results.Files:
		v.Source = source
		ev.Payload = v
	case results.RepoDetail:
		v.Source = source
		ev.Payload = v
	case results.Category:
		v.Source = source
		ev.Payload = v
	case results.DistroUpgrade:
		v.Source = source
		ev.Payload = v
	case results.RequireRestart:
		v.Source = source
		ev.Payload = v
	case results.RepoSignatureRequired:
		v.Source = source
		ev.Payload = v
	case results.EulaRequired:
		v.Source = source
		ev.Payload = v
	case results.MediaChangeRequired:
		v.Source = source
		ev.Payload = v
	case results.ErrorRecord:
		v.Source = source
		ev.Payload = v
	case results.ItemProgress:
		v.Source = source
		ev.Payload = v
	}
	return ev
}

func (t *Transaction) forward(ev backend.Event) {
	switch ev.Kind {
	case backend.EventPackage:
		t.results.AppendPackage(ev.Payload.(results.Package))
	case backend.EventDetails:
		t.results.AppendDetails(ev.Payload.(results.Details))
	case backend.EventUpdateDetail:
		t.results.AppendUpdateDetail(ev.Payload.(results.UpdateDetail))
	case backend.EventFiles:
		t.results.AppendFiles(ev.Payload.(results.Files))
	case backend.EventRepoDetail:
		t.results.AppendRepoDetail(ev.Payload.(results.RepoDetail))
	case backend.EventCategory:
		t.results.AppendCategory(ev.Payload.(results.Category))
	case backend.EventDistroUpgrade:
		t.results.AppendDistroUpgrade(ev.Payload.(results.DistroUpgrade))
	case backend.EventRequireRestart:
		t.results.AppendRequireRestart(ev.Payload.(results.RequireRestart))
	case backend.EventRepoSignatureRequired:
		t.results.AppendRepoSignatureRequired(ev.Payload.(results.RepoSignatureRequired))
	case backend.EventEulaRequired:
		t.results.AppendEulaRequired(ev.Payload.(results.EulaRequired))
	case backend.EventMediaChangeRequired:
		t.results.AppendMediaChangeRequired(ev.Payload.(results.MediaChangeRequired))
	case backend.EventErrorCode:
		t.results.SetError(ev.Payload.(results.ErrorRecord))
	case backend.EventItemProgress:
		ip := ev.Payload.(results.ItemProgress)
		t.progress.SetItemProgress(ip.Percentage)
		t.progress.SetPackageID(ip.PackageID)
	case backend.EventSetPercentage:
		pct := ev.Payload.(int)
		if pct < 0 || pct > 100 {
			t.progress.SetPercentageUnknown()
		} else {
			_ = t.progress.SetPercentage(pct)
		}
	case backend.EventSetStatus:
		t.progress.SetStatus(ev.Payload.(enums.Status))
	case backend.EventSetAllowCancel:
		t.progress.SetAllowCancel(ev.Payload.(bool))
	case backend.EventSetSpeed:
		t.progress.SetSpeed(ev.Payload.(uint32))
	case backend.EventSetDownloadSizeRemaining:
		t.progress.SetDownloadSizeRemaining(ev.Payload.(uint64))
	}

	t.mu.Lock()
	subs := append([]func(backend.Event){}, t.onRecord...)
	t.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// finish moves the transaction to FINISHED exactly once: it records
// the exit code, releases the scheduler slot, persists the summary,
// and fires OnFinished.
func (t *Transaction) finish(exit enums.Exit) {
	t.mu.Lock()
	if t.state == StateFinished {
		t.mu.Unlock()
		return
	}
	t.exit = &exit
	t.finishedAt = time.Now()
	started := t.startedAt
	ticket := t.ticket
	close(t.doneCh)
	t.mu.Unlock()

	t.results.SetExit(exit)
	t.results.SnapshotProgress(t.progress.Snapshot())
	t.setState(StateFinished)

	if t.list != nil && ticket != nil {
		t.list.Finish(t.tid)
	}

	var runtimeMS int64
	if !started.IsZero() {
		runtimeMS = time.Since(started).Milliseconds()
	}

	if t.persist != nil {
		if err := t.persist.RecordTransaction(context.Background(), results.TransactionPast{
			TID:       t.tid,
			Timespec:  time.Now(),
			Succeeded: exit == enums.ExitSuccess,
			Role:      t.role,
			Duration:  time.Duration(runtimeMS) * time.Millisecond,
			UID:       t.callerUID,
			Cmdline:   t.callerCmdline,
		}); err != nil {
			t.log.Warnw("failed to persist transaction summary", "error", err)
		}
	}

	t.mu.Lock()
	subs := append([]func(enums.Exit, int64){}, t.onFinished...)
	t.mu.Unlock()
	for _, fn := range subs {
		fn(exit, runtimeMS)
	}
}

// ErrAlreadyFinished is returned by Cancel once the transaction has
// reached FINISHED.
var ErrAlreadyFinished = fmt.Errorf("transaction: already finished")

// Cancel is legal in any state but FINISHED (§4.5). A WAITING or
// WAITING_FOR_AUTH transaction finishes immediately as cancelled; a
// RUNNING transaction's backend cancel entry is invoked and the exit
// code is whatever the backend's own Finished event reports.
func (t *Transaction) Cancel() error {
	t.mu.Lock()
	state := t.state
	job := t.job
	t.mu.Unlock()

	switch state {
	case StateFinished:
		return ErrAlreadyFinished
	case StateRunning:
		if job != nil {
			t.backend.Cancel(job)
		}
		return nil
	default:
		t.finish(enums.ExitCancelled)
		return nil
	}
}
