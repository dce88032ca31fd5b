package backend

import (
	"context"
	"sync"

	"github.com/opkgd/pkgbrokerd/internal/enums"
	"github.com/opkgd/pkgbrokerd/internal/results"
)

// EventKind tags the payload carried by an Event, mirroring the fixed
// set of side-effects §4.4 allows a backend entry to emit.
type EventKind int

const (
	EventPackage EventKind = iota
	EventDetails
	EventUpdateDetail
	EventFiles
	EventRepoDetail
	EventCategory
	EventDistroUpgrade
	EventRequireRestart
	EventRepoSignatureRequired
	EventEulaRequired
	EventMediaChangeRequired
	EventErrorCode
	EventItemProgress
	EventSetPercentage
	EventSetStatus
	EventSetAllowCancel
	EventSetSpeed
	EventSetDownloadSizeRemaining
	EventFinished
)

// Event is one item off a Job's event channel.
type Event struct {
	Kind    EventKind
	Payload any
}

// Job is the job handle an entry point receives alongside Params. It
// is the only conduit an entry has back to the transaction that
// dispatched it: every typed emit method queues an Event on the
// channel Events returns. Emission is only valid between Dispatch and
// the entry's call to Finished; anything emitted afterward is dropped
// (§4.4 termination contract).
type Job struct {
	ID string

	ctx    context.Context
	cancel context.CancelFunc
	events chan Event

	mu       sync.Mutex
	finished bool
}

func newJob(id string, ctx context.Context, cancel context.CancelFunc) *Job {
	return &Job{
		ID:     id,
		ctx:    ctx,
		cancel: cancel,
		events: make(chan Event, 32),
	}
}

// Context is cancelled when the transaction layer calls Cancel on the
// owning Backend; a long-running entry should select on it.
func (j *Job) Context() context.Context {
	return j.ctx
}

// Events returns the channel an entry's emissions arrive on. It is
// closed once Finished has run.
func (j *Job) Events() <-chan Event {
	return j.events
}

// emit holds the lock across the channel send so a racing Finished can
// never close the channel underneath an in-flight emit; both are
// expected to run from the entry's own goroutine anyway (§4.4
// single-writer), this just makes misuse safe instead of panicking.
func (j *Job) emit(kind EventKind, payload any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.finished {
		return
	}
	j.events <- Event{Kind: kind, Payload: payload}
}

func (j *Job) Package(r results.Package) { j.emit(EventPackage, r) }

func (j *Job) Details(r results.Details) { j.emit(EventDetails, r) }

func (j *Job) UpdateDetail(r results.UpdateDetail) { j.emit(EventUpdateDetail, r) }

func (j *Job) Files(r results.Files) { j.emit(EventFiles, r) }

func (j *Job) RepoDetail(r results.RepoDetail) { j.emit(EventRepoDetail, r) }

func (j *Job) Category(r results.Category) { j.emit(EventCategory, r) }

func (j *Job) DistroUpgrade(r results.DistroUpgrade) { j.emit(EventDistroUpgrade, r) }

func (j *Job) RequireRestart(r results.RequireRestart) { j.emit(EventRequireRestart, r) }

func (j *Job) RepoSignatureRequired(r results.RepoSignatureRequired) {
	j.emit(EventRepoSignatureRequired, r)
}

func (j *Job) EulaRequired(r results.EulaRequired) { j.emit(EventEulaRequired, r) }

func (j *Job) MediaChangeRequired(r results.MediaChangeRequired) {
	j.emit(EventMediaChangeRequired, r)
}

func (j *Job) ErrorCode(r results.ErrorRecord) { j.emit(EventErrorCode, r) }

func (j *Job) ItemProgress(r results.ItemProgress) { j.emit(EventItemProgress, r) }

func (j *Job) SetPercentage(pct int) { j.emit(EventSetPercentage, pct) }

func (j *Job) SetStatus(s enums.Status) { j.emit(EventSetStatus, s) }

func (j *Job) SetAllowCancel(v bool) { j.emit(EventSetAllowCancel, v) }

func (j *Job) SetSpeed(v uint32) { j.emit(EventSetSpeed, v) }

func (j *Job) SetDownloadSizeRemaining(v uint64) { j.emit(EventSetDownloadSizeRemaining, v) }

// Finished signals job completion exactly once: a second call is a
// no-op, and it is what closes the event channel so a consumer's range
// loop terminates.
func (j *Job) Finished(exit enums.Exit) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.finished {
		return
	}
	j.finished = true
	j.events <- Event{Kind: EventFinished, Payload: exit}
	close(j.events)
}
