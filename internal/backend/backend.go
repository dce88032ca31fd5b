package backend

import (
	"context"
	"fmt"

	"github.com/opkgd/pkgbrokerd/internal/enums"
	"github.com/opkgd/pkgbrokerd/internal/results"
)

func errorRecordFromPanic(job *Job, role enums.Role, r any) results.ErrorRecord {
	return results.ErrorRecord{
		Source:  results.Source{Role: role, TransactionID: job.ID},
		Code:    enums.ErrCodeInternalError,
		Details: fmt.Sprintf("backend entry panicked: %v", r),
	}
}

// EntryFunc is the shape every per-role entry point takes (§4.4): the
// job handle it reports through, plus the role-specific parameters. It
// runs synchronously on its own goroutine and must call job.Finished
// exactly once before returning.
type EntryFunc func(job *Job, params Params)

// Descriptor is what a backend advertises about itself: name,
// description, and the three capability bitfields plus the MIME type
// list the control surface reads to answer its Roles/Filters/Groups/
// MimeTypes accessors (§4.4).
type Descriptor struct {
	Name        string
	Description string
	Roles       enums.Bitfield[enums.Role]
	Filters     enums.Bitfield[enums.Filter]
	Groups      enums.Bitfield[enums.Group]
	MimeTypes   []string
}

// Backend binds a Descriptor to the table of entry points it actually
// implements. Roles without a registered entry are simply absent from
// the advertised set (§4.4 "optional roles").
type Backend struct {
	Descriptor

	entries  map[enums.Role]EntryFunc
	cancelFn func(job *Job)
}

// New returns an empty backend with no registered roles.
func New(name, description string) *Backend {
	return &Backend{
		Descriptor: Descriptor{Name: name, Description: description},
		entries:    make(map[enums.Role]EntryFunc),
	}
}

// Register binds role to fn and adds role to the advertised Roles
// bitfield.
func (b *Backend) Register(role enums.Role, fn EntryFunc) *Backend {
	b.entries[role] = fn
	b.Roles = b.Roles.With(role)
	return b
}

// WithFilters extends the advertised Filters bitfield.
func (b *Backend) WithFilters(filters ...enums.Filter) *Backend {
	for _, f := range filters {
		b.Filters = b.Filters.With(f)
	}
	return b
}

// WithGroups extends the advertised Groups bitfield.
func (b *Backend) WithGroups(groups ...enums.Group) *Backend {
	for _, g := range groups {
		b.Groups = b.Groups.With(g)
	}
	return b
}

// WithMimeTypes appends to the advertised MIME type list.
func (b *Backend) WithMimeTypes(types ...string) *Backend {
	b.MimeTypes = append(b.MimeTypes, types...)
	return b
}

// SetCancel installs the backend-specific cancel hook. Backends that
// don't need one may omit it: Cancel then falls back to cancelling the
// job's context, and an entry observing ctx.Done() is expected to call
// Finished with ExitCancelled promptly.
func (b *Backend) SetCancel(fn func(job *Job)) *Backend {
	b.cancelFn = fn
	return b
}

// Entry reports whether role has a registered entry point and returns
// it.
func (b *Backend) Entry(role enums.Role) (EntryFunc, bool) {
	fn, ok := b.entries[role]
	return fn, ok
}

// ErrRoleNotSupported is returned by Dispatch when asked to invoke a
// role the backend has no entry for. The transaction layer is expected
// to check Entry itself before ever reaching Dispatch (§4.4: invoking
// an absent role "is a programmer error and must be rejected before
// dispatch"); Dispatch still refuses rather than trusting the caller.
var ErrRoleNotSupported = fmt.Errorf("backend: role not supported")

// Dispatch starts role's entry point on its own goroutine and returns
// the Job immediately; the caller ranges over job.Events() to observe
// its output. A panicking entry is converted into an ErrCodeInternalError
// followed by a Finished(ExitFailed), mirroring the teacher worker
// pool's panic-to-error recovery.
func (b *Backend) Dispatch(ctx context.Context, jobID string, role enums.Role, params Params) (*Job, error) {
	fn, ok := b.entries[role]
	if !ok {
		return nil, fmt.Errorf("%w: %s does not implement %s", ErrRoleNotSupported, b.Name, role)
	}

	jobCtx, cancel := context.WithCancel(ctx)
	job := newJob(jobID, jobCtx, cancel)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				job.ErrorCode(errorRecordFromPanic(job, role, r))
				job.Finished(enums.ExitFailed)
			}
		}()
		fn(job, params)
	}()

	return job, nil
}

// Cancel asks a running job to abort: the backend-specific hook if one
// was installed, otherwise a plain context cancellation.
func (b *Backend) Cancel(job *Job) {
	if b.cancelFn != nil {
		b.cancelFn(job)
		return
	}
	job.cancel()
}
