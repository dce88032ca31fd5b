// Package backendproxy wires an out-of-process backend plugin into the
// in-process backend.Backend contract (§4.4), reconnecting the
// transport-level connection with exponential backoff when it drops.
// Grounded on internal/services.Console's run loop: the same manual
// cenkalti/backoff/v5 NextBackOff()-growing-to-a-cap idiom, reset on a
// successful call instead of backoff.Retry's built-in loop, since the
// thing being retried here is establishing a connection, not a single
// operation (§7: "the core never retries" still holds for transaction
// semantics — only the connection is retried, never a failed role
// invocation).
package backendproxy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/opkgd/pkgbrokerd/internal/backend"
	"github.com/opkgd/pkgbrokerd/internal/enums"
	"github.com/opkgd/pkgbrokerd/internal/results"
)

// Transport is a connected channel to an out-of-process backend plugin.
// Its wire codec is implementation-opaque (unix socket, gRPC, whatever
// the plugin speaks) — backendproxy only needs to dial it and invoke a
// role, mirroring how internal/frontendsocket treats its byte stream as
// uninterpreted.
type Transport interface {
	// Call invokes role with params and streams back the resulting
	// backend.Events, the same shape a local EntryFunc emits. The
	// returned channel is closed once the remote job reports Finished
	// or ctx is done.
	Call(ctx context.Context, role enums.Role, params backend.Params) (<-chan backend.Event, error)
	Close() error
}

// Dialer establishes a new Transport. Reconnect calls this again after
// a Transport is lost.
type Dialer func(ctx context.Context) (Transport, error)

// Proxy holds the current Transport to a remote backend, reconnecting
// lazily and on failure.
type Proxy struct {
	dial Dialer

	mu        sync.Mutex
	transport Transport
	backoff   *backoff.ExponentialBackOff
	retryAt   time.Time

	log *zap.SugaredLogger
}

// NewProxy builds a Proxy that dials via dial on first use. minRetry is
// the initial reconnect delay; maxRetry caps how long it grows to.
func NewProxy(dial Dialer, minRetry, maxRetry time.Duration) *Proxy {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = minRetry
	b.MaxInterval = maxRetry
	return &Proxy{
		dial:    dial,
		backoff: b,
		log:     zap.S().Named("backendproxy"),
	}
}

// ErrBackoffActive is returned when a connection attempt is skipped
// because the reconnect backoff interval has not yet elapsed.
var ErrBackoffActive = fmt.Errorf("backendproxy: reconnect backoff active")

func (p *Proxy) ensure(ctx context.Context) (Transport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.transport != nil {
		return p.transport, nil
	}

	now := time.Now()
	if now.Before(p.retryAt) {
		return nil, ErrBackoffActive
	}

	t, err := p.dial(ctx)
	if err != nil {
		wait := p.backoff.NextBackOff()
		p.retryAt = now.Add(wait)
		p.log.Warnw("backend connection failed, backing off", "error", err, "retry-in", wait)
		return nil, fmt.Errorf("backendproxy: dial: %w", err)
	}

	p.backoff.Reset()
	p.retryAt = time.Time{}
	p.transport = t
	p.log.Info("backend connection established")
	return t, nil
}

func (p *Proxy) drop(t Transport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.transport == t {
		t.Close()
		p.transport = nil
	}
}

// Register builds a Backend whose entry points for roles all forward to
// this Proxy's Transport. descriptor supplies the advertised name,
// description, and capability bitfields the remote plugin reports.
func (p *Proxy) Register(descriptor backend.Descriptor, roles ...enums.Role) *backend.Backend {
	be := backend.New(descriptor.Name, descriptor.Description).
		WithFilters(descriptor.Filters.Values(enums.AllFilters())...).
		WithGroups(descriptor.Groups.Values(enums.AllGroups())...).
		WithMimeTypes(descriptor.MimeTypes...)

	for _, role := range roles {
		role := role
		be.Register(role, func(job *backend.Job, params backend.Params) {
			p.run(job, role, params)
		})
	}
	return be
}

func (p *Proxy) run(job *backend.Job, role enums.Role, params backend.Params) {
	ctx := job.Context()

	transport, err := p.ensure(ctx)
	if err != nil {
		job.ErrorCode(results.ErrorRecord{
			Source:  results.Source{Role: role, TransactionID: job.ID},
			Code:    enums.ErrCodeNoNetwork,
			Details: err.Error(),
		})
		job.Finished(enums.ExitFailed)
		return
	}

	events, err := transport.Call(ctx, role, params)
	if err != nil {
		p.drop(transport)
		job.ErrorCode(results.ErrorRecord{
			Source:  results.Source{Role: role, TransactionID: job.ID},
			Code:    enums.ErrCodeInternalError,
			Details: err.Error(),
		})
		job.Finished(enums.ExitFailed)
		return
	}

	for ev := range events {
		if ev.Kind == backend.EventFinished {
			job.Finished(ev.Payload.(enums.Exit))
			return
		}
		forward(job, ev)
	}
	// Channel closed without a Finished event: the transport dropped
	// mid-call.
	p.drop(transport)
	job.ErrorCode(results.ErrorRecord{
		Source:  results.Source{Role: role, TransactionID: job.ID},
		Code:    enums.ErrCodeInternalError,
		Details: "backend connection lost before the job finished",
	})
	job.Finished(enums.ExitFailed)
}

func forward(job *backend.Job, ev backend.Event) {
	switch ev.Kind {
	case backend.EventPackage:
		job.Package(ev.Payload.(results.Package))
	case backend.EventDetails:
		job.Details(ev.Payload.(results.Details))
	case backend.EventUpdateDetail:
		job.UpdateDetail(ev.Payload.(results.UpdateDetail))
	case backend.EventFiles:
		job.Files(ev.Payload.(results.Files))
	case backend.EventRepoDetail:
		job.RepoDetail(ev.Payload.(results.RepoDetail))
	case backend.EventCategory:
		job.Category(ev.Payload.(results.Category))
	case backend.EventDistroUpgrade:
		job.DistroUpgrade(ev.Payload.(results.DistroUpgrade))
	case backend.EventRequireRestart:
		job.RequireRestart(ev.Payload.(results.RequireRestart))
	case backend.EventRepoSignatureRequired:
		job.RepoSignatureRequired(ev.Payload.(results.RepoSignatureRequired))
	case backend.EventEulaRequired:
		job.EulaRequired(ev.Payload.(results.EulaRequired))
	case backend.EventMediaChangeRequired:
		job.MediaChangeRequired(ev.Payload.(results.MediaChangeRequired))
	case backend.EventErrorCode:
		job.ErrorCode(ev.Payload.(results.ErrorRecord))
	case backend.EventItemProgress:
		job.ItemProgress(ev.Payload.(results.ItemProgress))
	case backend.EventSetPercentage:
		job.SetPercentage(ev.Payload.(int))
	case backend.EventSetStatus:
		job.SetStatus(ev.Payload.(enums.Status))
	case backend.EventSetAllowCancel:
		job.SetAllowCancel(ev.Payload.(bool))
	case backend.EventSetSpeed:
		job.SetSpeed(ev.Payload.(uint32))
	case backend.EventSetDownloadSizeRemaining:
		job.SetDownloadSizeRemaining(ev.Payload.(uint64))
	}
}

