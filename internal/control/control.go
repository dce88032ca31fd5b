// Package control implements the bus-wide control surface (§4.7): the
// single well-known object every client talks to first, exposing the
// backend's static capabilities, transaction allocation, and the
// process-wide signals (TransactionListChanged, RepoListChanged,
// UpdatesChanged, Locked, RestartSchedule, NetworkStateChanged). Its
// mutex-guarded-struct-with-accessor shape follows the teacher's
// internal/services.Console; GetTid delegates tid allocation and WRITE/
// READ admission entirely to internal/scheduler.
package control

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/opkgd/pkgbrokerd/internal/apperrors"
	"github.com/opkgd/pkgbrokerd/internal/backend"
	"github.com/opkgd/pkgbrokerd/internal/enums"
	"github.com/opkgd/pkgbrokerd/internal/scheduler"
	"github.com/opkgd/pkgbrokerd/internal/transaction"
)

// Authorizer answers CanAuthorize for a PolicyKit-style action id,
// distinguishing an outright grant from one that needs an interactive
// prompt. It is satisfied by internal/policy.
type Authorizer interface {
	CanAuthorize(ctx context.Context, actionID string) (enums.AuthorizeResult, error)
}

// RoleHistory answers GetTimeSinceAction by looking up the most recent
// FINISHED timestamp for a role. It is satisfied by internal/txndb.
type RoleHistory interface {
	LastCompletion(ctx context.Context, role enums.Role) (time.Time, bool, error)
}

// Metrics observes transaction lifecycle events for export. It is
// satisfied by internal/metrics.Collector and may be nil, in which case
// GetTid simply skips the observation.
type Metrics interface {
	TransactionStarted()
	TransactionFinished(role enums.Role, exit enums.Exit, runtimeMS int64)
}

// Descriptor is the set of control-surface properties the daemon
// configures once at startup: identity and version, everything else
// (roles/filters/groups/mime-types) comes from the backend itself.
type Descriptor struct {
	BackendAuthor string
	VersionMajor  int
	VersionMinor  int
	VersionMicro  int
	DistroID      string
}

// Control is the process-wide control object. There is exactly one per
// daemon (§3.6 "process-wide, single mutable owner").
type Control struct {
	mu sync.Mutex

	descriptor   Descriptor
	be           *backend.Backend
	list         *scheduler.List
	auth         transaction.AuthChecker
	persist      transaction.Persister
	authorizer   Authorizer
	history      RoleHistory
	metrics      Metrics

	locked       bool
	networkState enums.NetworkState
	proxies      map[uint32]ProxyHint

	txns map[string]*transaction.Transaction

	onRepoListChanged    []func()
	onUpdatesChanged     []func()
	onLocked             []func(bool)
	onRestartSchedule    []func()
	onNetworkStateChanged []func(enums.NetworkState)

	log *zap.SugaredLogger
}

// ProxyHint is the per-uid proxy configuration set by SetProxy (§4.7).
type ProxyHint struct {
	HTTPProxy string
	FTPProxy  string
}

// New builds a Control object wired to the given backend and scheduler
// list. auth/persist are forwarded into every transaction this object
// allocates; authorizer/history back CanAuthorize and
// GetTimeSinceAction respectively; metrics observes transaction start/
// finish for export. All three may be nil until those collaborators
// exist (the methods return zero values/errors, or skip observation,
// until then).
func New(desc Descriptor, be *backend.Backend, list *scheduler.List, auth transaction.AuthChecker, persist transaction.Persister, authorizer Authorizer, history RoleHistory, metrics Metrics) *Control {
	return &Control{
		descriptor: desc,
		be:         be,
		list:       list,
		auth:       auth,
		persist:    persist,
		authorizer: authorizer,
		history:    history,
		metrics:    metrics,
		proxies:    make(map[uint32]ProxyHint),
		txns:       make(map[string]*transaction.Transaction),
		log:        zap.S().Named("control"),
	}
}

// BackendName is the read-only "backend-name" property.
func (c *Control) BackendName() string { return c.be.Descriptor.Name }

// BackendDescription is the read-only "backend-description" property.
func (c *Control) BackendDescription() string { return c.be.Descriptor.Description }

// BackendAuthor is the read-only "backend-author" property.
func (c *Control) BackendAuthor() string { return c.descriptor.BackendAuthor }

// MimeTypes is the read-only "mime-types" property.
func (c *Control) MimeTypes() []string { return c.be.Descriptor.MimeTypes }

// Roles is the read-only "roles" bitfield property.
func (c *Control) Roles() enums.Bitfield[enums.Role] { return c.be.Descriptor.Roles }

// Groups is the read-only "groups" bitfield property.
func (c *Control) Groups() enums.Bitfield[enums.Group] { return c.be.Descriptor.Groups }

// Filters is the read-only "filters" bitfield property.
func (c *Control) Filters() enums.Bitfield[enums.Filter] { return c.be.Descriptor.Filters }

// Version returns the three-part daemon version (§4.7
// "version-major/minor/micro").
func (c *Control) Version() (major, minor, micro int) {
	return c.descriptor.VersionMajor, c.descriptor.VersionMinor, c.descriptor.VersionMicro
}

// DistroID is the read-only "distro-id" property.
func (c *Control) DistroID() string { return c.descriptor.DistroID }

// Locked is the read-only "locked" property; true while a database
// lock (e.g. rpm/dpkg) is known to be held by something else.
func (c *Control) Locked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locked
}

// SetLocked updates the "locked" property and fires Locked(bool) if it
// changed.
func (c *Control) SetLocked(locked bool) {
	c.mu.Lock()
	changed := locked != c.locked
	c.locked = locked
	subs := append([]func(bool){}, c.onLocked...)
	c.mu.Unlock()
	if !changed {
		return
	}
	for _, fn := range subs {
		fn(locked)
	}
}

// NetworkState is the read-only "network-state" property.
func (c *Control) NetworkState() enums.NetworkState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.networkState
}

// SetNetworkState updates the "network-state" property and fires
// NetworkStateChanged if it changed.
func (c *Control) SetNetworkState(state enums.NetworkState) {
	c.mu.Lock()
	changed := state != c.networkState
	c.networkState = state
	subs := append([]func(enums.NetworkState){}, c.onNetworkStateChanged...)
	c.mu.Unlock()
	if !changed {
		return
	}
	for _, fn := range subs {
		fn(state)
	}
}

// GetTid allocates a fresh transaction object (§4.7 "GetTid"). The
// returned Transaction is in state NEW; the caller (the bus transport)
// invokes Start with the role the client actually asked for.
func (c *Control) GetTid() (*transaction.Transaction, string) {
	tid := c.list.NewTID()
	tx := transaction.New(tid, c.list, c.be, c.auth, c.persist)

	c.mu.Lock()
	c.txns[tid] = tx
	c.mu.Unlock()

	tx.OnFinished(func(exit enums.Exit, runtimeMS int64) {
		c.mu.Lock()
		delete(c.txns, tid)
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.TransactionFinished(tx.Role(), exit, runtimeMS)
		}
	})

	if c.metrics != nil {
		c.metrics.TransactionStarted()
	}

	return tx, tid
}

// Transaction looks up a previously allocated, not-yet-finished
// transaction by tid, returning an *apperrors.TransactionNotFoundError
// when tid names none (§4.8 "each transaction is a separate bus object
// at its tid path").
func (c *Control) Transaction(tid string) (*transaction.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tx, ok := c.txns[tid]
	if !ok {
		return nil, apperrors.NewTransactionNotFoundError(tid)
	}
	return tx, nil
}

// ErrNotIdle is returned by SuggestDaemonQuit while a transaction is
// still in flight.
var ErrNotIdle = fmt.Errorf("control: transaction list is not idle")

// DaemonQuitter is invoked by SuggestDaemonQuit once the transaction
// list is confirmed idle; it is the daemon's own supervisor.
type DaemonQuitter interface {
	RequestQuit()
}

// SuggestDaemonQuit asks the daemon to consider exiting (§4.7). It is
// only honored while the transaction list is idle; otherwise it is a
// no-op hint, matching §5's "Cancel is a hint" posture for quit
// requests racing in-flight work.
func (c *Control) SuggestDaemonQuit(quitter DaemonQuitter) error {
	if !c.list.IsIdle() {
		return ErrNotIdle
	}
	if quitter != nil {
		quitter.RequestQuit()
	}
	return nil
}

// GetTimeSinceAction reports how long ago role last reached FINISHED,
// per internal/txndb's history.
func (c *Control) GetTimeSinceAction(ctx context.Context, role enums.Role) (time.Duration, error) {
	if c.history == nil {
		return 0, fmt.Errorf("control: no role history configured")
	}
	last, found, err := c.history.LastCompletion(ctx, role)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("control: role %s has never completed", role)
	}
	return time.Since(last), nil
}

// CanAuthorize answers whether a caller could invoke a privileged
// action without prompting, never, or only interactively (§4.7).
func (c *Control) CanAuthorize(ctx context.Context, actionID string) (enums.AuthorizeResult, error) {
	if c.authorizer == nil {
		return enums.AuthorizeNo, fmt.Errorf("control: no authorizer configured")
	}
	return c.authorizer.CanAuthorize(ctx, actionID)
}

// SetProxy records per-uid proxy hints a backend may consult on its
// next network operation (§4.7). It does not itself configure any
// network client.
func (c *Control) SetProxy(uid uint32, httpProxy, ftpProxy string) {
	c.mu.Lock()
	c.proxies[uid] = ProxyHint{HTTPProxy: httpProxy, FTPProxy: ftpProxy}
	c.mu.Unlock()
}

// ProxyFor returns the proxy hint previously set for uid, if any.
func (c *Control) ProxyFor(uid uint32) (ProxyHint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	hint, ok := c.proxies[uid]
	return hint, ok
}

// GetDaemonState returns an opaque debug dump (§4.7); its format is not
// part of the contract.
func (c *Control) GetDaemonState() string {
	c.mu.Lock()
	tids := make([]string, 0, len(c.txns))
	for tid := range c.txns {
		tids = append(tids, tid)
	}
	locked := c.locked
	netState := c.networkState
	proxyCount := len(c.proxies)
	c.mu.Unlock()

	return fmt.Sprintf(
		"backend=%s locked=%t network-state=%s idle=%t in-flight=%v proxies=%d",
		c.be.Descriptor.Name, locked, netState, c.list.IsIdle(), tids, proxyCount,
	)
}

// OnTransactionListChanged subscribes to the scheduler's own
// TransactionListChanged signal (§4.6/§4.7); Control has no state of
// its own to add here, the scheduler is the sole mutator.
func (c *Control) OnTransactionListChanged(fn func(tids []string)) {
	c.list.OnListChanged(fn)
}

// NotifyRepoListChanged fires RepoListChanged; called by whatever
// backend operation mutates the repo list (RepoEnable/RepoSetData/
// RepoRemove).
func (c *Control) NotifyRepoListChanged() {
	c.mu.Lock()
	subs := append([]func(){}, c.onRepoListChanged...)
	c.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// OnRepoListChanged registers a RepoListChanged subscriber.
func (c *Control) OnRepoListChanged(fn func()) {
	c.mu.Lock()
	c.onRepoListChanged = append(c.onRepoListChanged, fn)
	c.mu.Unlock()
}

// NotifyUpdatesChanged fires UpdatesChanged; called after a cache
// refresh or an install/remove that could have altered the update set.
func (c *Control) NotifyUpdatesChanged() {
	c.mu.Lock()
	subs := append([]func(){}, c.onUpdatesChanged...)
	c.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// OnUpdatesChanged registers an UpdatesChanged subscriber.
func (c *Control) OnUpdatesChanged(fn func()) {
	c.mu.Lock()
	c.onUpdatesChanged = append(c.onUpdatesChanged, fn)
	c.mu.Unlock()
}

// OnLocked registers a Locked(bool) subscriber.
func (c *Control) OnLocked(fn func(bool)) {
	c.mu.Lock()
	c.onLocked = append(c.onLocked, fn)
	c.mu.Unlock()
}

// NotifyRestartSchedule fires RestartSchedule; called once a
// transaction's RequireRestart records are all in (§4.5 FINISHED
// handling).
func (c *Control) NotifyRestartSchedule() {
	c.mu.Lock()
	subs := append([]func(){}, c.onRestartSchedule...)
	c.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// OnRestartSchedule registers a RestartSchedule subscriber.
func (c *Control) OnRestartSchedule(fn func()) {
	c.mu.Lock()
	c.onRestartSchedule = append(c.onRestartSchedule, fn)
	c.mu.Unlock()
}

// OnNetworkStateChanged registers a NetworkStateChanged subscriber.
func (c *Control) OnNetworkStateChanged(fn func(enums.NetworkState)) {
	c.mu.Lock()
	c.onNetworkStateChanged = append(c.onNetworkStateChanged, fn)
	c.mu.Unlock()
}
