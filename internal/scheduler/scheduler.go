// Package scheduler owns the process-wide transaction list and decides
// admission (§4.6): it allocates tids, tracks which transactions are
// in flight, and enforces that at most one WRITE transaction runs at a
// time while READ transactions run freely. It is adapted from the
// teacher's pkg/scheduler worker pool: the same channel-gated
// admission idea (there: a fixed worker count; here: one write slot
// plus unlimited read slots), generalized to a FIFO-among-writes
// policy instead of a simple dispatch queue.
package scheduler

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/opkgd/pkgbrokerd/internal/enums"
)

// Ticket is what Submit hands back: the caller waits on Admitted before
// invoking the backend entry point, then calls List.Finish when the
// transaction reaches FINISHED.
type Ticket struct {
	TID  string
	Role enums.Role

	admit chan struct{}
}

// Admitted closes once the scheduler has cleared this ticket to move
// from WAITING to RUNNING (§4.5). A READ ticket is always admitted
// immediately; a WRITE ticket may block behind another WRITE.
func (t *Ticket) Admitted() <-chan struct{} {
	return t.admit
}

// List is the transaction list and admission scheduler. It is
// process-wide, single mutable owner, exactly as §3.6 requires.
type List struct {
	mu sync.Mutex

	all             map[string]*Ticket
	writeQueue      []*Ticket
	writeRunning    bool
	currentWriteTID string
	readRunning     map[string]bool

	idle bool

	onListChanged []func(tids []string)
	onIdleChanged []func(idle bool)
}

// NewList returns an empty, idle transaction list.
func NewList() *List {
	return &List{
		all:         make(map[string]*Ticket),
		readRunning: make(map[string]bool),
		idle:        true,
	}
}

// NewTID allocates a fresh, unique tid path. Uniqueness is the only
// guarantee the rest of the system relies on (§4.6); the format is an
// implementation detail.
func (l *List) NewTID() string {
	return fmt.Sprintf("/transaction/%s", uuid.New().String())
}

// Submit registers tid/role with the list and returns a Ticket. WRITE
// roles (enums.Role.IsWriteRole) queue FIFO behind any WRITE already
// running; READ roles are admitted immediately and run alongside
// anything else.
func (l *List) Submit(tid string, role enums.Role) *Ticket {
	l.mu.Lock()

	t := &Ticket{TID: tid, Role: role, admit: make(chan struct{})}
	l.all[tid] = t

	if role.IsWriteRole() {
		if !l.writeRunning {
			l.writeRunning = true
			l.currentWriteTID = tid
			close(t.admit)
		} else {
			l.writeQueue = append(l.writeQueue, t)
		}
	} else {
		l.readRunning[tid] = true
		close(t.admit)
	}

	tids := l.tidsLocked()
	idleChanged, idle := l.updateIdleLocked()
	l.mu.Unlock()

	l.fireListChanged(tids)
	if idleChanged {
		l.fireIdleChanged(idle)
	}
	return t
}

// Finish removes tid from the list, whether it was RUNNING or still
// queued (a cancelled WAITING transaction calls this too). If it was
// the running WRITE, the next queued WRITE (if any) is admitted.
func (l *List) Finish(tid string) {
	l.mu.Lock()

	delete(l.all, tid)
	delete(l.readRunning, tid)

	if tid == l.currentWriteTID {
		l.writeRunning = false
		l.currentWriteTID = ""
	} else {
		for i, queued := range l.writeQueue {
			if queued.TID == tid {
				l.writeQueue = append(l.writeQueue[:i], l.writeQueue[i+1:]...)
				break
			}
		}
	}
	l.dispatchNextWriteLocked()

	tids := l.tidsLocked()
	idleChanged, idle := l.updateIdleLocked()
	l.mu.Unlock()

	l.fireListChanged(tids)
	if idleChanged {
		l.fireIdleChanged(idle)
	}
}

func (l *List) dispatchNextWriteLocked() {
	if l.writeRunning || len(l.writeQueue) == 0 {
		return
	}
	next := l.writeQueue[0]
	l.writeQueue = l.writeQueue[1:]
	l.writeRunning = true
	l.currentWriteTID = next.TID
	close(next.admit)
}

// TIDs returns every in-flight (WAITING or RUNNING) transaction id, in
// no particular order.
func (l *List) TIDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tidsLocked()
}

func (l *List) tidsLocked() []string {
	out := make([]string, 0, len(l.all))
	for tid := range l.all {
		out = append(out, tid)
	}
	sort.Strings(out)
	return out
}

// IsIdle reports whether the transaction list is currently empty.
func (l *List) IsIdle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.idle
}

// updateIdleLocked recomputes the idle bit and reports whether it
// changed, without itself invoking any subscriber (the caller fires
// subscribers after releasing l.mu, so a subscriber is free to call
// back into the List).
func (l *List) updateIdleLocked() (changed, idle bool) {
	idle = len(l.all) == 0
	changed = idle != l.idle
	l.idle = idle
	return changed, idle
}

func (l *List) fireListChanged(tids []string) {
	l.mu.Lock()
	subs := append([]func([]string){}, l.onListChanged...)
	l.mu.Unlock()
	for _, fn := range subs {
		fn(tids)
	}
}

func (l *List) fireIdleChanged(idle bool) {
	l.mu.Lock()
	subs := append([]func(bool){}, l.onIdleChanged...)
	l.mu.Unlock()
	for _, fn := range subs {
		fn(idle)
	}
}

// OnListChanged registers a subscriber for TransactionListChanged
// (§4.7).
func (l *List) OnListChanged(fn func(tids []string)) {
	l.mu.Lock()
	l.onListChanged = append(l.onListChanged, fn)
	l.mu.Unlock()
}

// OnIdleChanged registers a subscriber fired whenever the idle bit
// flips (§4.6), used by the daemon supervisor to decide exit.
func (l *List) OnIdleChanged(fn func(idle bool)) {
	l.mu.Lock()
	l.onIdleChanged = append(l.onIdleChanged, fn)
	l.mu.Unlock()
}
