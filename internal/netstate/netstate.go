// Package netstate probes coarse network reachability and reports it
// as one of the control surface's enumerated states (§4.7
// "network-state"). Reduced, per spec.md's exclusion list, to a single
// periodic default-route dial check rather than a NetworkManager/
// connman integration — those were the original implementation's
// OS-specific backends and are explicitly out of scope.
package netstate

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/opkgd/pkgbrokerd/internal/enums"
)

// Dialer is the single operation Prober needs; satisfied by
// net.Dialer.DialContext, overridable in tests.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Prober periodically dials Target and reports the result as an
// enums.NetworkState, firing OnChange subscribers whenever the state
// flips. It knows only online/offline; "wired"/"wifi"/"mobile" require
// link-type information no pack dependency provides and are left for a
// platform-specific Prober to report via SetState.
type Prober struct {
	mu    sync.Mutex
	state enums.NetworkState

	target   string
	interval time.Duration
	dialer   Dialer

	onChange []func(enums.NetworkState)

	log *zap.SugaredLogger
}

// NewProber builds a Prober that dials target (host:port) every
// interval using dialer. The initial state is offline until the first
// probe completes.
func NewProber(target string, interval time.Duration, dialer Dialer) *Prober {
	return &Prober{
		target:   target,
		interval: interval,
		dialer:   dialer,
		state:    enums.NetworkStateOffline,
		log:      zap.S().Named("netstate"),
	}
}

// State returns the most recently observed state.
func (p *Prober) State() enums.NetworkState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetState overrides the observed state directly, for a platform
// integration able to distinguish wired/wifi/mobile; fires OnChange if
// it actually changed.
func (p *Prober) SetState(state enums.NetworkState) {
	p.mu.Lock()
	changed := state != p.state
	p.state = state
	subs := append([]func(enums.NetworkState){}, p.onChange...)
	p.mu.Unlock()
	if !changed {
		return
	}
	for _, fn := range subs {
		fn(state)
	}
}

// OnChange registers a subscriber fired whenever the observed state
// changes.
func (p *Prober) OnChange(fn func(enums.NetworkState)) {
	p.mu.Lock()
	p.onChange = append(p.onChange, fn)
	p.mu.Unlock()
}

// Run probes at the configured interval until ctx is cancelled. It is
// meant to run on its own goroutine, started by the daemon.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.probe(ctx)
		}
	}
}

func (p *Prober) probe(ctx context.Context) {
	dialCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	conn, err := p.dialer.DialContext(dialCtx, "tcp", p.target)
	if err != nil {
		p.log.Debugw("probe failed", "target", p.target, "error", err)
		p.SetState(enums.NetworkStateOffline)
		return
	}
	conn.Close()
	p.SetState(enums.NetworkStateOnline)
}
