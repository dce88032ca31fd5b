// Package progress implements the hierarchical completion tracker
// (§4.3) and the richer per-transaction Progress entity that wraps it
// (§3.4).
package progress

import (
	"errors"
	"sync"
)

// ErrStepsAlreadySet is returned by SetSteps when called a second time
// on the same node.
var ErrStepsAlreadySet = errors.New("progress: steps already set")

// ErrStepsUnset is returned by Done when called before SetSteps.
var ErrStepsUnset = errors.New("progress: steps not set")

// ErrStepsExhausted is returned by Done once current has reached steps.
var ErrStepsExhausted = errors.New("progress: all steps already done")

// ErrPercentageRegression is returned by SetPercentage when the supplied
// value is below the last recorded percentage.
var ErrPercentageRegression = errors.New("progress: percentage may not decrease")

// Completion is one node of the hierarchical completion tree (§4.3): a
// parent tracks an intended number of steps and maps each child's own
// completion into a slice of the parent's percentage range. A child
// never holds a reference back to its parent; the parent installs an
// observer on the child at GetChild time instead.
type Completion struct {
	mu             sync.Mutex
	steps          int
	current        int
	lastPercentage int
	child          *Completion

	onPercentage    []func(int)
	onSubPercentage []func(int)
}

// New returns a fresh, unconfigured Completion node.
func New() *Completion {
	return &Completion{}
}

// SetSteps sets the intended number of sub-tasks. It may be called only
// once per node (until Reset); it resets Current and LastPercentage and
// detaches any previously allocated child.
func (c *Completion) SetSteps(n int) error {
	if n <= 0 {
		return errors.New("progress: steps must be > 0")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.steps != 0 {
		return ErrStepsAlreadySet
	}
	c.steps = n
	c.current = 0
	c.lastPercentage = 0
	c.child = nil
	return nil
}

// Steps reports the configured step count, or 0 if unset.
func (c *Completion) Steps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.steps
}

// Current reports the number of completed steps.
func (c *Completion) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Percentage reports the last percentage recorded on this node.
func (c *Completion) Percentage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPercentage
}

// Done marks one sub-task complete: it requires steps to be set and
// current < steps, increments current, recomputes the node's percentage
// as floor(current*100/steps), and resets the child (if any) so it can
// be reused for the next sub-task.
func (c *Completion) Done() error {
	c.mu.Lock()
	if c.steps == 0 {
		c.mu.Unlock()
		return ErrStepsUnset
	}
	if c.current >= c.steps {
		c.mu.Unlock()
		return ErrStepsExhausted
	}
	c.current++
	pct := c.current * 100 / c.steps
	child := c.child
	c.mu.Unlock()

	if child != nil {
		child.Reset()
	}
	c.setPercentage(pct)
	return nil
}

// SetPercentage is accepted only if pct is >= the last recorded
// percentage. A duplicate value is a silent no-op (no notification); a
// regression is rejected and leaves the node's state unchanged.
func (c *Completion) SetPercentage(pct int) error {
	c.mu.Lock()
	if pct < c.lastPercentage {
		c.mu.Unlock()
		return ErrPercentageRegression
	}
	if pct == c.lastPercentage {
		c.mu.Unlock()
		return nil
	}
	c.lastPercentage = pct
	subs := append([]func(int){}, c.onPercentage...)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(pct)
	}
	return nil
}

func (c *Completion) setPercentage(pct int) {
	// Internal variant used by Done: percentage only ever increases as
	// current advances, so a regression here would indicate a bug
	// rather than caller misuse; SetPercentage still enforces it.
	_ = c.SetPercentage(pct)
}

// GetChild returns this node's child, allocating it on first call and
// reusing the same node thereafter. When steps == 1 the child's
// percentage is propagated verbatim as this node's percentage (the
// parent has only one step, so its progress IS its child's). When
// steps > 1, the child's percentage is mapped into
// [current/steps, (current+1)/steps] * 100 and emitted as this node's
// percentage, with the raw child value emitted as this node's
// sub-percentage.
func (c *Completion) GetChild() *Completion {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.child == nil {
		child := New()
		child.OnPercentageChanged(c.onChildPercentage)
		c.child = child
	}
	return c.child
}

func (c *Completion) onChildPercentage(childPct int) {
	c.mu.Lock()
	steps := c.steps
	current := c.current
	subs := append([]func(int){}, c.onSubPercentage...)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(childPct)
	}

	var parentPct int
	switch {
	case steps <= 1:
		parentPct = childPct
	default:
		lower := current * 100 / steps
		upper := (current + 1) * 100 / steps
		parentPct = lower + childPct*(upper-lower)/100
	}
	_ = c.SetPercentage(parentPct)
}

// Reset brings the node back to its initial state: steps = 0,
// current = 0, last percentage = 0, no child. Subscriptions survive a
// reset.
func (c *Completion) Reset() {
	c.mu.Lock()
	c.steps = 0
	c.current = 0
	c.lastPercentage = 0
	c.child = nil
	c.mu.Unlock()
}

// OnPercentageChanged registers a subscriber notified whenever this
// node's own percentage changes.
func (c *Completion) OnPercentageChanged(fn func(pct int)) {
	c.mu.Lock()
	c.onPercentage = append(c.onPercentage, fn)
	c.mu.Unlock()
}

// OnSubPercentageChanged registers a subscriber notified whenever this
// node's child reports a percentage (before it is mapped into this
// node's own range).
func (c *Completion) OnSubPercentageChanged(fn func(pct int)) {
	c.mu.Lock()
	c.onSubPercentage = append(c.onSubPercentage, fn)
	c.mu.Unlock()
}
