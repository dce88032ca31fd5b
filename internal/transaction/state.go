// Package transaction implements the per-request state machine (§4.5):
// role dispatch and validation, hints, policy-gated admission to the
// scheduler, backend dispatch, per-record signal forwarding, and
// cancellation. Its lock-guarded-struct-with-accessor shape follows
// the teacher's internal/services.Console (mutex-guarded state,
// Status() returning a copy, a background run loop started from the
// constructor).
package transaction

// State is one node of the transaction state machine (§4.5).
type State int

const (
	StateNew State = iota
	StateSetup
	StateWaitingForAuth
	StateWaiting
	StateRunning
	StateFinished
)

var stateNames = map[State]string{
	StateNew:            "new",
	StateSetup:          "setup",
	StateWaitingForAuth: "waiting-for-auth",
	StateWaiting:        "waiting",
	StateRunning:        "running",
	StateFinished:       "finished",
}

func (s State) String() string {
	if v, ok := stateNames[s]; ok {
		return v
	}
	return "unknown"
}
