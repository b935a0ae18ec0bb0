package shim

import (
	"fmt"

	"github.com/tlsinterop/tlsinterop/internal/model"
	"github.com/tlsinterop/tlsinterop/internal/runtimex"
)

// State is the state of a [Session] within a scenario.
type State int

const (
	Handshaking State = iota
	ApplicationExchange
	HalfClosing
	AwaitingPeerClose
	Closed
)

var stateNames = map[State]string{
	Handshaking:         "handshaking",
	ApplicationExchange: "application_exchange",
	HalfClosing:         "half_closing",
	AwaitingPeerClose:   "awaiting_peer_close",
	Closed:              "closed",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if name, found := stateNames[s]; found {
		return name
	}
	return fmt.Sprintf("STATE_UNKNOWN_%d", int(s))
}

// Tracker tracks the [State] of a session. It panics when the code attempts
// to skip a state or go back to a previous one.
type Tracker struct {
	logger model.Logger
	role   model.Role
	state  State
}

// NewTracker creates a [Tracker] in the [Handshaking] state.
func NewTracker(role model.Role, logger model.Logger) *Tracker {
	return &Tracker{
		logger: model.ValidLoggerOrDefault(logger),
		role:   role,
		state:  Handshaking,
	}
}

// State returns the current state.
func (t *Tracker) State() State {
	return t.state
}

// Advance moves to the next state, which must follow the current one.
func (t *Tracker) Advance(next State) {
	runtimex.Assert(next == t.state+1, fmt.Sprintf("shim: invalid transition from %s to %s", t.state, next))
	t.logger.Debugf("%s: %s -> %s", t.role, t.state, next)
	t.state = next
}
