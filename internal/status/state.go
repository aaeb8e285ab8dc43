package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/shtorm-im/shtorm/internal/bus"
)

// State represents the client's authentication lifecycle state.
type State string

const (
	Unauthenticated State = "UNAUTHENTICATED"
	LoginPending    State = "LOGIN_PENDING"
	RegisterPending State = "REGISTER_PENDING"
	Authenticated   State = "AUTHENTICATED"
)

// validTransitions defines allowed state transitions. A failed login falls
// back to Unauthenticated (the UI then offers registration); a failed
// registration stays in RegisterPending with the error on screen. The direct
// Unauthenticated->Authenticated edge is the restore path from persisted
// credentials. Authenticated is terminal for the session's lifetime.
var validTransitions = map[State][]State{
	Unauthenticated: {LoginPending, RegisterPending, Authenticated},
	LoginPending:    {Authenticated, Unauthenticated},
	RegisterPending: {Authenticated, Unauthenticated},
	Authenticated:   {},
}

// Machine tracks and enforces auth state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Unauthenticated state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Unauthenticated,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Now(bus.KindStatusChanged, StatusChange{
			From: from,
			To:   to,
		}))
	}
	return nil
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
