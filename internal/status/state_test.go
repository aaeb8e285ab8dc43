package status

import (
	"testing"

	"github.com/shtorm-im/shtorm/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Unauthenticated {
		t.Errorf("initial state = %s, want UNAUTHENTICATED", m.Current())
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{Unauthenticated, LoginPending},
		{Unauthenticated, RegisterPending},
		{Unauthenticated, Authenticated},
		{LoginPending, Authenticated},
		{LoginPending, Unauthenticated},
		{RegisterPending, Authenticated},
		{RegisterPending, Unauthenticated},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := NewMachine(nil)
			walkTo(t, m, tt.from)
			if err := m.Transition(tt.to); err != nil {
				t.Errorf("Transition(%s -> %s) error = %v", tt.from, tt.to, err)
			}
			if m.Current() != tt.to {
				t.Errorf("state = %s, want %s", m.Current(), tt.to)
			}
		})
	}
}

func TestAuthenticatedIsTerminal(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Transition(Authenticated); err != nil {
		t.Fatal(err)
	}
	for _, to := range []State{Unauthenticated, LoginPending, RegisterPending} {
		if err := m.Transition(to); err == nil {
			t.Errorf("Transition(AUTHENTICATED -> %s) should fail", to)
		}
	}
	if m.Current() != Authenticated {
		t.Errorf("state = %s, want AUTHENTICATED", m.Current())
	}
}

// TestLoginFallbackToRegistration walks the flow of a phone number the server
// does not know: the login attempt falls back, then registration succeeds.
func TestLoginFallbackToRegistration(t *testing.T) {
	m := NewMachine(nil)

	steps := []State{LoginPending, Unauthenticated, RegisterPending, Authenticated}
	for _, s := range steps {
		if err := m.Transition(s); err != nil {
			t.Fatalf("Transition to %s: %v (current: %s)", s, err, m.Current())
		}
	}
	if m.Current() != Authenticated {
		t.Errorf("final state = %s, want AUTHENTICATED", m.Current())
	}
}

// TestRestoredSessionSkipsAuth simulates startup with persisted credentials:
// the session is established without any pending state in between.
func TestRestoredSessionSkipsAuth(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Transition(Authenticated); err != nil {
		t.Fatalf("UNAUTHENTICATED -> AUTHENTICATED: %v", err)
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("session.", 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(LoginPending); err != nil {
		t.Fatal(err)
	}

	evt := <-ch
	if evt.Kind != bus.KindStatusChanged {
		t.Errorf("event kind = %q, want %q", evt.Kind, bus.KindStatusChanged)
	}
	change, ok := evt.Payload.(StatusChange)
	if !ok {
		t.Fatalf("payload type = %T, want StatusChange", evt.Payload)
	}
	if change.From != Unauthenticated || change.To != LoginPending {
		t.Errorf("change = %v -> %v, want UNAUTHENTICATED -> LOGIN_PENDING", change.From, change.To)
	}
}

// walkTo is a helper that transitions the machine to a target state.
func walkTo(t *testing.T, m *Machine, target State) {
	t.Helper()
	paths := map[State][]State{
		Unauthenticated: {},
		LoginPending:    {LoginPending},
		RegisterPending: {RegisterPending},
		Authenticated:   {Authenticated},
	}
	for _, s := range paths[target] {
		if err := m.Transition(s); err != nil {
			t.Fatalf("walkTo(%s): %v", target, err)
		}
	}
}
