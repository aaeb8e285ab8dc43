package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/shtorm-im/shtorm/internal/status"
	"github.com/shtorm-im/shtorm/internal/store"
	"github.com/shtorm-im/shtorm/internal/transport"
	"go.uber.org/zap"
)

// Store keys for persisted credentials. Both are written together on
// authentication and read together on startup; partial presence is
// treated as absence.
const (
	keyUserID   = "user_id"
	keyUserData = "user_data"
)

// Validation errors reported before any network call is made.
var (
	ErrEmptyPhone = errors.New("phone is required")
	ErrEmptyName  = errors.New("name is required")
)

// ErrNotRegistered mirrors the transport sentinel so callers need not import
// both packages to branch on a failed login.
var ErrNotRegistered = transport.ErrNotRegistered

// Manager owns the client's identity: it restores it from the local store at
// startup, establishes it through login/registration, and persists it on
// success. Exactly one Manager exists per running client.
type Manager struct {
	store   *store.Store
	client  *transport.Client
	machine *status.Machine
	logger  *zap.Logger

	mu      sync.RWMutex
	userID  int
	profile *transport.User
}

// NewManager creates a session manager.
func NewManager(st *store.Store, client *transport.Client, machine *status.Machine, logger *zap.Logger) *Manager {
	return &Manager{
		store:   st,
		client:  client,
		machine: machine,
		logger:  logger,
	}
}

// Restore loads persisted credentials and, when both entries are present and
// well-formed, establishes the session without any network call. Malformed or
// partial entries leave the session unauthenticated; Restore never fails.
func (m *Manager) Restore() {
	idRaw, idOK, err := m.store.Get(keyUserID)
	if err != nil {
		m.logger.Warn("failed to read stored user id", zap.Error(err))
		return
	}
	dataRaw, dataOK, err := m.store.Get(keyUserData)
	if err != nil {
		m.logger.Warn("failed to read stored profile", zap.Error(err))
		return
	}
	if !idOK || !dataOK {
		m.logger.Info("no stored session")
		return
	}

	userID, err := strconv.Atoi(strings.TrimSpace(idRaw))
	if err != nil || userID <= 0 {
		m.logger.Warn("stored user id is malformed, ignoring session", zap.String("value", idRaw))
		return
	}
	var profile transport.User
	if err := json.Unmarshal([]byte(dataRaw), &profile); err != nil {
		m.logger.Warn("stored profile is malformed, ignoring session", zap.Error(err))
		return
	}

	m.establish(userID, &profile)
	m.logger.Info("session restored", zap.Int("user_id", userID))
}

// Login authenticates an existing account by phone. A server-side rejection
// returns ErrNotRegistered, which is a mode switch for the UI rather than an
// error to display.
func (m *Manager) Login(ctx context.Context, phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ErrEmptyPhone
	}

	// A login attempt abandons any registration still on screen.
	m.CancelRegistration()
	if err := m.machine.Transition(status.LoginPending); err != nil {
		return err
	}

	user, err := m.client.Login(ctx, phone)
	if err != nil {
		_ = m.machine.Transition(status.Unauthenticated)
		if errors.Is(err, transport.ErrNotRegistered) {
			m.logger.Info("login rejected, falling back to registration", zap.String("phone", phone))
			return ErrNotRegistered
		}
		m.logger.Error("login request failed", zap.Error(err))
		return fmt.Errorf("connection error: %w", err)
	}

	m.persist(user)
	m.establish(user.ID, user)
	m.logger.Info("logged in", zap.Int("user_id", user.ID))
	return nil
}

// Register creates a new account. Failures surface the server's message and
// leave the registration flow on screen.
func (m *Manager) Register(ctx context.Context, phone, name, avatar string) error {
	phone = strings.TrimSpace(phone)
	name = strings.TrimSpace(name)
	if phone == "" {
		return ErrEmptyPhone
	}
	if name == "" {
		return ErrEmptyName
	}
	if avatar == "" {
		avatar = DefaultAvatar
	}

	if m.machine.Current() != status.RegisterPending {
		if err := m.machine.Transition(status.RegisterPending); err != nil {
			return err
		}
	}

	user, err := m.client.Register(ctx, phone, name, avatar)
	if err != nil {
		var apiErr *transport.APIError
		if errors.As(err, &apiErr) {
			m.logger.Warn("registration rejected", zap.String("reason", apiErr.Message))
			return err
		}
		m.logger.Error("register request failed", zap.Error(err))
		return fmt.Errorf("connection error: %w", err)
	}

	m.persist(user)
	m.establish(user.ID, user)
	m.logger.Info("registered", zap.Int("user_id", user.ID))
	return nil
}

// CancelRegistration abandons an in-progress registration and returns the
// flow to the phone step. A no-op in any other state.
func (m *Manager) CancelRegistration() {
	if m.machine.Current() != status.RegisterPending {
		return
	}
	if err := m.machine.Transition(status.Unauthenticated); err != nil {
		m.logger.Warn("status transition failed", zap.Error(err))
	}
}

// Authenticated reports whether a session is established.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userID > 0
}

// UserID returns the session's user id, or zero when unauthenticated.
func (m *Manager) UserID() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userID
}

// Profile returns a copy of the session's profile, or nil when unauthenticated.
func (m *Manager) Profile() *transport.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.profile == nil {
		return nil
	}
	p := *m.profile
	return &p
}

func (m *Manager) establish(userID int, profile *transport.User) {
	m.mu.Lock()
	m.userID = userID
	m.profile = profile
	m.mu.Unlock()
	if err := m.machine.Transition(status.Authenticated); err != nil {
		m.logger.Warn("status transition failed", zap.Error(err))
	}
}

// persist durably stores both credential entries. Persistence failure does
// not block the in-memory session; it only costs continuity across restarts.
func (m *Manager) persist(user *transport.User) {
	data, err := json.Marshal(user)
	if err != nil {
		m.logger.Error("failed to encode profile", zap.Error(err))
		return
	}
	if err := m.store.Set(keyUserID, strconv.Itoa(user.ID)); err != nil {
		m.logger.Error("failed to persist user id", zap.Error(err))
		return
	}
	if err := m.store.Set(keyUserData, string(data)); err != nil {
		m.logger.Error("failed to persist profile", zap.Error(err))
	}
}
