// Package session keeps the client's authentication state. A Manager is
// built once per process, restores the previous session from a Store and
// is then shared by every command that needs the current user.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

const (
	DefaultNamespace = "@GoBarber"

	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
)

// Store is the durable key-value collaborator. Get returns ErrNotFound for
// an absent key; Remove of an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Transport is the part of the API client the Manager drives
type Transport interface {
	Authenticate(ctx context.Context, creds Credentials) (token string, user User, err error)
	SetDefaultHeader(key, value string)
	DelDefaultHeader(key string)
}

// Listener receives the new state after every transition
type Listener func(State)

// Option configures a Manager
type Option func(*Manager)

// WithNamespace sets the prefix of the persisted keys
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		m.namespace = ns
	}
}

// WithLogger sets the logger used for transitions and restore problems
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = log
	}
}

// Manager owns the session state
type Manager struct {
	store     Store
	transport Transport
	namespace string
	logger    zerolog.Logger

	mu    sync.RWMutex
	state State

	listenersMu sync.Mutex
	listeners   []subscription
	nextID      int
}

type subscription struct {
	id int
	fn Listener
}

// New builds a Manager and restores the persisted session synchronously.
//
// A persisted user record that does not decode, or decodes to a user without
// an ID, is discarded: both keys are removed, the Manager starts anonymous
// and New returns it together with a *CorruptedSessionError. Any other error
// means the store could not be read and no Manager is returned.
func New(ctx context.Context, store Store, transport Transport, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:     store,
		transport: transport,
		namespace: DefaultNamespace,
		logger:    zerolog.Nop(),
		state:     Anonymous(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.restore(ctx); err != nil {
		var corrupted *CorruptedSessionError
		if errors.As(err, &corrupted) {
			return m, err
		}
		return nil, err
	}

	return m, nil
}

// TokenKey returns the key the bearer token is stored under
func (m *Manager) TokenKey() string {
	return m.namespace + ":token"
}

// UserKey returns the key the serialized user is stored under
func (m *Manager) UserKey() string {
	return m.namespace + ":user"
}

func (m *Manager) restore(ctx context.Context) error {
	token, tokenErr := m.store.Get(ctx, m.TokenKey())
	if tokenErr != nil && !errors.Is(tokenErr, ErrNotFound) {
		return fmt.Errorf("failed to read session token: %w", tokenErr)
	}
	rawUser, userErr := m.store.Get(ctx, m.UserKey())
	if userErr != nil && !errors.Is(userErr, ErrNotFound) {
		return fmt.Errorf("failed to read session user: %w", userErr)
	}

	hasToken := tokenErr == nil && token != ""
	hasUser := userErr == nil && rawUser != ""

	if !hasToken || !hasUser {
		if hasToken || hasUser {
			// Half a session is as good as none; drop the stray key.
			m.logger.Debug().Bool("token", hasToken).Bool("user", hasUser).Msg("Discarding partial session")
			if err := m.removeKeys(ctx); err != nil {
				m.logger.Warn().Err(err).Msg("Failed to remove partial session")
			}
		}
		return nil
	}

	var user User
	err := json.Unmarshal([]byte(rawUser), &user)
	if err == nil && user.ID == "" {
		// null or {} decodes cleanly but is not a user
		err = ErrEmptyUser
	}
	if err != nil {
		m.logger.Warn().Err(err).Str("key", m.UserKey()).Msg("Persisted user is corrupted, resetting session")
		if rmErr := m.removeKeys(ctx); rmErr != nil {
			m.logger.Warn().Err(rmErr).Msg("Failed to remove corrupted session")
		}
		return &CorruptedSessionError{Key: m.UserKey(), Cause: err}
	}

	m.transport.SetDefaultHeader(authorizationHeader, bearerPrefix+token)
	m.state = authenticated(token, user)

	m.logger.Debug().Str("user_id", user.ID).Msg("Session restored")
	return nil
}

// State returns a snapshot of the current session
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CurrentUser returns the signed-in user. ok is false when anonymous.
func (m *Manager) CurrentUser() (user User, ok bool) {
	st := m.State()
	if !st.Authenticated() {
		return User{}, false
	}
	return st.User, true
}

// Token returns the bearer token, or "" when anonymous
func (m *Manager) Token() string {
	return m.State().Token
}

// SignIn exchanges credentials for a token, persists the pair and switches
// to the authenticated state. On failure the previous state is kept.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	token, user, err := m.transport.Authenticate(ctx, Credentials{Email: email, Password: password})
	if err != nil {
		return &AuthenticationError{Cause: err}
	}
	if token == "" {
		return &AuthenticationError{Cause: errors.New("empty token in session response")}
	}
	if user.ID == "" {
		return &AuthenticationError{Cause: errors.New("empty user in session response")}
	}

	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	m.mu.Lock()
	prev := m.state
	if err := m.store.Set(ctx, m.TokenKey(), token); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to save session token: %w", err)
	}
	if err := m.store.Set(ctx, m.UserKey(), string(rawUser)); err != nil {
		m.rollback(ctx, prev)
		m.mu.Unlock()
		return fmt.Errorf("failed to save session user: %w", err)
	}

	m.transport.SetDefaultHeader(authorizationHeader, bearerPrefix+token)
	m.state = authenticated(token, user)
	next := m.state
	m.mu.Unlock()

	m.logger.Debug().Str("user_id", user.ID).Msg("Signed in")
	m.notify(next)
	return nil
}

// rollback puts the persisted pair back to prev after a failed write.
// Called with mu held.
func (m *Manager) rollback(ctx context.Context, prev State) {
	var err error
	if prev.Authenticated() {
		err = m.store.Set(ctx, m.TokenKey(), prev.Token)
	} else {
		err = m.store.Remove(ctx, m.TokenKey())
	}
	if err != nil {
		m.logger.Warn().Err(err).Msg("Failed to roll back session token")
	}
}

// SignOut forgets the session. Both keys are removed every time, so calling
// it while anonymous is a no-op. The in-memory state is reset even when the
// store reports an error.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	err := m.removeKeys(ctx)
	m.transport.DelDefaultHeader(authorizationHeader)
	m.state = Anonymous()
	next := m.state
	m.mu.Unlock()

	m.logger.Debug().Msg("Signed out")
	m.notify(next)

	if err != nil {
		return fmt.Errorf("failed to clear persisted session: %w", err)
	}
	return nil
}

func (m *Manager) removeKeys(ctx context.Context) error {
	return errors.Join(
		m.store.Remove(ctx, m.TokenKey()),
		m.store.Remove(ctx, m.UserKey()),
	)
}

// UpdateUser replaces the stored user and keeps the token. It fails with
// ErrNotAuthenticated when there is no session to update and with
// ErrEmptyUser when user has no ID.
func (m *Manager) UpdateUser(ctx context.Context, user User) error {
	if user.ID == "" {
		return ErrEmptyUser
	}

	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	m.mu.Lock()
	if !m.state.Authenticated() {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	if err := m.store.Set(ctx, m.UserKey(), string(rawUser)); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to save session user: %w", err)
	}
	m.state = authenticated(m.state.Token, user)
	next := m.state
	m.mu.Unlock()

	m.logger.Debug().Str("user_id", user.ID).Msg("User updated")
	m.notify(next)
	return nil
}

// Subscribe registers fn to be called after every transition. The returned
// func removes it.
func (m *Manager) Subscribe(fn Listener) (unsubscribe func()) {
	m.listenersMu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners = append(m.listeners, subscription{id: id, fn: fn})
	m.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.listenersMu.Lock()
			for i, sub := range m.listeners {
				if sub.id == id {
					m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
					break
				}
			}
			m.listenersMu.Unlock()
		})
	}
}

func (m *Manager) notify(st State) {
	m.listenersMu.Lock()
	subs := make([]subscription, len(m.listeners))
	copy(subs, m.listeners)
	m.listenersMu.Unlock()

	for _, sub := range subs {
		sub.fn(st)
	}
}
