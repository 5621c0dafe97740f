package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/invoice-web/auth"
	"github.com/diewo77/invoice-web/internal/apiclient"
	"github.com/sirupsen/logrus"
)

const (
	keyToken = "ai_token"
	keyAuth  = "ai_auth"
)

// AuthState is what a signed-in session remembers.
type AuthState struct {
	Token   string             `json:"token"`
	User    *apiclient.User    `json:"user,omitempty"`
	Company *apiclient.Company `json:"company,omitempty"`
}

// Manager stores the auth state of each browser session. It also serves as
// the apiclient.TokenSource, reading the session id from the request context.
type Manager struct {
	store Store
	ttl   time.Duration
	log   logrus.FieldLogger
}

func NewManager(store Store, ttl time.Duration, log logrus.FieldLogger) *Manager {
	return &Manager{store: store, ttl: ttl, log: log}
}

func storeKey(sid, name string) string { return sid + ":" + name }

// Save records a successful login for sid.
func (m *Manager) Save(ctx context.Context, sid string, st AuthState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("session: encode auth: %w", err)
	}
	if err := m.store.Set(ctx, storeKey(sid, keyToken), st.Token, m.ttl); err != nil {
		return err
	}
	return m.store.Set(ctx, storeKey(sid, keyAuth), string(raw), m.ttl)
}

// Load returns the auth state of sid. ok is false when the session holds
// no token.
func (m *Manager) Load(ctx context.Context, sid string) (st AuthState, ok bool, err error) {
	tok, err := m.store.Get(ctx, storeKey(sid, keyToken))
	if errors.Is(err, ErrNotFound) {
		return st, false, nil
	}
	if err != nil {
		return st, false, err
	}
	st.Token = tok
	raw, err := m.store.Get(ctx, storeKey(sid, keyAuth))
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return st, false, err
	default:
		if uerr := json.Unmarshal([]byte(raw), &st); uerr != nil {
			m.log.WithError(uerr).Warn("session: discarding unreadable auth state")
		}
		st.Token = tok
	}
	return st, tok != "", nil
}

// Clear removes both keys of sid.
func (m *Manager) Clear(ctx context.Context, sid string) error {
	return m.store.Delete(ctx, storeKey(sid, keyToken), storeKey(sid, keyAuth))
}

// Current returns the auth state of the session in ctx.
func (m *Manager) Current(ctx context.Context) (AuthState, bool) {
	sid, ok := auth.SessionIDFromContext(ctx)
	if !ok {
		return AuthState{}, false
	}
	st, ok, err := m.Load(ctx, sid)
	if err != nil {
		m.log.WithError(err).Warn("session: load failed")
		return AuthState{}, false
	}
	return st, ok
}

// SignedIn reports whether the session in ctx holds a token.
func (m *Manager) SignedIn(ctx context.Context) bool {
	_, ok := m.Current(ctx)
	return ok
}

// Token implements apiclient.TokenSource.
func (m *Manager) Token(ctx context.Context) (string, bool) {
	sid, ok := auth.SessionIDFromContext(ctx)
	if !ok {
		return "", false
	}
	tok, err := m.store.Get(ctx, storeKey(sid, keyToken))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.log.WithError(err).Warn("session: token lookup failed")
		}
		return "", false
	}
	return tok, tok != ""
}

// Expire implements apiclient.TokenSource; the remote API rejected the token.
func (m *Manager) Expire(ctx context.Context) {
	sid, ok := auth.SessionIDFromContext(ctx)
	if !ok {
		return
	}
	if err := m.Clear(ctx, sid); err != nil {
		m.log.WithError(err).Warn("session: expire failed")
		return
	}
	m.log.WithField("session", shortID(sid)).Info("session expired by remote API")
}

func shortID(sid string) string {
	if len(sid) > 8 {
		return sid[:8]
	}
	return sid
}

var _ apiclient.TokenSource = (*Manager)(nil)
