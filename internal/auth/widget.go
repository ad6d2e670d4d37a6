package auth

import (
	"context"
	"fmt"
	"log"
	"sync"

	"cryptopulse/internal/domain"
)

// Widget holds the signed-in state of the dashboard. Auth errors are logged
// and leave the widget logged out.
type Widget struct {
	provider IdentityProvider
	backend  Backend
	store    TokenStore

	mu      sync.RWMutex
	session *domain.UserSession
	stored  bool
	lastErr error
}

// NewWidget wires the widget. backend and store may be nil: without a
// backend the session is built from the identity alone, without a store
// nothing survives a restart.
func NewWidget(provider IdentityProvider, backend Backend, store TokenStore) *Widget {
	return &Widget{provider: provider, backend: backend, store: store}
}

// Session reports the signed-in user. A session whose token came from or
// went to the store ends once the store no longer holds that token, e.g.
// after the token file is deleted by hand.
func (w *Widget) Session() (domain.UserSession, bool) {
	w.mu.RLock()
	session, stored := w.session, w.stored
	w.mu.RUnlock()
	if session == nil {
		return domain.UserSession{}, false
	}
	if stored && w.store != nil {
		token, err := w.store.Load()
		if err != nil {
			log.Printf("auth: check stored token: %v", err)
		} else if token != session.Token {
			log.Printf("auth: stored token removed, signing out")
			w.mu.Lock()
			if w.session == session {
				w.session, w.stored = nil, false
			}
			w.mu.Unlock()
			return domain.UserSession{}, false
		}
	}
	return *session, true
}

func (w *Widget) Err() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastErr
}

// Restore resumes a session from the stored token. A rejected token stays
// on disk; the widget just remains logged out.
func (w *Widget) Restore(ctx context.Context) bool {
	if w.store == nil || w.backend == nil {
		return false
	}
	token, err := w.store.Load()
	if err != nil {
		w.fail(err)
		return false
	}
	if token == "" {
		return false
	}
	user, err := w.backend.Profile(ctx, token)
	if err != nil {
		w.fail(fmt.Errorf("restore session: %w", err))
		return false
	}
	w.setSession(sessionFor(user, token), true)
	return true
}

// Begin starts a device sign-in and returns the code to show the user.
func (w *Widget) Begin(ctx context.Context) (*DeviceCode, error) {
	code, err := w.provider.Start(ctx)
	if err != nil {
		w.fail(err)
		return nil, err
	}
	return code, nil
}

// Complete waits for approval of code and establishes the session.
func (w *Widget) Complete(ctx context.Context, code *DeviceCode) (domain.UserSession, error) {
	id, err := w.provider.Await(ctx, code)
	if err != nil {
		w.fail(err)
		return domain.UserSession{}, err
	}

	if w.backend == nil {
		s := domain.UserSession{Name: id.Name, Email: id.Email, Picture: id.Picture}
		w.setSession(s, false)
		return s, nil
	}

	token, user, err := w.backend.ExchangeGoogleToken(ctx, id.IDToken)
	if err != nil {
		w.fail(fmt.Errorf("token exchange: %w", err))
		return domain.UserSession{}, err
	}
	stored := false
	if w.store != nil {
		if err := w.store.Save(token); err != nil {
			log.Printf("failed to persist auth token: %v", err)
		} else {
			stored = true
		}
	}
	s := sessionFor(user, token)
	w.setSession(s, stored)
	return s, nil
}

func (w *Widget) SignOut() error {
	w.mu.Lock()
	w.session, w.stored = nil, false
	w.lastErr = nil
	w.mu.Unlock()
	if w.store == nil {
		return nil
	}
	return w.store.Clear()
}

func (w *Widget) setSession(s domain.UserSession, stored bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.session, w.stored = &s, stored
	w.lastErr = nil
}

func (w *Widget) fail(err error) {
	log.Printf("auth error: %v", err)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.session, w.stored = nil, false
	w.lastErr = err
}

func sessionFor(u domain.PublicUser, token string) domain.UserSession {
	return domain.UserSession{Name: u.Name, Email: u.Email, Picture: u.Picture, Token: token}
}
