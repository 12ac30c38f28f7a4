// Package session owns the single active identity of the process.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"styleSphere/models"
	"styleSphere/services/identity"
)

type ChangeFunc func(models.Session)

type Service interface {
	// Start establishes the first identity. A failed verification falls back
	// to an anonymous user; if that fails too the session is ready with no
	// identity and the app runs in local mode.
	Start(ctx context.Context, idToken string) models.Session
	SignIn(ctx context.Context, idToken string) (models.Session, error)
	SignOut(ctx context.Context) error
	Current() models.Session
	// OnChange registers fn for every identity change. The returned func
	// removes it.
	OnChange(fn ChangeFunc) func()
}

type service struct {
	provider identity.Provider

	mu        sync.Mutex
	current   models.Session
	listeners map[int]ChangeFunc
	nextID    int
}

var _ Service = (*service)(nil)

// NewService builds the session. A nil provider means no identity service is
// configured.
func NewService(provider identity.Provider) Service {
	return &service{
		provider:  provider,
		listeners: map[int]ChangeFunc{},
	}
}

func (s *service) Start(ctx context.Context, idToken string) models.Session {
	if s.provider == nil {
		slog.Info("No identity provider configured, running in local mode")
		return s.set(models.Session{IsReady: true})
	}
	if idToken != "" {
		id, err := s.provider.Verify(ctx, idToken)
		if err != nil {
			slog.With("error", err.Error()).Error("failed to verify id token, running without identity")
			return s.set(models.Session{IsReady: true})
		}
		return s.set(fromIdentity(id))
	}
	id, err := s.provider.SignInAnonymously(ctx)
	if err != nil {
		slog.With("error", err.Error()).Error("anonymous sign in failed, running in local mode")
		return s.set(models.Session{IsReady: true})
	}
	return s.set(fromIdentity(id))
}

func (s *service) SignIn(ctx context.Context, idToken string) (models.Session, error) {
	if s.provider == nil {
		return s.Current(), models.ErrNoIdentity
	}
	id, err := s.provider.Verify(ctx, idToken)
	if err != nil {
		return s.Current(), fmt.Errorf("%w: %v", models.ErrNoIdentity, err)
	}
	return s.set(fromIdentity(id)), nil
}

func (s *service) SignOut(ctx context.Context) error {
	current := s.Current()
	if !current.Authenticated() {
		return nil
	}
	if s.provider != nil {
		if err := s.provider.SignOut(ctx, current.UserID); err != nil {
			slog.With("error", err.Error()).Warn("failed to revoke session", "userId", current.UserID)
		}
	}
	s.set(models.Session{IsReady: true})
	return nil
}

func (s *service) Current() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *service) OnChange(fn ChangeFunc) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// set stores next and notifies listeners when the identity changed.
func (s *service) set(next models.Session) models.Session {
	s.mu.Lock()
	prev := s.current
	s.current = next
	listeners := make([]ChangeFunc, 0, len(s.listeners))
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.listeners[i]; ok {
			listeners = append(listeners, fn)
		}
	}
	s.mu.Unlock()

	if prev == next {
		return next
	}
	for _, fn := range listeners {
		fn(next)
	}
	return next
}

func fromIdentity(id *identity.Identity) models.Session {
	return models.Session{
		UserID:      id.UserID,
		DisplayName: id.DisplayName,
		IsReady:     true,
	}
}
