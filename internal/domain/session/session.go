// Package session holds the authenticated-user state for one storefront
// session.
package session

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/maisonnoir/storefront/internal/authapi"
)

// ErrNotAuthenticated is returned for operations that need a logged-in user.
var ErrNotAuthenticated = errors.New("not authenticated")

// Store holds the current user and authentication flag. The two are always
// set and cleared together under one lock: Authenticated() is true exactly
// when User() is non-nil.
type Store struct {
	client *authapi.Client
	lg     *zap.Logger

	mu   sync.Mutex
	user *authapi.User
}

// NewStore creates a logged-out session Store.
func NewStore(client *authapi.Client, lg *zap.Logger) *Store {
	return &Store{client: client, lg: lg}
}

// User returns the current user, or nil when logged out.
func (s *Store) User() *authapi.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Authenticated reports whether a user is logged in.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// Login authenticates against the identity service. A failed login leaves
// the store logged out with no partial user state.
func (s *Store) Login(ctx context.Context, creds authapi.Credentials) (*authapi.User, error) {
	user, err := s.client.Login(ctx, creds)
	if err != nil {
		s.clear()
		return nil, err
	}
	s.set(user)
	return user, nil
}

// Register creates an account and logs it in. Failure leaves the store
// logged out.
func (s *Store) Register(ctx context.Context, reg authapi.Registration) (*authapi.User, error) {
	user, err := s.client.Register(ctx, reg)
	if err != nil {
		s.clear()
		return nil, err
	}
	s.set(user)
	return user, nil
}

// Logout clears the session locally and invalidates it upstream.
func (s *Store) Logout(ctx context.Context) error {
	s.clear()
	if err := s.client.Logout(ctx); err != nil {
		s.lg.Warn("upstream logout failed", zap.Error(err))
		return err
	}
	return nil
}

// UpdateProfile updates the logged-in user's profile.
func (s *Store) UpdateProfile(ctx context.Context, update authapi.ProfileUpdate) (*authapi.User, error) {
	if !s.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	user, err := s.client.UpdateProfile(ctx, update)
	if err != nil {
		if errors.Is(err, authapi.ErrSessionExpired) {
			s.clear()
		}
		return nil, err
	}
	s.set(user)
	return user, nil
}

// CheckAuth verifies the stored tokens against the identity service and
// rehydrates the user. An expired session clears the store.
func (s *Store) CheckAuth(ctx context.Context) (*authapi.User, error) {
	user, err := s.client.Verify(ctx)
	if err != nil {
		s.clear()
		return nil, err
	}
	s.set(user)
	return user, nil
}

func (s *Store) set(user *authapi.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

func (s *Store) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
}
