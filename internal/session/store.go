// Package session owns the console credentials: the token store, expiry
// inspection and the single-flight refresh coordinator.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/orvull/omnisia-admin-console/internal/kv"
	"github.com/orvull/omnisia-admin-console/internal/models"
)

const (
	AccessKey  = "accessToken"
	RefreshKey = "refreshToken"

	// LoginRoute is where Logout sends the user.
	LoginRoute = "/auth/login"
)

// Navigator moves the console to another route.
type Navigator interface {
	Navigate(route string)
}

type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

// Store persists the credential pair. Writes of the pair are atomic for
// readers of Pair.
type Store struct {
	mu  sync.RWMutex
	kv  kv.Store
	nav Navigator
	now func() time.Time
}

func NewStore(s kv.Store, nav Navigator) *Store {
	if nav == nil {
		nav = NavigatorFunc(func(string) {})
	}
	return &Store{kv: s, nav: nav, now: time.Now}
}

func (s *Store) get(key string) string {
	v, err := s.kv.Get(key)
	if err != nil {
		return ""
	}
	return v
}

// Access returns the access token or "" when there is none.
func (s *Store) Access() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(AccessKey)
}

func (s *Store) Refresh() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(RefreshKey)
}

// Pair returns both tokens from one consistent snapshot.
func (s *Store) Pair() models.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Credentials{AccessToken: s.get(AccessKey), RefreshToken: s.get(RefreshKey)}
}

func (s *Store) SetAccess(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(AccessKey, token, 0); err != nil {
		return fmt.Errorf("session: store access token: %w", err)
	}
	return nil
}

func (s *Store) SetRefresh(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(RefreshKey, token, 0); err != nil {
		return fmt.Errorf("session: store refresh token: %w", err)
	}
	return nil
}

func (s *Store) SetPair(c models.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.kv.SetMany(map[string]string{
		AccessKey:  c.AccessToken,
		RefreshKey: c.RefreshToken,
	})
	if err != nil {
		return fmt.Errorf("session: store credentials: %w", err)
	}
	return nil
}

func (s *Store) IsExpired(token string) bool {
	return IsExpired(token, s.now())
}

// Logout clears both credentials and navigates to the login route. The
// navigation happens even when clearing fails.
func (s *Store) Logout() error {
	s.mu.Lock()
	err := s.kv.Del(AccessKey, RefreshKey)
	s.mu.Unlock()

	s.nav.Navigate(LoginRoute)
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return fmt.Errorf("session: logout: %w", err)
	}
	return nil
}
