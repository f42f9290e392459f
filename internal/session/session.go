// Package session holds the authenticated state of the client and mirrors it to durable storage.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/movie-mate/internal/credstore"
	"github.com/and161185/movie-mate/internal/logger"
	"github.com/and161185/movie-mate/internal/model"
	"github.com/and161185/movie-mate/internal/transport"
)

// ErrNoSession is returned when tokens are replaced without an active session.
var ErrNoSession = errors.New("session: not logged in")

// State is a point-in-time copy of the session.
type State struct {
	AccessToken  string
	RefreshToken string
	User         *model.UserProfile
	Initialized  bool
}

// Authenticated reports whether an access token is present.
func (s State) Authenticated() bool { return s.AccessToken != "" }

// Session is the single owner of the credentials in memory. Safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	store credstore.Store
	log   *zap.Logger
	creds model.Credentials

	hydrate sync.Once
	once    sync.Once
	ready   chan struct{}
}

var _ transport.Credentials = (*Session)(nil)

// New returns an uninitialized session backed by store. log may be nil.
func New(store credstore.Store, log *zap.Logger) *Session {
	return &Session{store: store, log: logger.OrNop(log), ready: make(chan struct{})}
}

func (s *Session) markInitialized() {
	s.once.Do(func() { close(s.ready) })
}

// Hydrate loads persisted credentials: all three parts or nothing. The session becomes
// initialized whatever the outcome; only the first call loads.
func (s *Session) Hydrate() error {
	var err error
	s.hydrate.Do(func() {
		defer s.markInitialized()
		err = s.load()
	})
	return err
}

func (s *Session) load() error {
	c, ok, err := credstore.Load(s.store)
	if err != nil {
		s.log.Warn("load credentials", zap.Error(err))
		return fmt.Errorf("session: hydrate: %w", err)
	}
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds.AccessToken == "" {
		s.creds = c
		s.log.Debug("session restored", zap.String("user", c.User.Username))
	}
	return nil
}

// Initialized is closed once the session state is known.
func (s *Session) Initialized() <-chan struct{} { return s.ready }

// WaitInitialized blocks until the session is initialized or ctx is done.
func (s *Session) WaitInitialized(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns a copy of the current session.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{AccessToken: s.creds.AccessToken, RefreshToken: s.creds.RefreshToken}
	if s.creds.User != nil {
		u := *s.creds.User
		st.User = &u
	}
	select {
	case <-s.ready:
		st.Initialized = true
	default:
	}
	return st
}

// User returns the logged-in profile.
func (s *Session) User() (model.UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds.User == nil {
		return model.UserProfile{}, false
	}
	return *s.creds.User, true
}

// Login persists the credentials, then adopts them in memory.
func (s *Session) Login(access, refresh string, user model.UserProfile) error {
	c := model.Credentials{AccessToken: access, RefreshToken: refresh, User: &user}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := credstore.Save(s.store, c); err != nil {
		return fmt.Errorf("session: login: %w", err)
	}
	s.creds = c
	s.markInitialized()
	return nil
}

// Logout clears memory and storage.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = model.Credentials{}
	s.markInitialized()
	if err := credstore.Clear(s.store); err != nil {
		return fmt.Errorf("session: logout: %w", err)
	}
	return nil
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.AccessToken
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.RefreshToken
}

// ReplaceTokens stores a refreshed pair and keeps the profile.
func (s *Session) ReplaceTokens(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.creds.User == nil {
		return ErrNoSession
	}
	c := model.Credentials{AccessToken: access, RefreshToken: refresh, User: s.creds.User}
	if err := credstore.Save(s.store, c); err != nil {
		return fmt.Errorf("session: replace tokens: %w", err)
	}
	s.creds = c
	return nil
}

// Expire ends the session after a failed refresh.
func (s *Session) Expire() error {
	s.log.Info("session expired")
	return s.Logout()
}
