// Package service orchestrates the client use cases over the backend, the session and the query cache.
package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/movie-mate/internal/api"
	"github.com/and161185/movie-mate/internal/cache"
	"github.com/and161185/movie-mate/internal/logger"
	"github.com/and161185/movie-mate/internal/model"
)

// Session is the part of *session.Session the services use.
type Session interface {
	Login(access, refresh string, user model.UserProfile) error
	Logout() error
	User() (model.UserProfile, bool)
}

// AuthService defines login, registration and logout.
type AuthService interface {
	// Login authenticates by username or email and starts a session.
	Login(ctx context.Context, identifier, password string) (model.UserProfile, error)
	// Register validates the form, creates the account and starts a session.
	Register(ctx context.Context, in model.RegisterInput) (model.UserProfile, error)
	// Logout ends the session and drops cached queries.
	Logout() error
}

type AuthServiceImpl struct {
	api   api.AuthAPI
	sess  Session
	cache *cache.Cache
	log   *zap.Logger
}

var _ AuthService = (*AuthServiceImpl)(nil)

// NewAuthService constructs AuthService. c and log may be nil.
func NewAuthService(a api.AuthAPI, sess Session, c *cache.Cache, log *zap.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{api: a, sess: sess, cache: c, log: logger.OrNop(log)}
}

// Login trims the identifier but never the password.
func (s *AuthServiceImpl) Login(ctx context.Context, identifier, password string) (model.UserProfile, error) {
	identifier = strings.TrimSpace(identifier)
	if err := ValidateLogin(identifier, password); err != nil {
		return model.UserProfile{}, err
	}
	res, err := s.api.Login(ctx, model.LoginInput{Identifier: identifier, Password: password})
	if err != nil {
		return model.UserProfile{}, err
	}
	return s.start(res)
}

func (s *AuthServiceImpl) Register(ctx context.Context, in model.RegisterInput) (model.UserProfile, error) {
	in = NormalizeRegister(in)
	if err := ValidateRegister(in); err != nil {
		return model.UserProfile{}, err
	}
	res, err := s.api.Register(ctx, in)
	if err != nil {
		return model.UserProfile{}, err
	}
	return s.start(res)
}

func (s *AuthServiceImpl) start(res model.AuthResponse) (model.UserProfile, error) {
	if err := s.sess.Login(res.AccessToken, res.RefreshToken, res.User); err != nil {
		return model.UserProfile{}, err
	}
	if s.cache != nil {
		s.cache.Purge()
	}
	s.log.Info("logged in", zap.String("user", res.User.Username))
	return res.User, nil
}

func (s *AuthServiceImpl) Logout() error {
	if s.cache != nil {
		s.cache.Purge()
	}
	return s.sess.Logout()
}
