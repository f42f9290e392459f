package devserver

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/and161185/movie-mate/internal/crypto"
	"github.com/and161185/movie-mate/internal/errs"
	"github.com/and161185/movie-mate/internal/limiter"
	"github.com/and161185/movie-mate/internal/model"
	"github.com/and161185/movie-mate/internal/repository"
	"github.com/and161185/movie-mate/internal/service"
)

// ErrTokenInvalid is returned for a missing, malformed or expired access token.
var ErrTokenInvalid = errors.New("invalid token")

type refreshGrant struct {
	username string
	expires  time.Time
}

// Auth checks passwords against stored accounts, signs HS256 access tokens and keeps
// issued refresh tokens in memory.
type Auth struct {
	accounts repository.AccountRepository

	mu     sync.Mutex
	grants map[string]refreshGrant

	signKey    []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	lim        limiter.Limiter
	now        func() time.Time
}

// NewAuth constructs the auth backend.
func NewAuth(accounts repository.AccountRepository, signKey []byte, accessTTL, refreshTTL time.Duration, lim limiter.Limiter) *Auth {
	return &Auth{
		accounts:   accounts,
		grants:     map[string]refreshGrant{},
		signKey:    signKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		lim:        lim,
		now:        time.Now,
	}
}

// Seed adds an account with a known profile unless the username is already stored.
func (a *Auth) Seed(ctx context.Context, profile model.UserProfile, password string) error {
	hash, err := pkgcrypto.HashPassword(password)
	if err != nil {
		return err
	}
	err = a.accounts.Create(ctx, &model.Account{Profile: profile, PasswordHash: hash})
	if errors.Is(err, errs.ErrAlreadyExists) {
		return nil
	}
	return err
}

// Register creates an account and logs it in.
func (a *Auth) Register(ctx context.Context, in model.RegisterInput) (model.AuthResponse, error) {
	in = service.NormalizeRegister(in)
	if err := service.ValidateRegister(in); err != nil {
		return model.AuthResponse{}, err
	}
	hash, err := pkgcrypto.HashPassword(in.Password)
	if err != nil {
		return model.AuthResponse{}, err
	}

	profile := model.UserProfile{
		ID:        "u-" + uuid.Must(uuid.NewV4()).String(),
		Username:  in.Username,
		Email:     in.Email,
		Roles:     []string{model.RoleUser},
		Enabled:   true,
		NotBanned: true,
	}
	if err := a.accounts.Create(ctx, &model.Account{Profile: profile, PasswordHash: hash}); err != nil {
		return model.AuthResponse{}, err
	}
	return a.issue(profile)
}

// LoginWithIP authenticates by username or email, rate limited by (identifier, ip).
func (a *Auth) LoginWithIP(ctx context.Context, identifier, password, ip string) (model.AuthResponse, error) {
	key := strings.ToLower(strings.TrimSpace(identifier))
	ipHash := limiter.HashIP(ip)

	allowed, _, err := a.lim.Allow(ctx, key, ipHash)
	if err != nil {
		return model.AuthResponse{}, err
	}
	if !allowed {
		return model.AuthResponse{}, errs.ErrRateLimited
	}

	acc, err := a.accounts.GetByLogin(ctx, key)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.AuthResponse{}, err
	}

	valid := false
	if acc != nil {
		valid, _ = pkgcrypto.VerifyPassword(password, acc.PasswordHash)
	}
	if !valid {
		if blocked, _, ferr := a.lim.Failure(ctx, key, ipHash); ferr == nil && blocked {
			return model.AuthResponse{}, errs.ErrRateLimited
		}
		// unknown users and wrong passwords look the same
		return model.AuthResponse{}, errs.ErrUnauthorized
	}

	_ = a.lim.Success(ctx, key, ipHash)
	return a.issue(acc.Profile)
}

// Refresh rotates a refresh token: the presented one stops working.
func (a *Auth) Refresh(_ context.Context, refreshToken string) (model.TokenPair, error) {
	a.mu.Lock()
	g, ok := a.grants[refreshToken]
	delete(a.grants, refreshToken)
	a.mu.Unlock()

	if !ok || !a.now().Before(g.expires) {
		return model.TokenPair{}, errs.ErrUnauthorized
	}
	access, _, err := a.issueAccessToken(g.username)
	if err != nil {
		return model.TokenPair{}, err
	}
	return model.TokenPair{AccessToken: access, RefreshToken: a.grant(g.username)}, nil
}

// Verify checks an access token and returns its subject.
func (a *Auth) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return a.signKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}

func (a *Auth) issue(profile model.UserProfile) (model.AuthResponse, error) {
	access, _, err := a.issueAccessToken(profile.Username)
	if err != nil {
		return model.AuthResponse{}, err
	}
	return model.AuthResponse{User: profile, AccessToken: access, RefreshToken: a.grant(profile.Username)}, nil
}

// issueAccessToken creates a signed HS256 JWT for username.
func (a *Auth) issueAccessToken(username string) (string, time.Time, error) {
	now := a.now()
	exp := now.Add(a.accessTTL)
	claims := jwt.RegisteredClaims{
		ID:        uuid.Must(uuid.NewV4()).String(),
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.signKey)
	return signed, exp, err
}

func (a *Auth) grant(username string) string {
	rt := uuid.Must(uuid.NewV4()).String()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.grants[rt] = refreshGrant{username: username, expires: a.now().Add(a.refreshTTL)}
	return rt
}
