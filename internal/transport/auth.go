package transport

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/and161185/movie-mate/internal/errs"
	"github.com/and161185/movie-mate/internal/logger"
	"github.com/and161185/movie-mate/internal/metrics"
	"github.com/and161185/movie-mate/internal/model"
)

// UnauthorizedCodes are the HTTP statuses and structured error codes that trigger a token refresh.
var UnauthorizedCodes = map[int]struct{}{
	http.StatusUnauthorized: {},
}

// IsUnauthorized reports whether err belongs to the unauthorized class.
func IsUnauthorized(err error) bool {
	e, ok := errs.As(err)
	if !ok || e.Kind == errs.KindSessionExpired {
		return false
	}
	if _, hit := UnauthorizedCodes[e.Status]; hit {
		return true
	}
	if e.API != nil {
		_, hit := UnauthorizedCodes[e.API.Code]
		return hit
	}
	return false
}

// Credentials is the token source of the wrapper; *session.Session implements it.
type Credentials interface {
	AccessToken() string
	RefreshToken() string
	// ReplaceTokens persists a refreshed pair, keeping the user profile.
	ReplaceTokens(access, refresh string) error
	// Expire drops the session from memory and storage.
	Expire() error
}

// Refresher exchanges a refresh token for a new pair without authentication.
type Refresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (model.TokenPair, error)
}

// Navigator sends the user to the login entry point.
type Navigator interface {
	ToLogin(ctx context.Context)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context)

func (f NavigatorFunc) ToLogin(ctx context.Context) { f(ctx) }

// Refresh outcomes reported to metrics.
const (
	refreshOK      = "ok"
	refreshFailed  = "failed"
	refreshMissing = "missing"
)

// Authenticated decorates a Caller with bearer auth and one refresh-and-retry on unauthorized.
type Authenticated struct {
	next      Caller
	creds     Credentials
	refresher Refresher
	nav       Navigator
	log       *zap.Logger
	metrics   *metrics.Metrics

	group singleflight.Group
}

var _ Caller = (*Authenticated)(nil)

// NewAuthenticated wires the wrapper. nav, log and m may be nil.
func NewAuthenticated(next Caller, creds Credentials, refresher Refresher, nav Navigator, log *zap.Logger, m *metrics.Metrics) *Authenticated {
	if nav == nil {
		nav = NavigatorFunc(func(context.Context) {})
	}
	return &Authenticated{next: next, creds: creds, refresher: refresher, nav: nav, log: logger.OrNop(log), metrics: m}
}

// Do runs attempt 1, refreshes once on unauthorized, then runs attempt 2.
// Attempt 2 errors are returned as is.
func (a *Authenticated) Do(ctx context.Context, req Request, out any) error {
	err := a.next.Do(ctx, withBearer(req, a.creds.AccessToken()), out)
	if err == nil || !IsUnauthorized(err) {
		return err
	}

	access, err := a.refresh(ctx)
	if err != nil {
		return err
	}
	return a.next.Do(ctx, withBearer(req, access), out)
}

// refresh obtains a new access token or ends the session.
// Concurrent refreshes of the same token share one backend call.
func (a *Authenticated) refresh(ctx context.Context) (string, error) {
	rt := a.creds.RefreshToken()
	if rt == "" {
		a.metrics.Refresh(refreshMissing)
		return "", a.expire(ctx, errors.New("no refresh token"))
	}

	// Other callers share this refresh; it outlives the cancellation of the first one.
	shareCtx := context.WithoutCancel(ctx)
	v, err, shared := a.group.Do(rt, func() (any, error) {
		pair, err := a.refresher.RefreshToken(shareCtx, rt)
		if err != nil {
			return nil, err
		}
		if pair.AccessToken == "" || pair.RefreshToken == "" {
			return nil, errors.New("refresh returned an incomplete token pair")
		}
		if err := a.creds.ReplaceTokens(pair.AccessToken, pair.RefreshToken); err != nil {
			return nil, err
		}
		return pair, nil
	})
	if err != nil {
		a.metrics.Refresh(refreshFailed)
		return "", a.expire(ctx, err)
	}
	a.metrics.Refresh(refreshOK)
	a.log.Debug("token refreshed", zap.Bool("shared", shared))
	return v.(model.TokenPair).AccessToken, nil
}

func (a *Authenticated) expire(ctx context.Context, cause error) error {
	a.log.Info("session expired", zap.Error(cause))
	if err := a.creds.Expire(); err != nil {
		a.log.Warn("clear credentials", zap.Error(err))
	}
	a.nav.ToLogin(ctx)
	return errs.SessionExpired(cause)
}

func withBearer(req Request, token string) Request {
	h := req.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	} else {
		h.Del("Authorization")
	}
	req.Header = h
	return req
}
