package live

import (
	"context"
	"net/http"
	"net/url"

	"github.com/and161185/movie-mate/internal/api"
	"github.com/and161185/movie-mate/internal/convert"
	"github.com/and161185/movie-mate/internal/model"
	"github.com/and161185/movie-mate/internal/transport"
)

// AuthClient calls the auth service without credentials.
type AuthClient struct {
	base string
	c    transport.Caller
}

var (
	_ api.AuthAPI         = (*AuthClient)(nil)
	_ transport.Refresher = (*AuthClient)(nil)
)

// NewAuth returns an auth client; c must not be the authenticated wrapper.
func NewAuth(base string, c transport.Caller) *AuthClient {
	return &AuthClient{base: base, c: c}
}

func (a *AuthClient) Login(ctx context.Context, in model.LoginInput) (model.AuthResponse, error) {
	out, err := call[convert.BackendAuthResponse](ctx, a.c, serviceAuth, http.MethodPost, endpoint(a.base, nil, "login"), in)
	if err != nil {
		return model.AuthResponse{}, err
	}
	return convert.FromBackendAuth(out), nil
}

func (a *AuthClient) Register(ctx context.Context, in model.RegisterInput) (model.AuthResponse, error) {
	out, err := call[convert.BackendAuthResponse](ctx, a.c, serviceAuth, http.MethodPost, endpoint(a.base, nil, "register"), in)
	if err != nil {
		return model.AuthResponse{}, err
	}
	return convert.FromBackendAuth(out), nil
}

// RefreshToken sends the token as a query parameter with an empty body.
func (a *AuthClient) RefreshToken(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	q := url.Values{"refreshToken": {refreshToken}}
	return call[model.TokenPair](ctx, a.c, serviceAuth, http.MethodPost, endpoint(a.base, q, "refresh-token"), nil)
}
