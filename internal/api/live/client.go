// Package live implements the api interfaces over HTTP.
package live

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/and161185/movie-mate/internal/api"
	"github.com/and161185/movie-mate/internal/config"
	"github.com/and161185/movie-mate/internal/errs"
	"github.com/and161185/movie-mate/internal/transport"
)

// Service labels used for metrics and logs.
const (
	serviceAuth           = "auth"
	serviceMovies         = "movies"
	serviceActivity       = "activity"
	serviceRecommendation = "recommendation"
)

// Client groups the four service clients into an api.Backend.
type Client struct {
	*AuthClient
	*MovieClient
	*ActivityClient
	*RecommendationClient
}

var _ api.Backend = (*Client)(nil)

// New builds a Client around an auth client and the caller used by every other service,
// normally a transport.Authenticated whose Refresher is auth.
func New(auth *AuthClient, urls config.ServicesConfig, authed transport.Caller) *Client {
	return &Client{
		AuthClient:           auth,
		MovieClient:          NewMovies(urls.MoviesURL, authed),
		ActivityClient:       NewActivity(urls.ActivityURL, authed),
		RecommendationClient: NewRecommendations(urls.RecommendationURL, authed),
	}
}

// endpoint joins a base URL, escaped path segments and an optional query.
func endpoint(base string, query url.Values, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	if len(query) > 0 {
		b.WriteByte('?')
		b.WriteString(query.Encode())
	}
	return b.String()
}

// call marshals body (nil for none), sends it and decodes the response into T.
func call[T any](ctx context.Context, c transport.Caller, service, method, target string, body any) (T, error) {
	var out T
	req := transport.Request{Service: service, Method: method, URL: target}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return out, errs.NewNetwork(0, "encode request", err)
		}
		req.Body = raw
	}
	err := c.Do(ctx, req, &out)
	return out, err
}

// send is call for endpoints whose response body is not needed.
func send(ctx context.Context, c transport.Caller, service, method, target string, body any) error {
	_, err := call[json.RawMessage](ctx, c, service, method, target, body)
	return err
}
