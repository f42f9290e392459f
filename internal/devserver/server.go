// Package devserver serves the movie, activity, recommendation and auth REST contracts
// from in-memory fixtures so the live client can run end to end on one machine.
package devserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/and161185/movie-mate/internal/api/mock"
	"github.com/and161185/movie-mate/internal/config"
	"github.com/and161185/movie-mate/internal/limiter"
	"github.com/and161185/movie-mate/internal/logger"
	"github.com/and161185/movie-mate/internal/repository"
)

// DevPassword is the password of the seeded dev account.
const DevPassword = "devpass1"

// Config configures the token issuer.
type Config struct {
	SignKey    []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Accounts stores registered users; in-memory when nil.
	Accounts repository.AccountRepository
}

// Server wires the fixtures and the auth backend into HTTP handlers.
type Server struct {
	auth *Auth
	data *mock.Backend
	log  *zap.Logger
}

// New constructs a Server and seeds the dev account. data, lim and log may be nil.
func New(ctx context.Context, cfg Config, data *mock.Backend, lim limiter.Limiter, log *zap.Logger) (*Server, error) {
	if len(cfg.SignKey) == 0 {
		return nil, errors.New("devserver: sign key is required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("devserver: token TTLs must be positive")
	}
	if data == nil {
		data = mock.New()
	}
	if lim == nil {
		lim = limiter.NewMemory(limiter.Config{Window: 15 * time.Minute, MaxFails: 5, BlockFor: 15 * time.Minute})
	}
	accounts := cfg.Accounts
	if accounts == nil {
		accounts = repository.NewMemoryAccounts()
	}
	a := NewAuth(accounts, cfg.SignKey, cfg.AccessTTL, cfg.RefreshTTL, lim)
	dev := mock.DevUser()
	dev.Enabled, dev.NotBanned = true, true
	if err := a.Seed(ctx, dev, DevPassword); err != nil {
		return nil, err
	}
	return &Server{auth: a, data: data, log: logger.OrNop(log)}, nil
}

// Auth exposes the token issuer.
func (s *Server) Auth() *Auth { return s.auth }

// Handler returns the router. Movie routes are public; activity and recommendation
// routes need a bearer token.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(s.log), Logging(s.log))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Post("/register", s.register)
		r.Post("/refresh-token", s.refreshToken)
	})
	r.Route("/movies", func(r chi.Router) {
		r.Get("/all", s.allMovies)
		r.Get("/search/movie", s.searchMovies)
		r.Get("/genres", s.genres)
		r.Get("/genres/top", s.topGenres)
		r.Post("/all-by-ids", s.moviesByIDs)
		r.Get("/{id}", s.movie)
	})
	r.Route("/activity", func(r chi.Router) {
		r.Use(RequireAuth(s.auth))
		r.Get("/watchlist/all-by-user/{username}", s.userWatchlists)
		r.Post("/watchlist", s.createWatchlist)
		r.Patch("/watchlist/{id}", s.updateWatchlist)
		r.Delete("/watchlist/{id}", s.deleteWatchlist)
		r.Post("/rating", s.submitRating)
		r.Patch("/rating/{id}", s.updateRating)
		r.Delete("/rating/{id}", s.deleteRating)
		r.Get("/rating/movie/{movieId}", s.movieRatings)
	})
	r.Route("/recommendation", func(r chi.Router) {
		r.Use(RequireAuth(s.auth))
		r.Get("/recommend/{userId}", s.recommend)
	})
	return r
}

// ServiceURLs returns the client service URLs for a devserver listening at base.
func ServiceURLs(base string) config.ServicesConfig {
	base = strings.TrimRight(base, "/")
	return config.ServicesConfig{
		AuthURL:           base + "/auth",
		MoviesURL:         base + "/movies",
		ActivityURL:       base + "/activity",
		RecommendationURL: base + "/recommendation",
	}
}
