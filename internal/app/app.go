// Package app wires the client from its configuration. It is the only place that
// chooses between the live and the mock backend.
package app

import (
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/and161185/movie-mate/internal/api"
	"github.com/and161185/movie-mate/internal/api/live"
	"github.com/and161185/movie-mate/internal/api/mock"
	"github.com/and161185/movie-mate/internal/cache"
	"github.com/and161185/movie-mate/internal/config"
	"github.com/and161185/movie-mate/internal/credstore"
	"github.com/and161185/movie-mate/internal/logger"
	"github.com/and161185/movie-mate/internal/metrics"
	"github.com/and161185/movie-mate/internal/service"
	"github.com/and161185/movie-mate/internal/session"
	"github.com/and161185/movie-mate/internal/transport"
)

// devStoreDir keeps mock-mode credentials apart from live ones.
const devStoreDir = "dev"

// Options overrides parts of the wiring; the zero value is the production setup.
type Options struct {
	Log *zap.Logger
	// Registry receives the metrics; nil disables them.
	Registry prometheus.Registerer
	// Store replaces the sealed credential file.
	Store credstore.Store
	// HTTP replaces the outgoing HTTP client in live mode.
	HTTP transport.Doer
	// Navigator is called when the session expires.
	Navigator transport.Navigator
}

// App holds the wired client.
type App struct {
	Config  *config.Config
	Log     *zap.Logger
	Metrics *metrics.Metrics
	Session *session.Session
	Backend api.Backend
	Cache   *cache.Cache

	Auth            service.AuthService
	Catalog         service.CatalogService
	Watchlists      service.WatchlistService
	Ratings         service.RatingService
	Recommendations service.RecommendationService
}

// New wires the client and hydrates the session. A storage error during hydration
// is logged; the session then starts logged out.
func New(cfg *config.Config, opts Options) (*App, error) {
	log := logger.OrNop(opts.Log)

	var m *metrics.Metrics
	if opts.Registry != nil {
		m = metrics.New(opts.Registry)
	}

	store := opts.Store
	if store == nil {
		s, err := openStore(cfg)
		if err != nil {
			return nil, err
		}
		store = s
	}

	sess := session.New(store, log.Named("session"))
	if err := sess.Hydrate(); err != nil {
		log.Warn("hydrate session", zap.Error(err))
	}

	c, err := cache.New(cfg.Cache.Size, cfg.Cache.StaleAfter, log.Named("cache"), m)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	httpClient := opts.HTTP
	if httpClient == nil {
		httpClient = transport.NewHTTPClient(cfg.HTTP.Timeout)
	}
	exec := transport.NewExecutor(httpClient, log.Named("http"), m, cfg.HTTP.UserAgent)
	backend := NewBackend(cfg, exec, sess, opts.Navigator, log, m)

	return &App{
		Config:  cfg,
		Log:     log,
		Metrics: m,
		Session: sess,
		Backend: backend,
		Cache:   c,

		Auth:            service.NewAuthService(backend, sess, c, log.Named("auth")),
		Catalog:         service.NewCatalogService(backend, c),
		Watchlists:      service.NewWatchlistService(backend, backend, c, log.Named("watchlists")),
		Ratings:         service.NewRatingService(backend, c),
		Recommendations: service.NewRecommendationService(backend, c),
	}, nil
}

// NewBackend selects the data-access strategy once: fixtures in dev mode, HTTP otherwise.
// In live mode auth calls use exec directly and every other call goes through the
// authenticated wrapper, which refreshes through the same auth client.
func NewBackend(cfg *config.Config, exec transport.Caller, creds transport.Credentials, nav transport.Navigator, log *zap.Logger, m *metrics.Metrics) api.Backend {
	if cfg.DevMode {
		logger.OrNop(log).Debug("using mock backend")
		return mock.New()
	}
	auth := live.NewAuth(cfg.Services.AuthURL, exec)
	authed := transport.NewAuthenticated(exec, creds, auth, nav, logger.OrNop(log).Named("auth"), m)
	return live.New(auth, cfg.Services, authed)
}

func openStore(cfg *config.Config) (credstore.Store, error) {
	dir := cfg.Storage.Dir
	if dir == "" {
		dir = credstore.DefaultDir()
	}
	if cfg.DevMode {
		dir = filepath.Join(dir, devStoreDir)
	}
	s, err := credstore.NewFile(dir)
	if err != nil {
		return nil, fmt.Errorf("app: open credential store: %w", err)
	}
	return s, nil
}
