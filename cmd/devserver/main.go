// Command mm-devserver serves the movie, activity, recommendation and auth APIs
// from fixtures for local runs of mm.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/and161185/movie-mate/internal/config"
	"github.com/and161185/movie-mate/internal/devserver"
	"github.com/and161185/movie-mate/internal/limiter"
	"github.com/and161185/movie-mate/internal/logger"
	"github.com/and161185/movie-mate/internal/migrate"
	"github.com/and161185/movie-mate/internal/repository"
	"github.com/and161185/movie-mate/internal/repository/postgres"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	cfgPath := flag.String("config", "", "path to devserver config")
	flag.Parse()

	cfg, err := config.LoadDevServer(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()
	log.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	policy := limiter.Config{Window: cfg.Limiter.Window, MaxFails: cfg.Limiter.MaxFails, BlockFor: cfg.Limiter.BlockFor}
	var lim limiter.Limiter = limiter.NewMemory(policy)
	var accounts repository.AccountRepository = repository.NewMemoryAccounts()
	if cfg.DSN != "" {
		if err := migrate.Up(ctx, cfg.DSN); err != nil {
			log.Fatal("migrate up", zap.Error(err))
		}
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			log.Fatal("pgxpool.New", zap.Error(err))
		}
		defer pool.Close()
		lim = limiter.NewPG(pool, policy)
		accounts = postgres.NewAccountRepo(&postgres.DB{Pool: pool})
		log.Info("accounts and login limiter backed by postgres")
	}

	srv, err := devserver.New(ctx, devserver.Config{
		SignKey:    []byte(cfg.JWTKey),
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		Accounts:   accounts,
	}, nil, lim, log.Named("http"))
	if err != nil {
		log.Fatal("devserver", zap.Error(err))
	}

	hs := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("dev_user", "devuser"))
		errCh <- hs.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			log.Warn("graceful shutdown", zap.Error(err))
			_ = hs.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	log.Info("shutdown complete")
}
