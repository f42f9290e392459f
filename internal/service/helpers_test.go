package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/movie-mate/internal/api"
	"github.com/and161185/movie-mate/internal/api/mock"
	"github.com/and161185/movie-mate/internal/cache"
	"github.com/and161185/movie-mate/internal/model"
)

/************ fakes ************/

func newCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.New(64, 30*time.Second, zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	return c
}

// countingMovies counts catalog requests.
type countingMovies struct {
	api.MovieAPI
	calls atomic.Int32
}

func (c *countingMovies) GetAllMovies(ctx context.Context, page, size int) (model.Page[model.DetailedMovie], error) {
	c.calls.Add(1)
	return c.MovieAPI.GetAllMovies(ctx, page, size)
}

func (c *countingMovies) SearchMovies(ctx context.Context, q string, page, limit int) (model.Page[model.DetailedMovie], error) {
	c.calls.Add(1)
	return c.MovieAPI.SearchMovies(ctx, q, page, limit)
}

func (c *countingMovies) GetMovieByID(ctx context.Context, id string) (model.DetailedMovie, error) {
	c.calls.Add(1)
	return c.MovieAPI.GetMovieByID(ctx, id)
}

func (c *countingMovies) GetMoviesByIDs(ctx context.Context, ids []string) ([]model.DetailedMovie, error) {
	c.calls.Add(1)
	return c.MovieAPI.GetMoviesByIDs(ctx, ids)
}

// gatedActivity holds mutations until released and can fail them.
type gatedActivity struct {
	api.ActivityAPI
	entered chan struct{}
	release chan struct{}
	err     error
}

func newGated(inner api.ActivityAPI, err error) *gatedActivity {
	return &gatedActivity{ActivityAPI: inner, entered: make(chan struct{}, 8), release: make(chan struct{}), err: err}
}

func (g *gatedActivity) hold() error {
	g.entered <- struct{}{}
	<-g.release
	return g.err
}

func (g *gatedActivity) UpdateWatchlist(ctx context.Context, id string, upd model.WatchlistUpdate) (model.Watchlist, error) {
	if err := g.hold(); err != nil {
		return model.Watchlist{}, err
	}
	return g.ActivityAPI.UpdateWatchlist(ctx, id, upd)
}

func (g *gatedActivity) CreateWatchlist(ctx context.Context, in model.WatchlistInput) (model.Watchlist, error) {
	if err := g.hold(); err != nil {
		return model.Watchlist{}, err
	}
	return g.ActivityAPI.CreateWatchlist(ctx, in)
}

func (g *gatedActivity) SubmitRating(ctx context.Context, in model.RatingInput) (model.MovieRating, error) {
	if err := g.hold(); err != nil {
		return model.MovieRating{}, err
	}
	return g.ActivityAPI.SubmitRating(ctx, in)
}

func (g *gatedActivity) DeleteRating(ctx context.Context, id string) (string, error) {
	if err := g.hold(); err != nil {
		return "", err
	}
	return g.ActivityAPI.DeleteRating(ctx, id)
}

func waitEntered(t *testing.T, g *gatedActivity) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("mutation never reached the backend")
	}
}

func newMock() *mock.Backend {
	return mock.New()
}
