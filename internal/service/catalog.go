package service

import (
	"context"
	"strings"

	"github.com/and161185/movie-mate/internal/api"
	"github.com/and161185/movie-mate/internal/cache"
	"github.com/and161185/movie-mate/internal/model"
)

// CatalogService reads the movie catalog through the query cache.
type CatalogService interface {
	Movies(ctx context.Context, page, size int) (model.Page[model.DetailedMovie], error)
	// Search returns an empty page without a request for queries shorter than api.MinSearchLength.
	Search(ctx context.Context, query string, page, limit int) (model.Page[model.DetailedMovie], error)
	Movie(ctx context.Context, id string) (model.DetailedMovie, error)
	Genres(ctx context.Context) ([]model.Genre, error)
	TopGenres(ctx context.Context) ([]model.Genre, error)
}

type CatalogServiceImpl struct {
	api   api.MovieAPI
	cache *cache.Cache
}

var _ CatalogService = (*CatalogServiceImpl)(nil)

func NewCatalogService(a api.MovieAPI, c *cache.Cache) *CatalogServiceImpl {
	return &CatalogServiceImpl{api: a, cache: c}
}

func pageArgs(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = model.DefaultPageSize
	}
	return page, size
}

func (s *CatalogServiceImpl) Movies(ctx context.Context, page, size int) (model.Page[model.DetailedMovie], error) {
	page, size = pageArgs(page, size)
	return cache.Query(ctx, s.cache, moviesKey(page, size), func(ctx context.Context) (model.Page[model.DetailedMovie], error) {
		return s.api.GetAllMovies(ctx, page, size)
	})
}

func (s *CatalogServiceImpl) Search(ctx context.Context, query string, page, limit int) (model.Page[model.DetailedMovie], error) {
	page, limit = pageArgs(page, limit)
	q := strings.TrimSpace(query)
	if api.ShortQuery(q) {
		return model.EmptyPage[model.DetailedMovie](limit), nil
	}
	return cache.Query(ctx, s.cache, searchKey(strings.ToLower(q), page, limit), func(ctx context.Context) (model.Page[model.DetailedMovie], error) {
		return s.api.SearchMovies(ctx, q, page, limit)
	})
}

func (s *CatalogServiceImpl) Movie(ctx context.Context, id string) (model.DetailedMovie, error) {
	id = strings.TrimSpace(id)
	return cache.Query(ctx, s.cache, movieKey(id), func(ctx context.Context) (model.DetailedMovie, error) {
		return s.api.GetMovieByID(ctx, id)
	})
}

func (s *CatalogServiceImpl) Genres(ctx context.Context) ([]model.Genre, error) {
	return cache.Query(ctx, s.cache, genresKey(), s.api.GetAllGenres)
}

func (s *CatalogServiceImpl) TopGenres(ctx context.Context) ([]model.Genre, error) {
	return cache.Query(ctx, s.cache, topGenresKey(), s.api.GetTopGenres)
}
