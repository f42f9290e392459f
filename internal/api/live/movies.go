package live

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/and161185/movie-mate/internal/api"
	"github.com/and161185/movie-mate/internal/convert"
	"github.com/and161185/movie-mate/internal/model"
	"github.com/and161185/movie-mate/internal/transport"
)

// MovieClient calls the movie catalog service.
type MovieClient struct {
	base string
	c    transport.Caller
}

var _ api.MovieAPI = (*MovieClient)(nil)

func NewMovies(base string, c transport.Caller) *MovieClient {
	return &MovieClient{base: base, c: c}
}

func pageQuery(sizeKey string, page, size int) url.Values {
	return url.Values{"page": {strconv.Itoa(page)}, sizeKey: {strconv.Itoa(size)}}
}

func (m *MovieClient) GetAllMovies(ctx context.Context, page, pageSize int) (model.Page[model.DetailedMovie], error) {
	out, err := call[convert.BackendPage[convert.BackendMovie]](ctx, m.c, serviceMovies, http.MethodGet,
		endpoint(m.base, pageQuery("pageSize", page, pageSize), "all"), nil)
	if err != nil {
		return model.Page[model.DetailedMovie]{}, err
	}
	return convert.FromBackendMoviePage(out), nil
}

func (m *MovieClient) SearchMovies(ctx context.Context, query string, page, limit int) (model.Page[model.DetailedMovie], error) {
	if api.ShortQuery(query) {
		return model.EmptyPage[model.DetailedMovie](limit), nil
	}
	q := pageQuery("limit", page, limit)
	q.Set("query", strings.TrimSpace(query))
	out, err := call[convert.BackendPage[convert.BackendMovie]](ctx, m.c, serviceMovies, http.MethodGet,
		endpoint(m.base, q, "search", "movie"), nil)
	if err != nil {
		return model.Page[model.DetailedMovie]{}, err
	}
	return convert.FromBackendMoviePage(out), nil
}

func (m *MovieClient) GetMovieByID(ctx context.Context, id string) (model.DetailedMovie, error) {
	out, err := call[convert.BackendMovie](ctx, m.c, serviceMovies, http.MethodGet, endpoint(m.base, nil, id), nil)
	if err != nil {
		return model.DetailedMovie{}, err
	}
	return convert.FromBackendMovie(out), nil
}

type idsBody struct {
	IDs []string `json:"ids"`
}

func (m *MovieClient) GetMoviesByIDs(ctx context.Context, ids []string) ([]model.DetailedMovie, error) {
	ids = model.DedupIDs(ids)
	if len(ids) == 0 {
		return []model.DetailedMovie{}, nil
	}
	out, err := call[[]convert.BackendMovie](ctx, m.c, serviceMovies, http.MethodPost,
		endpoint(m.base, nil, "all-by-ids"), idsBody{IDs: ids})
	if err != nil {
		return nil, err
	}
	return convert.FromBackendMovies(out), nil
}

func (m *MovieClient) GetAllGenres(ctx context.Context) ([]model.Genre, error) {
	return m.genres(ctx, "genres")
}

func (m *MovieClient) GetTopGenres(ctx context.Context) ([]model.Genre, error) {
	return m.genres(ctx, "genres", "top")
}

func (m *MovieClient) genres(ctx context.Context, path ...string) ([]model.Genre, error) {
	out, err := call[[]convert.BackendGenre](ctx, m.c, serviceMovies, http.MethodGet, endpoint(m.base, nil, path...), nil)
	if err != nil {
		return nil, err
	}
	return convert.FromBackendGenres(out), nil
}
