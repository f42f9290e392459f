package live

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/and161185/movie-mate/internal/api"
	"github.com/and161185/movie-mate/internal/convert"
	"github.com/and161185/movie-mate/internal/errs"
	"github.com/and161185/movie-mate/internal/model"
	"github.com/and161185/movie-mate/internal/transport"
)

// ActivityClient calls the activity service.
type ActivityClient struct {
	base string
	c    transport.Caller
}

var _ api.ActivityAPI = (*ActivityClient)(nil)

func NewActivity(base string, c transport.Caller) *ActivityClient {
	return &ActivityClient{base: base, c: c}
}

func (a *ActivityClient) GetUserWatchlists(ctx context.Context, username string, page, size int) (model.Page[model.Watchlist], error) {
	out, err := call[convert.BackendPage[convert.BackendWatchlist]](ctx, a.c, serviceActivity, http.MethodGet,
		endpoint(a.base, pageQuery("size", page, size), "watchlist", "all-by-user", username), nil)
	if err != nil {
		return model.Page[model.Watchlist]{}, err
	}
	return convert.FromBackendWatchlistPage(out), nil
}

func (a *ActivityClient) CreateWatchlist(ctx context.Context, in model.WatchlistInput) (model.Watchlist, error) {
	in.MoviesID = model.DedupIDs(in.MoviesID)
	out, err := call[convert.BackendWatchlist](ctx, a.c, serviceActivity, http.MethodPost, endpoint(a.base, nil, "watchlist"), in)
	if err != nil {
		return model.Watchlist{}, err
	}
	return convert.FromBackendWatchlist(out), nil
}

func (a *ActivityClient) UpdateWatchlist(ctx context.Context, id string, upd model.WatchlistUpdate) (model.Watchlist, error) {
	if upd.MoviesID != nil {
		ids := model.DedupIDs(*upd.MoviesID)
		upd.MoviesID = &ids
	}
	out, err := call[convert.BackendWatchlist](ctx, a.c, serviceActivity, http.MethodPatch, endpoint(a.base, nil, "watchlist", id), upd)
	if err != nil {
		return model.Watchlist{}, err
	}
	return convert.FromBackendWatchlist(out), nil
}

func (a *ActivityClient) DeleteWatchlist(ctx context.Context, id string) (string, error) {
	if err := send(ctx, a.c, serviceActivity, http.MethodDelete, endpoint(a.base, nil, "watchlist", id), nil); err != nil {
		return "", err
	}
	return id, nil
}

func (a *ActivityClient) SubmitRating(ctx context.Context, in model.RatingInput) (model.MovieRating, error) {
	out, err := call[convert.BackendMovieRating](ctx, a.c, serviceActivity, http.MethodPost, endpoint(a.base, nil, "rating"), in)
	if err != nil {
		return model.MovieRating{}, err
	}
	return convert.FromBackendRating(out), nil
}

func (a *ActivityClient) UpdateRating(ctx context.Context, id string, upd model.RatingUpdate) (model.MovieRating, error) {
	out, err := call[convert.BackendMovieRating](ctx, a.c, serviceActivity, http.MethodPatch, endpoint(a.base, nil, "rating", id), upd)
	if err != nil {
		return model.MovieRating{}, err
	}
	return convert.FromBackendRating(out), nil
}

func (a *ActivityClient) DeleteRating(ctx context.Context, id string) (string, error) {
	if err := send(ctx, a.c, serviceActivity, http.MethodDelete, endpoint(a.base, nil, "rating", id), nil); err != nil {
		return "", err
	}
	return id, nil
}

// GetRatingsByMovieID accepts both a bare array and a paginated envelope.
func (a *ActivityClient) GetRatingsByMovieID(ctx context.Context, movieID string) ([]model.MovieRating, error) {
	raw, err := call[json.RawMessage](ctx, a.c, serviceActivity, http.MethodGet, endpoint(a.base, nil, "rating", "movie", movieID), nil)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []model.MovieRating{}, nil
	}
	if raw[0] == '{' {
		var page convert.BackendPage[convert.BackendMovieRating]
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, errs.NewNetwork(http.StatusOK, "unexpected response shape", err)
		}
		return convert.FromBackendRatings(page.Elements), nil
	}
	var list []convert.BackendMovieRating
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, errs.NewNetwork(http.StatusOK, "unexpected response shape", err)
	}
	return convert.FromBackendRatings(list), nil
}
