// Package mock implements api.Backend over in-memory fixtures for development mode.
package mock

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/movie-mate/internal/api"
	"github.com/and161185/movie-mate/internal/errs"
	"github.com/and161185/movie-mate/internal/model"
)

const (
	minRate = 1
	maxRate = 5
)

// Backend serves fixtures; mutations change its in-memory state.
type Backend struct {
	mu         sync.Mutex
	now        func() time.Time
	movies     []model.DetailedMovie
	genres     []model.Genre
	top        []model.Genre
	watchlists []model.Watchlist
	ratings    []model.MovieRating
	recs       []model.RecommendedItem
}

var _ api.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithClock overrides time.Now for mutation timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// New returns a Backend seeded with the dev fixtures.
func New(opts ...Option) *Backend {
	b := &Backend{
		now:        time.Now,
		movies:     movies(),
		genres:     genres(),
		top:        topGenres(),
		watchlists: watchlists(),
		ratings:    ratings(),
		recs:       recommendations(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

func notFound(what string) error { return errs.NewGeneric(http.StatusNotFound, what+" not found") }

func badRequest(msg string) error { return errs.NewGeneric(http.StatusBadRequest, msg) }

func newID(prefix string) string { return prefix + uuid.Must(uuid.NewV4()).String() }

/************ auth ************/

func devAuth() model.AuthResponse {
	return model.AuthResponse{User: DevUser(), AccessToken: AccessToken, RefreshToken: RefreshToken}
}

// Login accepts any credentials.
func (b *Backend) Login(ctx context.Context, _ model.LoginInput) (model.AuthResponse, error) {
	if err := ctx.Err(); err != nil {
		return model.AuthResponse{}, err
	}
	return devAuth(), nil
}

// Register accepts any input and logs in the dev account.
func (b *Backend) Register(ctx context.Context, _ model.RegisterInput) (model.AuthResponse, error) {
	if err := ctx.Err(); err != nil {
		return model.AuthResponse{}, err
	}
	return devAuth(), nil
}

func (b *Backend) RefreshToken(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	if err := ctx.Err(); err != nil {
		return model.TokenPair{}, err
	}
	if refreshToken == "" {
		return model.TokenPair{}, errs.NewGeneric(http.StatusUnauthorized, "refresh token required")
	}
	return model.TokenPair{AccessToken: RefreshedAccess, RefreshToken: RefreshedToken}, nil
}

/************ movies ************/

func cloneMovie(m model.DetailedMovie) model.DetailedMovie {
	m.Genres = slices.Clone(m.Genres)
	m.Casts = slices.Clone(m.Casts)
	m.Reviews = slices.Clone(m.Reviews)
	return m
}

func (b *Backend) GetAllMovies(_ context.Context, page, pageSize int) (model.Page[model.DetailedMovie], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sorted := make([]model.DetailedMovie, 0, len(b.movies))
	for _, m := range b.movies {
		sorted = append(sorted, cloneMovie(m))
	}
	slices.SortStableFunc(sorted, func(x, y model.DetailedMovie) int { return strings.Compare(x.Title, y.Title) })
	return model.Paginate(sorted, page, pageSize), nil
}

func matches(m model.DetailedMovie, q string) bool {
	if strings.Contains(strings.ToLower(m.Title), q) || strings.Contains(strings.ToLower(m.Director.FullName()), q) {
		return true
	}
	for _, g := range m.Genres {
		if strings.Contains(strings.ToLower(g.Name), q) {
			return true
		}
	}
	return false
}

// SearchMovies matches title, genre name and director, case-insensitively.
func (b *Backend) SearchMovies(_ context.Context, query string, page, limit int) (model.Page[model.DetailedMovie], error) {
	if api.ShortQuery(query) {
		return model.EmptyPage[model.DetailedMovie](limit), nil
	}
	q := strings.ToLower(strings.TrimSpace(query))

	b.mu.Lock()
	defer b.mu.Unlock()

	var found []model.DetailedMovie
	for _, m := range b.movies {
		if matches(m, q) {
			found = append(found, cloneMovie(m))
		}
	}
	return model.Paginate(found, page, limit), nil
}

func (b *Backend) GetMovieByID(_ context.Context, id string) (model.DetailedMovie, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, m := range b.movies {
		if m.ID == id {
			return cloneMovie(m), nil
		}
	}
	return model.DetailedMovie{}, notFound("movie")
}

// GetMoviesByIDs returns known movies in request order; unknown ids are skipped.
func (b *Backend) GetMoviesByIDs(_ context.Context, ids []string) ([]model.DetailedMovie, error) {
	ids = model.DedupIDs(ids)
	out := make([]model.DetailedMovie, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, id := range ids {
		for _, m := range b.movies {
			if m.ID == id {
				out = append(out, cloneMovie(m))
				break
			}
		}
	}
	return out, nil
}

func (b *Backend) GetAllGenres(context.Context) ([]model.Genre, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.genres), nil
}

func (b *Backend) GetTopGenres(context.Context) ([]model.Genre, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.top), nil
}

// MovieExists reports whether id is in the catalog.
func (b *Backend) MovieExists(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.ContainsFunc(b.movies, func(m model.DetailedMovie) bool { return m.ID == id })
}

/************ watchlists ************/

func cloneWatchlist(w model.Watchlist) model.Watchlist {
	w.MoviesID = slices.Clone(w.MoviesID)
	if w.MoviesID == nil {
		w.MoviesID = []string{}
	}
	return w
}

func (b *Backend) watchlistIndex(id string) int {
	return slices.IndexFunc(b.watchlists, func(w model.Watchlist) bool { return w.ID == id })
}

func (b *Backend) GetUserWatchlists(_ context.Context, username string, page, size int) (model.Page[model.Watchlist], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var own []model.Watchlist
	for _, w := range b.watchlists {
		if w.Username == username {
			own = append(own, cloneWatchlist(w))
		}
	}
	return model.Paginate(own, page, size), nil
}

func (b *Backend) CreateWatchlist(_ context.Context, in model.WatchlistInput) (model.Watchlist, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Watchlist{}, badRequest("watchlist name is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	w := model.Watchlist{
		ID:          newID("wl-"),
		Name:        name,
		Username:    in.Username,
		MoviesID:    model.DedupIDs(in.MoviesID),
		UpdatedDate: b.now().UTC(),
	}
	b.watchlists = append(b.watchlists, w)
	return cloneWatchlist(w), nil
}

func (b *Backend) UpdateWatchlist(_ context.Context, id string, upd model.WatchlistUpdate) (model.Watchlist, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.watchlistIndex(id)
	if i < 0 {
		return model.Watchlist{}, notFound("watchlist")
	}
	w := upd.Apply(b.watchlists[i])
	w.Name = strings.TrimSpace(w.Name)
	if w.Name == "" {
		return model.Watchlist{}, badRequest("watchlist name is required")
	}
	w.UpdatedDate = b.now().UTC()
	b.watchlists[i] = cloneWatchlist(w)
	return cloneWatchlist(w), nil
}

func (b *Backend) DeleteWatchlist(_ context.Context, id string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.watchlistIndex(id)
	if i < 0 {
		return "", notFound("watchlist")
	}
	b.watchlists = slices.Delete(b.watchlists, i, i+1)
	return id, nil
}

/************ ratings ************/

func cloneRating(r model.MovieRating) model.MovieRating {
	r.Tags = slices.Clone(r.Tags)
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return r
}

func (b *Backend) ratingIndex(id string) int {
	return slices.IndexFunc(b.ratings, func(r model.MovieRating) bool { return r.ID == id })
}

func validRate(rate int) bool { return rate >= minRate && rate <= maxRate }

func (b *Backend) SubmitRating(_ context.Context, in model.RatingInput) (model.MovieRating, error) {
	if !validRate(in.Rate) {
		return model.MovieRating{}, badRequest("rate must be between 1 and 5")
	}
	if !b.MovieExists(in.MovieID) {
		return model.MovieRating{}, notFound("movie")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	dup := slices.ContainsFunc(b.ratings, func(r model.MovieRating) bool {
		return r.MovieID == in.MovieID && r.Username == in.Username
	})
	if dup {
		return model.MovieRating{}, errs.NewGeneric(http.StatusConflict, "movie already rated")
	}
	now := b.now().UTC()
	r := cloneRating(model.MovieRating{
		ID:        newID("r-"),
		MovieID:   in.MovieID,
		Username:  in.Username,
		Rate:      in.Rate,
		Review:    strings.TrimSpace(in.Review),
		Tags:      in.Tags,
		CreatedAt: now,
		UpdatedAt: now,
	})
	b.ratings = append(b.ratings, r)
	return cloneRating(r), nil
}

func (b *Backend) UpdateRating(_ context.Context, id string, upd model.RatingUpdate) (model.MovieRating, error) {
	if upd.Rate != nil && !validRate(*upd.Rate) {
		return model.MovieRating{}, badRequest("rate must be between 1 and 5")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.ratingIndex(id)
	if i < 0 {
		return model.MovieRating{}, notFound("rating")
	}
	r := cloneRating(upd.Apply(b.ratings[i]))
	r.UpdatedAt = b.now().UTC()
	b.ratings[i] = r
	return cloneRating(r), nil
}

func (b *Backend) DeleteRating(_ context.Context, id string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.ratingIndex(id)
	if i < 0 {
		return "", notFound("rating")
	}
	b.ratings = slices.Delete(b.ratings, i, i+1)
	return id, nil
}

func (b *Backend) GetRatingsByMovieID(_ context.Context, movieID string) ([]model.MovieRating, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := []model.MovieRating{}
	for _, r := range b.ratings {
		if r.MovieID == movieID {
			out = append(out, cloneRating(r))
		}
	}
	return out, nil
}

/************ recommendations ************/

// GetRecommendations serves the same feed to every user.
func (b *Backend) GetRecommendations(_ context.Context, userID string) (model.Recommendations, error) {
	if userID == "" {
		return model.Recommendations{Recommended: []model.RecommendedItem{}}, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	items := make([]model.RecommendedItem, 0, len(b.recs))
	for _, it := range b.recs {
		it.Movie.Genres = slices.Clone(it.Movie.Genres)
		it.Explanations = slices.Clone(it.Explanations)
		items = append(items, it)
	}
	return model.Recommendations{UserID: userID, Recommended: items}, nil
}
