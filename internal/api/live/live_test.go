package live

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/movie-mate/internal/config"
	"github.com/and161185/movie-mate/internal/errs"
	"github.com/and161185/movie-mate/internal/model"
	"github.com/and161185/movie-mate/internal/transport"
)

/************ fakes ************/

type hit struct {
	Method string
	Path   string
	Query  string
	Body   string
}

type recorder struct {
	mu   sync.Mutex
	hits []hit
}

func (r *recorder) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		r.hits = append(r.hits, hit{Method: req.Method, Path: req.URL.EscapedPath(), Query: req.URL.RawQuery, Body: string(b)})
		r.mu.Unlock()
		next.ServeHTTP(w, req)
	})
}

func (r *recorder) last(t *testing.T) hit {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.hits)
	return r.hits[len(r.hits)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hits)
}

func reply(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func newClient(t *testing.T, mount func(r chi.Router)) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	r := chi.NewRouter()
	r.Use(rec.middleware)
	mount(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	exec := transport.NewExecutor(srv.Client(), zaptest.NewLogger(t), nil, "test")
	urls := config.ServicesConfig{
		AuthURL:           srv.URL + "/auth",
		MoviesURL:         srv.URL + "/movies/",
		ActivityURL:       srv.URL + "/activity",
		RecommendationURL: srv.URL + "/recommendation",
	}
	return New(NewAuth(urls.AuthURL, exec), urls, exec), rec
}

/************ tests ************/

func TestAuth_Login(t *testing.T) {
	t.Parallel()

	c, rec := newClient(t, func(r chi.Router) {
		r.Post("/auth/login", reply(`{"userDetails":{"id":42,"username":"devuser","email":"dev@movie-mate.com","fullName":null,
			"enabled":true,"notBanned":true,"roles":["USER"]},"accessToken":"a","refreshToken":"r"}`))
	})

	got, err := c.Login(context.Background(), model.LoginInput{Identifier: "devuser", Password: "devpass1"})
	require.NoError(t, err)
	require.Equal(t, "42", got.User.ID)
	require.Equal(t, "devuser", got.User.Username)
	require.Equal(t, []string{"USER"}, got.User.Roles)
	require.Equal(t, "a", got.AccessToken)
	require.JSONEq(t, `{"identifier":"devuser","password":"devpass1"}`, rec.last(t).Body)
}

func TestAuth_RefreshTokenUsesQuery(t *testing.T) {
	t.Parallel()

	c, rec := newClient(t, func(r chi.Router) {
		r.Post("/auth/refresh-token", reply(`{"accessToken":"a2","refreshToken":"r2"}`))
	})

	pair, err := c.RefreshToken(context.Background(), "r1/+=")
	require.NoError(t, err)
	require.Equal(t, model.TokenPair{AccessToken: "a2", RefreshToken: "r2"}, pair)
	h := rec.last(t)
	require.Equal(t, "refreshToken=r1%2F%2B%3D", h.Query)
	require.Empty(t, h.Body)
}

func TestMovies_ListSearchAndDetail(t *testing.T) {
	t.Parallel()

	movie := `{"_id":{"$oid":"m1"},"title":"Inception","genres":["Sci-Fi"],"director":{"firstName":"Christopher","lastName":"Nolan"},
		"casts":[],"synopsis":"s","releaseDate":{"$date":"2010-07-16T00:00:00Z"},"language":"English",
		"rating":{"average":8.8,"count":3},"reviews":[]}`
	c, rec := newClient(t, func(r chi.Router) {
		r.Get("/movies/all", reply(`{"pageNo":2,"pageSize":1,"totalElements":3,"elements":[`+movie+`]}`))
		r.Get("/movies/search/movie", reply(`{"elements":[`+movie+`]}`))
		r.Get("/movies/{id}", reply(movie))
	})
	ctx := context.Background()

	page, err := c.GetAllMovies(ctx, 2, 1)
	require.NoError(t, err)
	require.Equal(t, "page=2&pageSize=1", rec.last(t).Query)
	require.Equal(t, 3, page.TotalPages)
	require.False(t, page.IsLast)
	require.Equal(t, "m1", page.Elements[0].ID)
	require.Equal(t, 2010, page.Elements[0].ReleaseYear())

	found, err := c.SearchMovies(ctx, " inc ", 1, 10)
	require.NoError(t, err)
	require.Equal(t, "limit=10&page=1&query=inc", rec.last(t).Query)
	require.Len(t, found.Elements, 1)

	m, err := c.GetMovieByID(ctx, "m 1")
	require.NoError(t, err)
	require.Equal(t, "/movies/m%201", rec.last(t).Path)
	require.Equal(t, "Christopher Nolan", m.Director.FullName())
}

func TestMovies_ShortCircuits(t *testing.T) {
	t.Parallel()

	c, rec := newClient(t, func(r chi.Router) {})
	ctx := context.Background()

	page, err := c.SearchMovies(ctx, "a", 1, 10)
	require.NoError(t, err)
	require.Empty(t, page.Elements)
	require.True(t, page.IsLast)

	list, err := c.GetMoviesByIDs(ctx, []string{"", " "})
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)

	recs, err := c.GetRecommendations(ctx, "")
	require.NoError(t, err)
	require.Empty(t, recs.Recommended)

	require.Zero(t, rec.count())
}

func TestMovies_ByIDsAndGenres(t *testing.T) {
	t.Parallel()

	c, rec := newClient(t, func(r chi.Router) {
		r.Post("/movies/all-by-ids", reply(`[{"id":"m2","title":"The Matrix","genres":[]}]`))
		r.Get("/movies/genres", reply(`["Sci-Fi","Drama"]`))
		r.Get("/movies/genres/top", reply(`[{"id":"sci-fi","name":"Sci-Fi"}]`))
	})
	ctx := context.Background()

	list, err := c.GetMoviesByIDs(ctx, []string{"m2", "m2", "m3"})
	require.NoError(t, err)
	require.JSONEq(t, `{"ids":["m2","m3"]}`, rec.last(t).Body)
	require.Equal(t, "The Matrix", list[0].Title)

	all, err := c.GetAllGenres(ctx)
	require.NoError(t, err)
	require.Equal(t, []model.Genre{{ID: "sci-fi", Name: "Sci-Fi"}, {ID: "drama", Name: "Drama"}}, all)

	top, err := c.GetTopGenres(ctx)
	require.NoError(t, err)
	require.Len(t, top, 1)
}

func TestActivity_Watchlists(t *testing.T) {
	t.Parallel()

	wl := `{"_id":{"$oid":"wl1"},"name":"Sci-Fi Favorites","username":"devuser","movies_id":["m1","m2"],
		"updated_date":{"$date":{"$numberLong":"1704103200000"}}}`
	c, rec := newClient(t, func(r chi.Router) {
		r.Get("/activity/watchlist/all-by-user/{username}", reply(`{"pageNo":1,"pageSize":5,"totalElements":1,"elements":[`+wl+`]}`))
		r.Post("/activity/watchlist", reply(wl))
		r.Patch("/activity/watchlist/{id}", reply(wl))
		r.Delete("/activity/watchlist/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	})
	ctx := context.Background()

	page, err := c.GetUserWatchlists(ctx, "devuser", 1, 5)
	require.NoError(t, err)
	require.Equal(t, "page=1&size=5", rec.last(t).Query)
	require.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), page.Elements[0].UpdatedDate.UTC())

	_, err = c.CreateWatchlist(ctx, model.WatchlistInput{Name: "n", Username: "devuser", MoviesID: []string{"m1", "m1"}})
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"n","username":"devuser","movies_id":["m1"]}`, rec.last(t).Body)

	ids := []string{"m1", "m3", "m3"}
	_, err = c.UpdateWatchlist(ctx, "wl1", model.WatchlistUpdate{MoviesID: &ids})
	require.NoError(t, err)
	h := rec.last(t)
	require.Equal(t, http.MethodPatch, h.Method)
	require.JSONEq(t, `{"movies_id":["m1","m3"]}`, h.Body)

	id, err := c.DeleteWatchlist(ctx, "wl1")
	require.NoError(t, err)
	require.Equal(t, "wl1", id)
	require.Equal(t, "/activity/watchlist/wl1", rec.last(t).Path)
}

func TestActivity_RatingsArrayOrPage(t *testing.T) {
	t.Parallel()

	r1 := `{"id":"r1","movie_id":"m1","username":"neo","rate":4,"review_text":"great movie, loved it","timestamp":"2024-03-01T00:00:00Z"}`
	c, _ := newClient(t, func(r chi.Router) {
		r.Get("/activity/rating/movie/m1", reply(`[`+r1+`]`))
		r.Get("/activity/rating/movie/m2", reply(`{"elements":[`+r1+`,`+r1+`]}`))
		r.Get("/activity/rating/movie/m3", reply(`null`))
		r.Get("/activity/rating/movie/m4", reply(`"nope"`))
	})
	ctx := context.Background()

	list, err := c.GetRatingsByMovieID(ctx, "m1")
	require.NoError(t, err)
	require.Equal(t, "great movie, loved it", list[0].Review)
	require.Equal(t, 4, list[0].Rate)

	list, err = c.GetRatingsByMovieID(ctx, "m2")
	require.NoError(t, err)
	require.Len(t, list, 2)

	list, err = c.GetRatingsByMovieID(ctx, "m3")
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)

	_, err = c.GetRatingsByMovieID(ctx, "m4")
	require.Equal(t, errs.KindNetwork, errs.KindOf(err))
}

func TestActivity_RatingMutations(t *testing.T) {
	t.Parallel()

	c, rec := newClient(t, func(r chi.Router) {
		r.Post("/activity/rating", reply(`{"id":"r9","movie_id":{"$oid":"m1"},"username":"devuser","rate":5,"review":"superb film overall"}`))
		r.Patch("/activity/rating/{id}", reply(`{"id":"r9","movie_id":"m1","username":"devuser","rate":3}`))
		r.Delete("/activity/rating/{id}", reply(`{}`))
	})
	ctx := context.Background()

	got, err := c.SubmitRating(ctx, model.RatingInput{MovieID: "m1", Username: "devuser", Rate: 5, Review: "superb film overall"})
	require.NoError(t, err)
	require.Equal(t, "r9", got.ID)
	require.Equal(t, "m1", got.MovieID)

	rate := 3
	got, err = c.UpdateRating(ctx, "r9", model.RatingUpdate{Rate: &rate})
	require.NoError(t, err)
	require.Equal(t, 3, got.Rate)
	require.JSONEq(t, `{"rate":3}`, rec.last(t).Body)

	id, err := c.DeleteRating(ctx, "r9")
	require.NoError(t, err)
	require.Equal(t, "r9", id)
}

func TestRecommendations(t *testing.T) {
	t.Parallel()

	c, rec := newClient(t, func(r chi.Router) {
		r.Get("/recommendation/recommend/{userId}", reply(`{"recommended":[{"movie":{"id":"m1","title":"Inception","genres":["Sci-Fi"],
			"releaseYear":2010,"rating":8.8},"score":1.4,"explanations":[]}]}`))
	})

	got, err := c.GetRecommendations(context.Background(), "user123")
	require.NoError(t, err)
	require.Equal(t, "detailed=true", rec.last(t).Query)
	require.Equal(t, "user123", got.UserID)
	require.Equal(t, 1.0, got.Recommended[0].Score)
}

func TestErrorsPropagateTagged(t *testing.T) {
	t.Parallel()

	c, _ := newClient(t, func(r chi.Router) {
		r.Get("/movies/{id}", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "movie not found"})
		})
	})

	_, err := c.GetMovieByID(context.Background(), "nope")
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.Equal(t, "movie not found", errs.UserMessage(err))
}
