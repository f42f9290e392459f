package mock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/and161185/movie-mate/internal/errs"
	"github.com/and161185/movie-mate/internal/model"
)

var fixed = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func newBackend() *Backend {
	return New(WithClock(func() time.Time { return fixed }))
}

func TestLoginReturnsDevAccount(t *testing.T) {
	t.Parallel()

	b := newBackend()
	got, err := b.Login(context.Background(), model.LoginInput{Identifier: "anyone", Password: "whatever"})
	require.NoError(t, err)
	require.Equal(t, DevUsername, got.User.Username)
	require.Equal(t, AccessToken, got.AccessToken)
	require.Equal(t, RefreshToken, got.RefreshToken)

	pair, err := b.RefreshToken(context.Background(), got.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, model.TokenPair{AccessToken: RefreshedAccess, RefreshToken: RefreshedToken}, pair)

	_, err = b.RefreshToken(context.Background(), "")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	b := newBackend()
	ctx := context.Background()

	page, err := b.GetAllMovies(ctx, 1, 2)
	require.NoError(t, err)
	require.Equal(t, 5, page.TotalElements)
	require.Equal(t, 3, page.TotalPages)
	require.Equal(t, "Inception", page.Elements[0].Title, "sorted by title")

	found, err := b.SearchMovies(ctx, "nolan", 1, 10)
	require.NoError(t, err)
	require.Len(t, found.Elements, 1)
	require.Equal(t, "m1", found.Elements[0].ID)

	found, err = b.SearchMovies(ctx, "DRAMA", 1, 10)
	require.NoError(t, err)
	require.Equal(t, 2, found.TotalElements)

	found, err = b.SearchMovies(ctx, "x", 1, 10)
	require.NoError(t, err)
	require.Empty(t, found.Elements)

	_, err = b.GetMovieByID(ctx, "m9")
	require.Equal(t, errs.KindGeneric, errs.KindOf(err))
	require.ErrorIs(t, err, errs.ErrNotFound)

	list, err := b.GetMoviesByIDs(ctx, []string{"m4", "m9", "m2", "m4"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "m4", list[0].ID)

	list, err = b.GetMoviesByIDs(ctx, nil)
	require.NoError(t, err)
	require.NotNil(t, list)

	g, err := b.GetAllGenres(ctx)
	require.NoError(t, err)
	require.Len(t, g, 7)
	top, err := b.GetTopGenres(ctx)
	require.NoError(t, err)
	require.Equal(t, "sci-fi", top[0].ID)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	t.Parallel()

	b := newBackend()
	ctx := context.Background()

	m, err := b.GetMovieByID(ctx, "m1")
	require.NoError(t, err)
	m.Genres[0].Name = "changed"

	again, err := b.GetMovieByID(ctx, "m1")
	require.NoError(t, err)
	require.Equal(t, "Sci-Fi", again.Genres[0].Name)
}

func TestWatchlistLifecycle(t *testing.T) {
	t.Parallel()

	b := newBackend()
	ctx := context.Background()

	page, err := b.GetUserWatchlists(ctx, DevUsername, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 2, page.TotalElements)

	_, err = b.CreateWatchlist(ctx, model.WatchlistInput{Name: "  ", Username: DevUsername})
	require.ErrorIs(t, err, errs.ErrValidation)

	w, err := b.CreateWatchlist(ctx, model.WatchlistInput{Name: "Weekend", Username: DevUsername, MoviesID: []string{"m5", "m5"}})
	require.NoError(t, err)
	require.Equal(t, []string{"m5"}, w.MoviesID)
	require.Equal(t, fixed, w.UpdatedDate)

	ids := []string{"m1", "m3", "m1"}
	name := "Weekend picks"
	w, err = b.UpdateWatchlist(ctx, w.ID, model.WatchlistUpdate{Name: &name, MoviesID: &ids})
	require.NoError(t, err)
	require.Equal(t, "Weekend picks", w.Name)
	require.Equal(t, []string{"m1", "m3"}, w.MoviesID)

	_, err = b.UpdateWatchlist(ctx, "nope", model.WatchlistUpdate{Name: &name})
	require.ErrorIs(t, err, errs.ErrNotFound)

	id, err := b.DeleteWatchlist(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, w.ID, id)
	_, err = b.DeleteWatchlist(ctx, w.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)

	other, err := b.GetUserWatchlists(ctx, "stranger", 1, 10)
	require.NoError(t, err)
	require.Empty(t, other.Elements)
	require.True(t, other.IsLast)
}

func TestRatingLifecycle(t *testing.T) {
	t.Parallel()

	b := newBackend()
	ctx := context.Background()

	_, err := b.SubmitRating(ctx, model.RatingInput{MovieID: "m2", Username: DevUsername, Rate: 6})
	require.Error(t, err)
	_, err = b.SubmitRating(ctx, model.RatingInput{MovieID: "m9", Username: DevUsername, Rate: 4})
	require.ErrorIs(t, err, errs.ErrNotFound)

	r, err := b.SubmitRating(ctx, model.RatingInput{MovieID: "m2", Username: DevUsername, Rate: 4, Review: " A game changer indeed. "})
	require.NoError(t, err)
	require.Equal(t, "A game changer indeed.", r.Review)
	require.NotNil(t, r.Tags)

	_, err = b.SubmitRating(ctx, model.RatingInput{MovieID: "m2", Username: DevUsername, Rate: 3})
	require.ErrorIs(t, err, errs.ErrAlreadyExists)

	rate := 2
	r, err = b.UpdateRating(ctx, r.ID, model.RatingUpdate{Rate: &rate})
	require.NoError(t, err)
	require.Equal(t, 2, r.Rate)

	list, err := b.GetRatingsByMovieID(ctx, "m2")
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = b.DeleteRating(ctx, r.ID)
	require.NoError(t, err)
	list, err = b.GetRatingsByMovieID(ctx, "m2")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestRecommendations(t *testing.T) {
	t.Parallel()

	b := newBackend()
	recs, err := b.GetRecommendations(context.Background(), DevUserID)
	require.NoError(t, err)
	require.Equal(t, DevUserID, recs.UserID)
	require.Len(t, recs.Recommended, 3)
	require.True(t, recs.Recommended[2].IsFallback())
	require.True(t, recs.Personalized())

	empty, err := b.GetRecommendations(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, empty.Recommended)
}
