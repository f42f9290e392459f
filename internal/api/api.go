// Package api defines the data-access strategy used by the client: one interface per
// backend service and a Backend that groups them. Implementations live in api/live
// (HTTP) and api/mock (in-memory fixtures); exactly one is chosen at startup.
package api

import (
	"context"
	"strings"

	"github.com/and161185/movie-mate/internal/model"
)

// MinSearchLength is the shortest query sent to the search endpoint.
const MinSearchLength = 2

// ShortQuery reports whether q is too short to search for.
func ShortQuery(q string) bool { return len([]rune(strings.TrimSpace(q))) < MinSearchLength }

// AuthAPI talks to the auth service. Its calls are never authenticated.
type AuthAPI interface {
	// Login authenticates by username or email.
	Login(ctx context.Context, in model.LoginInput) (model.AuthResponse, error)
	// Register creates an account and logs it in.
	Register(ctx context.Context, in model.RegisterInput) (model.AuthResponse, error)
	// RefreshToken exchanges a refresh token for a new pair.
	RefreshToken(ctx context.Context, refreshToken string) (model.TokenPair, error)
}

// MovieAPI talks to the movie catalog service.
type MovieAPI interface {
	// GetAllMovies lists the catalog; page is 1-based.
	GetAllMovies(ctx context.Context, page, pageSize int) (model.Page[model.DetailedMovie], error)
	// SearchMovies returns an empty page without a call for queries shorter than MinSearchLength.
	SearchMovies(ctx context.Context, query string, page, limit int) (model.Page[model.DetailedMovie], error)
	GetMovieByID(ctx context.Context, id string) (model.DetailedMovie, error)
	// GetMoviesByIDs returns an empty list without a call for empty input.
	GetMoviesByIDs(ctx context.Context, ids []string) ([]model.DetailedMovie, error)
	GetAllGenres(ctx context.Context) ([]model.Genre, error)
	GetTopGenres(ctx context.Context) ([]model.Genre, error)
}

// ActivityAPI talks to the activity service (watchlists and ratings).
type ActivityAPI interface {
	GetUserWatchlists(ctx context.Context, username string, page, size int) (model.Page[model.Watchlist], error)
	CreateWatchlist(ctx context.Context, in model.WatchlistInput) (model.Watchlist, error)
	UpdateWatchlist(ctx context.Context, id string, upd model.WatchlistUpdate) (model.Watchlist, error)
	// DeleteWatchlist returns the deleted id.
	DeleteWatchlist(ctx context.Context, id string) (string, error)

	SubmitRating(ctx context.Context, in model.RatingInput) (model.MovieRating, error)
	UpdateRating(ctx context.Context, id string, upd model.RatingUpdate) (model.MovieRating, error)
	// DeleteRating returns the deleted id.
	DeleteRating(ctx context.Context, id string) (string, error)
	GetRatingsByMovieID(ctx context.Context, movieID string) ([]model.MovieRating, error)
}

// RecommendationAPI talks to the recommendation service.
type RecommendationAPI interface {
	// GetRecommendations returns an empty feed without a call for an empty user id.
	GetRecommendations(ctx context.Context, userID string) (model.Recommendations, error)
}

// Backend is the complete data-access strategy.
type Backend interface {
	AuthAPI
	MovieAPI
	ActivityAPI
	RecommendationAPI
}
