package model

import (
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Watchlist is a named, ordered set of movie ids owned by a user.
type Watchlist struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Username    string    `json:"username"`
	MoviesID    []string  `json:"movies_id"`
	UpdatedDate time.Time `json:"updated_date"`
}

// Contains reports whether movieID is in the list.
func (w Watchlist) Contains(movieID string) bool {
	for _, id := range w.MoviesID {
		if id == movieID {
			return true
		}
	}
	return false
}

// WatchlistInput creates a watchlist.
type WatchlistInput struct {
	Name     string   `json:"name"`
	Username string   `json:"username"`
	MoviesID []string `json:"movies_id"`
}

// WatchlistUpdate is a partial update; nil fields are left untouched.
type WatchlistUpdate struct {
	Name     *string   `json:"name,omitempty"`
	MoviesID *[]string `json:"movies_id,omitempty"`
}

// Apply returns w with the update applied.
func (u WatchlistUpdate) Apply(w Watchlist) Watchlist {
	if u.Name != nil {
		w.Name = *u.Name
	}
	if u.MoviesID != nil {
		w.MoviesID = DedupIDs(*u.MoviesID)
	}
	return w
}

// DedupIDs drops empty and repeated ids keeping first-seen order.
func DedupIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// MovieRating is one user's rating and review of a movie.
type MovieRating struct {
	ID        string    `json:"id"`
	MovieID   string    `json:"movie_id"`
	Username  string    `json:"username"`
	Rate      int       `json:"rate"`
	Review    string    `json:"review"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RatingInput submits a new rating.
type RatingInput struct {
	MovieID  string   `json:"movie_id"`
	Username string   `json:"username"`
	Rate     int      `json:"rate"`
	Review   string   `json:"review"`
	Tags     []string `json:"tags"`
}

// RatingUpdate is a partial update; nil fields are left untouched.
type RatingUpdate struct {
	Rate   *int      `json:"rate,omitempty"`
	Review *string   `json:"review,omitempty"`
	Tags   *[]string `json:"tags,omitempty"`
}

// Apply returns r with the update applied.
func (u RatingUpdate) Apply(r MovieRating) MovieRating {
	if u.Rate != nil {
		r.Rate = *u.Rate
	}
	if u.Review != nil {
		r.Review = *u.Review
	}
	if u.Tags != nil {
		r.Tags = append([]string(nil), (*u.Tags)...)
	}
	return r
}

// OptimisticPrefix marks ids generated locally before the server confirms a mutation.
const OptimisticPrefix = "optimistic-"

// NewOptimisticID returns a fresh synthetic id.
func NewOptimisticID() string {
	return OptimisticPrefix + uuid.Must(uuid.NewV4()).String()
}

// IsOptimisticID reports whether id was generated by NewOptimisticID.
func IsOptimisticID(id string) bool { return strings.HasPrefix(id, OptimisticPrefix) }
