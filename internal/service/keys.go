package service

import (
	"time"

	"github.com/and161185/movie-mate/internal/cache"
)

// Per-query staleness.
const (
	watchlistsStaleAfter      = 30 * time.Second
	watchlistMoviesStaleAfter = 60 * time.Second
)

func moviesKey(page, size int) cache.Key { return cache.K("movies", page, size) }

func searchKey(q string, page, limit int) cache.Key { return cache.K("search", q, page, limit) }

func movieKey(id string) cache.Key { return cache.K("movie", id) }

func genresKey() cache.Key { return cache.K("genres") }

func topGenresKey() cache.Key { return cache.K("top-genres") }

func watchlistsPrefix(username string) cache.Key { return cache.K("watchlists", username) }

func watchlistsKey(username string, page, size int) cache.Key {
	return cache.K("watchlists", username, page, size)
}

func watchlistMoviesKey(ids []string) cache.Key { return cache.K("watchlist-movies", ids) }

func watchlistMoviesPrefix() cache.Key { return cache.K("watchlist-movies") }

func ratingsKey(movieID string) cache.Key { return cache.K("ratings", movieID) }

func recommendationsKey(userID string) cache.Key { return cache.K("recommendations", userID) }

func recommendationsPrefix() cache.Key { return cache.K("recommendations") }
