package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/movie-mate/internal/api"
	"github.com/and161185/movie-mate/internal/cache"
	"github.com/and161185/movie-mate/internal/logger"
	"github.com/and161185/movie-mate/internal/model"
)

// MembershipPageSize bounds the watchlists considered by SetMembership.
const MembershipPageSize = 100

// WatchlistService manages the watchlists of a user with optimistic cache updates.
type WatchlistService interface {
	List(ctx context.Context, username string, page, size int) (model.Page[model.Watchlist], error)
	// Movies resolves watchlist movie ids; an empty list needs no request.
	Movies(ctx context.Context, ids []string) ([]model.DetailedMovie, error)
	Create(ctx context.Context, username, name string, movieIDs []string) (model.Watchlist, error)
	Update(ctx context.Context, w model.Watchlist, upd model.WatchlistUpdate) (model.Watchlist, error)
	// Rename is a no-op when the trimmed name is unchanged.
	Rename(ctx context.Context, w model.Watchlist, name string) (model.Watchlist, error)
	Delete(ctx context.Context, w model.Watchlist) error
	// SetMembership puts movieID into exactly the selected watchlists of username.
	SetMembership(ctx context.Context, username, movieID string, selected []string) error
}

type WatchlistServiceImpl struct {
	movies   api.MovieAPI
	activity api.ActivityAPI
	cache    *cache.Cache
	log      *zap.Logger
	now      func() time.Time
}

var _ WatchlistService = (*WatchlistServiceImpl)(nil)

func NewWatchlistService(movies api.MovieAPI, activity api.ActivityAPI, c *cache.Cache, log *zap.Logger) *WatchlistServiceImpl {
	return &WatchlistServiceImpl{movies: movies, activity: activity, cache: c, log: logger.OrNop(log), now: time.Now}
}

func (s *WatchlistServiceImpl) List(ctx context.Context, username string, page, size int) (model.Page[model.Watchlist], error) {
	page, size = pageArgs(page, size)
	return cache.Query(ctx, s.cache, watchlistsKey(username, page, size), func(ctx context.Context) (model.Page[model.Watchlist], error) {
		return s.activity.GetUserWatchlists(ctx, username, page, size)
	}, cache.WithStaleAfter(watchlistsStaleAfter))
}

func (s *WatchlistServiceImpl) Movies(ctx context.Context, ids []string) ([]model.DetailedMovie, error) {
	ids = model.DedupIDs(ids)
	if len(ids) == 0 {
		return []model.DetailedMovie{}, nil
	}
	return cache.Query(ctx, s.cache, watchlistMoviesKey(ids), func(ctx context.Context) ([]model.DetailedMovie, error) {
		return s.movies.GetMoviesByIDs(ctx, ids)
	}, cache.WithStaleAfter(watchlistMoviesStaleAfter))
}

// patchLists rewrites every cached watchlist page of username.
func (s *WatchlistServiceImpl) patchLists(c *cache.Cache, username string, fn func(p model.Page[model.Watchlist]) model.Page[model.Watchlist]) cache.Snapshot {
	return cache.PatchPrefixOf(c, watchlistsPrefix(username), func(_ cache.Key, p model.Page[model.Watchlist]) model.Page[model.Watchlist] {
		return fn(p)
	})
}

func replaceList(p model.Page[model.Watchlist], id string, w model.Watchlist) model.Page[model.Watchlist] {
	out := p
	out.Elements = make([]model.Watchlist, len(p.Elements))
	for i, e := range p.Elements {
		if e.ID == id {
			e = w
		}
		out.Elements[i] = e
	}
	return out
}

func dropList(p model.Page[model.Watchlist], id string) model.Page[model.Watchlist] {
	if !slices.ContainsFunc(p.Elements, func(w model.Watchlist) bool { return w.ID == id }) {
		return p
	}
	kept := slices.DeleteFunc(slices.Clone(p.Elements), func(w model.Watchlist) bool { return w.ID == id })
	return model.NewPage(kept, p.PageNo, p.PageSize, p.TotalElements-1)
}

// appendList adds w to the last page. A full last page only counts it, since w
// lands on the next page.
func appendList(p model.Page[model.Watchlist], w model.Watchlist) model.Page[model.Watchlist] {
	if !p.IsLast && p.TotalPages > 0 {
		return p
	}
	elems := p.Elements
	if len(elems) < p.PageSize {
		elems = append(slices.Clone(elems), w)
	}
	return model.NewPage(elems, max(p.PageNo, 1), p.PageSize, p.TotalElements+1)
}

func (s *WatchlistServiceImpl) Create(ctx context.Context, username, name string, movieIDs []string) (model.Watchlist, error) {
	name = strings.TrimSpace(name)
	if err := ValidateListName(name); err != nil {
		return model.Watchlist{}, err
	}
	in := model.WatchlistInput{Name: name, Username: username, MoviesID: model.DedupIDs(movieIDs)}
	tmp := model.Watchlist{ID: model.NewOptimisticID(), Name: name, Username: username, MoviesID: in.MoviesID, UpdatedDate: s.now()}

	return cache.Mutate(ctx, s.cache, cache.Mutation[model.Watchlist]{
		Name: "watchlist.create",
		Optimistic: func(c *cache.Cache) cache.Snapshot {
			return s.patchLists(c, username, func(p model.Page[model.Watchlist]) model.Page[model.Watchlist] {
				return appendList(p, tmp)
			})
		},
		Call: func(ctx context.Context) (model.Watchlist, error) {
			return s.activity.CreateWatchlist(ctx, in)
		},
		Reconcile: func(c *cache.Cache, created model.Watchlist) {
			s.patchLists(c, username, func(p model.Page[model.Watchlist]) model.Page[model.Watchlist] {
				return replaceList(p, tmp.ID, created)
			})
		},
		Invalidate: []cache.Key{watchlistsPrefix(username)},
	})
}

func (s *WatchlistServiceImpl) Update(ctx context.Context, w model.Watchlist, upd model.WatchlistUpdate) (model.Watchlist, error) {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if err := ValidateListName(name); err != nil {
			return model.Watchlist{}, err
		}
		upd.Name = &name
	}
	if upd.MoviesID != nil {
		ids := model.DedupIDs(*upd.MoviesID)
		upd.MoviesID = &ids
	}
	next := upd.Apply(w)
	next.UpdatedDate = s.now()

	return cache.Mutate(ctx, s.cache, cache.Mutation[model.Watchlist]{
		Name: "watchlist.update",
		Optimistic: func(c *cache.Cache) cache.Snapshot {
			snap := s.patchLists(c, w.Username, func(p model.Page[model.Watchlist]) model.Page[model.Watchlist] {
				return replaceList(p, w.ID, next)
			})
			if upd.MoviesID != nil {
				snap = snap.Add(moveMovies(c, model.DedupIDs(w.MoviesID), next.MoviesID))
			}
			return snap
		},
		Call: func(ctx context.Context) (model.Watchlist, error) {
			return s.activity.UpdateWatchlist(ctx, w.ID, upd)
		},
		Reconcile: func(c *cache.Cache, saved model.Watchlist) {
			s.patchLists(c, w.Username, func(p model.Page[model.Watchlist]) model.Page[model.Watchlist] {
				return replaceList(p, w.ID, saved)
			})
		},
		Invalidate: []cache.Key{watchlistsPrefix(w.Username), watchlistMoviesPrefix(), recommendationsPrefix()},
	})
}

// moveMovies drops the cached movies of the old id set and, when they cover every
// new id, seeds the new id set from them.
func moveMovies(c *cache.Cache, oldIDs, newIDs []string) cache.Snapshot {
	oldKey, newKey := watchlistMoviesKey(oldIDs), watchlistMoviesKey(newIDs)
	if oldKey.String() == newKey.String() {
		return cache.Snapshot{}
	}
	movies, ok := cache.Get[[]model.DetailedMovie](c, oldKey)
	snap := c.Remove(oldKey)
	if !ok || len(newIDs) == 0 {
		return snap
	}
	byID := make(map[string]model.DetailedMovie, len(movies))
	for _, m := range movies {
		byID[m.ID] = m
	}
	kept := make([]model.DetailedMovie, 0, len(newIDs))
	for _, id := range newIDs {
		m, found := byID[id]
		if !found {
			return snap
		}
		kept = append(kept, m)
	}
	return snap.Add(c.Write(newKey, kept))
}

func (s *WatchlistServiceImpl) Rename(ctx context.Context, w model.Watchlist, name string) (model.Watchlist, error) {
	name = strings.TrimSpace(name)
	if name == w.Name {
		return w, nil
	}
	return s.Update(ctx, w, model.WatchlistUpdate{Name: &name})
}

func (s *WatchlistServiceImpl) Delete(ctx context.Context, w model.Watchlist) error {
	_, err := cache.Mutate(ctx, s.cache, cache.Mutation[string]{
		Name: "watchlist.delete",
		Optimistic: func(c *cache.Cache) cache.Snapshot {
			return s.patchLists(c, w.Username, func(p model.Page[model.Watchlist]) model.Page[model.Watchlist] {
				return dropList(p, w.ID)
			})
		},
		Call: func(ctx context.Context) (string, error) {
			return s.activity.DeleteWatchlist(ctx, w.ID)
		},
		Invalidate: []cache.Key{watchlistsPrefix(w.Username), recommendationsPrefix()},
	})
	return err
}

// SetMembership updates only the watchlists whose membership changes, concurrently.
// Each update rolls back on its own; the first error is returned.
func (s *WatchlistServiceImpl) SetMembership(ctx context.Context, username, movieID string, selected []string) error {
	lists, err := s.List(ctx, username, 1, MembershipPageSize)
	if err != nil {
		return err
	}
	want := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		want[id] = struct{}{}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range lists.Elements {
		_, shouldHave := want[w.ID]
		has := w.Contains(movieID)
		if shouldHave == has {
			continue
		}
		ids := slices.Clone(w.MoviesID)
		if shouldHave {
			ids = append(ids, movieID)
		} else {
			ids = slices.DeleteFunc(ids, func(id string) bool { return id == movieID })
		}
		g.Go(func() error {
			_, err := s.Update(gctx, w, model.WatchlistUpdate{MoviesID: &ids})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Warn("set membership", zap.String("movie", movieID), zap.Error(err))
		return err
	}
	return nil
}
