package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/and161185/movie-mate/internal/api"
	"github.com/and161185/movie-mate/internal/cache"
	"github.com/and161185/movie-mate/internal/model"
)

// RatingService reads and writes movie ratings with optimistic cache updates.
type RatingService interface {
	ForMovie(ctx context.Context, movieID string) ([]model.MovieRating, error)
	// Mine returns the rating of username for movieID, if any.
	Mine(ctx context.Context, movieID, username string) (model.MovieRating, bool, error)
	Submit(ctx context.Context, in model.RatingInput) (model.MovieRating, error)
	Update(ctx context.Context, r model.MovieRating, upd model.RatingUpdate) (model.MovieRating, error)
	Delete(ctx context.Context, r model.MovieRating) error
}

type RatingServiceImpl struct {
	api   api.ActivityAPI
	cache *cache.Cache
	now   func() time.Time
}

var _ RatingService = (*RatingServiceImpl)(nil)

func NewRatingService(a api.ActivityAPI, c *cache.Cache) *RatingServiceImpl {
	return &RatingServiceImpl{api: a, cache: c, now: time.Now}
}

func (s *RatingServiceImpl) ForMovie(ctx context.Context, movieID string) ([]model.MovieRating, error) {
	return cache.Query(ctx, s.cache, ratingsKey(movieID), func(ctx context.Context) ([]model.MovieRating, error) {
		return s.api.GetRatingsByMovieID(ctx, movieID)
	})
}

func (s *RatingServiceImpl) Mine(ctx context.Context, movieID, username string) (model.MovieRating, bool, error) {
	list, err := s.ForMovie(ctx, movieID)
	if err != nil {
		return model.MovieRating{}, false, err
	}
	for _, r := range list {
		if r.Username == username {
			return r, true, nil
		}
	}
	return model.MovieRating{}, false, nil
}

func replaceRating(list []model.MovieRating, id string, r model.MovieRating) []model.MovieRating {
	out := slices.Clone(list)
	for i := range out {
		if out[i].ID == id {
			out[i] = r
		}
	}
	return out
}

// affected lists what a rating change makes stale beyond the rating list itself.
func affected(movieID string) []cache.Key {
	return []cache.Key{ratingsKey(movieID), movieKey(movieID), recommendationsPrefix()}
}

// Submit shows a synthetic rating until the server answers, then swaps in the real one.
func (s *RatingServiceImpl) Submit(ctx context.Context, in model.RatingInput) (model.MovieRating, error) {
	in.Review = strings.TrimSpace(in.Review)
	in.Tags = NormalizeTags(in.Tags)
	if err := ValidateRating(in); err != nil {
		return model.MovieRating{}, err
	}
	now := s.now()
	tmp := model.MovieRating{
		ID:        model.NewOptimisticID(),
		MovieID:   in.MovieID,
		Username:  in.Username,
		Rate:      in.Rate,
		Review:    in.Review,
		Tags:      in.Tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	key := ratingsKey(in.MovieID)

	return cache.Mutate(ctx, s.cache, cache.Mutation[model.MovieRating]{
		Name: "rating.submit",
		Optimistic: func(c *cache.Cache) cache.Snapshot {
			return c.Patch(key, func(old any, ok bool) (any, bool) {
				list, _ := old.([]model.MovieRating)
				return append(slices.Clone(list), tmp), true
			})
		},
		Call: func(ctx context.Context) (model.MovieRating, error) {
			return s.api.SubmitRating(ctx, in)
		},
		Reconcile: func(c *cache.Cache, saved model.MovieRating) {
			cache.PatchOf(c, key, func(list []model.MovieRating) []model.MovieRating {
				return replaceRating(list, tmp.ID, saved)
			})
		},
		Invalidate: affected(in.MovieID),
	})
}

func (s *RatingServiceImpl) Update(ctx context.Context, r model.MovieRating, upd model.RatingUpdate) (model.MovieRating, error) {
	if upd.Review != nil {
		review := strings.TrimSpace(*upd.Review)
		upd.Review = &review
	}
	if upd.Tags != nil {
		tags := NormalizeTags(*upd.Tags)
		upd.Tags = &tags
	}
	if err := ValidateRatingUpdate(upd); err != nil {
		return model.MovieRating{}, err
	}
	next := upd.Apply(r)
	next.UpdatedAt = s.now()
	key := ratingsKey(r.MovieID)

	return cache.Mutate(ctx, s.cache, cache.Mutation[model.MovieRating]{
		Name: "rating.update",
		Optimistic: func(c *cache.Cache) cache.Snapshot {
			return cache.PatchOf(c, key, func(list []model.MovieRating) []model.MovieRating {
				return replaceRating(list, r.ID, next)
			})
		},
		Call: func(ctx context.Context) (model.MovieRating, error) {
			return s.api.UpdateRating(ctx, r.ID, upd)
		},
		Reconcile: func(c *cache.Cache, saved model.MovieRating) {
			cache.PatchOf(c, key, func(list []model.MovieRating) []model.MovieRating {
				return replaceRating(list, r.ID, saved)
			})
		},
		Invalidate: affected(r.MovieID),
	})
}

func (s *RatingServiceImpl) Delete(ctx context.Context, r model.MovieRating) error {
	key := ratingsKey(r.MovieID)
	_, err := cache.Mutate(ctx, s.cache, cache.Mutation[string]{
		Name: "rating.delete",
		Optimistic: func(c *cache.Cache) cache.Snapshot {
			return cache.PatchOf(c, key, func(list []model.MovieRating) []model.MovieRating {
				return slices.DeleteFunc(slices.Clone(list), func(x model.MovieRating) bool { return x.ID == r.ID })
			})
		},
		Call: func(ctx context.Context) (string, error) {
			return s.api.DeleteRating(ctx, r.ID)
		},
		Invalidate: affected(r.MovieID),
	})
	return err
}
