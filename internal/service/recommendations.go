package service

import (
	"context"

	"github.com/and161185/movie-mate/internal/api"
	"github.com/and161185/movie-mate/internal/cache"
	"github.com/and161185/movie-mate/internal/model"
)

// RecommendationService reads the personalised feed.
type RecommendationService interface {
	// Feed returns an empty feed without a request for an empty user id.
	Feed(ctx context.Context, userID string) (model.Recommendations, error)
}

type RecommendationServiceImpl struct {
	api   api.RecommendationAPI
	cache *cache.Cache
}

var _ RecommendationService = (*RecommendationServiceImpl)(nil)

func NewRecommendationService(a api.RecommendationAPI, c *cache.Cache) *RecommendationServiceImpl {
	return &RecommendationServiceImpl{api: a, cache: c}
}

func (s *RecommendationServiceImpl) Feed(ctx context.Context, userID string) (model.Recommendations, error) {
	if userID == "" {
		return model.Recommendations{Recommended: []model.RecommendedItem{}}, nil
	}
	return cache.Query(ctx, s.cache, recommendationsKey(userID), func(ctx context.Context) (model.Recommendations, error) {
		return s.api.GetRecommendations(ctx, userID)
	})
}
