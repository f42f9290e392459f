package live

import (
	"context"
	"net/http"
	"net/url"

	"github.com/and161185/movie-mate/internal/api"
	"github.com/and161185/movie-mate/internal/convert"
	"github.com/and161185/movie-mate/internal/model"
	"github.com/and161185/movie-mate/internal/transport"
)

// RecommendationClient calls the recommendation service.
type RecommendationClient struct {
	base string
	c    transport.Caller
}

var _ api.RecommendationAPI = (*RecommendationClient)(nil)

func NewRecommendations(base string, c transport.Caller) *RecommendationClient {
	return &RecommendationClient{base: base, c: c}
}

func (r *RecommendationClient) GetRecommendations(ctx context.Context, userID string) (model.Recommendations, error) {
	if userID == "" {
		return model.Recommendations{Recommended: []model.RecommendedItem{}}, nil
	}
	q := url.Values{"detailed": {"true"}}
	out, err := call[convert.BackendRecommendations](ctx, r.c, serviceRecommendation, http.MethodGet,
		endpoint(r.base, q, "recommend", userID), nil)
	if err != nil {
		return model.Recommendations{}, err
	}
	recs := convert.FromBackendRecommendations(out)
	if recs.UserID == "" {
		recs.UserID = userID
	}
	return recs, nil
}
