package model

import (
	"fmt"
	"math"
)

// Activity types explaining why a movie was recommended.
const (
	ActivityWatchlisted = "WATCHLISTED"
	ActivityRated       = "RATED"
)

// RecommendationExplanation links a recommendation to a seed movie from the user's activity.
type RecommendationExplanation struct {
	SeedMovieID    string  `json:"seedMovieId"`
	SeedMovieTitle string  `json:"seedMovieTitle"`
	Similarity     float64 `json:"similarity"`
	ActivityType   string  `json:"activityType"`
}

// RecommendedItem is one entry of the feed; Score is in [0, 1].
type RecommendedItem struct {
	Movie        Movie                       `json:"movie"`
	Score        float64                     `json:"score"`
	Explanations []RecommendationExplanation `json:"explanations"`
}

// IsFallback reports whether the entry comes from the top-movies fallback list.
// A zero score is a sentinel, not a 0% match.
func (r RecommendedItem) IsFallback() bool { return r.Score == 0 }

// MatchLabel renders the score for display.
func (r RecommendedItem) MatchLabel() string {
	if r.IsFallback() {
		return "Top pick"
	}
	return fmt.Sprintf("%d%% match", int(math.Round(r.Score*100)))
}

// Recommendations is the personalised feed of a user.
type Recommendations struct {
	UserID      string            `json:"userId"`
	Recommended []RecommendedItem `json:"recommended"`
}

// Personalized reports whether at least one entry is a real match.
func (r Recommendations) Personalized() bool {
	for _, it := range r.Recommended {
		if !it.IsFallback() {
			return true
		}
	}
	return false
}
