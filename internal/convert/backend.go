package convert

import (
	"math"
	"strings"

	"github.com/and161185/movie-mate/internal/model"
)

// --- backend wire shapes ---

// BackendMovie is a catalog entry as stored by the movie service.
type BackendMovie struct {
	MongoID     *ObjectID            `json:"_id,omitempty"`
	ID          *ObjectID            `json:"id,omitempty"`
	Title       string               `json:"title"`
	Genres      []string             `json:"genres"`
	Director    *model.Person        `json:"director,omitempty"`
	Casts       []model.Person       `json:"casts"`
	Synopsis    string               `json:"synopsis"`
	Timestamp   *MongoDate           `json:"timestamp,omitempty"`
	ReleaseDate *MongoDate           `json:"releaseDate,omitempty"`
	Language    string               `json:"language"`
	Rating      *model.RatingSummary `json:"rating,omitempty"`
	Reviews     []model.Review       `json:"reviews"`
	PosterURL   *string              `json:"posterUrl,omitempty"`
}

// BackendLightMovie is the movie shape embedded in recommendations.
type BackendLightMovie struct {
	MongoID     *ObjectID `json:"_id,omitempty"`
	ID          *ObjectID `json:"id,omitempty"`
	Title       string    `json:"title"`
	Genres      []string  `json:"genres"`
	ReleaseYear int       `json:"releaseYear"`
	Rating      *float64  `json:"rating,omitempty"`
	PosterURL   *string   `json:"posterUrl,omitempty"`
}

// BackendPage is the paginated envelope shared by the movie and activity services.
type BackendPage[T any] struct {
	PageNo        *int  `json:"pageNo,omitempty"`
	PageSize      *int  `json:"pageSize,omitempty"`
	TotalElements *int  `json:"totalElements,omitempty"`
	TotalPages    *int  `json:"totalPages,omitempty"`
	IsLast        *bool `json:"isLast,omitempty"`
	Elements      []T   `json:"elements"`
}

// BackendWatchlist is a watchlist as stored by the activity service.
type BackendWatchlist struct {
	MongoID     *ObjectID  `json:"_id,omitempty"`
	ID          *ObjectID  `json:"id,omitempty"`
	Name        string     `json:"name"`
	Username    string     `json:"username"`
	MoviesID    []ObjectID `json:"movies_id"`
	UpdatedDate *MongoDate `json:"updated_date,omitempty"`
}

// BackendMovieRating is a rating as stored by the activity service.
type BackendMovieRating struct {
	MongoID    *ObjectID  `json:"_id,omitempty"`
	ID         *ObjectID  `json:"id,omitempty"`
	MovieID    *ObjectID  `json:"movie_id,omitempty"`
	Username   string     `json:"username"`
	Rate       float64    `json:"rate"`
	ReviewText *string    `json:"review_text,omitempty"`
	Review     *string    `json:"review,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Timestamp  *MongoDate `json:"timestamp,omitempty"`
	CreatedAt  *MongoDate `json:"created_at,omitempty"`
	UpdateDate *MongoDate `json:"update_date,omitempty"`
	UpdatedAt  *MongoDate `json:"updated_at,omitempty"`
}

// BackendUserDetails is the profile returned by the auth service; id is numeric there.
type BackendUserDetails struct {
	ID        *ObjectID `json:"id,omitempty"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  *string   `json:"fullName"`
	Enabled   bool      `json:"enabled"`
	NotBanned bool      `json:"notBanned"`
	Roles     []string  `json:"roles"`
}

// BackendAuthResponse is the login/register response.
type BackendAuthResponse struct {
	UserDetails  BackendUserDetails `json:"userDetails"`
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
}

// BackendRecommendedItem is one feed entry.
type BackendRecommendedItem struct {
	Movie        BackendLightMovie                 `json:"movie"`
	Score        float64                           `json:"score"`
	Explanations []model.RecommendationExplanation `json:"explanations"`
}

// BackendRecommendations is the recommendation service response.
type BackendRecommendations struct {
	UserID      *ObjectID                `json:"userId,omitempty"`
	Recommended []BackendRecommendedItem `json:"recommended"`
}

// --- backend -> domain ---

func emptyIfNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func posterURL(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	v := *p
	return &v
}

// FromBackendMovie maps a backend movie; every absent field gets a defined fallback.
func FromBackendMovie(in BackendMovie) model.DetailedMovie {
	genres := make([]model.Genre, 0, len(in.Genres))
	for _, g := range in.Genres {
		genres = append(genres, model.GenreFromName(g))
	}
	var director model.Person
	if in.Director != nil {
		director = *in.Director
	}
	var rating model.RatingSummary
	if in.Rating != nil {
		rating = *in.Rating
	}
	return model.DetailedMovie{
		ID:          ID(in.MongoID, in.ID),
		Title:       in.Title,
		Genres:      genres,
		Director:    director,
		Casts:       append([]model.Person{}, in.Casts...),
		Synopsis:    in.Synopsis,
		ReleaseDate: Time(in.Timestamp, in.ReleaseDate),
		Language:    in.Language,
		Rating:      rating,
		Reviews:     append([]model.Review{}, in.Reviews...),
		PosterURL:   posterURL(in.PosterURL),
	}
}

// FromBackendMovies maps a list, nil in gives empty out.
func FromBackendMovies(in []BackendMovie) []model.DetailedMovie {
	out := make([]model.DetailedMovie, 0, len(in))
	for _, m := range in {
		out = append(out, FromBackendMovie(m))
	}
	return out
}

// FromBackendPage maps a paginated envelope and recomputes its counters.
func FromBackendPage[B, T any](in BackendPage[B], fn func(B) T) model.Page[T] {
	out := make([]T, 0, len(in.Elements))
	for _, e := range in.Elements {
		out = append(out, fn(e))
	}
	pageNo := 1
	if in.PageNo != nil {
		pageNo = *in.PageNo
	}
	size := model.DefaultPageSize
	if in.PageSize != nil && *in.PageSize > 0 {
		size = *in.PageSize
	}
	total := len(in.Elements)
	if in.TotalElements != nil {
		total = *in.TotalElements
	}
	return model.NewPage(out, pageNo, size, total)
}

// FromBackendMoviePage maps a paginated movie list.
func FromBackendMoviePage(in BackendPage[BackendMovie]) model.Page[model.DetailedMovie] {
	return FromBackendPage(in, FromBackendMovie)
}

func idValues(in []ObjectID) []string {
	out := make([]string, 0, len(in))
	for _, id := range in {
		out = append(out, id.Value)
	}
	return out
}

func objectIDs(ids []string, wrapped bool) []ObjectID {
	out := make([]ObjectID, 0, len(ids))
	for _, id := range ids {
		out = append(out, ObjectID{Value: id, Wrapped: wrapped})
	}
	return out
}

// FromBackendWatchlist maps a watchlist; movie ids are deduplicated.
func FromBackendWatchlist(in BackendWatchlist) model.Watchlist {
	return model.Watchlist{
		ID:          ID(in.MongoID, in.ID),
		Name:        in.Name,
		Username:    in.Username,
		MoviesID:    model.DedupIDs(idValues(in.MoviesID)),
		UpdatedDate: Time(in.UpdatedDate),
	}
}

// FromBackendWatchlistPage maps a paginated watchlist list.
func FromBackendWatchlistPage(in BackendPage[BackendWatchlist]) model.Page[model.Watchlist] {
	return FromBackendPage(in, FromBackendWatchlist)
}

// FromBackendRating maps a rating; review_text wins over review, timestamp over created_at.
func FromBackendRating(in BackendMovieRating) model.MovieRating {
	review := ""
	switch {
	case in.ReviewText != nil:
		review = *in.ReviewText
	case in.Review != nil:
		review = *in.Review
	}
	return model.MovieRating{
		ID:        ID(in.MongoID, in.ID),
		MovieID:   ID(in.MovieID),
		Username:  in.Username,
		Rate:      int(math.Round(in.Rate)),
		Review:    review,
		Tags:      append([]string{}, in.Tags...),
		CreatedAt: Time(in.Timestamp, in.CreatedAt),
		UpdatedAt: Time(in.UpdateDate, in.UpdatedAt),
	}
}

// FromBackendRatings maps a list.
func FromBackendRatings(in []BackendMovieRating) []model.MovieRating {
	out := make([]model.MovieRating, 0, len(in))
	for _, r := range in {
		out = append(out, FromBackendRating(r))
	}
	return out
}

// FromBackendUser maps the profile.
func FromBackendUser(in BackendUserDetails) model.UserProfile {
	return model.UserProfile{
		ID:        ID(in.ID),
		Username:  in.Username,
		Email:     in.Email,
		Roles:     append([]string{}, in.Roles...),
		FullName:  in.FullName,
		Enabled:   in.Enabled,
		NotBanned: in.NotBanned,
	}
}

// FromBackendAuth maps a login/register response.
func FromBackendAuth(in BackendAuthResponse) model.AuthResponse {
	return model.AuthResponse{
		User:         FromBackendUser(in.UserDetails),
		AccessToken:  in.AccessToken,
		RefreshToken: in.RefreshToken,
	}
}

// FromBackendLightMovie maps the embedded movie of a recommendation.
func FromBackendLightMovie(in BackendLightMovie) model.Movie {
	return model.Movie{
		ID:          ID(in.MongoID, in.ID),
		Title:       in.Title,
		Genres:      emptyIfNil(append([]string(nil), in.Genres...)),
		ReleaseYear: in.ReleaseYear,
		Rating:      in.Rating,
		PosterURL:   posterURL(in.PosterURL),
	}
}

// FromBackendRecommendations maps the feed; scores are clamped to [0, 1].
func FromBackendRecommendations(in BackendRecommendations) model.Recommendations {
	items := make([]model.RecommendedItem, 0, len(in.Recommended))
	for _, it := range in.Recommended {
		items = append(items, model.RecommendedItem{
			Movie:        FromBackendLightMovie(it.Movie),
			Score:        math.Min(1, math.Max(0, it.Score)),
			Explanations: append([]model.RecommendationExplanation{}, it.Explanations...),
		})
	}
	return model.Recommendations{UserID: ID(in.UserID), Recommended: items}
}

// --- domain -> backend ---

// ToBackendMovie encodes a movie; wrapped selects the Mongo extended form for ids and dates.
func ToBackendMovie(m model.DetailedMovie, wrapped bool) BackendMovie {
	genres := make([]string, 0, len(m.Genres))
	for _, g := range m.Genres {
		genres = append(genres, g.Name)
	}
	dir := m.Director
	rating := m.Rating
	out := BackendMovie{
		Title:     m.Title,
		Genres:    genres,
		Director:  &dir,
		Casts:     emptyIfNil(m.Casts),
		Synopsis:  m.Synopsis,
		Language:  m.Language,
		Rating:    &rating,
		Reviews:   emptyIfNil(m.Reviews),
		PosterURL: m.PosterURL,
	}
	if wrapped {
		out.MongoID = Oid(m.ID)
	} else {
		out.ID = PlainID(m.ID)
	}
	if !m.ReleaseDate.IsZero() {
		out.ReleaseDate = &MongoDate{Time: m.ReleaseDate, Wrapped: wrapped}
	}
	return out
}

// ToBackendMovies encodes a list.
func ToBackendMovies(in []model.DetailedMovie, wrapped bool) []BackendMovie {
	out := make([]BackendMovie, 0, len(in))
	for _, m := range in {
		out = append(out, ToBackendMovie(m, wrapped))
	}
	return out
}

// ToBackendPage encodes a page.
func ToBackendPage[T, B any](p model.Page[T], fn func(T) B) BackendPage[B] {
	out := make([]B, 0, len(p.Elements))
	for _, e := range p.Elements {
		out = append(out, fn(e))
	}
	pageNo, size, total, pages, last := p.PageNo, p.PageSize, p.TotalElements, p.TotalPages, p.IsLast
	return BackendPage[B]{
		PageNo:        &pageNo,
		PageSize:      &size,
		TotalElements: &total,
		TotalPages:    &pages,
		IsLast:        &last,
		Elements:      out,
	}
}

// ToBackendWatchlist encodes a watchlist.
func ToBackendWatchlist(w model.Watchlist, wrapped bool) BackendWatchlist {
	out := BackendWatchlist{
		Name:     w.Name,
		Username: w.Username,
		MoviesID: objectIDs(w.MoviesID, wrapped),
	}
	if wrapped {
		out.MongoID = Oid(w.ID)
	} else {
		out.ID = PlainID(w.ID)
	}
	if !w.UpdatedDate.IsZero() {
		out.UpdatedDate = &MongoDate{Time: w.UpdatedDate, Wrapped: wrapped}
	}
	return out
}

// ToBackendRating encodes a rating using the activity service field names.
func ToBackendRating(r model.MovieRating, wrapped bool) BackendMovieRating {
	review := r.Review
	out := BackendMovieRating{
		MovieID:    PlainID(r.MovieID),
		Username:   r.Username,
		Rate:       float64(r.Rate),
		ReviewText: &review,
		Tags:       emptyIfNil(r.Tags),
	}
	if wrapped {
		out.MongoID = Oid(r.ID)
	} else {
		out.ID = PlainID(r.ID)
	}
	if !r.CreatedAt.IsZero() {
		out.Timestamp = &MongoDate{Time: r.CreatedAt, Wrapped: wrapped}
	}
	if !r.UpdatedAt.IsZero() {
		out.UpdateDate = &MongoDate{Time: r.UpdatedAt, Wrapped: wrapped}
	}
	return out
}

// ToBackendUser encodes a profile.
func ToBackendUser(u model.UserProfile) BackendUserDetails {
	return BackendUserDetails{
		ID:        PlainID(u.ID),
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Enabled:   u.Enabled,
		NotBanned: u.NotBanned,
		Roles:     emptyIfNil(u.Roles),
	}
}

// ToBackendRecommendations encodes a feed.
func ToBackendRecommendations(r model.Recommendations) BackendRecommendations {
	items := make([]BackendRecommendedItem, 0, len(r.Recommended))
	for _, it := range r.Recommended {
		items = append(items, BackendRecommendedItem{
			Movie: BackendLightMovie{
				ID:          PlainID(it.Movie.ID),
				Title:       it.Movie.Title,
				Genres:      emptyIfNil(it.Movie.Genres),
				ReleaseYear: it.Movie.ReleaseYear,
				Rating:      it.Movie.Rating,
				PosterURL:   it.Movie.PosterURL,
			},
			Score:        it.Score,
			Explanations: it.Explanations,
		})
	}
	return BackendRecommendations{UserID: PlainID(r.UserID), Recommended: items}
}
