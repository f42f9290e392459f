package mock

import (
	"time"

	"github.com/and161185/movie-mate/internal/model"
)

// Dev account returned by Login and Register.
const (
	DevUserID       = "user123"
	DevUsername     = "devuser"
	DevEmail        = "dev@movie-mate.com"
	AccessToken     = "mock-access-token"
	RefreshToken    = "mock-refresh-token"
	RefreshedAccess = "mock-access-token-refreshed"
	RefreshedToken  = "mock-refresh-token-refreshed"
)

// DevUser is the profile of the dev account.
func DevUser() model.UserProfile {
	return model.UserProfile{
		ID:       DevUserID,
		Username: DevUsername,
		Email:    DevEmail,
		Roles:    []string{model.RoleUser},
	}
}

func genre(id, name string) model.Genre { return model.Genre{ID: id, Name: name} }

func genres() []model.Genre {
	return []model.Genre{
		genre("sci-fi", "Sci-Fi"),
		genre("thriller", "Thriller"),
		genre("action", "Action"),
		genre("animation", "Animation"),
		genre("fantasy", "Fantasy"),
		genre("drama", "Drama"),
		genre("comedy", "Comedy"),
	}
}

func topGenres() []model.Genre {
	return []model.Genre{genre("sci-fi", "Sci-Fi"), genre("drama", "Drama"), genre("thriller", "Thriller")}
}

func day(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

func person(first, last string) model.Person { return model.Person{FirstName: first, LastName: last} }

func movies() []model.DetailedMovie {
	return []model.DetailedMovie{
		{
			ID:          "m1",
			Title:       "Inception",
			Genres:      []model.Genre{genre("sci-fi", "Sci-Fi"), genre("thriller", "Thriller")},
			Director:    person("Christopher", "Nolan"),
			Casts:       []model.Person{person("Leonardo", "DiCaprio"), person("Joseph", "Gordon-Levitt")},
			Synopsis:    "A thief who steals corporate secrets through dream-sharing technology is given the inverse task of planting an idea into the mind of a CEO.",
			ReleaseDate: day("2010-07-16"),
			Language:    "English",
			Rating:      model.RatingSummary{Average: 8.8, Count: 2000},
			Reviews: []model.Review{
				{User: "neo", Comment: "Mind-bending and brilliant!", Rating: 9, DateCreated: "2021-10-01T10:00:00Z"},
				{User: "arjun", Comment: "Nolan at his best. Stunning visuals.", Rating: 10, DateCreated: "2023-06-05T15:30:00Z"},
			},
		},
		{
			ID:          "m2",
			Title:       "The Matrix",
			Genres:      []model.Genre{genre("sci-fi", "Sci-Fi"), genre("action", "Action")},
			Director:    person("Lana", "Wachowski"),
			Casts:       []model.Person{person("Keanu", "Reeves"), person("Carrie-Anne", "Moss")},
			Synopsis:    "A hacker discovers the world is a simulation and joins a rebellion to break free from it.",
			ReleaseDate: day("1999-03-31"),
			Language:    "English",
			Rating:      model.RatingSummary{Average: 8.7, Count: 3000},
			Reviews: []model.Review{
				{User: "trinity", Comment: "A game-changer in science fiction.", Rating: 10, DateCreated: "2022-12-11T08:22:00Z"},
				{User: "morpheus", Comment: "You take the red pill and go down the rabbit hole.", Rating: 9, DateCreated: "2023-02-01T18:45:00Z"},
			},
		},
		{
			ID:          "m3",
			Title:       "Spirited Away",
			Genres:      []model.Genre{genre("animation", "Animation"), genre("fantasy", "Fantasy")},
			Director:    person("Hayao", "Miyazaki"),
			Casts:       []model.Person{},
			Synopsis:    "A young girl enters a magical world ruled by gods, spirits, and a witch.",
			ReleaseDate: day("2001-07-20"),
			Language:    "Japanese",
			Rating:      model.RatingSummary{Average: 8.6, Count: 2500},
			Reviews: []model.Review{
				{User: "haku", Comment: "Beautifully animated and deeply emotional.", Rating: 10, DateCreated: "2021-05-25T14:00:00Z"},
			},
		},
		{
			ID:          "m4",
			Title:       "Parasite",
			Genres:      []model.Genre{genre("drama", "Drama"), genre("thriller", "Thriller")},
			Director:    person("Bong", "Joon-ho"),
			Casts:       []model.Person{person("Song", "Kang-ho"), person("Choi", "Woo-shik")},
			Synopsis:    "A poor family schemes to become employed by a wealthy family by infiltrating their household.",
			ReleaseDate: day("2019-05-30"),
			Language:    "Korean",
			Rating:      model.RatingSummary{Average: 8.6, Count: 1800},
			Reviews: []model.Review{
				{User: "min", Comment: "Masterpiece of class commentary.", Rating: 9, DateCreated: "2022-03-12T12:45:00Z"},
				{User: "sofia", Comment: "Darkly funny and terrifying.", Rating: 9, DateCreated: "2023-01-05T09:30:00Z"},
			},
		},
		{
			ID:          "m5",
			Title:       "The Grand Budapest Hotel",
			Genres:      []model.Genre{genre("comedy", "Comedy"), genre("drama", "Drama")},
			Director:    person("Wes", "Anderson"),
			Casts:       []model.Person{person("Ralph", "Fiennes"), person("Tony", "Revolori")},
			Synopsis:    "A hotel concierge teams up with a lobby boy to prove his innocence after being framed for murder.",
			ReleaseDate: day("2014-03-07"),
			Language:    "English",
			Rating:      model.RatingSummary{Average: 8.1, Count: 1600},
			Reviews: []model.Review{
				{User: "gustave", Comment: "Stylish, whimsical, and full of heart.", Rating: 8, DateCreated: "2021-08-19T20:15:00Z"},
			},
		},
	}
}

func watchlists() []model.Watchlist {
	return []model.Watchlist{
		{ID: "wl1", Name: "Sci-Fi Favorites", Username: DevUsername, MoviesID: []string{"m1", "m2"}, UpdatedDate: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{ID: "wl2", Name: "Must Watch", Username: DevUsername, MoviesID: []string{"m3", "m4"}, UpdatedDate: time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)},
	}
}

func ratings() []model.MovieRating {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return []model.MovieRating{
		{ID: "r1", MovieID: "m1", Username: "neo", Rate: 5, Review: "Mind-bending and brilliant!", Tags: []string{"mind-bending"}, CreatedAt: at, UpdatedAt: at},
		{ID: "r2", MovieID: "m1", Username: "arjun", Rate: 5, Review: "Nolan at his best. Stunning visuals.", Tags: []string{}, CreatedAt: at, UpdatedAt: at},
		{ID: "r3", MovieID: "m4", Username: "min", Rate: 4, Review: "Masterpiece of class commentary.", Tags: []string{"class"}, CreatedAt: at, UpdatedAt: at},
	}
}

func rating(v float64) *float64 { return &v }

func recommendations() []model.RecommendedItem {
	return []model.RecommendedItem{
		{
			Movie: model.Movie{ID: "m1", Title: "Inception", Genres: []string{"Sci-Fi", "Thriller"}, ReleaseYear: 2010, Rating: rating(8.8)},
			Score: 0.97,
			Explanations: []model.RecommendationExplanation{
				{SeedMovieID: "m2", SeedMovieTitle: "The Matrix", Similarity: 0.81, ActivityType: model.ActivityWatchlisted},
			},
		},
		{
			Movie: model.Movie{ID: "m3", Title: "Spirited Away", Genres: []string{"Animation", "Fantasy"}, ReleaseYear: 2001, Rating: rating(8.6)},
			Score: 0.79,
			Explanations: []model.RecommendationExplanation{
				{SeedMovieID: "m4", SeedMovieTitle: "Parasite", Similarity: 0.63, ActivityType: model.ActivityRated},
			},
		},
		{
			Movie:        model.Movie{ID: "m5", Title: "The Grand Budapest Hotel", Genres: []string{"Comedy", "Drama"}, ReleaseYear: 2014, Rating: rating(8.1)},
			Score:        0,
			Explanations: []model.RecommendationExplanation{},
		},
	}
}
