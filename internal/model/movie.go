package model

import (
	"regexp"
	"strings"
	"time"
)

// Genre is a catalog genre with a URL-safe id.
type Genre struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var spaces = regexp.MustCompile(`\s+`)

// GenreSlug turns a display name into a genre id: "Science Fiction" -> "science-fiction".
func GenreSlug(name string) string {
	return spaces.ReplaceAllString(strings.ToLower(name), "-")
}

// GenreFromName builds a Genre whose id is derived from its name.
func GenreFromName(name string) Genre { return Genre{ID: GenreSlug(name), Name: name} }

// Person is a director or cast member.
type Person struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// FullName joins first and last name.
func (p Person) FullName() string { return strings.TrimSpace(p.FirstName + " " + p.LastName) }

// RatingSummary aggregates audience ratings of a movie.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Review is an embedded audience review on a detailed movie.
type Review struct {
	User        string `json:"user"`
	Comment     string `json:"comment"`
	Rating      int    `json:"rating"`
	DateCreated string `json:"dateCreated"`
}

// DetailedMovie is the full catalog entry.
type DetailedMovie struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Genres      []Genre       `json:"genres"`
	Director    Person        `json:"director"`
	Casts       []Person      `json:"casts"`
	Synopsis    string        `json:"synopsis"`
	ReleaseDate time.Time     `json:"releaseDate"`
	Language    string        `json:"language"`
	Rating      RatingSummary `json:"rating"`
	Reviews     []Review      `json:"reviews"`
	PosterURL   *string       `json:"posterUrl"`
}

// ReleaseYear returns the year of release or 0 when unknown.
func (m DetailedMovie) ReleaseYear() int {
	if m.ReleaseDate.IsZero() {
		return 0
	}
	return m.ReleaseDate.Year()
}

// HasGenre reports whether the movie is tagged with genre id.
func (m DetailedMovie) HasGenre(id string) bool {
	for _, g := range m.Genres {
		if g.ID == id {
			return true
		}
	}
	return false
}

// Light projects the movie onto the list/recommendation shape.
func (m DetailedMovie) Light() Movie {
	names := make([]string, 0, len(m.Genres))
	for _, g := range m.Genres {
		names = append(names, g.Name)
	}
	avg := m.Rating.Average
	return Movie{
		ID:          m.ID,
		Title:       m.Title,
		Genres:      names,
		ReleaseYear: m.ReleaseYear(),
		Rating:      &avg,
		PosterURL:   m.PosterURL,
	}
}

// Movie is the lightweight shape used in lists and recommendations.
type Movie struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Genres      []string `json:"genres"`
	ReleaseYear int      `json:"releaseYear"`
	Rating      *float64 `json:"rating"`
	PosterURL   *string  `json:"posterUrl"`
}
