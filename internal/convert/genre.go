package convert

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/and161185/movie-mate/internal/model"
)

// BackendGenre is a genre as listed by the movie service: either a bare name or an {id, name} object.
type BackendGenre struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (g *BackendGenre) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var name string
		if err := json.Unmarshal(b, &name); err != nil {
			return err
		}
		*g = BackendGenre{Name: name}
		return nil
	}
	type plain BackendGenre
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*g = BackendGenre(p)
	return nil
}

// FromBackendGenres maps genres, deriving missing ids from names and dropping nameless entries.
func FromBackendGenres(in []BackendGenre) []model.Genre {
	out := make([]model.Genre, 0, len(in))
	for _, g := range in {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			continue
		}
		id := g.ID
		if id == "" {
			id = model.GenreSlug(name)
		}
		out = append(out, model.Genre{ID: id, Name: name})
	}
	return out
}
