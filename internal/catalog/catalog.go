// Package catalog holds the client view of content items and the helpers
// that filter a loaded catalog snapshot.
package catalog

import (
	"strings"
	"time"

	"afriotv/internal/live"
)

const (
	TypeMovie = "movie"
	TypeTV    = "tv"

	// RelatedLimit caps related and similar rows.
	RelatedLimit = 10
)

// Item is a content document.
type Item struct {
	Title       string    `json:"title" toml:"title" validate:"required,max=200"`
	Type        string    `json:"type" toml:"type" validate:"required,oneof=movie tv"`
	Description string    `json:"description" toml:"description" validate:"required"`
	PosterPath  string    `json:"poster_path" toml:"poster_path" validate:"omitempty,url"`
	CoverPath   string    `json:"cover_path" toml:"cover_path" validate:"omitempty,url"`
	Genres      []string  `json:"genres" toml:"genres" validate:"min=1,dive,required"`
	Rating      float64   `json:"rating" toml:"rating" validate:"gte=0,lte=10"`
	Duration    string    `json:"duration" toml:"duration"`
	Cast        []string  `json:"cast" toml:"cast" validate:"dive,required"`
	ReleaseYear int       `json:"release_year" toml:"release_year" validate:"gte=1888,lte=2100"`
	IsTrending  bool      `json:"is_trending" toml:"is_trending"`
	CreatedAt   time.Time `json:"created_at" toml:"-"`
}

// Find returns the item with id.
func Find(items []live.Doc[Item], id string) (live.Doc[Item], bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return live.Doc[Item]{}, false
}

// Search keeps items whose title, description, genres or cast contain q,
// ignoring case. An empty query matches nothing.
func Search(items []live.Doc[Item], q string) []live.Doc[Item] {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil
	}
	var out []live.Doc[Item]
	for _, it := range items {
		if matches(it.Data, q) {
			out = append(out, it)
		}
	}
	return out
}

func matches(it Item, q string) bool {
	if strings.Contains(strings.ToLower(it.Title), q) || strings.Contains(strings.ToLower(it.Description), q) {
		return true
	}
	for _, g := range it.Genres {
		if strings.Contains(strings.ToLower(g), q) {
			return true
		}
	}
	for _, c := range it.Cast {
		if strings.Contains(strings.ToLower(c), q) {
			return true
		}
	}
	return false
}

// Related returns up to limit items sharing a genre with the item id,
// excluding the item itself.
func Related(items []live.Doc[Item], id string, limit int) []live.Doc[Item] {
	self, ok := Find(items, id)
	if !ok {
		return nil
	}
	genres := make(map[string]bool, len(self.Data.Genres))
	for _, g := range self.Data.Genres {
		genres[g] = true
	}

	var out []live.Doc[Item]
	for _, it := range items {
		if it.ID == id {
			continue
		}
		for _, g := range it.Data.Genres {
			if genres[g] {
				out = append(out, it)
				break
			}
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Filter selects home-page rows.
type Filter struct {
	Type     string
	Genre    string
	Trending bool
}

func (f Filter) Apply(items []live.Doc[Item]) []live.Doc[Item] {
	var out []live.Doc[Item]
	for _, it := range items {
		if f.Type != "" && it.Data.Type != f.Type {
			continue
		}
		if f.Trending && !it.Data.IsTrending {
			continue
		}
		if f.Genre != "" && !hasGenre(it.Data, f.Genre) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func hasGenre(it Item, genre string) bool {
	for _, g := range it.Genres {
		if strings.EqualFold(g, genre) {
			return true
		}
	}
	return false
}
