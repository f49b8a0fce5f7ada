package catalog

import (
	"errors"
	"testing"

	"afriotv/internal/live"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []live.Doc[Item] {
	return []live.Doc[Item]{
		{ID: "1", Data: Item{Title: "The Matrix", Type: TypeMovie, Genres: []string{"Sci-Fi", "Action"}, Cast: []string{"Keanu Reeves"}, IsTrending: true}},
		{ID: "2", Data: Item{Title: "Blade Runner 2049", Type: TypeMovie, Genres: []string{"Sci-Fi"}, Description: "A young blade runner's discovery"}},
		{ID: "3", Data: Item{Title: "Stranger Things", Type: TypeTV, Genres: []string{"Horror", "Sci-Fi"}, IsTrending: true}},
		{ID: "4", Data: Item{Title: "Queen Sono", Type: TypeTV, Genres: []string{"Thriller"}, Cast: []string{"Pearl Thusi"}}},
	}
}

func ids(docs []live.Doc[Item]) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func TestMatchTitles_CaseInsensitiveInOrder(t *testing.T) {
	got := MatchTitles(sample(), []string{"stranger things", "Unknown Film", "THE MATRIX"}, MatchOptions{})
	assert.Equal(t, []string{"3", "1"}, ids(got))
}

func TestMatchTitles_DuplicatesAreKept(t *testing.T) {
	got := MatchTitles(sample(), []string{"The Matrix", "the matrix"}, MatchOptions{})
	assert.Equal(t, []string{"1", "1"}, ids(got))
}

func TestMatchTitles_ExcludeAndLimit(t *testing.T) {
	titles := []string{"The Matrix", "Blade Runner 2049", "Stranger Things", "Queen Sono"}

	got := MatchTitles(sample(), titles, MatchOptions{ExcludeID: "1", Limit: 2})
	assert.Equal(t, []string{"2", "3"}, ids(got))
}

func TestMatchTitles_ExcludedItemDoesNotHideTwin(t *testing.T) {
	items := append(sample(), live.Doc[Item]{ID: "5", Data: Item{Title: "The Matrix"}})

	got := MatchTitles(items, []string{"The Matrix"}, MatchOptions{ExcludeID: "1"})
	assert.Equal(t, []string{"5"}, ids(got))
}

func TestSearch(t *testing.T) {
	items := sample()

	assert.Equal(t, []string{"1", "2", "3"}, ids(Search(items, "sci-fi")))
	assert.Equal(t, []string{"4"}, ids(Search(items, "pearl")))
	assert.Equal(t, []string{"2"}, ids(Search(items, "DISCOVERY")))
	assert.Empty(t, Search(items, "   "))
}

func TestRelated(t *testing.T) {
	items := sample()

	assert.Equal(t, []string{"2", "3"}, ids(Related(items, "1", RelatedLimit)))
	assert.Equal(t, []string{"2"}, ids(Related(items, "1", 1)))
	assert.Empty(t, Related(items, "4", RelatedLimit))
	assert.Nil(t, Related(items, "missing", RelatedLimit))
}

func TestFilter(t *testing.T) {
	items := sample()

	assert.Equal(t, []string{"3", "4"}, ids(Filter{Type: TypeTV}.Apply(items)))
	assert.Equal(t, []string{"1", "3"}, ids(Filter{Trending: true}.Apply(items)))
	assert.Equal(t, []string{"3"}, ids(Filter{Genre: "horror"}.Apply(items)))
}

func TestFind(t *testing.T) {
	it, ok := Find(sample(), "2")
	require.True(t, ok)
	assert.Equal(t, "Blade Runner 2049", it.Data.Title)

	_, ok = Find(sample(), "404")
	assert.False(t, ok)
}

func TestRecommendationMessage(t *testing.T) {
	assert.Equal(t, "", RecommendationMessage(nil))
	assert.Equal(t, "Too many requests. Please wait a minute and try again.",
		RecommendationMessage(errors.New("api error 429: rate limited")))
	assert.Equal(t, "Could not fetch recommendations.", RecommendationMessage(errors.New("timeout")))
}

func TestValidate(t *testing.T) {
	good := Item{
		Title:       "Queen Sono",
		Type:        TypeTV,
		Description: "A spy series",
		Genres:      []string{"Thriller"},
		Rating:      7.1,
		ReleaseYear: 2020,
	}
	assert.NoError(t, Validate(good))

	bad := good
	bad.Type = "podcast"
	bad.Rating = 11
	err := Validate(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type failed oneof")
	assert.Contains(t, err.Error(), "rating failed lte")

	bad = good
	bad.Genres = nil
	assert.Error(t, Validate(bad))
}
