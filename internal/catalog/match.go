package catalog

import (
	"strings"

	"afriotv/internal/live"
)

type MatchOptions struct {
	// ExcludeID drops the item the suggestions were generated for.
	ExcludeID string
	// Limit caps the result; zero means no cap.
	Limit int
}

// MatchTitles resolves suggested titles against the catalog by
// case-insensitive exact title. Results follow the suggestion order.
// Suggestions are not deduplicated, so a repeated title yields the item
// twice; titles with no catalog entry are dropped.
func MatchTitles(items []live.Doc[Item], titles []string, opts MatchOptions) []live.Doc[Item] {
	var out []live.Doc[Item]
	for _, t := range titles {
		it, ok := findTitle(items, t, opts.ExcludeID)
		if !ok {
			continue
		}
		out = append(out, it)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out
}

// findTitle returns the first item titled t, skipping excludeID.
func findTitle(items []live.Doc[Item], t, excludeID string) (live.Doc[Item], bool) {
	for _, it := range items {
		if it.ID == excludeID && excludeID != "" {
			continue
		}
		if strings.EqualFold(it.Data.Title, t) {
			return it, true
		}
	}
	return live.Doc[Item]{}, false
}

// NoMatches is shown when suggestions came back but none is in the catalog.
const NoMatches = "We got recommendations, but couldn't find them in our current catalog. Try being more specific!"

// RecommendationMessage turns a recommendation failure into the text shown
// to the user.
func RecommendationMessage(err error) string {
	if err == nil {
		return ""
	}
	if strings.Contains(err.Error(), "429") {
		return "Too many requests. Please wait a minute and try again."
	}
	return "Could not fetch recommendations."
}
