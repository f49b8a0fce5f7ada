package reviews

import "afriotv/internal/live"

type Summary struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// Average is the arithmetic mean of the ratings, or fallback when there are
// none.
func Average(reviews []live.Doc[Review], fallback float64) float64 {
	if len(reviews) == 0 {
		return fallback
	}
	total := 0
	for _, r := range reviews {
		total += r.Data.Rating
	}
	return float64(total) / float64(len(reviews))
}

func Summarize(reviews []live.Doc[Review], fallback float64) Summary {
	return Summary{Count: len(reviews), Average: Average(reviews, fallback)}
}
