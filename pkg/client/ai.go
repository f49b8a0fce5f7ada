package client

import (
	"context"

	"afriotv/internal/genai"
)

// Recommend suggests titles from a viewing history. The result is free
// text; match it against the catalog with catalog.MatchTitles.
func (c *Client) Recommend(ctx context.Context, in genai.RecommendationsInput) (*genai.Output, error) {
	var out genai.Output
	if err := c.do(ctx, "POST", "/api/ai/recommendations", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Similar(ctx context.Context, in genai.SimilarInput) (*genai.Output, error) {
	var out genai.Output
	if err := c.do(ctx, "POST", "/api/ai/similar", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
