package client

import (
	"context"
	"strings"
)

// Create adds a document to collectionPath and returns its id. REST routes
// mirror document paths, so this works for every writable collection.
func (c *Client) Create(ctx context.Context, collectionPath string, data any) (string, error) {
	var res struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, "POST", "/api/"+strings.Trim(collectionPath, "/"), data, &res); err != nil {
		return "", err
	}
	return res.ID, nil
}

func (c *Client) Delete(ctx context.Context, docPath string) error {
	return c.do(ctx, "DELETE", "/api/"+strings.Trim(docPath, "/"), nil, nil)
}
