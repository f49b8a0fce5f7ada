package client

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"afriotv/internal/catalog"
	"afriotv/internal/live"
	"afriotv/internal/reviews"
	"afriotv/internal/watchlist"
)

// ListOptions filter the catalog listing.
type ListOptions struct {
	Type     string
	Genre    string
	Trending bool
	Limit    int
}

func (o ListOptions) query() string {
	q := url.Values{}
	if o.Type != "" {
		q.Set("type", o.Type)
	}
	if o.Genre != "" {
		q.Set("genre", o.Genre)
	}
	if o.Trending {
		q.Set("trending", "true")
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// contentRow is a catalog item as served by the REST routes.
type contentRow struct {
	ID string `json:"id"`
	catalog.Item
}

func (r contentRow) doc() live.Doc[catalog.Item] {
	return live.Doc[catalog.Item]{ID: r.ID, Data: r.Item}
}

type contentList struct {
	Data []contentRow `json:"data"`
}

func (l contentList) docs() []live.Doc[catalog.Item] {
	out := make([]live.Doc[catalog.Item], 0, len(l.Data))
	for _, r := range l.Data {
		out = append(out, r.doc())
	}
	return out
}

func (c *Client) ListContent(ctx context.Context, opts ListOptions) ([]live.Doc[catalog.Item], error) {
	var res contentList
	if err := c.do(ctx, "GET", "/api/content"+opts.query(), nil, &res); err != nil {
		return nil, err
	}
	return res.docs(), nil
}

// SearchContent matches q against titles, descriptions, genres and cast.
func (c *Client) SearchContent(ctx context.Context, q string) ([]live.Doc[catalog.Item], error) {
	var res contentList
	if err := c.do(ctx, "GET", "/api/content/search?"+url.Values{"q": {q}}.Encode(), nil, &res); err != nil {
		return nil, err
	}
	return res.docs(), nil
}

func (c *Client) GetContent(ctx context.Context, id string) (live.Doc[catalog.Item], error) {
	var row contentRow
	if err := c.do(ctx, "GET", "/api/content/"+url.PathEscape(id), nil, &row); err != nil {
		return live.Doc[catalog.Item]{}, err
	}
	return row.doc(), nil
}

func (c *Client) RelatedContent(ctx context.Context, id string) ([]live.Doc[catalog.Item], error) {
	var res contentList
	if err := c.do(ctx, "GET", "/api/content/"+url.PathEscape(id)+"/related", nil, &res); err != nil {
		return nil, err
	}
	return res.docs(), nil
}

// Player is the watch view of an item and what to show next to it.
type Player struct {
	Content live.Doc[catalog.Item]
	Related []live.Doc[catalog.Item]
}

func (c *Client) Player(ctx context.Context, id string) (*Player, error) {
	var res struct {
		Content contentRow   `json:"content"`
		Related []contentRow `json:"related"`
	}
	if err := c.do(ctx, "GET", "/api/content/"+url.PathEscape(id)+"/play", nil, &res); err != nil {
		return nil, err
	}
	return &Player{
		Content: res.Content.doc(),
		Related: contentList{Data: res.Related}.docs(),
	}, nil
}

// CreateContent adds a catalog item. Only admins may.
func (c *Client) CreateContent(ctx context.Context, it catalog.Item) (live.Doc[catalog.Item], error) {
	var row contentRow
	if err := c.do(ctx, "POST", "/api/content", it, &row); err != nil {
		return live.Doc[catalog.Item]{}, err
	}
	return row.doc(), nil
}

// ReviewList is a one-shot read of an item's reviews.
type ReviewList struct {
	Reviews []live.Doc[reviews.Review]
	Summary reviews.Summary
}

func (c *Client) ListReviews(ctx context.Context, contentID string) (*ReviewList, error) {
	var res struct {
		Data []struct {
			ID string `json:"id"`
			reviews.Review
		} `json:"data"`
		Summary reviews.Summary `json:"summary"`
	}
	if err := c.do(ctx, "GET", "/api/content/"+url.PathEscape(contentID)+"/reviews", nil, &res); err != nil {
		return nil, err
	}
	out := &ReviewList{Summary: res.Summary, Reviews: make([]live.Doc[reviews.Review], 0, len(res.Data))}
	for _, r := range res.Data {
		out.Reviews = append(out.Reviews, live.Doc[reviews.Review]{ID: r.ID, Data: r.Review})
	}
	return out, nil
}

// ListWatchlist is a one-shot read of uid's watchlist.
func (c *Client) ListWatchlist(ctx context.Context, uid string) ([]live.Doc[watchlist.Entry], error) {
	var res struct {
		Data []struct {
			ID string `json:"id"`
			watchlist.Entry
		} `json:"data"`
	}
	if err := c.do(ctx, "GET", "/api/users/"+url.PathEscape(uid)+"/watchlist", nil, &res); err != nil {
		return nil, err
	}
	out := make([]live.Doc[watchlist.Entry], 0, len(res.Data))
	for _, e := range res.Data {
		out = append(out, live.Doc[watchlist.Entry]{ID: e.ID, Data: e.Entry})
	}
	return out, nil
}

// ProfileUpdate merges into the profile; nil fields are kept.
type ProfileUpdate struct {
	DisplayName *string `json:"display_name,omitempty"`
	PhotoURL    *string `json:"photo_url,omitempty"`
}

func (c *Client) GetProfile(ctx context.Context, uid string) (*User, error) {
	var u User
	if err := c.do(ctx, "GET", "/api/users/"+url.PathEscape(uid), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateProfile(ctx context.Context, uid string, upd ProfileUpdate) (*User, error) {
	var u User
	if err := c.do(ctx, "PATCH", "/api/users/"+url.PathEscape(uid), upd, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
