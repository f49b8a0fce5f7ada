package docpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw   string
		kind  Kind
		owner string
		cid   string
		docID string
	}{
		{raw: "content", kind: KindContentCollection},
		{raw: "content/c1", kind: KindContentDoc, cid: "c1", docID: "c1"},
		{raw: "content/c1/reviews", kind: KindReviewCollection, cid: "c1"},
		{raw: "content/c1/reviews/r9", kind: KindReviewDoc, cid: "c1", docID: "r9"},
		{raw: "users/u1", kind: KindUserDoc, owner: "u1", docID: "u1"},
		{raw: "/users/u1/watchlist/", kind: KindWatchlistCollection, owner: "u1"},
		{raw: "users/u1/watchlist/e1", kind: KindWatchlistDoc, owner: "u1", docID: "e1"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			p, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, p.Kind)
			assert.Equal(t, tt.owner, p.Owner)
			assert.Equal(t, tt.cid, p.ContentID)
			assert.Equal(t, tt.docID, p.DocID)
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, raw := range []string{"", "users", "content//reviews", "users/u1/history", "movies/m1", "content/c1/reviews/r1/x"} {
		_, err := Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidPath, raw)
	}
}

func TestBuilders(t *testing.T) {
	assert.Equal(t, "users/u1/watchlist/e1", WatchlistEntry("u1", "e1"))
	assert.Equal(t, "content/c1/reviews", Reviews("c1"))

	p, err := Parse(WatchlistEntry("u1", "e1"))
	require.NoError(t, err)
	assert.Equal(t, Watchlist("u1"), p.Parent())
	assert.True(t, KindWatchlistCollection.IsCollection())
	assert.False(t, p.Kind.IsCollection())
}
