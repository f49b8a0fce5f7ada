package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"afriotv/internal/docstore"
	"afriotv/internal/errbus"
	"afriotv/internal/live"
	"afriotv/internal/live/livetest"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const watchlistPath = "users/5a0c6fb2-7d8e-4a0e-9d49-1d2f3c4b5a6e/watchlist"

type fakeStore struct {
	mu     sync.Mutex
	refs   map[string]*livetest.Ref[docstore.Snapshot]
	caller docstore.Caller
}

func (f *fakeStore) Listen(c docstore.Caller, raw string) (live.Subscribable[docstore.Snapshot], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.caller = c
	return f.refs[raw], nil
}

func (f *fakeStore) lastCaller() docstore.Caller {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.caller
}

func startServer(t *testing.T, store Lister) (*httptest.Server, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws/live", func(c *gin.Context) {
		if uid := c.Query("as"); uid != "" {
			c.Set("userID", uid)
		}
		c.Next()
	}, WSHandler(hub, store))

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return srv, hub
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/live?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) *Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	f, err := FrameFromJSON(data)
	require.NoError(t, err)
	return f
}

func TestLiveCollectionSnapshots(t *testing.T) {
	ref := livetest.NewRef[docstore.Snapshot](watchlistPath).WithInitial(docstore.Snapshot{
		Path:       watchlistPath,
		Collection: true,
	})
	store := &fakeStore{refs: map[string]*livetest.Ref[docstore.Snapshot]{watchlistPath: ref}}
	srv, _ := startServer(t, store)

	conn := dial(t, srv, "path="+watchlistPath+"&as=5a0c6fb2-7d8e-4a0e-9d49-1d2f3c4b5a6e")

	first := readFrame(t, conn)
	assert.Equal(t, TypeSnapshot, first.Type)
	require.NotNil(t, first.Docs)
	assert.Empty(t, *first.Docs)

	ref.Push(docstore.Snapshot{
		Path:       watchlistPath,
		Collection: true,
		Docs:       []live.Doc[any]{{ID: "e1", Data: map[string]any{"content_id": "c1"}}},
	})
	second := readFrame(t, conn)
	require.NotNil(t, second.Docs)
	require.Len(t, *second.Docs, 1)
	assert.Equal(t, "e1", (*second.Docs)[0].ID)

	assert.Equal(t, "5a0c6fb2-7d8e-4a0e-9d49-1d2f3c4b5a6e", store.lastCaller().UID)
}

func TestLiveDocumentMissingIsNull(t *testing.T) {
	path := "content/7f1c9f8e-2b7a-4c3e-9a55-6f1d3b2c4e5f"
	ref := livetest.NewRef[docstore.Snapshot](path).WithInitial(docstore.Snapshot{Path: path})
	srv, _ := startServer(t, &fakeStore{refs: map[string]*livetest.Ref[docstore.Snapshot]{path: ref}})

	conn := dial(t, srv, "path="+path)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "null", string(raw["doc"]))
	_, hasDocs := raw["docs"]
	assert.False(t, hasDocs)
}

func TestLiveDeniedSendsErrorAndCloses(t *testing.T) {
	ref := livetest.NewRef[docstore.Snapshot](watchlistPath)
	srv, hub := startServer(t, &fakeStore{refs: map[string]*livetest.Ref[docstore.Snapshot]{watchlistPath: ref}})

	conn := dial(t, srv, "path="+watchlistPath)
	require.Eventually(t, func() bool { return ref.Active() == 1 }, time.Second, 10*time.Millisecond)

	ref.Fail(&docstore.DeniedError{Path: watchlistPath, Operation: errbus.OpList})

	f := readFrame(t, conn)
	assert.Equal(t, TypeError, f.Type)
	assert.Equal(t, watchlistPath, f.Path)
	assert.Equal(t, errbus.OpList, f.Operation)
	assert.Contains(t, f.Error, "permission denied")

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)

	assert.Eventually(t, func() bool { return ref.Active() == 0 && hub.Count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestLivePeerCloseReleasesQuery(t *testing.T) {
	ref := livetest.NewRef[docstore.Snapshot](watchlistPath)
	srv, hub := startServer(t, &fakeStore{refs: map[string]*livetest.Ref[docstore.Snapshot]{watchlistPath: ref}})

	conn := dial(t, srv, "path="+watchlistPath)
	require.Eventually(t, func() bool { return ref.Active() == 1 && hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	assert.Eventually(t, func() bool { return ref.Active() == 0 && hub.Count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestLiveInvalidPath(t *testing.T) {
	srv, _ := startServer(t, &fakeStore{})

	resp, err := http.Get(srv.URL + "/ws/live?path=movies/1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestErrorFrameOperation(t *testing.T) {
	f := NewErrorFrame("content/x", false, errors.New("boom"))
	assert.Equal(t, errbus.OpGet, f.Operation)

	f = NewErrorFrame("content", true, errors.New("boom"))
	assert.Equal(t, errbus.OpList, f.Operation)
}
