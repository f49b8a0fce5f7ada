package client

import (
	"context"
	"errors"
	"io"
	"net"
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
	"afriotv/internal/microservices/websocket"
	"afriotv/internal/session"
	"afriotv/internal/watchlist"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uid = "5a0c6fb2-7d8e-4a0e-9d49-1d2f3c4b5a6e"

func token(t *testing.T, admin bool) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   uid,
		"email": "ada@example.com",
		"name":  "Ada",
		"admin": admin,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func authBody(access string) gin.H {
	return gin.H{
		"access_token":  access,
		"refresh_token": "refresh-1",
		"expires_in":    900,
		"user":          gin.H{"id": uid, "email": "ada@example.com", "display_name": "Ada"},
	}
}

func newServer(t *testing.T, register func(r *gin.Engine)) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestSignInNotifiesAndPersists(t *testing.T) {
	access := token(t, false)
	srv := newServer(t, func(r *gin.Engine) {
		r.POST("/api/auth/login", func(c *gin.Context) {
			c.JSON(http.StatusOK, authBody(access))
		})
	})

	store := &MemoryStore{}
	c := New(srv.URL, WithTokenStore(store))

	var seen []*session.Identity
	stop := c.OnAuthStateChanged(func(id *session.Identity) { seen = append(seen, id) })
	defer stop()

	u, err := c.SignIn(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, uid, u.ID)

	require.Len(t, seen, 2)
	assert.Nil(t, seen[0])
	assert.Equal(t, uid, seen[1].UID)

	creds, _ := store.Load()
	require.NotNil(t, creds)
	assert.Equal(t, access, creds.AccessToken)
	assert.Equal(t, "refresh-1", creds.RefreshToken)
}

func TestNewRestoresIdentityFromStore(t *testing.T) {
	store := &MemoryStore{}
	require.NoError(t, store.Save(&Credentials{AccessToken: token(t, false), RefreshToken: "r"}))

	c := New("http://localhost:8080", WithTokenStore(store))
	id := c.Identity()
	require.NotNil(t, id)
	assert.Equal(t, uid, id.UID)
	assert.Equal(t, "Ada", id.DisplayName)
}

func TestExpiredTokenIsRefreshedOnce(t *testing.T) {
	fresh := token(t, false)
	var mu sync.Mutex
	refreshes := 0

	srv := newServer(t, func(r *gin.Engine) {
		r.POST("/api/auth/refresh", func(c *gin.Context) {
			mu.Lock()
			refreshes++
			mu.Unlock()
			c.JSON(http.StatusOK, gin.H{"access_token": fresh, "refresh_token": "refresh-2", "expires_in": 900})
		})
		r.GET("/api/users/:uid/watchlist", func(c *gin.Context) {
			if c.GetHeader("Authorization") != "Bearer "+fresh {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "token has expired"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"data": []gin.H{{"id": "e1", "content_id": "c1"}}})
		})
	})

	store := &MemoryStore{}
	require.NoError(t, store.Save(&Credentials{AccessToken: "stale", RefreshToken: "refresh-1"}))
	c := New(srv.URL, WithTokenStore(store))

	list, err := c.ListWatchlist(context.Background(), uid)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c1", list[0].Data.ContentID)
	assert.Equal(t, 1, refreshes)

	creds, _ := store.Load()
	assert.Equal(t, "refresh-2", creds.RefreshToken)
}

func TestForceRefreshReadsAdminClaim(t *testing.T) {
	srv := newServer(t, func(r *gin.Engine) {
		r.POST("/api/auth/refresh", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"access_token": token(t, true), "refresh_token": "r2", "expires_in": 900})
		})
	})

	store := &MemoryStore{}
	require.NoError(t, store.Save(&Credentials{AccessToken: token(t, false), RefreshToken: "r1"}))
	c := New(srv.URL, WithTokenStore(store))

	claims, err := c.ForceRefresh(context.Background())
	require.NoError(t, err)
	assert.True(t, claims.Admin)
}

func TestForceRefreshSignedOut(t *testing.T) {
	c := New("http://localhost:8080")
	_, err := c.ForceRefresh(context.Background())
	assert.ErrorIs(t, err, session.ErrNotSignedIn)
}

func TestSignOutClearsEvenWhenServerFails(t *testing.T) {
	srv := newServer(t, func(r *gin.Engine) {
		r.POST("/api/auth/logout", func(c *gin.Context) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		})
	})

	store := &MemoryStore{}
	require.NoError(t, store.Save(&Credentials{AccessToken: token(t, false), RefreshToken: "r1"}))
	c := New(srv.URL, WithTokenStore(store))

	var last *session.Identity
	c.OnAuthStateChanged(func(id *session.Identity) { last = id })
	require.NotNil(t, last)

	err := c.SignOut(context.Background())
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	assert.Nil(t, last)
	assert.Nil(t, c.Identity())
	creds, _ := store.Load()
	assert.Nil(t, creds)
}

func TestWriterMapsPathsToRoutes(t *testing.T) {
	var gotBody string
	srv := newServer(t, func(r *gin.Engine) {
		r.POST("/api/users/:uid/watchlist", func(c *gin.Context) {
			b, _ := io.ReadAll(c.Request.Body)
			gotBody = string(b)
			c.JSON(http.StatusCreated, gin.H{"id": "e9"})
		})
		r.DELETE("/api/users/:uid/watchlist/:entryId", func(c *gin.Context) {
			if c.Param("entryId") != "e9" {
				c.Status(http.StatusNotFound)
				return
			}
			c.Status(http.StatusNoContent)
		})
	})
	c := New(srv.URL)

	id, err := c.Create(context.Background(), "users/"+uid+"/watchlist", watchlist.NewEntry{ContentID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "e9", id)
	assert.JSONEq(t, `{"content_id":"c1"}`, gotBody)

	assert.NoError(t, c.Delete(context.Background(), "users/"+uid+"/watchlist/e9"))
}

func TestDeniedResponseCarriesPath(t *testing.T) {
	srv := newServer(t, func(r *gin.Engine) {
		r.POST("/api/content", func(c *gin.Context) {
			c.JSON(http.StatusForbidden, gin.H{"error": "permission denied", "path": "content", "operation": "create"})
		})
	})
	c := New(srv.URL)

	_, err := c.Create(context.Background(), "content", gin.H{"title": "x"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "content", apiErr.Path)
	assert.Equal(t, errbus.OpCreate, apiErr.Operation)
	assert.Equal(t, "permission denied: create on content", err.Error())
}

type refStore struct {
	ref *livetest.Ref[docstore.Snapshot]
}

func (s refStore) Listen(docstore.Caller, string) (live.Subscribable[docstore.Snapshot], error) {
	return s.ref, nil
}

func liveServer(t *testing.T, ref *livetest.Ref[docstore.Snapshot]) *httptest.Server {
	t.Helper()
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return newServer(t, func(r *gin.Engine) {
		r.GET("/ws/live", websocket.WSHandler(hub, refStore{ref: ref}))
	})
}

func TestLiveWatchlist(t *testing.T) {
	path := "users/" + uid + "/watchlist"
	ref := livetest.NewRef[docstore.Snapshot](path).WithInitial(docstore.Snapshot{Path: path, Collection: true})
	c := New(liveServer(t, ref).URL)

	col := live.NewCollection[watchlist.Entry](errbus.New())
	defer col.Close()
	col.Watch(c.Watchlist(uid))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	first, err := col.Wait(ctx)
	require.NoError(t, err)
	assert.Empty(t, first.Data)

	ref.Push(docstore.Snapshot{
		Path:       path,
		Collection: true,
		Docs:       []live.Doc[any]{{ID: "e1", Data: map[string]any{"content_id": "c1"}}},
	})
	assert.Eventually(t, func() bool {
		return len(col.State().Data) == 1 && col.State().Data[0].Data.ContentID == "c1"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLiveDeniedReachesBus(t *testing.T) {
	path := "users/" + uid + "/watchlist"
	ref := livetest.NewRef[docstore.Snapshot](path)
	c := New(liveServer(t, ref).URL)

	bus := errbus.New()
	reports := make(chan *errbus.PermissionError, 1)
	bus.Subscribe(func(e *errbus.PermissionError) { reports <- e })

	col := live.NewCollection[watchlist.Entry](bus)
	defer col.Close()
	col.Watch(c.Watchlist(uid))

	require.Eventually(t, func() bool { return ref.Active() == 1 }, 2*time.Second, 10*time.Millisecond)
	ref.Fail(&docstore.DeniedError{Path: path, Operation: errbus.OpList})

	select {
	case e := <-reports:
		assert.Equal(t, path, e.Path)
		assert.Equal(t, errbus.OpList, e.Operation)
	case <-time.After(2 * time.Second):
		t.Fatal("no permission report")
	}
	assert.False(t, col.State().IsLoading)
}

func TestLiveDocumentMissing(t *testing.T) {
	path := "users/" + uid
	ref := livetest.NewRef[docstore.Snapshot](path).WithInitial(docstore.Snapshot{Path: path})
	c := New(liveServer(t, ref).URL)

	doc := live.NewDocument[session.UserProfile](errbus.New())
	defer doc.Close()
	doc.Watch(c.UserProfile(uid))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := doc.Wait(ctx)
	require.NoError(t, err)
	assert.Nil(t, st.Data)
}

func TestUploadAvatarStreamsMultipart(t *testing.T) {
	srv := newServer(t, func(r *gin.Engine) {
		r.POST("/api/users/:uid/avatar", func(c *gin.Context) {
			fh, err := c.FormFile("file")
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
				return
			}
			if fh.Header.Get("Content-Type") != "image/png" || fh.Filename != "me.png" {
				c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "not an image"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"id": c.Param("uid"), "photo_url": "http://cdn/avatars/" + c.Param("uid") + "/me.png"})
		})
	})
	c := New(srv.URL)

	url, err := c.UploadAvatar(context.Background(), uid, "/tmp/me.png", strings.NewReader("png-bytes"), 9)
	require.NoError(t, err)
	assert.Equal(t, "http://cdn/avatars/"+uid+"/me.png", url)
}

func TestFriendlyAuthError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"bad credentials", &APIError{Status: 401, Message: "invalid credentials"}, "The email or password you entered is incorrect. Please double-check and try again."},
		{"unknown user", &APIError{Status: 404, Message: "user not found"}, "No account was found with that email address. Please sign up first."},
		{"popup closed", &APIError{Status: 401, Message: "access_denied"}, "The Google sign-in window was closed before completing. Please try again."},
		{"cancelled", context.Canceled, "The sign-in process was cancelled. Please try again."},
		{"network", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, "A network error occurred. Please check your internet connection."},
		{"other", errors.New("boom"), "An unexpected error occurred. Please try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FriendlyAuthError(tt.err))
		})
	}

	n := LoginFailed(errors.New("boom"))
	assert.Equal(t, "Login Failed", n.Title)
	assert.True(t, n.Destructive)
}
