package websocket

import (
	"net/http"

	"afriotv/internal/docpath"
	"afriotv/internal/docstore"
	"afriotv/internal/live"
	"afriotv/internal/microservices/http-api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// HTTP upgrade handler to WebSocket connections

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// allow all origins; every read is still checked against the access rules
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Lister opens live queries.
type Lister interface {
	Listen(c docstore.Caller, raw string) (live.Subscribable[docstore.Snapshot], error)
}

// WSHandler upgrades GET /ws/live?path=... and streams snapshots of the
// path. The caller comes from the optional auth middleware; anonymous
// readers see what the access rules allow them to.
func WSHandler(hub *Hub, store Lister) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("path")
		p, err := docpath.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		caller := middleware.Caller(c)
		q, err := store.Listen(caller, p.Raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// upgrade HTTP connection to WebSocket; Upgrade writes the error response
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		client := NewClient(uuid.NewString(), caller.UID, p.Raw, conn, hub)
		if !hub.register(client) {
			conn.Close()
			return
		}

		// start goroutines for read and write pumps
		go client.WritePump()
		go client.ReadPump()

		client.Serve(q, p.Kind.IsCollection())
	}
}
