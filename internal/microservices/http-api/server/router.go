// Package server assembles the gin engine serving the REST API and the
// live-query websocket.
package server

import (
	"net/http"
	"time"

	"afriotv/internal/config"
	"afriotv/internal/microservices/http-api/handler"
	"afriotv/internal/microservices/http-api/middleware"
	"afriotv/internal/microservices/http-api/service"
	"afriotv/internal/microservices/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
)

// Deps are the services behind the routes. OAuth may be nil when social
// sign-in is not configured.
type Deps struct {
	Auth      service.AuthService
	OAuth     service.OAuthService
	Content   service.ContentService
	Reviews   service.ReviewService
	Watchlist service.WatchlistService
	Profiles  service.ProfileService
	AI        handler.Recommender
	Live      websocket.Lister
	Hub       *websocket.Hub
	// Ping reports backend health for /check-conn.
	Ping func() error
}

func NewRouter(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "Cache-Control"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/check-conn", func(c *gin.Context) {
		if d.Ping != nil {
			if err := d.Ping(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "live_clients": d.Hub.Count()})
	})

	optional := middleware.OptionalAuth(d.Auth)

	api := r.Group("/api")
	handler.NewAuthHandler(d.Auth, d.OAuth).RegisterRoutes(api.Group("/auth"))
	handler.NewContentHandler(d.Content, d.Reviews).RegisterRoutes(api.Group("/content", optional))
	handler.NewUserHandler(d.Profiles, d.Watchlist).RegisterRoutes(api.Group("/users", optional))

	limiter := middleware.NewIPRateLimiter(cfg.AIRateLimit)
	handler.NewAIHandler(d.AI, cfg.GenAI.Timeout).
		RegisterRoutes(api.Group("/ai", middleware.RateLimit(limiter)))

	r.GET("/ws/live", optional, websocket.WSHandler(d.Hub, d.Live))

	if cfg.IsDevelopment() {
		debug := r.Group("/debug", middleware.AuthMiddleware(d.Auth), middleware.RequireAdmin())
		pprof.RouteRegister(debug, "pprof")
	}

	r.NoRoute(func(c *gin.Context) { c.JSON(http.StatusNotFound, gin.H{"error": "not found"}) })
	return r
}
