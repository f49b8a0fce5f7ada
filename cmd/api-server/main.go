package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"afriotv/database"
	"afriotv/internal/changefeed"
	"afriotv/internal/config"
	"afriotv/internal/docstore"
	"afriotv/internal/errbus"
	"afriotv/internal/genai"
	"afriotv/internal/microservices/http-api/repository"
	"afriotv/internal/microservices/http-api/server"
	"afriotv/internal/microservices/http-api/service"
	"afriotv/internal/microservices/websocket"
	"afriotv/internal/storage"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config_invalid", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server_failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Connect to the database
	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close(db)

	// 2. Redis backs the change feed and the OAuth state store
	var rdb *redis.Client
	if cfg.ChangeFeed == "redis" || cfg.OIDCEnabled() {
		rdb, err = database.ConnectRedis(cfg)
		if err != nil {
			return err
		}
		defer rdb.Close()
		logger.Info("redis_connected", "addr", cfg.RedisURL)
	}

	feed, err := changefeed.Open(ctx, cfg.ChangeFeed, cfg.DatabaseURL, rdb, logger)
	if err != nil {
		return err
	}
	defer feed.Close()

	// 3. Repositories and services
	contentRepo := repository.NewContentRepository(db, feed)
	reviewRepo := repository.NewReviewRepository(db, feed)
	userRepo := repository.NewUserRepository(db, feed)
	watchlistRepo := repository.NewWatchlistRepository(db, feed)
	refreshRepo := repository.NewRefreshTokenRepository(db)

	authService := service.NewAuthService(userRepo, refreshRepo, cfg)
	contentService := service.NewContentService(contentRepo)

	var avatars storage.AvatarStore
	if cfg.StorageEnabled() {
		mc, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return fmt.Errorf("minio: %w", err)
		}
		store := storage.NewMinioAvatarStore(mc, cfg.Minio.Bucket, cfg.Minio.PublicBase)
		if err := store.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("minio bucket: %w", err)
		}
		avatars = store
		logger.Info("avatar_storage_enabled", "bucket", cfg.Minio.Bucket)
	}

	var oauthService service.OAuthService
	if cfg.OIDCEnabled() {
		oauthService, err = service.NewOAuthService(ctx, cfg.OIDC, service.NewRedisStateStore(rdb), userRepo, authService, logger)
		if err != nil {
			return fmt.Errorf("oidc: %w", err)
		}
		logger.Info("oauth_enabled", "issuer", cfg.OIDC.Issuer)
	}

	if !cfg.GenAIEnabled() {
		logger.Warn("genai_disabled", "reason", "GENAI_URL not set")
	}
	flows := genai.NewFlows(genai.NewClient(cfg.GenAI, logger))

	// denied live queries are logged here
	bus := errbus.New()
	bus.Subscribe(errbus.LogListener(logger))

	store := docstore.NewStore(contentRepo, reviewRepo, userRepo, watchlistRepo, feed, logger)
	hub := websocket.NewHub()
	go hub.Run(ctx)

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	router := server.NewRouter(cfg, server.Deps{
		Auth:      authService,
		OAuth:     oauthService,
		Content:   contentService,
		Reviews:   service.NewReviewService(reviewRepo, contentService),
		Watchlist: service.NewWatchlistService(watchlistRepo),
		Profiles:  service.NewProfileService(userRepo, avatars, logger),
		AI:        flows,
		Live:      docstore.Reporting(store, bus),
		Hub:       hub,
		Ping: func() error {
			pctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return sqlDB.PingContext(pctx)
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_starting", "addr", srv.Addr, "env", cfg.GoEnv, "change_feed", cfg.ChangeFeed)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server_stopped")
	return nil
}
