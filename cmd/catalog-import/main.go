// Command catalog-import bulk loads a TOML or JSON catalog file straight
// into the content table. It reads the API server's environment (.env
// included) and expects the server to have run once so the table exists.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"afriotv/database"
	"afriotv/internal/catalog"
	"afriotv/internal/changefeed"
	"afriotv/internal/config"
	"afriotv/internal/docpath"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: catalog-import <catalog.toml|catalog.json>")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("config_load_failed", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, os.Args[1], logger); err != nil {
		logger.Error("import_failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, path string, logger *slog.Logger) error {
	items, err := catalog.ReadFile(path)
	if err != nil {
		return err
	}
	logger.Info("catalog_loaded", "file", path, "items", len(items))

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	inserted, skipped, err := importItems(ctx, db, items, logger)
	if err != nil {
		return err
	}
	logger.Info("import_completed", "inserted", inserted, "skipped", skipped)

	if inserted > 0 {
		notifyCatalog(ctx, cfg, logger)
	}
	return nil
}

// importItems inserts every item in one transaction. Items whose title,
// type and release year already exist are skipped so a file can be
// imported again.
func importItems(ctx context.Context, db *sql.DB, items []catalog.Item, logger *slog.Logger) (inserted, skipped int, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	existsStmt, err := tx.PrepareContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM content
			WHERE lower(title) = lower($1) AND type = $2 AND release_year = $3
		)
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare lookup: %w", err)
	}
	defer existsStmt.Close()

	insertStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO content (id, title, type, description, poster_path, cover_path,
			genres, rating, duration, cast_members, release_year, is_trending, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer insertStmt.Close()

	for i, it := range items {
		var exists bool
		if err := existsStmt.QueryRowContext(ctx, it.Title, it.Type, it.ReleaseYear).Scan(&exists); err != nil {
			return 0, 0, fmt.Errorf("lookup %s: %w", it.Title, err)
		}
		if exists {
			skipped++
			logger.Info("item_skipped", "n", i+1, "title", it.Title)
			continue
		}

		_, err := insertStmt.ExecContext(ctx,
			uuid.New().String(),
			strings.TrimSpace(it.Title),
			it.Type,
			it.Description,
			it.PosterPath,
			it.CoverPath,
			pq.Array(it.Genres),
			it.Rating,
			it.Duration,
			pq.Array(it.Cast),
			it.ReleaseYear,
			it.IsTrending,
		)
		if err != nil {
			return 0, 0, fmt.Errorf("insert %s: %w", it.Title, err)
		}
		inserted++
		logger.Info("item_inserted", "n", i+1, "title", it.Title)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit: %w", err)
	}
	return inserted, skipped, nil
}

// notifyCatalog signals running servers so live catalog queries re-read.
// The rows are committed either way, so failures are only logged.
func notifyCatalog(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	if cfg.ChangeFeed == "memory" {
		logger.Warn("change_feed_memory", "hint", "restart the API server to see imported items live")
		return
	}

	var rdb *redis.Client
	if cfg.ChangeFeed == "redis" {
		var err error
		rdb, err = database.ConnectRedis(cfg)
		if err != nil {
			logger.Warn("change_publish_failed", "error", err)
			return
		}
		defer rdb.Close()
	}

	feed, err := changefeed.Open(ctx, cfg.ChangeFeed, cfg.DatabaseURL, rdb, logger)
	if err != nil {
		logger.Warn("change_publish_failed", "error", err)
		return
	}
	defer feed.Close()

	if err := feed.Publish(ctx, docpath.Content()); err != nil {
		logger.Warn("change_publish_failed", "error", err)
	}
}
