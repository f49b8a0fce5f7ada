package repository

import (
	"context"
	"log/slog"

	"afriotv/internal/changefeed"
)

// publish signals live queries after a committed write. The write already
// succeeded, so a failed signal is only logged.
func publish(ctx context.Context, feed changefeed.Feed, paths ...string) {
	if feed == nil {
		return
	}
	if err := feed.Publish(ctx, paths...); err != nil {
		slog.Warn("change_publish_failed", "paths", paths, "error", err)
	}
}
