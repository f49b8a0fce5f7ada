// Package app assembles the client-side services around one API client.
package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"afriotv/internal/catalog"
	"afriotv/internal/errbus"
	"afriotv/internal/genai"
	"afriotv/internal/live"
	"afriotv/internal/notify"
	"afriotv/internal/reviews"
	"afriotv/internal/session"
	"afriotv/internal/upload"
	"afriotv/internal/watchlist"
	"afriotv/pkg/client"
)

type Options struct {
	BaseURL string
	Store   client.TokenStore
	// Notifier shows confirmations and failures; notices are dropped when
	// nil.
	Notifier notify.Notifier
	// Diagnostics receives the permission-denial panel. Defaults to stderr.
	Diagnostics io.Writer
	Logger      *slog.Logger
}

// Root owns the process-wide error bus and the services built on it.
type Root struct {
	Client    *client.Client
	Sessions  *session.Resolver
	Watchlist *watchlist.Service
	Reviews   *reviews.Service

	logger   *slog.Logger
	notifier notify.Notifier
	diag     io.Writer

	busOnce sync.Once
	bus     *errbus.Bus
	stopBus func()
}

// New builds the root and starts following the auth state.
func New(ctx context.Context, opts Options) *Root {
	r := &Root{
		logger:   opts.Logger,
		notifier: opts.Notifier,
		diag:     opts.Diagnostics,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.notifier == nil {
		r.notifier = notify.Func(func(notify.Notice) {})
	}
	if r.diag == nil {
		r.diag = os.Stderr
	}

	copts := []client.Option{client.WithLogger(r.logger)}
	if opts.Store != nil {
		copts = append(copts, client.WithTokenStore(opts.Store))
	}
	r.Client = client.New(opts.BaseURL, copts...)

	bus := r.Bus()
	r.Sessions = session.NewResolver(r.Client, r.Client, r.Client, bus, r.logger)
	r.Sessions.OnError(func(error) {
		r.notifier.Notify(notify.Notice{
			Title:       "Could not refresh permissions",
			Description: "Your access level may be out of date. Try again shortly.",
			Destructive: true,
		})
	})
	r.Sessions.Start(ctx)
	r.Watchlist = watchlist.NewService(r.Sessions, r.Client, r.Client, r.notifier, bus)
	r.Reviews = reviews.NewService(r.Sessions, r.Client, r.Client, r.notifier, bus)
	return r
}

// Bus returns the error bus, creating it and subscribing the diagnostic
// listener on first use.
func (r *Root) Bus() *errbus.Bus {
	r.busOnce.Do(func() {
		r.bus = errbus.New()
		r.stopBus = r.bus.Subscribe(errbus.ColorListener(r.diag))
	})
	return r.bus
}

func (r *Root) Notify(n notify.Notice) {
	r.notifier.Notify(n)
}

// Ready waits for the session to settle.
func (r *Root) Ready(ctx context.Context) (session.Session, error) {
	return r.Sessions.Wait(ctx)
}

// UploadAvatar starts an avatar upload for the signed-in user.
func (r *Root) UploadAvatar(ctx context.Context, filename string, src io.Reader, size int64, onProgress func(upload.Progress)) (*upload.Task, error) {
	uid := r.Sessions.Current().UID()
	if uid == "" {
		return nil, session.ErrNotSignedIn
	}
	return upload.Start(ctx, r.Client, uid, filename, src, size, onProgress)
}

// Recommendations are AI suggestions resolved against the catalog.
// Message is set when nothing could be shown.
type Recommendations struct {
	Titles  []string
	Items   []live.Doc[catalog.Item]
	Message string
}

// Recommend asks for titles matching a viewing history and keeps the ones
// in the catalog.
func (r *Root) Recommend(ctx context.Context, history []string, preferences string) Recommendations {
	out, err := r.Client.Recommend(ctx, genai.RecommendationsInput{ViewingHistory: history, Preferences: preferences})
	if err != nil {
		r.logger.Warn("recommendations_failed", "error", err)
		return Recommendations{Message: catalog.RecommendationMessage(err)}
	}
	return r.match(ctx, out.Recommendations, catalog.MatchOptions{})
}

// Similar suggests catalog items close to contentID, never contentID
// itself.
func (r *Root) Similar(ctx context.Context, contentID string) Recommendations {
	item, err := r.Client.GetContent(ctx, contentID)
	if err != nil {
		return Recommendations{Message: catalog.RecommendationMessage(err)}
	}
	out, err := r.Client.Similar(ctx, genai.SimilarInput{Title: item.Data.Title})
	if err != nil {
		r.logger.Warn("similar_failed", "content_id", contentID, "error", err)
		return Recommendations{Message: catalog.RecommendationMessage(err)}
	}
	return r.match(ctx, out.Recommendations, catalog.MatchOptions{ExcludeID: contentID, Limit: catalog.RelatedLimit})
}

func (r *Root) match(ctx context.Context, titles []string, opts catalog.MatchOptions) Recommendations {
	items, err := r.Client.ListContent(ctx, client.ListOptions{})
	if err != nil {
		return Recommendations{Titles: titles, Message: catalog.RecommendationMessage(err)}
	}
	res := Recommendations{Titles: titles, Items: catalog.MatchTitles(items, titles, opts)}
	if len(res.Items) == 0 {
		res.Message = catalog.NoMatches
	}
	return res
}

func (r *Root) Close() {
	r.Reviews.Close()
	r.Watchlist.Close()
	r.Sessions.Close()
	if r.stopBus != nil {
		r.stopBus()
	}
}
