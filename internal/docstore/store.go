package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"afriotv/internal/changefeed"
	"afriotv/internal/docpath"
	"afriotv/internal/errbus"
	"afriotv/internal/live"
	"afriotv/internal/microservices/http-api/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Snapshot is the full result of a read. Collection reads fill Docs;
// document reads set Doc, which is nil when the document does not exist.
type Snapshot struct {
	Path       string
	Collection bool
	Docs       []live.Doc[any]
	Doc        any
}

// Store reads documents and collections by path.
type Store struct {
	content   repository.ContentRepository
	reviews   repository.ReviewRepository
	users     repository.UserRepository
	watchlist repository.WatchlistRepository
	feed      changefeed.Feed
	logger    *slog.Logger
}

func NewStore(
	content repository.ContentRepository,
	reviews repository.ReviewRepository,
	users repository.UserRepository,
	watchlist repository.WatchlistRepository,
	feed changefeed.Feed,
	logger *slog.Logger,
) *Store {
	return &Store{
		content:   content,
		reviews:   reviews,
		users:     users,
		watchlist: watchlist,
		feed:      feed,
		logger:    logger,
	}
}

// Fetch authorizes and runs a single read of raw.
func (s *Store) Fetch(ctx context.Context, c Caller, raw string) (Snapshot, error) {
	p, err := docpath.Parse(raw)
	if err != nil {
		return Snapshot{}, err
	}
	return s.fetch(ctx, c, p)
}

func (s *Store) fetch(ctx context.Context, c Caller, p docpath.Path) (Snapshot, error) {
	op := errbus.OpGet
	if p.Kind.IsCollection() {
		op = errbus.OpList
	}
	if err := Authorize(Request{Caller: c, Operation: op, Path: p}); err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{Path: p.Raw, Collection: p.Kind.IsCollection()}
	// ids that are not uuids cannot exist
	for _, id := range []string{p.ContentID, p.Owner, p.DocID} {
		if id != "" && uuid.Validate(id) != nil {
			if snap.Collection {
				snap.Docs = []live.Doc[any]{}
			}
			return snap, nil
		}
	}

	var doc any
	var err error
	switch p.Kind {
	case docpath.KindContentCollection:
		list, err := s.content.List(ctx, repository.ContentFilter{})
		if err != nil {
			return Snapshot{}, err
		}
		snap.Docs = make([]live.Doc[any], 0, len(list))
		for i := range list {
			snap.Docs = append(snap.Docs, live.Doc[any]{ID: list[i].ID, Data: list[i]})
		}
	case docpath.KindContentDoc:
		doc, err = orMissing(s.content.GetByID(ctx, p.ContentID))
	case docpath.KindReviewCollection:
		list, err := s.reviews.ListByContent(ctx, p.ContentID)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Docs = make([]live.Doc[any], 0, len(list))
		for i := range list {
			snap.Docs = append(snap.Docs, live.Doc[any]{ID: list[i].ID, Data: list[i]})
		}
	case docpath.KindReviewDoc:
		doc, err = orMissing(s.reviews.Get(ctx, p.ContentID, p.DocID))
	case docpath.KindUserDoc:
		doc, err = orMissing(s.users.FindByID(ctx, p.Owner))
	case docpath.KindWatchlistCollection:
		list, err := s.watchlist.List(ctx, p.Owner)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Docs = make([]live.Doc[any], 0, len(list))
		for i := range list {
			snap.Docs = append(snap.Docs, live.Doc[any]{ID: list[i].ID, Data: list[i]})
		}
	case docpath.KindWatchlistDoc:
		doc, err = orMissing(s.watchlist.Get(ctx, p.Owner, p.DocID))
	default:
		return Snapshot{}, docpath.ErrInvalidPath
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", p.Raw, err)
	}
	snap.Doc = doc
	return snap, nil
}

// orMissing maps a not-found lookup to a nil document.
func orMissing[T any](v *T, err error) (any, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Listen returns a live query over raw for c. Every change signal for the
// path triggers a fresh read; a denied or failed read ends the
// subscription through onError.
func (s *Store) Listen(c Caller, raw string) (live.Subscribable[Snapshot], error) {
	p, err := docpath.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &query{store: s, caller: c, path: p}, nil
}

type query struct {
	store  *Store
	caller Caller
	path   docpath.Path
}

func (q *query) Path() string { return q.path.Raw }

func (q *query) Subscribe(onData func(Snapshot), onError func(error)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	go q.run(ctx, onData, onError)
	return cancel
}

func (q *query) run(ctx context.Context, onData func(Snapshot), onError func(error)) {
	// subscribe before the first read so no change in between is lost
	changes, err := q.store.feed.Subscribe(ctx, q.path.Raw)
	if err != nil {
		if ctx.Err() == nil {
			onError(err)
		}
		return
	}

	for {
		snap, err := q.store.fetch(ctx, q.caller, q.path)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			q.store.logger.Warn("live_query_failed", "path", q.path.Raw, "uid", q.caller.UID, "error", err)
			onError(err)
			return
		}
		onData(snap)

		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
		}
	}
}
