// Package watchlist keeps the signed-in user's watchlist in sync and applies
// add/remove mutations against it.
package watchlist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"afriotv/internal/docpath"
	"afriotv/internal/errbus"
	"afriotv/internal/live"
	"afriotv/internal/notify"
	"afriotv/internal/session"
)

var ErrNotLoggedIn = errors.New("not logged in")

// Entry is one users/{uid}/watchlist document. AddedAt is assigned by the
// backend when the entry is created.
type Entry struct {
	ContentID string    `json:"content_id"`
	AddedAt   time.Time `json:"added_at"`
}

// NewEntry is the payload sent when adding.
type NewEntry struct {
	ContentID string `json:"content_id"`
}

type Writer interface {
	Create(ctx context.Context, collectionPath string, data any) (string, error)
	Delete(ctx context.Context, docPath string) error
}

type Refs interface {
	Watchlist(uid string) live.Subscribable[[]live.Doc[Entry]]
}

type pendingOp int

const (
	pendingAdd pendingOp = iota + 1
	pendingRemove
)

// Service mirrors the current user's watchlist. A mutation for a content id
// is suppressed while an earlier one for the same id is still unreflected
// by a snapshot.
type Service struct {
	sessions session.Source
	refs     Refs
	writer   Writer
	notifier notify.Notifier
	bus      *errbus.Bus
	entries  *live.Collection[Entry]

	mu          sync.Mutex
	uid         string
	following   bool
	pending     map[string]pendingOp
	stopSess    func()
	stopEntries func()
}

func NewService(sessions session.Source, refs Refs, writer Writer, notifier notify.Notifier, bus *errbus.Bus) *Service {
	s := &Service{
		sessions: sessions,
		refs:     refs,
		writer:   writer,
		notifier: notifier,
		bus:      bus,
		entries:  live.NewCollection[Entry](bus),
		pending:  make(map[string]pendingOp),
	}
	s.stopEntries = s.entries.OnChange(s.reconcile)
	s.stopSess = sessions.OnChange(func(sess session.Session) { s.follow(sess.UID()) })
	s.follow(sessions.Current().UID())
	return s
}

// follow points the subscription at uid's watchlist.
func (s *Service) follow(uid string) {
	s.mu.Lock()
	if s.following && uid == s.uid {
		s.mu.Unlock()
		return
	}
	s.following = true
	s.uid = uid
	s.pending = make(map[string]pendingOp)
	s.mu.Unlock()

	if uid == "" {
		s.entries.Watch(nil)
		return
	}
	s.entries.Watch(s.refs.Watchlist(uid))
}

func (s *Service) reconcile(state live.CollState[Entry]) {
	if state.IsLoading {
		return
	}
	present := make(map[string]bool, len(state.Data))
	for _, d := range state.Data {
		present[d.Data.ContentID] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, op := range s.pending {
		if (op == pendingAdd && present[id]) || (op == pendingRemove && !present[id]) {
			delete(s.pending, id)
		}
	}
}

// State returns the latest watchlist snapshot.
func (s *Service) State() live.CollState[Entry] {
	return s.entries.State()
}

// Wait blocks until the watchlist snapshot has loaded.
func (s *Service) Wait(ctx context.Context) (live.CollState[Entry], error) {
	return s.entries.Wait(ctx)
}

// ContentIDs lists the content ids on the watchlist in snapshot order.
func (s *Service) ContentIDs() []string {
	state := s.entries.State()
	ids := make([]string, 0, len(state.Data))
	for _, d := range state.Data {
		ids = append(ids, d.Data.ContentID)
	}
	return ids
}

func (s *Service) IsPresent(contentID string) bool {
	_, ok := s.find(contentID)
	return ok
}

func (s *Service) find(contentID string) (live.Doc[Entry], bool) {
	for _, d := range s.entries.State().Data {
		if d.Data.ContentID == contentID {
			return d, true
		}
	}
	return live.Doc[Entry]{}, false
}

// Add appends contentID to the signed-in user's watchlist. It is a no-op
// when the id is already present or an add for it is in flight.
func (s *Service) Add(ctx context.Context, contentID string) error {
	uid := s.sessions.Current().UID()
	if uid == "" {
		s.notifier.Notify(notify.Notice{
			Title:       "Please log in",
			Description: "You need to be logged in to add items to your watchlist.",
			Destructive: true,
		})
		return ErrNotLoggedIn
	}
	if s.IsPresent(contentID) || !s.begin(contentID, pendingAdd) {
		return nil
	}

	path := docpath.Watchlist(uid)
	payload := NewEntry{ContentID: contentID}
	if _, err := s.writer.Create(ctx, path, payload); err != nil {
		s.clear(contentID)
		s.bus.Emit(&errbus.PermissionError{Path: path, Operation: errbus.OpCreate, RequestResourceData: payload})
		return fmt.Errorf("add to watchlist: %w", err)
	}

	s.notifier.Notify(notify.Notice{
		Title:       "Added to Watchlist",
		Description: "The item has been added to your watchlist.",
	})
	return nil
}

// Remove deletes the entry for contentID. Absent ids and anonymous callers
// are a silent no-op.
func (s *Service) Remove(ctx context.Context, contentID string) error {
	uid := s.sessions.Current().UID()
	if uid == "" {
		return nil
	}
	entry, ok := s.find(contentID)
	if !ok || !s.begin(contentID, pendingRemove) {
		return nil
	}

	path := docpath.WatchlistEntry(uid, entry.ID)
	if err := s.writer.Delete(ctx, path); err != nil {
		s.clear(contentID)
		s.bus.Emit(&errbus.PermissionError{Path: path, Operation: errbus.OpDelete})
		return fmt.Errorf("remove from watchlist: %w", err)
	}

	s.notifier.Notify(notify.Notice{
		Title:       "Removed from Watchlist",
		Description: "The item has been removed from your watchlist.",
	})
	return nil
}

// Toggle adds or removes contentID depending on its current presence.
func (s *Service) Toggle(ctx context.Context, contentID string) error {
	if s.IsPresent(contentID) {
		return s.Remove(ctx, contentID)
	}
	return s.Add(ctx, contentID)
}

func (s *Service) begin(contentID string, op pendingOp) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[contentID] == op {
		return false
	}
	s.pending[contentID] = op
	return true
}

func (s *Service) clear(contentID string) {
	s.mu.Lock()
	delete(s.pending, contentID)
	s.mu.Unlock()
}

func (s *Service) Close() {
	s.stopSess()
	s.stopEntries()
	s.entries.Close()
}
