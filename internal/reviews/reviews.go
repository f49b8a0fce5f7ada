// Package reviews lists and submits user reviews for a content item.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"afriotv/internal/docpath"
	"afriotv/internal/errbus"
	"afriotv/internal/live"
	"afriotv/internal/notify"
	"afriotv/internal/session"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MinCommentLength = 10
	MaxCommentLength = 1000
	AnonymousName    = "Anonymous"
)

var (
	ErrNotLoggedIn     = errors.New("not logged in")
	ErrAlreadyReviewed = errors.New("user has already reviewed this content")
	ErrNoContentOpen   = errors.New("no content selected")
)

// Review is a content/{id}/reviews document. DisplayName and PhotoURL are
// copied from the author when the review is written.
type Review struct {
	UserID      string    `json:"user_id"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	DisplayName string    `json:"display_name"`
	PhotoURL    string    `json:"photo_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// Input is what the author fills in.
type Input struct {
	Rating  int
	Comment string
}

// NewReview is the payload sent on submit.
type NewReview struct {
	UserID      string `json:"user_id"`
	Rating      int    `json:"rating"`
	Comment     string `json:"comment"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
}

// ValidationError maps field names to a human-readable message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid review: " + strings.Join(parts, "; ")
}

// Validate checks the rating range and the length of the trimmed comment.
func Validate(in Input) error {
	fields := map[string]string{}
	if in.Rating < MinRating || in.Rating > MaxRating {
		fields["rating"] = "Please select a rating."
	}
	n := utf8.RuneCountInString(strings.TrimSpace(in.Comment))
	switch {
	case n < MinCommentLength:
		fields["comment"] = "Your review must be at least 10 characters."
	case n > MaxCommentLength:
		fields["comment"] = "Your review cannot exceed 1000 characters."
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

type Writer interface {
	Create(ctx context.Context, collectionPath string, data any) (string, error)
}

type Refs interface {
	Reviews(contentID string) live.Subscribable[[]live.Doc[Review]]
}

// Service follows the reviews of one content item at a time.
type Service struct {
	sessions session.Source
	refs     Refs
	writer   Writer
	notifier notify.Notifier
	bus      *errbus.Bus
	reviews  *live.Collection[Review]

	mu        sync.Mutex
	contentID string
}

func NewService(sessions session.Source, refs Refs, writer Writer, notifier notify.Notifier, bus *errbus.Bus) *Service {
	return &Service{
		sessions: sessions,
		refs:     refs,
		writer:   writer,
		notifier: notifier,
		bus:      bus,
		reviews:  live.NewCollection[Review](bus),
	}
}

// Open switches to contentID's reviews. An empty id stops following.
func (s *Service) Open(contentID string) {
	s.mu.Lock()
	s.contentID = contentID
	s.mu.Unlock()

	if contentID == "" {
		s.reviews.Watch(nil)
		return
	}
	s.reviews.Watch(s.refs.Reviews(contentID))
}

func (s *Service) State() live.CollState[Review] {
	return s.reviews.State()
}

func (s *Service) Wait(ctx context.Context) (live.CollState[Review], error) {
	return s.reviews.Wait(ctx)
}

// HasReviewed reports whether the current user authored any loaded review.
func (s *Service) HasReviewed() bool {
	uid := s.sessions.Current().UID()
	if uid == "" {
		return false
	}
	for _, d := range s.reviews.State().Data {
		if d.Data.UserID == uid {
			return true
		}
	}
	return false
}

// Submit validates in and writes a review for the open content item.
func (s *Service) Submit(ctx context.Context, in Input) error {
	if err := Validate(in); err != nil {
		return err
	}

	sess := s.sessions.Current()
	uid := sess.UID()
	if uid == "" {
		s.notifier.Notify(notify.Notice{
			Title:       "Authentication Error",
			Description: "You must be logged in to leave a review.",
			Destructive: true,
		})
		return ErrNotLoggedIn
	}

	s.mu.Lock()
	contentID := s.contentID
	s.mu.Unlock()
	if contentID == "" {
		return ErrNoContentOpen
	}
	if s.HasReviewed() {
		return ErrAlreadyReviewed
	}

	name := sess.DisplayName()
	if name == "" {
		name = AnonymousName
	}
	payload := NewReview{
		UserID:      uid,
		Rating:      in.Rating,
		Comment:     strings.TrimSpace(in.Comment),
		DisplayName: name,
		PhotoURL:    sess.PhotoURL(),
	}

	path := docpath.Reviews(contentID)
	if _, err := s.writer.Create(ctx, path, payload); err != nil {
		s.bus.Emit(&errbus.PermissionError{Path: path, Operation: errbus.OpCreate, RequestResourceData: payload})
		return fmt.Errorf("submit review: %w", err)
	}

	s.notifier.Notify(notify.Notice{
		Title:       "Review submitted!",
		Description: "Thank you for your feedback.",
	})
	return nil
}

// Summary is the loaded review count and average rating.
func (s *Service) Summary(fallback float64) Summary {
	return Summarize(s.reviews.State().Data, fallback)
}

func (s *Service) Close() {
	s.reviews.Close()
}
