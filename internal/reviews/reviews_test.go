package reviews

import (
	"context"
	"errors"
	"strings"
	"testing"

	"afriotv/internal/errbus"
	"afriotv/internal/live"
	"afriotv/internal/live/livetest"
	"afriotv/internal/notify"
	"afriotv/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type staticSessions struct {
	current session.Session
}

func (s *staticSessions) Current() session.Session { return s.current }
func (s *staticSessions) OnChange(func(session.Session)) func() { return func() {} }

type fakeRefs struct {
	refs map[string]*livetest.Ref[[]live.Doc[Review]]
}

func (f *fakeRefs) Reviews(contentID string) live.Subscribable[[]live.Doc[Review]] {
	if f.refs == nil {
		f.refs = make(map[string]*livetest.Ref[[]live.Doc[Review]])
	}
	if _, ok := f.refs[contentID]; !ok {
		f.refs[contentID] = livetest.NewRef[[]live.Doc[Review]]("content/" + contentID + "/reviews")
	}
	return f.refs[contentID]
}

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) Create(ctx context.Context, collectionPath string, data any) (string, error) {
	args := m.Called(ctx, collectionPath, data)
	return args.String(0), args.Error(1)
}

func newTestService(sess session.Session) (*Service, *fakeRefs, *MockWriter, *notify.Recorder, *[]*errbus.PermissionError) {
	refs := &fakeRefs{}
	writer := new(MockWriter)
	notices := &notify.Recorder{}
	bus := errbus.New()
	var reports []*errbus.PermissionError
	bus.Subscribe(func(e *errbus.PermissionError) { reports = append(reports, e) })
	return NewService(&staticSessions{current: sess}, refs, writer, notices, bus), refs, writer, notices, &reports
}

func authed(uid, name, photo string) session.Session {
	return session.Session{
		State:    session.StateAuthenticated,
		Identity: &session.Identity{UID: uid, DisplayName: name, PhotoURL: photo},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(Input{Rating: 5, Comment: "Great movie!"}))
	assert.NoError(t, Validate(Input{Rating: 1, Comment: strings.Repeat("a", 1000)}))

	err := Validate(Input{Rating: 0, Comment: "short"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Please select a rating.", verr.Fields["rating"])
	assert.Equal(t, "Your review must be at least 10 characters.", verr.Fields["comment"])

	err = Validate(Input{Rating: 6, Comment: strings.Repeat("a", 1001)})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Your review cannot exceed 1000 characters.", verr.Fields["comment"])
	assert.Contains(t, err.Error(), "rating: Please select a rating.")

	err = Validate(Input{Rating: 4, Comment: "ok        "})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Your review must be at least 10 characters.", verr.Fields["comment"])

	err = Validate(Input{Rating: 4, Comment: "   " + strings.Repeat("a", 1000) + "   "})
	assert.NoError(t, err)
}

func TestSubmit_InvalidInputNeverWrites(t *testing.T) {
	svc, _, writer, _, _ := newTestService(authed("u1", "Ama", ""))
	svc.Open("c1")

	err := svc.Submit(context.Background(), Input{Rating: 3, Comment: "too short"})

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	writer.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_NotLoggedIn(t *testing.T) {
	svc, _, writer, notices, _ := newTestService(session.Session{State: session.StateAnonymous})
	svc.Open("c1")

	err := svc.Submit(context.Background(), Input{Rating: 4, Comment: "Loved every minute"})

	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Equal(t, []string{"Authentication Error"}, notices.Titles())
	writer.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_DenormalizesAuthor(t *testing.T) {
	svc, refs, writer, notices, _ := newTestService(authed("u1", "", ""))
	svc.Open("c1")
	refs.refs["c1"].Push(nil)

	want := NewReview{UserID: "u1", Rating: 4, Comment: "Loved every minute", DisplayName: "Anonymous", PhotoURL: ""}
	writer.On("Create", mock.Anything, "content/c1/reviews", want).Return("r1", nil).Once()

	require.NoError(t, svc.Submit(context.Background(), Input{Rating: 4, Comment: "Loved every minute"}))
	assert.Equal(t, []string{"Review submitted!"}, notices.Titles())
	writer.AssertExpectations(t)
}

func TestSubmit_PaddedCommentIsTrimmed(t *testing.T) {
	svc, refs, writer, _, _ := newTestService(authed("u1", "Ama", ""))
	svc.Open("c1")
	refs.refs["c1"].Push(nil)

	writer.On("Create", mock.Anything, "content/c1/reviews", mock.MatchedBy(func(r NewReview) bool {
		return r.Comment == "Loved every minute"
	})).Return("r1", nil).Once()

	require.NoError(t, svc.Submit(context.Background(), Input{Rating: 4, Comment: "  Loved every minute \n"}))
	writer.AssertExpectations(t)

	svc2, refs2, writer2, _, _ := newTestService(authed("u1", "Ama", ""))
	svc2.Open("c1")
	refs2.refs["c1"].Push(nil)

	err := svc2.Submit(context.Background(), Input{Rating: 4, Comment: "   ok      "})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	writer2.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_UsesIdentityName(t *testing.T) {
	svc, refs, writer, _, _ := newTestService(authed("u1", "Kofi", "https://cdn/kofi.png"))
	svc.Open("c1")
	refs.refs["c1"].Push(nil)

	writer.On("Create", mock.Anything, "content/c1/reviews", mock.MatchedBy(func(r NewReview) bool {
		return r.DisplayName == "Kofi" && r.PhotoURL == "https://cdn/kofi.png"
	})).Return("r1", nil)

	require.NoError(t, svc.Submit(context.Background(), Input{Rating: 5, Comment: "A masterpiece of cinema"}))
	writer.AssertExpectations(t)
}

func TestSubmit_AlreadyReviewed(t *testing.T) {
	svc, refs, writer, _, _ := newTestService(authed("u1", "Ama", ""))
	svc.Open("c1")
	refs.refs["c1"].Push([]live.Doc[Review]{{ID: "r1", Data: Review{UserID: "u1", Rating: 3}}})

	assert.True(t, svc.HasReviewed())
	err := svc.Submit(context.Background(), Input{Rating: 4, Comment: "Changed my mind about it"})

	assert.ErrorIs(t, err, ErrAlreadyReviewed)
	writer.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_RejectedWriteEmitsReport(t *testing.T) {
	svc, refs, writer, notices, reports := newTestService(authed("u1", "Ama", ""))
	svc.Open("c1")
	refs.refs["c1"].Push(nil)
	writer.On("Create", mock.Anything, "content/c1/reviews", mock.Anything).Return("", errors.New("permission denied"))

	err := svc.Submit(context.Background(), Input{Rating: 2, Comment: "Not for me at all"})

	require.Error(t, err)
	require.Len(t, *reports, 1)
	assert.Equal(t, errbus.OpCreate, (*reports)[0].Operation)
	assert.Equal(t, "content/c1/reviews", (*reports)[0].Path)
	assert.IsType(t, NewReview{}, (*reports)[0].RequestResourceData)
	assert.Empty(t, notices.Titles())
}

func TestSubmit_NoContentOpen(t *testing.T) {
	svc, _, _, _, _ := newTestService(authed("u1", "Ama", ""))
	err := svc.Submit(context.Background(), Input{Rating: 5, Comment: "Wonderful show"})
	assert.ErrorIs(t, err, ErrNoContentOpen)
}

func TestAverage(t *testing.T) {
	assert.Equal(t, 7.5, Average(nil, 7.5))

	docs := []live.Doc[Review]{
		{Data: Review{Rating: 5}},
		{Data: Review{Rating: 4}},
		{Data: Review{Rating: 3}},
	}
	assert.InDelta(t, 4.0, Average(docs, 0), 1e-9)
	assert.Equal(t, Summary{Count: 3, Average: 4}, Summarize(docs, 0))
}

func TestServiceSummaryFollowsSnapshot(t *testing.T) {
	svc, refs, _, _, _ := newTestService(authed("u1", "Ama", ""))
	svc.Open("c1")
	assert.Equal(t, Summary{Average: 8.1}, svc.Summary(8.1))

	refs.refs["c1"].Push([]live.Doc[Review]{{Data: Review{Rating: 2}}, {Data: Review{Rating: 5}}})
	assert.Equal(t, Summary{Count: 2, Average: 3.5}, svc.Summary(8.1))
}
