package errbus

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_EmitReachesAllSubscribers(t *testing.T) {
	bus := New()

	var first, second []*PermissionError
	bus.Subscribe(func(e *PermissionError) { first = append(first, e) })
	bus.Subscribe(func(e *PermissionError) { second = append(second, e) })

	report := &PermissionError{Path: "users/u1/watchlist", Operation: OpList}
	bus.Emit(report)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Same(t, report, first[0])
	assert.Same(t, report, second[0])
}

func TestBus_EmitWithoutSubscribersIsDropped(t *testing.T) {
	bus := New()
	assert.NotPanics(t, func() {
		bus.Emit(&PermissionError{Path: "content", Operation: OpList})
	})
}

func TestBus_UnsubscribeIsIdempotent(t *testing.T) {
	bus := New()

	calls := 0
	unsubscribe := bus.Subscribe(func(*PermissionError) { calls++ })
	other := 0
	bus.Subscribe(func(*PermissionError) { other++ })

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 1, bus.Len())

	bus.Emit(&PermissionError{Path: "content/c1", Operation: OpGet})
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, other)
}

func TestBus_HandlerMayUnsubscribeDuringEmit(t *testing.T) {
	bus := New()

	var unsubscribe func()
	calls := 0
	unsubscribe = bus.Subscribe(func(*PermissionError) {
		calls++
		unsubscribe()
	})

	bus.Emit(&PermissionError{Path: "a", Operation: OpGet})
	bus.Emit(&PermissionError{Path: "b", Operation: OpGet})
	assert.Equal(t, 1, calls)
}

func TestPermissionError_Message(t *testing.T) {
	err := &PermissionError{Path: "content/c1/reviews", Operation: OpCreate}
	assert.Equal(t, "permission denied: create on content/c1/reviews", err.Error())
}

func TestLogListener(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	LogListener(logger)(&PermissionError{Path: "users/u2", Operation: OpGet})

	assert.Contains(t, buf.String(), `"msg":"permission_denied"`)
	assert.Contains(t, buf.String(), `"path":"users/u2"`)
	assert.Contains(t, buf.String(), `"operation":"get"`)
}

func TestColorListener(t *testing.T) {
	var buf bytes.Buffer

	ColorListener(&buf)(&PermissionError{
		Path:                "content/c1/reviews",
		Operation:           OpCreate,
		RequestResourceData: map[string]any{"rating": 5},
	})

	out := buf.String()
	assert.Contains(t, out, "Missing or insufficient permissions")
	assert.Contains(t, out, "content/c1/reviews")
	assert.Contains(t, out, "create")
	assert.Contains(t, out, `{"rating":5}`)
}
