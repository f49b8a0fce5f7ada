package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readAllTransport struct {
	got []byte
	err error
}

func (t *readAllTransport) UploadAvatar(_ context.Context, uid, filename string, r io.Reader, _ int64) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	t.got = b
	if t.err != nil {
		return "", t.err
	}
	return "https://cdn.example.com/avatars/" + uid + "/" + filename, nil
}

type recorder struct {
	mu     sync.Mutex
	states []State
	last   Progress
}

func (r *recorder) record(p Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 || r.states[len(r.states)-1] != p.State {
		r.states = append(r.states, p.State)
	}
	r.last = p
}

func ctxTimeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestStart_RejectsLargeFileBeforeNetwork(t *testing.T) {
	tr := &readAllTransport{}

	task, err := Start(context.Background(), tr, "u1", "me.png", bytes.NewReader(nil), MaxAvatarSize+1, nil)

	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Nil(t, task)
	assert.Nil(t, tr.got)
}

func TestTask_Success(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 4096)
	tr := &readAllTransport{}
	rec := &recorder{}

	task, err := Start(context.Background(), tr, "u1", "me.png", bytes.NewReader(data), int64(len(data)), rec.record)
	require.NoError(t, err)

	url, err := task.Wait(ctxTimeout(t))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/avatars/u1/me.png", url)
	assert.Equal(t, data, tr.got)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []State{StateRunning, StateSuccess}, rec.states)
	assert.Equal(t, int64(4096), rec.last.BytesTransferred)
	assert.Equal(t, 100.0, rec.last.Percent())
}

func TestTask_TransportError(t *testing.T) {
	tr := &readAllTransport{err: errors.New("bucket unavailable")}

	task, err := Start(context.Background(), tr, "u1", "me.png", bytes.NewReader([]byte("abc")), 3, nil)
	require.NoError(t, err)

	_, err = task.Wait(ctxTimeout(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unavailable")
	assert.Equal(t, StateError, task.Progress().State)
}

type steppedTransport struct {
	firstRead chan struct{}
	proceed   chan struct{}
}

func (s *steppedTransport) UploadAvatar(_ context.Context, _, _ string, r io.Reader, _ int64) (string, error) {
	buf := make([]byte, 4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	close(s.firstRead)
	<-s.proceed
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	return "https://cdn.example.com/a.png", nil
}

func TestTask_PauseAndResume(t *testing.T) {
	tr := &steppedTransport{firstRead: make(chan struct{}), proceed: make(chan struct{})}
	data := []byte("0123456789")

	task, err := Start(context.Background(), tr, "u1", "a.png", bytes.NewReader(data), int64(len(data)), nil)
	require.NoError(t, err)

	<-tr.firstRead
	task.Pause()
	close(tr.proceed)

	time.Sleep(30 * time.Millisecond)
	p := task.Progress()
	assert.Equal(t, StatePaused, p.State)
	assert.Equal(t, int64(4), p.BytesTransferred)

	task.Resume()
	url, err := task.Wait(ctxTimeout(t))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", url)
	assert.Equal(t, StateSuccess, task.Progress().State)
}

func TestTask_CancelWhilePaused(t *testing.T) {
	tr := &steppedTransport{firstRead: make(chan struct{}), proceed: make(chan struct{})}
	data := []byte("0123456789")

	task, err := Start(context.Background(), tr, "u1", "a.png", bytes.NewReader(data), int64(len(data)), nil)
	require.NoError(t, err)

	<-tr.firstRead
	task.Pause()
	close(tr.proceed)
	task.Cancel()

	_, err = task.Wait(ctxTimeout(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateError, task.Progress().State)
}

func TestProgress_Percent(t *testing.T) {
	assert.Equal(t, 0.0, Progress{}.Percent())
	assert.Equal(t, 50.0, Progress{BytesTransferred: 5, TotalBytes: 10}.Percent())
}
