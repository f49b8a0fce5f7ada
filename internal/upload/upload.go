// Package upload runs a resumable, observable avatar upload.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// MaxAvatarSize is the largest accepted avatar, checked before any network
// call is made.
const MaxAvatarSize = 5 << 20

var ErrFileTooLarge = errors.New("file size exceeds 5MB")

type State string

const (
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateError   State = "error"
	StateSuccess State = "success"
)

// Progress is delivered on every state change and on every chunk read.
type Progress struct {
	State            State
	BytesTransferred int64
	TotalBytes       int64
	URL              string
	Err              error
}

// Percent is the transferred share in the 0..100 range.
func (p Progress) Percent() float64 {
	if p.TotalBytes <= 0 {
		return 0
	}
	return float64(p.BytesTransferred) / float64(p.TotalBytes) * 100
}

// Transport stores the bytes read from r and returns the public URL.
type Transport interface {
	UploadAvatar(ctx context.Context, uid, filename string, r io.Reader, size int64) (string, error)
}

// Task is one upload. Reads from the source block while paused.
type Task struct {
	total      int64
	onProgress func(Progress)

	mu     sync.Mutex
	cond   *sync.Cond
	state  State
	sent   int64
	url    string
	err    error
	done   chan struct{}
	cancel context.CancelFunc
}

// Start validates size and begins uploading in the background.
func Start(ctx context.Context, t Transport, uid, filename string, r io.Reader, size int64, onProgress func(Progress)) (*Task, error) {
	if size > MaxAvatarSize {
		return nil, ErrFileTooLarge
	}
	if onProgress == nil {
		onProgress = func(Progress) {}
	}

	ctx, cancel := context.WithCancel(ctx)
	task := &Task{
		total:      size,
		onProgress: onProgress,
		state:      StateRunning,
		done:       make(chan struct{}),
		cancel:     cancel,
	}
	task.cond = sync.NewCond(&task.mu)

	go task.run(ctx, t, uid, filename, &gatedReader{task: task, ctx: ctx, r: r})
	return task, nil
}

func (t *Task) run(ctx context.Context, tr Transport, uid, filename string, r io.Reader) {
	t.emit()
	url, err := tr.UploadAvatar(ctx, uid, filename, r, t.total)

	t.mu.Lock()
	if err != nil {
		t.state = StateError
		t.err = fmt.Errorf("upload avatar: %w", err)
	} else {
		t.state = StateSuccess
		t.url = url
		t.sent = t.total
	}
	t.cond.Broadcast()
	t.mu.Unlock()

	t.emit()
	t.cancel()
	close(t.done)
}

func (t *Task) progress() Progress {
	return Progress{State: t.state, BytesTransferred: t.sent, TotalBytes: t.total, URL: t.url, Err: t.err}
}

func (t *Task) emit() {
	t.mu.Lock()
	p := t.progress()
	t.mu.Unlock()
	t.onProgress(p)
}

// Progress returns the latest snapshot.
func (t *Task) Progress() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress()
}

// Pause holds further reads until Resume. It has no effect once finished.
func (t *Task) Pause() {
	t.mu.Lock()
	if t.state != StateRunning {
		t.mu.Unlock()
		return
	}
	t.state = StatePaused
	t.mu.Unlock()
	t.emit()
}

func (t *Task) Resume() {
	t.mu.Lock()
	if t.state != StatePaused {
		t.mu.Unlock()
		return
	}
	t.state = StateRunning
	t.cond.Broadcast()
	t.mu.Unlock()
	t.emit()
}

// Cancel aborts the upload; it finishes in StateError.
func (t *Task) Cancel() {
	t.cancel()
	t.mu.Lock()
	t.cond.Broadcast()
	t.mu.Unlock()
}

// Wait blocks until the upload finishes and returns its URL.
func (t *Task) Wait(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-t.done:
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.url, t.err
}

type gatedReader struct {
	task *Task
	ctx  context.Context
	r    io.Reader
}

func (g *gatedReader) Read(p []byte) (int, error) {
	t := g.task
	t.mu.Lock()
	for t.state == StatePaused && g.ctx.Err() == nil {
		t.cond.Wait()
	}
	t.mu.Unlock()
	if err := g.ctx.Err(); err != nil {
		return 0, err
	}

	n, err := g.r.Read(p)
	if n > 0 {
		t.mu.Lock()
		t.sent += int64(n)
		t.mu.Unlock()
		t.emit()
	}
	return n, err
}
