package live

import (
	"context"
	"sync"

	"afriotv/internal/errbus"
)

// watcher owns at most one active subscription. Every Watch bumps gen, and
// callbacks carrying an older gen are dropped, so a replaced or closed
// subscription can never overwrite newer state.
type watcher[V any] struct {
	bus *errbus.Bus
	op  errbus.Operation

	mu        sync.Mutex
	gen       uint64
	failedGen uint64
	unsub     func()
	data      V
	loading   bool
	closed    bool
	nextID    int
	listeners map[int]func(V, bool)
}

func newWatcher[V any](bus *errbus.Bus, op errbus.Operation) *watcher[V] {
	return &watcher[V]{
		bus:       bus,
		op:        op,
		loading:   true,
		listeners: make(map[int]func(V, bool)),
	}
}

func (w *watcher[V]) watch(ref Subscribable[V]) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	prev := w.unsub
	w.unsub = nil
	w.gen++
	gen := w.gen
	var zero V
	w.data = zero
	w.loading = ref != nil
	w.mu.Unlock()

	if prev != nil {
		prev()
	}
	w.notify()

	if ref == nil {
		return
	}

	path := ref.Path()
	unsub := ref.Subscribe(
		func(v V) { w.push(gen, v) },
		func(error) { w.fail(gen, path) },
	)

	w.mu.Lock()
	if w.gen != gen || w.closed {
		w.mu.Unlock()
		unsub()
		return
	}
	w.unsub = unsub
	w.mu.Unlock()
}

func (w *watcher[V]) push(gen uint64, v V) {
	w.mu.Lock()
	if gen != w.gen || w.closed || w.failedGen == gen {
		w.mu.Unlock()
		return
	}
	w.data = v
	w.loading = false
	w.mu.Unlock()
	w.notify()
}

func (w *watcher[V]) fail(gen uint64, path string) {
	w.mu.Lock()
	if gen != w.gen || w.closed || w.failedGen == gen {
		w.mu.Unlock()
		return
	}
	w.failedGen = gen
	var zero V
	w.data = zero
	w.loading = false
	w.mu.Unlock()

	if w.bus != nil {
		w.bus.Emit(&errbus.PermissionError{Path: path, Operation: w.op})
	}
	w.notify()
}

func (w *watcher[V]) snapshot() (V, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.data, w.loading
}

func (w *watcher[V]) notify() {
	w.mu.Lock()
	data, loading := w.data, w.loading
	fns := make([]func(V, bool), 0, len(w.listeners))
	for _, fn := range w.listeners {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(data, loading)
	}
}

func (w *watcher[V]) listen(fn func(V, bool)) func() {
	w.mu.Lock()
	w.nextID++
	id := w.nextID
	w.listeners[id] = fn
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.listeners, id)
		w.mu.Unlock()
	}
}

// wait blocks until the watcher leaves the loading state.
func (w *watcher[V]) wait(ctx context.Context) (V, error) {
	ready := make(chan struct{}, 1)
	stop := w.listen(func(_ V, loading bool) {
		if !loading {
			select {
			case ready <- struct{}{}:
			default:
			}
		}
	})
	defer stop()

	if data, loading := w.snapshot(); !loading {
		return data, nil
	}
	select {
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	case <-ready:
		data, _ := w.snapshot()
		return data, nil
	}
}

func (w *watcher[V]) close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.gen++
	unsub := w.unsub
	w.unsub = nil
	w.listeners = make(map[int]func(V, bool))
	w.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}
