package live

import (
	"context"

	"afriotv/internal/errbus"
)

// Document observes a single document reference. A failed subscription is
// reported on the bus as a denied "get".
type Document[T any] struct {
	w *watcher[*T]
}

func NewDocument[T any](bus *errbus.Bus) *Document[T] {
	return &Document[T]{w: newWatcher[*T](bus, errbus.OpGet)}
}

// Watch replaces the current reference. The previous subscription is torn
// down before the new one is opened; a nil ref yields {nil, false}.
func (d *Document[T]) Watch(ref Subscribable[*T]) {
	d.w.watch(ref)
}

func (d *Document[T]) State() DocState[T] {
	data, loading := d.w.snapshot()
	return DocState[T]{Data: data, IsLoading: loading}
}

// OnChange calls fn with every new state until the returned function is
// called. fn runs on the goroutine that delivered the snapshot.
func (d *Document[T]) OnChange(fn func(DocState[T])) func() {
	return d.w.listen(func(data *T, loading bool) {
		fn(DocState[T]{Data: data, IsLoading: loading})
	})
}

// Wait blocks until the first result for the current reference arrives.
func (d *Document[T]) Wait(ctx context.Context) (DocState[T], error) {
	data, err := d.w.wait(ctx)
	if err != nil {
		return DocState[T]{IsLoading: true}, err
	}
	return DocState[T]{Data: data}, nil
}

// Close releases the subscription. Late callbacks are ignored.
func (d *Document[T]) Close() {
	d.w.close()
}
