package live

import (
	"context"

	"afriotv/internal/errbus"
)

// Collection observes a collection query. Failures are reported as a denied
// "list".
type Collection[T any] struct {
	w *watcher[[]Doc[T]]
}

func NewCollection[T any](bus *errbus.Bus) *Collection[T] {
	return &Collection[T]{w: newWatcher[[]Doc[T]](bus, errbus.OpList)}
}

func (c *Collection[T]) Watch(ref Subscribable[[]Doc[T]]) {
	c.w.watch(ref)
}

func (c *Collection[T]) State() CollState[T] {
	data, loading := c.w.snapshot()
	return CollState[T]{Data: data, IsLoading: loading}
}

func (c *Collection[T]) OnChange(fn func(CollState[T])) func() {
	return c.w.listen(func(data []Doc[T], loading bool) {
		fn(CollState[T]{Data: data, IsLoading: loading})
	})
}

func (c *Collection[T]) Wait(ctx context.Context) (CollState[T], error) {
	data, err := c.w.wait(ctx)
	if err != nil {
		return CollState[T]{IsLoading: true}, err
	}
	return CollState[T]{Data: data}, nil
}

func (c *Collection[T]) Close() {
	c.w.close()
}
