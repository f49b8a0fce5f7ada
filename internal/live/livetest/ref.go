// Package livetest provides an in-memory Subscribable for tests.
package livetest

import "sync"

// Ref is a Subscribable whose snapshots are pushed by the test.
type Ref[T any] struct {
	path string

	mu      sync.Mutex
	nextID  int
	subs    map[int]sub[T]
	opened  int
	closed  int
	initial *T
}

type sub[T any] struct {
	onData  func(T)
	onError func(error)
}

func NewRef[T any](path string) *Ref[T] {
	return &Ref[T]{path: path, subs: make(map[int]sub[T])}
}

// WithInitial makes every new subscriber receive v synchronously, the way
// a cached snapshot would be delivered.
func (r *Ref[T]) WithInitial(v T) *Ref[T] {
	r.initial = &v
	return r
}

func (r *Ref[T]) Path() string { return r.path }

func (r *Ref[T]) Subscribe(onData func(T), onError func(error)) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.subs[id] = sub[T]{onData: onData, onError: onError}
	r.opened++
	initial := r.initial
	r.mu.Unlock()

	if initial != nil {
		onData(*initial)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.closed++
			r.mu.Unlock()
		})
	}
}

// Push delivers v to every active subscriber.
func (r *Ref[T]) Push(v T) {
	for _, s := range r.active() {
		s.onData(v)
	}
}

// Fail reports err to every active subscriber.
func (r *Ref[T]) Fail(err error) {
	for _, s := range r.active() {
		s.onError(err)
	}
}

// Active is the number of subscriptions not yet released.
func (r *Ref[T]) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// Opened is the total number of Subscribe calls.
func (r *Ref[T]) Opened() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opened
}

func (r *Ref[T]) active() []sub[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sub[T], 0, len(r.subs))
	for _, s := range r.subs {
		out = append(out, s)
	}
	return out
}

// Stale captures the callbacks of the current subscribers so a test can fire
// them after the subscription was replaced.
func (r *Ref[T]) Stale() (push func(T), fail func(error)) {
	subs := r.active()
	return func(v T) {
			for _, s := range subs {
				s.onData(v)
			}
		}, func(err error) {
			for _, s := range subs {
				s.onError(err)
			}
		}
}
