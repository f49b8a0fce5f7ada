// Package errbus carries permission-denial reports from data-access code to
// whichever listener is responsible for surfacing them.
package errbus

import (
	"fmt"
	"sync"
)

// Operation is the kind of data access that was denied.
type Operation string

const (
	OpGet    Operation = "get"
	OpList   Operation = "list"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// PermissionError describes a denied read or write.
type PermissionError struct {
	Path                string    `json:"path"`
	Operation           Operation `json:"operation"`
	RequestResourceData any       `json:"requestResourceData,omitempty"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s on %s", e.Operation, e.Path)
}

// Handler receives every PermissionError emitted after it subscribed.
type Handler func(*PermissionError)

type subscriber struct {
	id uint64
	fn Handler
}

// Bus is a synchronous fan-out of PermissionErrors. The zero value is not
// usable; construct with New.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscriber
}

func New() *Bus {
	return &Bus{}
}

// Subscribe registers h and returns a function that removes it. Calling the
// returned function more than once is a no-op.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, fn: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Emit delivers e to every current subscriber in registration order. With
// no subscribers the event is dropped.
func (b *Bus) Emit(e *PermissionError) {
	if e == nil {
		return
	}
	b.mu.RLock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	// handlers may unsubscribe themselves, so they run outside the lock
	for _, s := range subs {
		s.fn(e)
	}
}

// Len reports the number of registered subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
