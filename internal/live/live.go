// Package live turns push-based document and collection subscriptions into
// observable state with a loading flag.
package live

// Subscribable is a reference to a single document or a collection query
// that can be observed. Subscribe delivers every snapshot to onData until
// the returned function is called; a failure is reported once to onError.
type Subscribable[T any] interface {
	Path() string
	Subscribe(onData func(T), onError func(error)) (unsubscribe func())
}

// Doc is one collection element tagged with its backend-assigned identifier.
type Doc[T any] struct {
	ID   string `json:"id"`
	Data T      `json:"data"`
}

// DocState is the observed value of a single document. Data is nil while
// loading, when the document does not exist, when there is no reference and
// after a failure.
type DocState[T any] struct {
	Data      *T
	IsLoading bool
}

// CollState is the observed value of a collection query.
type CollState[T any] struct {
	Data      []Doc[T]
	IsLoading bool
}

// IDs returns the identifiers of every element in order.
func (s CollState[T]) IDs() []string {
	ids := make([]string, 0, len(s.Data))
	for _, d := range s.Data {
		ids = append(ids, d.ID)
	}
	return ids
}
