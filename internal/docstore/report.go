package docstore

import (
	"errors"

	"afriotv/internal/errbus"
	"afriotv/internal/live"
)

// Reporter serves live queries like Store and reports every denied one on
// bus.
type Reporter struct {
	store *Store
	bus   *errbus.Bus
}

func Reporting(s *Store, bus *errbus.Bus) *Reporter {
	return &Reporter{store: s, bus: bus}
}

func (r *Reporter) Listen(c Caller, raw string) (live.Subscribable[Snapshot], error) {
	q, err := r.store.Listen(c, raw)
	if err != nil {
		return nil, err
	}
	return &reportingQuery{Subscribable: q, bus: r.bus}, nil
}

type reportingQuery struct {
	live.Subscribable[Snapshot]
	bus *errbus.Bus
}

func (q *reportingQuery) Subscribe(onData func(Snapshot), onError func(error)) func() {
	return q.Subscribable.Subscribe(onData, func(err error) {
		var denied *DeniedError
		if errors.As(err, &denied) {
			q.bus.Emit(&errbus.PermissionError{Path: denied.Path, Operation: denied.Operation})
		}
		onError(err)
	})
}
