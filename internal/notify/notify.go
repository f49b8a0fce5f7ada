// Package notify defines the user-facing notice sink shared by the client
// services.
package notify

// Notice is a short message shown to the user after an action.
type Notice struct {
	Title       string
	Description string
	Destructive bool
}

// Notifier displays notices. Implementations must not block.
type Notifier interface {
	Notify(Notice)
}

// Func adapts a function to Notifier.
type Func func(Notice)

func (f Func) Notify(n Notice) { f(n) }

// Recorder keeps every notice; useful when the caller renders them later.
type Recorder struct {
	Notices []Notice
}

func (r *Recorder) Notify(n Notice) { r.Notices = append(r.Notices, n) }

// Titles returns the title of every recorded notice.
func (r *Recorder) Titles() []string {
	out := make([]string, 0, len(r.Notices))
	for _, n := range r.Notices {
		out = append(out, n.Title)
	}
	return out
}
