package websocket

import (
	"encoding/json"
	"errors"
	"log/slog"

	"afriotv/internal/docstore"
	"afriotv/internal/errbus"
	"afriotv/internal/live"
)

// Frame protocol: the server only ever sends; each connection carries one
// live query.
type FrameType string

const (
	TypeSnapshot FrameType = "snapshot"
	TypeError    FrameType = "error"
)

// Frame is one server to client message. Collection snapshots fill Docs,
// document snapshots set Doc (null when the document does not exist).
type Frame struct {
	Type      FrameType        `json:"type"`
	Path      string           `json:"path"`
	Docs      *[]live.Doc[any] `json:"docs,omitempty"`
	Doc       *json.RawMessage `json:"doc,omitempty"`
	Operation errbus.Operation `json:"operation,omitempty"`
	Error     string           `json:"error,omitempty"`
}

var nullDoc = json.RawMessage("null")

// NewSnapshotFrame converts a store snapshot.
func NewSnapshotFrame(s docstore.Snapshot) (*Frame, error) {
	f := &Frame{Type: TypeSnapshot, Path: s.Path}
	if s.Collection {
		docs := s.Docs
		if docs == nil {
			docs = []live.Doc[any]{}
		}
		f.Docs = &docs
		return f, nil
	}

	raw := nullDoc
	if s.Doc != nil {
		b, err := json.Marshal(s.Doc)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	f.Doc = &raw
	return f, nil
}

// NewErrorFrame reports a failed query. The operation is the one a denial
// names, otherwise the read kind of the path.
func NewErrorFrame(path string, collection bool, err error) *Frame {
	op := errbus.OpGet
	if collection {
		op = errbus.OpList
	}
	var denied *docstore.DeniedError
	if errors.As(err, &denied) {
		op = denied.Operation
	}
	return &Frame{Type: TypeError, Path: path, Operation: op, Error: err.Error()}
}

// ToJSON: marshal Frame struct to JSON
func (f *Frame) ToJSON() ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		slog.Error("frame_marshal_failed", "path", f.Path, "error", err)
		return nil, err
	}
	return data, nil
}

// FrameFromJSON: unmarshal JSON data to Frame struct
func FrameFromJSON(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}
