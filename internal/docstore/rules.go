// Package docstore serves document and collection reads under declarative
// access rules and turns change-feed signals into live snapshots.
package docstore

import (
	"errors"
	"fmt"

	"afriotv/internal/docpath"
	"afriotv/internal/errbus"
)

var ErrPermissionDenied = errors.New("permission denied")

// Caller is the identity a request is evaluated for. The zero value is an
// anonymous caller.
type Caller struct {
	UID   string
	Admin bool
}

func (c Caller) SignedIn() bool { return c.UID != "" }

// DeniedError reports which path and operation a rule rejected.
type DeniedError struct {
	Path      string
	Operation errbus.Operation
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s on %s", e.Operation, e.Path)
}

func (e *DeniedError) Unwrap() error { return ErrPermissionDenied }

// Request is one access to evaluate. AuthorUID is the user id carried by
// the data being written, when the rule depends on it.
type Request struct {
	Caller    Caller
	Operation errbus.Operation
	Path      docpath.Path
	AuthorUID string
}

type rule func(r Request) bool

func public(Request) bool { return true }

func admin(r Request) bool { return r.Caller.Admin }

func owner(r Request) bool {
	return r.Caller.SignedIn() && r.Caller.UID == r.Path.Owner
}

func author(r Request) bool {
	return r.Caller.SignedIn() && r.AuthorUID == r.Caller.UID
}

// rules lists every allowed (kind, operation) pair; anything absent is
// denied. Content and reviews are write-once.
var rules = map[docpath.Kind]map[errbus.Operation]rule{
	docpath.KindContentCollection: {
		errbus.OpList:   public,
		errbus.OpCreate: admin,
	},
	docpath.KindContentDoc: {
		errbus.OpGet: public,
	},
	docpath.KindReviewCollection: {
		errbus.OpList:   public,
		errbus.OpCreate: author,
	},
	docpath.KindReviewDoc: {
		errbus.OpGet: public,
	},
	docpath.KindUserDoc: {
		errbus.OpGet:    owner,
		errbus.OpCreate: owner,
		errbus.OpUpdate: owner,
	},
	docpath.KindWatchlistCollection: {
		errbus.OpList:   owner,
		errbus.OpCreate: owner,
	},
	docpath.KindWatchlistDoc: {
		errbus.OpGet:    owner,
		errbus.OpDelete: owner,
	},
}

// Authorize returns a *DeniedError unless a rule allows r.
func Authorize(r Request) error {
	if allow, ok := rules[r.Path.Kind][r.Operation]; ok && allow(r) {
		return nil
	}
	return &DeniedError{Path: r.Path.Raw, Operation: r.Operation}
}

// Check parses raw and authorizes op on it for c.
func Check(c Caller, op errbus.Operation, raw string) (docpath.Path, error) {
	p, err := docpath.Parse(raw)
	if err != nil {
		return docpath.Path{}, err
	}
	if err := Authorize(Request{Caller: c, Operation: op, Path: p}); err != nil {
		return docpath.Path{}, err
	}
	return p, nil
}
