// Package docpath builds and parses the slash-separated paths that address
// documents and collections.
package docpath

import (
	"errors"
	"strings"
)

var ErrInvalidPath = errors.New("invalid document path")

type Kind int

const (
	KindUnknown Kind = iota
	KindContentCollection
	KindContentDoc
	KindReviewCollection
	KindReviewDoc
	KindUserDoc
	KindWatchlistCollection
	KindWatchlistDoc
)

func (k Kind) String() string {
	switch k {
	case KindContentCollection:
		return "content"
	case KindContentDoc:
		return "content_doc"
	case KindReviewCollection:
		return "reviews"
	case KindReviewDoc:
		return "review_doc"
	case KindUserDoc:
		return "user_doc"
	case KindWatchlistCollection:
		return "watchlist"
	case KindWatchlistDoc:
		return "watchlist_doc"
	default:
		return "unknown"
	}
}

// IsCollection reports whether the kind addresses a collection.
func (k Kind) IsCollection() bool {
	switch k {
	case KindContentCollection, KindReviewCollection, KindWatchlistCollection:
		return true
	}
	return false
}

// Path is a parsed document or collection path. Owner is the user segment
// for users/ paths; ContentID and DocID fill in the remaining segments.
type Path struct {
	Kind      Kind
	Raw       string
	ContentID string
	Owner     string
	DocID     string
}

func (p Path) String() string { return p.Raw }

// Parent returns the collection a document path belongs to.
func (p Path) Parent() string {
	i := strings.LastIndex(p.Raw, "/")
	if i < 0 {
		return ""
	}
	return p.Raw[:i]
}

// Parse validates raw against the known layouts:
//
//	content
//	content/{id}
//	content/{id}/reviews
//	content/{id}/reviews/{reviewId}
//	users/{uid}
//	users/{uid}/watchlist
//	users/{uid}/watchlist/{entryId}
func Parse(raw string) (Path, error) {
	raw = strings.Trim(raw, "/")
	segs := strings.Split(raw, "/")
	for _, s := range segs {
		if s == "" {
			return Path{}, ErrInvalidPath
		}
	}
	p := Path{Raw: raw}

	switch {
	case segs[0] == "content" && len(segs) == 1:
		p.Kind = KindContentCollection
	case segs[0] == "content" && len(segs) == 2:
		p.Kind, p.ContentID, p.DocID = KindContentDoc, segs[1], segs[1]
	case segs[0] == "content" && len(segs) == 3 && segs[2] == "reviews":
		p.Kind, p.ContentID = KindReviewCollection, segs[1]
	case segs[0] == "content" && len(segs) == 4 && segs[2] == "reviews":
		p.Kind, p.ContentID, p.DocID = KindReviewDoc, segs[1], segs[3]
	case segs[0] == "users" && len(segs) == 2:
		p.Kind, p.Owner, p.DocID = KindUserDoc, segs[1], segs[1]
	case segs[0] == "users" && len(segs) == 3 && segs[2] == "watchlist":
		p.Kind, p.Owner = KindWatchlistCollection, segs[1]
	case segs[0] == "users" && len(segs) == 4 && segs[2] == "watchlist":
		p.Kind, p.Owner, p.DocID = KindWatchlistDoc, segs[1], segs[3]
	default:
		return Path{}, ErrInvalidPath
	}
	return p, nil
}

func Content() string { return "content" }
func ContentDoc(id string) string { return "content/" + id }
func Reviews(contentID string) string { return "content/" + contentID + "/reviews" }
func User(uid string) string { return "users/" + uid }
func Watchlist(uid string) string { return "users/" + uid + "/watchlist" }
func WatchlistEntry(uid, entryID string) string {
	return Watchlist(uid) + "/" + entryID
}
