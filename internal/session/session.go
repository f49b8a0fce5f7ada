// Package session merges the authentication state, the privilege claims and
// the live profile document into one Session value.
package session

import (
	"context"

	"afriotv/internal/live"
)

type State int

const (
	StateUnknown State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Identity is the signed-in principal as reported by the authentication
// provider.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
}

// Claims are the privilege flags carried by the identity token.
type Claims struct {
	Admin bool `json:"admin"`
}

// ClaimsFromMap reads Claims out of decoded token claims.
func ClaimsFromMap(m map[string]any) Claims {
	admin, _ := m["admin"].(bool)
	return Claims{Admin: admin}
}

// UserProfile is the users/{uid} document.
type UserProfile struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photo_url"`
}

// Session is the merged view handed to the rest of the client.
type Session struct {
	State     State
	Identity  *Identity
	Claims    Claims
	Profile   *UserProfile
	IsLoading bool
}

// UID returns the signed-in user's id, or "" when anonymous.
func (s Session) UID() string {
	if s.State != StateAuthenticated || s.Identity == nil {
		return ""
	}
	return s.Identity.UID
}

// DisplayName prefers the identity's name, then the profile's.
func (s Session) DisplayName() string {
	if s.Identity != nil && s.Identity.DisplayName != "" {
		return s.Identity.DisplayName
	}
	if s.Profile != nil {
		return s.Profile.DisplayName
	}
	return ""
}

// PhotoURL prefers the identity's photo, then the profile's.
func (s Session) PhotoURL() string {
	if s.Identity != nil && s.Identity.PhotoURL != "" {
		return s.Identity.PhotoURL
	}
	if s.Profile != nil {
		return s.Profile.PhotoURL
	}
	return ""
}

// AuthObserver reports the signed-in identity, or nil after sign-out. fn is
// invoked with the current identity when registered.
type AuthObserver interface {
	OnAuthStateChanged(fn func(*Identity)) (unsubscribe func())
}

// TokenSource forces a fresh identity token and returns its claims.
type TokenSource interface {
	ForceRefresh(ctx context.Context) (Claims, error)
}

// ProfileRefs builds the users/{uid} document reference.
type ProfileRefs interface {
	UserProfile(uid string) live.Subscribable[*UserProfile]
}

// Source is the read side of a Resolver used by services that act on behalf
// of the current user.
type Source interface {
	Current() Session
	OnChange(fn func(Session)) (cancel func())
}
