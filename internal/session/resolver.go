package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"afriotv/internal/errbus"
	"afriotv/internal/live"
)

var ErrNotSignedIn = errors.New("not signed in")

// Resolver tracks the current Session. Claims are fetched with a forced
// token refresh on every sign-in and again on RefreshPermissions; they are
// never refreshed implicitly otherwise.
type Resolver struct {
	auth     AuthObserver
	tokens   TokenSource
	profiles ProfileRefs
	logger   *slog.Logger
	profile  *live.Document[UserProfile]

	mu          sync.Mutex
	ctx         context.Context
	authSeen    bool
	state       State
	identity    *Identity
	claims      Claims
	claimsReady bool
	authGen     uint64
	closed      bool
	nextID      int
	listeners   map[int]func(Session)
	onError     func(error)
	stopAuth    func()
	stopProfile func()
}

func NewResolver(auth AuthObserver, tokens TokenSource, profiles ProfileRefs, bus *errbus.Bus, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		auth:      auth,
		tokens:    tokens,
		profiles:  profiles,
		logger:    logger,
		profile:   live.NewDocument[UserProfile](bus),
		ctx:       context.Background(),
		listeners: make(map[int]func(Session)),
	}
}

// OnError sets the handler told about failed claim refreshes. Set it
// before Start to see failures from the first sign-in.
func (r *Resolver) OnError(fn func(error)) {
	r.mu.Lock()
	r.onError = fn
	r.mu.Unlock()
}

// Start registers with the auth observer. ctx bounds the token refreshes
// triggered by auth transitions.
func (r *Resolver) Start(ctx context.Context) {
	r.mu.Lock()
	r.ctx = ctx
	r.mu.Unlock()

	stopProfile := r.profile.OnChange(func(live.DocState[UserProfile]) { r.notify() })
	stopAuth := r.auth.OnAuthStateChanged(r.handleAuth)

	r.mu.Lock()
	r.stopProfile = stopProfile
	r.stopAuth = stopAuth
	r.mu.Unlock()
}

func (r *Resolver) handleAuth(id *Identity) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.authGen++
	gen := r.authGen
	r.authSeen = true
	r.claims = Claims{}
	if id == nil {
		r.state = StateAnonymous
		r.identity = nil
		r.claimsReady = true
	} else {
		cp := *id
		r.state = StateAuthenticated
		r.identity = &cp
		r.claimsReady = false
	}
	ctx := r.ctx
	r.mu.Unlock()

	if id == nil {
		r.profile.Watch(nil)
	} else {
		r.profile.Watch(r.profiles.UserProfile(id.UID))
	}
	r.notify()

	if id != nil {
		_ = r.loadClaims(ctx, gen)
	}
}

// RefreshPermissions forces a new identity token and republishes the
// session with its claims.
func (r *Resolver) RefreshPermissions(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateAuthenticated {
		r.mu.Unlock()
		return ErrNotSignedIn
	}
	gen := r.authGen
	r.mu.Unlock()

	return r.loadClaims(ctx, gen)
}

func (r *Resolver) loadClaims(ctx context.Context, gen uint64) error {
	claims, err := r.tokens.ForceRefresh(ctx)

	r.mu.Lock()
	if gen != r.authGen || r.closed {
		r.mu.Unlock()
		return nil
	}
	r.claimsReady = true
	if err != nil {
		claims = Claims{}
	}
	r.claims = claims
	var uid string
	if r.identity != nil {
		uid = r.identity.UID
	}
	onError := r.onError
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn("claims_refresh_failed", "uid", uid, "error", err)
		if onError != nil {
			onError(err)
		}
	}
	r.notify()
	return err
}

// Current returns the merged session.
func (r *Resolver) Current() Session {
	r.mu.Lock()
	s := Session{State: r.state, Claims: r.claims}
	if r.identity != nil {
		cp := *r.identity
		s.Identity = &cp
	}
	authSeen, claimsReady := r.authSeen, r.claimsReady
	r.mu.Unlock()

	switch {
	case !authSeen:
		s.IsLoading = true
	case s.State == StateAuthenticated:
		prof := r.profile.State()
		s.Profile = prof.Data
		s.IsLoading = prof.IsLoading || !claimsReady
	}
	return s
}

// OnChange calls fn after every transition until cancelled.
func (r *Resolver) OnChange(fn func(Session)) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.listeners[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// Wait blocks until the session has settled.
func (r *Resolver) Wait(ctx context.Context) (Session, error) {
	ready := make(chan struct{}, 1)
	cancel := r.OnChange(func(s Session) {
		if !s.IsLoading {
			select {
			case ready <- struct{}{}:
			default:
			}
		}
	})
	defer cancel()

	if s := r.Current(); !s.IsLoading {
		return s, nil
	}
	select {
	case <-ctx.Done():
		return r.Current(), ctx.Err()
	case <-ready:
		return r.Current(), nil
	}
}

func (r *Resolver) notify() {
	r.mu.Lock()
	fns := make([]func(Session), 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	if len(fns) == 0 {
		return
	}
	s := r.Current()
	for _, fn := range fns {
		fn(s)
	}
}

func (r *Resolver) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	stopAuth, stopProfile := r.stopAuth, r.stopProfile
	r.listeners = make(map[int]func(Session))
	r.mu.Unlock()

	if stopAuth != nil {
		stopAuth()
	}
	if stopProfile != nil {
		stopProfile()
	}
	r.profile.Close()
}
