package client

import (
	"context"
	"net/url"
	"time"

	"afriotv/internal/session"

	"github.com/golang-jwt/jwt/v5"
)

// Credentials are the tokens of the signed-in user.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Email        string `json:"email"`
	ExpiresAt    int64  `json:"expires_at"`
}

// TokenStore persists Credentials.
type TokenStore interface {
	Save(*Credentials) error
	Load() (*Credentials, error)
	Clear() error
}

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
}

type authResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         User   `json:"user"`
}

// SignUp creates an account and signs it in.
func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*User, error) {
	var res authResponse
	err := c.do(ctx, "POST", "/api/auth/register", map[string]string{
		"email":        email,
		"password":     password,
		"display_name": displayName,
	}, &res)
	if err != nil {
		return nil, err
	}
	c.signedIn(&res)
	return &res.User, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*User, error) {
	var res authResponse
	err := c.do(ctx, "POST", "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	if err != nil {
		return nil, err
	}
	c.signedIn(&res)
	return &res.User, nil
}

// OAuthLoginURL starts social sign-in. The browser ends up on the callback
// URL; pass its state and code to CompleteOAuth.
func (c *Client) OAuthLoginURL(ctx context.Context) (loginURL, state string, err error) {
	var res struct {
		URL   string `json:"url"`
		State string `json:"state"`
	}
	if err := c.do(ctx, "GET", "/api/auth/oauth/login", nil, &res); err != nil {
		return "", "", err
	}
	return res.URL, res.State, nil
}

func (c *Client) CompleteOAuth(ctx context.Context, state, code string) (*User, error) {
	q := url.Values{"state": {state}, "code": {code}}
	var res authResponse
	if err := c.do(ctx, "GET", "/api/auth/oauth/callback?"+q.Encode(), nil, &res); err != nil {
		return nil, err
	}
	c.signedIn(&res)
	return &res.User, nil
}

// SignOut revokes the refresh token and forgets the credentials. Local
// state is cleared even when the server cannot be reached.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	creds := c.creds
	c.mu.Unlock()

	var err error
	if creds != nil && creds.RefreshToken != "" {
		err = c.send(ctx, "POST", "/api/auth/logout", mustJSON(map[string]string{"refresh_token": creds.RefreshToken}), nil)
	}
	c.setSession(nil, nil)
	if c.store != nil {
		if cerr := c.store.Clear(); cerr != nil {
			c.logger.Warn("token_store_clear_failed", "error", cerr)
		}
	}
	return err
}

func (c *Client) signedIn(res *authResponse) {
	creds := &Credentials{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		Email:        res.User.Email,
		ExpiresAt:    time.Now().Add(time.Duration(res.ExpiresIn) * time.Second).Unix(),
	}
	id := &session.Identity{
		UID:         res.User.ID,
		Email:       res.User.Email,
		DisplayName: res.User.DisplayName,
		PhotoURL:    res.User.PhotoURL,
	}
	c.setSession(creds, id)
	c.persist(creds)
}

func (c *Client) persist(creds *Credentials) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(creds); err != nil {
		c.logger.Warn("token_store_save_failed", "error", err)
	}
}

// setSession swaps the credentials and notifies observers when the
// signed-in user changed.
func (c *Client) setSession(creds *Credentials, id *session.Identity) {
	c.mu.Lock()
	prev := c.identity
	c.creds = creds
	c.identity = id
	changed := (prev == nil) != (id == nil) || (prev != nil && id != nil && *prev != *id)
	obs := make([]func(*session.Identity), 0, len(c.observers))
	for _, fn := range c.observers {
		obs = append(obs, fn)
	}
	c.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range obs {
		fn(id)
	}
}

// Identity returns the signed-in user, or nil.
func (c *Client) Identity() *session.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// OnAuthStateChanged calls fn with the current identity and again after
// every sign-in and sign-out.
func (c *Client) OnAuthStateChanged(fn func(*session.Identity)) func() {
	c.mu.Lock()
	c.nextObs++
	id := c.nextObs
	c.observers[id] = fn
	current := c.identity
	c.mu.Unlock()

	fn(current)
	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// ForceRefresh exchanges the refresh token for a new access token and
// returns the claims it carries. The server re-reads the user's role, so a
// promotion or demotion shows up here.
func (c *Client) ForceRefresh(ctx context.Context) (session.Claims, error) {
	token, err := c.refresh(ctx)
	if err != nil {
		return session.Claims{}, err
	}
	return ClaimsFromToken(token), nil
}

func (c *Client) refresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	creds := c.creds
	identity := c.identity
	c.mu.Unlock()
	if creds == nil || creds.RefreshToken == "" {
		return "", session.ErrNotSignedIn
	}

	var res struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	err := c.send(ctx, "POST", "/api/auth/refresh", mustJSON(map[string]string{"refresh_token": creds.RefreshToken}), &res)
	if err != nil {
		return "", err
	}

	next := &Credentials{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		Email:        creds.Email,
		ExpiresAt:    time.Now().Add(time.Duration(res.ExpiresIn) * time.Second).Unix(),
	}
	c.setSession(next, identity)
	c.persist(next)
	return res.AccessToken, nil
}

// ClaimsFromToken reads the privilege claims of an access token without
// verifying it; the server verifies every request.
func ClaimsFromToken(token string) session.Claims {
	m := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, m); err != nil {
		return session.Claims{}
	}
	return session.ClaimsFromMap(m)
}

// identityFromToken rebuilds the identity of restored credentials.
func identityFromToken(token string) *session.Identity {
	m := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, m); err != nil {
		return nil
	}
	sub, _ := m.GetSubject()
	if sub == "" {
		return nil
	}
	email, _ := m["email"].(string)
	name, _ := m["name"].(string)
	return &session.Identity{UID: sub, Email: email, DisplayName: name}
}
