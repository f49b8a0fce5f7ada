package service

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"afriotv/internal/microservices/http-api/models"
	"afriotv/internal/microservices/http-api/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeProvider struct {
	identity      *Identity
	err           error
	gotVerifier   string
	lastChallenge string
}

func (f *fakeProvider) AuthCodeURL(state, challenge string) string {
	f.lastChallenge = challenge
	return "https://idp.example.com/auth?state=" + url.QueryEscape(state)
}

func (f *fakeProvider) Exchange(_ context.Context, _, verifier string) (*Identity, error) {
	f.gotVerifier = verifier
	return f.identity, f.err
}

func newTestOAuth(p *fakeProvider) (*oauthService, *repotest.UserRepository, *repotest.RefreshTokenRepository) {
	auth, users, tokens := newTestAuthService()
	return newOAuthService(p, NewMemoryStateStore(), NewPKCEService(), users, auth, discardLogger()), users, tokens
}

func TestOAuth_CallbackCreatesUser(t *testing.T) {
	p := &fakeProvider{identity: &Identity{Email: "Ada@Example.com", EmailVerified: true, Name: "Ada", Picture: "https://img/ada.png"}}
	svc, users, tokens := newTestOAuth(p)
	ctx := context.Background()

	users.On("FindByEmail", ctx, "ada@example.com").Return(nil, gorm.ErrRecordNotFound)
	users.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "ada@example.com" && u.Password == "" && u.PhotoURL == "https://img/ada.png"
	})).Return(nil)
	tokens.On("Create", ctx, mock.AnythingOfType("*models.RefreshToken")).Return(nil)

	loginURL, state, err := svc.LoginURL(ctx)
	require.NoError(t, err)
	assert.Contains(t, loginURL, url.QueryEscape(state))

	pair, user, err := svc.Callback(ctx, state, "code")

	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, "Ada", user.DisplayName)
	assert.Equal(t, svc.pkce.GenerateCodeChallenge(p.gotVerifier), p.lastChallenge)
	users.AssertExpectations(t)
}

func TestOAuth_StateIsSingleUse(t *testing.T) {
	p := &fakeProvider{identity: &Identity{Email: "ada@example.com", EmailVerified: true}}
	svc, users, tokens := newTestOAuth(p)
	ctx := context.Background()

	users.On("FindByEmail", ctx, "ada@example.com").Return(&models.User{ID: aliceID, Email: "ada@example.com"}, nil)
	tokens.On("Create", ctx, mock.Anything).Return(nil)

	_, state, err := svc.LoginURL(ctx)
	require.NoError(t, err)

	_, _, err = svc.Callback(ctx, state, "code")
	require.NoError(t, err)

	_, _, err = svc.Callback(ctx, state, "code")
	assert.ErrorIs(t, err, ErrUnknownState)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOAuth_UnverifiedEmail(t *testing.T) {
	p := &fakeProvider{identity: &Identity{Email: "ada@example.com"}}
	svc, _, _ := newTestOAuth(p)
	ctx := context.Background()

	_, state, err := svc.LoginURL(ctx)
	require.NoError(t, err)

	_, _, err = svc.Callback(ctx, state, "code")
	assert.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestOAuth_ExchangeError(t *testing.T) {
	p := &fakeProvider{err: errors.New("invalid_grant")}
	svc, _, _ := newTestOAuth(p)
	ctx := context.Background()

	_, state, _ := svc.LoginURL(ctx)
	_, _, err := svc.Callback(ctx, state, "code")

	assert.ErrorContains(t, err, "invalid_grant")
}

func TestMemoryStateStore_Expires(t *testing.T) {
	store := NewMemoryStateStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "s1", "v1", time.Minute))
	now = now.Add(2 * time.Minute)

	_, err := store.Take(ctx, "s1")
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestPKCE_RoundTrip(t *testing.T) {
	pkce := NewPKCEService()
	verifier, err := pkce.GenerateCodeVerifier()
	require.NoError(t, err)

	assert.Len(t, verifier, 43)
	assert.NotEqual(t, pkce.GenerateCodeChallenge(verifier), pkce.GenerateCodeChallenge(verifier+"x"))

	// RFC 7636 appendix B
	assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuZGKFWBaks",
		pkce.GenerateCodeChallenge("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"))
}
