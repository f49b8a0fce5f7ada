package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"afriotv/internal/config"
	"afriotv/internal/microservices/http-api/models"
	"afriotv/internal/microservices/http-api/repository"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

var (
	ErrOAuthDisabled    = errors.New("social sign-in is not configured")
	ErrEmailNotVerified = errors.New("identity provider did not verify the email")
)

// Identity is what the provider asserts about the signed-in person.
type Identity struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// identityProvider hides the OIDC round trips.
type identityProvider interface {
	AuthCodeURL(state, challenge string) string
	Exchange(ctx context.Context, code, verifier string) (*Identity, error)
}

type OAuthService interface {
	LoginURL(ctx context.Context) (url, state string, err error)
	Callback(ctx context.Context, state, code string) (*TokenPair, *models.User, error)
}

type oauthService struct {
	provider identityProvider
	states   StateStore
	pkce     PKCEService
	userRepo repository.UserRepository
	auth     AuthService
	logger   *slog.Logger
}

// NewOAuthService discovers the issuer and returns a service that signs
// users in through it.
func NewOAuthService(
	ctx context.Context,
	cfg config.OIDCConfig,
	states StateStore,
	userRepo repository.UserRepository,
	auth AuthService,
	logger *slog.Logger,
) (OAuthService, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", cfg.Issuer, err)
	}
	idp := &oidcProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}
	return newOAuthService(idp, states, NewPKCEService(), userRepo, auth, logger), nil
}

func newOAuthService(
	provider identityProvider,
	states StateStore,
	pkce PKCEService,
	userRepo repository.UserRepository,
	auth AuthService,
	logger *slog.Logger,
) *oauthService {
	return &oauthService{
		provider: provider,
		states:   states,
		pkce:     pkce,
		userRepo: userRepo,
		auth:     auth,
		logger:   logger,
	}
}

func (s *oauthService) LoginURL(ctx context.Context) (string, string, error) {
	state, err := randomToken(24)
	if err != nil {
		return "", "", err
	}
	verifier, err := s.pkce.GenerateCodeVerifier()
	if err != nil {
		return "", "", err
	}
	if err := s.states.Put(ctx, state, verifier, oauthStateTTL); err != nil {
		return "", "", err
	}
	return s.provider.AuthCodeURL(state, s.pkce.GenerateCodeChallenge(verifier)), state, nil
}

// Callback finishes a sign-in, creating the account on first use.
func (s *oauthService) Callback(ctx context.Context, state, code string) (*TokenPair, *models.User, error) {
	verifier, err := s.states.Take(ctx, state)
	if err != nil {
		return nil, nil, err
	}

	id, err := s.provider.Exchange(ctx, code, verifier)
	if err != nil {
		return nil, nil, err
	}
	if id.Email == "" || !id.EmailVerified {
		return nil, nil, ErrEmailNotVerified
	}

	email := normalizeEmail(id.Email)
	user, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = &models.User{
			Email:       email,
			DisplayName: strings.TrimSpace(id.Name),
			PhotoURL:    id.Picture,
			Role:        models.RoleUser,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, nil, err
		}
		s.logger.Info("oauth_user_created", "uid", user.ID)
	case err != nil:
		return nil, nil, err
	}

	tokens, err := s.auth.IssueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return tokens, user, nil
}

type oidcProvider struct {
	config   *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

func (p *oidcProvider) AuthCodeURL(state, challenge string) string {
	return p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

func (p *oidcProvider) Exchange(ctx context.Context, code, verifier string) (*Identity, error) {
	token, err := p.config.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("no id_token in token response")
	}
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}
	var id Identity
	if err := idToken.Claims(&id); err != nil {
		return nil, fmt.Errorf("parse id token claims: %w", err)
	}
	return &id, nil
}
