package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc"
	"golang.org/x/oauth2"

	"userflow-backend/internal/shared"
)

const googleIssuer = "https://accounts.google.com"

// GoogleClaims are the verified identity claims extracted from a Google ID
// token. Signature verification is delegated entirely to the provider
// library.
type GoogleClaims struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleVerifier drives the OAuth2 authorization-code flow against Google and
// validates the resulting ID token.
type GoogleVerifier struct {
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
}

// NewGoogleVerifier discovers the Google OIDC endpoints and prepares an ID
// token verifier bound to the client ID.
func NewGoogleVerifier(ctx context.Context, clientID, clientSecret, redirectURL string) (*GoogleVerifier, error) {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("google oauth configuration is incomplete")
	}

	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, err
	}

	return &GoogleVerifier{
		oauth2Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  redirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// AuthCodeURL builds the provider authorization URL for the given CSRF state.
func (g *GoogleVerifier) AuthCodeURL(state string) string {
	return g.oauth2Config.AuthCodeURL(state)
}

// Exchange trades the authorization code for tokens, verifies the ID token
// and returns the identity claims.
func (g *GoogleVerifier) Exchange(ctx context.Context, code string) (*GoogleClaims, error) {
	token, err := g.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange failed: %v", shared.ErrUpstream, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("%w: no id_token in token response", shared.ErrUnauthorized)
	}

	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUnauthorized, err)
	}

	var claims GoogleClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUnauthorized, err)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: id token missing email claim", shared.ErrUnauthorized)
	}
	return &claims, nil
}

// GenerateState produces a random value for the OAuth state cookie.
func GenerateState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
