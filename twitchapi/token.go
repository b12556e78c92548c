package twitchapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultTokenURL = "https://id.twitch.tv/oauth2/token"
	// RequestTimeout bounds every call to the auth and Helix endpoints.
	RequestTimeout = 15 * time.Second
)

// AppTokenSource fetches Twitch app access (client credentials) tokens.
// It keeps no cache: the caller owns the token and asks for a new
// one at startup and whenever Helix answers 401.
type AppTokenSource struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	HTTPClient   *http.Client
}

// Fetch performs one client-credentials exchange and returns the access token.
// Non-2xx answers and transport failures are returned as errors; there is no retry.
func (ts *AppTokenSource) Fetch(ctx context.Context) (string, error) {
	if ts.ClientID == "" || ts.ClientSecret == "" {
		return "", errors.New("missing client id/secret for twitch app token")
	}
	tokenURL := ts.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	cc := &clientcredentials.Config{
		ClientID:     ts.ClientID,
		ClientSecret: ts.ClientSecret,
		TokenURL:     tokenURL,
		// Twitch expects the credentials as form fields, not basic auth.
		AuthStyle: oauth2.AuthStyleInParams,
	}

	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()
	if ts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, ts.HTTPClient)
	}

	tok, err := cc.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("twitch token request failed: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("empty access_token in twitch response")
	}
	return tok.AccessToken, nil
}
