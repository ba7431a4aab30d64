// Package auth provides app-level Spotify authentication via the client-credentials grant.
package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// earlyRefresh renews tokens this long before they expire.
const earlyRefresh = 60 * time.Second

var (
	// ErrMissingCredentials is returned when the Spotify client ID or secret is empty.
	ErrMissingCredentials = errors.New("missing SPOTIFY_ID or SPOTIFY_SECRET")
)

// Authenticator issues client-credentials tokens for catalog requests.
// No user is involved, so only public catalog endpoints are reachable.
type Authenticator struct {
	config *clientcredentials.Config
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithTokenURL overrides the Spotify token endpoint.
func WithTokenURL(url string) Option {
	return func(a *Authenticator) {
		a.config.TokenURL = url
	}
}

// New creates an Authenticator.
// Returns ErrMissingCredentials if either credential is empty.
func New(clientID, clientSecret string, opts ...Option) (*Authenticator, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrMissingCredentials
	}

	a := &Authenticator{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     spotifyauth.TokenURL,
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// TokenSource returns a cached token source that refreshes shortly before expiry.
func (a *Authenticator) TokenSource(ctx context.Context) oauth2.TokenSource {
	return oauth2.ReuseTokenSourceWithExpiry(nil, a.config.TokenSource(ctx), earlyRefresh)
}

// HTTPClient returns an HTTP client that authorizes every request.
func (a *Authenticator) HTTPClient(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, a.TokenSource(ctx))
}
