// Package spotify provides the catalog search collaborator backed by the Spotify Web API.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"github.com/justestif/go-image-to-song/internal/auth"
	"github.com/justestif/go-image-to-song/internal/breaker"
	"github.com/justestif/go-image-to-song/internal/recommend"
)

const (
	defaultMarket = "US"
	defaultLimit  = 10
	maxLimit      = 50
)

// Client searches the Spotify catalog.
type Client struct {
	api           *spotify.Client
	market        string
	audioFeatures bool
	denied        atomic.Bool // audio features endpoint returned 403
	cb            *gobreaker.CircuitBreaker[[]recommend.Candidate]
}

var _ recommend.Catalog = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithMarket restricts results to tracks playable in a market.
func WithMarket(market string) Option {
	return func(c *Client) {
		if market != "" {
			c.market = market
		}
	}
}

// WithAudioFeatures toggles fetching audio features for search results.
// Apps registered after late 2024 get 403 from that endpoint.
func WithAudioFeatures(enabled bool) Option {
	return func(c *Client) {
		c.audioFeatures = enabled
	}
}

// WithBreakerSettings replaces the default circuit breaker settings.
func WithBreakerSettings(s breaker.Settings) Option {
	return func(c *Client) {
		c.cb = breaker.New[[]recommend.Candidate]("spotify", s)
	}
}

// New creates a catalog client.
// The underlying client should already be authenticated.
func New(api *spotify.Client, opts ...Option) *Client {
	c := &Client{
		api:           api,
		market:        defaultMarket,
		audioFeatures: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cb == nil {
		c.cb = breaker.New[[]recommend.Candidate]("spotify", breaker.DefaultSettings())
	}
	return c
}

// Connect creates a catalog client authenticated with app credentials.
// Requests are retried on 429 and 5xx before the breaker sees them.
func Connect(ctx context.Context, a *auth.Authenticator, opts ...Option) *Client {
	base := &http.Client{Transport: newRetryTransport(nil, 0, 0)}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	return New(spotify.New(a.HTTPClient(ctx)), opts...)
}

// Search runs a catalog query. Text queries use track search; seed genres
// with a feature target use the recommendations endpoint. A query with
// both runs both and concatenates the results.
func (c *Client) Search(ctx context.Context, q recommend.Query) ([]recommend.Candidate, error) {
	return c.cb.Execute(func() ([]recommend.Candidate, error) {
		return c.search(ctx, q)
	})
}

func (c *Client) search(ctx context.Context, q recommend.Query) ([]recommend.Candidate, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	var cands []recommend.Candidate

	if q.Text != "" {
		res, err := c.api.Search(ctx, q.Text, spotify.SearchTypeTrack,
			spotify.Limit(limit), spotify.Market(c.market))
		if err != nil {
			return nil, fmt.Errorf("searching tracks for %q: %w", q.Text, err)
		}
		if res.Tracks != nil {
			for _, t := range res.Tracks.Tracks {
				cands = append(cands, convertFullTrack(t))
			}
		}
	}

	if len(q.SeedGenres) > 0 {
		recs, err := c.api.GetRecommendations(ctx,
			spotify.Seeds{Genres: q.SeedGenres},
			trackAttributes(q.Target),
			spotify.Limit(limit), spotify.Market(c.market))
		if err != nil {
			return nil, fmt.Errorf("getting recommendations for %v: %w", q.SeedGenres, err)
		}
		for _, t := range recs.Tracks {
			cands = append(cands, convertSimpleTrack(t))
		}
	}

	// Missing features only weaken ranking, so failures here are not returned.
	if c.audioFeatures && !c.denied.Load() && len(cands) > 0 {
		var apiErr spotify.Error
		if err := c.FetchAudioFeatures(ctx, cands); errors.As(err, &apiErr) && apiErr.Status == http.StatusForbidden {
			c.denied.Store(true)
		}
	}

	return cands, nil
}

// trackAttributes converts a feature target into recommendation targets.
func trackAttributes(target map[string]float64) *spotify.TrackAttributes {
	if len(target) == 0 {
		return nil
	}
	attrs := spotify.NewTrackAttributes()
	for name, v := range target {
		switch name {
		case "danceability":
			attrs = attrs.TargetDanceability(v)
		case "energy":
			attrs = attrs.TargetEnergy(v)
		case "valence":
			attrs = attrs.TargetValence(v)
		case "acousticness":
			attrs = attrs.TargetAcousticness(v)
		case "instrumentalness":
			attrs = attrs.TargetInstrumentalness(v)
		}
	}
	return attrs
}

// Ready returns an error while the circuit breaker is open.
func (c *Client) Ready(context.Context) error {
	if c.cb.State() == gobreaker.StateOpen {
		return gobreaker.ErrOpenState
	}
	return nil
}
