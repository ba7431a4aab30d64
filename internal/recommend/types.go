// Package recommend blends a listener's quiz profile with an image mood and
// turns catalog search results into ranked, provenance-tagged recommendations.
package recommend

import (
	"context"

	"github.com/justestif/go-image-to-song/internal/mood"
	"github.com/justestif/go-image-to-song/internal/preferences"
)

// Provenance tags why a track was recommended.
type Provenance string

// Recommendation buckets, in precedence order.
const (
	Personalized Provenance = "personalized"
	MoodBased    Provenance = "mood_based"
	Discovery    Provenance = "discovery"
)

// Candidate is a track returned by the catalog.
type Candidate struct {
	ID         string
	Title      string
	Artist     string
	Album      string
	AlbumCover string
	PreviewURL string
	SpotifyURL string
	Popularity int
	Features   map[string]float64 // nil when the catalog has none
}

// Query asks the catalog for tracks by free text, by seed genres with a
// feature target, or both.
type Query struct {
	Text       string
	SeedGenres []string
	Target     map[string]float64
	Limit      int
}

// Catalog searches an external music catalog.
type Catalog interface {
	Search(ctx context.Context, q Query) ([]Candidate, error)
}

// Recommendation is a ranked track.
type Recommendation struct {
	ID         string     `json:"id"`
	Title      string     `json:"name"`
	Artist     string     `json:"artist"`
	Album      string     `json:"album,omitempty"`
	AlbumCover string     `json:"album_cover,omitempty"`
	PreviewURL string     `json:"preview_url,omitempty"`
	SpotifyURL string     `json:"spotify_url"`
	Popularity int        `json:"popularity"`
	Score      float64    `json:"relevance_score"`
	Provenance Provenance `json:"provenance"`
}

// Bucket groups recommendations of one provenance.
type Bucket struct {
	Provenance Provenance       `json:"provenance"`
	Tracks     []Recommendation `json:"tracks"`
}

// Request is the input to Engine.Recommend.
type Request struct {
	Mood    string
	Caption string
	Profile *preferences.Profile // nil for anonymous listeners
}

// Result is a complete recommendation response.
type Result struct {
	Mood            mood.Label         `json:"mood"`
	Caption         string             `json:"caption,omitempty"`
	Target          map[string]float64 `json:"target_features"`
	GenreHints      []string           `json:"genre_hints"`
	Vibe            mood.Vibe          `json:"vibe"`
	Buckets         []Bucket           `json:"buckets"`
	Recommendations []Recommendation   `json:"recommendations"`
	Personalized    bool               `json:"personalized"`
	Fallback        bool               `json:"fallback"`
}
