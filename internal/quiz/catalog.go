// Package quiz serves the preference quiz and turns its ratings into profiles.
package quiz

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/goccy/go-json"

	"github.com/justestif/go-image-to-song/internal/preferences"
)

//go:embed songs.json
var songsJSON []byte

const trackURLPrefix = "https://open.spotify.com/track/"

// TrackURL returns the Spotify web link for a track ID.
func TrackURL(id string) string {
	return trackURLPrefix + id
}

// Song is a curated quiz song. Tempo and loudness are pre-normalized to [0,1].
type Song struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	Artist     string             `json:"artist"`
	Album      string             `json:"album"`
	Genres     []string           `json:"genres"`
	PreviewURL string             `json:"preview_url"`
	AlbumCover string             `json:"album_cover"`
	Features   map[string]float64 `json:"audio_features"`
}

// QuizSong is a Song placed in a served quiz.
type QuizSong struct {
	Song
	Position int `json:"quiz_position"`
	Total    int `json:"total_in_quiz"`
}

// Catalog is the fixed set of quiz songs.
type Catalog struct {
	songs []Song
	byID  map[string]Song
}

// LoadCatalog parses the embedded quiz songs.
func LoadCatalog() (*Catalog, error) {
	var songs []Song
	if err := json.Unmarshal(songsJSON, &songs); err != nil {
		return nil, fmt.Errorf("parsing quiz songs: %w", err)
	}
	return NewCatalog(songs)
}

// NewCatalog builds a catalog, rejecting duplicate or incomplete songs.
func NewCatalog(songs []Song) (*Catalog, error) {
	byID := make(map[string]Song, len(songs))
	for _, s := range songs {
		if s.ID == "" {
			return nil, fmt.Errorf("quiz song %q has no id", s.Title)
		}
		if _, dup := byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate quiz song %s", s.ID)
		}
		for _, f := range preferences.RequiredFeatures {
			if _, ok := s.Features[f]; !ok {
				return nil, fmt.Errorf("quiz song %s missing %s", s.ID, f)
			}
		}
		byID[s.ID] = s
	}
	return &Catalog{songs: songs, byID: byID}, nil
}

// Len returns the number of songs.
func (c *Catalog) Len() int {
	return len(c.songs)
}

// Song looks up a song by ID.
func (c *Catalog) Song(id string) (Song, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// Match returns the songs whose title, artist or any genre contains q,
// ignoring case, in catalog order.
func (c *Catalog) Match(q string) []Song {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil
	}
	var out []Song
	for _, s := range c.songs {
		if s.matches(q) {
			out = append(out, s)
		}
	}
	return out
}

func (s Song) matches(q string) bool {
	if strings.Contains(strings.ToLower(s.Title), q) || strings.Contains(strings.ToLower(s.Artist), q) {
		return true
	}
	for _, g := range s.Genres {
		if strings.Contains(strings.ToLower(g), q) {
			return true
		}
	}
	return false
}

// Sample returns n distinct songs in random order.
func (c *Catalog) Sample(n int) []QuizSong {
	if n > len(c.songs) {
		n = len(c.songs)
	}
	idx := rand.Perm(len(c.songs))[:n]

	out := make([]QuizSong, n)
	for i, j := range idx {
		out[i] = QuizSong{Song: c.songs[j], Position: i + 1, Total: n}
	}
	return out
}
