// Package search finds songs by free text. It asks the music catalog first
// and falls back to the quiz songs when the catalog is unavailable.
package search

import (
	"context"
	"strings"
	"time"

	"github.com/justestif/go-image-to-song/internal/logging"
	"github.com/justestif/go-image-to-song/internal/metrics"
	"github.com/justestif/go-image-to-song/internal/preferences"
	"github.com/justestif/go-image-to-song/internal/quiz"
	"github.com/justestif/go-image-to-song/internal/recommend"
)

// Limits on the number of results per search.
const (
	DefaultLimit = 10
	MaxLimit     = 50
)

const defaultTimeout = 8 * time.Second

// Source names where results came from.
type Source string

const (
	SourceCatalog Source = "spotify"
	SourceLocal   Source = "local_fallback"
)

// Track is a search hit.
type Track struct {
	ID         string   `json:"id"`
	Title      string   `json:"name"`
	Artist     string   `json:"artist"`
	Album      string   `json:"album,omitempty"`
	AlbumCover string   `json:"album_cover,omitempty"`
	PreviewURL string   `json:"preview_url,omitempty"`
	SpotifyURL string   `json:"spotify_url"`
	Popularity int      `json:"popularity,omitempty"`
	Genres     []string `json:"genres,omitempty"`
}

// Result is the response to a search.
type Result struct {
	Query      string  `json:"query"`
	Results    []Track `json:"results"`
	TotalFound int     `json:"total_found"`
	Previews   int     `json:"has_previews"`
	Source     Source  `json:"search_type"`
}

// Service searches for songs.
type Service struct {
	catalog recommend.Catalog
	songs   *quiz.Catalog
	timeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithCatalog searches an external catalog before the local songs.
func WithCatalog(c recommend.Catalog) Option {
	return func(s *Service) {
		s.catalog = c
	}
}

// WithTimeout bounds a catalog search.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a search service over the local quiz songs.
func New(songs *quiz.Catalog, opts ...Option) *Service {
	s := &Service{songs: songs, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns up to limit songs matching query. Catalog failures fall
// back to the local songs; only invalid input returns an error.
func (s *Service) Search(ctx context.Context, query string, limit int) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &preferences.ValidationError{Field: "query", Message: "is required"}
	}
	if limit < 1 || limit > MaxLimit {
		return nil, &preferences.ValidationError{Field: "limit", Message: "must be between 1 and 50"}
	}

	if s.catalog != nil {
		tracks, err := s.searchCatalog(ctx, query, limit)
		if err == nil {
			return newResult(query, tracks, len(tracks), SourceCatalog), nil
		}
		logging.Ctx(ctx).Warn().Err(err).Str("query", query).Msg("catalog search failed, using local songs")
	}

	tracks, total := s.searchLocal(query, limit)
	return newResult(query, tracks, total, SourceLocal), nil
}

func (s *Service) searchCatalog(ctx context.Context, query string, limit int) ([]Track, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cands, err := s.catalog.Search(ctx, recommend.Query{Text: query, Limit: limit})
	if err != nil {
		metrics.CatalogQueries.WithLabelValues("search", "error").Inc()
		return nil, err
	}
	outcome := "ok"
	if len(cands) == 0 {
		outcome = "empty"
	}
	metrics.CatalogQueries.WithLabelValues("search", outcome).Inc()

	tracks := make([]Track, 0, min(len(cands), limit))
	for _, c := range cands {
		if len(tracks) == limit {
			break
		}
		tracks = append(tracks, Track{
			ID:         c.ID,
			Title:      c.Title,
			Artist:     c.Artist,
			Album:      c.Album,
			AlbumCover: c.AlbumCover,
			PreviewURL: c.PreviewURL,
			SpotifyURL: c.SpotifyURL,
			Popularity: c.Popularity,
		})
	}
	return tracks, nil
}

// searchLocal matches the quiz songs by title, artist or genre. With no
// match it returns a random sample so the caller still has something to play.
func (s *Service) searchLocal(query string, limit int) ([]Track, int) {
	matches := s.songs.Match(query)
	if len(matches) == 0 {
		for _, qs := range s.songs.Sample(limit) {
			matches = append(matches, qs.Song)
		}
	}
	total := len(matches)

	tracks := make([]Track, 0, min(total, limit))
	for _, song := range matches[:min(total, limit)] {
		tracks = append(tracks, fromSong(song))
	}
	return tracks, total
}

func fromSong(s quiz.Song) Track {
	return Track{
		ID:         s.ID,
		Title:      s.Title,
		Artist:     s.Artist,
		Album:      s.Album,
		AlbumCover: s.AlbumCover,
		PreviewURL: s.PreviewURL,
		SpotifyURL: quiz.TrackURL(s.ID),
		Genres:     s.Genres,
	}
}

func newResult(query string, tracks []Track, total int, src Source) *Result {
	previews := 0
	for _, t := range tracks {
		if t.PreviewURL != "" {
			previews++
		}
	}
	return &Result{
		Query:      query,
		Results:    tracks,
		TotalFound: total,
		Previews:   previews,
		Source:     src,
	}
}
