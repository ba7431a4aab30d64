package spotify

import (
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-image-to-song/internal/recommend"
)

const trackURLPrefix = "https://open.spotify.com/track/"

// convertFullTrack converts a search result to a candidate.
func convertFullTrack(t spotify.FullTrack) recommend.Candidate {
	c := convertSimpleTrack(t.SimpleTrack)
	c.Album = t.Album.Name
	if len(t.Album.Images) > 0 {
		c.AlbumCover = t.Album.Images[0].URL
	}
	c.Popularity = int(t.Popularity)
	return c
}

// convertSimpleTrack converts a recommendations result to a candidate.
// Simple tracks carry no album or popularity.
func convertSimpleTrack(t spotify.SimpleTrack) recommend.Candidate {
	c := recommend.Candidate{
		ID:         t.ID.String(),
		Title:      t.Name,
		Artist:     joinArtists(t.Artists),
		PreviewURL: t.PreviewURL,
		SpotifyURL: t.ExternalURLs["spotify"],
	}
	if c.SpotifyURL == "" && c.ID != "" {
		c.SpotifyURL = trackURLPrefix + c.ID
	}
	return c
}

func joinArtists(artists []spotify.SimpleArtist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	if len(names) == 0 {
		return "Unknown Artist"
	}
	return strings.Join(names, ", ")
}
