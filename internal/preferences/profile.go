// Package preferences turns quiz ratings into genre and audio-feature affinity profiles.
package preferences

import (
	"sort"
	"time"
)

// Audio feature names shared by quiz songs, catalog tracks and mood targets.
const (
	Danceability     = "danceability"
	Energy           = "energy"
	Valence          = "valence"
	Acousticness     = "acousticness"
	Instrumentalness = "instrumentalness"
	Tempo            = "tempo"    // pre-normalized to [0,1]
	Loudness         = "loudness" // pre-normalized to [0,1]
)

// RequiredFeatures must be present on every rated song.
var RequiredFeatures = []string{Danceability, Energy, Valence, Acousticness, Instrumentalness}

// RatedSong is a quiz song together with the user's verdict.
// Liked is nil until the song has been rated.
type RatedSong struct {
	ID       string             `json:"id"`
	Title    string             `json:"title,omitempty"`
	Artist   string             `json:"artist,omitempty"`
	Genres   []string           `json:"genres"`
	Features map[string]float64 `json:"audio_features"`
	Liked    *bool              `json:"liked"`
}

// Stats counts the ratings a profile was built from.
type Stats struct {
	TotalRated     int     `json:"total_songs_rated"`
	Liked          int     `json:"liked_count"`
	Disliked       int     `json:"disliked_count"`
	CompletionRate float64 `json:"completion_rate"`
}

// Profile is a user's aggregated music preferences.
// Every score in GenrePreferences and FeaturePreferences lies in [0,1].
type Profile struct {
	UserID             string             `json:"user_id,omitempty"`
	GenrePreferences   map[string]float64 `json:"genre_preferences"`
	FeaturePreferences map[string]float64 `json:"audio_feature_preferences"`
	LikedArtists       []string           `json:"liked_artists"`
	DislikedArtists    []string           `json:"disliked_artists"`
	Stats              Stats              `json:"quiz_stats"`
	Personality        string             `json:"music_personality"`
	QuizCompleted      bool               `json:"quiz_completed"`
	CreatedAt          time.Time          `json:"created_at"`
}

// Feature returns the profile's affinity for an audio feature.
func (p *Profile) Feature(name string) (float64, bool) {
	if p == nil {
		return 0, false
	}
	v, ok := p.FeaturePreferences[name]
	return v, ok
}

// TopGenres returns up to n genres ordered by score descending.
// Ties are ordered alphabetically. Genres scoring 0 are skipped.
func (p *Profile) TopGenres(n int) []string {
	if p == nil || n <= 0 {
		return nil
	}

	genres := make([]string, 0, len(p.GenrePreferences))
	for g, score := range p.GenrePreferences {
		if score > 0 {
			genres = append(genres, g)
		}
	}
	sort.Slice(genres, func(i, j int) bool {
		si, sj := p.GenrePreferences[genres[i]], p.GenrePreferences[genres[j]]
		if si != sj {
			return si > sj
		}
		return genres[i] < genres[j]
	})

	if len(genres) > n {
		genres = genres[:n]
	}
	return genres
}

// Validate checks a profile received from a client.
// Profiles are persisted by the caller, so scores are re-checked on the way back in.
func (p *Profile) Validate() error {
	for g, v := range p.GenrePreferences {
		if v < 0 || v > 1 {
			return &ValidationError{Field: "genre_preferences." + g, Message: "must be within [0,1]"}
		}
	}
	for f, v := range p.FeaturePreferences {
		if v < 0 || v > 1 {
			return &ValidationError{Field: "audio_feature_preferences." + f, Message: "must be within [0,1]"}
		}
	}
	return nil
}
