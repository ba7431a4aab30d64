package recommend

import (
	"github.com/justestif/go-image-to-song/internal/mood"
	"github.com/justestif/go-image-to-song/internal/preferences"
)

const (
	profileWeight = 0.6
	moodWeight    = 0.4

	// maxGenreHints caps the genres used as catalog search hints.
	maxGenreHints = 3
)

// BlendFeatures are the features combined into the blended target.
var BlendFeatures = []string{
	preferences.Danceability,
	preferences.Energy,
	preferences.Valence,
	preferences.Acousticness,
}

// Blend combines a profile with a mood target.
// Without a profile the mood target passes through unchanged.
func Blend(profile *preferences.Profile, target mood.Target) map[string]float64 {
	blended := make(map[string]float64, len(BlendFeatures))
	for _, f := range BlendFeatures {
		m := target.Value(f)
		if profile == nil {
			blended[f] = m
			continue
		}

		p, ok := profile.Feature(f)
		if !ok {
			p = 0.5
		}
		blended[f] = profileWeight*p + moodWeight*m
	}
	return blended
}

// GenreHints returns the profile's top genres, or nil for anonymous listeners.
func GenreHints(profile *preferences.Profile) []string {
	return profile.TopGenres(maxGenreHints)
}
