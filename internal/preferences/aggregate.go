package preferences

import (
	"fmt"
	"strings"
	"time"
)

const (
	// dislikePenalty is subtracted from a genre's score per disliked song.
	dislikePenalty = 0.5

	// dislikeNudge pushes feature preferences away from the disliked average.
	dislikeNudge = 0.1
)

// Aggregate builds a profile from a completed quiz.
// Every song must be rated; malformed rows are rejected rather than skipped.
func Aggregate(songs []RatedSong) (*Profile, error) {
	for i, s := range songs {
		if err := validateSong(i, s); err != nil {
			return nil, err
		}
	}

	var liked, disliked []RatedSong
	for _, s := range songs {
		if *s.Liked {
			liked = append(liked, s)
		} else {
			disliked = append(disliked, s)
		}
	}

	profile := &Profile{
		GenrePreferences:   genreScores(liked, disliked),
		FeaturePreferences: featureScores(liked, disliked),
		LikedArtists:       uniqueArtists(liked),
		DislikedArtists:    uniqueArtists(disliked),
		Stats: Stats{
			TotalRated: len(songs),
			Liked:      len(liked),
			Disliked:   len(disliked),
		},
		QuizCompleted: true,
		CreatedAt:     time.Now().UTC(),
	}
	profile.Personality = Personality(profile)

	return profile, nil
}

func validateSong(i int, s RatedSong) error {
	field := func(name string) string {
		return fmt.Sprintf("song_ratings[%d].%s", i, name)
	}

	if strings.TrimSpace(s.ID) == "" {
		return &ValidationError{Field: field("id"), Message: "missing song identifier"}
	}
	if s.Liked == nil {
		return &ValidationError{Field: field("liked"), Message: fmt.Sprintf("song %s has not been rated", s.ID)}
	}
	for _, name := range RequiredFeatures {
		if _, ok := s.Features[name]; !ok {
			return &ValidationError{Field: field("audio_features." + name), Message: "missing audio feature"}
		}
	}
	for name, v := range s.Features {
		if v < 0 || v > 1 {
			return &ValidationError{Field: field("audio_features." + name), Message: fmt.Sprintf("value %.3f outside [0,1]", v)}
		}
	}
	return nil
}

// genreScores returns scores normalized by the best genre.
// The map is empty when no genre ends up with a positive score.
func genreScores(liked, disliked []RatedSong) map[string]float64 {
	raw := make(map[string]float64)
	for _, s := range liked {
		for _, g := range normalizeGenres(s.Genres) {
			raw[g]++
		}
	}
	for _, s := range disliked {
		for _, g := range normalizeGenres(s.Genres) {
			raw[g] -= dislikePenalty
		}
	}

	var best float64
	for g, v := range raw {
		if v < 0 {
			raw[g] = 0
		}
		if raw[g] > best {
			best = raw[g]
		}
	}

	scores := make(map[string]float64, len(raw))
	if best == 0 {
		return scores
	}
	for g, v := range raw {
		scores[g] = v / best
	}
	return scores
}

// featureScores averages each feature over liked songs and nudges it away
// from the disliked average. Features no liked song carries are omitted.
func featureScores(liked, disliked []RatedSong) map[string]float64 {
	likedAvg := averageFeatures(liked)
	dislikedAvg := averageFeatures(disliked)

	scores := make(map[string]float64, len(likedAvg))
	for name, l := range likedAvg {
		score := l
		if d, ok := dislikedAvg[name]; ok {
			score = l + dislikeNudge*(l-d)
		}
		scores[name] = clamp01(score)
	}
	return scores
}

func averageFeatures(songs []RatedSong) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, s := range songs {
		for name, v := range s.Features {
			sums[name] += v
			counts[name]++
		}
	}

	avgs := make(map[string]float64, len(sums))
	for name, sum := range sums {
		avgs[name] = sum / float64(counts[name])
	}
	return avgs
}

// normalizeGenres lowercases and dedupes a song's genre tags.
func normalizeGenres(genres []string) []string {
	seen := make(map[string]bool, len(genres))
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return out
}

func uniqueArtists(songs []RatedSong) []string {
	seen := make(map[string]bool)
	artists := []string{}
	for _, s := range songs {
		if s.Artist == "" || seen[s.Artist] {
			continue
		}
		seen[s.Artist] = true
		artists = append(artists, s.Artist)
	}
	return artists
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
