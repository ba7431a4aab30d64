package recommend

import (
	"math"
	"sort"

	"github.com/justestif/go-image-to-song/internal/preferences"
)

// featureWeights weight each blend feature in the relevance score. Sums run
// in BlendFeatures order so equal inputs score bit-for-bit equal.
var featureWeights = map[string]float64{
	preferences.Energy:       0.3,
	preferences.Valence:      0.3,
	preferences.Danceability: 0.2,
	preferences.Acousticness: 0.2,
}

// maxPerArtist caps tracks by one artist within a bucket.
const maxPerArtist = 2

// Relevance scores a candidate against the blended target in [0,1].
// Only features both sides carry are compared; candidates without any score 0.
func Relevance(c Candidate, target map[string]float64) float64 {
	var distance, weight float64
	for _, f := range BlendFeatures {
		w := featureWeights[f]
		cv, ok := c.Features[f]
		if !ok {
			continue
		}
		tv, ok := target[f]
		if !ok {
			continue
		}
		distance += w * math.Abs(cv-tv)
		weight += w
	}
	if weight == 0 {
		return 0
	}
	return 1 - distance/weight
}

// rank scores candidates and orders them by relevance, then popularity, then ID.
func rank(candidates []Candidate, target map[string]float64, p Provenance) []Recommendation {
	recs := make([]Recommendation, len(candidates))
	for i, c := range candidates {
		recs[i] = toRecommendation(c, Relevance(c, target), p)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Popularity != b.Popularity {
			return a.Popularity > b.Popularity
		}
		return a.ID < b.ID
	})
	return recs
}

// selectTracks takes up to limit ranked tracks, skipping IDs already used
// and artists already at their cap. Chosen IDs are added to seen.
func selectTracks(ranked []Recommendation, limit int, seen map[string]bool) []Recommendation {
	perArtist := make(map[string]int)
	out := make([]Recommendation, 0, limit)
	for _, r := range ranked {
		if len(out) >= limit {
			break
		}
		if seen[r.ID] || perArtist[r.Artist] >= maxPerArtist {
			continue
		}
		seen[r.ID] = true
		perArtist[r.Artist]++
		out = append(out, r)
	}
	return out
}

func toRecommendation(c Candidate, score float64, p Provenance) Recommendation {
	url := c.SpotifyURL
	if url == "" {
		url = "https://open.spotify.com/track/" + c.ID
	}
	return Recommendation{
		ID:         c.ID,
		Title:      c.Title,
		Artist:     c.Artist,
		Album:      c.Album,
		AlbumCover: c.AlbumCover,
		PreviewURL: c.PreviewURL,
		SpotifyURL: url,
		Popularity: c.Popularity,
		Score:      score,
		Provenance: p,
	}
}
