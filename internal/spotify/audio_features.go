package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-image-to-song/internal/logging"
	"github.com/justestif/go-image-to-song/internal/preferences"
	"github.com/justestif/go-image-to-song/internal/recommend"
)

// maxTracksPerRequest is the Spotify limit for batched track endpoints.
const maxTracksPerRequest = 100

// FetchAudioFeatures retrieves audio features for the given candidates and
// sets their Features in place. Batches requests to 100 tracks.
// Candidates without available features keep nil Features.
func (c *Client) FetchAudioFeatures(ctx context.Context, cands []recommend.Candidate) error {
	if len(cands) == 0 {
		return nil
	}

	ids := make([]spotify.ID, 0, len(cands))
	indexByID := make(map[string][]int, len(cands))
	for i, cand := range cands {
		if cand.ID == "" {
			continue
		}
		if _, ok := indexByID[cand.ID]; !ok {
			ids = append(ids, spotify.ID(cand.ID))
		}
		indexByID[cand.ID] = append(indexByID[cand.ID], i)
	}

	total := len(ids)
	for i := 0; i < total; i += maxTracksPerRequest {
		end := min(i+maxTracksPerRequest, total)

		features, err := c.api.GetAudioFeatures(ctx, ids[i:end]...)
		if err != nil {
			return fmt.Errorf("fetching audio features (batch %d-%d): %w", i+1, end, err)
		}

		for _, f := range features {
			if f == nil {
				continue
			}
			for _, idx := range indexByID[f.ID.String()] {
				applyAudioFeatures(&cands[idx], f)
			}
		}
	}

	logging.Ctx(ctx).Debug().Int("tracks", total).Msg("fetched audio features")
	return nil
}

// applyAudioFeatures copies audio features onto a candidate, normalizing
// tempo and loudness into [0,1] the same way the quiz catalog does.
func applyAudioFeatures(c *recommend.Candidate, f *spotify.AudioFeatures) {
	c.Features = map[string]float64{
		preferences.Danceability:     clamp01(float64(f.Danceability)),
		preferences.Energy:           clamp01(float64(f.Energy)),
		preferences.Valence:          clamp01(float64(f.Valence)),
		preferences.Acousticness:     clamp01(float64(f.Acousticness)),
		preferences.Instrumentalness: clamp01(float64(f.Instrumentalness)),
		preferences.Tempo:            NormalizeTempo(float64(f.Tempo)),
		preferences.Loudness:         NormalizeLoudness(float64(f.Loudness)),
	}
}

// NormalizeTempo maps 50-200 BPM onto [0,1].
func NormalizeTempo(bpm float64) float64 {
	return clamp01((bpm - 50) / 150)
}

// NormalizeLoudness maps -60-0 dB onto [0,1].
func NormalizeLoudness(db float64) float64 {
	return clamp01((db + 60) / 60)
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
