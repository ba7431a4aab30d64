package mood

import "github.com/justestif/go-image-to-song/internal/preferences"

// Vibe is a display classification of an audio-feature target.
type Vibe struct {
	Name        string  `json:"name"`
	Energy      float64 `json:"energy"`
	Valence     float64 `json:"valence"`
	Description string  `json:"description"`
}

// vibeName creates a descriptive name from an energy/valence quadrant.
//
// Quadrants:
//   - High Energy + High Valence = "Upbeat Party"
//   - High Energy + Low Valence  = "Intense & Dark"
//   - Low Energy  + High Valence = "Chill & Happy"
//   - Low Energy  + Low Valence  = "Reflective & Melancholy"
//
// Acousticness above 0.6 appends "(Acoustic)".
func vibeName(energy, valence, acousticness float64) string {
	var base string
	switch {
	case energy > 0.6 && valence > 0.5:
		base = "Upbeat Party"
	case energy > 0.6:
		base = "Intense & Dark"
	case valence > 0.5:
		base = "Chill & Happy"
	default:
		base = "Reflective & Melancholy"
	}

	if acousticness > 0.6 {
		return base + " (Acoustic)"
	}
	return base
}

// Describe classifies a feature target. Missing features count as 0.5.
func Describe(features map[string]float64) Vibe {
	get := func(name string) float64 {
		if v, ok := features[name]; ok {
			return v
		}
		return 0.5
	}
	energy := get(preferences.Energy)
	valence := get(preferences.Valence)

	var description string
	switch {
	case energy > 0.6 && valence > 0.5:
		description = "High-energy, positive vibes - perfect for dancing and celebrations"
	case energy > 0.6:
		description = "Intense, driving energy with darker emotional tones"
	case valence > 0.5:
		description = "Relaxed and uplifting - great for unwinding"
	default:
		description = "Contemplative and introspective - ideal for quiet moments"
	}

	return Vibe{
		Name:        vibeName(energy, valence, get(preferences.Acousticness)),
		Energy:      energy,
		Valence:     valence,
		Description: description,
	}
}
