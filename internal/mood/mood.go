// Package mood holds the static mood table used to steer recommendations.
package mood

import (
	"sort"
	"strings"

	"github.com/justestif/go-image-to-song/internal/preferences"
)

// Label is a mood produced by the captioner.
type Label string

// Known mood labels.
const (
	Happy       Label = "happy"
	Sad         Label = "sad"
	Energetic   Label = "energetic"
	Calm        Label = "calm"
	Romantic    Label = "romantic"
	Peaceful    Label = "peaceful"
	Melancholic Label = "melancholic"
	Nature      Label = "nature"
	Neutral     Label = "neutral"
)

// Track is a curated catalog track used when the catalog cannot be reached.
type Track struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// Target describes how a mood translates into catalog queries.
type Target struct {
	Label Label `json:"mood"`

	// Features is a partial audio-feature target; absent features are neutral.
	Features map[string]float64 `json:"target_features"`

	SearchPhrases []string `json:"search_phrases"`
	SeedGenres    []string `json:"seed_genres"`
	Fallback      []Track  `json:"-"`
}

var (
	happyTracks = []Track{
		{ID: "60nZcImufyMA1MKQY3dcCH", Title: "Happy", Artist: "Pharrell Williams"},
		{ID: "1LLXZFeAHK9R4xUramtUKw", Title: "Good as Hell", Artist: "Lizzo"},
		{ID: "4bHsxqR3GMrXTxEPLuK5ue", Title: "Can't Stop the Feeling!", Artist: "Justin Timberlake"},
	}
	melancholicTracks = []Track{
		{ID: "0NdTUS4UiNYCNn5FgVqKQY", Title: "The Night We Met", Artist: "Lord Huron"},
		{ID: "2Ek2iSEoDv7IwKxhWXNShN", Title: "Skinny Love", Artist: "Bon Iver"},
		{ID: "3JOVTQ5h8HGFnDdp4VT3MP", Title: "Mad World", Artist: "Gary Jules"},
	}
	energeticTracks = []Track{
		{ID: "32OlwWuMpZ6b0aN2RZOeMS", Title: "Uptown Funk", Artist: "Mark Ronson ft. Bruno Mars"},
		{ID: "5T8EDUDqKcs6OSOwEsfqG7", Title: "Don't Stop Me Now", Artist: "Queen"},
		{ID: "3DK6m7It6Pw857FcQftMds", Title: "Can't Hold Us", Artist: "Macklemore"},
	}
	peacefulTracks = []Track{
		{ID: "3rCLsaUhdI5nIQdHWo8dOJ", Title: "Weightless", Artist: "Marconi Union"},
		{ID: "1Awsqv8AQfhOXsafRDf3HV", Title: "Clair de Lune", Artist: "Claude Debussy"},
		{ID: "6wAFjJlNSz2zd6ER3vz7MD", Title: "Holocene", Artist: "Bon Iver"},
	}
	natureTracks = []Track{
		{ID: "4Qa4GnP6gLVpL5DZqsKGHC", Title: "River", Artist: "Leon Bridges"},
		{ID: "31TvWB4wf0iBDyVsMLOFAf", Title: "Forest", Artist: "System of a Down"},
		{ID: "2eXVIy5ZjWgJqN9gWJn4yp", Title: "Mountain", Artist: "Heartbreak on the Map"},
	}
	romanticTracks = []Track{
		{ID: "3U4isOIWM3VvDubwSI3y7a", Title: "All of Me", Artist: "John Legend"},
		{ID: "0tgVpDi06FyKpA1z0VMD4v", Title: "Perfect", Artist: "Ed Sheeran"},
		{ID: "0Qp8L0kSMXOm8jQf9Nz5H6", Title: "Thinking Out Loud", Artist: "Ed Sheeran"},
	}
)

var table = map[Label]Target{
	Happy: {
		Features:      map[string]float64{preferences.Valence: 0.8, preferences.Energy: 0.7, preferences.Danceability: 0.8},
		SearchPhrases: []string{"happy upbeat positive feel good", "sunny day good vibes"},
		SeedGenres:    []string{"pop", "funk", "dance"},
		Fallback:      happyTracks,
	},
	Sad: {
		Features:      map[string]float64{preferences.Valence: 0.2, preferences.Energy: 0.3, preferences.Acousticness: 0.6},
		SearchPhrases: []string{"sad emotional heartbreak", "rainy day acoustic"},
		SeedGenres:    []string{"sad", "acoustic", "singer-songwriter"},
		Fallback:      melancholicTracks,
	},
	Energetic: {
		Features:      map[string]float64{preferences.Valence: 0.7, preferences.Energy: 0.9, preferences.Danceability: 0.8},
		SearchPhrases: []string{"energetic pump up workout motivation", "high energy party anthems"},
		SeedGenres:    []string{"rock", "electronic", "hip-hop"},
		Fallback:      energeticTracks,
	},
	Calm: {
		Features:      map[string]float64{preferences.Valence: 0.5, preferences.Energy: 0.2, preferences.Acousticness: 0.7},
		SearchPhrases: []string{"calm relaxing chill", "soft acoustic evening"},
		SeedGenres:    []string{"chill", "ambient", "acoustic"},
		Fallback:      peacefulTracks,
	},
	Romantic: {
		Features:      map[string]float64{preferences.Valence: 0.6, preferences.Energy: 0.5, preferences.Acousticness: 0.5},
		SearchPhrases: []string{"romantic love ballad tender", "slow dance love songs"},
		SeedGenres:    []string{"r-n-b", "soul", "jazz"},
		Fallback:      romanticTracks,
	},
	Peaceful: {
		Features:      map[string]float64{preferences.Valence: 0.4, preferences.Energy: 0.3, preferences.Acousticness: 0.7},
		SearchPhrases: []string{"peaceful calm relaxing ambient", "serene instrumental"},
		SeedGenres:    []string{"ambient", "folk", "classical"},
		Fallback:      peacefulTracks,
	},
	Melancholic: {
		Features:      map[string]float64{preferences.Valence: 0.2, preferences.Energy: 0.4, preferences.Acousticness: 0.6},
		SearchPhrases: []string{"sad melancholic emotional introspective", "moody indie"},
		SeedGenres:    []string{"indie", "acoustic", "blues"},
		Fallback:      melancholicTracks,
	},
	Nature: {
		Features:      map[string]float64{preferences.Valence: 0.5, preferences.Energy: 0.4, preferences.Acousticness: 0.8},
		SearchPhrases: []string{"nature peaceful acoustic organic", "outdoor folk"},
		SeedGenres:    []string{"folk", "acoustic", "ambient"},
		Fallback:      natureTracks,
	},
}

// neutral is used for labels the table does not know.
var neutral = Target{
	Label: Neutral,
	Features: map[string]float64{
		preferences.Danceability: 0.5,
		preferences.Energy:       0.5,
		preferences.Valence:      0.5,
		preferences.Acousticness: 0.5,
	},
	SearchPhrases: []string{"popular trending"},
	SeedGenres:    []string{"pop"},
	Fallback:      peacefulTracks,
}

// Resolve looks up a mood label case-insensitively.
// Unknown labels resolve to the neutral target and ok is false.
func Resolve(label string) (target Target, ok bool) {
	l := Label(strings.ToLower(strings.TrimSpace(label)))
	t, ok := table[l]
	if !ok {
		return neutral, false
	}
	t.Label = l
	return t, true
}

// Value returns the target value for a feature, defaulting to 0.5.
func (t Target) Value(feature string) float64 {
	if v, ok := t.Features[feature]; ok {
		return v
	}
	return 0.5
}

// Labels returns every known mood label in alphabetical order.
func Labels() []Label {
	labels := make([]Label, 0, len(table))
	for l := range table {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}
