package recommend

import (
	"math"
	"testing"

	"github.com/justestif/go-image-to-song/internal/mood"
	"github.com/justestif/go-image-to-song/internal/preferences"
)

func resolve(t *testing.T, label string) mood.Target {
	t.Helper()
	target, _ := mood.Resolve(label)
	return target
}

func TestBlend(t *testing.T) {
	tests := []struct {
		name    string
		profile *preferences.Profile
		mood    string
		feature string
		want    float64
	}{
		{
			name:    "profile energy with calm mood",
			profile: &preferences.Profile{FeaturePreferences: map[string]float64{"energy": 0.8}},
			mood:    "calm",
			feature: "energy",
			want:    0.56,
		},
		{
			name:    "anonymous energetic passes through",
			mood:    "energetic",
			feature: "energy",
			want:    0.9,
		},
		{
			name:    "missing profile feature defaults to neutral",
			profile: &preferences.Profile{FeaturePreferences: map[string]float64{}},
			mood:    "happy",
			feature: "valence",
			want:    0.6*0.5 + 0.4*0.8,
		},
		{
			name:    "feature absent from mood target defaults to neutral",
			profile: &preferences.Profile{FeaturePreferences: map[string]float64{"acousticness": 1.0}},
			mood:    "happy",
			feature: "acousticness",
			want:    0.6*1.0 + 0.4*0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Blend(tt.profile, resolve(t, tt.mood))[tt.feature]
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Blend()[%s] = %v, want %v", tt.feature, got, tt.want)
			}
		})
	}
}

func TestBlend_AnonymousExactPassthrough(t *testing.T) {
	got := Blend(nil, resolve(t, "energetic"))
	if got["energy"] != 0.9 {
		t.Errorf("energy = %v, want exactly 0.9", got["energy"])
	}
}

func TestBlend_UnknownMoodAnonymous(t *testing.T) {
	got := Blend(nil, resolve(t, "bewildered"))
	if len(got) != len(BlendFeatures) {
		t.Fatalf("blended = %v, want %d features", got, len(BlendFeatures))
	}
	for f, v := range got {
		if v != 0.5 {
			t.Errorf("%s = %v, want 0.5", f, v)
		}
	}
}

func TestGenreHints(t *testing.T) {
	if got := GenreHints(nil); len(got) != 0 {
		t.Errorf("anonymous hints = %v, want none", got)
	}

	p := &preferences.Profile{GenrePreferences: map[string]float64{
		"pop": 1, "rock": 0.8, "indie": 0.6, "jazz": 0.4, "country": 0,
	}}
	got := GenreHints(p)
	want := []string{"pop", "rock", "indie"}
	if len(got) != len(want) {
		t.Fatalf("GenreHints() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GenreHints()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRelevance(t *testing.T) {
	target := map[string]float64{"energy": 0.8, "valence": 0.6, "danceability": 0.5, "acousticness": 0.2}

	exact := Candidate{ID: "a", Features: target}
	if got := Relevance(exact, target); math.Abs(got-1) > 1e-9 {
		t.Errorf("exact match = %v, want 1", got)
	}

	none := Candidate{ID: "b"}
	if got := Relevance(none, target); got != 0 {
		t.Errorf("no features = %v, want 0", got)
	}

	partial := Candidate{ID: "c", Features: map[string]float64{"energy": 0.3}}
	if got := Relevance(partial, target); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("partial = %v, want 0.5", got)
	}
}

func TestRank_TieBreaksByPopularity(t *testing.T) {
	target := map[string]float64{"energy": 0.5}
	cands := []Candidate{
		{ID: "low", Popularity: 10},
		{ID: "high", Popularity: 90},
		{ID: "close", Popularity: 1, Features: map[string]float64{"energy": 0.5}},
		{ID: "mid", Popularity: 50},
	}

	ranked := rank(cands, target, MoodBased)
	want := []string{"close", "high", "mid", "low"}
	for i, id := range want {
		if ranked[i].ID != id {
			t.Errorf("rank[%d] = %q, want %q", i, ranked[i].ID, id)
		}
		if ranked[i].Provenance != MoodBased {
			t.Errorf("rank[%d] provenance = %q", i, ranked[i].Provenance)
		}
	}
}

func TestRank_EqualFeaturesAlwaysTieBreak(t *testing.T) {
	target := map[string]float64{"energy": 0.1, "valence": 0.7, "danceability": 0.3, "acousticness": 0.9}
	features := map[string]float64{"energy": 0.83, "valence": 0.17, "danceability": 0.61, "acousticness": 0.29}
	cands := []Candidate{
		{ID: "a", Popularity: 10, Features: features},
		{ID: "b", Popularity: 90, Features: features},
	}

	first := Relevance(cands[0], target)
	for i := 0; i < 200; i++ {
		if got := Relevance(cands[1], target); got != first {
			t.Fatalf("run %d: Relevance = %v, want exactly %v", i, got, first)
		}
		if ranked := rank(cands, target, Discovery); ranked[0].ID != "b" {
			t.Fatalf("run %d: rank[0] = %q, want the more popular b", i, ranked[0].ID)
		}
	}
}

func TestSelectTracks_ArtistCapAndSeen(t *testing.T) {
	ranked := []Recommendation{
		{ID: "1", Artist: "A"},
		{ID: "2", Artist: "A"},
		{ID: "3", Artist: "A"},
		{ID: "4", Artist: "B"},
		{ID: "5", Artist: "C"},
	}
	seen := map[string]bool{"4": true}

	got := selectTracks(ranked, 4, seen)
	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	want := []string{"1", "2", "5"}
	if len(ids) != len(want) {
		t.Fatalf("selectTracks() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("selectTracks()[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
	if !seen["1"] || !seen["5"] {
		t.Errorf("seen not updated: %v", seen)
	}
}
