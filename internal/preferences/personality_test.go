package preferences

import (
	"strings"
	"testing"
)

func TestPersonality(t *testing.T) {
	tests := []struct {
		name    string
		profile *Profile
		prefix  string
	}{
		{
			name: "energetic positive pop",
			profile: &Profile{
				GenrePreferences:   map[string]float64{"pop": 1, "rock": 0.5},
				FeaturePreferences: map[string]float64{Energy: 0.8, Valence: 0.7},
			},
			prefix: "Pop Enthusiast",
		},
		{
			name: "medium energy indie",
			profile: &Profile{
				GenrePreferences:   map[string]float64{"indie": 1},
				FeaturePreferences: map[string]float64{Energy: 0.5, Valence: 0.65},
			},
			prefix: "Indie Soul",
		},
		{
			name: "alternative neutral",
			profile: &Profile{
				GenrePreferences:   map[string]float64{"alternative": 1},
				FeaturePreferences: map[string]float64{Energy: 0.6, Valence: 0.6},
			},
			prefix: "Alternative Spirit",
		},
		{
			name: "no table entry falls back to eclectic",
			profile: &Profile{
				GenrePreferences:   map[string]float64{"jazz": 1},
				FeaturePreferences: map[string]float64{Energy: 0.3},
			},
			prefix: "Eclectic Listener - You have diverse taste in jazz",
		},
		{
			name:    "empty profile",
			profile: &Profile{},
			prefix:  "Eclectic Listener - You have diverse taste in eclectic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Personality(tt.profile)
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("Personality() = %q, want prefix %q", got, tt.prefix)
			}
		})
	}
}

func TestProfile_TopGenres(t *testing.T) {
	p := &Profile{GenrePreferences: map[string]float64{
		"pop":     1,
		"rock":    0.5,
		"indie":   0.5,
		"country": 0,
		"jazz":    0.25,
	}}

	got := p.TopGenres(3)
	want := []string{"pop", "indie", "rock"}
	if len(got) != len(want) {
		t.Fatalf("TopGenres(3) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TopGenres(3)[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := p.TopGenres(10); len(got) != 4 {
		t.Errorf("TopGenres(10) = %v, want 4 genres without zero scores", got)
	}

	var nilProfile *Profile
	if got := nilProfile.TopGenres(3); got != nil {
		t.Errorf("nil profile TopGenres = %v, want nil", got)
	}
}

func TestProfile_Validate(t *testing.T) {
	ok := &Profile{
		GenrePreferences:   map[string]float64{"pop": 1},
		FeaturePreferences: map[string]float64{Energy: 0},
	}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	bad := &Profile{FeaturePreferences: map[string]float64{Energy: 1.2}}
	err := bad.Validate()
	if !IsValidation(err) {
		t.Fatalf("Validate() = %v, want validation error", err)
	}
}
