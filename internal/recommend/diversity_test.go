package recommend

import (
	"testing"
)

// feat returns a full feature vector with every blend feature set to v.
func feat(v float64) map[string]float64 {
	return map[string]float64{"energy": v, "valence": v, "danceability": v, "acousticness": v}
}

func TestDiverseSelection(t *testing.T) {
	target := feat(0.9)

	// Two tight groups far apart. Every "near" track outranks every "far" one.
	twoGroups := []Candidate{
		{ID: "near-1", Artist: "n1", Features: feat(0.90)},
		{ID: "near-2", Artist: "n2", Features: feat(0.89)},
		{ID: "near-3", Artist: "n3", Features: feat(0.88)},
		{ID: "far-1", Artist: "f1", Features: feat(0.10)},
		{ID: "far-2", Artist: "f2", Features: feat(0.11)},
		{ID: "far-3", Artist: "f3", Features: feat(0.12)},
	}

	tests := []struct {
		name       string
		candidates []Candidate
		limit      int
		seen       []string
		want       []string
	}{
		{
			name:       "best track of each cluster",
			candidates: twoGroups,
			limit:      2,
			want:       []string{"near-1", "far-3"},
		},
		{
			name:       "seen tracks are not leaders",
			candidates: twoGroups,
			limit:      2,
			seen:       []string{"near-1"},
			want:       []string{"near-2", "far-3"},
		},
		{
			name: "fewer than two per slot keeps rank order",
			candidates: []Candidate{
				{ID: "near-1", Artist: "n1", Features: feat(0.90)},
				{ID: "near-2", Artist: "n2", Features: feat(0.89)},
				{ID: "far-1", Artist: "f1", Features: feat(0.10)},
			},
			limit: 2,
			want:  []string{"near-1", "near-2"},
		},
		{
			name: "partial features do not count toward clustering",
			candidates: []Candidate{
				{ID: "near-1", Artist: "n1", Features: feat(0.90)},
				{ID: "near-2", Artist: "n2", Features: feat(0.89)},
				{ID: "far-1", Artist: "f1", Features: feat(0.10)},
				{ID: "partial", Artist: "p", Features: map[string]float64{"energy": 0.1}},
			},
			limit: 2,
			want:  []string{"near-1", "near-2"},
		},
		{
			name:       "single slot takes the top track",
			candidates: twoGroups,
			limit:      1,
			want:       []string{"near-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := make(map[string]bool)
			for _, id := range tt.seen {
				seen[id] = true
			}

			got := diverseSelection(tt.candidates, target, tt.limit, seen)
			if len(got) != len(tt.want) {
				t.Fatalf("selected %d tracks, want %d", len(got), len(tt.want))
			}
			for i, r := range got {
				if r.ID != tt.want[i] {
					t.Errorf("track %d = %q, want %q", i, r.ID, tt.want[i])
				}
				if r.Provenance != Discovery {
					t.Errorf("track %d provenance = %q", i, r.Provenance)
				}
				if !seen[r.ID] {
					t.Errorf("track %q not marked seen", r.ID)
				}
			}
		})
	}
}
