package recommend

import (
	"sort"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// candidateObservation wraps a ranked track to implement clusters.Observation.
type candidateObservation struct {
	rank   int
	coords clusters.Coordinates
}

func (o candidateObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o candidateObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// diverseSelection picks up to limit tracks spread across the feature space.
// Candidates are grouped with k-means (k = limit) and the best-ranked track of
// each group is taken; remaining slots are filled in rank order. Too few
// candidates with full features fall back to plain rank order.
func diverseSelection(candidates []Candidate, target map[string]float64, limit int, seen map[string]bool) []Recommendation {
	ranked := rank(candidates, target, Discovery)
	if limit <= 1 {
		return selectTracks(ranked, limit, seen)
	}

	features := make(map[string]map[string]float64, len(candidates))
	for _, c := range candidates {
		if _, ok := features[c.ID]; !ok {
			features[c.ID] = c.Features
		}
	}

	var obs clusters.Observations
	for i, r := range ranked {
		if seen[r.ID] {
			continue
		}
		coords, ok := coordinates(features[r.ID])
		if !ok {
			continue
		}
		obs = append(obs, candidateObservation{rank: i, coords: coords})
	}
	if len(obs) < 2*limit {
		return selectTracks(ranked, limit, seen)
	}

	groups, err := kmeans.New().Partition(obs, limit)
	if err != nil {
		return selectTracks(ranked, limit, seen)
	}

	var leaders []int
	for _, g := range groups {
		best := -1
		for _, o := range g.Observations {
			if r := o.(candidateObservation).rank; best < 0 || r < best {
				best = r
			}
		}
		if best >= 0 {
			leaders = append(leaders, best)
		}
	}
	sort.Ints(leaders)

	// Leaders first, then everything else in rank order.
	ordered := make([]Recommendation, 0, len(ranked))
	isLeader := make(map[int]bool, len(leaders))
	for _, i := range leaders {
		isLeader[i] = true
		ordered = append(ordered, ranked[i])
	}
	for i, r := range ranked {
		if !isLeader[i] {
			ordered = append(ordered, r)
		}
	}
	return selectTracks(ordered, limit, seen)
}

// coordinates maps a feature map onto the blend feature axes.
func coordinates(features map[string]float64) (clusters.Coordinates, bool) {
	coords := make(clusters.Coordinates, len(BlendFeatures))
	for i, f := range BlendFeatures {
		v, ok := features[f]
		if !ok {
			return nil, false
		}
		coords[i] = v
	}
	return coords, true
}
