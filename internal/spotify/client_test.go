package spotify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-image-to-song/internal/recommend"
)

const searchResponse = `{
	"tracks": {
		"items": [
			{
				"id": "t1",
				"name": "Walking on Sunshine",
				"artists": [{"name": "Katrina and the Waves"}],
				"album": {"name": "Walking on Sunshine", "images": [{"url": "https://img/1.jpg"}]},
				"popularity": 81,
				"preview_url": "https://preview/1",
				"external_urls": {"spotify": "https://open.spotify.com/track/t1"}
			},
			{
				"id": "t2",
				"name": "Happy",
				"artists": [{"name": "Pharrell Williams"}, {"name": "Guest"}],
				"album": {"name": "G I R L", "images": []},
				"popularity": 77
			}
		]
	}
}`

const featuresResponse = `{
	"audio_features": [
		{"id": "t1", "danceability": 0.6, "energy": 0.9, "valence": 0.95, "acousticness": 0.1,
		 "instrumentalness": 0, "tempo": 110, "loudness": -6},
		null
	]
}`

func newTestClient(t *testing.T, h http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	api := spotify.New(srv.Client(), spotify.WithBaseURL(srv.URL+"/"))
	return New(api, opts...)
}

func TestClient_SearchText(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "happy songs" {
			t.Errorf("q = %q, want happy songs", got)
		}
		if got := r.URL.Query().Get("market"); got != "GB" {
			t.Errorf("market = %q, want GB", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(searchResponse))
	})
	mux.HandleFunc("/audio-features", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(featuresResponse))
	})

	c := newTestClient(t, mux, WithMarket("GB"))
	cands, err := c.Search(context.Background(), recommend.Query{Text: "happy songs", Limit: 5})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("Search() returned %d candidates, want 2", len(cands))
	}

	first := cands[0]
	if first.ID != "t1" || first.Album != "Walking on Sunshine" || first.AlbumCover != "https://img/1.jpg" {
		t.Errorf("first = %+v", first)
	}
	if first.Popularity != 81 {
		t.Errorf("popularity = %d, want 81", first.Popularity)
	}
	if got := first.Features["energy"]; got < 0.899 || got > 0.901 {
		t.Errorf("energy = %v, want 0.9", got)
	}
	if got := first.Features["tempo"]; got < 0.399 || got > 0.401 {
		t.Errorf("tempo = %v, want 0.4", got)
	}

	second := cands[1]
	if second.Artist != "Pharrell Williams, Guest" {
		t.Errorf("artist = %q", second.Artist)
	}
	if second.SpotifyURL != "https://open.spotify.com/track/t2" {
		t.Errorf("spotify url = %q", second.SpotifyURL)
	}
	if second.Features != nil {
		t.Errorf("features = %v, want nil", second.Features)
	}
}

func TestClient_FeaturesForbiddenDisablesLookup(t *testing.T) {
	var featureCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(searchResponse))
	})
	mux.HandleFunc("/audio-features", func(w http.ResponseWriter, r *http.Request) {
		featureCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"status":403,"message":"Forbidden"}}`))
	})

	c := newTestClient(t, mux)
	for i := 0; i < 2; i++ {
		cands, err := c.Search(context.Background(), recommend.Query{Text: "calm"})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(cands) != 2 {
			t.Fatalf("Search() returned %d candidates, want 2", len(cands))
		}
	}
	if n := featureCalls.Load(); n != 1 {
		t.Errorf("audio features called %d times, want 1", n)
	}
}

func TestClient_SearchSeeds(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/recommendations", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("seed_genres"); got != "pop,rock" {
			t.Errorf("seed_genres = %q", got)
		}
		if got := q.Get("target_energy"); got == "" {
			t.Error("target_energy missing")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tracks":[{"id":"r1","name":"Seeded","artists":[{"name":"Band"}]}]}`))
	})

	c := newTestClient(t, mux, WithAudioFeatures(false))
	cands, err := c.Search(context.Background(), recommend.Query{
		SeedGenres: []string{"pop", "rock"},
		Target:     map[string]float64{"energy": 0.7},
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(cands) != 1 || cands[0].ID != "r1" || cands[0].Artist != "Band" {
		t.Errorf("cands = %+v", cands)
	}
}

func TestClient_SearchError(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"status":400,"message":"bad"}}`))
	})
	c := newTestClient(t, h)
	if _, err := c.Search(context.Background(), recommend.Query{Text: "x"}); err == nil {
		t.Error("Search() expected error")
	}
}

func TestTrackAttributes(t *testing.T) {
	if trackAttributes(nil) != nil {
		t.Error("trackAttributes(nil) should be nil")
	}
	if trackAttributes(map[string]float64{"energy": 0.5}) == nil {
		t.Error("trackAttributes(energy) should not be nil")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		fn   func(float64) float64
		in   float64
		want float64
	}{
		{"tempo floor", NormalizeTempo, 40, 0},
		{"tempo mid", NormalizeTempo, 125, 0.5},
		{"tempo ceiling", NormalizeTempo, 250, 1},
		{"loudness quiet", NormalizeLoudness, -70, 0},
		{"loudness mid", NormalizeLoudness, -30, 0.5},
		{"loudness max", NormalizeLoudness, 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
