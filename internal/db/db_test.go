package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// testDB connects to TEST_DATABASE_URL and applies the schema.
func testDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	database, err := New(ctx, url)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(database.Close)

	for i := 0; i < 2; i++ {
		if err := database.Migrate(ctx); err != nil {
			t.Fatalf("Migrate() run %d error = %v", i+1, err)
		}
	}
	return database
}

func countRatings(t *testing.T, database *DB, userID string) int {
	t.Helper()
	var n int
	err := database.pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM quiz_ratings WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		t.Fatalf("counting ratings: %v", err)
	}
	return n
}

func ratings(songIDs ...string) []QuizRating {
	now := time.Now().UTC()
	out := make([]QuizRating, len(songIDs))
	for i, id := range songIDs {
		out[i] = QuizRating{SongID: id, Liked: i%2 == 0, RatedAt: now.Add(time.Duration(i) * time.Second)}
	}
	return out
}

func TestDB_SaveQuiz(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	userID := "test-" + uuid.NewString()
	t.Cleanup(func() {
		database.pool.Exec(context.Background(), `DELETE FROM profiles WHERE user_id = $1`, userID)
	})

	first := &Profile{
		UserID:             userID,
		GenrePreferences:   map[string]float64{"pop": 1, "rock": 0.5},
		FeaturePreferences: map[string]float64{"energy": 0.8},
		LikedArtists:       []string{"Taylor Swift"},
		DislikedArtists:    []string{"Queen"},
		TotalRated:         3,
		LikedCount:         2,
		DislikedCount:      1,
		CompletionRate:     0.15,
		Personality:        "Pop Enthusiast",
	}
	if err := database.SaveQuiz(ctx, first, ratings("a", "b", "c")); err != nil {
		t.Fatalf("SaveQuiz() error = %v", err)
	}
	if n := countRatings(t, database, userID); n != 3 {
		t.Errorf("stored %d ratings, want 3", n)
	}

	got, err := database.LoadProfile(ctx, userID)
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if got.GenrePreferences["rock"] != 0.5 || got.FeaturePreferences["energy"] != 0.8 {
		t.Errorf("preferences = %v / %v", got.GenrePreferences, got.FeaturePreferences)
	}
	if len(got.LikedArtists) != 1 || got.Personality != "Pop Enthusiast" || got.TotalRated != 3 {
		t.Errorf("profile = %+v", got)
	}
	createdAt := got.CreatedAt

	// A retake replaces the profile and every rating.
	retake := &Profile{
		UserID:             userID,
		GenrePreferences:   map[string]float64{"country": 1},
		FeaturePreferences: map[string]float64{},
		TotalRated:         1,
		LikedCount:         1,
		CompletionRate:     0.05,
		Personality:        "Country Soul",
	}
	if err := database.SaveQuiz(ctx, retake, ratings("d")); err != nil {
		t.Fatalf("SaveQuiz(retake) error = %v", err)
	}
	if n := countRatings(t, database, userID); n != 1 {
		t.Errorf("stored %d ratings after retake, want 1", n)
	}
	got, err = database.LoadProfile(ctx, userID)
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if _, ok := got.GenrePreferences["pop"]; ok || got.Personality != "Country Soul" {
		t.Errorf("retake profile = %+v", got)
	}
	if !got.CreatedAt.Equal(createdAt) {
		t.Errorf("created_at changed from %v to %v", createdAt, got.CreatedAt)
	}

	// A failed insert rolls back the whole quiz.
	if err := database.SaveQuiz(ctx, first, ratings("e", "e")); err == nil {
		t.Fatal("SaveQuiz(duplicate songs) expected error")
	}
	if n := countRatings(t, database, userID); n != 1 {
		t.Errorf("stored %d ratings after failed save, want 1", n)
	}
	got, err = database.LoadProfile(ctx, userID)
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if got.Personality != "Country Soul" {
		t.Errorf("personality = %q after failed save, want Country Soul", got.Personality)
	}
}

func TestDB_LoadProfileNotFound(t *testing.T) {
	database := testDB(t)
	if _, err := database.LoadProfile(context.Background(), "missing-"+uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadProfile(missing) error = %v, want ErrNotFound", err)
	}
}
