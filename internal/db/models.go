package db

import (
	"time"

	"github.com/google/uuid"
)

// Profile is a stored quiz profile. Preference maps are kept as JSONB.
type Profile struct {
	UserID             string
	GenrePreferences   map[string]float64
	FeaturePreferences map[string]float64
	LikedArtists       []string
	DislikedArtists    []string
	TotalRated         int
	LikedCount         int
	DislikedCount      int
	CompletionRate     float64
	Personality        string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// QuizRating is one swipe from a completed quiz.
type QuizRating struct {
	ID      uuid.UUID
	UserID  string
	SongID  string
	Liked   bool
	RatedAt time.Time
}
