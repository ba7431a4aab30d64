package quiz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justestif/go-image-to-song/internal/db"
	"github.com/justestif/go-image-to-song/internal/logging"
	"github.com/justestif/go-image-to-song/internal/metrics"
	"github.com/justestif/go-image-to-song/internal/preferences"
)

// Errors returned by Service.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoStore         = errors.New("profile storage is not configured")
)

// Store persists completed quizzes.
type Store interface {
	SaveQuiz(ctx context.Context, p *db.Profile, ratings []db.QuizRating) error
	LoadProfile(ctx context.Context, userID string) (*db.Profile, error)
}

var _ Store = (*db.DB)(nil)

// Rating is one swipe submitted by the client.
type Rating struct {
	SongID  string    `json:"song_id" validate:"required"`
	Liked   *bool     `json:"liked" validate:"required"`
	RatedAt time.Time `json:"rated_at"`
}

// Summary is a short human-facing digest of a profile.
type Summary struct {
	TopGenres      []string `json:"top_genres"`
	Personality    string   `json:"music_personality"`
	LikedCount     int      `json:"liked_count"`
	DislikedCount  int      `json:"disliked_count"`
	CompletionRate float64  `json:"completion_rate"`
}

// Result is the outcome of a completed quiz.
type Result struct {
	Profile   *preferences.Profile `json:"user_profile"`
	Summary   Summary              `json:"summary"`
	Persisted bool                 `json:"persisted"`
}

// Service serves quizzes and calculates profiles.
type Service struct {
	catalog *Catalog
	store   Store
}

// Option configures a Service.
type Option func(*Service)

// WithStore enables server-side persistence of profiles.
func WithStore(s Store) Option {
	return func(svc *Service) {
		svc.store = s
	}
}

// New creates a quiz service over a catalog.
func New(catalog *Catalog, opts ...Option) *Service {
	s := &Service{catalog: catalog}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the quiz songs.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// Songs returns a randomized quiz of up to limit songs.
func (s *Service) Songs(limit int) ([]QuizSong, error) {
	if limit < 1 || limit > s.catalog.Len() {
		return nil, &preferences.ValidationError{
			Field:   "limit",
			Message: fmt.Sprintf("must be between 1 and %d", s.catalog.Len()),
		}
	}
	return s.catalog.Sample(limit), nil
}

// Calculate aggregates quiz ratings into a profile.
// With a store and a user ID the profile replaces any previous one; a storage
// failure is logged and reported through Result.Persisted, not returned.
func (s *Service) Calculate(ctx context.Context, userID string, ratings []Rating) (*Result, error) {
	if len(ratings) == 0 {
		return nil, &preferences.ValidationError{Field: "song_ratings", Message: "at least one rating is required"}
	}

	songs := make([]preferences.RatedSong, len(ratings))
	seen := make(map[string]bool, len(ratings))
	for i, r := range ratings {
		field := fmt.Sprintf("song_ratings[%d]", i)
		if r.SongID == "" {
			return nil, &preferences.ValidationError{Field: field + ".song_id", Message: "missing song identifier"}
		}
		if seen[r.SongID] {
			return nil, &preferences.ValidationError{Field: field + ".song_id", Message: fmt.Sprintf("song %s rated twice", r.SongID)}
		}
		seen[r.SongID] = true

		song, ok := s.catalog.Song(r.SongID)
		if !ok {
			return nil, &preferences.ValidationError{Field: field + ".song_id", Message: fmt.Sprintf("unknown quiz song %s", r.SongID)}
		}
		songs[i] = preferences.RatedSong{
			ID:       song.ID,
			Title:    song.Title,
			Artist:   song.Artist,
			Genres:   song.Genres,
			Features: song.Features,
			Liked:    r.Liked,
		}
	}

	profile, err := preferences.Aggregate(songs)
	if err != nil {
		return nil, err
	}
	profile.UserID = userID
	profile.Stats.CompletionRate = float64(len(ratings)) / float64(s.catalog.Len())
	metrics.ProfilesCalculated.Inc()

	result := &Result{
		Profile: profile,
		Summary: Summary{
			TopGenres:      profile.TopGenres(3),
			Personality:    profile.Personality,
			LikedCount:     profile.Stats.Liked,
			DislikedCount:  profile.Stats.Disliked,
			CompletionRate: profile.Stats.CompletionRate,
		},
	}
	if result.Summary.TopGenres == nil {
		result.Summary.TopGenres = []string{}
	}

	if s.store != nil && userID != "" {
		if err := s.store.SaveQuiz(ctx, toDBProfile(profile), toDBRatings(userID, ratings)); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("saving quiz profile")
		} else {
			result.Persisted = true
		}
	}

	return result, nil
}

// Profile loads a stored profile.
func (s *Service) Profile(ctx context.Context, userID string) (*preferences.Profile, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	p, err := s.store.LoadProfile(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	return fromDBProfile(p), nil
}

func toDBProfile(p *preferences.Profile) *db.Profile {
	return &db.Profile{
		UserID:             p.UserID,
		GenrePreferences:   p.GenrePreferences,
		FeaturePreferences: p.FeaturePreferences,
		LikedArtists:       p.LikedArtists,
		DislikedArtists:    p.DislikedArtists,
		TotalRated:         p.Stats.TotalRated,
		LikedCount:         p.Stats.Liked,
		DislikedCount:      p.Stats.Disliked,
		CompletionRate:     p.Stats.CompletionRate,
		Personality:        p.Personality,
	}
}

func toDBRatings(userID string, ratings []Rating) []db.QuizRating {
	now := time.Now().UTC()
	out := make([]db.QuizRating, len(ratings))
	for i, r := range ratings {
		ratedAt := r.RatedAt
		if ratedAt.IsZero() {
			ratedAt = now
		}
		out[i] = db.QuizRating{UserID: userID, SongID: r.SongID, Liked: *r.Liked, RatedAt: ratedAt}
	}
	return out
}

func fromDBProfile(p *db.Profile) *preferences.Profile {
	return &preferences.Profile{
		UserID:             p.UserID,
		GenrePreferences:   p.GenrePreferences,
		FeaturePreferences: p.FeaturePreferences,
		LikedArtists:       p.LikedArtists,
		DislikedArtists:    p.DislikedArtists,
		Stats: preferences.Stats{
			TotalRated:     p.TotalRated,
			Liked:          p.LikedCount,
			Disliked:       p.DislikedCount,
			CompletionRate: p.CompletionRate,
		},
		Personality:   p.Personality,
		QuizCompleted: true,
		CreatedAt:     p.UpdatedAt,
	}
}
