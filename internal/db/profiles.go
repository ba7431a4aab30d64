package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is implemented by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProfileRepository handles profile database operations.
type ProfileRepository struct {
	pool querier
}

// Upsert creates or fully replaces a user's profile.
// Nil maps and slices are stored as empty values.
func (r *ProfileRepository) Upsert(ctx context.Context, p *Profile) error {
	if p.GenrePreferences == nil {
		p.GenrePreferences = map[string]float64{}
	}
	if p.FeaturePreferences == nil {
		p.FeaturePreferences = map[string]float64{}
	}
	if p.LikedArtists == nil {
		p.LikedArtists = []string{}
	}
	if p.DislikedArtists == nil {
		p.DislikedArtists = []string{}
	}

	query := `
		INSERT INTO profiles (
			user_id, genre_preferences, feature_preferences, liked_artists, disliked_artists,
			total_rated, liked_count, disliked_count, completion_rate, personality,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			genre_preferences = EXCLUDED.genre_preferences,
			feature_preferences = EXCLUDED.feature_preferences,
			liked_artists = EXCLUDED.liked_artists,
			disliked_artists = EXCLUDED.disliked_artists,
			total_rated = EXCLUDED.total_rated,
			liked_count = EXCLUDED.liked_count,
			disliked_count = EXCLUDED.disliked_count,
			completion_rate = EXCLUDED.completion_rate,
			personality = EXCLUDED.personality,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		p.UserID,
		p.GenrePreferences,
		p.FeaturePreferences,
		p.LikedArtists,
		p.DislikedArtists,
		p.TotalRated,
		p.LikedCount,
		p.DislikedCount,
		p.CompletionRate,
		p.Personality,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}

// Get retrieves a profile by user ID.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*Profile, error) {
	query := `
		SELECT user_id, genre_preferences, feature_preferences, liked_artists, disliked_artists,
			total_rated, liked_count, disliked_count, completion_rate, personality,
			created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`
	var p Profile
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.GenrePreferences,
		&p.FeaturePreferences,
		&p.LikedArtists,
		&p.DislikedArtists,
		&p.TotalRated,
		&p.LikedCount,
		&p.DislikedCount,
		&p.CompletionRate,
		&p.Personality,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	return &p, nil
}

// LoadProfile retrieves a user's stored profile.
func (db *DB) LoadProfile(ctx context.Context, userID string) (*Profile, error) {
	return db.Profiles().Get(ctx, userID)
}
