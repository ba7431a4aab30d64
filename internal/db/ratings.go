package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RatingRepository handles quiz rating database operations.
type RatingRepository struct {
	pool querier
}

// ReplaceForUser deletes a user's previous ratings and inserts the new set.
func (r *RatingRepository) ReplaceForUser(ctx context.Context, userID string, ratings []QuizRating) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM quiz_ratings WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("deleting previous ratings: %w", err)
	}
	if len(ratings) == 0 {
		return nil
	}

	query := `
		INSERT INTO quiz_ratings (id, user_id, song_id, liked, rated_at)
		SELECT * FROM unnest($1::uuid[], $2::text[], $3::text[], $4::bool[], $5::timestamptz[])
	`

	ids := make([]string, len(ratings))
	userIDs := make([]string, len(ratings))
	songIDs := make([]string, len(ratings))
	liked := make([]bool, len(ratings))
	ratedAts := make([]time.Time, len(ratings))

	for i, rt := range ratings {
		if rt.ID == uuid.Nil {
			rt.ID = uuid.New()
		}
		ids[i] = rt.ID.String()
		userIDs[i] = userID
		songIDs[i] = rt.SongID
		liked[i] = rt.Liked
		ratedAts[i] = rt.RatedAt
	}

	if _, err := r.pool.Exec(ctx, query, ids, userIDs, songIDs, liked, ratedAts); err != nil {
		return fmt.Errorf("inserting ratings: %w", err)
	}
	return nil
}

// SaveQuiz stores a profile and its ratings in one transaction,
// replacing anything previously stored for the user.
func (db *DB) SaveQuiz(ctx context.Context, p *Profile, ratings []QuizRating) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := (&ProfileRepository{pool: tx}).Upsert(ctx, p); err != nil {
		return err
	}
	if err := (&RatingRepository{pool: tx}).ReplaceForUser(ctx, p.UserID, ratings); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
