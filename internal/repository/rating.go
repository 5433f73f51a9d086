package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"cart-ratings-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RatingEventsChannel is the Postgres notification channel on which
// rating inserts are published, in the same transaction as the insert.
const RatingEventsChannel = "rating_events"

// RatingRepository handles database operations for ratings
type RatingRepository struct {
	db *pgxpool.Pool
}

// NewRatingRepository creates a new rating repository
func NewRatingRepository(db *pgxpool.Pool) *RatingRepository {
	return &RatingRepository{db: db}
}

// List retrieves all ratings
func (r *RatingRepository) List(ctx context.Context) ([]models.Rating, error) {
	query := `
		SELECT id, author_id, location_id, score, review_text,
		       photo_url, photo2_url, location_name, latitude, longitude, created_at
		FROM ratings
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	var ratings []models.Rating
	for rows.Next() {
		var rating models.Rating
		err := rows.Scan(
			&rating.ID, &rating.AuthorID, &rating.LocationID, &rating.Score,
			&rating.ReviewText, &rating.PhotoURL, &rating.Photo2URL,
			&rating.LocationName, &rating.Latitude, &rating.Longitude, &rating.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}

	return ratings, nil
}

// Insert creates a new rating and publishes the insert event on
// RatingEventsChannel in the same transaction, so subscribers only see
// committed rows. The referenced location must exist; the write is
// rejected otherwise.
func (r *RatingRepository) Insert(ctx context.Context, rating models.Rating) (models.Rating, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return models.Rating{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var location models.Location
	err = tx.QueryRow(ctx, `
		SELECT id, name, latitude, longitude, created_at
		FROM locations
		WHERE id = $1
	`, rating.LocationID).Scan(
		&location.ID, &location.Name, &location.Latitude,
		&location.Longitude, &location.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return models.Rating{}, fmt.Errorf("location %s: %w", rating.LocationID, models.ErrNotFound)
		}
		return models.Rating{}, fmt.Errorf("failed to load location: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO ratings (id, author_id, location_id, score, review_text,
		                     photo_url, photo2_url, location_name, latitude, longitude, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		rating.ID, rating.AuthorID, rating.LocationID, rating.Score, rating.ReviewText,
		rating.PhotoURL, rating.Photo2URL, rating.LocationName, rating.Latitude,
		rating.Longitude, rating.CreatedAt,
	)
	if err != nil {
		return models.Rating{}, fmt.Errorf("failed to create rating: %w", err)
	}

	payload, err := json.Marshal(struct {
		Rating   models.Rating   `json:"rating"`
		Location models.Location `json:"location"`
	}{rating, location})
	if err != nil {
		return models.Rating{}, fmt.Errorf("failed to marshal rating event: %w", err)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, RatingEventsChannel, string(payload)); err != nil {
		return models.Rating{}, fmt.Errorf("failed to publish rating event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Rating{}, fmt.Errorf("failed to commit rating: %w", err)
	}
	return rating, nil
}

// Delete removes a rating, scoped to its author so users can only
// delete their own ratings.
func (r *RatingRepository) Delete(ctx context.Context, id, authorID string) error {
	query := `DELETE FROM ratings WHERE id = $1 AND author_id = $2`
	result, err := r.db.Exec(ctx, query, id, authorID)
	if err != nil {
		return fmt.Errorf("failed to delete rating: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("rating %s for author %s: %w", id, authorID, models.ErrNotFound)
	}
	return nil
}

// DeleteAllForAuthor removes every rating by the given author.
func (r *RatingRepository) DeleteAllForAuthor(ctx context.Context, authorID string) error {
	query := `DELETE FROM ratings WHERE author_id = $1`
	if _, err := r.db.Exec(ctx, query, authorID); err != nil {
		return fmt.Errorf("failed to delete ratings for author: %w", err)
	}
	return nil
}

// PurgeAll wipes all ratings and locations. Administrative and test
// use only; idempotent.
func (r *RatingRepository) PurgeAll(ctx context.Context) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM ratings`); err != nil {
		return fmt.Errorf("failed to purge ratings: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM locations`); err != nil {
		return fmt.Errorf("failed to purge locations: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit purge: %w", err)
	}
	return nil
}
