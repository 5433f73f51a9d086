package repository

import (
	"context"
	"fmt"

	"cart-ratings-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LocationRepository handles database operations for locations
type LocationRepository struct {
	db *pgxpool.Pool
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(db *pgxpool.Pool) *LocationRepository {
	return &LocationRepository{db: db}
}

// List retrieves all locations
func (r *LocationRepository) List(ctx context.Context) ([]models.Location, error) {
	query := `
		SELECT id, name, latitude, longitude, created_at
		FROM locations
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	var locations []models.Location
	for rows.Next() {
		var location models.Location
		err := rows.Scan(
			&location.ID, &location.Name, &location.Latitude,
			&location.Longitude, &location.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, location)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locations: %w", err)
	}

	return locations, nil
}

// Insert creates a new location. Locations are immutable once created.
func (r *LocationRepository) Insert(ctx context.Context, location models.Location) (models.Location, error) {
	query := `
		INSERT INTO locations (id, name, latitude, longitude, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query,
		location.ID, location.Name, location.Latitude, location.Longitude, location.CreatedAt,
	)
	if err != nil {
		return models.Location{}, fmt.Errorf("failed to create location: %w", err)
	}
	return location, nil
}
