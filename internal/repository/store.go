package repository

import (
	"context"

	"cart-ratings-backend/internal/models"
)

// Store combines the location and rating repositories into the single
// structured-data collaborator the sync engine consumes.
type Store struct {
	locations *LocationRepository
	ratings   *RatingRepository
}

// NewStore creates a new store facade
func NewStore(locations *LocationRepository, ratings *RatingRepository) *Store {
	return &Store{locations: locations, ratings: ratings}
}

// ListLocations retrieves all locations
func (s *Store) ListLocations(ctx context.Context) ([]models.Location, error) {
	return s.locations.List(ctx)
}

// InsertLocation creates a new location
func (s *Store) InsertLocation(ctx context.Context, location models.Location) (models.Location, error) {
	return s.locations.Insert(ctx, location)
}

// ListRatings retrieves all ratings
func (s *Store) ListRatings(ctx context.Context) ([]models.Rating, error) {
	return s.ratings.List(ctx)
}

// InsertRating creates a new rating and publishes its insert event
func (s *Store) InsertRating(ctx context.Context, rating models.Rating) (models.Rating, error) {
	return s.ratings.Insert(ctx, rating)
}

// DeleteRating removes a rating, scoped to its author
func (s *Store) DeleteRating(ctx context.Context, id, authorID string) error {
	return s.ratings.Delete(ctx, id, authorID)
}

// DeleteAllRatingsForAuthor removes every rating by the given author
func (s *Store) DeleteAllRatingsForAuthor(ctx context.Context, authorID string) error {
	return s.ratings.DeleteAllForAuthor(ctx, authorID)
}

// PurgeAll wipes all ratings and locations
func (s *Store) PurgeAll(ctx context.Context) error {
	return s.ratings.PurgeAll(ctx)
}
