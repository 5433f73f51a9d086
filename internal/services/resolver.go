package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"cart-ratings-backend/internal/models"

	"github.com/google/uuid"
)

// LocationResolver maps a (name, coordinate) pair onto exactly one
// canonical location, creating a new one only when no sufficiently
// similar location exists.
type LocationResolver struct {
	store     Store
	tolerance float64
}

// NewLocationResolver creates a new location resolver. The tolerance is
// the per-axis coordinate threshold in degrees under which two
// locations count as the same spot.
func NewLocationResolver(store Store, tolerance float64) *LocationResolver {
	return &LocationResolver{
		store:     store,
		tolerance: tolerance,
	}
}

// ResolveOrCreate returns the canonical location for the submitted name
// and coordinate. A candidate matches when its name equals the query
// name case-insensitively and whitespace-trimmed (absent names match
// each other) and both coordinate axes differ by less than the
// tolerance. With multiple matches the earliest-created one wins, so
// repeated calls stay deterministic. When nothing matches, a new
// location is persisted with the submitted values verbatim.
//
// Two concurrent calls for a brand-new cart can both miss and both
// create a location. That race is accepted: grouping keys off the
// denormalized name and coordinate, so duplicate rows still present as
// one group.
func (r *LocationResolver) ResolveOrCreate(ctx context.Context, name *string, lat, lon float64) (models.Location, error) {
	locations, err := r.store.ListLocations(ctx)
	if err != nil {
		return models.Location{}, fmt.Errorf("%w: listing locations: %v", models.ErrStoreUnavailable, err)
	}

	var match *models.Location
	for i := range locations {
		candidate := &locations[i]
		if !sameName(candidate.Name, name) {
			continue
		}
		if math.Abs(candidate.Latitude-lat) >= r.tolerance {
			continue
		}
		if math.Abs(candidate.Longitude-lon) >= r.tolerance {
			continue
		}
		if match == nil || candidate.CreatedAt.Before(match.CreatedAt) {
			match = candidate
		}
	}
	if match != nil {
		return *match, nil
	}

	location := models.Location{
		ID:        uuid.New().String(),
		Name:      name,
		Latitude:  lat,
		Longitude: lon,
		CreatedAt: time.Now().UTC(),
	}
	created, err := r.store.InsertLocation(ctx, location)
	if err != nil {
		return models.Location{}, fmt.Errorf("%w: inserting location: %v", models.ErrStoreUnavailable, err)
	}
	return created, nil
}
