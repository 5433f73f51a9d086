package models

import "time"

// User represents an anonymous user identity
type User struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// Location represents a canonical physical vendor spot.
// It is created once and never mutated afterwards; coordinates are
// stored verbatim as submitted, not rounded.
type Location struct {
	ID        string    `json:"id"`
	Name      *string   `json:"name,omitempty"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
}

// Rating represents one user's review of one visit to one location.
// Name and coordinate are denormalized copies of the location's values
// so that grouping never needs a join against the locations table.
type Rating struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	LocationID   string    `json:"location_id"`
	Score        int       `json:"score"`
	ReviewText   *string   `json:"review_text,omitempty"`
	PhotoURL     string    `json:"photo_url"`
	Photo2URL    *string   `json:"photo2_url,omitempty"`
	LocationName *string   `json:"location_name,omitempty"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	CreatedAt    time.Time `json:"created_at"`
}

// LocationGroup is the derived join of all ratings sharing a geo key.
// It is recomputed from the rating collection after every change and
// is never persisted.
type LocationGroup struct {
	GroupKey     string   `json:"group_key"`
	DisplayName  string   `json:"display_name"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Ratings      []Rating `json:"ratings"`
	AverageScore float64  `json:"average_score"`
	ReviewCount  int      `json:"review_count"`
	MostRecent   *Rating  `json:"most_recent,omitempty"`
	WithText     []Rating `json:"with_text,omitempty"`
}
