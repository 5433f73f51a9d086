package services

import (
	"fmt"
	"testing"
	"time"

	"cart-ratings-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRating(name string, lat, lon float64, score int, createdAt time.Time) models.Rating {
	return models.Rating{
		ID:           fmt.Sprintf("rating-%s-%d-%d", name, score, createdAt.UnixNano()),
		AuthorID:     "author-1",
		LocationID:   "location-1",
		Score:        score,
		PhotoURL:     "s3://bucket/ratings/photo.jpg",
		LocationName: &name,
		Latitude:     lat,
		Longitude:    lon,
		CreatedAt:    createdAt,
	}
}

func TestGroupRatingsEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, GroupRatings(nil))
	assert.Empty(t, GroupRatings([]models.Rating{}))
}

func TestGroupRatingsSingle(t *testing.T) {
	t.Parallel()

	r := makeRating("Som Tam Stand", 13.7563, 100.5018, 4, time.Now())
	groups := GroupRatings([]models.Rating{r})

	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].ReviewCount)
	assert.InDelta(t, 4.0, groups[0].AverageScore, 1e-9)
	assert.Equal(t, "Som Tam Stand", groups[0].DisplayName)
	require.NotNil(t, groups[0].MostRecent)
	assert.Equal(t, r.ID, groups[0].MostRecent.ID)
}

func TestGroupRatingsAverage(t *testing.T) {
	t.Parallel()

	now := time.Now()
	scores := []int{5, 4, 5, 3, 4}
	ratings := make([]models.Rating, 0, len(scores))
	for i, s := range scores {
		ratings = append(ratings, makeRating("Mama's Pad Thai", 13.7563, 100.5018, s, now.Add(time.Duration(i)*time.Minute)))
	}

	groups := GroupRatings(ratings)
	require.Len(t, groups, 1)
	assert.Equal(t, 5, groups[0].ReviewCount)
	assert.InDelta(t, 4.2, groups[0].AverageScore, 1e-9)
}

func TestGroupRatingsJitterMerges(t *testing.T) {
	t.Parallel()

	now := time.Now()
	a := makeRating("X", 13.0001, 100.0001, 5, now)
	b := makeRating("X", 13.00015, 100.00012, 3, now.Add(time.Minute))

	groups := GroupRatings([]models.Rating{a, b})
	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].ReviewCount)
	assert.InDelta(t, 4.0, groups[0].AverageScore, 1e-9)
}

func TestGroupRatingsSeparatesAdjacentStalls(t *testing.T) {
	t.Parallel()

	now := time.Now()
	a := makeRating("Mama's Pad Thai", 13.7563, 100.5018, 5, now)
	b := makeRating("Som Tam Stand", 13.7563, 100.5018, 2, now)

	groups := GroupRatings([]models.Rating{a, b})
	assert.Len(t, groups, 2)
}

func TestGroupRatingsCaseInsensitiveMergeKeepsFirstSeenName(t *testing.T) {
	t.Parallel()

	now := time.Now()
	a := makeRating("Mama's Pad Thai", 13.7563, 100.5018, 5, now)
	b := makeRating("MAMA'S PAD THAI", 13.7563, 100.5018, 3, now.Add(time.Minute))

	groups := GroupRatings([]models.Rating{a, b})
	require.Len(t, groups, 1)
	assert.Equal(t, "Mama's Pad Thai", groups[0].DisplayName)
}

func TestGroupRatingsMostRecentAndText(t *testing.T) {
	t.Parallel()

	now := time.Now()
	a := makeRating("X", 13.0001, 100.0001, 5, now)
	text := "great noodles"
	b := makeRating("X", 13.0001, 100.0001, 4, now.Add(time.Hour))
	b.ReviewText = &text

	groups := GroupRatings([]models.Rating{a, b})
	require.Len(t, groups, 1)
	require.NotNil(t, groups[0].MostRecent)
	assert.Equal(t, b.ID, groups[0].MostRecent.ID)
	require.Len(t, groups[0].WithText, 1)
	assert.Equal(t, b.ID, groups[0].WithText[0].ID)
}

func TestGroupRatingsOrderStable(t *testing.T) {
	t.Parallel()

	now := time.Now()
	ratings := []models.Rating{
		makeRating("Solo Stand", 13.1, 100.1, 3, now),
		makeRating("Busy Cart", 13.2, 100.2, 5, now),
		makeRating("Busy Cart", 13.2, 100.2, 4, now.Add(time.Minute)),
	}

	first := GroupRatings(ratings)
	second := GroupRatings(ratings)
	require.Equal(t, first, second)
	assert.Equal(t, "Busy Cart", first[0].DisplayName)
}
