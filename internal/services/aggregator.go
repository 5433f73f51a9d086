package services

import (
	"sort"

	"cart-ratings-backend/internal/models"
)

// GroupRatings groups a flat rating collection into one LocationGroup
// per geo key. The transform is pure and deterministic: no I/O, an
// empty input yields an empty result, and the output order is stable
// (most reviews first, key as tiebreaker).
//
// Each rating is keyed by its own denormalized name and coordinate, not
// by its location id. Two Location rows created concurrently for the
// same physical cart therefore still collapse into a single group.
func GroupRatings(ratings []models.Rating) []models.LocationGroup {
	buckets := make(map[string][]models.Rating)
	order := make([]string, 0)

	for _, r := range ratings {
		key := GeoKey(r.LocationName, r.Latitude, r.Longitude)
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], r)
	}

	groups := make([]models.LocationGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, buildGroup(key, buckets[key]))
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].ReviewCount != groups[j].ReviewCount {
			return groups[i].ReviewCount > groups[j].ReviewCount
		}
		return groups[i].GroupKey < groups[j].GroupKey
	})

	return groups
}

// buildGroup materializes one group from a non-empty bucket. The
// first-seen rating supplies the group's display identity.
func buildGroup(key string, members []models.Rating) models.LocationGroup {
	first := members[0]
	group := models.LocationGroup{
		GroupKey:    key,
		DisplayName: DisplayName(first.LocationName),
		Latitude:    first.Latitude,
		Longitude:   first.Longitude,
		Ratings:     members,
		ReviewCount: len(members),
	}

	sum := 0
	for i := range members {
		sum += members[i].Score
		if group.MostRecent == nil || members[i].CreatedAt.After(group.MostRecent.CreatedAt) {
			group.MostRecent = &members[i]
		}
		if members[i].ReviewText != nil && *members[i].ReviewText != "" {
			group.WithText = append(group.WithText, members[i])
		}
	}
	if len(members) > 0 {
		group.AverageScore = float64(sum) / float64(len(members))
	}

	return group
}
