package services

import (
	"fmt"
	"strings"
)

// UnknownName is the placeholder used when a rating or location carries
// no display name.
const UnknownName = "Unknown"

// geoKeySeparator joins the name and coordinate components of a key.
// It cannot occur in numeric coordinate text, so keys parse unambiguously.
const geoKeySeparator = "|"

// GeoKey derives a stable grouping key from a display name and a
// coordinate. Coordinates are rounded to 4 decimal places (roughly 11
// meters at the equator) so that GPS jitter between submissions for the
// same cart still lands on the same key. The name component is trimmed
// and lower-cased, so names differing only by case or surrounding
// whitespace map to the same key.
func GeoKey(name *string, lat, lon float64) string {
	return fmt.Sprintf("%s%s%.4f%s%.4f",
		normalizeName(name), geoKeySeparator, lat, geoKeySeparator, lon)
}

// DisplayName returns the case-preserved name to show for a rating or
// location, substituting the placeholder when none was provided.
func DisplayName(name *string) string {
	if name == nil {
		return UnknownName
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return UnknownName
	}
	return trimmed
}

// normalizeName produces the comparison form of a name: trimmed,
// lower-cased, with the placeholder substituted for absent or blank
// input.
func normalizeName(name *string) string {
	return strings.ToLower(DisplayName(name))
}

// sameName reports whether two optional names are equal under the
// grouping rules (case-insensitive, whitespace-trimmed, absent equals
// blank equals placeholder).
func sameName(a, b *string) bool {
	return normalizeName(a) == normalizeName(b)
}
