package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestGeoKeyDeterministic(t *testing.T) {
	t.Parallel()

	name := strPtr("Mama's Pad Thai")
	first := GeoKey(name, 13.75630, 100.50180)
	second := GeoKey(name, 13.75630, 100.50180)
	assert.Equal(t, first, second)
}

func TestGeoKeyNormalization(t *testing.T) {
	t.Parallel()

	base := GeoKey(strPtr("Mama's Pad Thai"), 13.7563, 100.5018)

	tests := []struct {
		name  string
		input *string
		lat   float64
		lon   float64
		same  bool
	}{
		{name: "upper case", input: strPtr("MAMA'S PAD THAI"), lat: 13.7563, lon: 100.5018, same: true},
		{name: "surrounding whitespace", input: strPtr("  Mama's Pad Thai "), lat: 13.7563, lon: 100.5018, same: true},
		{name: "gps jitter", input: strPtr("Mama's Pad Thai"), lat: 13.75632, lon: 100.50178, same: true},
		{name: "different name", input: strPtr("Som Tam Stand"), lat: 13.7563, lon: 100.5018, same: false},
		{name: "far away", input: strPtr("Mama's Pad Thai"), lat: 13.7580, lon: 100.5018, same: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := GeoKey(tt.input, tt.lat, tt.lon)
			if tt.same {
				assert.Equal(t, base, got)
			} else {
				assert.NotEqual(t, base, got)
			}
		})
	}
}

func TestGeoKeyMissingName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, GeoKey(nil, 13.7563, 100.5018), GeoKey(strPtr(""), 13.7563, 100.5018))
	assert.Equal(t, GeoKey(nil, 13.7563, 100.5018), GeoKey(strPtr("   "), 13.7563, 100.5018))
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Unknown", DisplayName(nil))
	assert.Equal(t, "Unknown", DisplayName(strPtr("  ")))
	assert.Equal(t, "Mama's Pad Thai", DisplayName(strPtr(" Mama's Pad Thai ")))
}
