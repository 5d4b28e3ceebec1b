package assist_test

import (
	"testing"
	"time"

	"github.com/postdeck/postdeck/assist"
	"github.com/postdeck/postdeck/scheduling"
	"github.com/stretchr/testify/assert"
)

func TestSuggestOptimalTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		platform scheduling.Platform
		hour     int
	}{
		{name: "twitter", platform: scheduling.PlatformTwitter, hour: 9},
		{name: "facebook", platform: scheduling.PlatformFacebook, hour: 13},
		{name: "instagram", platform: scheduling.PlatformInstagram, hour: 11},
		{name: "linkedin", platform: scheduling.PlatformLinkedIn, hour: 8},
		{name: "unknown platform", platform: scheduling.Platform("myspace"), hour: 9},
	}

	now := time.Date(2026, time.September, 15, 17, 42, 13, 0, time.UTC)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			suggested := assist.SuggestOptimalTime(tt.platform, now)

			expected := time.Date(2026, time.September, 16, tt.hour, 0, 0, 0, time.UTC)
			assert.True(t, suggested.Equal(expected), "expected %s, got %s", expected, suggested)
		})
	}
}

func TestSuggestOptimalTimeKeepsLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("CEST", 2*60*60)
	now := time.Date(2026, time.September, 30, 23, 0, 0, 0, loc)

	suggested := assist.SuggestOptimalTime(scheduling.PlatformFacebook, now)

	// Crosses the month boundary and stays in the caller's zone.
	assert.Equal(t, time.October, suggested.Month())
	assert.Equal(t, 1, suggested.Day())
	assert.Equal(t, 13, suggested.Hour())
	assert.Equal(t, loc, suggested.Location())
}
