package calendar_test

import (
	"testing"
	"time"

	"github.com/postdeck/postdeck/calendar"
	"github.com/postdeck/postdeck/scheduling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		a        time.Time
		b        time.Time
		expected bool
	}{
		{
			name:     "same instant",
			a:        time.Date(2026, time.September, 15, 9, 0, 0, 0, time.UTC),
			b:        time.Date(2026, time.September, 15, 9, 0, 0, 0, time.UTC),
			expected: true,
		},
		{
			name:     "same day different hours",
			a:        time.Date(2026, time.September, 15, 0, 0, 1, 0, time.UTC),
			b:        time.Date(2026, time.September, 15, 23, 59, 59, 0, time.UTC),
			expected: true,
		},
		{
			name:     "consecutive days",
			a:        time.Date(2026, time.September, 15, 23, 59, 59, 0, time.UTC),
			b:        time.Date(2026, time.September, 16, 0, 0, 0, 0, time.UTC),
			expected: false,
		},
		{
			name:     "same utc day across zones",
			a:        time.Date(2026, time.September, 15, 23, 30, 0, 0, time.FixedZone("CEST", 2*60*60)),
			b:        time.Date(2026, time.September, 15, 12, 0, 0, 0, time.UTC),
			expected: true,
		},
		{
			name:     "local day differs from utc day",
			a:        time.Date(2026, time.September, 15, 1, 30, 0, 0, time.FixedZone("CEST", 2*60*60)),
			b:        time.Date(2026, time.September, 15, 12, 0, 0, 0, time.UTC),
			expected: false,
		},
		{
			name:     "same day a year apart",
			a:        time.Date(2025, time.September, 15, 9, 0, 0, 0, time.UTC),
			b:        time.Date(2026, time.September, 15, 9, 0, 0, 0, time.UTC),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, calendar.SameDay(tt.a, tt.b))
			assert.Equal(t, tt.expected, calendar.SameDay(tt.b, tt.a))
		})
	}
}

func TestPostsOnDay(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, time.September, 15, 0, 0, 0, 0, time.UTC)

	morning := &scheduling.Post{
		ID:            "morning",
		ScheduledTime: time.Date(2026, time.September, 15, 8, 0, 0, 0, time.UTC),
	}
	evening := &scheduling.Post{
		ID:            "evening",
		ScheduledTime: time.Date(2026, time.September, 15, 21, 30, 0, 0, time.UTC),
	}
	nextDay := &scheduling.Post{
		ID:            "next-day",
		ScheduledTime: time.Date(2026, time.September, 16, 8, 0, 0, 0, time.UTC),
	}

	posts := calendar.PostsOnDay([]*scheduling.Post{morning, nextDay, evening}, day)

	require.Len(t, posts, 2)
	assert.Equal(t, "morning", posts[0].ID)
	assert.Equal(t, "evening", posts[1].ID)
}

func TestPostsOnDayEmptySnapshot(t *testing.T) {
	t.Parallel()

	posts := calendar.PostsOnDay(nil, time.Now())

	assert.Empty(t, posts)
}

func TestDaysInMonth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		year     int
		month    time.Month
		expected int
	}{
		{name: "september", year: 2026, month: time.September, expected: 30},
		{name: "december", year: 2026, month: time.December, expected: 31},
		{name: "february", year: 2026, month: time.February, expected: 28},
		{name: "leap february", year: 2024, month: time.February, expected: 29},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			days := calendar.DaysInMonth(tt.year, tt.month)

			require.Len(t, days, tt.expected)

			first := days[0]
			assert.Equal(t, tt.year, first.Year())
			assert.Equal(t, tt.month, first.Month())
			assert.Equal(t, 1, first.Day())
			assert.Equal(t, time.UTC, first.Location())

			for i, day := range days {
				assert.Equal(t, i+1, day.Day())
			}
		})
	}
}

func TestStatusGlyph(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   scheduling.Status
		expected calendar.Glyph
	}{
		{name: "scheduled", status: scheduling.StatusScheduled, expected: calendar.GlyphBlue},
		{name: "published", status: scheduling.StatusPublished, expected: calendar.GlyphGreen},
		{name: "failed", status: scheduling.StatusFailed, expected: calendar.GlyphRed},
		{name: "unknown", status: scheduling.Status("draft"), expected: calendar.GlyphGray},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, calendar.StatusGlyph(&scheduling.Post{Status: tt.status}))
		})
	}
}
