// Package calendar derives day-bucketed views over a post snapshot. Nothing
// here is persisted; every call is a linear recomputation, which is fine at
// single-user volumes. All calendar-day comparisons happen in UTC so a post
// lands in exactly one bucket regardless of the wall clock it was scheduled
// with.
package calendar

import (
	"time"

	"github.com/postdeck/postdeck/scheduling"
)

// SameDay reports whether both instants fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	a = a.UTC()
	b = b.UTC()

	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// PostsOnDay filters the snapshot to posts scheduled on the same calendar
// day as the given date, regardless of time of day.
func PostsOnDay(snapshot []*scheduling.Post, day time.Time) []*scheduling.Post {
	posts := make([]*scheduling.Post, 0)

	for _, post := range snapshot {
		if SameDay(post.ScheduledTime, day) {
			posts = append(posts, post)
		}
	}

	return posts
}

// DaysInMonth returns every date of the given month in ascending order, at
// midnight UTC, for composing a month grid.
func DaysInMonth(year int, month time.Month) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	days := make([]time.Time, 0, 31)

	for day := first; day.Month() == month; day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}

	return days
}

// Glyph is the color class used to render a post chip on the calendar.
type Glyph string

const (
	GlyphBlue  Glyph = "blue"
	GlyphGreen Glyph = "green"
	GlyphRed   Glyph = "red"
	GlyphGray  Glyph = "gray"
)

// StatusGlyph maps a post status to its calendar color: scheduled is blue,
// published is green, failed is red, anything else is gray.
func StatusGlyph(post *scheduling.Post) Glyph {
	switch post.Status {
	case scheduling.StatusScheduled:
		return GlyphBlue
	case scheduling.StatusPublished:
		return GlyphGreen
	case scheduling.StatusFailed:
		return GlyphRed
	default:
		return GlyphGray
	}
}
