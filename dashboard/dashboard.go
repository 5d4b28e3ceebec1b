// Package dashboard computes the stat-card counts and the recent-activity
// list from a post snapshot. Pure functions of the snapshot and the given
// time; nothing is cached between calls.
package dashboard

import (
	"time"

	"github.com/postdeck/postdeck/calendar"
	"github.com/postdeck/postdeck/scheduling"
)

type Counts struct {
	Scheduled      int
	PublishedToday int
	Total          int
}

// Count tallies the snapshot: posts still scheduled, posts published whose
// scheduled time falls on the same calendar day as now, and the total size.
func Count(snapshot []*scheduling.Post, now time.Time) Counts {
	counts := Counts{Total: len(snapshot)}

	for _, post := range snapshot {
		switch post.Status {
		case scheduling.StatusScheduled:
			counts.Scheduled++
		case scheduling.StatusPublished:
			if calendar.SameDay(post.ScheduledTime, now) {
				counts.PublishedToday++
			}
		}
	}

	return counts
}

// Recent returns the last n posts in insertion order, most recent first.
func Recent(snapshot []*scheduling.Post, n int) []*scheduling.Post {
	if n > len(snapshot) {
		n = len(snapshot)
	}

	if n <= 0 {
		return []*scheduling.Post{}
	}

	recent := make([]*scheduling.Post, 0, n)

	for i := len(snapshot) - 1; i >= len(snapshot)-n; i-- {
		recent = append(recent, snapshot[i])
	}

	return recent
}
