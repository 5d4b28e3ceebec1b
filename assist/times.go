package assist

import (
	"time"

	"github.com/postdeck/postdeck/scheduling"
)

// SuggestOptimalTime returns tomorrow at the best-practice posting hour for
// the platform, in now's location. Unknown platforms get the twitter slot.
func SuggestOptimalTime(platform scheduling.Platform, now time.Time) time.Time {
	hour := 9

	switch platform {
	case scheduling.PlatformTwitter:
		hour = 9
	case scheduling.PlatformFacebook:
		hour = 13
	case scheduling.PlatformInstagram:
		hour = 11
	case scheduling.PlatformLinkedIn:
		hour = 8
	}

	tomorrow := now.AddDate(0, 0, 1)

	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), hour, 0, 0, 0, now.Location())
}
