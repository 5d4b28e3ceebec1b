package scheduling

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies a social network a post is targeted at.
type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
)

func Platforms() []Platform {
	return []Platform{
		PlatformTwitter,
		PlatformFacebook,
		PlatformInstagram,
		PlatformLinkedIn,
	}
}

func (p Platform) IsValid() bool {
	switch p {
	case PlatformTwitter, PlatformFacebook, PlatformInstagram, PlatformLinkedIn:
		return true
	default:
		return false
	}
}

// Status of a post. There is no enforced transition graph: the status is set
// to StatusScheduled at creation and only changes through explicit updates.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusPublished Status = "published"
	StatusFailed    Status = "failed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusPublished, StatusFailed:
		return true
	default:
		return false
	}
}

type Post struct {
	ID            string     `json:"id"`
	Content       string     `json:"content"`
	Platforms     []Platform `json:"platforms"`
	ScheduledTime time.Time  `json:"scheduledTime"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	MediaURLs     []string   `json:"mediaUrls"`
}

// Draft is a post payload prior to assignment of ID, Status and CreatedAt.
type Draft struct {
	Content       string
	Platforms     []Platform
	ScheduledTime time.Time
	MediaURLs     []string
}

func (d Draft) Validate() error {
	if strings.TrimSpace(d.Content) == "" {
		return InvalidDraftError{Reason: "content is empty"}
	}

	if len(d.Platforms) == 0 {
		return InvalidDraftError{Reason: "no platforms selected"}
	}

	for _, p := range d.Platforms {
		if !p.IsValid() {
			return InvalidDraftError{Reason: fmt.Sprintf("unknown platform %q", p)}
		}
	}

	return nil
}

type PostNotFoundError struct {
	ID string
}

func (err PostNotFoundError) Error() string {
	return fmt.Sprintf("post with id %q not found", err.ID)
}

type InvalidDraftError struct {
	Reason string
}

func (err InvalidDraftError) Error() string {
	return fmt.Sprintf("invalid post draft: %s", err.Reason)
}
