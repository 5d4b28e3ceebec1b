// Package assist improves post captions through an external
// chat-completion service, with a deterministic local fallback so no caller
// path ever fails on third-party availability.
package assist

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/postdeck/postdeck/scheduling"
)

// Gateway is the boundary to the external caption-generation service.
type Gateway interface {
	GenerateCaption(ctx context.Context, content string, platform scheduling.Platform) (caption string, err error)
}

const DefaultTimeout = 10 * time.Second

// Service wraps a Gateway with a timeout and the local fallback. A nil
// gateway is valid and means captions always come from the fallback.
type Service struct {
	gateway Gateway
	timeout time.Duration
}

func NewService(gateway Gateway, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Service{
		gateway: gateway,
		timeout: timeout,
	}
}

// ImproveCaption returns the gateway's improved caption, or the local
// fallback when the gateway is missing, slow or failing. It never returns
// an error: gateway failure is not fatal to the caller.
func (svc *Service) ImproveCaption(ctx context.Context, content string, platform scheduling.Platform) string {
	if svc.gateway == nil {
		return Fallback(content, platform)
	}

	ctx, cancel := context.WithTimeout(ctx, svc.timeout)
	defer cancel()

	caption, err := svc.gateway.GenerateCaption(ctx, content, platform)
	if err != nil {
		slog.WarnContext(ctx, "caption gateway failed, using fallback", "platform", platform, "error", err)

		return Fallback(content, platform)
	}

	return caption
}

// Fallback appends platform-appropriate boilerplate without calling any
// external service.
func Fallback(content string, platform scheduling.Platform) string {
	switch platform {
	case scheduling.PlatformTwitter:
		return content + " #SocialMedia #ContentCreator"
	case scheduling.PlatformFacebook:
		return content + "\n\nWhat do you think? Let me know in the comments! 👇"
	case scheduling.PlatformInstagram:
		return content + "\n\n#Content #Social #Creator #Inspiration"
	case scheduling.PlatformLinkedIn:
		return content + "\n\nThoughts? Share your experience in the comments."
	default:
		return content
	}
}

// characterLimit is the platform's maximum post length, used to bound the
// generated caption.
func characterLimit(platform scheduling.Platform) int {
	switch platform {
	case scheduling.PlatformTwitter:
		return 280
	case scheduling.PlatformFacebook:
		return 2000
	case scheduling.PlatformInstagram:
		return 2200
	case scheduling.PlatformLinkedIn:
		return 1300
	default:
		return 280
	}
}

func toneGuidance(platform scheduling.Platform) string {
	switch platform {
	case scheduling.PlatformTwitter:
		return "concise, engaging, and use relevant hashtags"
	case scheduling.PlatformFacebook:
		return "conversational and encourage engagement"
	case scheduling.PlatformInstagram:
		return "visual-focused with relevant hashtags"
	case scheduling.PlatformLinkedIn:
		return "professional and value-driven"
	default:
		return "concise and engaging"
	}
}

func systemPrompt(platform scheduling.Platform) string {
	return fmt.Sprintf(
		"You are a social media expert. Improve the given content for %s. "+
			"Make it %s. Keep it under %d characters. "+
			"Return only the improved content, no explanations.",
		platform,
		toneGuidance(platform),
		characterLimit(platform),
	)
}
