package utils

import "strings"

// FailureKind classifies an extraction failure for the user-facing remediation hint.
// It never drives retry logic.
type FailureKind string

const (
	FailureNeedsAuth    FailureKind = "needs_auth"
	FailureBotChallenge FailureKind = "bot_challenge"
	FailureUnsupported  FailureKind = "unsupported"
)

var drmPatterns = []string{
	"This video is DRM protected",
	"Unsupported DRM",
	"drm protected",
	"encrypted",
}

var needsAuthPatterns = []string{
	"Sign in to confirm",
	"confirm your age",
	"age-restricted",
	"Private video",
	"login required",
	"Log in",
	"This video is only available for registered users",
	"consent",
	"cookies",
}

var botChallengePatterns = []string{
	"HTTP Error 403",
	"403 Forbidden",
	"Just a moment",
	"Checking your browser",
	"Cloudflare",
	"captcha",
	"unusual traffic",
	"confirm you are human",
	"not a bot",
}

// IsDRMError reports whether the engine's error text indicates DRM or stream
// encryption. A DRM failure short-circuits every fallback strategy.
func IsDRMError(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range drmPatterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// ClassifyFailure maps raw extraction error text to a FailureKind.
func ClassifyFailure(text string) FailureKind {
	for _, p := range needsAuthPatterns {
		if containsFold(text, p) {
			return FailureNeedsAuth
		}
	}
	for _, p := range botChallengePatterns {
		if containsFold(text, p) {
			return FailureBotChallenge
		}
	}
	return FailureUnsupported
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
