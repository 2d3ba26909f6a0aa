package utils

import "testing"

func TestIsDRMError(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"explicit drm", "ERROR: This video is DRM protected", true},
		{"unsupported drm", "ERROR: Unsupported DRM scheme", true},
		{"encrypted stream", "ERROR: the stream is encrypted and cannot be decrypted", true},
		{"network failure", "ERROR: unable to download video data: timed out", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDRMError(tt.text); got != tt.want {
				t.Errorf("IsDRMError(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		name string
		text string
		want FailureKind
	}{
		{"age gate", "ERROR: Sign in to confirm your age", FailureNeedsAuth},
		{"private video", "ERROR: Private video. Sign in if you've been granted access", FailureNeedsAuth},
		{"consent wall", "ERROR: unable to proceed without consent", FailureNeedsAuth},
		{"forbidden", "ERROR: HTTP Error 403: Forbidden", FailureBotChallenge},
		{"cloudflare", "ERROR: Just a moment... Cloudflare", FailureBotChallenge},
		{"captcha", "ERROR: please solve the captcha to continue", FailureBotChallenge},
		{"browser check", "ERROR: Checking your browser before accessing the site", FailureBotChallenge},
		{"no extractor", "ERROR: Unsupported URL: https://example.com", FailureUnsupported},
		{"generic failure", "ERROR: unable to extract video data", FailureUnsupported},
		{"robots mention is not a challenge", "ERROR: download blocked by robots.txt rules", FailureUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyFailure(tt.text); got != tt.want {
				t.Errorf("ClassifyFailure(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
