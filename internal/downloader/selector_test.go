package downloader

import "testing"

func TestBuildSelector(t *testing.T) {
	tests := []struct {
		token    string
		expected string
	}{
		{"", "bv*+ba/b"},
		{"best", "bv*+ba/b"},
		{"audio", "bestaudio/best"},
		{"mp3", "bestaudio/best"},
		{"1080p", "bv*[height<=1080]+ba/b[height<=1080]"},
		{"720p", "bv*[height<=720]+ba/b[height<=720]"},
		{"480p", "bv*[height<=480]+ba/b[height<=480]"},
		{"garbage", "bv*+ba/b"},
		{"0p", "bv*+ba/b"},
		{"-5p", "bv*+ba/b"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := BuildSelector(tt.token); got != tt.expected {
				t.Errorf("BuildSelector(%q) = %q, want %q", tt.token, got, tt.expected)
			}
		})
	}
}

func TestTokenHeightRoundTrip(t *testing.T) {
	for _, height := range []int{144, 360, 480, 720, 1080, 2160} {
		token := TokenForHeight(height)
		got, ok := HeightFromToken(token)
		if !ok || got != height {
			t.Errorf("round trip for %d failed: token %q -> (%d, %v)", height, token, got, ok)
		}
	}
}

func TestHeightFromTokenRejectsNonHeights(t *testing.T) {
	for _, token := range []string{"best", "audio", "mp3", "p", "xp", ""} {
		if _, ok := HeightFromToken(token); ok {
			t.Errorf("HeightFromToken(%q) unexpectedly succeeded", token)
		}
	}
}

func TestIsAudioToken(t *testing.T) {
	if !IsAudioToken("mp3") || !IsAudioToken("audio") {
		t.Error("audio tokens not recognized")
	}
	if IsAudioToken("best") || IsAudioToken("720p") {
		t.Error("video tokens misclassified as audio")
	}
}
