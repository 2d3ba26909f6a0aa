package downloader

import (
	"fmt"
	"strconv"
	"strings"
)

// Format tokens are the short opaque strings bound to quality buttons. The
// prober only ever emits tokens this translation accepts; the round trip is
// covered by tests.
const (
	TokenBest  = "best"
	TokenAudio = "audio"
	TokenMP3   = "mp3"
)

// TokenForHeight returns the token for a vertical resolution, e.g. 720 -> "720p".
func TokenForHeight(height int) string {
	return fmt.Sprintf("%dp", height)
}

// HeightFromToken parses a "<N>p" token. ok is false for the non-height tokens.
func HeightFromToken(token string) (int, bool) {
	if !strings.HasSuffix(token, "p") {
		return 0, false
	}
	height, err := strconv.Atoi(strings.TrimSuffix(token, "p"))
	if err != nil || height <= 0 {
		return 0, false
	}
	return height, true
}

// BuildSelector translates a token into the engine's format selector string:
// best video plus best audio with a fallback to the best combined format,
// height-capped when the token carries a resolution.
func BuildSelector(token string) string {
	switch token {
	case "", TokenBest:
		return "bv*+ba/b"
	case TokenAudio, TokenMP3:
		return "bestaudio/best"
	}
	if height, ok := HeightFromToken(token); ok {
		return fmt.Sprintf("bv*[height<=%d]+ba/b[height<=%d]", height, height)
	}
	// Unknown tokens degrade to the safe default rather than failing the job.
	return "bv*+ba/b"
}

// IsAudioToken reports whether the token selects an audio-only download.
func IsAudioToken(token string) bool {
	return token == TokenAudio || token == TokenMP3
}

// TokenLabel is the button label for a token.
func TokenLabel(token string) string {
	switch token {
	case TokenBest:
		return "Best"
	case TokenAudio:
		return "Audio"
	case TokenMP3:
		return "MP3"
	}
	return token
}
