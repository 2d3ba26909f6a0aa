package downloader

import (
	"strings"
	"testing"
)

func TestCommandPreviewMasksCookie(t *testing.T) {
	opts := &Options{
		URL:            "https://example.com/watch?v=1",
		Selector:       "bv*+ba/b",
		OutputTemplate: "/downloads/%(title).150B [%(id)s].%(ext)s",
		CookieHeader:   "session=supersecret; uid=42",
	}

	preview := CommandPreview(opts)
	if strings.Contains(preview, "supersecret") {
		t.Fatalf("preview leaks cookie value: %s", preview)
	}
	if !strings.Contains(preview, "Cookie: ***") {
		t.Errorf("preview does not show masked cookie header: %s", preview)
	}
	if !strings.Contains(preview, "yt-dlp") {
		t.Errorf("preview missing binary name: %s", preview)
	}
	if !strings.Contains(preview, "example.com") {
		t.Errorf("preview missing URL: %s", preview)
	}
}

func TestCommandPreviewAudio(t *testing.T) {
	opts := &Options{
		URL:            "https://example.com/song",
		OutputTemplate: "/downloads/out.%(ext)s",
		ExtractMP3:     true,
	}

	preview := CommandPreview(opts)
	if !strings.Contains(preview, "--extract-audio") {
		t.Errorf("audio preview missing extract flag: %s", preview)
	}
	if strings.Contains(preview, "--merge-output-format") {
		t.Errorf("audio preview should not merge video: %s", preview)
	}
}
