package prober

import (
	"testing"

	"telegram-fetch-bot/internal/downloader"
)

func TestResultFromMetadata(t *testing.T) {
	meta := &downloader.Metadata{
		ID:       "abc123",
		Title:    "Some Title",
		Duration: 321,
		Formats: []downloader.Format{
			{FormatID: "1", Ext: "webm", Height: 1080, Vcodec: "vp9", Filesize: 200},
			{FormatID: "2", Ext: "mp4", Height: 1080, Vcodec: "avc1", Filesize: 150},
			{FormatID: "3", Ext: "mp4", Height: 720, Vcodec: "avc1", FilesizeApprox: 80},
			{FormatID: "4", Ext: "m4a", Height: 0, Vcodec: "none", Acodec: "mp4a"},
		},
	}

	result := resultFromMetadata(meta)

	if result.Title != "Some Title" || result.MediaID != "abc123" {
		t.Errorf("metadata not carried: %+v", result)
	}
	if result.BestEffort {
		t.Error("real metadata should not be best-effort")
	}

	tokens := make([]string, 0, len(result.Options))
	for _, opt := range result.Options {
		tokens = append(tokens, opt.Token)
	}
	want := []string{"best", "1080p", "720p", "mp3"}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("tokens[%d] = %q, want %q", i, tokens[i], want[i])
		}
	}

	// mp4 wins the 1080 tie, so the size shown is the mp4's.
	if result.Options[1].ApproxSize != 150 {
		t.Errorf("1080p size = %d, want 150 (mp4 preferred)", result.Options[1].ApproxSize)
	}
}

func TestResultFromMetadataCapsButtons(t *testing.T) {
	meta := &downloader.Metadata{ID: "x", Title: "t"}
	for _, h := range []int{2160, 1440, 1080, 720, 480, 360, 240, 144} {
		meta.Formats = append(meta.Formats, downloader.Format{Height: h, Vcodec: "avc1", Ext: "mp4"})
	}

	result := resultFromMetadata(meta)
	if len(result.Options) > maxQualityButtons {
		t.Errorf("options = %d, cap is %d", len(result.Options), maxQualityButtons)
	}
	// The extremes must survive the cut: best first, audio last.
	if result.Options[0].Token != "best" {
		t.Errorf("first option = %q", result.Options[0].Token)
	}
	if result.Options[len(result.Options)-1].Token != "mp3" {
		t.Errorf("last option = %q", result.Options[len(result.Options)-1].Token)
	}
}

func TestResultFromDirectWithHeights(t *testing.T) {
	direct := &DirectMedia{Kind: "hls", URL: "https://c.example.com/m.m3u8", Heights: []int{720, 480}}
	result := resultFromDirect(direct)

	if !result.BestEffort {
		t.Error("sniffed media must be flagged best-effort")
	}
	if result.Direct != direct {
		t.Error("direct media not carried")
	}
	tokens := make([]string, 0, len(result.Options))
	for _, opt := range result.Options {
		tokens = append(tokens, opt.Token)
	}
	want := []string{"best", "720p", "480p"}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("tokens[%d] = %q, want %q", i, tokens[i], want[i])
		}
	}
}

func TestResultFromDirectFallbackLadder(t *testing.T) {
	direct := &DirectMedia{Kind: "mp4", URL: "https://c.example.com/v.mp4"}
	result := resultFromDirect(direct)

	tokens := make([]string, 0, len(result.Options))
	for _, opt := range result.Options {
		tokens = append(tokens, opt.Token)
	}
	want := []string{"best", "1080p", "720p", "480p", "360p"}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("tokens[%d] = %q, want %q", i, tokens[i], want[i])
		}
	}
}

func TestLadderOptions(t *testing.T) {
	options := LadderOptions()
	if options[0].Token != "best" || len(options) != len(fallbackLadder)+2 {
		t.Errorf("ladder options = %+v", options)
	}
	if options[len(options)-1].Token != "mp3" {
		t.Errorf("audio option missing: %+v", options)
	}
}
