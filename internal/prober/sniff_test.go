package prober

import "testing"

func TestExtractMediaURLs(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		pageURL string
		wantHLS string
		wantMP4 string
	}{
		{
			name:    "source tag",
			body:    `<video controls><source src="https://cdn.example.com/v/master.m3u8" type="application/x-mpegURL"></video>`,
			pageURL: "https://example.com/watch",
			wantHLS: "https://cdn.example.com/v/master.m3u8",
		},
		{
			name:    "relative source resolved",
			body:    `<video src="/media/clip.mp4"></video>`,
			pageURL: "https://example.com/watch",
			wantMP4: "https://example.com/media/clip.mp4",
		},
		{
			name:    "player config assignment",
			body:    `var player = {"file": "https://cdn.example.com/stream.m3u8?token=1"};`,
			pageURL: "https://example.com/watch",
			wantHLS: "https://cdn.example.com/stream.m3u8?token=1",
		},
		{
			name:    "escaped slashes in json",
			body:    `{"src":"https:\/\/cdn.example.com\/v\/file.mp4"}`,
			pageURL: "https://example.com/watch",
			wantMP4: "https://cdn.example.com/v/file.mp4",
		},
		{
			name:    "bare literal",
			body:    `window.playlist = "https://cdn.example.com/abc/index.m3u8";`,
			pageURL: "https://example.com/watch",
			wantHLS: "https://cdn.example.com/abc/index.m3u8",
		},
		{
			name:    "both kinds found",
			body:    `<source src="https://c.example.com/v.mp4"> config = {"hlsUrl": "https://c.example.com/v.m3u8"}`,
			pageURL: "https://example.com/watch",
			wantHLS: "https://c.example.com/v.m3u8",
			wantMP4: "https://c.example.com/v.mp4",
		},
		{
			name:    "nothing",
			body:    `<html><body>just text</body></html>`,
			pageURL: "https://example.com/watch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hls, mp4 := extractMediaURLs(tt.body, tt.pageURL)
			if hls != tt.wantHLS {
				t.Errorf("hls = %q, want %q", hls, tt.wantHLS)
			}
			if mp4 != tt.wantMP4 {
				t.Errorf("mp4 = %q, want %q", mp4, tt.wantMP4)
			}
		})
	}
}

func TestParseHLSHeights(t *testing.T) {
	manifest := `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=5000000,RESOLUTION=1920x1080
1080/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=2500000,RESOLUTION=1280x720
720/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=1000000,RESOLUTION=854x480
480/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=900000,RESOLUTION=854x480
480-alt/index.m3u8
`
	heights := ParseHLSHeights(manifest)
	want := []int{1080, 720, 480}
	if len(heights) != len(want) {
		t.Fatalf("heights = %v, want %v", heights, want)
	}
	for i := range want {
		if heights[i] != want[i] {
			t.Errorf("heights[%d] = %d, want %d", i, heights[i], want[i])
		}
	}
}

func TestParseHLSHeightsMediaPlaylist(t *testing.T) {
	manifest := "#EXTM3U\n#EXT-X-TARGETDURATION:6\nseg1.ts\nseg2.ts\n"
	if heights := ParseHLSHeights(manifest); len(heights) != 0 {
		t.Errorf("media playlist yielded heights: %v", heights)
	}
}
