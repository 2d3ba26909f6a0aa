package downloader

import "testing"

func TestParseProgressLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		ok       bool
		percent  float64
		dest     string
		finished bool
	}{
		{
			name:    "typical progress",
			line:    "[download]  42.5% of 120.00MiB at 2.50MiB/s ETA 00:30",
			ok:      true,
			percent: 42.5,
		},
		{
			name:    "approximate total",
			line:    "[download]   3.1% of ~ 500.00MiB at 1.00MiB/s ETA 08:00",
			ok:      true,
			percent: 3.1,
		},
		{
			name:     "complete",
			line:     "[download] 100% of 120.00MiB in 00:45",
			ok:       true,
			percent:  100,
			finished: true,
		},
		{
			name: "destination",
			line: "[download] Destination: /tmp/video [abc123].mp4",
			ok:   true,
			dest: "/tmp/video [abc123].mp4",
		},
		{
			name: "merger",
			line: `[Merger] Merging formats into "/tmp/video [abc123].mp4"`,
			ok:   true,
			dest: "/tmp/video [abc123].mp4",
		},
		{
			name:     "already downloaded",
			line:     "[download] /tmp/video [abc123].mp4 has already been downloaded",
			ok:       true,
			percent:  100,
			dest:     "/tmp/video [abc123].mp4",
			finished: true,
		},
		{name: "extractor noise", line: "[youtube] abc123: Downloading webpage", ok: false},
		{name: "empty", line: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := ParseProgressLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if p.Percent != tt.percent {
				t.Errorf("percent = %v, want %v", p.Percent, tt.percent)
			}
			if p.Destination != tt.dest {
				t.Errorf("destination = %q, want %q", p.Destination, tt.dest)
			}
			if p.Finished != tt.finished {
				t.Errorf("finished = %v, want %v", p.Finished, tt.finished)
			}
		})
	}
}

func TestFormatProgressLine(t *testing.T) {
	got := FormatProgressLine(Progress{Percent: 42.5, Total: "120.00MiB", Speed: "2.50MiB/s", ETA: "00:30"})
	want := "Downloading: 42.5% of 120.00MiB at 2.50MiB/s (ETA 00:30)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatRawProgress(t *testing.T) {
	human := func(n int64) string { return "X" }
	if got := FormatRawProgress(50, 100, human); got != "Downloading: 50.0% (X of X)" {
		t.Errorf("with total: got %q", got)
	}
	if got := FormatRawProgress(50, 0, human); got != "Downloading: X" {
		t.Errorf("without total: got %q", got)
	}
}
