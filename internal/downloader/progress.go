package downloader

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Progress is one engine progress event. It is produced on the worker
// goroutine; consumers must hop back to the UI loop themselves.
type Progress struct {
	Percent     float64
	Total       string // human-readable total, may be approximate
	Speed       string
	ETA         string
	Destination string // output path once the engine announces it
	Finished    bool
}

var (
	progressRe = regexp.MustCompile(`^\[download\]\s+([\d.]+)%(?:\s+of\s+~?\s*(\S+))?(?:\s+at\s+(\S+))?(?:\s+ETA\s+(\S+))?`)
	destRe     = regexp.MustCompile(`^\[download\] Destination: (.+)$`)
	mergerRe   = regexp.MustCompile(`^\[Merger\] Merging formats into "(.+)"$`)
	alreadyRe  = regexp.MustCompile(`^\[download\] (.+) has already been downloaded$`)
)

// ParseProgressLine interprets one line of the engine's --newline output.
// ok is false for lines that carry no progress information.
func ParseProgressLine(line string) (Progress, bool) {
	if m := destRe.FindStringSubmatch(line); m != nil {
		return Progress{Destination: strings.TrimSpace(m[1])}, true
	}
	if m := mergerRe.FindStringSubmatch(line); m != nil {
		return Progress{Destination: strings.TrimSpace(m[1])}, true
	}
	if m := alreadyRe.FindStringSubmatch(line); m != nil {
		return Progress{Destination: strings.TrimSpace(m[1]), Percent: 100, Finished: true}, true
	}
	if m := progressRe.FindStringSubmatch(line); m != nil {
		percent, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Progress{}, false
		}
		p := Progress{
			Percent:  percent,
			Total:    m[2],
			Speed:    m[3],
			ETA:      m[4],
			Finished: percent >= 100,
		}
		return p, true
	}
	return Progress{}, false
}

// FormatProgressLine renders the human-readable progress line edited into the
// bound chat message.
func FormatProgressLine(p Progress) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Downloading: %.1f%%", p.Percent))
	if p.Total != "" {
		sb.WriteString(" of " + p.Total)
	}
	if p.Speed != "" {
		sb.WriteString(" at " + p.Speed)
	}
	if p.ETA != "" && p.ETA != "00:00" {
		sb.WriteString(" (ETA " + p.ETA + ")")
	}
	return sb.String()
}

// FormatRawProgress renders progress for the raw streamed fallback, where only
// byte counts are known. total <= 0 yields a percentage-less line.
func FormatRawProgress(downloaded, total int64, humanBytes func(int64) string) string {
	if total > 0 {
		percent := float64(downloaded) / float64(total) * 100
		return fmt.Sprintf("Downloading: %.1f%% (%s of %s)", percent, humanBytes(downloaded), humanBytes(total))
	}
	return fmt.Sprintf("Downloading: %s", humanBytes(downloaded))
}
