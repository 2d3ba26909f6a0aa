package compress

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"telegram-fetch-bot/internal/config"
	"telegram-fetch-bot/internal/utils"

	"github.com/sirupsen/logrus"
)

// Compressor re-encodes a too-large video so it fits under the delivery
// ceiling. One pass, bitrate-targeted; if the result still does not fit the
// remedy is reported as failed and the original is kept.
type Compressor struct {
	settings   config.CompressConfig
	ffmpegBin  string
	ffprobeBin string
}

func New(settings config.CompressConfig) *Compressor {
	return &Compressor{
		settings:   settings,
		ffmpegBin:  "ffmpeg",
		ffprobeBin: "ffprobe",
	}
}

// ProbeDuration reads the container duration in seconds.
func (c *Compressor) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, c.ffprobeBin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, utils.WrapError(utils.ErrCompressionFailed, "ffprobe failed", map[string]any{"path": path})
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil || duration <= 0 {
		return 0, utils.WrapError(utils.ErrCompressionFailed, "unreadable duration", map[string]any{"path": path})
	}
	return duration, nil
}

// TargetVideoBitrate computes the video bitrate in kbps that makes a file of
// the given duration land at targetMB, after reserving the audio track's
// share. Never returns less than the configured floor: below that the output
// would be unwatchable, and the pass is refused instead.
func (c *Compressor) TargetVideoBitrate(targetMB int64, durationSec float64) (int, error) {
	if durationSec <= 0 {
		return 0, utils.WrapError(utils.ErrCompressionFailed, "invalid duration", nil)
	}
	totalKbps := float64(targetMB) * 8192 / durationSec
	videoKbps := int(totalKbps) - c.settings.AudioBitrateKbps
	if videoKbps < c.settings.MinVideoBitrateKbps {
		return 0, utils.WrapError(utils.ErrCompressionFailed,
			fmt.Sprintf("target bitrate %d kbps below floor %d kbps", videoKbps, c.settings.MinVideoBitrateKbps), nil)
	}
	return videoKbps, nil
}

// Compress re-encodes src targeting targetMB and returns the new file's path.
// The source file is left untouched; callers swap paths only on success.
func (c *Compressor) Compress(ctx context.Context, src string, targetMB int64) (string, error) {
	duration, err := c.ProbeDuration(ctx, src)
	if err != nil {
		return "", err
	}
	videoKbps, err := c.TargetVideoBitrate(targetMB, duration)
	if err != nil {
		return "", err
	}

	dst := compressedPath(src)
	cmd := exec.CommandContext(ctx, c.ffmpegBin,
		"-y",
		"-i", src,
		"-c:v", "libx264",
		"-b:v", fmt.Sprintf("%dk", videoKbps),
		"-maxrate", fmt.Sprintf("%dk", videoKbps),
		"-bufsize", fmt.Sprintf("%dk", videoKbps*2),
		"-preset", "fast",
		"-c:a", "aac",
		"-b:a", fmt.Sprintf("%dk", c.settings.AudioBitrateKbps),
		"-movflags", "+faststart",
		dst,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	logrus.WithFields(logrus.Fields{
		"src":        src,
		"video_kbps": videoKbps,
		"target_mb":  targetMB,
		"duration_s": duration,
	}).Info("Starting compression pass")

	if err := cmd.Run(); err != nil {
		if rmErr := os.Remove(dst); rmErr != nil && !os.IsNotExist(rmErr) {
			logrus.WithError(rmErr).Warn("Failed to remove partial compressed file")
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		tail := stderr.String()
		if len(tail) > 500 {
			tail = tail[len(tail)-500:]
		}
		return "", utils.WrapError(utils.ErrCompressionFailed, tail, map[string]any{"src": src})
	}

	info, err := os.Stat(dst)
	if err != nil || info.Size() == 0 {
		return "", utils.WrapError(utils.ErrCompressionFailed, "compressed output missing", map[string]any{"dst": dst})
	}
	if info.Size() > targetMB*1024*1024 {
		if rmErr := os.Remove(dst); rmErr != nil {
			logrus.WithError(rmErr).Warn("Failed to remove oversized compressed file")
		}
		return "", utils.WrapError(utils.ErrCompressionFailed,
			fmt.Sprintf("result still %s after compression", utils.HumanBytes(info.Size())), map[string]any{"src": src})
	}
	return dst, nil
}

func compressedPath(src string) string {
	ext := filepath.Ext(src)
	return strings.TrimSuffix(src, ext) + ".compressed.mp4"
}
