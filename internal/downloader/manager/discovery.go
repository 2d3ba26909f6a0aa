package manager

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"telegram-fetch-bot/internal/downloader"
	"telegram-fetch-bot/internal/utils"

	"github.com/sirupsen/logrus"
)

// discoverOutput locates the finished file on disk. The engine's announced
// destination can differ from reality after merging or audio extraction, so
// discovery runs three strategies in order:
//
//  1. the path captured from progress output, if it exists
//  2. the path the engine predicts for the same options
//  3. a directory scan for files carrying the job's media id, largest first
func discoverOutput(ctx context.Context, dir, capturedPath string, opts *downloader.Options, mediaID string) (string, error) {
	if capturedPath != "" {
		if candidate := existingFile(dir, capturedPath); candidate != "" {
			return candidate, nil
		}
		// Audio extraction renames the destination after the fact.
		if opts.ExtractMP3 {
			mp3 := strings.TrimSuffix(capturedPath, filepath.Ext(capturedPath)) + ".mp3"
			if candidate := existingFile(dir, mp3); candidate != "" {
				return candidate, nil
			}
		}
	}

	if predicted, err := downloader.PredictFilename(ctx, opts); err == nil {
		if candidate := existingFile(dir, predicted); candidate != "" {
			return candidate, nil
		}
	} else {
		logrus.WithError(err).Debug("Filename prediction failed")
	}

	if mediaID != "" {
		if candidate := scanForMediaID(dir, mediaID); candidate != "" {
			return candidate, nil
		}
	}

	return "", utils.WrapError(utils.ErrFileNotFound, "output discovery exhausted", map[string]any{
		"dir":      dir,
		"captured": capturedPath,
		"media_id": mediaID,
	})
}

func existingFile(dir, path string) string {
	if path == "" {
		return ""
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return ""
	}
	return path
}

// scanForMediaID picks the largest non-partial file whose name contains the
// media id. Largest wins because merge leftovers are smaller than the result.
func scanForMediaID(dir, mediaID string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logrus.WithError(err).Warn("Failed to scan download directory")
		return ""
	}

	var best string
	var bestSize int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.Contains(name, mediaID) {
			continue
		}
		if strings.HasSuffix(name, ".part") || strings.HasSuffix(name, ".ytdl") || strings.HasSuffix(name, ".tmp") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.Size() == 0 {
			continue
		}
		if info.Size() > bestSize {
			best = filepath.Join(dir, name)
			bestSize = info.Size()
		}
	}
	return best
}
