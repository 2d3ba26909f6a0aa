package filemanager

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// protectedNames are files in the download directory that cleanup never touches.
var protectedNames = map[string]bool{
	"bot.db":         true,
	"bot.db-journal": true,
	"bot.db-wal":     true,
	"bot.db-shm":     true,
	".env":           true,
}

// PurgeOld removes regular files in dir whose modification time is older than
// maxAge and returns how many were deleted. Subdirectories are left alone.
func PurgeOld(dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || protectedNames[entry.Name()] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logrus.WithError(err).WithField("path", path).Warn("Failed to remove old file")
			continue
		}
		removed++
	}

	if removed > 0 {
		logrus.WithFields(logrus.Fields{"dir": dir, "removed": removed}).Info("Purged old files")
	}
	return removed, nil
}

// RemoveJobFiles deletes the job's output and any engine leftovers sharing its
// media id prefix. Used on cancellation; best-effort.
func RemoveJobFiles(dir, filePath, mediaID string) {
	if filePath != "" {
		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			logrus.WithError(err).WithField("path", filePath).Debug("Failed to remove job file")
		}
	}
	if mediaID == "" {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.Contains(entry.Name(), mediaID) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			logrus.WithError(err).Debug("Failed to remove leftover file")
		}
	}
}
