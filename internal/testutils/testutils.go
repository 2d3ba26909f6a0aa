package testutils

import (
	"path/filepath"
	"testing"
	"time"

	"telegram-fetch-bot/internal/config"
	"telegram-fetch-bot/internal/database"
)

// NewTestConfig returns a config with sane defaults rooted in a temp dir.
func NewTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		BotToken:    "test-token",
		DownloadDir: dir,
		DBPath:      filepath.Join(dir, "test.db"),
		Lang:        "en",
		LogLevel:    "error",
		DownloadSettings: config.DownloadConfig{
			MaxConcurrentDownloads: 2,
			MaxPerUserDownloads:    1,
			ProgressEditInterval:   10 * time.Millisecond,
			ConcurrentFragments:    1,
			CleanupAge:             time.Hour,
		},
		DeliverySettings: config.DeliveryConfig{
			MaxFileSizeMB:  1,
			AsMediaDefault: true,
		},
		QuotaSettings: config.QuotaConfig{
			DailyJobs: 5,
			DailyMB:   100,
		},
		CompressSettings: config.CompressConfig{
			AudioBitrateKbps:    128,
			MinVideoBitrateKbps: 100,
			TargetMarginMB:      5,
		},
	}
}

// NewTestDatabase opens a throwaway sqlite database in the test's temp dir.
func NewTestDatabase(t *testing.T) database.Database {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	return db
}
