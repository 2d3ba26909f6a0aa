package resolver

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"telegram-fetch-bot/internal/utils"
)

func writeFile(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveVerdicts(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		ceiling int64
		want    Verdict
	}{
		{"under ceiling", 100, 1000, VerdictDeliver},
		{"exactly at ceiling", 1000, 1000, VerdictDeliver},
		{"over ceiling", 1001, 1000, VerdictTooLarge},
		{"no ceiling", 5000, 0, VerdictDeliver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.size)
			outcome, err := Resolve(path, tt.ceiling)
			if err != nil {
				t.Fatal(err)
			}
			if outcome.Verdict != tt.want {
				t.Errorf("verdict = %s, want %s", outcome.Verdict, tt.want)
			}
			if outcome.Size != int64(tt.size) {
				t.Errorf("size = %d, want %d", outcome.Size, tt.size)
			}
		})
	}
}

// The verdict is a pure function of the file: resolving twice must agree.
func TestResolveIdempotent(t *testing.T) {
	path := writeFile(t, 2000)
	first, err := Resolve(path, 1000)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Resolve(path, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("outcomes differ: %+v vs %+v", first, second)
	}
}

func TestResolveMissingFile(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "gone.mp4"), 1000)
	if !errors.Is(err, utils.ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
}

func TestResolveDirectory(t *testing.T) {
	_, err := Resolve(t.TempDir(), 1000)
	if !errors.Is(err, utils.ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound for directory, got %v", err)
	}
}
