package resolver

import (
	"os"

	"telegram-fetch-bot/internal/utils"

	"github.com/sirupsen/logrus"
)

// Verdict is the outcome decision for a finished download.
type Verdict string

const (
	VerdictDeliver  Verdict = "deliver"
	VerdictTooLarge Verdict = "too_large"
)

// Outcome carries the verdict and the measured size it was based on.
type Outcome struct {
	Verdict Verdict
	Size    int64
	Ceiling int64
}

// Resolve stats the finished file and decides between direct delivery and the
// too-large remedy flow. The decision is a pure function of size and ceiling,
// so resolving the same file twice yields the same outcome.
func Resolve(path string, ceiling int64) (Outcome, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Outcome{}, utils.WrapError(utils.ErrFileNotFound, "cannot stat finished file", map[string]any{"path": path})
	}
	if info.IsDir() {
		return Outcome{}, utils.WrapError(utils.ErrFileNotFound, "output path is a directory", map[string]any{"path": path})
	}

	outcome := Outcome{Size: info.Size(), Ceiling: ceiling}
	if ceiling > 0 && info.Size() > ceiling {
		outcome.Verdict = VerdictTooLarge
	} else {
		outcome.Verdict = VerdictDeliver
	}

	logrus.WithFields(logrus.Fields{
		"path":    path,
		"size":    outcome.Size,
		"verdict": outcome.Verdict,
	}).Debug("Resolved outcome")
	return outcome, nil
}
