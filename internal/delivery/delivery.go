package delivery

import (
	"path/filepath"
	"strings"
	"time"

	"telegram-fetch-bot/internal/bot"
	"telegram-fetch-bot/internal/config"
	"telegram-fetch-bot/internal/utils"

	"github.com/sirupsen/logrus"
)

// mediaExts are containers Telegram renders inline as playable video.
var mediaExts = map[string]bool{
	".mp4": true,
	".mov": true,
	".m4v": true,
}

// Adapter uploads finished files into the chat. Playable containers go as
// streaming media, everything else as a document. A failed media upload
// falls back to a document upload once before giving up.
type Adapter struct {
	botService bot.Service
	settings   config.DeliveryConfig
}

func New(botService bot.Service, settings config.DeliveryConfig) *Adapter {
	return &Adapter{botService: botService, settings: settings}
}

// Deliver uploads path with caption. The error, when non-nil, wraps
// ErrUploadFailed; the caller decides what happens to the source file via
// CleanupAfterFailure.
func (a *Adapter) Deliver(chatID int64, path, caption string) error {
	asMedia := a.settings.AsMediaDefault && mediaExts[strings.ToLower(filepath.Ext(path))]

	var err error
	if asMedia {
		err = a.uploadWithRetry(func() error {
			return a.botService.SendVideo(chatID, path, caption)
		})
		if err != nil {
			logrus.WithError(err).WithField("path", path).Warn("Media upload failed, retrying as document")
			err = a.uploadWithRetry(func() error {
				return a.botService.SendDocument(chatID, path, caption)
			})
		}
	} else {
		err = a.uploadWithRetry(func() error {
			return a.botService.SendDocument(chatID, path, caption)
		})
	}

	if err != nil {
		return utils.WrapError(utils.ErrUploadFailed, utils.RootError(err).Error(), map[string]any{"path": path})
	}
	return nil
}

var retryPause = 2 * time.Second

// uploadWithRetry runs one upload and retries once after a short pause.
// Telegram uploads of large files fail transiently often enough that a
// single retry pays for itself.
func (a *Adapter) uploadWithRetry(upload func() error) error {
	err := upload()
	if err == nil {
		return nil
	}
	time.Sleep(retryPause)
	return upload()
}

// CleanupAfterFailure reports whether a file should be removed after its
// upload failed. Keeping it for manual pickup is the default.
func (a *Adapter) CleanupAfterFailure() bool {
	return a.settings.DeleteOnUploadFailure
}
