package utils

import (
	"errors"
	"strings"
)

var (
	ErrInvalidURL         = errors.New("invalid URL provided")
	ErrDownloadFailed     = errors.New("download failed")
	ErrDrmProtected       = errors.New("stream is DRM protected")
	ErrFileNotFound       = errors.New("downloaded file could not be located")
	ErrTooLarge           = errors.New("file exceeds delivery size limit")
	ErrUploadFailed       = errors.New("upload to chat failed")
	ErrCompressionFailed  = errors.New("compression failed")
	ErrCancelled          = errors.New("download cancelled")
	ErrUserBusy           = errors.New("too many concurrent downloads for user")
	ErrQuotaExceeded      = errors.New("daily quota exceeded")
	ErrJobNotFound        = errors.New("job not found")
	ErrIllegalTransition  = errors.New("illegal job status transition")
	ErrConfigurationError = errors.New("configuration error")
)

type WrappedError struct {
	Err     error
	Message string
	Context map[string]any
}

func (w *WrappedError) Error() string {
	if w.Message != "" {
		return w.Message + ": " + w.Err.Error()
	}
	return w.Err.Error()
}

func (w *WrappedError) Unwrap() error {
	return w.Err
}

func WrapError(err error, message string, ctx map[string]any) error {
	return &WrappedError{
		Err:     err,
		Message: message,
		Context: ctx,
	}
}

// RootError returns the innermost error in the chain (for user-facing messages without wrapper text).
func RootError(err error) error {
	for e := err; e != nil; e = errors.Unwrap(e) {
		err = e
	}
	return err
}

// DownloadErrorMessage returns the root-cause text shown to the user.
// Credential material is stripped so a failed authenticated fetch never echoes a cookie.
func DownloadErrorMessage(err error) string {
	msg := RootError(err).Error()
	return StripCookieValues(msg)
}

// StripCookieValues truncates anything that looks like a Cookie header value in error text.
func StripCookieValues(s string) string {
	lower := strings.ToLower(s)
	if idx := strings.Index(lower, "cookie:"); idx >= 0 {
		return s[:idx] + "Cookie: ***"
	}
	return s
}
