package lang

type MessageID string

const (
	StartCommandMsgID       MessageID = "start_command"
	UnknownCommandMsgID     MessageID = "unknown_command"
	ProbingMsgID            MessageID = "probing"
	ProbeFailedMsgID        MessageID = "probe_failed"
	NeedsAuthHintMsgID      MessageID = "needs_auth_hint"
	BotChallengeHintMsgID   MessageID = "bot_challenge_hint"
	UnsupportedHintMsgID    MessageID = "unsupported_hint"
	PickQualityMsgID        MessageID = "pick_quality"
	JobExpiredMsgID         MessageID = "job_expired"
	JobRecoveredMsgID       MessageID = "job_recovered"
	StartingFormatMsgID     MessageID = "starting_format"
	QueuedMsgID             MessageID = "queued"
	DownloadingMsgID        MessageID = "downloading"
	DownloadFailedMsgID     MessageID = "download_failed"
	DrmNotSupportedMsgID    MessageID = "drm_not_supported"
	FileNotFoundMsgID       MessageID = "file_not_found"
	CancelledMsgID          MessageID = "cancelled"
	DeliveredMsgID          MessageID = "delivered"
	UploadFailedMsgID       MessageID = "upload_failed"
	TooLargeMsgID           MessageID = "too_large"
	CompressingMsgID        MessageID = "compressing"
	CompressionFailedMsgID  MessageID = "compression_failed"
	OffloadingMsgID         MessageID = "offloading"
	OffloadDoneMsgID        MessageID = "offload_done"
	OffloadFailedMsgID      MessageID = "offload_failed"
	KeptLocallyMsgID        MessageID = "kept_locally"
	CookiePromptMsgID       MessageID = "cookie_prompt"
	CookieSavedMsgID        MessageID = "cookie_saved"
	CookieInvalidMsgID      MessageID = "cookie_invalid"
	CookiesClearedMsgID     MessageID = "cookies_cleared"
	LogTailMsgID            MessageID = "log_tail"
	LogEmptyMsgID           MessageID = "log_empty"
	CommandPreviewMsgID     MessageID = "command_preview"
	StatusMsgID             MessageID = "status"
	CleanedMsgID            MessageID = "cleaned"
	QuotaStatusMsgID        MessageID = "quota_status"
	QuotaExceededMsgID      MessageID = "quota_exceeded"
	UserBusyMsgID           MessageID = "user_busy"
	ForceGenericMsgID       MessageID = "force_generic"
	RecheckMsgID            MessageID = "recheck"
	NotEnoughDiskSpaceMsgID MessageID = "not_enough_disk_space"
)

var messages = map[MessageID]map[string]string{
	StartCommandMsgID: {
		"en": "Send me a video/page URL and I will fetch it.\n\n" +
			"Tips:\n" +
			"- If probing fails with a login error, paste your Cookie header once; it is reused per domain.\n" +
			"- Use /status for active jobs and disk usage, /clean to purge old files, /quota for daily limits.",
	},
	UnknownCommandMsgID:   {"en": "Unknown command. Use /start to see what I can do"},
	ProbingMsgID:          {"en": "URL: %s\nProbing available formats..."},
	ProbeFailedMsgID:      {"en": "URL: %s\nProbe failed: %s"},
	NeedsAuthHintMsgID:    {"en": "This site wants a login/age/consent confirmation. Paste your Cookie header (reply to this message) and retry."},
	BotChallengeHintMsgID: {"en": "The site is behind an anti-bot challenge that cannot be bypassed automatically. You can still try anyway."},
	UnsupportedHintMsgID:  {"en": "The site is not directly supported. You can still try anyway."},
	PickQualityMsgID:      {"en": "URL: %s\nTitle: %s\n\nPick a quality:"},
	JobExpiredMsgID:       {"en": "Expired. Send the URL again."},
	JobRecoveredMsgID:     {"en": "Job state was lost; recreated it from the URL. Pick again."},
	StartingFormatMsgID:   {"en": "Starting %s..."},
	QueuedMsgID:           {"en": "URL: %s\nWaiting for a free download slot..."},
	DownloadingMsgID:      {"en": "URL: %s\n%s"},
	DownloadFailedMsgID:   {"en": "Download failed.\n%s"},
	DrmNotSupportedMsgID:  {"en": "The stream appears to be DRM protected or encrypted. This is not supported."},
	FileNotFoundMsgID:     {"en": "Download finished but the output file could not be located. This is a bug, not a site issue."},
	CancelledMsgID:        {"en": "URL: %s\nCancelled."},
	DeliveredMsgID:        {"en": "Done\n%s\n%s"},
	UploadFailedMsgID:     {"en": "Upload failed: %s\nThe file is kept at %s for manual pickup."},
	TooLargeMsgID:         {"en": "Downloaded %s, but the delivery limit is %s.\nChoose a remedy:"},
	CompressingMsgID:      {"en": "Compressing to fit %s..."},
	CompressionFailedMsgID: {
		"en": "Compression could not fit the file under the limit. The original is kept at %s.",
	},
	OffloadingMsgID:     {"en": "Uploading to external storage..."},
	OffloadDoneMsgID:    {"en": "Uploaded to external storage:\n%s"},
	OffloadFailedMsgID:  {"en": "External storage upload failed: %s\nThe file is kept at %s."},
	KeptLocallyMsgID:    {"en": "File kept at %s (%s)."},
	CookiePromptMsgID:   {"en": "Reply to this message with your Cookie header copied from the browser.\nExample: Cookie: key1=value1; key2=value2\nThe leading \"Cookie:\" may be omitted."},
	CookieSavedMsgID:    {"en": "Cookie saved for %s -> %s"},
	CookieInvalidMsgID:  {"en": "That does not look like a cookie header. Paste the full line copied from DevTools."},
	CookiesClearedMsgID: {"en": "Removed %d stored cookies."},
	LogTailMsgID:        {"en": "Last log (tail):\n%s"},
	LogEmptyMsgID:       {"en": "(log is empty)"},
	CommandPreviewMsgID: {"en": "Command used:\n%s"},
	StatusMsgID:         {"en": "Jobs -> %s\nDownloads dir: %s\n%s"},
	CleanedMsgID:        {"en": "Cleaned %d old files from %s."},
	QuotaStatusMsgID:    {"en": "Today: %d/%d jobs, %s/%s transferred."},
	QuotaExceededMsgID:  {"en": "Daily quota exceeded (%d jobs, %s). Try again tomorrow."},
	UserBusyMsgID:       {"en": "You already have %d downloads running. Wait for one to finish."},
	ForceGenericMsgID:   {"en": "Will use the generic extractor."},
	RecheckMsgID:        {"en": "Rechecking..."},
	NotEnoughDiskSpaceMsgID: {
		"en": "Not enough disk space in the download directory.",
	},
}
