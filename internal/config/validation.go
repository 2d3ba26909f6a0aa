package config

import (
	"telegram-fetch-bot/internal/utils"
)

func (c *Config) validate() error {
	if err := c.validateRequiredFields(); err != nil {
		return err
	}
	if err := c.validateDownloadSettings(); err != nil {
		return err
	}
	return c.validateDeliverySettings()
}

func (c *Config) validateRequiredFields() error {
	var missingFields []string

	if c.BotToken == "" {
		missingFields = append(missingFields, "BOT_TOKEN")
	}
	if c.DownloadDir == "" {
		missingFields = append(missingFields, "DOWNLOAD_DIR")
	}

	if len(missingFields) > 0 {
		return utils.WrapError(utils.ErrConfigurationError, "missing required environment variables", map[string]any{
			"missing_fields": missingFields,
		})
	}
	return nil
}

func (c *Config) validateDownloadSettings() error {
	s := c.DownloadSettings
	if s.MaxConcurrentDownloads < 1 {
		return utils.WrapError(utils.ErrConfigurationError, "MAX_CONCURRENT_DOWNLOADS must be at least 1", map[string]any{
			"value": s.MaxConcurrentDownloads,
		})
	}
	if s.MaxPerUserDownloads < 1 {
		return utils.WrapError(utils.ErrConfigurationError, "MAX_PER_USER_DOWNLOADS must be at least 1", map[string]any{
			"value": s.MaxPerUserDownloads,
		})
	}
	if s.MaxPerUserDownloads > s.MaxConcurrentDownloads {
		return utils.WrapError(utils.ErrConfigurationError, "per-user limit cannot exceed the global limit", map[string]any{
			"per_user": s.MaxPerUserDownloads,
			"global":   s.MaxConcurrentDownloads,
		})
	}
	if s.ProgressEditInterval <= 0 {
		return utils.WrapError(utils.ErrConfigurationError, "PROGRESS_EDIT_INTERVAL must be positive", map[string]any{
			"value": s.ProgressEditInterval.String(),
		})
	}
	return nil
}

func (c *Config) validateDeliverySettings() error {
	if c.DeliverySettings.MaxFileSizeMB < 1 {
		return utils.WrapError(utils.ErrConfigurationError, "MAX_FILE_SIZE_MB must be at least 1", map[string]any{
			"value": c.DeliverySettings.MaxFileSizeMB,
		})
	}
	return nil
}
