package config

import (
	"os"
	"strconv"
	"time"

	"telegram-fetch-bot/internal/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxFileSizeMB       = 1900 // margin below Telegram's attachment cap
	DefaultDailyJobs           = 20
	DefaultDailyMB             = 10240
	DefaultAudioBitrateKbps    = 128
	DefaultMinVideoKbps        = 100
	DefaultTargetMarginMB      = 5
	DefaultCleanupAge          = 72 * time.Hour
	DefaultEditInterval        = time.Second
	DefaultDownloadTimeout     = 0 // 0 means no overall deadline; long downloads are expected
	DefaultConcurrentFragments = 8
)

type Config struct {
	BotToken    string
	DownloadDir string
	DBPath      string
	Lang        string
	LogLevel    string
	AdminID     int64

	DownloadSettings DownloadConfig
	DeliverySettings DeliveryConfig
	QuotaSettings    QuotaConfig
	CompressSettings CompressConfig
	OffloadSettings  OffloadConfig
}

type DownloadConfig struct {
	MaxConcurrentDownloads int
	MaxPerUserDownloads    int
	DownloadTimeout        time.Duration
	ProgressEditInterval   time.Duration
	ConcurrentFragments    int
	CleanupAge             time.Duration
}

type DeliveryConfig struct {
	MaxFileSizeMB         int64
	AsMediaDefault        bool
	DeleteOnUploadFailure bool
}

type QuotaConfig struct {
	DailyJobs int
	DailyMB   int64
}

type CompressConfig struct {
	AudioBitrateKbps    int
	MinVideoBitrateKbps int
	TargetMarginMB      int64
}

type OffloadConfig struct {
	Endpoint string // HTTP storage endpoint; empty disables the offload remedy
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Debug("No .env file loaded")
	}

	config := &Config{
		BotToken:    getEnv("BOT_TOKEN", ""),
		DownloadDir: getEnv("DOWNLOAD_DIR", ""),
		DBPath:      getEnv("DB_PATH", ""),
		Lang:        getEnv("LANG", "en"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		AdminID:     getEnvInt64("ADMIN_ID", 0),

		DownloadSettings: DownloadConfig{
			MaxConcurrentDownloads: getEnvInt("MAX_CONCURRENT_DOWNLOADS", 3),
			MaxPerUserDownloads:    getEnvInt("MAX_PER_USER_DOWNLOADS", 1),
			DownloadTimeout:        getEnvDuration("DOWNLOAD_TIMEOUT", DefaultDownloadTimeout),
			ProgressEditInterval:   getEnvDuration("PROGRESS_EDIT_INTERVAL", DefaultEditInterval),
			ConcurrentFragments:    getEnvInt("CONCURRENT_FRAGMENTS", DefaultConcurrentFragments),
			CleanupAge:             getEnvDuration("CLEANUP_AGE", DefaultCleanupAge),
		},

		DeliverySettings: DeliveryConfig{
			MaxFileSizeMB:         getEnvInt64("MAX_FILE_SIZE_MB", DefaultMaxFileSizeMB),
			AsMediaDefault:        getEnvBool("SEND_AS_MEDIA", true),
			DeleteOnUploadFailure: getEnvBool("DELETE_ON_UPLOAD_FAILURE", false),
		},

		QuotaSettings: QuotaConfig{
			DailyJobs: getEnvInt("DAILY_JOB_LIMIT", DefaultDailyJobs),
			DailyMB:   getEnvInt64("DAILY_MB_LIMIT", DefaultDailyMB),
		},

		CompressSettings: CompressConfig{
			AudioBitrateKbps:    getEnvInt("COMPRESS_AUDIO_KBPS", DefaultAudioBitrateKbps),
			MinVideoBitrateKbps: getEnvInt("COMPRESS_MIN_VIDEO_KBPS", DefaultMinVideoKbps),
			TargetMarginMB:      getEnvInt64("COMPRESS_TARGET_MARGIN_MB", DefaultTargetMarginMB),
		},

		OffloadSettings: OffloadConfig{
			Endpoint: getEnv("OFFLOAD_ENDPOINT", ""),
		},
	}

	if config.DBPath == "" && config.DownloadDir != "" {
		config.DBPath = config.DownloadDir + "/bot.db"
	}

	if err := config.validate(); err != nil {
		return nil, utils.WrapError(err, "configuration validation failed", nil)
	}

	return config, nil
}

// DeliveryCeilingBytes is the maximum size the Delivery Adapter will send directly.
func (c *Config) DeliveryCeilingBytes() int64 {
	return c.DeliverySettings.MaxFileSizeMB * 1024 * 1024
}

// CompressTargetMB is the size a compression pass aims for.
func (c *Config) CompressTargetMB() int64 {
	target := c.DeliverySettings.MaxFileSizeMB - c.CompressSettings.TargetMarginMB
	if target < 1 {
		target = 1
	}
	return target
}
