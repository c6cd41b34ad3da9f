package bot

import (
	"time"
)

// Config represents the configuration for the bot
type Config struct {
	// Telegram user ids allowed to import word lists. Admins can also review.
	AdminUserIDs []int64
	// Telegram user ids allowed to review words
	LearnerUserIDs []int64
	// Language of words uploaded by admins
	ImportLanguage string
	// Number of days /curve predicts
	CurveDays int
	// Long polling timeout in seconds
	PollTimeout int
	// Time allowed for downloading an uploaded file
	DownloadTimeout time.Duration
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *Config {
	return &Config{
		ImportLanguage:  "en",
		CurveDays:       7,
		PollTimeout:     60,
		DownloadTimeout: 30 * time.Second,
	}
}
