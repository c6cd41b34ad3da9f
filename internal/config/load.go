package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envBindings maps config keys to the environment variables they are read from
var envBindings = map[string]string{
	"telegram.token":              "TELEGRAM_BOT_TOKEN",
	"telegram.admin_user_ids":     "ADMIN_USER_IDS",
	"telegram.learner_user_ids":   "LEARNER_USER_IDS",
	"database.type":               "DB_TYPE",
	"database.url":                "DATABASE_URL",
	"redis.addr":                  "REDIS_ADDR",
	"redis.password":              "REDIS_PASSWORD",
	"redis.db":                    "REDIS_DB",
	"redis.sync_key":              "REDIS_SYNC_KEY",
	"redis.events_channel":        "REDIS_EVENTS_CHANNEL",
	"redis.queue_size":            "SYNC_QUEUE_SIZE",
	"review.batch_size":           "REVIEW_BATCH_SIZE",
	"review.wrong_word_threshold": "WRONG_WORD_THRESHOLD",
	"scheduler.enabled":           "ENABLE_SCHEDULER",
	"scheduler.start_hour":        "NOTIFICATION_START_HOUR",
	"scheduler.end_hour":          "NOTIFICATION_END_HOUR",
	"log.mode":                    "LOG_MODE",
	"log.level":                   "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.type", "sqlite3")
	v.SetDefault("database.url", "data/wordreview.db")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.sync_key", "wordreview:sync")
	v.SetDefault("redis.events_channel", "wordreview:events")
	v.SetDefault("redis.queue_size", 256)
	v.SetDefault("review.batch_size", 10)
	v.SetDefault("review.wrong_word_threshold", 3)
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.start_hour", 4)
	v.SetDefault("scheduler.end_hour", 18)
	v.SetDefault("log.mode", "dev")
	v.SetDefault("log.level", "info")
}

// Load reads the configuration from the environment after loading envFile
// into it. A missing envFile is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	admins, err := parseIDs("ADMIN_USER_IDS", cfg.Telegram.AdminUserIDs)
	if err != nil {
		return nil, err
	}
	cfg.Telegram.Admins = admins

	learners, err := parseIDs("LEARNER_USER_IDS", cfg.Telegram.LearnerUserIDs)
	if err != nil {
		return nil, err
	}
	cfg.Telegram.Learners = learners

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its validate tags
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func parseIDs(env, list string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q in %s: %w", part, env, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
