package config

// Config holds all application configuration
type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Review    ReviewConfig    `mapstructure:"review" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Log       LogConfig       `mapstructure:"log" validate:"required"`
}

// TelegramConfig configures the bot
type TelegramConfig struct {
	Token string `mapstructure:"token"`
	// Comma separated user ids allowed to import words
	AdminUserIDs string  `mapstructure:"admin_user_ids"`
	Admins       []int64 `mapstructure:"-"`
	// Comma separated user ids allowed to review words
	LearnerUserIDs string  `mapstructure:"learner_user_ids"`
	Learners       []int64 `mapstructure:"-"`
}

// Reviewers returns the learners followed by the admins, without duplicates.
// Admins can always review.
func (t TelegramConfig) Reviewers() []int64 {
	seen := make(map[int64]bool, len(t.Learners)+len(t.Admins))
	ids := make([]int64, 0, len(t.Learners)+len(t.Admins))
	for _, id := range append(append([]int64{}, t.Learners...), t.Admins...) {
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// DatabaseConfig selects the storage backend
type DatabaseConfig struct {
	Type string `mapstructure:"type" validate:"required,oneof=sqlite3 postgres"`
	URL  string `mapstructure:"url" validate:"required"`
}

// RedisConfig enables remote sync and event fan-out when Addr is set
type RedisConfig struct {
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db" validate:"gte=0"`
	SyncKey       string `mapstructure:"sync_key" validate:"required"`
	EventsChannel string `mapstructure:"events_channel" validate:"required"`
	QueueSize     int    `mapstructure:"queue_size" validate:"gt=0"`
}

// ReviewConfig tunes the review engine
type ReviewConfig struct {
	BatchSize          int `mapstructure:"batch_size" validate:"gt=0"`
	WrongWordThreshold int `mapstructure:"wrong_word_threshold" validate:"gte=1"`
}

// SchedulerConfig configures due-word reminders
type SchedulerConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	StartHour int  `mapstructure:"start_hour" validate:"gte=0,lte=23"`
	EndHour   int  `mapstructure:"end_hour" validate:"gte=0,lte=23"`
}

// LogConfig configures zap
type LogConfig struct {
	Mode  string `mapstructure:"mode" validate:"required,oneof=dev prod"`
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}
