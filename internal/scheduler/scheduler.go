package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/wordreview/internal/logger"
)

// Default notification window, hours in UTC
const (
	DefaultNotificationStartHour = 4
	DefaultNotificationEndHour   = 18
)

// Notifier sends reminders to a chat
type Notifier interface {
	SendReminders(chatID int64, count int) error
}

// DueCounter reports how many words are due for review
type DueCounter interface {
	DueCount(ctx context.Context) (int, error)
}

// Options configures the reminder job
type Options struct {
	StartHour  int
	EndHour    int
	Recipients []int64
	// Cap on the count shown in a reminder, 0 means no cap
	MaxPerReminder int
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	due       DueCounter
	opts      Options
	logger    *logger.Logger
	now       func() time.Time
}

// New creates a new scheduler instance
func New(notifier Notifier, due DueCounter, opts Options, log *logger.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		notifier:  notifier,
		due:       due,
		opts:      opts,
		logger:    log.With("component", "scheduler"),
		now:       time.Now,
	}
}

// Start schedules the hourly reminder check and runs it in the background
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(1).Hour().Do(s.checkAndSendReminders); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Run starts the scheduler and stops it when ctx is done
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Scheduler) checkAndSendReminders() {
	if _, err := s.RunCheck(context.Background()); err != nil {
		s.logger.Error("reminder check failed", "error", err)
	}
}

// RunCheck sends a reminder to every recipient when words are due and the
// current hour is inside the notification window. It returns the number of
// reminders sent.
func (s *Scheduler) RunCheck(ctx context.Context) (int, error) {
	hour := s.now().UTC().Hour()
	if !s.inWindow(hour) {
		s.logger.Debug("outside notification hours, skipping reminders",
			"hour", hour, "start", s.opts.StartHour, "end", s.opts.EndHour)
		return 0, nil
	}

	count, err := s.due.DueCount(ctx)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	if s.opts.MaxPerReminder > 0 && count > s.opts.MaxPerReminder {
		count = s.opts.MaxPerReminder
	}

	sent := 0
	for _, chatID := range s.opts.Recipients {
		if err := s.notifier.SendReminders(chatID, count); err != nil {
			s.logger.Error("failed to send reminder", "chat_id", chatID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *Scheduler) inWindow(hour int) bool {
	return hour >= s.opts.StartHour && hour <= s.opts.EndHour
}
