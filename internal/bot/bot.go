package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/wordreview/internal/excel"
	"github.com/example/wordreview/internal/logger"
	"github.com/example/wordreview/internal/queue"
	"github.com/example/wordreview/internal/review"
	"github.com/example/wordreview/internal/session"
	"github.com/example/wordreview/pkg/models"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// API is the part of the Telegram client the bot uses
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	GetFileDirectURL(fileID string) (string, error)
}

// ReviewService is the review flow the bot exposes to the learner
type ReviewService interface {
	BuildBatch(ctx context.Context, req queue.Request) (models.ReviewBatch, error)
	StartSession() *session.Session
	OnCorrect(ctx context.Context, sess *session.Session, wordID string, opts review.AnswerOptions) (review.Outcome, error)
	OnIncorrect(ctx context.Context, sess *session.Session, wordID string, opts review.AnswerOptions) (review.Outcome, error)
	OnSkip(ctx context.Context, sess *session.Session, wordID string) (review.Outcome, error)
	Overview(ctx context.Context) (review.Overview, error)
	FindRecord(word string) (models.LearningRecord, bool)
	Curve(wordID string, days int) ([]int, error)
}

// Importer loads uploaded word lists
type Importer interface {
	Import(ctx context.Context, r io.Reader, ext string, config excel.ImportConfig) (*excel.ImportResult, error)
}

// chatSession is the review in progress in one chat
type chatSession struct {
	mu      sync.Mutex
	session *session.Session
	batch   models.ReviewBatch
	idx     int
	shownAt time.Time
}

func (cs *chatSession) current() (models.VocabularyEntry, bool) {
	if cs.idx < 0 || cs.idx >= cs.batch.Len() {
		return models.VocabularyEntry{}, false
	}
	return cs.batch.Entries[cs.idx], true
}

// Bot represents the Telegram bot application
type Bot struct {
	api      API
	review   ReviewService
	importer Importer
	config   *Config
	logger   *logger.Logger
	admins   map[int64]bool
	learners map[int64]bool
	now      func() time.Time
	fetch    func(ctx context.Context, url string) (io.ReadCloser, error)

	mu       sync.Mutex
	sessions map[int64]*chatSession
	wg       sync.WaitGroup
}

// Connect authorizes against the Telegram API
func Connect(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	return api, nil
}

// NewBot creates a bot serving the review flow over api
func NewBot(api API, svc ReviewService, importer Importer, config *Config, log *logger.Logger) *Bot {
	if config == nil {
		config = DefaultConfig()
	}
	admins := make(map[int64]bool, len(config.AdminUserIDs))
	for _, id := range config.AdminUserIDs {
		admins[id] = true
	}
	learners := make(map[int64]bool, len(config.LearnerUserIDs))
	for _, id := range config.LearnerUserIDs {
		learners[id] = true
	}

	b := &Bot{
		api:      api,
		review:   svc,
		importer: importer,
		config:   config,
		logger:   log.With("component", "bot"),
		admins:   admins,
		learners: learners,
		now:      time.Now,
		sessions: make(map[int64]*chatSession),
	}
	b.fetch = b.download
	return b
}

// Run polls Telegram for updates until ctx is done
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.PollTimeout

	updates := b.api.GetUpdatesChan(updateConfig)
	b.logger.Info("bot started")

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

// SendReminders implements the scheduler.Notifier interface
func (b *Bot) SendReminders(chatID int64, count int) error {
	msg := tgbotapi.NewMessage(chatID, renderReminder(count))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "🎯 Start review", CallbackData: callbackStartReview}},
	})
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("failed to send reminder", "chat_id", chatID, "error", err)
		return err
	}
	b.logger.Info("reminder sent", "chat_id", chatID, "count", count)
	return nil
}

// isAdmin checks if a user is an admin
func (b *Bot) isAdmin(userID int64) bool {
	return b.admins[userID]
}

// isLearner checks if a user may review words
func (b *Bot) isLearner(userID int64) bool {
	return b.learners[userID] || b.admins[userID]
}

func (b *Bot) session(chatID int64) *chatSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[chatID]
}

func (b *Bot) setSession(chatID int64, cs *chatSession) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cs == nil {
		delete(b.sessions, chatID)
		return
	}
	b.sessions[chatID] = cs
}

func (b *Bot) send(chatID int64, text string) {
	b.sendWithKeyboard(chatID, text, nil)
}

func (b *Bot) sendWithKeyboard(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("failed to send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) download(ctx context.Context, url string) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.DownloadTimeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}
	return &cancelBody{ReadCloser: resp.Body, cancel: cancel}, nil
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelBody) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}
