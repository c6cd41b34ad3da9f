package bot

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/wordreview/internal/excel"
	"github.com/example/wordreview/internal/queue"
	"github.com/example/wordreview/internal/review"
	"github.com/example/wordreview/pkg/models"
)

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil && update.Message.Document != nil:
		b.handleDocument(ctx, update.Message)
	case update.Message != nil && update.Message.Chat != nil:
		b.send(update.Message.Chat.ID, "I don't understand. Use /help to see the commands.")
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

// handleCommand handles bot commands
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}
	chatID := message.Chat.ID
	command := message.Command()

	req, isReview := parseRequest(command, message.CommandArguments())
	if (isReview || learnerCommands[command]) && !b.isLearner(senderID(message)) {
		b.send(chatID, learnerOnlyText)
		return
	}
	if isReview {
		b.startReview(ctx, chatID, req)
		return
	}

	switch command {
	case "start", "help":
		keyboard := createKeyboard(b.mainMenuButtons())
		b.sendWithKeyboard(chatID, helpText, &keyboard)
	case "stop":
		b.finishSession(chatID)
	case "stats":
		b.handleStats(ctx, chatID)
	case "curve":
		b.handleCurve(chatID, message.CommandArguments())
	case "import":
		if !b.isAdmin(senderID(message)) {
			b.send(chatID, "This command is only available for administrators.")
			return
		}
		b.send(chatID, "📝 Send an .xlsx or .csv file with the columns word, translation, transcription, example and wordbook. Use /template to get an empty workbook.")
	case "template":
		if !b.isAdmin(senderID(message)) {
			b.send(chatID, "This command is only available for administrators.")
			return
		}
		b.sendTemplate(chatID)
	default:
		b.send(chatID, "Unknown command. Use /help to see the commands.")
	}
}

// mainMenuButtons returns the main menu layout
func (b *Bot) mainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "🎯 Start review", CallbackData: callbackStartReview},
			{Text: "📊 Statistics", CallbackData: callbackShowStats},
		},
	}
}

// handleCallbackQuery handles callback queries from buttons
func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.logger.Debug("failed to acknowledge callback", "error", err)
	}
	if callback.Message == nil || callback.Message.Chat == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	if callback.From == nil || !b.isLearner(callback.From.ID) {
		b.send(chatID, learnerOnlyText)
		return
	}

	switch callback.Data {
	case callbackStartReview:
		b.startReview(ctx, chatID, queue.Request{Mode: queue.ModeSmart})
		return
	case callbackShowStats:
		b.handleStats(ctx, chatID)
		return
	}

	action, wordID, ok := parseAnswerData(callback.Data)
	if !ok {
		b.logger.Warn("unknown callback", "data", callback.Data)
		return
	}
	b.handleAnswer(ctx, chatID, action, wordID)
}

// startReview builds a batch and shows its first card
func (b *Bot) startReview(ctx context.Context, chatID int64, req queue.Request) {
	batch, err := b.review.BuildBatch(ctx, req)
	if err != nil {
		b.logger.Error("failed to build review batch", "chat_id", chatID, "error", err)
		b.send(chatID, "❌ Could not prepare the words. Please try again later.")
		return
	}
	if batch.Empty() {
		b.send(chatID, "🎉 Nothing to review right now.")
		return
	}

	cs := &chatSession{
		session: b.review.StartSession(),
		batch:   batch,
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	b.setSession(chatID, cs)
	b.logger.Info("review session started",
		"chat_id", chatID, "session_id", cs.session.ID(), "mode", batch.Mode, "words", batch.Len())

	b.send(chatID, renderBatchIntro(batch))
	b.showCard(chatID, cs)
}

// showCard sends the current word of cs; the caller holds cs.mu
func (b *Bot) showCard(chatID int64, cs *chatSession) {
	entry, ok := cs.current()
	if !ok {
		return
	}
	keyboard := createKeyboard(answerButtons(entry.ID))
	b.sendWithKeyboard(chatID, renderCard(entry, cs.idx+1, cs.batch.Len()), &keyboard)
	cs.shownAt = b.now()
}

// handleAnswer applies an answer to the current card and moves on
func (b *Bot) handleAnswer(ctx context.Context, chatID int64, action, wordID string) {
	cs := b.session(chatID)
	if cs == nil {
		b.send(chatID, "This session has ended. Send /review to start a new one.")
		return
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	entry, ok := cs.current()
	if !ok || strconv.FormatInt(entry.ID, 10) != wordID {
		b.logger.Debug("ignoring answer for a stale card", "chat_id", chatID, "word_id", wordID)
		return
	}

	var (
		out review.Outcome
		err error
	)
	switch action {
	case actionRemembered, actionForgot:
		elapsed := b.now().Sub(cs.shownAt)
		opts := review.AnswerOptions{ResponseTime: &elapsed}
		if action == actionRemembered {
			out, err = b.review.OnCorrect(ctx, cs.session, wordID, opts)
		} else {
			out, err = b.review.OnIncorrect(ctx, cs.session, wordID, opts)
		}
	default:
		out, err = b.review.OnSkip(ctx, cs.session, wordID)
	}
	if err != nil {
		b.logger.Error("failed to record answer", "chat_id", chatID, "word_id", wordID, "error", err)
		b.send(chatID, "❌ Could not save your answer. Please try again.")
		return
	}

	b.send(chatID, renderFeedback(entry, action, out))

	cs.idx++
	if cs.idx >= cs.batch.Len() {
		b.closeSession(chatID, cs)
		return
	}
	b.showCard(chatID, cs)
}

// finishSession ends the session of the chat on request
func (b *Bot) finishSession(chatID int64) {
	cs := b.session(chatID)
	if cs == nil {
		b.send(chatID, "There is no review in progress.")
		return
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	b.closeSession(chatID, cs)
}

// closeSession reports the final stats; the caller holds cs.mu
func (b *Bot) closeSession(chatID int64, cs *chatSession) {
	stats := cs.session.CalculateFinalStats()
	b.setSession(chatID, nil)
	b.logger.Info("review session finished",
		"chat_id", chatID, "session_id", stats.SessionID, "total", stats.Total, "accuracy", stats.Accuracy)

	keyboard := createKeyboard(b.mainMenuButtons())
	b.sendWithKeyboard(chatID, renderSessionStats(stats), &keyboard)
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) {
	ov, err := b.review.Overview(ctx)
	if err != nil {
		b.logger.Error("failed to read overview", "chat_id", chatID, "error", err)
		b.send(chatID, "❌ Could not read your statistics.")
		return
	}
	b.send(chatID, renderOverview(ov))
}

func (b *Bot) handleCurve(chatID int64, args string) {
	word, days, err := parseCurveArgs(args, b.config.CurveDays)
	if err != nil {
		b.send(chatID, "Usage: /curve <word> [days]")
		return
	}

	rec, ok := b.review.FindRecord(word)
	if !ok {
		b.send(chatID, "You have not reviewed \""+word+"\" yet.")
		return
	}
	rates, err := b.review.Curve(rec.WordID, days)
	if err != nil {
		b.logger.Error("failed to predict forgetting curve", "word", word, "error", err)
		b.send(chatID, "❌ Could not predict the curve.")
		return
	}
	b.send(chatID, renderCurve(rec, rates))
}

func (b *Bot) sendTemplate(chatID int64) {
	data, err := excel.Template()
	if err != nil {
		b.logger.Error("failed to build template", "error", err)
		b.send(chatID, "❌ Could not build the template.")
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: "words.xlsx", Bytes: data})
	if _, err := b.api.Send(doc); err != nil {
		b.logger.Warn("failed to send template", "chat_id", chatID, "error", err)
	}
}

// handleDocument imports a word list uploaded by an admin
func (b *Bot) handleDocument(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}
	chatID := message.Chat.ID
	if !b.isAdmin(senderID(message)) {
		b.send(chatID, "Only administrators can upload word lists.")
		return
	}

	doc := message.Document
	ext := strings.ToLower(filepath.Ext(doc.FileName))
	if ext != ".xlsx" && ext != ".csv" {
		b.send(chatID, "Please send an .xlsx or .csv file.")
		return
	}

	result, err := b.importDocument(ctx, doc, ext)
	if err != nil {
		b.logger.Error("failed to import word list", "file", doc.FileName, "error", err)
		b.send(chatID, "❌ Import failed: "+err.Error())
		return
	}
	b.logger.Info("word list imported",
		"file", doc.FileName, "created", result.Created, "updated", result.Updated, "errors", len(result.Errors))
	b.send(chatID, renderImportResult(result))
}

func (b *Bot) importDocument(ctx context.Context, doc *tgbotapi.Document, ext string) (*excel.ImportResult, error) {
	if b.importer == nil {
		return nil, errors.New("import is not configured")
	}
	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return nil, err
	}
	body, err := b.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	config := excel.DefaultImportConfig()
	config.Language = b.config.ImportLanguage
	config.Source = models.Source{
		Type: models.SourceTypeWordbook,
		ID:   strings.TrimSuffix(doc.FileName, filepath.Ext(doc.FileName)),
	}
	return b.importer.Import(ctx, body, ext, config)
}

func senderID(message *tgbotapi.Message) int64 {
	if message.From == nil {
		return 0
	}
	return message.From.ID
}
