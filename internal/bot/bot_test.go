package bot

import (
	"context"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordreview/internal/excel"
	"github.com/example/wordreview/internal/logger"
	"github.com/example/wordreview/internal/queue"
	"github.com/example/wordreview/internal/review"
	"github.com/example/wordreview/internal/session"
	"github.com/example/wordreview/pkg/models"
)

type MockAPI struct {
	mu      sync.Mutex
	sent    []string
	acks    int
	updates chan tgbotapi.Update
	stopped bool
}

func newMockAPI() *MockAPI {
	return &MockAPI{updates: make(chan tgbotapi.Update, 10)}
}

func (m *MockAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		m.sent = append(m.sent, v.Text)
	case tgbotapi.DocumentConfig:
		m.sent = append(m.sent, "document")
	}
	return tgbotapi.Message{}, nil
}

func (m *MockAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acks++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (m *MockAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return m.updates
}

func (m *MockAPI) StopReceivingUpdates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *MockAPI) GetFileDirectURL(fileID string) (string, error) {
	return "https://files.example/" + fileID, nil
}

func (m *MockAPI) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

type answerCall struct {
	action       string
	wordID       string
	responseTime *time.Duration
}

type MockReview struct {
	mu      sync.Mutex
	batch   models.ReviewBatch
	calls   []answerCall
	records map[string]models.LearningRecord
	curve   []int
	days    int
}

func (m *MockReview) BuildBatch(context.Context, queue.Request) (models.ReviewBatch, error) {
	return m.batch, nil
}

func (m *MockReview) StartSession() *session.Session {
	return session.New("s-1")
}

func (m *MockReview) answer(sess *session.Session, action, wordID string, opts review.AnswerOptions, correct bool) review.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, answerCall{action: action, wordID: wordID, responseTime: opts.ResponseTime})
	acc := sess.UpdateStats(wordID, "", correct)
	return review.Outcome{Record: models.LearningRecord{WordID: wordID, IntervalDays: 3}, Accuracy: acc}
}

func (m *MockReview) OnCorrect(_ context.Context, sess *session.Session, wordID string, opts review.AnswerOptions) (review.Outcome, error) {
	return m.answer(sess, actionRemembered, wordID, opts, true), nil
}

func (m *MockReview) OnIncorrect(_ context.Context, sess *session.Session, wordID string, opts review.AnswerOptions) (review.Outcome, error) {
	return m.answer(sess, actionForgot, wordID, opts, false), nil
}

func (m *MockReview) OnSkip(_ context.Context, _ *session.Session, wordID string) (review.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, answerCall{action: actionSkip, wordID: wordID})
	return review.Outcome{}, nil
}

func (m *MockReview) Overview(context.Context) (review.Overview, error) {
	return review.Overview{TotalWords: 12, Due: 4, Learned: 6, Mastered: 2}, nil
}

func (m *MockReview) FindRecord(word string) (models.LearningRecord, bool) {
	for _, rec := range m.records {
		if strings.EqualFold(rec.Word, word) {
			return rec, true
		}
	}
	return models.LearningRecord{}, false
}

func (m *MockReview) Curve(_ string, days int) ([]int, error) {
	m.days = days
	return m.curve, nil
}

type MockImporter struct {
	ext     string
	config  excel.ImportConfig
	content string
}

func (m *MockImporter) Import(_ context.Context, r io.Reader, ext string, config excel.ImportConfig) (*excel.ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.ext, m.config, m.content = ext, config, string(data)
	return &excel.ImportResult{TotalProcessed: 2, Created: 2}, nil
}

func entry(id int64, word, translation string) models.VocabularyEntry {
	return models.VocabularyEntry{ID: id, Word: word, Translation: translation, Language: "en"}
}

func command(chatID, userID int64, text string) tgbotapi.Update {
	cmd := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{ID: userID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func callback(chatID, userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID},
		Data:    data,
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

func newTestBot(api *MockAPI, svc *MockReview, importer Importer) *Bot {
	config := DefaultConfig()
	config.AdminUserIDs = []int64{1}
	config.LearnerUserIDs = []int64{5}
	return NewBot(api, svc, importer, config, logger.NewNop())
}

func TestParseRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		command string
		args    string
		want    queue.Request
		ok      bool
	}{
		{"review", "", queue.Request{Mode: queue.ModeSmart}, true},
		{"all", "", queue.Request{Mode: queue.ModeAll}, true},
		{"challenge", "", queue.Request{Type: queue.TypeWrongWords}, true},
		{"show", " friends ", queue.Request{Type: queue.TypeShow, ID: "friends", Mode: queue.ModeSmart}, true},
		{"wordbook", "ielts", queue.Request{Type: queue.TypeWordbook, ID: "ielts", Mode: queue.ModeSmart}, true},
		{"stats", "", queue.Request{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.command, func(t *testing.T) {
			t.Parallel()
			got, ok := parseRequest(tc.command, tc.args)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseCurveArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    string
		word    string
		days    int
		wantErr bool
	}{
		{name: "word only", args: "apple", word: "apple", days: 7},
		{name: "word and days", args: "apple 14", word: "apple", days: 14},
		{name: "phrase", args: "give up 3", word: "give up", days: 3},
		{name: "single number is a word", args: "42", word: "42", days: 7},
		{name: "empty", args: "  ", wantErr: true},
		{name: "too many days", args: "apple 400", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			word, days, err := parseCurveArgs(tc.args, 7)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.word, word)
			assert.Equal(t, tc.days, days)
		})
	}
}

func TestParseAnswerData(t *testing.T) {
	t.Parallel()

	action, id, ok := parseAnswerData(answerData(actionForgot, 17))
	assert.True(t, ok)
	assert.Equal(t, actionForgot, action)
	assert.Equal(t, "17", id)

	for _, data := range []string{"", "answer", "answer:maybe:1", "answer:skip:", "menu:skip:1"} {
		_, _, ok := parseAnswerData(data)
		assert.False(t, ok, data)
	}
}

func TestRenderCard(t *testing.T) {
	t.Parallel()

	e := entry(1, "apple", "яблоко")
	e.Phonetic = "[ˈæp.əl]"
	e.Example = "An Apple a day keeps the doctor away."

	text := renderCard(e, 2, 5)
	assert.Contains(t, text, "2/5")
	assert.Contains(t, text, "apple  /ˈæp.əl/")
	assert.Contains(t, text, "An _______ a day")
	assert.NotContains(t, text, "яблоко")
}

func TestRenderSessionStats(t *testing.T) {
	t.Parallel()

	assert.Contains(t, renderSessionStats(models.SessionStats{}), "No words")

	text := renderSessionStats(models.SessionStats{Total: 4, Remembered: 3, Forgotten: 1, Accuracy: 75, Experience: 7})
	assert.Contains(t, text, "Accuracy: 75%")
	assert.Contains(t, text, "Experience: +7")
}

func TestRenderImportResultTruncatesErrors(t *testing.T) {
	t.Parallel()

	res := &excel.ImportResult{TotalProcessed: 12}
	for i := 0; i < 12; i++ {
		res.Errors = append(res.Errors, "row "+strconv.Itoa(i))
	}
	text := renderImportResult(res)
	assert.Contains(t, text, "Errors (12)")
	assert.Contains(t, text, "row 9")
	assert.NotContains(t, text, "row 10")
	assert.Contains(t, text, "and 2 more")
}

func TestReviewFlow(t *testing.T) {
	api := newMockAPI()
	svc := &MockReview{batch: models.ReviewBatch{
		Mode:    models.BatchModeDueReview,
		Entries: []models.VocabularyEntry{entry(1, "apple", "яблоко"), entry(2, "pear", "груша")},
	}}
	b := newTestBot(api, svc, nil)
	ctx := context.Background()

	b.handleUpdate(ctx, command(42, 5, "/review"))
	sent := api.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Review: 2 words", sent[0])
	assert.Contains(t, sent[1], "1/2")
	assert.Contains(t, sent[1], "apple")

	b.handleUpdate(ctx, callback(42, 5, answerData(actionRemembered, 1)))
	sent = api.Sent()
	require.Len(t, sent, 4)
	assert.Contains(t, sent[2], "✅ apple - яблоко")
	assert.Contains(t, sent[2], "Next review in 3 days")
	assert.Contains(t, sent[3], "2/2")

	// the first card was already answered
	b.handleUpdate(ctx, callback(42, 5, answerData(actionForgot, 1)))
	assert.Len(t, api.Sent(), 4)

	b.handleUpdate(ctx, callback(42, 5, answerData(actionForgot, 2)))
	sent = api.Sent()
	require.Len(t, sent, 6)
	assert.Contains(t, sent[4], "❌ pear - груша")
	assert.Contains(t, sent[5], "Remembered: 1")
	assert.Contains(t, sent[5], "Forgotten: 1")
	assert.Contains(t, sent[5], "Experience: +3")
	assert.Nil(t, b.session(42))

	require.Len(t, svc.calls, 2)
	assert.Equal(t, actionRemembered, svc.calls[0].action)
	assert.Equal(t, "1", svc.calls[0].wordID)
	assert.NotNil(t, svc.calls[0].responseTime)
	assert.Equal(t, actionForgot, svc.calls[1].action)
	assert.Equal(t, 3, api.acks)
}

func TestSkipAndStop(t *testing.T) {
	api := newMockAPI()
	svc := &MockReview{batch: models.ReviewBatch{
		Mode:    models.BatchModeChallenge,
		Entries: []models.VocabularyEntry{entry(1, "apple", "яблоко"), entry(2, "pear", "груша")},
	}}
	b := newTestBot(api, svc, nil)
	ctx := context.Background()

	b.handleUpdate(ctx, command(42, 5, "/challenge"))
	b.handleUpdate(ctx, callback(42, 5, answerData(actionSkip, 1)))
	b.handleUpdate(ctx, command(42, 5, "/stop"))

	sent := api.Sent()
	require.Len(t, sent, 5)
	assert.Equal(t, "Challenge: 2 words", sent[0])
	assert.Equal(t, "⏭ Skipped: apple - яблоко", sent[2])
	assert.Contains(t, sent[4], "No words were answered")
	assert.Nil(t, b.session(42))

	b.handleUpdate(ctx, callback(42, 5, answerData(actionSkip, 2)))
	assert.Contains(t, api.Sent()[5], "session has ended")
}

func TestOnlyLearnersCanReview(t *testing.T) {
	api := newMockAPI()
	svc := &MockReview{batch: models.ReviewBatch{
		Mode:    models.BatchModeDueReview,
		Entries: []models.VocabularyEntry{entry(1, "apple", "яблоко"), entry(2, "pear", "груша")},
	}}
	b := newTestBot(api, svc, nil)
	ctx := context.Background()

	b.handleUpdate(ctx, command(42, 7, "/review"))
	b.handleUpdate(ctx, callback(42, 7, answerData(actionRemembered, 1)))
	b.handleUpdate(ctx, callback(42, 7, callbackStartReview))
	b.handleUpdate(ctx, command(42, 7, "/stats"))
	assert.Nil(t, b.session(42))
	assert.Empty(t, svc.calls)
	for _, text := range api.Sent() {
		assert.Equal(t, learnerOnlyText, text)
	}
	assert.Len(t, api.Sent(), 4)

	// a stranger cannot answer cards of a running session
	b.handleUpdate(ctx, command(42, 5, "/review"))
	require.NotNil(t, b.session(42))
	b.handleUpdate(ctx, callback(42, 7, answerData(actionForgot, 1)))
	assert.Empty(t, svc.calls)
	assert.Equal(t, learnerOnlyText, api.Sent()[len(api.Sent())-1])

	// admins can review without being listed as learners
	b.handleUpdate(ctx, command(43, 1, "/review"))
	assert.NotNil(t, b.session(43))
}

func TestEmptyBatch(t *testing.T) {
	api := newMockAPI()
	b := newTestBot(api, &MockReview{}, nil)

	b.handleUpdate(context.Background(), command(42, 5, "/review"))
	assert.Equal(t, []string{"🎉 Nothing to review right now."}, api.Sent())
	assert.Nil(t, b.session(42))
}

func TestStatsAndCurve(t *testing.T) {
	api := newMockAPI()
	svc := &MockReview{
		records: map[string]models.LearningRecord{
			"1": {WordID: "1", Word: "apple", MasteryLevel: 40},
		},
		curve: []int{90, 80},
	}
	b := newTestBot(api, svc, nil)
	ctx := context.Background()

	b.handleUpdate(ctx, command(42, 5, "/stats"))
	b.handleUpdate(ctx, command(42, 5, "/curve pear"))
	b.handleUpdate(ctx, command(42, 5, "/curve Apple 2"))

	sent := api.Sent()
	require.Len(t, sent, 3)
	assert.Contains(t, sent[0], "Due now: 4")
	assert.Contains(t, sent[1], "not reviewed \"pear\"")
	assert.Contains(t, sent[2], "Retention of apple (mastery 40%)")
	assert.Contains(t, sent[2], "Day 2:  80%")
	assert.Equal(t, 2, svc.days)
}

func TestDocumentImport(t *testing.T) {
	api := newMockAPI()
	importer := &MockImporter{}
	b := newTestBot(api, &MockReview{}, importer)
	b.fetch = func(_ context.Context, url string) (io.ReadCloser, error) {
		assert.Equal(t, "https://files.example/file-1", url)
		return io.NopCloser(strings.NewReader("word,translation\ncat,кошка\n")), nil
	}

	upload := func(userID int64, name string) tgbotapi.Update {
		return tgbotapi.Update{Message: &tgbotapi.Message{
			Chat:     &tgbotapi.Chat{ID: 42},
			From:     &tgbotapi.User{ID: userID},
			Document: &tgbotapi.Document{FileID: "file-1", FileName: name},
		}}
	}

	b.handleUpdate(context.Background(), upload(5, "animals.csv"))
	b.handleUpdate(context.Background(), upload(1, "animals.txt"))
	b.handleUpdate(context.Background(), upload(1, "Animals.CSV"))

	sent := api.Sent()
	require.Len(t, sent, 3)
	assert.Contains(t, sent[0], "Only administrators")
	assert.Contains(t, sent[1], ".xlsx or .csv")
	assert.Contains(t, sent[2], "Words processed: 2")

	assert.Equal(t, ".csv", importer.ext)
	assert.Equal(t, models.Source{Type: models.SourceTypeWordbook, ID: "Animals"}, importer.config.Source)
	assert.Equal(t, "en", importer.config.Language)
	assert.Contains(t, importer.content, "cat,кошка")
}

func TestAdminCommands(t *testing.T) {
	api := newMockAPI()
	b := newTestBot(api, &MockReview{}, nil)

	b.handleUpdate(context.Background(), command(42, 5, "/template"))
	b.handleUpdate(context.Background(), command(42, 1, "/template"))

	sent := api.Sent()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0], "only available for administrators")
	assert.Equal(t, "document", sent[1])
}

func TestSendReminders(t *testing.T) {
	api := newMockAPI()
	b := newTestBot(api, &MockReview{}, nil)

	require.NoError(t, b.SendReminders(42, 1))
	require.NoError(t, b.SendReminders(42, 3))
	assert.Equal(t, []string{
		"⏰ You have 1 word to review! Send /review to start.",
		"⏰ You have 3 words to review! Send /review to start.",
	}, api.Sent())
}

func TestRunStopsOnCancel(t *testing.T) {
	api := newMockAPI()
	b := newTestBot(api, &MockReview{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	api.updates <- command(42, 5, "/help")
	require.Eventually(t, func() bool { return len(api.Sent()) == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.True(t, api.stopped)
}
