package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/wordreview/internal/database"
	"github.com/example/wordreview/internal/logger"
	"github.com/example/wordreview/internal/queue"
	"github.com/example/wordreview/internal/session"
	"github.com/example/wordreview/internal/spaced_repetition"
	"github.com/example/wordreview/internal/syncqueue"
	"github.com/example/wordreview/pkg/models"
)

// ErrNoRecord is returned when a word has never been reviewed
var ErrNoRecord = errors.New("no learning record")

// VocabularyProvider supplies the learner's vocabulary
type VocabularyProvider interface {
	Snapshot(ctx context.Context) ([]models.VocabularyEntry, error)
	GetByID(ctx context.Context, id int64) (*models.VocabularyEntry, error)
	UpdateProgress(ctx context.Context, entry models.VocabularyEntry) error
}

// WrongWords is the part of the wrong-word tracker the review flow drives
type WrongWords interface {
	queue.WrongWordSource
	AddWrongWord(word string, data models.VocabularyEntry) bool
	UpdateWrongWord(word string, wasCorrect bool) bool
	GetStatistics() models.WrongWordStatistics
}

// Loader reads persisted documents
type Loader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Writer persists documents in the background
type Writer interface {
	Schedule(key string, value []byte) error
}

// AnswerOptions carries what the UI measured for one answer
type AnswerOptions struct {
	ResponseTime    *time.Duration
	ConfidenceLevel *int
}

// Outcome is the result of one answer
type Outcome struct {
	Record          models.LearningRecord
	ExperienceDelta int
	// Accuracy is the running session accuracy in percent
	Accuracy int
}

// Overview summarizes the learner's progress
type Overview struct {
	TotalWords int
	Due        int
	Learned    int
	Mastered   int
	WrongWords models.WrongWordStatistics
}

// Service drives review sessions: it builds batches and applies answers to
// learning records, the wrong-word set and the session stats.
type Service struct {
	engine  *spaced_repetition.Engine
	builder *queue.Builder
	tracker WrongWords
	vocab   VocabularyProvider
	docs    Loader
	writer  Writer
	sync    syncqueue.Queue
	logger  *logger.Logger
	now     func() time.Time

	mu      sync.RWMutex
	records map[string]models.LearningRecord // by models.WordKey
	wordIDs map[string]string                // vocabulary id -> word key
}

// NewService wires a review service
func NewService(
	engine *spaced_repetition.Engine,
	tracker WrongWords,
	vocab VocabularyProvider,
	docs Loader,
	writer Writer,
	syncQueue syncqueue.Queue,
	log *logger.Logger,
) *Service {
	if syncQueue == nil {
		syncQueue = syncqueue.Discard{}
	}
	s := &Service{
		engine:  engine,
		builder: queue.NewBuilder(tracker),
		tracker: tracker,
		vocab:   vocab,
		docs:    docs,
		writer:  writer,
		sync:    syncQueue,
		logger:  log.With("component", "review_service"),
		now:     time.Now,
		records: make(map[string]models.LearningRecord),
		wordIDs: make(map[string]string),
	}
	s.builder.Now = func() time.Time { return s.now() }
	return s
}

// SetBatchSize changes the number of words a batch aims for
func (s *Service) SetBatchSize(n int) {
	if n > 0 {
		s.builder.Target = n
	}
}

// Load reads the persisted learning records. A missing document means no
// word has been reviewed yet.
func (s *Service) Load(ctx context.Context) error {
	raw, err := s.docs.Get(ctx, database.KeyLearningRecords)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load learning records: %w", err)
	}

	var list []models.LearningRecord
	if err := json.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("decode learning records: %w", err)
	}

	s.mu.Lock()
	s.records = make(map[string]models.LearningRecord, len(list))
	s.wordIDs = make(map[string]string, len(list))
	for _, rec := range list {
		if err := rec.Validate(); err != nil {
			s.logger.Warn("skipping invalid learning record", "word_id", rec.WordID, "error", err)
			continue
		}
		key := models.WordKey(rec.Word)
		if prev, ok := s.records[key]; ok && prev.ReviewCount >= rec.ReviewCount {
			s.logger.Warn("skipping duplicate learning record", "word", key, "word_id", rec.WordID)
			continue
		}
		s.records[key] = rec
		s.wordIDs[rec.WordID] = key
	}
	count := len(s.records)
	s.mu.Unlock()

	snapshot, err := s.vocab.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("read vocabulary: %w", err)
	}
	s.index(snapshot)
	s.logger.Info("learning records loaded", "count", count)
	return nil
}

// BuildBatch selects the words for a new session
func (s *Service) BuildBatch(ctx context.Context, req queue.Request) (models.ReviewBatch, error) {
	snapshot, err := s.vocab.Snapshot(ctx)
	if err != nil {
		return models.ReviewBatch{}, fmt.Errorf("read vocabulary: %w", err)
	}
	s.index(snapshot)
	return s.builder.Build(snapshot, req), nil
}

// index remembers which word every vocabulary id spells
func (s *Service) index(snapshot []models.VocabularyEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range snapshot {
		s.wordIDs[strconv.FormatInt(v.ID, 10)] = models.WordKey(v.Word)
	}
}

// DueCount returns how many words are due now
func (s *Service) DueCount(ctx context.Context) (int, error) {
	snapshot, err := s.vocab.Snapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("read vocabulary: %w", err)
	}
	return s.builder.CountDue(snapshot, s.now()), nil
}

// StartSession opens a new session with a random id
func (s *Service) StartSession() *session.Session {
	return session.New(uuid.NewString())
}

// OnCorrect records that the learner remembered the word
func (s *Service) OnCorrect(ctx context.Context, sess *session.Session, wordID string, opts AnswerOptions) (Outcome, error) {
	return s.answer(ctx, sess, wordID, true, opts)
}

// OnIncorrect records that the learner forgot the word
func (s *Service) OnIncorrect(ctx context.Context, sess *session.Session, wordID string, opts AnswerOptions) (Outcome, error) {
	return s.answer(ctx, sess, wordID, false, opts)
}

// OnSkip leaves the word untouched. It earns no experience and is not part
// of the session stats.
func (s *Service) OnSkip(_ context.Context, _ *session.Session, wordID string) (Outcome, error) {
	if _, err := parseWordID(wordID); err != nil {
		return Outcome{}, err
	}
	rec, _ := s.Record(wordID)
	return Outcome{Record: rec}, nil
}

func (s *Service) answer(ctx context.Context, sess *session.Session, wordID string, correct bool, opts AnswerOptions) (Outcome, error) {
	id, err := parseWordID(wordID)
	if err != nil {
		return Outcome{}, err
	}
	entry, err := s.vocab.GetByID(ctx, id)
	if err != nil {
		return Outcome{}, fmt.Errorf("get word %s: %w", wordID, err)
	}

	now := s.now()
	key := models.WordKey(entry.Word)

	s.mu.Lock()
	s.wordIDs[strconv.FormatInt(id, 10)] = key
	rec, ok := s.records[key]
	if !ok {
		rec = models.NewLearningRecord(strconv.FormatInt(id, 10), key)
	}
	if err := rec.Validate(); err != nil {
		s.mu.Unlock()
		return Outcome{}, err
	}
	updated := s.engine.UpdateLearningRecord(rec, correct, now, spaced_repetition.ReviewOptions{
		ResponseTime:    opts.ResponseTime,
		ConfidenceLevel: opts.ConfidenceLevel,
	})
	s.records[key] = updated
	s.persistLocked()
	s.mu.Unlock()

	progress := applyAnswer(*entry, correct, updated.NextReviewDate)
	if err := s.vocab.UpdateProgress(ctx, progress); err != nil {
		s.logger.Warn("failed to store vocabulary progress", "word_id", wordID, "error", err)
	}

	if !s.tracker.UpdateWrongWord(progress.Word, correct) && !correct {
		s.tracker.AddWrongWord(progress.Word, progress)
	}

	outcome := Outcome{Record: updated, ExperienceDelta: session.ForgottenExperience}
	if correct {
		outcome.ExperienceDelta = session.RememberedExperience
	}
	if sess != nil {
		outcome.Accuracy = sess.UpdateStats(progress.Word, progress.Translation, correct)
	}

	if err := s.sync.Enqueue(syncqueue.Item{
		Word:               progress.Word,
		Progress:           updated,
		IsSuccessfulReview: correct,
		Timestamp:          now,
	}); err != nil {
		s.logger.Warn("failed to enqueue sync item", "word", progress.Word, "error", err)
	}

	s.logger.Debug("answer recorded",
		"word", progress.Word,
		"correct", correct,
		"mastery", updated.MasteryLevel,
		"interval_days", updated.IntervalDays)
	return outcome, nil
}

// applyAnswer returns entry with its review counters advanced by one answer
func applyAnswer(entry models.VocabularyEntry, correct bool, next time.Time) models.VocabularyEntry {
	if correct {
		entry.ConsecutiveCorrect++
		entry.ConsecutiveIncorrect = 0
	} else {
		entry.IncorrectCount++
		entry.ConsecutiveIncorrect++
		entry.ConsecutiveCorrect = 0
	}
	entry.NextReviewAt = next
	return entry
}

// persistLocked schedules a write of every record, ordered by word
func (s *Service) persistLocked() {
	list := make([]models.LearningRecord, 0, len(s.records))
	for _, rec := range s.records {
		list = append(list, rec)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Word < list[j].Word })

	raw, err := json.Marshal(list)
	if err != nil {
		s.logger.Error("failed to encode learning records", "error", err)
		return
	}
	if err := s.writer.Schedule(database.KeyLearningRecords, raw); err != nil {
		s.logger.Warn("failed to schedule learning records write", "error", err)
	}
}

// Record returns the learning record of a word
func (s *Service) Record(wordID string) (models.LearningRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.wordIDs[strings.TrimSpace(wordID)]
	if !ok {
		return models.LearningRecord{}, false
	}
	rec, ok := s.records[key]
	return rec, ok
}

// FindRecord returns the learning record of a word by its spelling
func (s *Service) FindRecord(word string) (models.LearningRecord, bool) {
	key := models.WordKey(word)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[key]; ok {
		return rec, true
	}

	// case-insensitive fallback, the alphabetically first spelling wins
	var (
		found    models.LearningRecord
		foundKey string
	)
	for k, rec := range s.records {
		if strings.EqualFold(k, key) && (foundKey == "" || k < foundKey) {
			found, foundKey = rec, k
		}
	}
	return found, foundKey != ""
}

// Curve predicts the retention of a word for the next days
func (s *Service) Curve(wordID string, days int) ([]int, error) {
	rec, ok := s.Record(wordID)
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNoRecord, wordID)
	}
	return s.engine.PredictForgettingCurve(rec, days), nil
}

// Overview counts words, due words, reviewed and mastered words
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	snapshot, err := s.vocab.Snapshot(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("read vocabulary: %w", err)
	}

	s.index(snapshot)
	words := make(map[string]struct{}, len(snapshot))
	for _, v := range snapshot {
		words[models.WordKey(v.Word)] = struct{}{}
	}

	ov := Overview{
		TotalWords: len(words),
		Due:        s.builder.CountDue(snapshot, s.now()),
		WrongWords: s.tracker.GetStatistics(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	ov.Learned = len(s.records)
	for _, rec := range s.records {
		if s.engine.IsWordMastered(rec) {
			ov.Mastered++
		}
	}
	return ov, nil
}

func parseWordID(wordID string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(wordID), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid word id %q", models.ErrValidation, wordID)
	}
	return id, nil
}
