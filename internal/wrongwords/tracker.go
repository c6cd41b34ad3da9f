package wrongwords

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/wordreview/internal/database"
	"github.com/example/wordreview/internal/events"
	"github.com/example/wordreview/internal/logger"
	"github.com/example/wordreview/pkg/models"
)

// DefaultRemovalThreshold is how many correct answers in a row take a word
// out of the wrong-word set
const DefaultRemovalThreshold = 3

// Loader reads the persisted collection
type Loader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Writer persists the collection in the background
type Writer interface {
	Schedule(key string, value []byte) error
	Flush(ctx context.Context) error
}

// Options tunes a Tracker
type Options struct {
	RemovalThreshold int
}

// Tracker keeps the set of words the learner is struggling with.
// Every mutation runs under one mutex and then schedules a write of the whole
// collection and emits an event; neither is awaited.
type Tracker struct {
	mu        sync.Mutex
	words     []string
	entries   map[string]*models.WrongWordEntry
	stats     models.WrongWordStatistics
	threshold int

	loader  Loader
	writer  Writer
	emitter events.Emitter
	logger  *logger.Logger
	now     func() time.Time
}

// document is the persisted shape of the collection
type document struct {
	Words      []string                          `json:"words"`
	Entries    map[string]*models.WrongWordEntry `json:"entries"`
	Statistics models.WrongWordStatistics        `json:"statistics"`
}

// New creates an empty tracker. Call Initialize before use to load the
// persisted collection.
func New(loader Loader, writer Writer, emitter events.Emitter, log *logger.Logger, opts Options) *Tracker {
	if opts.RemovalThreshold <= 0 {
		opts.RemovalThreshold = DefaultRemovalThreshold
	}
	if emitter == nil {
		emitter = events.Nop{}
	}
	return &Tracker{
		entries:   make(map[string]*models.WrongWordEntry),
		threshold: opts.RemovalThreshold,
		loader:    loader,
		writer:    writer,
		emitter:   emitter,
		logger:    log.With("component", "wrong_word_tracker"),
		now:       time.Now,
	}
}

// Initialize replaces the in-memory state with the persisted collection.
// A missing document leaves the tracker empty.
func (t *Tracker) Initialize(ctx context.Context) error {
	raw, err := t.loader.Get(ctx, database.KeyWrongWords)
	if errors.Is(err, database.ErrNotFound) {
		t.logger.Info("no persisted wrong words, starting empty")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load wrong words: %w", err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode wrong words: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.words = t.words[:0]
	t.entries = make(map[string]*models.WrongWordEntry, len(doc.Words))
	for _, word := range doc.Words {
		entry, ok := doc.Entries[word]
		if !ok || entry == nil {
			entry = &models.WrongWordEntry{Word: word}
		}
		if _, dup := t.entries[word]; dup {
			continue
		}
		t.words = append(t.words, word)
		t.entries[word] = entry
	}
	t.stats = doc.Statistics
	t.stats.TotalWrongWords = len(t.words)

	t.logger.Info("wrong words loaded", "count", len(t.words))
	return nil
}

// Bootstrap adds every entry of the vocabulary that qualifies as a wrong word
// and is not tracked yet. It returns the number of words added.
func (t *Tracker) Bootstrap(vocabulary []models.VocabularyEntry) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	var added []*models.WrongWordEntry
	for _, v := range vocabulary {
		word := normalize(v.Word)
		if word == "" || !t.IsWrongWord(v) {
			continue
		}
		if _, ok := t.entries[word]; ok {
			continue
		}
		added = append(added, t.insertLocked(word, v))
	}
	if len(added) == 0 {
		return 0
	}

	t.persistLocked()
	for _, entry := range added {
		t.emitLocked(events.WordAdded, entry.Word, "", entry)
	}
	t.emitLocked(events.CollectionChanged, "", "bootstrap", nil)
	t.logger.Info("wrong words bootstrapped", "added", len(added))
	return len(added)
}

// Dispose waits for the pending collection write
func (t *Tracker) Dispose(ctx context.Context) error {
	return t.writer.Flush(ctx)
}

// IsWrongWord reports whether v qualifies for the wrong-word set
func (t *Tracker) IsWrongWord(v models.VocabularyEntry) bool {
	if v.ConsecutiveCorrect >= t.threshold {
		return false
	}
	return v.HasMistakes()
}

// AddWrongWord starts tracking word with the counters of data.
// It returns false when word is already tracked.
func (t *Tracker) AddWrongWord(word string, data models.VocabularyEntry) bool {
	word = normalize(word)
	if word == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[word]; ok {
		return false
	}
	entry := t.insertLocked(word, data)
	t.persistLocked()
	t.emitLocked(events.WordAdded, word, "", entry)
	t.emitLocked(events.CollectionChanged, word, "added", nil)
	return true
}

// UpdateWrongWord applies one answer to a tracked word. A word answered
// correctly RemovalThreshold times in a row is removed. It returns false
// when word is not tracked.
func (t *Tracker) UpdateWrongWord(word string, wasCorrect bool) bool {
	word = normalize(word)

	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[word]
	if !ok {
		return false
	}

	now := t.now()
	entry.LastReviewed = now
	entry.ReviewCount++
	if wasCorrect {
		entry.ConsecutiveCorrect++
		entry.ConsecutiveIncorrect = 0
		if entry.ConsecutiveCorrect >= t.threshold {
			t.removeLocked(word, "mastered")
			return true
		}
	} else {
		entry.IncorrectCount++
		entry.ConsecutiveIncorrect++
		entry.ConsecutiveCorrect = 0
	}
	t.stats.LastUpdated = now

	t.persistLocked()
	t.emitLocked(events.WordUpdated, word, "", entry)
	return true
}

// RemoveWrongWord stops tracking word. It returns false when word is not tracked.
func (t *Tracker) RemoveWrongWord(word, reason string) bool {
	word = normalize(word)

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[word]; !ok {
		return false
	}
	t.removeLocked(word, reason)
	return true
}

// GetWrongWords returns the tracked words in the order they were added
func (t *Tracker) GetWrongWords() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.words...)
}

// HasWrongWord reports whether word is tracked
func (t *Tracker) HasWrongWord(word string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[normalize(word)]
	return ok
}

// GetWrongWordInfo returns a copy of the entry for word
func (t *Tracker) GetWrongWordInfo(word string) (models.WrongWordEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.entries[normalize(word)]
	if !ok {
		return models.WrongWordEntry{}, false
	}
	return *entry, true
}

// GetStatistics returns the collection statistics
func (t *Tracker) GetStatistics() models.WrongWordStatistics {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.stats
	stats.TotalWrongWords = len(t.words)
	return stats
}

func (t *Tracker) insertLocked(word string, data models.VocabularyEntry) *models.WrongWordEntry {
	now := t.now()
	entry := &models.WrongWordEntry{
		Word:                 word,
		IncorrectCount:       data.IncorrectCount,
		ConsecutiveIncorrect: data.ConsecutiveIncorrect,
		ConsecutiveCorrect:   data.ConsecutiveCorrect,
		AddedAt:              now,
		LastReviewed:         now,
	}
	t.words = append(t.words, word)
	t.entries[word] = entry
	t.stats.RecentlyAdded++
	t.stats.TotalWrongWords = len(t.words)
	t.stats.LastUpdated = now
	return entry
}

func (t *Tracker) removeLocked(word, reason string) {
	delete(t.entries, word)
	for i, w := range t.words {
		if w == word {
			t.words = append(t.words[:i], t.words[i+1:]...)
			break
		}
	}
	t.stats.RecentlyRemoved++
	t.stats.TotalWrongWords = len(t.words)
	t.stats.LastUpdated = t.now()

	t.persistLocked()
	t.emitLocked(events.WordRemoved, word, reason, nil)
	t.emitLocked(events.CollectionChanged, word, "removed", nil)
	t.logger.Debug("wrong word removed", "word", word, "reason", reason)
}

// persistLocked hands a snapshot of the collection to the writer.
// Write failures surface through the writer, never here.
func (t *Tracker) persistLocked() {
	raw, err := json.Marshal(document{
		Words:      t.words,
		Entries:    t.entries,
		Statistics: t.stats,
	})
	if err != nil {
		t.logger.Error("failed to encode wrong words", "error", err)
		return
	}
	if err := t.writer.Schedule(database.KeyWrongWords, raw); err != nil {
		t.logger.Warn("failed to schedule wrong words write", "error", err)
	}
}

func (t *Tracker) emitLocked(eventType events.Type, word, reason string, entry *models.WrongWordEntry) {
	event := events.NewEvent(eventType, word)
	event.Reason = reason
	event.Total = len(t.words)
	if entry != nil {
		cp := *entry
		event.Entry = &cp
	}
	t.emitter.Emit(event)
}

func normalize(word string) string {
	return models.WordKey(word)
}
