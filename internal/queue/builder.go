package queue

import (
	"strings"
	"time"

	"github.com/example/wordreview/pkg/models"
)

// MinReviewBatch is the number of words a batch aims for
const MinReviewBatch = 10

// Request types understood by the builder
const (
	TypeWrongWords = "wrong_words"
	TypeShuffle    = "shuffle"
	TypeRandom     = "random"
	TypeShow       = models.SourceTypeShow
	TypeWordbook   = models.SourceTypeWordbook
)

// Mode selects how a generic challenge is built
type Mode string

const (
	ModeSmart Mode = "smart"
	ModeAll   Mode = "all"
)

// Request describes the batch the learner asked for. Type is one of the
// request types above or empty; ID names the show or wordbook for curated lists.
type Request struct {
	Type string
	ID   string
	Mode Mode
}

// WrongWordSource lists the words currently flagged as struggling
type WrongWordSource interface {
	GetWrongWords() []string
}

// Filter decides whether an entry takes part in a batch
type Filter func(models.VocabularyEntry) bool

// All accepts every entry
func All() Filter {
	return func(models.VocabularyEntry) bool { return true }
}

// BySource accepts entries collected from the given show or wordbook
func BySource(sourceType, id string) Filter {
	return func(v models.VocabularyEntry) bool {
		return v.Source.Type == sourceType && v.Source.ID == id
	}
}

// Builder turns a vocabulary snapshot into a review batch.
// It never modifies the snapshot.
type Builder struct {
	Target int
	Wrong  WrongWordSource
	Now    func() time.Time
}

// NewBuilder creates a builder with the default batch size
func NewBuilder(wrong WrongWordSource) *Builder {
	return &Builder{
		Target: MinReviewBatch,
		Wrong:  wrong,
		Now:    time.Now,
	}
}

type kind int

const (
	kindGeneric kind = iota
	kindWrongWords
	kindCurated
)

func classify(req Request) kind {
	switch strings.ToLower(req.Type) {
	case TypeWrongWords:
		return kindWrongWords
	case TypeShow, TypeWordbook:
		if req.ID != "" {
			return kindCurated
		}
	}
	return kindGeneric
}

// Build selects the entries of snapshot for req. An empty or unmatched
// snapshot gives an empty batch.
func (b *Builder) Build(snapshot []models.VocabularyEntry, req Request) models.ReviewBatch {
	switch classify(req) {
	case kindWrongWords:
		entries := dedupe(snapshot, All())
		return models.ReviewBatch{Mode: models.BatchModeChallenge, Entries: b.wrongWords(entries)}

	case kindCurated:
		entries := dedupe(snapshot, BySource(strings.ToLower(req.Type), req.ID))
		return models.ReviewBatch{Mode: models.BatchModeCuratedList, Entries: entries}
	}

	entries := dedupe(snapshot, All())
	if req.Mode == ModeAll {
		return models.ReviewBatch{Mode: models.BatchModeChallenge, Entries: entries}
	}
	return models.ReviewBatch{Mode: models.BatchModeDueReview, Entries: b.smart(entries)}
}

// CountDue returns how many distinct words of snapshot are due at now
func (b *Builder) CountDue(snapshot []models.VocabularyEntry, now time.Time) int {
	count := 0
	for _, v := range dedupe(snapshot, All()) {
		if v.IsDue(now) {
			count++
		}
	}
	return count
}

func (b *Builder) target() int {
	if b.Target <= 0 {
		return MinReviewBatch
	}
	return b.Target
}

func (b *Builder) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

// wrongWords resolves the tracked words against entries and pads the result
// with other entries that have mistakes
func (b *Builder) wrongWords(entries []models.VocabularyEntry) []models.VocabularyEntry {
	target := b.target()

	var tracked []string
	if b.Wrong != nil {
		tracked = b.Wrong.GetWrongWords()
	}
	if len(tracked) == 0 {
		return withMistakes(entries, nil, target)
	}

	byWord := make(map[string]models.VocabularyEntry, len(entries))
	for _, v := range entries {
		byWord[models.WordKey(v.Word)] = v
	}

	result := make([]models.VocabularyEntry, 0, target)
	included := make(map[string]bool, target)
	for _, word := range tracked {
		if len(result) >= target {
			return result
		}
		key := models.WordKey(word)
		v, ok := byWord[key]
		if !ok || included[key] {
			continue
		}
		result = append(result, v)
		included[key] = true
	}

	padding := withMistakes(entries, included, target-len(result))
	return append(result, padding...)
}

func withMistakes(entries []models.VocabularyEntry, skip map[string]bool, limit int) []models.VocabularyEntry {
	result := make([]models.VocabularyEntry, 0)
	for _, v := range entries {
		if len(result) >= limit {
			break
		}
		if skip[models.WordKey(v.Word)] || !v.HasMistakes() {
			continue
		}
		result = append(result, v)
	}
	return result
}

// smart puts due entries first. Enough due entries fill the batch on their
// own; otherwise everything is returned.
func (b *Builder) smart(entries []models.VocabularyEntry) []models.VocabularyEntry {
	now := b.now()
	due := make([]models.VocabularyEntry, 0, len(entries))
	notDue := make([]models.VocabularyEntry, 0)
	for _, v := range entries {
		if v.IsDue(now) {
			due = append(due, v)
		} else {
			notDue = append(notDue, v)
		}
	}

	if target := b.target(); len(due) >= target {
		return due[:target]
	}
	return append(due, notDue...)
}

// dedupe applies filter and keeps the first entry of every word
func dedupe(snapshot []models.VocabularyEntry, filter Filter) []models.VocabularyEntry {
	seen := make(map[string]bool, len(snapshot))
	result := make([]models.VocabularyEntry, 0, len(snapshot))
	for _, v := range snapshot {
		key := models.WordKey(v.Word)
		if !filter(v) || seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, v)
	}
	return result
}
