package models

import (
	"strings"
	"time"
)

// Source types a vocabulary entry can be collected from
const (
	SourceTypeShow     = "show"
	SourceTypeWordbook = "wordbook"
)

// WordKey is the spelling a word is tracked under across sources
func WordKey(word string) string {
	return strings.TrimSpace(word)
}

// Source identifies where a word was collected (a show or a wordbook)
type Source struct {
	Type string `json:"type" db:"source_type"`
	ID   string `json:"id" db:"source_id"`
}

// VocabularyEntry is one word in the learner's vocabulary as seen by the review engine
type VocabularyEntry struct {
	ID                   int64     `json:"id" db:"id"`
	Word                 string    `json:"word" db:"word"`
	Translation          string    `json:"translation" db:"translation"`
	Phonetic             string    `json:"phonetic" db:"phonetic"`
	Example              string    `json:"example" db:"example"`
	Language             string    `json:"language" db:"language"` // ISO 639-1 code of the word
	Source               Source    `json:"source_show" db:"-"`
	IncorrectCount       int       `json:"incorrect_count" db:"incorrect_count"`
	ConsecutiveIncorrect int       `json:"consecutive_incorrect" db:"consecutive_incorrect"`
	ConsecutiveCorrect   int       `json:"consecutive_correct" db:"consecutive_correct"`
	NextReviewAt         time.Time `json:"next_review_at" db:"next_review_at"` // zero means never scheduled
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// HasMistakes reports whether the word was ever answered wrong or is on a failing streak
func (v VocabularyEntry) HasMistakes() bool {
	return v.IncorrectCount > 0 || v.ConsecutiveIncorrect > 0
}

// IsDue reports whether the entry should be reviewed at now. Entries without a
// scheduled date are always due.
func (v VocabularyEntry) IsDue(now time.Time) bool {
	return v.NextReviewAt.IsZero() || !v.NextReviewAt.After(now)
}
