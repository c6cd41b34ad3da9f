package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrValidation is returned when a learning record is malformed
var ErrValidation = errors.New("validation failed")

// Difficulty is a coarse label for how hard a word is for the learner
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulty labels
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// LearningRecord tracks the learner's review history and schedule for one word
type LearningRecord struct {
	WordID               string     `json:"wordId"`
	Word                 string     `json:"word"`
	ReviewCount          int        `json:"reviewCount"`
	CorrectCount         int        `json:"correctCount"`
	IncorrectCount       int        `json:"incorrectCount"`
	ConsecutiveCorrect   int        `json:"consecutiveCorrect"`
	ConsecutiveIncorrect int        `json:"consecutiveIncorrect"`
	MasteryLevel         int        `json:"masteryLevel"` // 0-100
	IntervalDays         int        `json:"intervalDays"` // 1-365
	LastReviewed         time.Time  `json:"lastReviewed"`
	NextReviewDate       time.Time  `json:"nextReviewDate"`
	LearningEfficiency   int        `json:"learningEfficiency"` // 0-100
	ConfidenceLevel      int        `json:"confidenceLevel"`    // 0-100
	Difficulty           Difficulty `json:"difficulty"`
}

// NewLearningRecord creates the record for a word encountered for the first time
func NewLearningRecord(wordID, word string) LearningRecord {
	return LearningRecord{
		WordID:       wordID,
		Word:         word,
		IntervalDays: 1,
		Difficulty:   DifficultyMedium,
	}
}

// Validate checks the record before any update is applied to it
func (r LearningRecord) Validate() error {
	if strings.TrimSpace(r.WordID) == "" {
		return fmt.Errorf("%w: word id is required", ErrValidation)
	}
	if strings.TrimSpace(r.Word) == "" {
		return fmt.Errorf("%w: word is required for %s", ErrValidation, r.WordID)
	}
	if r.ReviewCount < 0 || r.CorrectCount < 0 || r.IncorrectCount < 0 ||
		r.ConsecutiveCorrect < 0 || r.ConsecutiveIncorrect < 0 {
		return fmt.Errorf("%w: negative counter on %s", ErrValidation, r.WordID)
	}
	if r.CorrectCount+r.IncorrectCount != r.ReviewCount {
		return fmt.Errorf("%w: counters of %s do not add up (%d+%d != %d)",
			ErrValidation, r.WordID, r.CorrectCount, r.IncorrectCount, r.ReviewCount)
	}
	if !inPercentRange(r.MasteryLevel) || !inPercentRange(r.LearningEfficiency) || !inPercentRange(r.ConfidenceLevel) {
		return fmt.Errorf("%w: score out of range on %s", ErrValidation, r.WordID)
	}
	if r.Difficulty != "" && !r.Difficulty.Valid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrValidation, r.Difficulty)
	}
	return nil
}

// Accuracy returns the share of correct reviews, 0 when never reviewed
func (r LearningRecord) Accuracy() float64 {
	if r.ReviewCount == 0 {
		return 0
	}
	return float64(r.CorrectCount) / float64(r.ReviewCount)
}

func inPercentRange(v int) bool {
	return v >= 0 && v <= 100
}
