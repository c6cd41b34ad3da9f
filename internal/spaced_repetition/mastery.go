package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/wordreview/pkg/models"
)

// CalculateMasteryLevel scores how well the learner retains a word, 0-100.
//
// The score is the record's accuracy plus a streak bonus or penalty, capped
// bonuses for learning efficiency and confidence, and a small adjustment for
// how often the word has been reviewed.
func (e *Engine) CalculateMasteryLevel(rec models.LearningRecord) int {
	score := rec.Accuracy() * 100
	score += streakBonus(rec)
	score += math.Min(float64(rec.LearningEfficiency)*0.15, 15)
	score += math.Min(float64(rec.ConfidenceLevel)*0.2, 20)
	score += frequencyBonus(rec.ReviewCount)
	return clampRound(score, 0, 100)
}

// streakBonus rewards correct streaks and penalizes incorrect ones.
// The correct streak is checked first.
func streakBonus(rec models.LearningRecord) float64 {
	switch c := rec.ConsecutiveCorrect; {
	case c >= 5:
		return 20
	case c >= 3:
		return 15
	case c >= 2:
		return 10
	case c == 1:
		return 5
	}
	switch i := rec.ConsecutiveIncorrect; {
	case i >= 3:
		return -15
	case i >= 2:
		return -10
	case i >= 1:
		return -5
	}
	return 0
}

func frequencyBonus(reviews int) float64 {
	switch {
	case reviews <= 3:
		return 0
	case reviews <= 10:
		return 5
	case reviews <= 20:
		return 3
	default:
		return 1
	}
}

// CalculateLearningEfficiency blends accuracy, consistency, speed and confidence
// into a 0-100 score for the review that is about to be applied to rec.
// responseTime may be nil when the UI did not measure it.
func (e *Engine) CalculateLearningEfficiency(rec models.LearningRecord, wasCorrect bool, responseTime *time.Duration) int {
	correct := 0
	if wasCorrect {
		correct = 1
	}

	accuracy := float64(rec.CorrectCount+correct) / float64(rec.ReviewCount+1)
	consistency := float64(minInt(rec.ConsecutiveCorrect+correct, 5)) / 5
	speed := e.speedScore(responseTime)
	confidence := float64(rec.ConfidenceLevel) / 100

	efficiency := accuracy*0.4 + consistency*0.25 + speed*0.15 + confidence*0.2
	return clampRound(efficiency*100, 0, 100)
}

func (e *Engine) speedScore(responseTime *time.Duration) float64 {
	ratio, ok := e.responseRatio(responseTime)
	if !ok {
		return 0.5
	}
	switch {
	case ratio <= 0.5:
		return 1.0
	case ratio <= 1.0:
		return 0.8
	case ratio <= 1.5:
		return 0.6
	default:
		return 0.4
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
