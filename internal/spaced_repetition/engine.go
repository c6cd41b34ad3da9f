package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/wordreview/pkg/models"
)

// Engine computes mastery, efficiency, review intervals and forgetting curves
// for learning records. All methods are pure and safe for concurrent use.
type Engine struct {
	// Shortest and longest review interval in days
	MinInterval int
	MaxInterval int
	// Expected answer time, used to score response speed
	ResponseBaseline time.Duration
	// Mastery and interval needed for a word to count as mastered
	MasteredLevel    int
	MasteredInterval int
}

// NewEngine creates an Engine with the default settings
func NewEngine() *Engine {
	return &Engine{
		MinInterval:      1,
		MaxInterval:      365,
		ResponseBaseline: 5000 * time.Millisecond,
		MasteredLevel:    90,
		MasteredInterval: 30,
	}
}

// IsWordMastered determines if a word is considered "mastered"
func (e *Engine) IsWordMastered(rec models.LearningRecord) bool {
	return rec.MasteryLevel >= e.MasteredLevel && rec.IntervalDays >= e.MasteredInterval
}

// DifficultyFor maps a mastery level onto a difficulty label
func DifficultyFor(mastery int) models.Difficulty {
	switch {
	case mastery >= 70:
		return models.DifficultyEasy
	case mastery >= 40:
		return models.DifficultyMedium
	default:
		return models.DifficultyHard
	}
}

// responseRatio returns elapsed/baseline; ok is false when no time was given
func (e *Engine) responseRatio(responseTime *time.Duration) (float64, bool) {
	if responseTime == nil || e.ResponseBaseline <= 0 {
		return 0, false
	}
	return float64(*responseTime) / float64(e.ResponseBaseline), true
}

func clampRound(v, lo, hi float64) int {
	return int(math.Round(math.Min(hi, math.Max(lo, v))))
}
