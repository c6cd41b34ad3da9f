package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/wordreview/pkg/models"
)

// ReviewOptions carries the optional measurements of a single review
type ReviewOptions struct {
	ResponseTime    *time.Duration
	ConfidenceLevel *int
}

// baseIntervals maps mastery thresholds to review intervals in days
var baseIntervals = []struct {
	below int
	days  int
}{
	{25, 1},
	{40, 2},
	{60, 4},
	{80, 7},
	{90, 14},
	{95, 30},
}

// GetBaseInterval returns the review interval in days for a mastery level
// before any adjustment is applied.
func (e *Engine) GetBaseInterval(mastery int) int {
	for _, step := range baseIntervals {
		if mastery < step.below {
			return step.days
		}
	}
	return 60
}

// CalculateNextInterval returns the number of days until rec is due again,
// clamped to [MinInterval, MaxInterval].
func (e *Engine) CalculateNextInterval(rec models.LearningRecord, wasCorrect bool, responseTime *time.Duration) int {
	base := float64(e.GetBaseInterval(rec.MasteryLevel))

	multiplier := 1 +
		consecutiveAdjustment(rec, wasCorrect) +
		efficiencyAdjustment(rec.LearningEfficiency) +
		e.timeAdjustment(responseTime) +
		stabilityAdjustment(rec)

	return clampRound(base*multiplier, float64(e.MinInterval), float64(e.MaxInterval))
}

func consecutiveAdjustment(rec models.LearningRecord, wasCorrect bool) float64 {
	if wasCorrect {
		switch c := rec.ConsecutiveCorrect; {
		case c >= 5:
			return 0.5
		case c >= 3:
			return 0.3
		case c >= 2:
			return 0.2
		case c >= 1:
			return 0.1
		}
		return 0
	}
	switch i := rec.ConsecutiveIncorrect; {
	case i >= 3:
		return -0.5
	case i >= 2:
		return -0.3
	case i >= 1:
		return -0.2
	}
	return 0
}

func efficiencyAdjustment(efficiency int) float64 {
	switch {
	case efficiency >= 80:
		return 0.2
	case efficiency >= 60:
		return 0.1
	case efficiency >= 40:
		return 0
	case efficiency >= 20:
		return -0.1
	default:
		return -0.2
	}
}

func (e *Engine) timeAdjustment(responseTime *time.Duration) float64 {
	ratio, ok := e.responseRatio(responseTime)
	if !ok {
		return 0
	}
	switch {
	case ratio <= 0.5:
		return 0.1
	case ratio <= 1.0:
		return 0
	case ratio <= 1.5:
		return -0.1
	default:
		return -0.2
	}
}

// stabilityAdjustment favors words whose accuracy is far from a coin flip.
// It only applies once the word has at least five reviews.
func stabilityAdjustment(rec models.LearningRecord) float64 {
	if rec.ReviewCount < 5 {
		return 0
	}
	stability := math.Abs(rec.Accuracy()-0.5) * 2
	switch {
	case stability >= 0.8:
		return 0.1
	case stability >= 0.6:
		return 0
	default:
		return -0.1
	}
}

// UpdateLearningRecord applies one review to rec and returns the updated copy.
// rec itself is never modified.
//
// Efficiency is scored against the record as it was before the review, while
// mastery and the interval are computed from the updated counters.
func (e *Engine) UpdateLearningRecord(rec models.LearningRecord, wasCorrect bool, reviewDate time.Time, opts ReviewOptions) models.LearningRecord {
	prior := rec
	if opts.ConfidenceLevel != nil {
		prior.ConfidenceLevel = clampRound(float64(*opts.ConfidenceLevel), 0, 100)
	}

	next := prior
	next.ReviewCount++
	if wasCorrect {
		next.CorrectCount++
		next.ConsecutiveCorrect++
		next.ConsecutiveIncorrect = 0
	} else {
		next.IncorrectCount++
		next.ConsecutiveIncorrect++
		next.ConsecutiveCorrect = 0
	}

	next.LearningEfficiency = e.CalculateLearningEfficiency(prior, wasCorrect, opts.ResponseTime)
	next.MasteryLevel = e.CalculateMasteryLevel(next)
	next.IntervalDays = e.CalculateNextInterval(next, wasCorrect, opts.ResponseTime)
	next.LastReviewed = reviewDate
	next.NextReviewDate = reviewDate.AddDate(0, 0, next.IntervalDays)
	if next.Difficulty == "" {
		next.Difficulty = models.DifficultyMedium
	}

	return next
}
