package spaced_repetition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/example/wordreview/pkg/models"
)

func TestCalculateMasteryLevel(t *testing.T) {
	t.Parallel()
	engine := NewEngine()

	testCases := []struct {
		name     string
		rec      models.LearningRecord
		expected int
	}{
		{
			name:     "fresh record",
			rec:      models.LearningRecord{},
			expected: 0,
		},
		{
			name: "half right with short correct streak",
			rec: models.LearningRecord{
				ReviewCount: 2, CorrectCount: 1, IncorrectCount: 1,
				ConsecutiveCorrect: 1,
			},
			expected: 55, // 50 + 5
		},
		{
			name: "incorrect streak penalty",
			rec: models.LearningRecord{
				ReviewCount: 4, CorrectCount: 2, IncorrectCount: 2,
				ConsecutiveIncorrect: 2,
			},
			expected: 45, // 50 - 10 + 5 (frequency)
		},
		{
			name: "efficiency and confidence bonuses are capped",
			rec: models.LearningRecord{
				ReviewCount: 12, CorrectCount: 6, IncorrectCount: 6,
				LearningEfficiency: 100, ConfidenceLevel: 100,
			},
			expected: 88, // 50 + 15 + 20 + 3
		},
		{
			name: "long history gets the smallest frequency bonus",
			rec: models.LearningRecord{
				ReviewCount: 40, CorrectCount: 20, IncorrectCount: 20,
			},
			expected: 51,
		},
		{
			name: "clamped at zero",
			rec: models.LearningRecord{
				ReviewCount: 3, IncorrectCount: 3, ConsecutiveIncorrect: 3,
			},
			expected: 0,
		},
		{
			name: "clamped at one hundred",
			rec: models.LearningRecord{
				ReviewCount: 8, CorrectCount: 8, ConsecutiveCorrect: 8,
				LearningEfficiency: 90, ConfidenceLevel: 90,
			},
			expected: 100,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, engine.CalculateMasteryLevel(tc.rec))
		})
	}
}

func TestCalculateMasteryLevelStaysInRange(t *testing.T) {
	t.Parallel()
	engine := NewEngine()

	for reviews := 0; reviews <= 25; reviews++ {
		for correct := 0; correct <= reviews; correct++ {
			for _, score := range []int{0, 37, 100} {
				rec := models.LearningRecord{
					ReviewCount:          reviews,
					CorrectCount:         correct,
					IncorrectCount:       reviews - correct,
					ConsecutiveCorrect:   correct % 7,
					ConsecutiveIncorrect: (reviews - correct) % 4,
					LearningEfficiency:   score,
					ConfidenceLevel:      100 - score,
				}
				got := engine.CalculateMasteryLevel(rec)
				assert.GreaterOrEqual(t, got, 0)
				assert.LessOrEqual(t, got, 100)
			}
		}
	}
}

func TestCalculateLearningEfficiency(t *testing.T) {
	t.Parallel()
	engine := NewEngine()
	fast := 2 * time.Second
	slow := 9 * time.Second

	testCases := []struct {
		name         string
		rec          models.LearningRecord
		wasCorrect   bool
		responseTime *time.Duration
		expected     int
	}{
		{
			name:         "first incorrect answer, slow",
			rec:          models.LearningRecord{},
			wasCorrect:   false,
			responseTime: &slow,
			expected:     6, // 0.4 * 0.15
		},
		{
			name:         "fast correct answer with full confidence",
			rec:          models.LearningRecord{ConfidenceLevel: 100},
			wasCorrect:   true,
			responseTime: &fast,
			expected:     80, // 0.4 + 0.05 + 0.15 + 0.2
		},
		{
			name: "slow answer on a long streak",
			rec: models.LearningRecord{
				ReviewCount: 9, CorrectCount: 9, ConsecutiveCorrect: 9,
			},
			wasCorrect:   true,
			responseTime: &slow,
			expected:     71, // 0.4 + 0.25 + 0.06
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := engine.CalculateLearningEfficiency(tc.rec, tc.wasCorrect, tc.responseTime)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestSpeedScoreTiers(t *testing.T) {
	t.Parallel()
	engine := NewEngine()

	durations := map[time.Duration]float64{
		2500 * time.Millisecond: 1.0,
		5000 * time.Millisecond: 0.8,
		7500 * time.Millisecond: 0.6,
		7501 * time.Millisecond: 0.4,
	}
	for d, expected := range durations {
		d := d
		assert.InDelta(t, expected, engine.speedScore(&d), 1e-9, d.String())
	}
	assert.InDelta(t, 0.5, engine.speedScore(nil), 1e-9)
}
