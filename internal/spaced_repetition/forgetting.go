package spaced_repetition

import (
	"math"

	"github.com/example/wordreview/pkg/models"
)

// retentionTable maps mastery thresholds to the expected share of the word
// still remembered right after a review. Keys are ascending.
var retentionTable = []struct {
	mastery int
	rate    float64
}{
	{0, 0.05},
	{10, 0.15},
	{25, 0.35},
	{40, 0.50},
	{60, 0.65},
	{75, 0.80},
	{85, 0.88},
	{95, 0.95},
	{100, 0.98},
}

// GetRetentionRate returns the rate of the highest table key not above mastery
func (e *Engine) GetRetentionRate(mastery int) float64 {
	rate := retentionTable[0].rate
	for _, row := range retentionTable {
		if row.mastery > mastery {
			break
		}
		rate = row.rate
	}
	return rate
}

// GetForgettingRate returns the decay constant (in days) of the curve
func (e *Engine) GetForgettingRate(mastery, efficiency int) float64 {
	base := math.Max(1, 30-float64(mastery)*0.2)
	adjustment := float64(efficiency-50) / 100 * 0.3
	return base * (1 + adjustment)
}

// PredictForgettingCurve returns the predicted retention in percent for each
// of the next days after the last review. The result is only meant for charts.
func (e *Engine) PredictForgettingCurve(rec models.LearningRecord, days int) []int {
	if days <= 0 {
		return []int{}
	}

	retention := e.GetRetentionRate(rec.MasteryLevel)
	forgetting := e.GetForgettingRate(rec.MasteryLevel, rec.LearningEfficiency)
	efficiencyFactor := float64(rec.LearningEfficiency) / 100

	curve := make([]int, 0, days)
	for day := 1; day <= days; day++ {
		value := retention * (0.8 + efficiencyFactor*0.4) * math.Exp(-float64(day)/forgetting) * 100
		curve = append(curve, clampRound(value, 0, 100))
	}
	return curve
}
