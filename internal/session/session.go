package session

import (
	"math"
	"sync"
	"time"

	"github.com/example/wordreview/pkg/models"
)

// Experience granted per answer
const (
	RememberedExperience = 2
	ForgottenExperience  = 1
)

// Session accumulates the answers of one review session.
// Answers are recorded in the same call that reports them, so the final
// stats are always complete.
type Session struct {
	mu        sync.Mutex
	id        string
	startedAt time.Time
	actions   []models.SessionAction
}

// New starts an empty session
func New(id string) *Session {
	return &Session{
		id:        id,
		startedAt: time.Now(),
		actions:   make([]models.SessionAction, 0),
	}
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// UpdateStats records one answer and returns the running accuracy in percent
func (s *Session) UpdateStats(word, translation string, isCorrect bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.actions = append(s.actions, models.SessionAction{
		Word:        word,
		Remembered:  isCorrect,
		Translation: translation,
	})

	remembered := 0
	for _, a := range s.actions {
		if a.Remembered {
			remembered++
		}
	}
	return percent(remembered, len(s.actions))
}

// CalculateFinalStats derives the session totals from the recorded answers.
// Calling it again without new answers returns the same stats.
func (s *Session) CalculateFinalStats() models.SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := models.SessionStats{
		SessionID: s.id,
		Total:     len(s.actions),
		StartedAt: s.startedAt,
	}
	for _, a := range s.actions {
		if a.Remembered {
			stats.Remembered++
		}
	}
	stats.Forgotten = stats.Total - stats.Remembered
	stats.Experience = stats.Remembered*RememberedExperience + stats.Forgotten*ForgottenExperience
	stats.Accuracy = percent(stats.Remembered, stats.Total)
	return stats
}

// Actions returns a copy of the recorded answers
func (s *Session) Actions() []models.SessionAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SessionAction(nil), s.actions...)
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
