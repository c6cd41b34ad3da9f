package models

import "time"

// SessionAction is one answer given during a review session
type SessionAction struct {
	Word        string `json:"word"`
	Remembered  bool   `json:"remembered"`
	Translation string `json:"translation"`
}

// SessionStats is the summary of a review session
type SessionStats struct {
	SessionID  string    `json:"sessionId"`
	Total      int       `json:"total"`
	Remembered int       `json:"remembered"`
	Forgotten  int       `json:"forgotten"`
	Accuracy   int       `json:"accuracy"` // percent, rounded
	Experience int       `json:"experience"`
	StartedAt  time.Time `json:"startedAt"`
}
