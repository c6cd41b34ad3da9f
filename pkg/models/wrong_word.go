package models

import "time"

// WrongWordEntry is a word the learner is currently struggling with
type WrongWordEntry struct {
	Word                 string    `json:"word"`
	IncorrectCount       int       `json:"incorrectCount"`
	ConsecutiveIncorrect int       `json:"consecutiveIncorrect"`
	ConsecutiveCorrect   int       `json:"consecutiveCorrect"`
	AddedAt              time.Time `json:"addedAt"`
	LastReviewed         time.Time `json:"lastReviewed"`
	ReviewCount          int       `json:"reviewCount"`
}

// WrongWordStatistics summarizes the wrong-word collection
type WrongWordStatistics struct {
	TotalWrongWords int       `json:"totalWrongWords"`
	RecentlyAdded   int       `json:"recentlyAdded"`
	RecentlyRemoved int       `json:"recentlyRemoved"`
	LastUpdated     time.Time `json:"lastUpdated"`
}
