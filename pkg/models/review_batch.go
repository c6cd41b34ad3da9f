package models

// BatchMode tags how a review batch was selected
type BatchMode string

const (
	BatchModeDueReview   BatchMode = "dueReview"
	BatchModeChallenge   BatchMode = "challenge"
	BatchModeCuratedList BatchMode = "curatedList"
)

// ReviewBatch is the ordered list of words selected for one review session
type ReviewBatch struct {
	Mode    BatchMode         `json:"mode"`
	Entries []VocabularyEntry `json:"entries"`
}

// Len returns the number of words in the batch
func (b ReviewBatch) Len() int {
	return len(b.Entries)
}

// Empty reports whether there is nothing to review
func (b ReviewBatch) Empty() bool {
	return len(b.Entries) == 0
}
