package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLearningRecordValidate(t *testing.T) {
	t.Parallel()

	valid := NewLearningRecord("1", "apple")
	valid.ReviewCount, valid.CorrectCount, valid.IncorrectCount = 3, 2, 1

	tests := []struct {
		name    string
		mutate  func(r *LearningRecord)
		wantErr bool
	}{
		{name: "valid", mutate: func(*LearningRecord) {}},
		{name: "empty difficulty", mutate: func(r *LearningRecord) { r.Difficulty = "" }},
		{name: "missing id", mutate: func(r *LearningRecord) { r.WordID = " " }, wantErr: true},
		{name: "missing word", mutate: func(r *LearningRecord) { r.Word = "" }, wantErr: true},
		{name: "negative counter", mutate: func(r *LearningRecord) { r.ConsecutiveCorrect = -1 }, wantErr: true},
		{name: "counters do not add up", mutate: func(r *LearningRecord) { r.CorrectCount = 3 }, wantErr: true},
		{name: "mastery above 100", mutate: func(r *LearningRecord) { r.MasteryLevel = 101 }, wantErr: true},
		{name: "unknown difficulty", mutate: func(r *LearningRecord) { r.Difficulty = "extreme" }, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := valid
			tc.mutate(&rec)
			err := rec.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLearningRecordAccuracy(t *testing.T) {
	t.Parallel()

	assert.Zero(t, NewLearningRecord("1", "apple").Accuracy())
	assert.InDelta(t, 0.75, LearningRecord{ReviewCount: 4, CorrectCount: 3}.Accuracy(), 1e-9)
}

func TestVocabularyEntryIsDue(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, VocabularyEntry{}.IsDue(now))
	assert.True(t, VocabularyEntry{NextReviewAt: now}.IsDue(now))
	assert.True(t, VocabularyEntry{NextReviewAt: now.Add(-time.Hour)}.IsDue(now))
	assert.False(t, VocabularyEntry{NextReviewAt: now.Add(time.Minute)}.IsDue(now))
}

func TestVocabularyEntryHasMistakes(t *testing.T) {
	t.Parallel()

	assert.False(t, VocabularyEntry{ConsecutiveCorrect: 2}.HasMistakes())
	assert.True(t, VocabularyEntry{IncorrectCount: 1}.HasMistakes())
	assert.True(t, VocabularyEntry{ConsecutiveIncorrect: 1}.HasMistakes())
}

func TestReviewBatch(t *testing.T) {
	t.Parallel()

	assert.True(t, ReviewBatch{}.Empty())
	b := ReviewBatch{Mode: BatchModeDueReview, Entries: []VocabularyEntry{{Word: "apple"}}}
	assert.False(t, b.Empty())
	assert.Equal(t, 1, b.Len())
}
