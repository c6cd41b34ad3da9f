package queue

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordreview/pkg/models"
)

type staticWrongWords []string

func (s staticWrongWords) GetWrongWords() []string { return s }

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestBuilder(wrong WrongWordSource) *Builder {
	b := NewBuilder(wrong)
	b.Now = func() time.Time { return now }
	return b
}

func words(prefix string, n int, mutate func(*models.VocabularyEntry)) []models.VocabularyEntry {
	out := make([]models.VocabularyEntry, 0, n)
	for i := 0; i < n; i++ {
		v := models.VocabularyEntry{ID: int64(i + 1), Word: fmt.Sprintf("%s%d", prefix, i)}
		if mutate != nil {
			mutate(&v)
		}
		out = append(out, v)
	}
	return out
}

func wordList(batch models.ReviewBatch) []string {
	out := make([]string, 0, batch.Len())
	for _, v := range batch.Entries {
		out = append(out, v.Word)
	}
	return out
}

func TestBuild_SmartPrefersDueWords(t *testing.T) {
	t.Parallel()
	due := words("due", 15, func(v *models.VocabularyEntry) { v.NextReviewAt = now.Add(-time.Hour) })
	later := words("later", 5, func(v *models.VocabularyEntry) { v.NextReviewAt = now.Add(48 * time.Hour) })
	snapshot := append(append([]models.VocabularyEntry{}, later...), due...)

	batch := newTestBuilder(nil).Build(snapshot, Request{Mode: ModeSmart})

	assert.Equal(t, models.BatchModeDueReview, batch.Mode)
	require.Equal(t, 10, batch.Len())
	for _, v := range batch.Entries {
		assert.True(t, v.IsDue(now), v.Word)
	}
}

func TestBuild_SmartFewDueReturnsEverythingDueFirst(t *testing.T) {
	t.Parallel()
	due := words("due", 3, nil) // never scheduled counts as due
	later := words("later", 4, func(v *models.VocabularyEntry) { v.NextReviewAt = now.Add(time.Hour) })
	snapshot := append(append([]models.VocabularyEntry{}, later...), due...)

	batch := newTestBuilder(nil).Build(snapshot, Request{Type: TypeShuffle})

	assert.Equal(t, models.BatchModeDueReview, batch.Mode)
	assert.Equal(t, []string{"due0", "due1", "due2", "later0", "later1", "later2", "later3"}, wordList(batch))
}

func TestBuild_AllReturnsDeduplicatedSet(t *testing.T) {
	t.Parallel()
	snapshot := words("w", 25, func(v *models.VocabularyEntry) { v.NextReviewAt = now.Add(time.Hour) })
	snapshot = append(snapshot, models.VocabularyEntry{ID: 99, Word: "w3"})

	batch := newTestBuilder(nil).Build(snapshot, Request{Type: TypeRandom, Mode: ModeAll})

	assert.Equal(t, models.BatchModeChallenge, batch.Mode)
	assert.Equal(t, 25, batch.Len())
	for _, v := range batch.Entries {
		if v.Word == "w3" {
			assert.Equal(t, int64(4), v.ID, "first occurrence wins")
		}
	}
}

func TestBuild_CuratedList(t *testing.T) {
	t.Parallel()
	friends := models.Source{Type: models.SourceTypeShow, ID: "friends"}
	snapshot := []models.VocabularyEntry{
		{Word: "apple", Source: friends, NextReviewAt: now.Add(time.Hour)},
		{Word: "pear", Source: models.Source{Type: models.SourceTypeWordbook, ID: "friends"}},
		{Word: "plum", Source: friends},
		{Word: "apple", Source: friends},
	}

	batch := newTestBuilder(nil).Build(snapshot, Request{Type: TypeShow, ID: "friends"})
	assert.Equal(t, models.BatchModeCuratedList, batch.Mode)
	assert.ElementsMatch(t, []string{"apple", "plum"}, wordList(batch))

	// without an id the request is a generic challenge
	generic := newTestBuilder(nil).Build(snapshot, Request{Type: TypeShow, Mode: ModeAll})
	assert.Equal(t, models.BatchModeChallenge, generic.Mode)
	assert.Equal(t, 3, generic.Len())

	unmatched := newTestBuilder(nil).Build(snapshot, Request{Type: TypeWordbook, ID: "missing"})
	assert.True(t, unmatched.Empty())
}

func TestBuild_WrongWordsEmptyWhenNoMistakes(t *testing.T) {
	t.Parallel()
	snapshot := words("clean", 5, nil)

	batch := newTestBuilder(staticWrongWords{}).Build(snapshot, Request{Type: TypeWrongWords})

	assert.Equal(t, models.BatchModeChallenge, batch.Mode)
	assert.True(t, batch.Empty())
}

func TestBuild_WrongWordsResolvesTrackerAndPads(t *testing.T) {
	t.Parallel()
	snapshot := []models.VocabularyEntry{
		{Word: "a", IncorrectCount: 1},
		{Word: "b"},
		{Word: "c", ConsecutiveIncorrect: 1},
		{Word: "d", IncorrectCount: 2},
		{Word: "e"},
	}
	tracker := staticWrongWords{"d", "ghost", "b"}

	batch := newTestBuilder(tracker).Build(snapshot, Request{Type: TypeWrongWords})

	assert.Equal(t, []string{"d", "b", "a", "c"}, wordList(batch))
}

func TestBuild_WordsMatchIgnoringSurroundingSpace(t *testing.T) {
	t.Parallel()
	snapshot := []models.VocabularyEntry{
		{ID: 1, Word: " kiwi ", IncorrectCount: 1},
		{ID: 2, Word: "kiwi", Source: models.Source{Type: models.SourceTypeShow, ID: "friends"}},
		{ID: 3, Word: "lime"},
	}

	batch := newTestBuilder(staticWrongWords{"kiwi"}).Build(snapshot, Request{Type: TypeWrongWords})
	require.Equal(t, 1, batch.Len())
	assert.Equal(t, int64(1), batch.Entries[0].ID)

	all := newTestBuilder(nil).Build(snapshot, Request{Type: TypeRandom, Mode: ModeAll})
	assert.Equal(t, 2, all.Len())
}

func TestBuild_WrongWordsCappedAtTarget(t *testing.T) {
	t.Parallel()
	snapshot := words("x", 30, func(v *models.VocabularyEntry) { v.IncorrectCount = 1 })
	tracked := make(staticWrongWords, 0, 12)
	for i := 0; i < 12; i++ {
		tracked = append(tracked, fmt.Sprintf("x%d", 29-i))
	}

	batch := newTestBuilder(tracked).Build(snapshot, Request{Type: TypeWrongWords})
	require.Equal(t, 10, batch.Len())
	assert.Equal(t, "x29", batch.Entries[0].Word)

	fallback := newTestBuilder(nil).Build(snapshot, Request{Type: TypeWrongWords})
	assert.Equal(t, 10, fallback.Len())
	assert.Equal(t, "x0", fallback.Entries[0].Word)
}

func TestBuild_EmptySnapshot(t *testing.T) {
	t.Parallel()
	b := newTestBuilder(staticWrongWords{"a"})
	for _, req := range []Request{
		{Type: TypeWrongWords},
		{Mode: ModeSmart},
		{Mode: ModeAll},
		{Type: TypeWordbook, ID: "1"},
	} {
		assert.True(t, b.Build(nil, req).Empty(), "%+v", req)
	}
}

func TestBuild_DoesNotModifySnapshot(t *testing.T) {
	t.Parallel()
	snapshot := words("due", 12, nil)
	original := append([]models.VocabularyEntry(nil), snapshot...)

	newTestBuilder(nil).Build(snapshot, Request{Mode: ModeSmart})
	assert.Equal(t, original, snapshot)
}

func TestCountDue(t *testing.T) {
	t.Parallel()
	snapshot := []models.VocabularyEntry{
		{Word: "a"},
		{Word: "a"},
		{Word: "b", NextReviewAt: now},
		{Word: "c", NextReviewAt: now.Add(time.Minute)},
	}
	assert.Equal(t, 2, newTestBuilder(nil).CountDue(snapshot, now))
}
