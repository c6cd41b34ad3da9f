package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/wordreview/pkg/models"
)

const vocabularyColumns = `id, word, translation, phonetic, example, language, source_type, source_id,
	incorrect_count, consecutive_incorrect, consecutive_correct, next_review_at, created_at, updated_at`

// vocabularyRow is the flat table shape of a models.VocabularyEntry
type vocabularyRow struct {
	ID                   int64        `db:"id"`
	Word                 string       `db:"word"`
	Translation          string       `db:"translation"`
	Phonetic             string       `db:"phonetic"`
	Example              string       `db:"example"`
	Language             string       `db:"language"`
	SourceType           string       `db:"source_type"`
	SourceID             string       `db:"source_id"`
	IncorrectCount       int          `db:"incorrect_count"`
	ConsecutiveIncorrect int          `db:"consecutive_incorrect"`
	ConsecutiveCorrect   int          `db:"consecutive_correct"`
	NextReviewAt         sql.NullTime `db:"next_review_at"`
	CreatedAt            time.Time    `db:"created_at"`
	UpdatedAt            time.Time    `db:"updated_at"`
}

func (r vocabularyRow) entry() models.VocabularyEntry {
	e := models.VocabularyEntry{
		ID:                   r.ID,
		Word:                 r.Word,
		Translation:          r.Translation,
		Phonetic:             r.Phonetic,
		Example:              r.Example,
		Language:             r.Language,
		Source:               models.Source{Type: r.SourceType, ID: r.SourceID},
		IncorrectCount:       r.IncorrectCount,
		ConsecutiveIncorrect: r.ConsecutiveIncorrect,
		ConsecutiveCorrect:   r.ConsecutiveCorrect,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
	if r.NextReviewAt.Valid {
		e.NextReviewAt = r.NextReviewAt.Time
	}
	return e
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// VocabularyRepository handles database operations for vocabulary entries
type VocabularyRepository struct {
	db *sqlx.DB
}

// NewVocabularyRepository creates a new repository instance
func NewVocabularyRepository(db *sqlx.DB) *VocabularyRepository {
	return &VocabularyRepository{db: db}
}

// Snapshot returns every vocabulary entry in insertion order
func (r *VocabularyRepository) Snapshot(ctx context.Context) ([]models.VocabularyEntry, error) {
	var rows []vocabularyRow
	if err := r.db.SelectContext(ctx, &rows, "SELECT "+vocabularyColumns+" FROM vocabulary ORDER BY id"); err != nil {
		return nil, errors.Wrap(err, "failed to get vocabulary")
	}

	entries := make([]models.VocabularyEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.entry())
	}
	return entries, nil
}

// GetByID returns one entry, or ErrNotFound
func (r *VocabularyRepository) GetByID(ctx context.Context, id int64) (*models.VocabularyEntry, error) {
	return r.getOne(ctx, "SELECT "+vocabularyColumns+" FROM vocabulary WHERE id = ?", id)
}

// GetByWord returns the first entry spelled word (case-insensitive), or ErrNotFound
func (r *VocabularyRepository) GetByWord(ctx context.Context, word string) (*models.VocabularyEntry, error) {
	return r.getOne(ctx, "SELECT "+vocabularyColumns+" FROM vocabulary WHERE LOWER(word) = LOWER(?) ORDER BY id LIMIT 1", word)
}

func (r *VocabularyRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.VocabularyEntry, error) {
	var row vocabularyRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "vocabulary entry %v", args[0])
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get vocabulary entry")
	}
	entry := row.entry()
	return &entry, nil
}

// Create inserts entry, or refreshes translation, phonetic and example when the
// same word already exists for the same source. entry.ID and timestamps are set
// from the stored row.
func (r *VocabularyRepository) Create(ctx context.Context, entry *models.VocabularyEntry) error {
	if entry.Language == "" {
		entry.Language = "en"
	}
	now := time.Now().UTC()

	query := r.db.Rebind(`
		INSERT INTO vocabulary (word, translation, phonetic, example, language, source_type, source_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (word, source_type, source_id) DO UPDATE SET
			translation = excluded.translation,
			phonetic = excluded.phonetic,
			example = excluded.example,
			updated_at = excluded.updated_at
	`)
	_, err := r.db.ExecContext(ctx, query,
		entry.Word,
		entry.Translation,
		entry.Phonetic,
		entry.Example,
		entry.Language,
		entry.Source.Type,
		entry.Source.ID,
		now,
		now,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to create vocabulary entry %q", entry.Word)
	}

	// read back id and progress, the row may have existed before
	var row vocabularyRow
	err = r.db.GetContext(ctx, &row, r.db.Rebind(
		"SELECT "+vocabularyColumns+" FROM vocabulary WHERE word = ? AND source_type = ? AND source_id = ?"),
		entry.Word, entry.Source.Type, entry.Source.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to read back vocabulary entry %q", entry.Word)
	}
	*entry = row.entry()
	return nil
}

// UpdateProgress stores the review counters and next review date of entry.
// Every row spelling the same word, whatever its source, gets the same progress.
func (r *VocabularyRepository) UpdateProgress(ctx context.Context, entry models.VocabularyEntry) error {
	query := r.db.Rebind(`
		UPDATE vocabulary SET
			incorrect_count = ?,
			consecutive_incorrect = ?,
			consecutive_correct = ?,
			next_review_at = ?,
			updated_at = ?
		WHERE TRIM(word) = (SELECT TRIM(v.word) FROM vocabulary v WHERE v.id = ?)
	`)
	res, err := r.db.ExecContext(ctx, query,
		entry.IncorrectCount,
		entry.ConsecutiveIncorrect,
		entry.ConsecutiveCorrect,
		nullTime(entry.NextReviewAt),
		time.Now().UTC(),
		entry.ID,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to update progress of %d", entry.ID)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(ErrNotFound, "vocabulary entry %d", entry.ID)
	}
	return nil
}

// Delete removes an entry
func (r *VocabularyRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM vocabulary WHERE id = ?"), id); err != nil {
		return errors.Wrapf(err, "failed to delete vocabulary entry %d", id)
	}
	return nil
}
