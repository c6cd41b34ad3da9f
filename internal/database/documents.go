package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Document keys owned by the review engine
const (
	KeyLearningRecords = "learning_records"
	KeyWrongWords      = "wrong_words_collection"
)

// DocumentStore is a key/value store for serialized documents
type DocumentStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Documents stores documents in the documents table
type Documents struct {
	db *sqlx.DB
}

// NewDocuments creates a document store on db
func NewDocuments(db *sqlx.DB) *Documents {
	return &Documents{db: db}
}

// Get returns the stored value of key, or ErrNotFound
func (d *Documents) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := d.db.GetContext(ctx, &value, d.db.Rebind("SELECT value FROM documents WHERE key = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "document %s", key)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get document %s", key)
	}
	return value, nil
}

// Set replaces the value of key
func (d *Documents) Set(ctx context.Context, key string, value []byte) error {
	query := d.db.Rebind(`
		INSERT INTO documents (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`)
	if _, err := d.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return errors.Wrapf(err, "failed to set document %s", key)
	}
	return nil
}
