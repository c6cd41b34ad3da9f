package database

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Connect opens the database for driver ("sqlite3" or "postgres") and makes
// sure the schema exists. For sqlite a plain file path gets its directory created.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	if driver == "sqlite3" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, errors.Wrap(err, "failed to create data directory")
			}
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s database", driver)
	}

	if driver == "sqlite3" {
		// sqlite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// initializeSchema creates the tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	blobType := "BLOB"
	if db.DriverName() == "postgres" {
		idColumn = "id BIGSERIAL PRIMARY KEY"
		blobType = "BYTEA"
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			key TEXT PRIMARY KEY,
			value ` + blobType + ` NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to create documents table")
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS vocabulary (
			` + idColumn + `,
			word TEXT NOT NULL,
			translation TEXT NOT NULL DEFAULT '',
			phonetic TEXT NOT NULL DEFAULT '',
			example TEXT NOT NULL DEFAULT '',
			language TEXT NOT NULL DEFAULT 'en',
			source_type TEXT NOT NULL DEFAULT '',
			source_id TEXT NOT NULL DEFAULT '',
			incorrect_count INTEGER NOT NULL DEFAULT 0,
			consecutive_incorrect INTEGER NOT NULL DEFAULT 0,
			consecutive_correct INTEGER NOT NULL DEFAULT 0,
			next_review_at TIMESTAMP NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE(word, source_type, source_id)
		)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to create vocabulary table")
	}

	return nil
}
