package monitor

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/driftwatch/driftwatch/internal/db"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS fingerprints (
    object      TEXT NOT NULL,
    cache_key   TEXT NOT NULL,
    algorithm   TEXT NOT NULL,
    fingerprint TEXT NOT NULL,
    PRIMARY KEY (object, cache_key, algorithm)
);

CREATE INDEX IF NOT EXISTS idx_fingerprints_object ON fingerprints(object);
`

// Journal is a Store backed by SQLite, persisting each object's fingerprint
// cache across runs. One row per (object, cache key, algorithm).
type Journal struct {
	db *sqlx.DB
}

// NewJournal creates or opens a journal database at dbPath.
func NewJournal(dbPath string) (*Journal, error) {
	conn, err := db.NewSqliteDB(db.WithPath(dbPath), db.WithMaxOpenConns(1))
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if _, err := conn.Exec(journalSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize journal schema: %w", err)
	}
	return &Journal{db: conn}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Put replaces the stored mapping for (object, key).
func (j *Journal) Put(object, key string, value map[string]string) error {
	tx, err := j.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin journal put: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM fingerprints WHERE object = ? AND cache_key = ?", object, key); err != nil {
		return fmt.Errorf("clear journal entries for %s: %w", object, err)
	}
	for algo, fp := range value {
		if _, err := tx.Exec(
			"INSERT INTO fingerprints (object, cache_key, algorithm, fingerprint) VALUES (?, ?, ?, ?)",
			object, key, algo, fp,
		); err != nil {
			return fmt.Errorf("insert journal entry for %s: %w", object, err)
		}
	}
	return tx.Commit()
}

// Get returns the stored mapping for (object, key), reporting whether any
// entries exist.
func (j *Journal) Get(object, key string) (map[string]string, bool, error) {
	var rows []struct {
		Algorithm   string `db:"algorithm"`
		Fingerprint string `db:"fingerprint"`
	}
	err := j.db.Select(&rows,
		"SELECT algorithm, fingerprint FROM fingerprints WHERE object = ? AND cache_key = ?",
		object, key,
	)
	if err != nil {
		return nil, false, fmt.Errorf("query journal for %s: %w", object, err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	value := make(map[string]string, len(rows))
	for _, row := range rows {
		value[row.Algorithm] = row.Fingerprint
	}
	return value, true, nil
}

// Delete removes the stored mapping for (object, key).
func (j *Journal) Delete(object, key string) error {
	if _, err := j.db.Exec("DELETE FROM fingerprints WHERE object = ? AND cache_key = ?", object, key); err != nil {
		return fmt.Errorf("delete journal entries for %s: %w", object, err)
	}
	return nil
}

// Objects lists every object path known to the journal.
func (j *Journal) Objects() ([]string, error) {
	var objects []string
	if err := j.db.Select(&objects, "SELECT DISTINCT object FROM fingerprints ORDER BY object"); err != nil {
		return nil, fmt.Errorf("list journal objects: %w", err)
	}
	return objects, nil
}
