// Package cache is the local SQLite mirror of a project's studies. It
// supplies the duplicate matcher's existing-study reference set without
// a round trip, and records staleness so invalidated collections are
// re-fetched on the next read.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/seibert-lab/cura/internal/study"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS studies (
  id TEXT PRIMARY KEY,
  project_id TEXT NOT NULL,
  title TEXT,
  doi TEXT,
  pmid TEXT,
  data TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_studies_project ON studies(project_id);
CREATE INDEX IF NOT EXISTS idx_studies_doi ON studies(doi);
CREATE TABLE IF NOT EXISTS _meta (
  key TEXT PRIMARY KEY,
  value TEXT
)`

// Cache wraps one project cache database.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// ReplaceStudies atomically swaps a project's cached studies for a
// fresh listing and clears the project's stale flag.
func (c *Cache) ReplaceStudies(projectID string, studies []study.Study) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning cache update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM studies WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("clearing cached studies: %w", err)
	}
	for _, s := range studies {
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encoding study %s: %w", s.ID, err)
		}
		_, err = tx.Exec(
			`INSERT INTO studies (id, project_id, title, doi, pmid, data) VALUES (?, ?, ?, ?, ?, ?)`,
			s.ID, projectID, s.Title, s.DOI, s.PMID, string(data))
		if err != nil {
			return fmt.Errorf("caching study %s: %w", s.ID, err)
		}
	}

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO _meta (key, value) VALUES (?, ?)`,
		staleKey(projectID), "false"); err != nil {
		return fmt.Errorf("clearing stale flag: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO _meta (key, value) VALUES (?, ?)`,
		syncKey(projectID), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("recording sync time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cache update: %w", err)
	}
	return nil
}

// Studies returns a project's cached studies in insertion order.
func (c *Cache) Studies(projectID string) ([]study.Study, error) {
	rows, err := c.db.Query(
		`SELECT data FROM studies WHERE project_id = ? ORDER BY rowid`, projectID)
	if err != nil {
		return nil, fmt.Errorf("reading cached studies: %w", err)
	}
	defer rows.Close()

	var out []study.Study
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var s study.Study
		if err := json.Unmarshal([]byte(data), &s); err != nil {
			return nil, fmt.Errorf("decoding cached study: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MarkStale flags a project's cached listing as out of date.
func (c *Cache) MarkStale(projectID string) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO _meta (key, value) VALUES (?, ?)`,
		staleKey(projectID), "true")
	return err
}

// Stale reports whether a project's cached listing must be re-fetched.
// A project never cached is stale.
func (c *Cache) Stale(projectID string) (bool, error) {
	var value sql.NullString
	err := c.db.QueryRow(
		`SELECT value FROM _meta WHERE key = ?`, staleKey(projectID)).Scan(&value)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return value.String == "true", nil
}

// LastSync returns when a project's cache was last replaced, or the
// zero time if never.
func (c *Cache) LastSync(projectID string) (time.Time, error) {
	var value sql.NullString
	err := c.db.QueryRow(
		`SELECT value FROM _meta WHERE key = ?`, syncKey(projectID)).Scan(&value)
	if err == sql.ErrNoRows || err == nil && !value.Valid {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, value.String)
}

func staleKey(projectID string) string { return "stale:" + projectID }
func syncKey(projectID string) string  { return "last_sync:" + projectID }
