// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package candidates

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/litscout/pkg/types"
)

const dbFile = "litscout.db"

// Store keeps normalized papers, concepts, authors and venues in SQLite and
// serves them as candidate sets.
type Store struct {
	db           *sql.DB
	dataDir      string
	snapshotsDir string

	// fts is false when the sqlite3 driver was built without FTS5; full-text
	// filters then fall back to LIKE matching.
	fts bool
}

// NewStore opens or creates dataDir/litscout.db and its schema.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dataDir: dataDir, snapshotsDir: cfg.SnapshotsDir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			abstract TEXT NOT NULL DEFAULT '',
			year INTEGER NOT NULL DEFAULT 0,
			doi TEXT NOT NULL DEFAULT '',
			venue_id TEXT NOT NULL DEFAULT '',
			embedding BLOB,
			cluster_ids TEXT,
			cluster_weights TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS concepts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			embedding BLOB
		)`,
		`CREATE TABLE IF NOT EXISTS authors (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			orcid TEXT NOT NULL DEFAULT '',
			works_count INTEGER NOT NULL DEFAULT 0,
			cited_by_count INTEGER NOT NULL DEFAULT 0,
			cluster_ids TEXT,
			cluster_weights TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS venues (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			source_type TEXT NOT NULL DEFAULT '',
			host_organization_id TEXT NOT NULL DEFAULT '',
			host_organization_name TEXT NOT NULL DEFAULT '',
			issn_l TEXT NOT NULL DEFAULT '',
			works_count INTEGER NOT NULL DEFAULT 0,
			cited_by_count INTEGER NOT NULL DEFAULT 0,
			homepage_url TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS paper_concepts (
			paper_id TEXT NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
			concept_id TEXT NOT NULL,
			weight REAL NOT NULL CHECK (weight >= 0),
			PRIMARY KEY (paper_id, concept_id)
		)`,
		`CREATE TABLE IF NOT EXISTS paper_authors (
			paper_id TEXT NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
			author_id TEXT NOT NULL,
			author_order INTEGER NOT NULL CHECK (author_order >= 1),
			is_corresponding INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (paper_id, author_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_year ON papers(year)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_venue ON papers(venue_id)`,
		`CREATE INDEX IF NOT EXISTS idx_paper_authors_author ON paper_authors(author_id)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			file TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 over title and abstract, kept in sync by triggers.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='papers_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	s.fts = ftsExists > 0
	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE papers_fts USING fts5(title, abstract, content=papers, content_rowid=rowid)`,
			`CREATE TRIGGER papers_ai AFTER INSERT ON papers BEGIN
				INSERT INTO papers_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
			END`,
			`CREATE TRIGGER papers_ad AFTER DELETE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
			END`,
			`CREATE TRIGGER papers_au AFTER UPDATE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
				INSERT INTO papers_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
			END`,
		}
		for i, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				if i == 0 && strings.Contains(err.Error(), "no such module") {
					return nil
				}
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
		s.fts = true
	}

	return nil
}

// Counts holds row counts per table.
type Counts struct {
	Papers   int `json:"papers" yaml:"papers"`
	Concepts int `json:"concepts" yaml:"concepts"`
	Authors  int `json:"authors" yaml:"authors"`
	Venues   int `json:"venues" yaml:"venues"`
}

// Counts reports how many records the store holds.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	for _, q := range []struct {
		table string
		dst   *int
	}{
		{"papers", &c.Papers},
		{"concepts", &c.Concepts},
		{"authors", &c.Authors},
		{"venues", &c.Venues},
	} {
		if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM `+q.table).Scan(q.dst); err != nil {
			return Counts{}, fmt.Errorf("counting %s: %w", q.table, err)
		}
	}
	return c, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
