// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store caches fetched paper metadata in SQLite so repeated scoring
// runs over the same date range do not hit the metadata source again. Only
// source metadata is stored; scores are always recomputed.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-feed/internal/logging"
	"github.com/pdiddy/research-feed/pkg/types"
)

// DefaultPath is the cache location when the config leaves it empty.
const DefaultPath = "data/papers.db"

const dateLayout = "2006-01-02"

// Store is the paper metadata cache.
type Store struct {
	db *sql.DB
}

// Query selects cached papers. Zero dates leave that end of the range open;
// no journals means every journal.
type Query struct {
	From     time.Time
	To       time.Time
	Journals []string
}

// Open opens or creates the cache database and its schema.
func Open(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &Store{db: db}
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
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			abstract TEXT,
			authors TEXT,
			journal TEXT,
			journal_tier INTEGER,
			journal_field TEXT,
			published_at TEXT,
			cited_by_count INTEGER,
			concepts TEXT,
			doi TEXT,
			open_access INTEGER,
			open_access_url TEXT,
			fetched_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_published_at ON papers(published_at)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_journal ON papers(journal)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

const upsertPaper = `INSERT INTO papers (
	id, title, abstract, authors, journal, journal_tier, journal_field,
	published_at, cited_by_count, concepts, doi, open_access, open_access_url, fetched_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title = excluded.title,
	abstract = excluded.abstract,
	authors = excluded.authors,
	journal = excluded.journal,
	journal_tier = excluded.journal_tier,
	journal_field = excluded.journal_field,
	published_at = excluded.published_at,
	cited_by_count = excluded.cited_by_count,
	concepts = excluded.concepts,
	doi = excluded.doi,
	open_access = excluded.open_access,
	open_access_url = excluded.open_access_url,
	fetched_at = excluded.fetched_at`

// SavePapers inserts papers or refreshes the cached copy of papers already
// present, in one transaction. It returns the number of rows written.
func (s *Store) SavePapers(ctx context.Context, papers []types.Paper) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, upsertPaper)
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range papers {
		authors, err := json.Marshal(p.Authors)
		if err != nil {
			return 0, fmt.Errorf("encoding authors of %s: %w", p.ID, err)
		}
		concepts, err := json.Marshal(p.Concepts)
		if err != nil {
			return 0, fmt.Errorf("encoding concepts of %s: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.Title, p.Abstract, string(authors), p.Journal, p.JournalTier, p.JournalField,
			formatDate(p.PublishedAt), p.CitedByCount, string(concepts), p.DOI, p.OpenAccess, p.OpenAccessURL, now,
		); err != nil {
			return 0, fmt.Errorf("saving paper %s: %w", p.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing papers: %w", err)
	}

	log := logging.Component("store")
	log.Debug().Int("papers", len(papers)).Msg("papers cached")
	return len(papers), nil
}

// Papers returns the cached papers matching q, newest first.
func (s *Store) Papers(ctx context.Context, q Query) ([]types.Paper, error) {
	var where []string
	var args []any
	if !q.From.IsZero() {
		where = append(where, "published_at >= ?")
		args = append(args, formatDate(q.From))
	}
	if !q.To.IsZero() {
		where = append(where, "published_at <= ?")
		args = append(args, formatDate(q.To))
	}
	if len(q.Journals) > 0 {
		where = append(where, "journal IN ("+strings.TrimSuffix(strings.Repeat("?,", len(q.Journals)), ",")+")")
		for _, j := range q.Journals {
			args = append(args, j)
		}
	}

	query := `SELECT id, title, abstract, authors, journal, journal_tier, journal_field,
		published_at, cited_by_count, concepts, doi, open_access, open_access_url FROM papers`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY published_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	papers := []types.Paper{}
	for rows.Next() {
		var (
			p                      types.Paper
			abstract, field, doi   sql.NullString
			journal, oaURL, date   sql.NullString
			authorsJSON, conceptsJ sql.NullString
			tier, cites            sql.NullInt64
			oa                     sql.NullBool
		)
		if err := rows.Scan(&p.ID, &p.Title, &abstract, &authorsJSON, &journal, &tier, &field,
			&date, &cites, &conceptsJ, &doi, &oa, &oaURL); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		p.Abstract = abstract.String
		p.Journal = journal.String
		p.JournalTier = int(tier.Int64)
		p.JournalField = field.String
		p.CitedByCount = int(cites.Int64)
		p.DOI = doi.String
		p.OpenAccess = oa.Bool
		p.OpenAccessURL = oaURL.String
		if date.String != "" {
			if t, err := time.Parse(dateLayout, date.String); err == nil {
				p.PublishedAt = t
			}
		}
		if err := decodeList(authorsJSON, &p.Authors); err != nil {
			return nil, fmt.Errorf("decoding authors of %s: %w", p.ID, err)
		}
		if err := decodeList(conceptsJ, &p.Concepts); err != nil {
			return nil, fmt.Errorf("decoding concepts of %s: %w", p.ID, err)
		}
		papers = append(papers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating papers: %w", err)
	}
	return papers, nil
}

// Count returns the number of cached papers.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM papers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func decodeList(raw sql.NullString, out any) error {
	if !raw.Valid || raw.String == "" || raw.String == "null" {
		return nil
	}
	return json.Unmarshal([]byte(raw.String), out)
}
