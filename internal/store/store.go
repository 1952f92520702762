// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store keeps a SQLite database of review runs: the papers found,
// their screening records, reviewer decisions and risk-of-bias
// assessments. Titles and abstracts are indexed for full-text search.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/review-engine/pkg/types"
)

const (
	// DBFile is the database file name inside the store directory.
	DBFile = "review.db"

	defaultMaxResults = 20
)

// Store manages the review database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
	fts        bool
	log        *zap.Logger
}

// Open opens or creates dir/review.db and its schema. When the SQLite
// build lacks FTS5, text queries fall back to substring matching.
func Open(cfg types.StoreConfig, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("store directory not configured")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(cfg.Dir, DBFile)+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	s := &Store{db: db, dir: cfg.Dir, maxResults: maxResults, log: log}
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

// FullText reports whether the FTS5 index is available.
func (s *Store) FullText() bool { return s.fts }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			run_id TEXT,
			title TEXT,
			authors TEXT,
			year INTEGER,
			abstract TEXT,
			doi TEXT,
			url TEXT,
			arxiv_id TEXT,
			source TEXT,
			language TEXT,
			publication_type TEXT,
			venue TEXT,
			pdf_url TEXT,
			published_date TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_source ON papers(source)`,
		`CREATE TABLE IF NOT EXISTS screening_records (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			paper_id TEXT NOT NULL,
			title TEXT,
			decision TEXT NOT NULL,
			exclusion_reason TEXT,
			stage TEXT,
			screener_id TEXT,
			notes TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_screening_paper ON screening_records(paper_id)`,
		`CREATE TABLE IF NOT EXISTS decisions (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			paper_id TEXT NOT NULL,
			reviewer_id TEXT NOT NULL,
			decision TEXT NOT NULL,
			reason TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_paper ON decisions(paper_id)`,
		`CREATE TABLE IF NOT EXISTS bias_assessments (
			paper_id TEXT PRIMARY KEY,
			run_id TEXT,
			title TEXT,
			assessor_id TEXT,
			overall_risk TEXT,
			domains TEXT,
			notes TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='papers_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		s.fts = true
		return nil
	}

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
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	for _, stmt := range ftsStatements {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			s.log.Warn("full-text index unavailable, using substring search", zap.Error(err))
			return nil
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("creating FTS infrastructure: %w", err)
	}
	s.fts = true
	return nil
}

// Bundle is everything one review run contributes to the database.
type Bundle struct {
	RunID       string
	Papers      []types.PaperRecord
	Screening   []types.ScreeningRecord
	Decisions   []types.ScreeningDecision
	Assessments []types.RiskOfBiasAssessment
}

// IngestSummary counts the rows written by Ingest.
type IngestSummary struct {
	Papers      int `json:"papers" yaml:"papers"`
	Screening   int `json:"screening" yaml:"screening"`
	Decisions   int `json:"decisions" yaml:"decisions"`
	Assessments int `json:"assessments" yaml:"assessments"`
}

// Ingest writes b in one transaction. Papers and assessments are upserted
// by paper ID; screening records and decisions from a run replace any
// earlier rows for the same run.
func (s *Store) Ingest(ctx context.Context, b Bundle) (IngestSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var sum IngestSummary
	for _, p := range b.Papers {
		if err := upsertPaper(ctx, tx, b.RunID, p); err != nil {
			return IngestSummary{}, err
		}
		sum.Papers++
	}

	if b.RunID != "" {
		for _, table := range []string{"screening_records", "decisions"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id = ?`, b.RunID); err != nil {
				return IngestSummary{}, fmt.Errorf("clearing %s: %w", table, err)
			}
		}
	}

	for _, r := range b.Screening {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO screening_records (run_id, paper_id, title, decision, exclusion_reason, stage, screener_id, notes)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			b.RunID, r.PaperID, r.Title, string(r.Decision), r.ExclusionReason, string(r.Stage), r.ScreenerID, r.Notes)
		if err != nil {
			return IngestSummary{}, fmt.Errorf("inserting screening record %s: %w", r.PaperID, err)
		}
		sum.Screening++
	}

	for _, d := range b.Decisions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO decisions (run_id, paper_id, reviewer_id, decision, reason) VALUES (?, ?, ?, ?, ?)`,
			b.RunID, d.PaperID, d.ReviewerID, d.Decision, d.Reason)
		if err != nil {
			return IngestSummary{}, fmt.Errorf("inserting decision %s/%s: %w", d.PaperID, d.ReviewerID, err)
		}
		sum.Decisions++
	}

	for _, a := range b.Assessments {
		domains, err := json.Marshal(a.DomainAssessments)
		if err != nil {
			return IngestSummary{}, fmt.Errorf("encoding domains for %s: %w", a.PaperID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO bias_assessments (paper_id, run_id, title, assessor_id, overall_risk, domains, notes)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(paper_id) DO UPDATE SET
				run_id=excluded.run_id, title=excluded.title, assessor_id=excluded.assessor_id,
				overall_risk=excluded.overall_risk, domains=excluded.domains, notes=excluded.notes`,
			a.PaperID, b.RunID, a.Title, a.AssessorID, string(a.OverallRisk), string(domains), a.Notes)
		if err != nil {
			return IngestSummary{}, fmt.Errorf("upserting assessment %s: %w", a.PaperID, err)
		}
		sum.Assessments++
	}

	if err := tx.Commit(); err != nil {
		return IngestSummary{}, fmt.Errorf("committing: %w", err)
	}
	s.log.Info("ingested run", zap.String("run_id", b.RunID),
		zap.Int("papers", sum.Papers), zap.Int("screening", sum.Screening),
		zap.Int("decisions", sum.Decisions), zap.Int("assessments", sum.Assessments))
	return sum, nil
}

func upsertPaper(ctx context.Context, tx *sql.Tx, runID string, p types.PaperRecord) error {
	authors, err := json.Marshal(p.Authors)
	if err != nil {
		return fmt.Errorf("encoding authors: %w", err)
	}
	var year sql.NullInt64
	if p.Year != nil {
		year = sql.NullInt64{Int64: int64(*p.Year), Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO papers (id, run_id, title, authors, year, abstract, doi, url, arxiv_id, source,
			language, publication_type, venue, pdf_url, published_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			run_id=excluded.run_id, title=excluded.title, authors=excluded.authors, year=excluded.year,
			abstract=excluded.abstract, doi=excluded.doi, url=excluded.url, arxiv_id=excluded.arxiv_id,
			source=excluded.source, language=excluded.language, publication_type=excluded.publication_type,
			venue=excluded.venue, pdf_url=excluded.pdf_url, published_date=excluded.published_date`,
		p.ID(), runID, p.Title, string(authors), year, p.Abstract,
		p.Identifiers.DOI, p.Identifiers.URL, p.Identifiers.ArxivID, p.Source,
		p.Language, p.PublicationType, p.Venue, p.PDFURL, p.PublishedDate)
	if err != nil {
		return fmt.Errorf("upserting paper %s: %w", p.ID(), err)
	}
	return nil
}
