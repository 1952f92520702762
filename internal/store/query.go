// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

// QueryOptions holds parameters for paper queries.
type QueryOptions struct {
	// Query is a full-text search over titles and abstracts.
	Query string

	// Decision keeps papers whose latest screening decision matches.
	Decision types.Decision

	// Source filters by the connector that produced the paper.
	Source string

	// MinYear and MaxYear bound the publication year; zero means unbounded.
	MinYear int
	MaxYear int

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// QueryResult is a paper with its latest screening decision and overall
// risk of bias, when recorded.
type QueryResult struct {
	ID          string            `json:"id" yaml:"id"`
	RunID       string            `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Paper       types.PaperRecord `json:"paper" yaml:"paper"`
	Decision    types.Decision    `json:"decision,omitempty" yaml:"decision,omitempty"`
	OverallRisk types.Rating      `json:"overall_risk,omitempty" yaml:"overall_risk,omitempty"`
}

const paperColumns = `p.id, p.run_id, p.title, p.authors, p.year, p.abstract, p.doi, p.url, p.arxiv_id,
	p.source, p.language, p.publication_type, p.venue, p.pdf_url, p.published_date,
	(SELECT s.decision FROM screening_records s WHERE s.paper_id = p.id ORDER BY s.seq DESC LIMIT 1),
	b.overall_risk`

// Query returns papers matching opts. Full-text queries are ranked by
// relevance; other queries are ordered by year (newest first) then title.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	return s.query(ctx, opts, opts.MaxResults)
}

func (s *Store) query(ctx context.Context, opts QueryOptions, limit int) ([]QueryResult, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != "" && s.fts
	)
	qb.WriteString(`SELECT ` + paperColumns)
	if useFTS {
		qb.WriteString(`
			FROM papers_fts
			JOIN papers p ON p.rowid = papers_fts.rowid
			LEFT JOIN bias_assessments b ON b.paper_id = p.id
			WHERE papers_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(`
			FROM papers p
			LEFT JOIN bias_assessments b ON b.paper_id = p.id
			WHERE 1=1`)
		if opts.Query != "" {
			qb.WriteString(` AND (p.title LIKE ? OR p.abstract LIKE ?)`)
			like := "%" + opts.Query + "%"
			args = append(args, like, like)
		}
	}

	if opts.Source != "" {
		qb.WriteString(` AND p.source = ?`)
		args = append(args, opts.Source)
	}
	if opts.MinYear > 0 {
		qb.WriteString(` AND p.year >= ?`)
		args = append(args, opts.MinYear)
	}
	if opts.MaxYear > 0 {
		qb.WriteString(` AND p.year <= ?`)
		args = append(args, opts.MaxYear)
	}
	if opts.Decision != "" {
		qb.WriteString(` AND (SELECT s.decision FROM screening_records s WHERE s.paper_id = p.id ORDER BY s.seq DESC LIMIT 1) = ?`)
		args = append(args, string(opts.Decision))
	}

	if useFTS {
		qb.WriteString(` ORDER BY papers_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY p.year DESC, p.title`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying review database: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating results: %w", err)
	}
	return results, nil
}

func scanResult(rows *sql.Rows) (QueryResult, error) {
	var (
		r                                        QueryResult
		runID, title, authors, abstract, doi     sql.NullString
		url, arxivID, source, lang, pubType      sql.NullString
		venue, pdfURL, published, decision, risk sql.NullString
		year                                     sql.NullInt64
	)
	if err := rows.Scan(&r.ID, &runID, &title, &authors, &year, &abstract, &doi, &url, &arxivID,
		&source, &lang, &pubType, &venue, &pdfURL, &published, &decision, &risk); err != nil {
		return QueryResult{}, fmt.Errorf("scanning row: %w", err)
	}
	r.RunID = runID.String
	r.Paper = types.PaperRecord{
		Title:    title.String,
		Abstract: abstract.String,
		Identifiers: types.Identifiers{
			DOI:     doi.String,
			URL:     url.String,
			ArxivID: arxivID.String,
		},
		Source:          source.String,
		Language:        lang.String,
		PublicationType: pubType.String,
		Venue:           venue.String,
		PDFURL:          pdfURL.String,
		PublishedDate:   published.String,
	}
	if authors.Valid && authors.String != "" {
		if err := json.Unmarshal([]byte(authors.String), &r.Paper.Authors); err != nil {
			return QueryResult{}, fmt.Errorf("decoding authors of %s: %w", r.ID, err)
		}
	}
	if year.Valid {
		r.Paper.Year = types.Year(int(year.Int64))
	}
	r.Decision = types.Decision(decision.String)
	r.OverallRisk = types.Rating(risk.String)
	return r, nil
}

// Stats counts rows in the database.
type Stats struct {
	Papers      int            `json:"papers" yaml:"papers"`
	Screening   int            `json:"screening" yaml:"screening"`
	Decisions   int            `json:"decisions" yaml:"decisions"`
	Assessments int            `json:"assessments" yaml:"assessments"`
	BySource    map[string]int `json:"by_source" yaml:"by_source"`
}

// Stats reports row counts and papers per source.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{BySource: map[string]int{}}
	counts := []struct {
		table string
		dst   *int
	}{
		{"papers", &st.Papers},
		{"screening_records", &st.Screening},
		{"decisions", &st.Decisions},
		{"bias_assessments", &st.Assessments},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM `+c.table).Scan(c.dst); err != nil {
			return Stats{}, fmt.Errorf("counting %s: %w", c.table, err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT COALESCE(source, ''), count(*) FROM papers GROUP BY source`)
	if err != nil {
		return Stats{}, fmt.Errorf("counting papers by source: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var src string
		var n int
		if err := rows.Scan(&src, &n); err != nil {
			return Stats{}, fmt.Errorf("scanning source count: %w", err)
		}
		st.BySource[src] = n
	}
	return st, rows.Err()
}

// Decisions returns the reviewer decisions recorded for a paper in
// insertion order.
func (s *Store) Decisions(ctx context.Context, paperID string) ([]types.ScreeningDecision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT paper_id, reviewer_id, decision, COALESCE(reason, '') FROM decisions WHERE paper_id = ? ORDER BY seq`,
		paperID)
	if err != nil {
		return nil, fmt.Errorf("querying decisions: %w", err)
	}
	defer rows.Close()
	var out []types.ScreeningDecision
	for rows.Next() {
		var d types.ScreeningDecision
		if err := rows.Scan(&d.PaperID, &d.ReviewerID, &d.Decision, &d.Reason); err != nil {
			return nil, fmt.Errorf("scanning decision: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Assessment loads the stored risk-of-bias assessment for a paper. The
// second result is false when none is stored.
func (s *Store) Assessment(ctx context.Context, paperID string) (types.RiskOfBiasAssessment, bool, error) {
	var (
		a                                    types.RiskOfBiasAssessment
		title, assessor, risk, domains, note sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT paper_id, title, assessor_id, overall_risk, domains, notes FROM bias_assessments WHERE paper_id = ?`,
		paperID).Scan(&a.PaperID, &title, &assessor, &risk, &domains, &note)
	if err == sql.ErrNoRows {
		return types.RiskOfBiasAssessment{}, false, nil
	}
	if err != nil {
		return types.RiskOfBiasAssessment{}, false, fmt.Errorf("querying assessment: %w", err)
	}
	a.Title, a.AssessorID, a.OverallRisk, a.Notes = title.String, assessor.String, types.Rating(risk.String), note.String
	if domains.String != "" {
		if err := json.Unmarshal([]byte(domains.String), &a.DomainAssessments); err != nil {
			return types.RiskOfBiasAssessment{}, false, fmt.Errorf("decoding domains: %w", err)
		}
	}
	return a, true, nil
}
