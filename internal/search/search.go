// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search runs a search strategy against the configured source
// connectors. Sources are queried concurrently; within a source, queries
// run one after another with a pause between them. A failing query
// degrades to an empty result for that query and is recorded, never
// aborting the other queries or sources.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/review-engine/internal/normalize"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Defaults applied when SearchConfig leaves a field zero.
const (
	DefaultMaxResults  = 20
	DefaultParallelism = 4
	DefaultUserAgent   = "review-engine/0.1"
)

// Request is one query sent to one source.
type Request struct {
	Query     string
	Limit     int
	YearRange *types.YearRange
}

// Backend searches a single source and returns normalized records.
type Backend interface {
	Name() string
	Search(ctx context.Context, req Request) ([]types.PaperRecord, error)
}

// SourceResult is everything one source returned for a strategy.
type SourceResult struct {
	Name    string              `json:"name" yaml:"name"`
	Records []types.PaperRecord `json:"records" yaml:"records"`
	Errors  []string            `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Output holds per-source results in backend order.
type Output struct {
	Sources []SourceResult `json:"sources" yaml:"sources"`
}

// Total counts records across sources.
func (o Output) Total() int {
	n := 0
	for _, s := range o.Sources {
		n += len(s.Records)
	}
	return n
}

// Errors lists every per-query failure as "source: error".
func (o Output) Errors() []string {
	var out []string
	for _, s := range o.Sources {
		for _, e := range s.Errors {
			out = append(out, s.Name+": "+e)
		}
	}
	return out
}

// Lists returns each source's records, in backend order, for merging.
func (o Output) Lists() [][]types.PaperRecord {
	out := make([][]types.PaperRecord, len(o.Sources))
	for i, s := range o.Sources {
		out[i] = s.Records
	}
	return out
}

// Searcher fans a strategy out to its backends.
type Searcher struct {
	backends []Backend
	cfg      types.SearchConfig
	log      *zap.Logger
	w        io.Writer
}

// NewSearcher returns a Searcher. Progress and warnings are written to w;
// a nil w discards them.
func NewSearcher(backends []Backend, cfg types.SearchConfig, log *zap.Logger, w io.Writer) *Searcher {
	if log == nil {
		log = zap.NewNop()
	}
	if w == nil {
		w = io.Discard
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = DefaultParallelism
	}
	return &Searcher{backends: backends, cfg: cfg, log: log, w: w}
}

// PerQueryLimit splits max results evenly across queries, at least one each.
func PerQueryLimit(maxResults, queries int) int {
	if queries <= 0 {
		return maxResults
	}
	return max(1, maxResults/queries)
}

// Run executes every strategy query against every backend. It fails only
// when there is nothing to run; source failures are reported in Output.
func (s *Searcher) Run(ctx context.Context, strategy types.SearchStrategy) (Output, error) {
	queries := nonEmpty(strategy.SearchQueries)
	if len(queries) == 0 {
		return Output{}, fmt.Errorf("search strategy has no queries")
	}
	if len(s.backends) == 0 {
		return Output{}, fmt.Errorf("no search sources configured")
	}

	limit := PerQueryLimit(s.cfg.MaxResults, len(queries))
	results := make([]SourceResult, len(s.backends))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)
	for i, b := range s.backends {
		g.Go(func() error {
			results[i] = s.runBackend(gctx, b, queries, limit, strategy.YearRange)
			return nil
		})
	}
	g.Wait()

	for _, r := range results {
		for _, e := range r.Errors {
			fmt.Fprintf(s.w, "warning: %s: %s\n", r.Name, e)
		}
		fmt.Fprintf(s.w, "%s: %d records\n", r.Name, len(r.Records))
	}
	return Output{Sources: results}, nil
}

func (s *Searcher) runBackend(ctx context.Context, b Backend, queries []string, limit int, yr *types.YearRange) SourceResult {
	res := SourceResult{Name: b.Name()}
	for i, q := range queries {
		if i > 0 && s.cfg.InterQueryDelay > 0 {
			if err := sleep(ctx, s.cfg.InterQueryDelay); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("query %q: %v", q, err))
				break
			}
		}
		s.log.Info("searching", zap.String("source", res.Name),
			zap.Int("query", i+1), zap.Int("queries", len(queries)), zap.String("q", q))

		recs, err := b.Search(ctx, Request{Query: q, Limit: limit, YearRange: yr})
		if err != nil {
			s.log.Warn("query failed", zap.String("source", res.Name), zap.String("q", q), zap.Error(err))
			res.Errors = append(res.Errors, fmt.Sprintf("query %q: %v", q, err))
			continue
		}
		res.Records = append(res.Records, recs...)
	}
	res.Records = normalize.FilterByYear(res.Records, yr)
	return res
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func nonEmpty(qs []string) []string {
	var out []string
	for _, q := range qs {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}

// FormatTable writes records as a human-readable table to w.
func FormatTable(records []types.PaperRecord, w io.Writer) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %s\n", "#", "Title", "Authors", "Year", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 104))
	for i, r := range records {
		year := ""
		if r.Year != nil {
			year = fmt.Sprintf("%d", *r.Year)
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %s\n",
			i+1, truncate(r.Title, 60), formatAuthors(r.Authors), year, r.Source)
	}
	fmt.Fprintf(w, "\n%d results\n", len(records))
}

// FormatJSON writes records as indented JSON to w.
func FormatJSON(records []types.PaperRecord, w io.Writer) error {
	if records == nil {
		records = []types.PaperRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
