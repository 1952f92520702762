// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one literature review end to end: strategy, search,
// deduplication, screening, full-text retrieval, PRISMA accounting and
// reports. Every run owns its criteria, reviewer manager and flow state;
// nothing is shared between runs except the optional review database.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/review-engine/internal/bias"
	"github.com/pdiddy/review-engine/internal/dedup"
	"github.com/pdiddy/review-engine/internal/docfile"
	"github.com/pdiddy/review-engine/internal/llm"
	"github.com/pdiddy/review-engine/internal/normalize"
	"github.com/pdiddy/review-engine/internal/prisma"
	"github.com/pdiddy/review-engine/internal/report"
	"github.com/pdiddy/review-engine/internal/retrieve"
	"github.com/pdiddy/review-engine/internal/reviewers"
	"github.com/pdiddy/review-engine/internal/screening"
	"github.com/pdiddy/review-engine/internal/search"
	"github.com/pdiddy/review-engine/internal/store"
	"github.com/pdiddy/review-engine/internal/strategy"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Run directory layout, relative to DataDir/runs/<run-id>/.
const (
	RunsDir          = "runs"
	ManifestFile     = "run.json"
	ResearchInfoFile = "research_info.yaml"
	StrategyFile     = "strategy.yaml"
	CriteriaFile     = "criteria.yaml"
	SearchFile       = "search_results.json"
	ScreeningFile    = "screening.json"
	DecisionsFile    = "decisions.json"
	AssessmentsDir   = "assessments"
	PrismaFile       = "prisma.json"
	PrismaReportFile = "prisma.md"
	ReportsDir       = "reports"
	FullTextDir      = "fulltext"
	RetrievalFile    = "retrieval.json"
)

// DefaultDataDir is used when the configuration leaves DataDir empty.
const DefaultDataDir = "data"

// AutomatedReviewerName is the display name of the criteria screener in the
// run's decision log.
const AutomatedReviewerName = "Automated screening"

// ErrNothingToSearch is returned when a run has neither a strategy nor
// research information to build one from.
var ErrNothingToSearch = errors.New("no search strategy and no research theme or field")

// FullTextRetriever downloads full-text reports for included papers.
type FullTextRetriever interface {
	RetrieveAll(ctx context.Context, papers []types.PaperRecord, dir string, w io.Writer) (retrieve.Result, error)
}

// Deps are the collaborators a Pipeline calls. Only Backends is required.
type Deps struct {
	Backends    []search.Backend
	StrategyLLM llm.Completer
	ReportLLM   llm.Completer

	// Store, when set, receives every run's records.
	Store *store.Store

	// FullText, when set, fetches reports for included papers. Papers it
	// cannot retrieve are counted as reports not retrieved.
	FullText FullTextRetriever

	Log   *zap.Logger
	Out   io.Writer
	Now   func() time.Time
	NewID func() string
}

// Pipeline runs reviews with one configuration.
type Pipeline struct {
	cfg  types.PipelineConfig
	deps Deps
}

// New returns a Pipeline. Missing optional dependencies get defaults.
func New(cfg types.PipelineConfig, deps Deps) *Pipeline {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	if cfg.Screening.Stage == "" {
		cfg.Screening.Stage = types.StageTitleAbstract
	}
	return &Pipeline{cfg: cfg, deps: deps}
}

// Options select the inputs of one run.
type Options struct {
	// Info describes the research topic. It seeds the strategy, the
	// default criteria and the reports.
	Info types.ResearchInfo

	// Strategy, when set, is used as is instead of generating one.
	Strategy *types.SearchStrategy

	// Criteria, when set, override the configured criteria file.
	Criteria *types.ScreeningCriteria

	// SkipReports skips report generation.
	SkipReports bool
}

// Result describes a finished run.
type Result struct {
	RunID             string                 `json:"run_id"`
	Dir               string                 `json:"dir"`
	StartedAt         time.Time              `json:"started_at"`
	Strategy          types.SearchStrategy   `json:"strategy"`
	FallbackStrategy  bool                   `json:"fallback_strategy"`
	Retrieved         int                    `json:"retrieved"`
	DuplicatesRemoved int                    `json:"duplicates_removed"`
	Unique            int                    `json:"unique"`
	SourceErrors      []string               `json:"source_errors,omitempty"`
	Screening         types.ScreeningSummary `json:"screening"`
	Included          []types.PaperRecord    `json:"included"`
	Flow              types.FlowState        `json:"flow"`
	FullText          *retrieve.Result       `json:"full_text,omitempty"`
	Reports           *report.Written        `json:"reports,omitempty"`
	Stored            *store.IngestSummary   `json:"stored,omitempty"`
}

// Run executes one review. Source failures degrade the search; they do not
// fail the run. The run directory is DataDir/runs/<run-id>.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Strategy == nil && !hasInfo(opts.Info) {
		return nil, ErrNothingToSearch
	}
	log := p.deps.Log
	w := p.deps.Out
	runID := p.deps.NewID()
	res := &Result{
		RunID:     runID,
		Dir:       filepath.Join(p.cfg.DataDir, RunsDir, runID),
		StartedAt: p.deps.Now(),
	}
	log = log.With(zap.String("run_id", runID))
	if err := os.MkdirAll(res.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating run directory: %w", err)
	}
	fmt.Fprintf(w, "run %s -> %s\n", runID, res.Dir)

	if err := p.resolveStrategy(ctx, opts, res, log); err != nil {
		return nil, err
	}
	if hasInfo(opts.Info) {
		if err := strategy.SaveResearchInfo(filepath.Join(res.Dir, ResearchInfoFile), opts.Info); err != nil {
			return nil, err
		}
	}
	if err := strategy.Save(filepath.Join(res.Dir, StrategyFile), res.Strategy); err != nil {
		return nil, err
	}

	criteria, err := p.resolveCriteria(opts, res.Strategy)
	if err != nil {
		return nil, err
	}
	if err := screening.SaveCriteria(filepath.Join(res.Dir, CriteriaFile), criteria); err != nil {
		return nil, err
	}

	// Search and deduplicate.
	searcher := search.NewSearcher(p.deps.Backends, p.cfg.Search, log, w)
	out, err := searcher.Run(ctx, res.Strategy)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	merged := dedup.Merge(out.Lists()...)
	res.Retrieved = out.Total()
	res.DuplicatesRemoved = merged.Removed
	res.Unique = len(merged.Records)
	res.SourceErrors = out.Errors()
	fmt.Fprintf(w, "retrieved %d records, %d duplicates removed, %d unique\n",
		res.Retrieved, res.DuplicatesRemoved, res.Unique)

	rf := search.NewResultFile(res.Strategy, out, merged.Records, merged.Removed, p.deps.Now())
	if err := search.WriteResultFile(filepath.Join(res.Dir, SearchFile), rf); err != nil {
		return nil, err
	}

	// Screen.
	manager, err := screening.NewManager(criteria, log)
	if err != nil {
		return nil, err
	}
	records := manager.ScreenAll(merged.Records, p.cfg.Screening.Stage)
	res.Screening = manager.Summary()
	res.Included = manager.Included(merged.Records)
	if err := manager.SaveRecords(filepath.Join(res.Dir, ScreeningFile)); err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "screened %d records: %d included, %d excluded\n",
		res.Screening.Total, res.Screening.Included, res.Screening.Excluded)

	rm := reviewers.NewManager(log)
	rm.AddReviewer(types.AutomatedScreener, AutomatedReviewerName)
	for _, r := range records {
		rm.RecordDecision(types.ScreeningDecision{
			PaperID:    r.PaperID,
			ReviewerID: r.ScreenerID,
			Decision:   string(r.Decision),
			Reason:     r.ExclusionReason,
		})
	}
	if err := rm.Save(filepath.Join(res.Dir, DecisionsFile)); err != nil {
		return nil, err
	}

	assessments, err := writeAssessments(filepath.Join(res.Dir, AssessmentsDir), res.Included)
	if err != nil {
		return nil, err
	}

	notRetrieved := 0
	if p.deps.FullText != nil {
		fr, err := p.deps.FullText.RetrieveAll(ctx, res.Included, filepath.Join(res.Dir, FullTextDir), w)
		if err != nil {
			return nil, fmt.Errorf("retrieving full text: %w", err)
		}
		res.FullText = &fr
		notRetrieved = fr.NotRetrieved
		if err := docfile.Write(filepath.Join(res.Dir, RetrievalFile), fr); err != nil {
			return nil, err
		}
	}

	// Account.
	flow := prisma.New(prisma.WithClock(p.deps.Now))
	Account(flow, out.Sources, merged.Removed, res.Screening, len(res.Included)-notRetrieved, p.deps.Now().Format(prisma.DateLayout))
	flow.SetReportsNotRetrieved(notRetrieved)
	res.Flow = flow.State()
	if err := flow.Save(filepath.Join(res.Dir, PrismaFile)); err != nil {
		return nil, err
	}
	if err := flow.SaveMarkdownReport(filepath.Join(res.Dir, PrismaReportFile)); err != nil {
		return nil, err
	}

	if !opts.SkipReports {
		gen := report.NewGenerator(p.deps.ReportLLM, log, report.WithClock(p.deps.Now))
		written, err := gen.WriteAll(ctx, filepath.Join(res.Dir, ReportsDir), res.Included, opts.Info, res.Strategy, w)
		if err != nil {
			return nil, fmt.Errorf("writing reports: %w", err)
		}
		res.Reports = &written
	}

	if p.deps.Store != nil {
		sum, err := p.deps.Store.Ingest(ctx, store.Bundle{
			RunID:       runID,
			Papers:      merged.Records,
			Screening:   records,
			Decisions:   rm.Log(),
			Assessments: assessments,
		})
		if err != nil {
			return nil, fmt.Errorf("storing run: %w", err)
		}
		res.Stored = &sum
		fmt.Fprintf(w, "stored %d papers in review database\n", sum.Papers)
	}

	if err := docfile.Write(filepath.Join(res.Dir, ManifestFile), res); err != nil {
		return nil, err
	}
	log.Info("review run complete",
		zap.Int("retrieved", res.Retrieved),
		zap.Int("unique", res.Unique),
		zap.Int("included", len(res.Included)))
	return res, nil
}

func (p *Pipeline) resolveStrategy(ctx context.Context, opts Options, res *Result, log *zap.Logger) error {
	if opts.Strategy != nil {
		res.Strategy = *opts.Strategy
		return nil
	}
	gen := strategy.NewGenerator(p.deps.StrategyLLM, log)
	res.Strategy, res.FallbackStrategy = gen.Generate(ctx, opts.Info)
	if res.FallbackStrategy {
		fmt.Fprintln(p.deps.Out, "warning: using fallback search strategy")
	}
	return nil
}

// resolveCriteria picks explicit criteria, then the configured file, then
// the field defaults narrowed to the strategy's year range.
func (p *Pipeline) resolveCriteria(opts Options, s types.SearchStrategy) (types.ScreeningCriteria, error) {
	if opts.Criteria != nil {
		return *opts.Criteria, screening.Validate(*opts.Criteria)
	}
	if f := p.cfg.Screening.CriteriaFile; f != "" {
		return screening.LoadCriteria(f)
	}
	theme := opts.Info.ResearchTheme
	if theme == "" && len(s.PrimaryKeywords) > 0 {
		theme = s.PrimaryKeywords[0]
	}
	c := screening.GenerateDefaultCriteria(opts.Info.ResearchField, theme)
	if s.YearRange != nil && s.YearRange.Valid() {
		c.YearRange = *s.YearRange
	}
	return c, nil
}

// Account records a search and its screening in f. Government portals are
// websites and organisations, so they count as other sources.
func Account(f *prisma.Flow, sources []search.SourceResult, removed int, summary types.ScreeningSummary, included int, searchDate string) {
	for _, src := range sources {
		if src.Name == normalize.SourceGovernment {
			f.AddOtherSourceResults(src.Name, len(src.Records))
			continue
		}
		f.AddDatabaseResults(src.Name, len(src.Records), searchDate)
	}
	f.SetDuplicatesRemoved(removed)
	f.FromScreening(summary)
	f.SetFinalIncluded(included, 0)
}

// writeAssessments writes one blank risk-of-bias assessment per included
// paper for reviewers to fill in.
func writeAssessments(dir string, papers []types.PaperRecord) ([]types.RiskOfBiasAssessment, error) {
	if len(papers) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating assessment directory: %w", err)
	}
	out := make([]types.RiskOfBiasAssessment, 0, len(papers))
	for i, p := range papers {
		a := bias.NewAssessment(p.ID(), p.Title, "")
		name := fmt.Sprintf("%03d_%s.yaml", i+1, report.SafeTitle(p.Title))
		if err := bias.Save(filepath.Join(dir, name), a); err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}

func hasInfo(info types.ResearchInfo) bool {
	return info.ResearchTheme != "" || info.ResearchField != ""
}
