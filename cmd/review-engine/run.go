// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/pipeline"
	"github.com/pdiddy/review-engine/internal/retrieve"
	"github.com/pdiddy/review-engine/internal/screening"
	"github.com/pdiddy/review-engine/internal/search"
	"github.com/pdiddy/review-engine/internal/strategy"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a complete review: strategy, search, screening, PRISMA, reports",
	Long: `Run chains every stage for one research topic:

  1. Strategy: generate a search strategy (or load --strategy)
  2. Search: query the enabled sources and deduplicate
  3. Screen: apply the screening criteria
  4. Retrieve: download full-text PDFs for included papers (--full-text)
  5. Account: build the PRISMA flow and its Markdown report
  6. Report: write per-paper and summary reports for included papers

Every output lands in <data-dir>/runs/<run-id>/. With --store the run is
also ingested into the review database.`,
	RunE: runRun,
}

func init() {
	addResearchInfoFlags(runCmd)
	runCmd.Flags().String("strategy", "", "search strategy file; skips strategy generation")
	runCmd.Flags().String("criteria", "", "screening criteria file (default from config, then field defaults)")
	runCmd.Flags().String("data-dir", "", "base directory for run outputs (default from config)")
	runCmd.Flags().StringSlice("source", nil, "restrict to sources: arxiv, semantic-scholar, jstage, ieee, government")
	runCmd.Flags().StringSlice("portal", nil, "government portal IDs to search")
	runCmd.Flags().Int("max-results", 0, "maximum records per source (default from config)")
	runCmd.Flags().Duration("delay", 0, "pause between queries to one source (default from config)")
	runCmd.Flags().Bool("skip-reports", false, "do not write paper reports")
	runCmd.Flags().Bool("full-text", false, "download PDFs for included papers (default from config)")
	runCmd.Flags().Bool("store", false, "ingest the run into the review database")
	runCmd.Flags().String("store-dir", "", "database directory (default from config)")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applySearchFlags(cmd, &cfg.Search); err != nil {
		return err
	}
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		cfg.DataDir = dir
	}

	var opts pipeline.Options
	if opts.Info, err = researchInfoFromFlags(cmd); err != nil {
		return err
	}
	if path, _ := cmd.Flags().GetString("strategy"); path != "" {
		s, err := strategy.Load(path)
		if err != nil {
			return err
		}
		opts.Strategy = &s
	}
	if path, _ := cmd.Flags().GetString("criteria"); path != "" {
		c, err := screening.LoadCriteria(path)
		if err != nil {
			return err
		}
		opts.Criteria = &c
	}
	opts.SkipReports, _ = cmd.Flags().GetBool("skip-reports")

	deps := pipeline.Deps{
		Backends: search.Backends(cfg.Search, logger),
		Log:      logger,
		Out:      os.Stdout,
	}
	if opts.Strategy == nil {
		if deps.StrategyLLM, err = newCompleter(ctx, cfg.Strategy, "strategy"); err != nil {
			return err
		}
	}
	if !opts.SkipReports {
		if deps.ReportLLM, err = newCompleter(ctx, cfg.Report.AIConfig, "report"); err != nil {
			return err
		}
	}
	if f := cmd.Flags().Lookup("full-text"); f.Changed {
		cfg.Retrieval.Enabled, _ = cmd.Flags().GetBool("full-text")
	}
	if cfg.Retrieval.Enabled {
		deps.FullText = retrieve.New(cfg.Retrieval, logger)
	}
	if useStore, _ := cmd.Flags().GetBool("store"); useStore {
		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		deps.Store = st
	}

	res, err := pipeline.New(cfg, deps).Run(ctx, opts)
	if err != nil {
		return err
	}
	printRunSummary(res)
	return nil
}

func printRunSummary(res *pipeline.Result) {
	fmt.Println()
	fmt.Printf("Run %s complete\n", res.RunID)
	fmt.Printf("  Records retrieved:   %d\n", res.Retrieved)
	fmt.Printf("  Duplicates removed:  %d\n", res.DuplicatesRemoved)
	fmt.Printf("  Records screened:    %d\n", res.Screening.Total)
	fmt.Printf("  Records excluded:    %d\n", res.Screening.Excluded)
	fmt.Printf("  Records included:    %d\n", len(res.Included))
	if res.FullText != nil {
		fmt.Printf("  Full text retrieved: %d (%d not retrieved)\n",
			res.FullText.Downloaded+res.FullText.Skipped, res.FullText.NotRetrieved)
	}
	fmt.Printf("  Studies included:    %d\n", res.Flow.Included.StudiesIncluded)
	for _, e := range res.SourceErrors {
		fmt.Printf("  Source error:        %s\n", e)
	}
	fmt.Printf("  Outputs:             %s\n", res.Dir)
	if res.Stored != nil {
		fmt.Printf("  Stored papers:       %d\n", res.Stored.Papers)
	}
	if res.FallbackStrategy {
		fmt.Println("  Note: the fallback search strategy was used; review " + pipeline.StrategyFile + " before relying on the results.")
	}
}
