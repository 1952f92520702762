// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/docfile"
	"github.com/pdiddy/review-engine/internal/report"
	"github.com/pdiddy/review-engine/internal/screening"
	"github.com/pdiddy/review-engine/internal/search"
	"github.com/pdiddy/review-engine/internal/strategy"
	"github.com/pdiddy/review-engine/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report <results-file>",
	Short: "Write per-paper and summary reports",
	Long: `Report writes one Markdown report per paper (NNN_<title>.md under
papers/), a summary report, a papers list and a CSL YAML bibliography.
Reports are written by the configured model; without an API key, or when
the model fails, a template report listing the paper's metadata is used.

With --screening, only papers whose latest decision is Include are
reported.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	addResearchInfoFlags(reportCmd)
	reportCmd.Flags().String("screening", "", "screening batch file; report only included papers")
	reportCmd.Flags().String("strategy", "", "search strategy file (default: the one saved with the results)")
	reportCmd.Flags().StringP("output-dir", "o", "", "report directory (default from config, then output/reports)")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rf, err := search.ReadResultFile(args[0])
	if err != nil {
		return err
	}
	info, err := researchInfoFromFlags(cmd)
	if err != nil {
		return err
	}

	s := rf.Strategy
	if path, _ := cmd.Flags().GetString("strategy"); path != "" {
		if s, err = strategy.Load(path); err != nil {
			return err
		}
	}

	papers := rf.Records
	if path, _ := cmd.Flags().GetString("screening"); path != "" {
		if papers, err = includedPapers(path, papers); err != nil {
			return err
		}
	}

	dir, _ := cmd.Flags().GetString("output-dir")
	if dir == "" {
		dir = cfg.Report.OutputDir
	}
	if dir == "" {
		dir = "output/reports"
	}

	completer, err := newCompleter(cmd.Context(), cfg.Report.AIConfig, "report")
	if err != nil {
		return err
	}
	_, err = report.NewGenerator(completer, logger).WriteAll(cmd.Context(), dir, papers, info, s, os.Stdout)
	return err
}

// includedPapers filters papers to those included in a screening batch.
func includedPapers(path string, papers []types.PaperRecord) ([]types.PaperRecord, error) {
	var batch types.ScreeningBatch
	if err := docfile.Read(path, &batch); err != nil {
		return nil, err
	}
	m, err := screening.NewManager(screening.DefaultCriteria(), logger)
	if err != nil {
		return nil, err
	}
	for _, r := range batch.Records {
		m.AddRecord(r)
	}
	return m.Included(papers), nil
}
