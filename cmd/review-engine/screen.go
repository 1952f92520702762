// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/docfile"
	"github.com/pdiddy/review-engine/internal/screening"
	"github.com/pdiddy/review-engine/internal/search"
	"github.com/pdiddy/review-engine/pkg/types"
)

var screenCmd = &cobra.Command{
	Use:   "screen <results-file>",
	Short: "Screen search results against inclusion criteria",
	Long: `Screen applies the screening criteria to every record of a saved search
(see "search --output"). Checks run in order (year range, language,
publication type) and the first failure becomes the exclusion reason.
Records with an unknown year pass the year check.

Criteria come from --criteria, the configured criteria file, or the
defaults for --field and --theme.`,
	Args: cobra.ExactArgs(1),
	RunE: runScreen,
}

var screenCriteriaCmd = &cobra.Command{
	Use:   "criteria",
	Short: "Write default screening criteria for a field",
	Long: `Criteria writes the default criteria (English, 2018-2024, journal
articles and conference papers) with inclusion and exclusion items for the
given field and theme, for hand editing.`,
	RunE: runScreenCriteria,
}

var screenSummaryCmd = &cobra.Command{
	Use:   "summary <screening-file>",
	Short: "Summarize a screening batch",
	Args:  cobra.ExactArgs(1),
	RunE:  runScreenSummary,
}

func init() {
	screenCmd.Flags().String("criteria", "", "criteria file (YAML or JSON)")
	screenCmd.Flags().String("field", "", "research field for default criteria")
	screenCmd.Flags().String("theme", "", "research theme for default criteria")
	screenCmd.Flags().String("stage", "", "screening stage: title_abstract or full_text (default from config)")
	screenCmd.Flags().StringP("output", "o", "screening.json", "screening batch file")
	screenCmd.Flags().String("included", "", "also write the included records to this file")

	screenCriteriaCmd.Flags().String("field", "", "research field")
	screenCriteriaCmd.Flags().String("theme", "", "research theme")
	screenCriteriaCmd.Flags().StringP("output", "o", "criteria.yaml", "criteria file")

	screenCmd.AddCommand(screenCriteriaCmd)
	screenCmd.AddCommand(screenSummaryCmd)
	rootCmd.AddCommand(screenCmd)
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rf, err := search.ReadResultFile(args[0])
	if err != nil {
		return err
	}

	criteria, err := criteriaFromFlags(cmd, cfg.Screening)
	if err != nil {
		return err
	}
	stage := cfg.Screening.Stage
	if v, _ := cmd.Flags().GetString("stage"); v != "" {
		stage = types.Stage(v)
	}
	if stage != types.StageTitleAbstract && stage != types.StageFullText {
		return fmt.Errorf("unknown screening stage %q", stage)
	}

	m, err := screening.NewManager(criteria, logger)
	if err != nil {
		return err
	}
	m.ScreenAll(rf.Records, stage)

	out, _ := cmd.Flags().GetString("output")
	if err := m.SaveRecords(out); err != nil {
		return err
	}
	printScreeningSummary(m.Summary())
	fmt.Printf("Screening records written to %s\n", out)

	if path, _ := cmd.Flags().GetString("included"); path != "" {
		included := m.Included(rf.Records)
		if included == nil {
			included = []types.PaperRecord{}
		}
		if err := docfile.Write(path, included); err != nil {
			return err
		}
		fmt.Printf("Included records written to %s\n", path)
	}
	return nil
}

func criteriaFromFlags(cmd *cobra.Command, sc types.ScreeningConfig) (types.ScreeningCriteria, error) {
	path, _ := cmd.Flags().GetString("criteria")
	if path == "" {
		path = sc.CriteriaFile
	}
	if path != "" {
		return screening.LoadCriteria(path)
	}
	field, _ := cmd.Flags().GetString("field")
	theme, _ := cmd.Flags().GetString("theme")
	return screening.GenerateDefaultCriteria(field, theme), nil
}

func runScreenCriteria(cmd *cobra.Command, args []string) error {
	field, _ := cmd.Flags().GetString("field")
	theme, _ := cmd.Flags().GetString("theme")
	out, _ := cmd.Flags().GetString("output")
	if err := screening.SaveCriteria(out, screening.GenerateDefaultCriteria(field, theme)); err != nil {
		return err
	}
	fmt.Printf("Criteria written to %s\n", out)
	return nil
}

func runScreenSummary(cmd *cobra.Command, args []string) error {
	var batch types.ScreeningBatch
	if err := docfile.Read(args[0], &batch); err != nil {
		return err
	}
	printScreeningSummary(screening.Summarize(batch.Records))
	return nil
}

func printScreeningSummary(s types.ScreeningSummary) {
	fmt.Fprintf(os.Stdout, "Screened:  %d\nIncluded:  %d\nExcluded:  %d\nUncertain: %d\n",
		s.Total, s.Included, s.Excluded, s.Uncertain)
	if len(s.ExclusionReasons) == 0 {
		return
	}
	reasons := make([]string, 0, len(s.ExclusionReasons))
	for r := range s.ExclusionReasons {
		reasons = append(reasons, r)
	}
	sort.Slice(reasons, func(i, j int) bool {
		a, b := s.ExclusionReasons[reasons[i]], s.ExclusionReasons[reasons[j]]
		if a != b {
			return a > b
		}
		return reasons[i] < reasons[j]
	})
	fmt.Println("\nExclusion reasons:")
	for _, r := range reasons {
		fmt.Printf("  %4d  %s\n", s.ExclusionReasons[r], r)
	}
}
