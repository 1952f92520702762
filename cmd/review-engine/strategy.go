// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/strategy"
	"github.com/pdiddy/review-engine/pkg/types"
)

var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Generate a search strategy from a research description",
	Long: `Strategy asks the configured model for a PRISMA-style search strategy:
primary and related keywords, exclusion keywords, Boolean search queries, a
year range and publication types. Without an API key, or when the model
answer cannot be parsed, a basic strategy is built from the theme, field
and technologies instead.

The research description comes from --info (YAML or JSON) or from flags.`,
	RunE: runStrategy,
}

func init() {
	addResearchInfoFlags(strategyCmd)
	strategyCmd.Flags().StringP("output", "o", "", "write the strategy to this file (YAML or JSON)")
	strategyCmd.Flags().String("save-info", "", "also write the research description to this file")

	rootCmd.AddCommand(strategyCmd)
}

func runStrategy(cmd *cobra.Command, args []string) error {
	info, err := researchInfoFromFlags(cmd)
	if err != nil {
		return err
	}
	if info.ResearchTheme == "" && info.ResearchField == "" {
		return fmt.Errorf("provide --theme, --field or --info")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	completer, err := newCompleter(cmd.Context(), cfg.Strategy, "strategy")
	if err != nil {
		return err
	}

	s, fallback := strategy.NewGenerator(completer, logger).Generate(cmd.Context(), info)
	if fallback {
		fmt.Fprintln(os.Stderr, "warning: using fallback search strategy")
	}
	strategy.Display(s, os.Stdout)

	if path, _ := cmd.Flags().GetString("save-info"); path != "" {
		if err := strategy.SaveResearchInfo(path, info); err != nil {
			return err
		}
	}
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		if err := strategy.Save(path, s); err != nil {
			return err
		}
		fmt.Printf("Strategy written to %s\n", path)
	}
	return nil
}

// addResearchInfoFlags registers the research description flags.
func addResearchInfoFlags(cmd *cobra.Command) {
	cmd.Flags().String("info", "", "research description file (YAML or JSON)")
	cmd.Flags().String("theme", "", "research theme")
	cmd.Flags().String("field", "", "research field (e.g. machine learning, medicine)")
	cmd.Flags().String("purpose", "", "research purpose")
	cmd.Flags().String("problem", "", "problem statement")
	cmd.Flags().StringSlice("tech", nil, "specific technologies or methods (repeatable)")
	cmd.Flags().String("context", "", "additional context")
	cmd.Flags().StringSlice("known-paper", nil, "known relevant papers (repeatable)")
}

// researchInfoFromFlags reads --info when given, then applies any flags on
// top of it.
func researchInfoFromFlags(cmd *cobra.Command) (types.ResearchInfo, error) {
	var info types.ResearchInfo
	if path, _ := cmd.Flags().GetString("info"); path != "" {
		var err error
		if info, err = strategy.LoadResearchInfo(path); err != nil {
			return types.ResearchInfo{}, err
		}
	}
	set := func(flag string, dst *string) {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			*dst = v
		}
	}
	set("theme", &info.ResearchTheme)
	set("field", &info.ResearchField)
	set("purpose", &info.ResearchPurpose)
	set("problem", &info.ProblemStatement)
	set("context", &info.AdditionalContext)
	if v, _ := cmd.Flags().GetStringSlice("tech"); len(v) > 0 {
		info.SpecificTechnologies = v
	}
	if v, _ := cmd.Flags().GetStringSlice("known-paper"); len(v) > 0 {
		info.KnownPapers = v
	}
	return info, nil
}
