// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/dedup"
	"github.com/pdiddy/review-engine/internal/search"
	"github.com/pdiddy/review-engine/internal/strategy"
	"github.com/pdiddy/review-engine/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search academic sources for candidate papers",
	Long: `Search runs every query of a search strategy against the enabled sources
(arXiv, Semantic Scholar, J-STAGE, IEEE Xplore, government portals) in
parallel. Records are normalized, filtered to the strategy's year range and
deduplicated across sources. A failing source is reported and skipped.

Queries come from --strategy or from repeated --query flags.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("strategy", "", "search strategy file (YAML or JSON)")
	searchCmd.Flags().StringArrayP("query", "q", nil, "search query (repeatable)")
	searchCmd.Flags().Int("from", 0, "earliest publication year")
	searchCmd.Flags().Int("to", 0, "latest publication year")
	searchCmd.Flags().Int("max-results", 0, "maximum records per source (default from config)")
	searchCmd.Flags().StringSlice("source", nil, "restrict to sources: arxiv, semantic-scholar, jstage, ieee, government")
	searchCmd.Flags().StringSlice("portal", nil, "government portal IDs to search (see --list-portals)")
	searchCmd.Flags().Bool("list-portals", false, "list government portals and exit")
	searchCmd.Flags().Duration("delay", 0, "pause between queries to one source (default from config)")
	searchCmd.Flags().StringP("output", "o", "", "write the search results to this file (YAML or JSON)")
	searchCmd.Flags().Bool("json", false, "print records as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if list, _ := cmd.Flags().GetBool("list-portals"); list {
		for _, p := range search.Portals() {
			fmt.Printf("%-10s  %-28s  %s\n", p.ID, p.Name, p.URL)
		}
		return nil
	}

	s, err := strategyFromFlags(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applySearchFlags(cmd, &cfg.Search); err != nil {
		return err
	}

	searcher := search.NewSearcher(search.Backends(cfg.Search, logger), cfg.Search, logger, os.Stderr)
	out, err := searcher.Run(cmd.Context(), s)
	if err != nil {
		return err
	}
	merged := dedup.Merge(out.Lists()...)
	fmt.Fprintf(os.Stderr, "%d records retrieved, %d duplicates removed, %d unique\n",
		out.Total(), merged.Removed, len(merged.Records))

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		rf := search.NewResultFile(s, out, merged.Records, merged.Removed, time.Now())
		if err := search.WriteResultFile(path, rf); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Results written to %s\n", path)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return search.FormatJSON(merged.Records, os.Stdout)
	}
	search.FormatTable(merged.Records, os.Stdout)
	return nil
}

// strategyFromFlags loads --strategy or assembles a strategy from --query,
// --from and --to.
func strategyFromFlags(cmd *cobra.Command) (types.SearchStrategy, error) {
	var s types.SearchStrategy
	if path, _ := cmd.Flags().GetString("strategy"); path != "" {
		var err error
		if s, err = strategy.Load(path); err != nil {
			return types.SearchStrategy{}, err
		}
	}
	if qs, _ := cmd.Flags().GetStringArray("query"); len(qs) > 0 {
		s.SearchQueries = qs
	}
	if len(s.SearchQueries) == 0 {
		return types.SearchStrategy{}, fmt.Errorf("provide --strategy or at least one --query")
	}

	from, _ := cmd.Flags().GetInt("from")
	to, _ := cmd.Flags().GetInt("to")
	if from != 0 || to != 0 {
		yr := types.YearRange{Start: from, End: to}
		if s.YearRange != nil {
			if from == 0 {
				yr.Start = s.YearRange.Start
			}
			if to == 0 {
				yr.End = s.YearRange.End
			}
		}
		if yr.End == 0 {
			yr.End = time.Now().Year()
		}
		if !yr.Valid() {
			return types.SearchStrategy{}, fmt.Errorf("invalid year range %d-%d", yr.Start, yr.End)
		}
		s.YearRange = &yr
	}
	return s, nil
}

// applySearchFlags overrides search configuration with command flags.
func applySearchFlags(cmd *cobra.Command, sc *types.SearchConfig) error {
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		sc.MaxResults = n
	}
	if d, _ := cmd.Flags().GetDuration("delay"); d > 0 {
		sc.InterQueryDelay = d
	}
	if sources, _ := cmd.Flags().GetStringSlice("source"); len(sources) > 0 {
		if err := enableSources(sc, sources); err != nil {
			return err
		}
	}
	if portals, _ := cmd.Flags().GetStringSlice("portal"); len(portals) > 0 {
		sc.GovernmentPortals = portals
		sc.EnableGovernment = true
	}
	return nil
}

// enableSources enables exactly the named sources.
func enableSources(sc *types.SearchConfig, sources []string) error {
	sc.EnableArxiv, sc.EnableSemanticScholar, sc.EnableJStage, sc.EnableIEEE, sc.EnableGovernment = false, false, false, false, false
	for _, src := range sources {
		switch strings.ToLower(strings.TrimSpace(src)) {
		case "arxiv":
			sc.EnableArxiv = true
		case "semantic-scholar", "semanticscholar", "s2":
			sc.EnableSemanticScholar = true
		case "jstage", "j-stage":
			sc.EnableJStage = true
		case "ieee":
			sc.EnableIEEE = true
		case "government", "gov":
			sc.EnableGovernment = true
		default:
			return fmt.Errorf("unknown source %q", src)
		}
	}
	return nil
}
