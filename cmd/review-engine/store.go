// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/pipeline"
	"github.com/pdiddy/review-engine/internal/store"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the review database (ingest, query, export, stats)",
	Long: `Store keeps papers, screening records, reviewer decisions and
risk-of-bias assessments from every run in a local SQLite database with
full-text search over titles and abstracts.`,
}

var storeIngestCmd = &cobra.Command{
	Use:   "ingest <run-dir>...",
	Short: "Ingest run directories into the review database",
	Long: `Ingest reads run directories written by "run" and stores their papers,
screening records, decisions and assessments. Re-ingesting a run replaces
its screening records and decisions; papers and assessments are updated in
place.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStoreIngest,
}

var storeQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query stored papers",
	RunE:  runStoreQuery,
}

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored papers to YAML or JSON",
	RunE:  runStoreExport,
}

var storeStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database row counts",
	RunE:  runStoreStats,
}

func init() {
	storeCmd.PersistentFlags().String("store-dir", "", "database directory (default from config)")

	for _, c := range []*cobra.Command{storeQueryCmd, storeExportCmd} {
		c.Flags().String("query", "", "full-text search over titles and abstracts")
		c.Flags().String("decision", "", "latest screening decision: Include, Exclude or Uncertain")
		c.Flags().String("source", "", "source name (e.g. arXiv)")
		c.Flags().Int("from", 0, "earliest publication year")
		c.Flags().Int("to", 0, "latest publication year")
		c.Flags().Int("limit", 0, "maximum results (0 = default)")
	}
	storeQueryCmd.Flags().Bool("json", false, "print results as JSON")
	storeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	storeCmd.AddCommand(storeIngestCmd, storeQueryCmd, storeExportCmd, storeStatsCmd)
	rootCmd.AddCommand(storeCmd)
}

func withStore(cmd *cobra.Command, fn func(*store.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func runStoreIngest(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(st *store.Store) error {
		for _, dir := range args {
			b, err := pipeline.LoadBundle(dir)
			if err != nil {
				return err
			}
			sum, err := st.Ingest(cmd.Context(), b)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d papers, %d screening records, %d decisions, %d assessments\n",
				b.RunID, sum.Papers, sum.Screening, sum.Decisions, sum.Assessments)
		}
		return nil
	})
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	opts, err := queryOptsFromFlags(cmd, args)
	if err != nil {
		return err
	}
	return withStore(cmd, func(st *store.Store) error {
		results, err := st.Query(cmd.Context(), opts)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(results)
		}
		if len(results) == 0 {
			fmt.Println("No results found.")
			return nil
		}

		fmt.Fprintf(os.Stdout, "%-4s  %-4s  %-60s  %-18s  %-9s  %s\n",
			"Rank", "Year", "Title", "Source", "Decision", "Risk")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 115))
		for i, r := range results {
			title := []rune(r.Paper.Title)
			if len(title) > 60 {
				title = append(title[:57], []rune("...")...)
			}
			year := "-"
			if r.Paper.Year != nil {
				year = fmt.Sprint(*r.Paper.Year)
			}
			fmt.Fprintf(os.Stdout, "%-4d  %-4s  %-60s  %-18s  %-9s  %s\n",
				i+1, year, string(title), r.Paper.Source, r.Decision, r.OverallRisk)
		}
		fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
		return nil
	})
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	opts, err := queryOptsFromFlags(cmd, args)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	return withStore(cmd, func(st *store.Store) error {
		var path string
		var err error
		switch format {
		case "yaml", "":
			path, err = st.ExportYAML(cmd.Context(), opts)
		case "json":
			path, err = st.ExportJSON(cmd.Context(), opts)
		default:
			return fmt.Errorf("unsupported format %q: use yaml or json", format)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Exported to %s\n", path)
		return nil
	})
}

func runStoreStats(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(st *store.Store) error {
		s, err := st.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Papers:            %d\nScreening records: %d\nDecisions:         %d\nAssessments:       %d\n",
			s.Papers, s.Screening, s.Decisions, s.Assessments)
		sources := make([]string, 0, len(s.BySource))
		for src := range s.BySource {
			sources = append(sources, src)
		}
		sort.Strings(sources)
		for _, src := range sources {
			fmt.Printf("  %-20s %d\n", src, s.BySource[src])
		}
		if !st.FullText() {
			fmt.Println("\nFull-text search unavailable; queries use substring matching.")
		}
		return nil
	})
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) (store.QueryOptions, error) {
	text, _ := cmd.Flags().GetString("query")
	if text == "" && len(args) > 0 {
		text = strings.Join(args, " ")
	}
	source, _ := cmd.Flags().GetString("source")
	from, _ := cmd.Flags().GetInt("from")
	to, _ := cmd.Flags().GetInt("to")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := store.QueryOptions{
		Query:      text,
		Source:     source,
		MinYear:    from,
		MaxYear:    to,
		MaxResults: limit,
	}
	if d, _ := cmd.Flags().GetString("decision"); d != "" {
		dec, err := parseDecision(d)
		if err != nil {
			return store.QueryOptions{}, err
		}
		opts.Decision = dec
	}
	return opts, nil
}
