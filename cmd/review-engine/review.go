// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/reviewers"
	"github.com/pdiddy/review-engine/pkg/types"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Record reviewer decisions and measure agreement",
	Long: `Review manages the multi-reviewer decision log: register reviewers, record
or import decisions, compute Cohen's kappa between reviewers, list
conflicts and resolve them by majority vote.

When a reviewer decides on the same paper twice, the later decision wins.
The log file keeps every decision.`,
}

var reviewAddCmd = &cobra.Command{
	Use:   "add-reviewer <id> <name>",
	Short: "Register a reviewer",
	Args:  cobra.ExactArgs(2),
	RunE: withDecisionLog(true, func(m *reviewers.Manager, args []string) error {
		m.AddReviewer(args[0], args[1])
		return nil
	}),
}

var reviewRecordCmd = &cobra.Command{
	Use:   "record <paper-id> <reviewer-id> <Include|Exclude|Uncertain> [reason]",
	Short: "Record one screening decision",
	Args:  cobra.RangeArgs(3, 4),
	RunE: withDecisionLog(true, func(m *reviewers.Manager, args []string) error {
		dec, err := parseDecision(args[2])
		if err != nil {
			return err
		}
		d := types.ScreeningDecision{PaperID: args[0], ReviewerID: args[1], Decision: string(dec)}
		if len(args) == 4 {
			d.Reason = args[3]
		}
		if _, ok := m.Reviewer(d.ReviewerID); !ok {
			fmt.Fprintf(os.Stderr, "warning: reviewer %s is not registered\n", d.ReviewerID)
		}
		m.RecordDecision(d)
		return nil
	}),
}

var reviewKappaCmd = &cobra.Command{
	Use:   "kappa [reviewer-a reviewer-b]",
	Short: "Compute Cohen's kappa for one pair or every reviewer pair",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("want no arguments or two reviewer IDs")
		}
		return nil
	},
	RunE: withDecisionLog(false, func(m *reviewers.Manager, args []string) error {
		if len(args) == 2 {
			fmt.Printf("%.3f\n", m.CohenKappa(args[0], args[1]))
			return nil
		}
		pairs := m.AllKappas()
		if len(pairs) == 0 {
			fmt.Println("Fewer than two reviewers registered.")
			return nil
		}
		for _, p := range pairs {
			fmt.Printf("%-20s  %-20s  %6.3f  %s\n", p.ReviewerA, p.ReviewerB, p.Kappa, agreementLabel(p.Kappa))
		}
		return nil
	}),
}

var reviewConflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List papers on which reviewers disagree",
	RunE: withDecisionLog(false, func(m *reviewers.Manager, args []string) error {
		conflicts := m.Conflicts()
		if jsonOutput {
			return printJSON(conflicts)
		}
		if len(conflicts) == 0 {
			fmt.Println("No conflicts.")
			return nil
		}
		for _, c := range conflicts {
			parts := make([]string, 0, len(c.Decisions))
			for _, d := range c.Decisions {
				parts = append(parts, d.ReviewerID+"="+d.Decision)
			}
			fmt.Printf("%s\n    %s\n", c.PaperID, strings.Join(parts, ", "))
		}
		fmt.Printf("\n%d conflicts, %d papers with consensus\n", len(conflicts), len(m.ConsensusPapers()))
		return nil
	}),
}

var reviewResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve conflicts by majority vote",
	RunE: withDecisionLog(false, func(m *reviewers.Manager, args []string) error {
		res := m.ResolveConflicts()
		if jsonOutput {
			return printJSON(res)
		}
		for _, r := range res {
			outcome := "tie, unresolved"
			if r.Resolved {
				outcome = r.Decision
			}
			fmt.Printf("%-50s  %s\n", r.PaperID, outcome)
		}
		return nil
	}),
}

var reviewStatsCmd = &cobra.Command{
	Use:   "stats [reviewer-id]",
	Short: "Show decision counts per reviewer",
	Args:  cobra.MaximumNArgs(1),
	RunE: withDecisionLog(false, func(m *reviewers.Manager, args []string) error {
		ids := args
		if len(ids) == 0 {
			for _, r := range m.Reviewers() {
				ids = append(ids, r.ID)
			}
		}
		fmt.Printf("%-20s  %8s  %8s  %8s  %9s\n", "Reviewer", "Screened", "Included", "Excluded", "Uncertain")
		for _, id := range ids {
			s := m.ReviewerStatistics(id)
			fmt.Printf("%-20s  %8d  %8d  %8d  %9d\n", id, s.TotalScreened, s.Included, s.Excluded, s.Uncertain)
		}
		return nil
	}),
}

var reviewExportCmd = &cobra.Command{
	Use:   "export <csv-file>",
	Short: "Export the decision log to CSV",
	Args:  cobra.ExactArgs(1),
	RunE: withDecisionLog(false, func(m *reviewers.Manager, args []string) error {
		if err := m.ExportCSV(args[0]); err != nil {
			return err
		}
		fmt.Printf("Exported %d decisions to %s\n", len(m.Log()), args[0])
		return nil
	}),
}

var reviewImportCmd = &cobra.Command{
	Use:   "import <csv-file>",
	Short: "Append decisions from a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: withDecisionLog(true, func(m *reviewers.Manager, args []string) error {
		n, err := m.ImportCSV(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d decisions\n", n)
		return nil
	}),
}

var (
	decisionLogPath string
	jsonOutput      bool
)

func init() {
	reviewCmd.PersistentFlags().StringVar(&decisionLogPath, "log", "decisions.json", "decision log file")
	reviewConflictsCmd.Flags().BoolVar(&jsonOutput, "json", false, "print as JSON")
	reviewResolveCmd.Flags().BoolVar(&jsonOutput, "json", false, "print as JSON")

	reviewCmd.AddCommand(reviewAddCmd, reviewRecordCmd, reviewKappaCmd, reviewConflictsCmd,
		reviewResolveCmd, reviewStatsCmd, reviewExportCmd, reviewImportCmd)
	rootCmd.AddCommand(reviewCmd)
}

// withDecisionLog loads the decision log (empty when the file does not
// exist yet), runs fn and, for mutating commands, saves the log.
func withDecisionLog(save bool, fn func(*reviewers.Manager, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		m := reviewers.NewManager(logger)
		if _, err := os.Stat(decisionLogPath); err == nil {
			if m, err = reviewers.Load(decisionLogPath, logger); err != nil {
				return err
			}
		} else if !save {
			return fmt.Errorf("decision log %s not found", decisionLogPath)
		}
		if err := fn(m, args); err != nil {
			return err
		}
		if save {
			return m.Save(decisionLogPath)
		}
		return nil
	}
}

func parseDecision(s string) (types.Decision, error) {
	for _, d := range []types.Decision{types.DecisionInclude, types.DecisionExclude, types.DecisionUncertain} {
		if strings.EqualFold(s, string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown decision %q (want Include, Exclude or Uncertain)", s)
}

// agreementLabel gives the Landis and Koch band for a kappa value.
func agreementLabel(k float64) string {
	switch {
	case k < 0:
		return "poor"
	case k <= 0.20:
		return "slight"
	case k <= 0.40:
		return "fair"
	case k <= 0.60:
		return "moderate"
	case k <= 0.80:
		return "substantial"
	default:
		return "almost perfect"
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
