// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/docfile"
	"github.com/pdiddy/review-engine/internal/pipeline"
	"github.com/pdiddy/review-engine/internal/prisma"
	"github.com/pdiddy/review-engine/internal/screening"
	"github.com/pdiddy/review-engine/internal/search"
	"github.com/pdiddy/review-engine/pkg/types"
)

var prismaCmd = &cobra.Command{
	Use:   "prisma",
	Short: "Account for records in a PRISMA 2020 flow diagram",
	Long: `Prisma builds and renders the PRISMA 2020 flow: records identified per
database and other source, duplicates removed, records screened and
excluded (with reasons), reports sought, assessed and excluded at
eligibility, and studies included. Derived counts are recomputed from the
recorded inputs every time the flow is saved or rendered.`,
}

var prismaBuildCmd = &cobra.Command{
	Use:   "build <results-file> <screening-file>",
	Short: "Build a flow state from saved search and screening files",
	Args:  cobra.ExactArgs(2),
	RunE:  runPrismaBuild,
}

var prismaExcludeCmd = &cobra.Command{
	Use:   "exclude <state-file> <reason> <count>",
	Short: "Record full-text eligibility exclusions",
	Args:  cobra.ExactArgs(3),
	RunE: withFlow(func(f *prisma.Flow, args []string) error {
		n, err := strconv.Atoi(args[2])
		if err != nil || n < 0 {
			return fmt.Errorf("invalid count %q", args[2])
		}
		f.AddEligibilityExclusion(args[1], n)
		return nil
	}),
}

var prismaIncludeCmd = &cobra.Command{
	Use:   "include <state-file> <studies> [reports]",
	Short: "Set the final included study and report counts",
	Args:  cobra.RangeArgs(2, 3),
	RunE: withFlow(func(f *prisma.Flow, args []string) error {
		nums := make([]int, 2)
		for i, a := range args[1:] {
			n, err := strconv.Atoi(a)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid count %q", a)
			}
			nums[i] = n
		}
		f.SetFinalIncluded(nums[0], nums[1])
		return nil
	}),
}

var prismaReportCmd = &cobra.Command{
	Use:   "report <state-file>",
	Short: "Render the flow as Markdown with a Mermaid diagram",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := prisma.Load(args[0])
		if err != nil {
			return err
		}
		text := f.MarkdownReport()
		if only, _ := cmd.Flags().GetBool("mermaid"); only {
			text = f.MermaidDiagram()
		}
		if out, _ := cmd.Flags().GetString("output"); out != "" {
			if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			fmt.Printf("Report written to %s\n", out)
			return nil
		}
		fmt.Print(text)
		return nil
	},
}

func init() {
	prismaBuildCmd.Flags().StringP("output", "o", "prisma.json", "flow state file")
	prismaBuildCmd.Flags().Int("not-retrieved", 0, "reports sought but not retrieved")
	prismaReportCmd.Flags().Bool("mermaid", false, "print only the Mermaid flowchart")
	prismaReportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")

	prismaCmd.AddCommand(prismaBuildCmd, prismaExcludeCmd, prismaIncludeCmd, prismaReportCmd)
	rootCmd.AddCommand(prismaCmd)
}

func runPrismaBuild(cmd *cobra.Command, args []string) error {
	rf, err := search.ReadResultFile(args[0])
	if err != nil {
		return err
	}
	var batch types.ScreeningBatch
	if err := docfile.Read(args[1], &batch); err != nil {
		return err
	}

	f := prisma.New()
	date := rf.Summary.Timestamp.Format(prisma.DateLayout)
	if rf.Summary.Timestamp.IsZero() {
		date = ""
	}
	summary := screening.Summarize(batch.Records)
	notRetrieved, _ := cmd.Flags().GetInt("not-retrieved")
	pipeline.Account(f, rf.Sources, rf.Summary.DuplicatesRemoved, summary, summary.Included-notRetrieved, date)
	f.SetReportsNotRetrieved(notRetrieved)

	out, _ := cmd.Flags().GetString("output")
	if err := f.Save(out); err != nil {
		return err
	}
	st := f.State()
	fmt.Printf("Identified %d, screened %d, excluded %d, included %d\n",
		st.Identification.TotalIdentified, st.Screening.RecordsScreened,
		st.Screening.RecordsExcluded, st.Included.StudiesIncluded)
	fmt.Printf("Flow state written to %s\n", out)
	return nil
}

// withFlow loads a flow state file, runs fn and saves the result.
func withFlow(fn func(*prisma.Flow, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		f, err := prisma.Load(args[0])
		if err != nil {
			return err
		}
		if err := fn(f, args); err != nil {
			return err
		}
		return f.Save(args[0])
	}
}
