// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/bias"
	"github.com/pdiddy/review-engine/pkg/types"
)

var biasCmd = &cobra.Command{
	Use:   "bias",
	Short: "Create and rate risk-of-bias assessments",
	Long: `Bias manages Cochrane RoB 2 style assessments, one file per paper. Each of
the five domains is rated Low, Some concerns or High. The overall risk is
High when any domain is High, Some concerns when any domain has concerns,
Low when every rated domain is Low, and Unknown when nothing is rated.`,
}

var biasDomainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List the assessment domains",
	Run: func(cmd *cobra.Command, args []string) {
		for _, d := range bias.Domains() {
			fmt.Printf("%-22s  %s\n", d.ID, d.Name)
		}
	},
}

var biasNewCmd = &cobra.Command{
	Use:   "new <paper-id> <file>",
	Short: "Write a blank assessment for a paper",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		assessor, _ := cmd.Flags().GetString("assessor")
		a := bias.NewAssessment(args[0], title, assessor)
		if err := bias.Save(args[1], a); err != nil {
			return err
		}
		fmt.Printf("Assessment written to %s\n", args[1])
		return nil
	},
}

var biasAssessCmd = &cobra.Command{
	Use:   "assess <file> <domain-id> <rating> [rationale]",
	Short: "Rate one domain of an assessment",
	Args:  cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bias.Load(args[0])
		if err != nil {
			return err
		}
		rationale := ""
		if len(args) == 4 {
			rationale = args[3]
		}
		if err := bias.AssessDomain(a, args[1], args[2], rationale); err != nil {
			return err
		}
		if err := bias.Save(args[0], a); err != nil {
			return err
		}
		fmt.Printf("%s: overall risk %s\n", a.PaperID, a.OverallRisk)
		return nil
	},
}

var biasShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Show an assessment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bias.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Paper:    %s\nTitle:    %s\nAssessor: %s\n\n", a.PaperID, a.Title, a.AssessorID)
		for _, d := range bias.Domains() {
			rating, rationale := types.Rating("-"), ""
			if da, ok := a.DomainAssessments[d.ID]; ok {
				rating, rationale = da.Rating, da.Rationale
			}
			fmt.Printf("  %-40s  %-13s  %s\n", d.Name, rating, rationale)
		}
		fmt.Printf("\nOverall risk: %s\n", a.OverallRisk)
		return nil
	},
}

var biasSummaryCmd = &cobra.Command{
	Use:   "summary <file>...",
	Short: "Count assessments by overall risk",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		as := make([]*types.RiskOfBiasAssessment, 0, len(args))
		for _, path := range args {
			a, err := bias.Load(path)
			if err != nil {
				return err
			}
			as = append(as, a)
		}
		s := bias.Summarize(as)
		fmt.Printf("Low:           %d\nSome concerns: %d\nHigh:          %d\nUnknown:       %d\n",
			s.Low, s.SomeConcerns, s.High, s.Unknown)
		return nil
	},
}

func init() {
	biasNewCmd.Flags().String("title", "", "paper title")
	biasNewCmd.Flags().String("assessor", "", "assessor ID")

	biasCmd.AddCommand(biasDomainsCmd, biasNewCmd, biasAssessCmd, biasShowCmd, biasSummaryCmd)
	rootCmd.AddCommand(biasCmd)
}
