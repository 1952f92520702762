// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/docfile"
	"github.com/pdiddy/review-engine/internal/retrieve"
	"github.com/pdiddy/review-engine/internal/search"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <results-file>",
	Short: "Download full-text PDFs for included papers",
	Long: `Retrieve downloads a PDF for each paper in a search results file. With
--screening only papers the screening file includes are fetched.

A PDF URL comes from the source record, then the arXiv PDF endpoint, then
the OpenAlex open-access location for the DOI. Files already present are
skipped. The count of papers not retrieved feeds
"prisma build --not-retrieved".`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().String("screening", "", "screening file; restrict to included papers")
	retrieveCmd.Flags().StringP("output-dir", "o", "output/fulltext", "directory for downloaded PDFs")
	retrieveCmd.Flags().String("mailto", "", "contact address sent to OpenAlex (default from config)")
	retrieveCmd.Flags().Duration("delay", 0, "pause between downloads (default from config)")
	retrieveCmd.Flags().String("log", "", "write the retrieval outcomes to this JSON or YAML file")

	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rc := cfg.Retrieval
	if m, _ := cmd.Flags().GetString("mailto"); m != "" {
		rc.Mailto = m
	}
	if d, _ := cmd.Flags().GetDuration("delay"); d > 0 {
		rc.Delay = d
	}

	rf, err := search.ReadResultFile(args[0])
	if err != nil {
		return err
	}
	papers := rf.Records
	if path, _ := cmd.Flags().GetString("screening"); path != "" {
		if papers, err = includedPapers(path, papers); err != nil {
			return err
		}
	}
	if len(papers) == 0 {
		fmt.Println("No papers to retrieve.")
		return nil
	}

	dir, _ := cmd.Flags().GetString("output-dir")
	res, err := retrieve.New(rc, logger).RetrieveAll(cmd.Context(), papers, dir, os.Stdout)
	if err != nil {
		return err
	}
	if path, _ := cmd.Flags().GetString("log"); path != "" {
		if err := docfile.Write(path, res); err != nil {
			return err
		}
		fmt.Printf("Outcomes written to %s\n", path)
	}
	return nil
}
