// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pdiddy/review-engine/internal/bias"
	"github.com/pdiddy/review-engine/internal/docfile"
	"github.com/pdiddy/review-engine/internal/search"
	"github.com/pdiddy/review-engine/internal/store"
	"github.com/pdiddy/review-engine/pkg/types"
)

// LoadBundle reads a run directory written by Run back into a store
// bundle. The search results file is required; screening records,
// decisions and assessments are read when present, so a run edited by
// hand (decisions added, assessments filled in) can be ingested again.
func LoadBundle(dir string) (store.Bundle, error) {
	b := store.Bundle{RunID: filepath.Base(filepath.Clean(dir))}

	var manifest Result
	if err := docfile.Read(filepath.Join(dir, ManifestFile), &manifest); err == nil && manifest.RunID != "" {
		b.RunID = manifest.RunID
	}

	rf, err := search.ReadResultFile(filepath.Join(dir, SearchFile))
	if err != nil {
		return store.Bundle{}, fmt.Errorf("reading run %s: %w", dir, err)
	}
	b.Papers = rf.Records

	var batch types.ScreeningBatch
	if err := readOptional(filepath.Join(dir, ScreeningFile), &batch); err != nil {
		return store.Bundle{}, err
	}
	b.Screening = batch.Records

	var decisions types.DecisionLog
	if err := readOptional(filepath.Join(dir, DecisionsFile), &decisions); err != nil {
		return store.Bundle{}, err
	}
	b.Decisions = decisions.Decisions

	b.Assessments, err = loadAssessments(filepath.Join(dir, AssessmentsDir))
	if err != nil {
		return store.Bundle{}, err
	}
	return b, nil
}

func readOptional(path string, v any) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return docfile.Read(path, v)
}

// loadAssessments reads every assessment file in dir in name order.
func loadAssessments(dir string) ([]types.RiskOfBiasAssessment, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading assessments: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml", ".json":
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
	}
	sort.Strings(names)

	out := make([]types.RiskOfBiasAssessment, 0, len(names))
	for _, name := range names {
		a, err := bias.Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}
