// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"time"

	"github.com/pdiddy/review-engine/internal/docfile"
	"github.com/pdiddy/review-engine/pkg/types"
)

// ResultFile is a saved search: the strategy that ran, the per-source
// results and a summary. Screening can start from it without re-querying
// the sources.
type ResultFile struct {
	Strategy types.SearchStrategy `json:"strategy" yaml:"strategy"`
	Sources  []SourceResult       `json:"sources" yaml:"sources"`
	Records  []types.PaperRecord  `json:"records" yaml:"records"`
	Summary  ResultSummary        `json:"summary" yaml:"summary"`
}

// ResultSummary holds counts and a timestamp for a saved search.
type ResultSummary struct {
	Retrieved         int       `json:"retrieved" yaml:"retrieved"`
	DuplicatesRemoved int       `json:"duplicates_removed" yaml:"duplicates_removed"`
	Unique            int       `json:"unique" yaml:"unique"`
	SourceErrors      []string  `json:"source_errors,omitempty" yaml:"source_errors,omitempty"`
	Timestamp         time.Time `json:"timestamp" yaml:"timestamp"`
}

// NewResultFile assembles a ResultFile from a search run and its
// deduplicated records.
func NewResultFile(strategy types.SearchStrategy, out Output, unique []types.PaperRecord, removed int, now time.Time) ResultFile {
	if unique == nil {
		unique = []types.PaperRecord{}
	}
	return ResultFile{
		Strategy: strategy,
		Sources:  out.Sources,
		Records:  unique,
		Summary: ResultSummary{
			Retrieved:         out.Total(),
			DuplicatesRemoved: removed,
			Unique:            len(unique),
			SourceErrors:      out.Errors(),
			Timestamp:         now,
		},
	}
}

// WriteResultFile saves rf to path as YAML or JSON, chosen by extension.
func WriteResultFile(path string, rf ResultFile) error {
	return docfile.Write(path, rf)
}

// ReadResultFile loads a saved search.
func ReadResultFile(path string) (ResultFile, error) {
	var rf ResultFile
	if err := docfile.Read(path, &rf); err != nil {
		return ResultFile{}, err
	}
	return rf, nil
}
