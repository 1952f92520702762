// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"path/filepath"

	"github.com/pdiddy/review-engine/internal/docfile"
)

// Export file names inside the store directory.
const (
	ExportYAMLFile = "export.yaml"
	ExportJSONFile = "export.json"
)

const exportLimit = 100000

// ExportYAML writes the papers matching opts to dir/export.yaml and
// returns the path.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) (string, error) {
	return s.export(ctx, opts, filepath.Join(s.dir, ExportYAMLFile))
}

// ExportJSON writes the papers matching opts to dir/export.json and
// returns the path.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) (string, error) {
	return s.export(ctx, opts, filepath.Join(s.dir, ExportJSONFile))
}

func (s *Store) export(ctx context.Context, opts QueryOptions, path string) (string, error) {
	limit := opts.MaxResults
	if limit <= 0 {
		limit = exportLimit
	}
	results, err := s.query(ctx, opts, limit)
	if err != nil {
		return "", err
	}
	if results == nil {
		results = []QueryResult{}
	}
	if err := docfile.Write(path, results); err != nil {
		return "", err
	}
	return path, nil
}
