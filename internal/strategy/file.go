// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"fmt"

	"github.com/pdiddy/review-engine/internal/docfile"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Save writes s to path as YAML or JSON, chosen by extension.
func Save(path string, s types.SearchStrategy) error {
	return docfile.Write(path, s)
}

// Load reads a strategy file. A file with no search queries is rejected.
func Load(path string) (types.SearchStrategy, error) {
	var s types.SearchStrategy
	if err := docfile.Read(path, &s); err != nil {
		return types.SearchStrategy{}, err
	}
	if len(s.SearchQueries) == 0 {
		return types.SearchStrategy{}, fmt.Errorf("strategy %s has no search queries", path)
	}
	return s, nil
}

// SaveResearchInfo writes the research description to path.
func SaveResearchInfo(path string, info types.ResearchInfo) error {
	return docfile.Write(path, info)
}

// LoadResearchInfo reads a research description. Theme or field must be set.
func LoadResearchInfo(path string) (types.ResearchInfo, error) {
	var info types.ResearchInfo
	if err := docfile.Read(path, &info); err != nil {
		return types.ResearchInfo{}, err
	}
	if info.ResearchTheme == "" && info.ResearchField == "" {
		return types.ResearchInfo{}, fmt.Errorf("research info %s has neither theme nor field", path)
	}
	return info, nil
}
