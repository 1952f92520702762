// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/review-engine/internal/llm"
	"github.com/pdiddy/review-engine/pkg/types"
)

var sampleInfo = types.ResearchInfo{
	ResearchTheme:        "LLM agents for code review",
	ResearchField:        "Software Engineering",
	ResearchPurpose:      "Measure review quality",
	SpecificTechnologies: []string{"GPT-4", "static analysis", "RAG", "fine-tuning"},
	KnownPapers:          []string{"CodeReviewer"},
}

func TestFormatContext(t *testing.T) {
	got := FormatContext(sampleInfo)
	want := "Research theme: LLM agents for code review\n" +
		"Research field: Software Engineering\n" +
		"Research purpose: Measure review quality\n" +
		"Technologies of interest: GPT-4, static analysis, RAG, fine-tuning\n" +
		"Known papers: CodeReviewer"
	assert.Equal(t, want, got)

	assert.Equal(t, "Research theme: N/A\nResearch field: N/A", FormatContext(types.ResearchInfo{}))
}

func TestBuildPrompt(t *testing.T) {
	p, err := BuildPrompt(sampleInfo)
	require.NoError(t, err)
	assert.Contains(t, p, "PRISMA")
	assert.Contains(t, p, "Research theme: LLM agents for code review")
	assert.Contains(t, p, "search_queries")
}

func TestFallback(t *testing.T) {
	tests := []struct {
		name        string
		info        types.ResearchInfo
		wantKw      []string
		wantQueries []string
	}{
		{
			name:        "theme field and technologies",
			info:        sampleInfo,
			wantKw:      []string{"LLM agents for code review", "Software Engineering", "GPT-4", "static analysis", "RAG"},
			wantQueries: []string{"LLM agents for code review AND Software Engineering AND GPT-4"},
		},
		{
			name:        "two keywords",
			info:        types.ResearchInfo{ResearchTheme: "robots", ResearchField: "control"},
			wantKw:      []string{"robots", "control"},
			wantQueries: []string{"robots AND control"},
		},
		{
			name:        "theme only",
			info:        types.ResearchInfo{ResearchTheme: "robots"},
			wantKw:      []string{"robots"},
			wantQueries: []string{"robots"},
		},
		{
			name:        "field only",
			info:        types.ResearchInfo{ResearchField: "control"},
			wantKw:      []string{"control"},
			wantQueries: []string{"control"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Fallback(tt.info)
			assert.Equal(t, tt.wantKw, s.PrimaryKeywords)
			assert.Equal(t, tt.wantQueries, s.SearchQueries)
			assert.Equal(t, &types.YearRange{Start: 2018, End: 2024}, s.YearRange)
			assert.Equal(t, []string{"Journal", "Conference"}, s.PublicationTypes)
			assert.NotNil(t, s.RelatedKeywords)
		})
	}
}

func TestGenerateFromModel(t *testing.T) {
	var prompt string
	c := llm.CompleterFunc(func(_ context.Context, p string) (string, error) {
		prompt = p
		return "Sure!\n```json\n" + `{
  "primary_keywords": ["code review", "LLM"],
  "related_keywords": ["large language model"],
  "exclusion_keywords": ["survey"],
  "search_queries": ["code review AND LLM", "  "],
  "year_range": {"start": 2020, "end": 2025},
  "publication_types": ["Journal"]
}` + "\n```", nil
	})

	s, fallback := NewGenerator(c, nil).Generate(context.Background(), sampleInfo)
	assert.False(t, fallback)
	assert.Contains(t, prompt, "Software Engineering")

	want := types.SearchStrategy{
		PrimaryKeywords:   []string{"code review", "LLM"},
		RelatedKeywords:   []string{"large language model"},
		ExclusionKeywords: []string{"survey"},
		SearchQueries:     []string{"code review AND LLM"},
		YearRange:         &types.YearRange{Start: 2020, End: 2025},
		PublicationTypes:  []string{"Journal"},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("strategy mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateFallsBack(t *testing.T) {
	tests := []struct {
		name string
		c    llm.Completer
	}{
		{"no completer", nil},
		{"model error", llm.CompleterFunc(func(context.Context, string) (string, error) {
			return "", errors.New("quota exceeded")
		})},
		{"not json", llm.CompleterFunc(func(context.Context, string) (string, error) {
			return "I cannot help with that.", nil
		})},
		{"no queries", llm.CompleterFunc(func(context.Context, string) (string, error) {
			return `{"primary_keywords":["x"],"search_queries":[]}`, nil
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, fallback := NewGenerator(tt.c, nil).Generate(context.Background(), sampleInfo)
			assert.True(t, fallback)
			assert.Equal(t, Fallback(sampleInfo), s)
		})
	}
}

func TestDisplay(t *testing.T) {
	var buf bytes.Buffer
	Display(Fallback(sampleInfo), &buf)
	out := buf.String()
	assert.Contains(t, out, "Primary keywords:\n  - LLM agents for code review\n")
	assert.Contains(t, out, "  1. LLM agents for code review AND Software Engineering AND GPT-4\n")
	assert.Contains(t, out, "Publication years: 2018 - 2024\n")
	assert.NotContains(t, out, "Exclusion keywords")
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	s := Fallback(sampleInfo)
	for _, name := range []string{"strategy.yaml", "strategy.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(path, s))
		got, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, s.SearchQueries, got.SearchQueries)
		assert.Equal(t, s.YearRange, got.YearRange)
	}

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("primary_keywords: [x]\n"), 0o644))
	_, err := Load(empty)
	assert.Error(t, err)
}

func TestResearchInfoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "info.yaml")
	require.NoError(t, SaveResearchInfo(path, sampleInfo))
	got, err := LoadResearchInfo(path)
	require.NoError(t, err)
	if diff := cmp.Diff(sampleInfo, got); diff != "" {
		t.Errorf("research info mismatch (-want +got):\n%s", diff)
	}

	blank := filepath.Join(dir, "blank.json")
	require.NoError(t, os.WriteFile(blank, []byte(`{}`), 0o644))
	_, err = LoadResearchInfo(blank)
	assert.Error(t, err)
}
