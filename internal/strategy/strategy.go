// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package strategy turns a researcher's description of a topic into a
// PRISMA search strategy. An LLM drafts the strategy; any failure falls
// back to a keyword strategy built from the description itself.
package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/review-engine/internal/llm"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Fallback year range and publication types.
const (
	FallbackStartYear = 2018
	FallbackEndYear   = 2024
)

var fallbackPublicationTypes = []string{"Journal", "Conference"}

var strategyPromptTmpl = template.Must(template.New("strategy").Parse(`You are an expert in systematic literature reviews following the PRISMA 2020 guidelines. Design a search strategy for the research described below.

Research context:
{{.Context}}

Produce:
- primary_keywords: 3 to 6 core terms
- related_keywords: synonyms, abbreviations and closely related terms
- exclusion_keywords: terms whose presence marks a paper as off-topic
- search_queries: 3 to 5 Boolean queries combining the keywords with AND, OR and NOT, usable on arXiv, Semantic Scholar and J-STAGE
- year_range: an object with integer "start" and "end" publication years
- publication_types: the publication types to include (e.g. "Journal", "Conference")

Respond with a single JSON object with exactly these fields. Do not include any text outside the JSON object.
`))

// FormatContext renders the research description as labelled lines.
// Theme and field are always present; other fields only when set.
func FormatContext(info types.ResearchInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research theme: %s\n", orNA(info.ResearchTheme))
	fmt.Fprintf(&b, "Research field: %s\n", orNA(info.ResearchField))
	if info.ResearchPurpose != "" {
		fmt.Fprintf(&b, "Research purpose: %s\n", info.ResearchPurpose)
	}
	if info.ProblemStatement != "" {
		fmt.Fprintf(&b, "Problem statement: %s\n", info.ProblemStatement)
	}
	if len(info.SpecificTechnologies) > 0 {
		fmt.Fprintf(&b, "Technologies of interest: %s\n", strings.Join(info.SpecificTechnologies, ", "))
	}
	if info.AdditionalContext != "" {
		fmt.Fprintf(&b, "Additional context: %s\n", info.AdditionalContext)
	}
	if len(info.KnownPapers) > 0 {
		fmt.Fprintf(&b, "Known papers: %s\n", strings.Join(info.KnownPapers, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// BuildPrompt renders the strategy prompt for info.
func BuildPrompt(info types.ResearchInfo) (string, error) {
	var buf bytes.Buffer
	if err := strategyPromptTmpl.Execute(&buf, struct{ Context string }{FormatContext(info)}); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}

// Generator drafts search strategies.
type Generator struct {
	completer llm.Completer
	log       *zap.Logger
}

// NewGenerator returns a Generator. A nil completer always produces the
// fallback strategy.
func NewGenerator(c llm.Completer, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{completer: c, log: log}
}

// Generate asks the model for a strategy. The second result reports whether
// the fallback strategy was used instead.
func (g *Generator) Generate(ctx context.Context, info types.ResearchInfo) (types.SearchStrategy, bool) {
	s, err := g.generate(ctx, info)
	if err != nil {
		g.log.Warn("falling back to basic search strategy", zap.Error(err))
		return Fallback(info), true
	}
	return s, false
}

func (g *Generator) generate(ctx context.Context, info types.ResearchInfo) (types.SearchStrategy, error) {
	if g.completer == nil {
		return types.SearchStrategy{}, fmt.Errorf("no LLM configured")
	}
	prompt, err := BuildPrompt(info)
	if err != nil {
		return types.SearchStrategy{}, err
	}
	text, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		return types.SearchStrategy{}, err
	}
	return Parse(text)
}

// Parse decodes a model response into a strategy. The response must carry
// at least one non-empty search query.
func Parse(text string) (types.SearchStrategy, error) {
	var s types.SearchStrategy
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &s); err != nil {
		return types.SearchStrategy{}, fmt.Errorf("parsing strategy JSON: %w", err)
	}
	var queries []string
	for _, q := range s.SearchQueries {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}
	if len(queries) == 0 {
		return types.SearchStrategy{}, fmt.Errorf("strategy has no search queries")
	}
	s.SearchQueries = queries
	return s, nil
}

// Fallback builds a strategy from the description alone: theme, field and
// up to three technologies as keywords, and one query joining the first
// three keywords with AND.
func Fallback(info types.ResearchInfo) types.SearchStrategy {
	var keywords []string
	if info.ResearchTheme != "" {
		keywords = append(keywords, info.ResearchTheme)
	}
	if info.ResearchField != "" {
		keywords = append(keywords, info.ResearchField)
	}
	techs := info.SpecificTechnologies
	if len(techs) > 3 {
		techs = techs[:3]
	}
	keywords = append(keywords, techs...)

	var queries []string
	switch {
	case len(keywords) >= 2:
		queries = []string{strings.Join(keywords[:min(3, len(keywords))], " AND ")}
	case info.ResearchTheme != "":
		queries = []string{info.ResearchTheme}
	case info.ResearchField != "":
		queries = []string{info.ResearchField}
	}

	return types.SearchStrategy{
		PrimaryKeywords:   keywords,
		RelatedKeywords:   []string{},
		ExclusionKeywords: []string{},
		SearchQueries:     queries,
		YearRange:         &types.YearRange{Start: FallbackStartYear, End: FallbackEndYear},
		PublicationTypes:  append([]string(nil), fallbackPublicationTypes...),
	}
}

// Display writes a readable summary of s to w.
func Display(s types.SearchStrategy, w io.Writer) {
	list := func(title string, items []string) {
		fmt.Fprintln(w, title)
		for _, it := range items {
			fmt.Fprintf(w, "  - %s\n", it)
		}
		fmt.Fprintln(w)
	}
	list("Primary keywords:", s.PrimaryKeywords)
	list("Related keywords:", s.RelatedKeywords)
	if len(s.ExclusionKeywords) > 0 {
		list("Exclusion keywords:", s.ExclusionKeywords)
	}
	fmt.Fprintln(w, "Search queries:")
	for i, q := range s.SearchQueries {
		fmt.Fprintf(w, "  %d. %s\n", i+1, q)
	}
	fmt.Fprintln(w)
	if s.YearRange != nil {
		fmt.Fprintf(w, "Publication years: %d - %d\n", s.YearRange.Start, s.YearRange.End)
	}
	if len(s.PublicationTypes) > 0 {
		fmt.Fprintf(w, "Publication types: %s\n", strings.Join(s.PublicationTypes, ", "))
	}
}
