// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ResearchInfo captures what the researcher told the interview about the topic.
type ResearchInfo struct {
	ResearchTheme        string   `json:"research_theme" yaml:"research_theme"`
	ResearchField        string   `json:"research_field" yaml:"research_field"`
	ResearchPurpose      string   `json:"research_purpose,omitempty" yaml:"research_purpose,omitempty"`
	ProblemStatement     string   `json:"problem_statement,omitempty" yaml:"problem_statement,omitempty"`
	SpecificTechnologies []string `json:"specific_technologies,omitempty" yaml:"specific_technologies,omitempty"`
	AdditionalContext    string   `json:"additional_context,omitempty" yaml:"additional_context,omitempty"`
	KnownPapers          []string `json:"known_papers,omitempty" yaml:"known_papers,omitempty"`
}

// SearchStrategy is a PRISMA-style search plan. SearchQueries are Boolean
// query strings (AND, OR, NOT) that each connector rewrites to its own syntax.
type SearchStrategy struct {
	PrimaryKeywords   []string   `json:"primary_keywords" yaml:"primary_keywords"`
	RelatedKeywords   []string   `json:"related_keywords" yaml:"related_keywords"`
	ExclusionKeywords []string   `json:"exclusion_keywords" yaml:"exclusion_keywords"`
	SearchQueries     []string   `json:"search_queries" yaml:"search_queries"`
	YearRange         *YearRange `json:"year_range,omitempty" yaml:"year_range,omitempty"`
	PublicationTypes  []string   `json:"publication_types" yaml:"publication_types"`
}
