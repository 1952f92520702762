// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DatabaseResult is the record count from one database search.
type DatabaseResult struct {
	Name       string `json:"name" yaml:"name"`
	Count      int    `json:"count" yaml:"count"`
	SearchDate string `json:"search_date" yaml:"search_date"`
}

// SourceCount is the record count from a non-database source
// (citation searching, hand searching).
type SourceCount struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// ReasonCount is one entry of an exclusion-reason histogram.
type ReasonCount struct {
	Reason string `json:"reason" yaml:"reason"`
	Count  int    `json:"count" yaml:"count"`
}

// Identification holds the PRISMA identification counts.
type Identification struct {
	Databases         []DatabaseResult `json:"databases" yaml:"databases"`
	OtherSources      []SourceCount    `json:"other_sources" yaml:"other_sources"`
	TotalIdentified   int              `json:"total_identified" yaml:"total_identified"`
	DuplicatesRemoved int              `json:"duplicates_removed" yaml:"duplicates_removed"`
}

// ScreeningCounts holds the title/abstract screening counts.
type ScreeningCounts struct {
	RecordsScreened  int           `json:"records_screened" yaml:"records_screened"`
	RecordsExcluded  int           `json:"records_excluded" yaml:"records_excluded"`
	ExclusionReasons []ReasonCount `json:"exclusion_reasons" yaml:"exclusion_reasons"`
}

// EligibilityCounts holds the full-text eligibility counts.
type EligibilityCounts struct {
	ReportsSought       int           `json:"reports_sought" yaml:"reports_sought"`
	ReportsNotRetrieved int           `json:"reports_not_retrieved" yaml:"reports_not_retrieved"`
	ReportsAssessed     int           `json:"reports_assessed" yaml:"reports_assessed"`
	ReportsExcluded     int           `json:"reports_excluded" yaml:"reports_excluded"`
	ExclusionReasons    []ReasonCount `json:"exclusion_reasons" yaml:"exclusion_reasons"`
}

// IncludedCounts holds the final included counts.
type IncludedCounts struct {
	StudiesIncluded int `json:"studies_included" yaml:"studies_included"`
	ReportsIncluded int `json:"reports_included" yaml:"reports_included"`
}

// FlowState is the PRISMA 2020 flow state. Derived counts (TotalIdentified,
// RecordsScreened, RecordsExcluded, ReportsSought, ReportsAssessed,
// ReportsExcluded) are recomputed from the raw inputs before every render.
type FlowState struct {
	Identification Identification    `json:"identification" yaml:"identification"`
	Screening      ScreeningCounts   `json:"screening" yaml:"screening"`
	Eligibility    EligibilityCounts `json:"eligibility" yaml:"eligibility"`
	Included       IncludedCounts    `json:"included" yaml:"included"`
}
