// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the review-engine pipeline.
// Implements: record normalization (PaperRecord, Identifiers);
//
//	screening (ScreeningRecord, ScreeningCriteria, ScreeningSummary);
//	multi-reviewer agreement (ScreeningDecision, Reviewer);
//	risk of bias (RiskOfBiasAssessment);
//	PRISMA flow accounting (FlowState).
//
// Every type carries json and yaml tags; the JSON documents double as the
// interchange format between pipeline stages.
package types

import (
	"net/url"
	"strings"
)

// DefaultLanguage is assumed when a source does not report a language.
const DefaultLanguage = "English"

// maxTitleIDLen bounds the title-derived paper ID.
const maxTitleIDLen = 50

// Identifiers holds the typed keys a source may report for a paper.
type Identifiers struct {
	// DOI is the Digital Object Identifier without resolver prefix.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// URL is the landing page of the paper at its source.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// ArxivID is the arXiv identifier without version suffix (e.g. "2301.07041").
	ArxivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`

	// SourceTitle is the title exactly as the source reported it.
	SourceTitle string `json:"source_title,omitempty" yaml:"source_title,omitempty"`
}

// PaperRecord is one discovered publication in canonical shape. Records are
// built by the normalizer and not mutated afterwards.
type PaperRecord struct {
	// Title is the paper title; empty when the source omitted it.
	Title string `json:"title" yaml:"title"`

	// Authors lists plain author names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract, possibly empty.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Year is the publication year; nil when unknown.
	Year *int `json:"year,omitempty" yaml:"year,omitempty"`

	// Identifiers holds DOI, URL, arXiv ID and source title.
	Identifiers Identifiers `json:"identifiers" yaml:"identifiers"`

	// Source tags the connector that produced the record (e.g. "arXiv", "J-STAGE").
	Source string `json:"source" yaml:"source"`

	// Language is the publication language (default "English").
	Language string `json:"language" yaml:"language"`

	// PublicationType is the source's type label (e.g. "Journal Article"), if any.
	PublicationType string `json:"publication_type,omitempty" yaml:"publication_type,omitempty"`

	// Venue is the journal, conference or issuing body.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// PDFURL links to a full-text PDF when the source exposes one.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// PublishedDate is the raw date string reported by the source.
	PublishedDate string `json:"published_date,omitempty" yaml:"published_date,omitempty"`
}

// Year returns a pointer to y for populating PaperRecord.Year.
func Year(y int) *int { return &y }

// Lang returns the record language, falling back to DefaultLanguage.
func (p PaperRecord) Lang() string {
	if p.Language == "" {
		return DefaultLanguage
	}
	return p.Language
}

// HasIdentity reports whether at least one of DOI, URL or title is set.
func (p PaperRecord) HasIdentity() bool {
	return strings.TrimSpace(p.Identifiers.DOI) != "" ||
		strings.TrimSpace(p.Identifiers.URL) != "" ||
		strings.TrimSpace(p.Title) != ""
}

// ID derives the paper_id used by screening and review records: the DOI,
// else the URL, else the first 50 characters of the title.
func (p PaperRecord) ID() string {
	if p.Identifiers.DOI != "" {
		return p.Identifiers.DOI
	}
	if p.Identifiers.URL != "" {
		return p.Identifiers.URL
	}
	r := []rune(p.Title)
	if len(r) > maxTitleIDLen {
		r = r[:maxTitleIDLen]
	}
	return string(r)
}

// IdentityKey returns the dedup key for the record, resolved in priority
// order DOI, canonical URL, normalized title. Keys carry their kind as a
// prefix so a DOI never collides with a title. It returns "" when the
// record has no identity.
func (p PaperRecord) IdentityKey() string {
	if doi := NormalizeDOI(p.Identifiers.DOI); doi != "" {
		return "doi:" + doi
	}
	if u := CanonicalURL(p.Identifiers.URL); u != "" {
		return "url:" + u
	}
	if t := NormalizeTitle(p.Title); t != "" {
		return "title:" + t
	}
	return ""
}

// NormalizeDOI lower-cases a DOI and strips resolver prefixes.
func NormalizeDOI(doi string) string {
	d := strings.ToLower(strings.TrimSpace(doi))
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"} {
		d = strings.TrimPrefix(d, prefix)
	}
	return strings.TrimSpace(d)
}

// CanonicalURL lower-cases scheme and host, drops the fragment and any
// trailing slash. Unparseable input is returned trimmed.
func CanonicalURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(s, "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme == "http" {
		u.Scheme = "https"
	}
	u.Host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

// NormalizeTitle lower-cases a title, trims it and collapses inner whitespace.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}
