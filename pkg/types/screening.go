// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDecision is returned when a decision or stage string is not recognized.
var ErrInvalidDecision = errors.New("invalid decision")

// Decision is a screening verdict.
type Decision string

const (
	DecisionInclude   Decision = "Include"
	DecisionExclude   Decision = "Exclude"
	DecisionUncertain Decision = "Uncertain"
)

// ParseDecision matches s case-insensitively against the known decisions.
func ParseDecision(s string) (Decision, error) {
	for _, d := range []Decision{DecisionInclude, DecisionExclude, DecisionUncertain} {
		if strings.EqualFold(strings.TrimSpace(s), string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want Include, Exclude or Uncertain)", ErrInvalidDecision, s)
}

// Stage identifies a PRISMA screening pass.
type Stage string

const (
	StageTitleAbstract Stage = "title_abstract"
	StageFullText      Stage = "full_text"
)

// ParseStage validates a stage string.
func ParseStage(s string) (Stage, error) {
	switch Stage(s) {
	case StageTitleAbstract, StageFullText:
		return Stage(s), nil
	}
	return "", fmt.Errorf("%w: unknown stage %q (want title_abstract or full_text)", ErrInvalidDecision, s)
}

// AutomatedScreener is the screener ID recorded for criteria-driven decisions.
const AutomatedScreener = "automated"

// ScreeningRecord is one screening decision for one paper at one stage.
// ExclusionReason is set only for criteria-driven exclusions.
type ScreeningRecord struct {
	PaperID         string   `json:"paper_id" yaml:"paper_id"`
	Title           string   `json:"title" yaml:"title"`
	Decision        Decision `json:"decision" yaml:"decision"`
	ExclusionReason string   `json:"exclusion_reason,omitempty" yaml:"exclusion_reason,omitempty"`
	Stage           Stage    `json:"stage" yaml:"stage"`
	ScreenerID      string   `json:"screener_id" yaml:"screener_id"`
	Notes           string   `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// YearRange is an inclusive publication year interval.
type YearRange struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Contains reports whether y lies within the range, bounds included.
func (r YearRange) Contains(y int) bool {
	return y >= r.Start && y <= r.End
}

// Valid reports whether Start <= End.
func (r YearRange) Valid() bool { return r.Start <= r.End }

// ScreeningCriteria is the declarative screening policy for one review.
// Inclusion and exclusion criteria are free text for human screeners; only
// languages, year range and publication types are machine-evaluated.
type ScreeningCriteria struct {
	InclusionCriteria []string  `json:"inclusion_criteria" yaml:"inclusion_criteria"`
	ExclusionCriteria []string  `json:"exclusion_criteria" yaml:"exclusion_criteria"`
	LanguageCriteria  []string  `json:"language_criteria" yaml:"language_criteria"`
	YearRange         YearRange `json:"year_range" yaml:"year_range"`
	PublicationTypes  []string  `json:"publication_types" yaml:"publication_types"`
	StudyDesigns      []string  `json:"study_designs" yaml:"study_designs"`
}

// AcceptsLanguage reports whether lang is listed in LanguageCriteria.
func (c ScreeningCriteria) AcceptsLanguage(lang string) bool {
	return contains(c.LanguageCriteria, lang)
}

// AcceptsPublicationType reports whether t is listed in PublicationTypes.
func (c ScreeningCriteria) AcceptsPublicationType(t string) bool {
	return contains(c.PublicationTypes, t)
}

// ScreeningSummary aggregates a batch of screening records. ExclusionReasons
// counts only exclusions that carry a reason.
type ScreeningSummary struct {
	Total            int            `json:"total" yaml:"total"`
	Included         int            `json:"included" yaml:"included"`
	Excluded         int            `json:"excluded" yaml:"excluded"`
	Uncertain        int            `json:"uncertain" yaml:"uncertain"`
	ExclusionReasons map[string]int `json:"exclusion_reasons" yaml:"exclusion_reasons"`
}

// ScreeningBatch is the on-disk form of a screening run.
type ScreeningBatch struct {
	Records []ScreeningRecord `json:"records" yaml:"records"`
	Summary ScreeningSummary  `json:"summary" yaml:"summary"`
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
