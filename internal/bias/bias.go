// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bias records Cochrane RoB 2 style risk-of-bias assessments and
// rolls per-domain ratings up to an overall judgement: any High makes the
// study High, otherwise any Some concerns makes it Some concerns, otherwise
// Low. An assessment with no rated domains is Unknown.
package bias

import (
	"errors"
	"fmt"

	"github.com/pdiddy/review-engine/internal/docfile"
	"github.com/pdiddy/review-engine/pkg/types"
)

var (
	// ErrInvalidRating is returned for ratings other than Low, Some concerns and High.
	ErrInvalidRating = errors.New("invalid rating")
	// ErrUnknownDomain is returned for domain IDs outside the RoB 2 catalogue.
	ErrUnknownDomain = errors.New("unknown domain")
)

// Domain IDs.
const (
	DomainRandomization      = "randomization"
	DomainDeviations         = "deviations"
	DomainMissingData        = "missing_data"
	DomainOutcomeMeasurement = "outcome_measurement"
	DomainSelectionReporting = "selection_reporting"
)

var domains = []types.BiasDomain{
	{ID: DomainRandomization, Name: "Randomization process", Description: "Bias arising from the randomization process"},
	{ID: DomainDeviations, Name: "Deviations from intended interventions", Description: "Bias due to deviations from intended interventions"},
	{ID: DomainMissingData, Name: "Missing outcome data", Description: "Bias due to missing outcome data"},
	{ID: DomainOutcomeMeasurement, Name: "Measurement of the outcome", Description: "Bias in measurement of the outcome"},
	{ID: DomainSelectionReporting, Name: "Selection of the reported result", Description: "Bias in selection of the reported result"},
}

// ValidRatings lists the accepted domain ratings.
var ValidRatings = []types.Rating{types.RatingLow, types.RatingSomeConcerns, types.RatingHigh}

// Domains returns the five assessment domains in catalogue order.
func Domains() []types.BiasDomain {
	return append([]types.BiasDomain(nil), domains...)
}

// LookupDomain returns the catalogue entry for id.
func LookupDomain(id string) (types.BiasDomain, bool) {
	for _, d := range domains {
		if d.ID == id {
			return d, true
		}
	}
	return types.BiasDomain{}, false
}

// ParseRating validates a rating string. Matching is exact.
func ParseRating(s string) (types.Rating, error) {
	for _, r := range ValidRatings {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want Low, Some concerns or High)", ErrInvalidRating, s)
}

// NewAssessment returns a blank assessment for one paper.
func NewAssessment(paperID, title, assessorID string) *types.RiskOfBiasAssessment {
	if assessorID == "" {
		assessorID = types.AutomatedScreener
	}
	return &types.RiskOfBiasAssessment{
		PaperID:           paperID,
		Title:             title,
		DomainAssessments: map[string]types.DomainAssessment{},
		AssessorID:        assessorID,
	}
}

// AssessDomain rates one domain of a. The rating is validated before the
// domain; an invalid call leaves a unchanged. Re-rating a domain replaces
// the previous rating.
func AssessDomain(a *types.RiskOfBiasAssessment, domainID, rating, rationale string) error {
	r, err := ParseRating(rating)
	if err != nil {
		return err
	}
	if _, ok := LookupDomain(domainID); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDomain, domainID)
	}
	if a.DomainAssessments == nil {
		a.DomainAssessments = map[string]types.DomainAssessment{}
	}
	a.DomainAssessments[domainID] = types.DomainAssessment{Rating: r, Rationale: rationale}
	a.OverallRisk = OverallRisk(a)
	return nil
}

// OverallRisk derives the overall rating from a's domain ratings. The
// result does not depend on domain order or on how many domains are rated.
func OverallRisk(a *types.RiskOfBiasAssessment) types.Rating {
	if a == nil || len(a.DomainAssessments) == 0 {
		return types.RatingUnknown
	}
	overall := types.RatingLow
	for _, d := range a.DomainAssessments {
		switch d.Rating {
		case types.RatingHigh:
			return types.RatingHigh
		case types.RatingSomeConcerns:
			overall = types.RatingSomeConcerns
		}
	}
	return overall
}

// Summary counts assessments by overall risk.
type Summary struct {
	Low          int `json:"low" yaml:"low"`
	SomeConcerns int `json:"some_concerns" yaml:"some_concerns"`
	High         int `json:"high" yaml:"high"`
	Unknown      int `json:"unknown" yaml:"unknown"`
}

// Summarize counts assessments by their recomputed overall risk.
func Summarize(as []*types.RiskOfBiasAssessment) Summary {
	var s Summary
	for _, a := range as {
		switch OverallRisk(a) {
		case types.RatingLow:
			s.Low++
		case types.RatingSomeConcerns:
			s.SomeConcerns++
		case types.RatingHigh:
			s.High++
		default:
			s.Unknown++
		}
	}
	return s
}

// Save recomputes the overall risk and writes a to path.
func Save(path string, a *types.RiskOfBiasAssessment) error {
	a.OverallRisk = OverallRisk(a)
	return docfile.Write(path, a)
}

// Load reads an assessment and validates its ratings and domains. A stale
// overall risk in the file is replaced with the recomputed value.
func Load(path string) (*types.RiskOfBiasAssessment, error) {
	var a types.RiskOfBiasAssessment
	if err := docfile.Read(path, &a); err != nil {
		return nil, fmt.Errorf("loading assessment: %w", err)
	}
	if err := Validate(&a); err != nil {
		return nil, fmt.Errorf("loading assessment %s: %w", path, err)
	}
	if a.DomainAssessments == nil {
		a.DomainAssessments = map[string]types.DomainAssessment{}
	}
	a.OverallRisk = OverallRisk(&a)
	return &a, nil
}

// Validate checks every domain ID and rating of a.
func Validate(a *types.RiskOfBiasAssessment) error {
	for id, d := range a.DomainAssessments {
		if _, err := ParseRating(string(d.Rating)); err != nil {
			return fmt.Errorf("domain %s: %w", id, err)
		}
		if _, ok := LookupDomain(id); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownDomain, id)
		}
	}
	return nil
}
