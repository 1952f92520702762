// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Rating is a risk-of-bias judgement.
type Rating string

const (
	RatingLow          Rating = "Low"
	RatingSomeConcerns Rating = "Some concerns"
	RatingHigh         Rating = "High"

	// RatingUnknown is the overall risk of an assessment with no rated domains.
	RatingUnknown Rating = "Unknown"
)

// BiasDomain describes one RoB 2 assessment domain.
type BiasDomain struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// DomainAssessment is the rating and rationale for one domain.
type DomainAssessment struct {
	Rating    Rating `json:"rating" yaml:"rating"`
	Rationale string `json:"rationale" yaml:"rationale"`
}

// RiskOfBiasAssessment holds per-domain ratings for one paper. OverallRisk
// is a cache of the value derived from DomainAssessments.
type RiskOfBiasAssessment struct {
	PaperID           string                      `json:"paper_id" yaml:"paper_id"`
	Title             string                      `json:"title" yaml:"title"`
	DomainAssessments map[string]DomainAssessment `json:"domain_assessments" yaml:"domain_assessments"`
	OverallRisk       Rating                      `json:"overall_risk,omitempty" yaml:"overall_risk,omitempty"`
	AssessorID        string                      `json:"assessor_id" yaml:"assessor_id"`
	Notes             string                      `json:"notes" yaml:"notes"`
}
