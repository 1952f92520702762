// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ScreeningDecision is one reviewer's verdict on one paper. Decision is
// free-form but conventionally Include, Exclude or Uncertain.
type ScreeningDecision struct {
	PaperID    string `json:"paper_id" yaml:"paper_id"`
	ReviewerID string `json:"reviewer_id" yaml:"reviewer_id"`
	Decision   string `json:"decision" yaml:"decision"`
	Reason     string `json:"reason" yaml:"reason"`
}

// Reviewer is a registered human or automated screener.
type Reviewer struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// ReviewerStats counts a reviewer's decisions. Decisions other than
// Include, Exclude and Uncertain count toward TotalScreened only.
type ReviewerStats struct {
	TotalScreened int `json:"total_screened" yaml:"total_screened"`
	Included      int `json:"included" yaml:"included"`
	Excluded      int `json:"excluded" yaml:"excluded"`
	Uncertain     int `json:"uncertain" yaml:"uncertain"`
}

// Conflict is a paper whose reviewers disagree.
type Conflict struct {
	PaperID   string              `json:"paper_id" yaml:"paper_id"`
	Decisions []ScreeningDecision `json:"decisions" yaml:"decisions"`
	Reviewers int                 `json:"reviewers" yaml:"reviewers"`
}

// DecisionLog is the on-disk form of a reviewer registry and its decisions.
type DecisionLog struct {
	Reviewers []Reviewer          `json:"reviewers" yaml:"reviewers"`
	Decisions []ScreeningDecision `json:"decisions" yaml:"decisions"`
}
