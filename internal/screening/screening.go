// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package screening applies declarative inclusion/exclusion criteria to
// paper records. Only year range, language and publication type are machine
// evaluated; the free-text criteria are carried for human screeners.
package screening

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/review-engine/internal/docfile"
	"github.com/pdiddy/review-engine/pkg/types"
)

// PassedNote is attached to records that pass every automated check.
const PassedNote = "Passed automated screening criteria"

// Screen evaluates paper against c. Checks run in a fixed order (year,
// language, publication type) and the first failure decides the exclusion
// reason. An unknown year passes the year check.
func Screen(paper types.PaperRecord, c types.ScreeningCriteria, stage types.Stage) types.ScreeningRecord {
	rec := types.ScreeningRecord{
		PaperID:    paper.ID(),
		Title:      paper.Title,
		Stage:      stage,
		ScreenerID: types.AutomatedScreener,
	}
	if reason := exclusionReason(paper, c); reason != "" {
		rec.Decision = types.DecisionExclude
		rec.ExclusionReason = reason
		return rec
	}
	rec.Decision = types.DecisionInclude
	rec.Notes = PassedNote
	return rec
}

func exclusionReason(paper types.PaperRecord, c types.ScreeningCriteria) string {
	if paper.Year != nil && !c.YearRange.Contains(*paper.Year) {
		return fmt.Sprintf("Outside year range (%d-%d)", c.YearRange.Start, c.YearRange.End)
	}
	if lang := paper.Lang(); !c.AcceptsLanguage(lang) {
		return "Language not in criteria: " + lang
	}
	if t := paper.PublicationType; t != "" && !c.AcceptsPublicationType(t) {
		return "Publication type not in criteria: " + t
	}
	return ""
}

// Summarize counts decisions in records. The reason histogram only counts
// exclusions that carry a reason. The histogram is never nil.
func Summarize(records []types.ScreeningRecord) types.ScreeningSummary {
	s := types.ScreeningSummary{
		Total:            len(records),
		ExclusionReasons: map[string]int{},
	}
	for _, r := range records {
		switch r.Decision {
		case types.DecisionInclude:
			s.Included++
		case types.DecisionExclude:
			s.Excluded++
			if r.ExclusionReason != "" {
				s.ExclusionReasons[r.ExclusionReason]++
			}
		case types.DecisionUncertain:
			s.Uncertain++
		}
	}
	return s
}

// Manager owns one review's criteria and the screening records produced
// under them.
type Manager struct {
	criteria types.ScreeningCriteria
	records  []types.ScreeningRecord
	log      *zap.Logger

	// screened holds decisions from Screen keyed by the paper's identity
	// key; added holds records from AddRecord keyed by paper_id. Two
	// papers can share a paper_id when only their titles identify them.
	screened map[string]decisionAt
	added    map[string]decisionAt
	seq      int
}

type decisionAt struct {
	seq      int
	decision types.Decision
}

// NewManager returns a Manager for c. It fails when c is invalid.
func NewManager(c types.ScreeningCriteria, log *zap.Logger) (*Manager, error) {
	if err := Validate(c); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		criteria: c,
		log:      log,
		screened: map[string]decisionAt{},
		added:    map[string]decisionAt{},
	}, nil
}

// Criteria returns the manager's criteria.
func (m *Manager) Criteria() types.ScreeningCriteria { return m.criteria }

// AddRecord appends a record, typically a human decision.
func (m *Manager) AddRecord(r types.ScreeningRecord) {
	m.records = append(m.records, r)
	m.seq++
	m.added[r.PaperID] = decisionAt{seq: m.seq, decision: r.Decision}
}

// Screen screens one paper, records the result and returns it.
func (m *Manager) Screen(paper types.PaperRecord, stage types.Stage) types.ScreeningRecord {
	r := Screen(paper, m.criteria, stage)
	m.log.Debug("screened paper",
		zap.String("paper_id", r.PaperID),
		zap.String("decision", string(r.Decision)),
		zap.String("reason", r.ExclusionReason))
	key := paper.IdentityKey()
	if key == "" {
		m.AddRecord(r)
		return r
	}
	m.records = append(m.records, r)
	m.seq++
	m.screened[key] = decisionAt{seq: m.seq, decision: r.Decision}
	return r
}

// ScreenAll screens papers in order and returns their records.
func (m *Manager) ScreenAll(papers []types.PaperRecord, stage types.Stage) []types.ScreeningRecord {
	out := make([]types.ScreeningRecord, 0, len(papers))
	for _, p := range papers {
		out = append(out, m.Screen(p, stage))
	}
	return out
}

// Records returns a copy of the recorded screening records.
func (m *Manager) Records() []types.ScreeningRecord {
	return append([]types.ScreeningRecord(nil), m.records...)
}

// Summary summarizes every recorded decision.
func (m *Manager) Summary() types.ScreeningSummary {
	return Summarize(m.records)
}

// Included returns the papers whose latest decision in this manager is an
// Include, in input order. A paper screened here is matched by identity
// key; a record added with AddRecord is matched by paper_id and wins when
// it is newer.
func (m *Manager) Included(papers []types.PaperRecord) []types.PaperRecord {
	var out []types.PaperRecord
	for _, p := range papers {
		if m.latest(p) == types.DecisionInclude {
			out = append(out, p)
		}
	}
	return out
}

func (m *Manager) latest(p types.PaperRecord) types.Decision {
	s, okS := m.screened[p.IdentityKey()]
	a, okA := m.added[p.ID()]
	switch {
	case okS && okA:
		if a.seq > s.seq {
			return a.decision
		}
		return s.decision
	case okS:
		return s.decision
	case okA:
		return a.decision
	}
	return ""
}

// SaveRecords writes the records and their summary as one batch document.
func (m *Manager) SaveRecords(path string) error {
	return SaveBatch(path, m.records)
}

// SaveBatch writes records with their summary to path.
func SaveBatch(path string, records []types.ScreeningRecord) error {
	if records == nil {
		records = []types.ScreeningRecord{}
	}
	return docfile.Write(path, types.ScreeningBatch{Records: records, Summary: Summarize(records)})
}

// LoadBatch reads a batch document. The summary is recomputed from the
// records rather than trusted from the file.
func LoadBatch(path string) (types.ScreeningBatch, error) {
	var b types.ScreeningBatch
	if err := docfile.Read(path, &b); err != nil {
		return types.ScreeningBatch{}, fmt.Errorf("loading screening records: %w", err)
	}
	b.Summary = Summarize(b.Records)
	return b, nil
}
