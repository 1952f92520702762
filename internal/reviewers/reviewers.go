// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reviewers records independent screening decisions from several
// reviewers and measures their agreement: Cohen's kappa per reviewer pair,
// conflicts, majority resolution, consensus and per-reviewer counts.
//
// The decision log is append-only. When a reviewer decides the same paper
// more than once, the last decision wins: every read sees one decision per
// (paper, reviewer) pair, positioned where that pair first appeared.
package reviewers

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/review-engine/internal/docfile"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Include is the decision string treated as the positive class in kappa's
// expected-agreement term.
const Include = string(types.DecisionInclude)

// Manager holds a reviewer registry and the decision log for one review.
// It is not safe for concurrent use.
type Manager struct {
	reviewers []types.Reviewer
	index     map[string]int
	log       []types.ScreeningDecision
	zlog      *zap.Logger
}

// NewManager returns an empty Manager. A nil logger discards output.
func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{index: map[string]int{}, zlog: log}
}

// AddReviewer registers a reviewer. Re-adding an ID renames it in place.
func (m *Manager) AddReviewer(id, name string) {
	if i, ok := m.index[id]; ok {
		m.reviewers[i].Name = name
		return
	}
	m.index[id] = len(m.reviewers)
	m.reviewers = append(m.reviewers, types.Reviewer{ID: id, Name: name})
	m.zlog.Info("added reviewer", zap.String("id", id), zap.String("name", name))
}

// Reviewers lists registered reviewers in registration order.
func (m *Manager) Reviewers() []types.Reviewer {
	return append([]types.Reviewer(nil), m.reviewers...)
}

// Reviewer looks up a registered reviewer.
func (m *Manager) Reviewer(id string) (types.Reviewer, bool) {
	i, ok := m.index[id]
	if !ok {
		return types.Reviewer{}, false
	}
	return m.reviewers[i], true
}

// RecordDecision appends d to the log. Decisions from unregistered
// reviewers are accepted.
func (m *Manager) RecordDecision(d types.ScreeningDecision) {
	m.log = append(m.log, d)
}

// Log returns every recorded decision in insertion order, including
// superseded ones.
func (m *Manager) Log() []types.ScreeningDecision {
	return append([]types.ScreeningDecision(nil), m.log...)
}

type pairKey struct{ paper, reviewer string }

// effective collapses the log to one decision per (paper, reviewer) pair.
func (m *Manager) effective() []types.ScreeningDecision {
	pos := make(map[pairKey]int, len(m.log))
	var out []types.ScreeningDecision
	for _, d := range m.log {
		k := pairKey{d.PaperID, d.ReviewerID}
		if i, ok := pos[k]; ok {
			out[i] = d
			continue
		}
		pos[k] = len(out)
		out = append(out, d)
	}
	return out
}

// byPaper groups effective decisions by paper in order of first appearance.
func (m *Manager) byPaper() ([]string, map[string][]types.ScreeningDecision) {
	var order []string
	groups := map[string][]types.ScreeningDecision{}
	for _, d := range m.effective() {
		if _, ok := groups[d.PaperID]; !ok {
			order = append(order, d.PaperID)
		}
		groups[d.PaperID] = append(groups[d.PaperID], d)
	}
	return order, groups
}

// Papers lists every paper with at least one decision, in order of first
// appearance.
func (m *Manager) Papers() []string {
	order, _ := m.byPaper()
	return order
}

// DecisionsFor returns the effective decisions for paperID in insertion order.
func (m *Manager) DecisionsFor(paperID string) []types.ScreeningDecision {
	var out []types.ScreeningDecision
	for _, d := range m.effective() {
		if d.PaperID == paperID {
			out = append(out, d)
		}
	}
	return out
}

func (m *Manager) decisionsBy(reviewerID string) (map[string]string, []string) {
	dec := map[string]string{}
	var order []string
	for _, d := range m.effective() {
		if d.ReviewerID != reviewerID {
			continue
		}
		if _, ok := dec[d.PaperID]; !ok {
			order = append(order, d.PaperID)
		}
		dec[d.PaperID] = d.Decision
	}
	return dec, order
}

// CohenKappa measures agreement between two reviewers over the papers both
// decided. Observed agreement compares decision strings exactly; expected
// agreement treats decisions as Include versus anything else. It returns 0
// when the reviewers share no papers and 1 when expected agreement is 1.
func (m *Manager) CohenKappa(reviewerA, reviewerB string) float64 {
	a, order := m.decisionsBy(reviewerA)
	b, _ := m.decisionsBy(reviewerB)

	var total, agree, inclA, inclB int
	for _, pid := range order {
		db, ok := b[pid]
		if !ok {
			continue
		}
		da := a[pid]
		total++
		if da == db {
			agree++
		}
		if da == Include {
			inclA++
		}
		if db == Include {
			inclB++
		}
	}
	if total == 0 {
		return 0
	}

	n := float64(total)
	po := float64(agree) / n
	pa := float64(inclA) / n
	pb := float64(inclB) / n
	pe := pa*pb + (1-pa)*(1-pb)
	if pe == 1 {
		return 1
	}
	return (po - pe) / (1 - pe)
}

// PairwiseKappa is the kappa for one reviewer pair.
type PairwiseKappa struct {
	ReviewerA string  `json:"reviewer_a" yaml:"reviewer_a"`
	ReviewerB string  `json:"reviewer_b" yaml:"reviewer_b"`
	Kappa     float64 `json:"kappa" yaml:"kappa"`
}

// AllKappas computes kappa for every pair of registered reviewers, in
// registration order.
func (m *Manager) AllKappas() []PairwiseKappa {
	var out []PairwiseKappa
	for i := 0; i < len(m.reviewers); i++ {
		for j := i + 1; j < len(m.reviewers); j++ {
			a, b := m.reviewers[i].ID, m.reviewers[j].ID
			out = append(out, PairwiseKappa{ReviewerA: a, ReviewerB: b, Kappa: m.CohenKappa(a, b)})
		}
	}
	return out
}

// Conflicts reports papers with at least two decisions that are not all
// identical.
func (m *Manager) Conflicts() []types.Conflict {
	order, groups := m.byPaper()
	var out []types.Conflict
	for _, pid := range order {
		ds := groups[pid]
		if len(ds) < 2 || unanimous(ds) {
			continue
		}
		out = append(out, types.Conflict{PaperID: pid, Decisions: ds, Reviewers: len(ds)})
	}
	return out
}

// ConsensusPapers lists papers with at least two decisions, all identical.
func (m *Manager) ConsensusPapers() []string {
	order, groups := m.byPaper()
	var out []string
	for _, pid := range order {
		ds := groups[pid]
		if len(ds) >= 2 && unanimous(ds) {
			out = append(out, pid)
		}
	}
	return out
}

func unanimous(ds []types.ScreeningDecision) bool {
	for _, d := range ds[1:] {
		if d.Decision != ds[0].Decision {
			return false
		}
	}
	return true
}

// ResolveByMajority returns the decision with strictly the most votes for
// paperID. It reports false on a tie or when the paper has no decisions.
func (m *Manager) ResolveByMajority(paperID string) (string, bool) {
	counts := map[string]int{}
	var order []string
	for _, d := range m.DecisionsFor(paperID) {
		if counts[d.Decision] == 0 {
			order = append(order, d.Decision)
		}
		counts[d.Decision]++
	}
	best, bestN, tied := "", 0, false
	for _, dec := range order {
		switch n := counts[dec]; {
		case n > bestN:
			best, bestN, tied = dec, n, false
		case n == bestN:
			tied = true
		}
	}
	if bestN == 0 || tied {
		return "", false
	}
	return best, true
}

// Resolution is the majority outcome for one conflicting paper.
type Resolution struct {
	PaperID  string `json:"paper_id" yaml:"paper_id"`
	Decision string `json:"decision,omitempty" yaml:"decision,omitempty"`
	Resolved bool   `json:"resolved" yaml:"resolved"`
}

// ResolveConflicts applies majority vote to every conflict. Ties stay
// unresolved.
func (m *Manager) ResolveConflicts() []Resolution {
	var out []Resolution
	for _, c := range m.Conflicts() {
		dec, ok := m.ResolveByMajority(c.PaperID)
		out = append(out, Resolution{PaperID: c.PaperID, Decision: dec, Resolved: ok})
	}
	return out
}

// ReviewerStatistics counts a reviewer's decisions. Strings other than
// Include, Exclude and Uncertain only count toward the total.
func (m *Manager) ReviewerStatistics(reviewerID string) types.ReviewerStats {
	var s types.ReviewerStats
	for _, d := range m.effective() {
		if d.ReviewerID != reviewerID {
			continue
		}
		s.TotalScreened++
		switch types.Decision(d.Decision) {
		case types.DecisionInclude:
			s.Included++
		case types.DecisionExclude:
			s.Excluded++
		case types.DecisionUncertain:
			s.Uncertain++
		}
	}
	return s
}

// Snapshot returns the registry and full log in their on-disk form.
func (m *Manager) Snapshot() types.DecisionLog {
	l := types.DecisionLog{Reviewers: m.Reviewers(), Decisions: m.Log()}
	if l.Reviewers == nil {
		l.Reviewers = []types.Reviewer{}
	}
	if l.Decisions == nil {
		l.Decisions = []types.ScreeningDecision{}
	}
	return l
}

// Save writes the registry and log to path as JSON (or YAML).
func (m *Manager) Save(path string) error {
	return docfile.Write(path, m.Snapshot())
}

// Load reads a decision log written by Save into a new Manager.
func Load(path string, log *zap.Logger) (*Manager, error) {
	var l types.DecisionLog
	if err := docfile.Read(path, &l); err != nil {
		return nil, fmt.Errorf("loading decisions: %w", err)
	}
	m := NewManager(log)
	for _, r := range l.Reviewers {
		m.AddReviewer(r.ID, r.Name)
	}
	for _, d := range l.Decisions {
		m.RecordDecision(d)
	}
	return m, nil
}
