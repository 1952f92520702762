// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reviewers

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/review-engine/pkg/types"
)

func record(m *Manager, paper, reviewer, decision string) {
	m.RecordDecision(types.ScreeningDecision{PaperID: paper, ReviewerID: reviewer, Decision: decision})
}

func TestCohenKappa(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"Include", "Exclude", "Include"}, []string{"Include", "Exclude", "Include"}, 1.0},
		{"all include", []string{"Include", "Include"}, []string{"Include", "Include"}, 1.0},
		{"complementary", []string{"Include", "Exclude"}, []string{"Exclude", "Include"}, -1.0},
		{"uncertain counts as not include", []string{"Include", "Uncertain", "Exclude"}, []string{"Include", "Exclude", "Exclude"}, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(nil)
			for i := range tt.a {
				pid := string(rune('p' + i))
				record(m, pid, "alice", tt.a[i])
				record(m, pid, "bob", tt.b[i])
			}
			assert.InDelta(t, tt.want, m.CohenKappa("alice", "bob"), 1e-9)
			assert.InDelta(t, tt.want, m.CohenKappa("bob", "alice"), 1e-9)
		})
	}
}

func TestCohenKappaNoOverlap(t *testing.T) {
	m := NewManager(nil)
	assert.Zero(t, m.CohenKappa("alice", "bob"))

	record(m, "p1", "alice", "Include")
	record(m, "p2", "bob", "Include")
	assert.Zero(t, m.CohenKappa("alice", "bob"))
}

func TestCohenKappaOnlyCommonPapers(t *testing.T) {
	m := NewManager(nil)
	record(m, "p1", "alice", "Include")
	record(m, "p1", "bob", "Include")
	record(m, "p2", "alice", "Exclude")
	record(m, "p2", "bob", "Exclude")
	record(m, "p3", "alice", "Include") // bob never saw p3
	assert.InDelta(t, 1.0, m.CohenKappa("alice", "bob"), 1e-9)
}

func TestLastWriteWins(t *testing.T) {
	m := NewManager(nil)
	record(m, "p1", "alice", "Include")
	record(m, "p1", "bob", "Exclude")
	record(m, "p1", "alice", "Exclude")

	ds := m.DecisionsFor("p1")
	require.Len(t, ds, 2)
	assert.Equal(t, "alice", ds[0].ReviewerID)
	assert.Equal(t, "Exclude", ds[0].Decision)

	assert.Empty(t, m.Conflicts())
	assert.Equal(t, []string{"p1"}, m.ConsensusPapers())
	assert.Equal(t, types.ReviewerStats{TotalScreened: 1, Excluded: 1}, m.ReviewerStatistics("alice"))

	// The log itself keeps every decision.
	assert.Len(t, m.Log(), 3)
}

func TestConflictsAndConsensus(t *testing.T) {
	m := NewManager(nil)
	record(m, "p2", "alice", "Include")
	record(m, "p2", "bob", "Exclude")
	record(m, "p1", "alice", "Include")
	record(m, "p1", "bob", "Include")
	record(m, "p3", "alice", "Include")
	record(m, "p4", "alice", "Uncertain")
	record(m, "p4", "bob", "Include")
	record(m, "p4", "carol", "Include")

	conflicts := m.Conflicts()
	require.Len(t, conflicts, 2)
	assert.Equal(t, "p2", conflicts[0].PaperID)
	assert.Equal(t, 2, conflicts[0].Reviewers)
	assert.Len(t, conflicts[0].Decisions, 2)
	assert.Equal(t, "p4", conflicts[1].PaperID)
	assert.Equal(t, 3, conflicts[1].Reviewers)

	assert.Equal(t, []string{"p1"}, m.ConsensusPapers())
	assert.Equal(t, []string{"p2", "p1", "p3", "p4"}, m.Papers())
}

func TestResolveByMajority(t *testing.T) {
	m := NewManager(nil)
	record(m, "tie", "alice", "Include")
	record(m, "tie", "bob", "Exclude")
	record(m, "maj", "alice", "Include")
	record(m, "maj", "bob", "Exclude")
	record(m, "maj", "carol", "Include")

	_, ok := m.ResolveByMajority("tie")
	assert.False(t, ok)

	dec, ok := m.ResolveByMajority("maj")
	assert.True(t, ok)
	assert.Equal(t, "Include", dec)

	_, ok = m.ResolveByMajority("missing")
	assert.False(t, ok)

	assert.Equal(t, []Resolution{
		{PaperID: "tie", Resolved: false},
		{PaperID: "maj", Decision: "Include", Resolved: true},
	}, m.ResolveConflicts())
}

func TestResolveByMajorityThreeWayTie(t *testing.T) {
	m := NewManager(nil)
	record(m, "p", "a", "Include")
	record(m, "p", "b", "Exclude")
	record(m, "p", "c", "Uncertain")
	_, ok := m.ResolveByMajority("p")
	assert.False(t, ok)
}

func TestReviewerStatistics(t *testing.T) {
	m := NewManager(nil)
	record(m, "p1", "alice", "Include")
	record(m, "p2", "alice", "Exclude")
	record(m, "p3", "alice", "Uncertain")
	record(m, "p4", "alice", "maybe")
	record(m, "p1", "bob", "Include")

	assert.Equal(t, types.ReviewerStats{TotalScreened: 4, Included: 1, Excluded: 1, Uncertain: 1},
		m.ReviewerStatistics("alice"))
	assert.Equal(t, types.ReviewerStats{}, m.ReviewerStatistics("nobody"))
}

func TestRegistry(t *testing.T) {
	m := NewManager(nil)
	m.AddReviewer("r2", "Bob")
	m.AddReviewer("r1", "Alice")
	m.AddReviewer("r2", "Robert")

	assert.Equal(t, []types.Reviewer{{ID: "r2", Name: "Robert"}, {ID: "r1", Name: "Alice"}}, m.Reviewers())
	r, ok := m.Reviewer("r1")
	assert.True(t, ok)
	assert.Equal(t, "Alice", r.Name)

	record(m, "p", "r1", "Include")
	record(m, "p", "r2", "Include")
	k := m.AllKappas()
	require.Len(t, k, 1)
	assert.Equal(t, PairwiseKappa{ReviewerA: "r2", ReviewerB: "r1", Kappa: 1}, k[0])
}

func TestCSVRoundTrip(t *testing.T) {
	m := NewManager(nil)
	m.RecordDecision(types.ScreeningDecision{PaperID: "10.1/a", ReviewerID: "alice", Decision: "Exclude", Reason: "off topic, too narrow"})
	record(m, "10.1/a", "bob", "Include")

	var buf bytes.Buffer
	require.NoError(t, m.WriteCSV(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "paper_id,reviewer_id,decision,reason", lines[0])
	assert.Equal(t, `10.1/a,alice,Exclude,"off topic, too narrow"`, lines[1])

	ds, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, m.Log(), ds)
}

func TestReadCSVRejectsBadHeader(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b,c\n1,2,3\n"))
	assert.Error(t, err)

	ds, err := ReadCSV(strings.NewReader(""))
	assert.NoError(t, err)
	assert.Empty(t, ds)
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(nil)
	m.AddReviewer("alice", "Alice")
	record(m, "p1", "alice", "Include")
	record(m, "p1", "alice", "Exclude")

	path := filepath.Join(dir, "decisions.json")
	require.NoError(t, m.Save(path))

	got, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, m.Snapshot(), got.Snapshot())

	csvPath := filepath.Join(dir, "out", "decisions.csv")
	require.NoError(t, m.ExportCSV(csvPath))
	fresh := NewManager(nil)
	n, err := fresh.ImportCSV(csvPath)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, m.Log(), fresh.Log())
}
