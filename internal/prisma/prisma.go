// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prisma accounts for records through the PRISMA 2020 funnel
// (identification, screening, eligibility, included) and renders the flow
// as a Mermaid flowchart and a Markdown report.
//
// The accountant stores only raw inputs. Derived counts are recomputed by
// State on every call, so accumulator calls may arrive in any order. Derived
// counts are not clamped: recording more exclusions than records yields a
// negative count.
package prisma

import (
	"fmt"
	"sort"
	"time"

	"github.com/pdiddy/review-engine/internal/docfile"
	"github.com/pdiddy/review-engine/pkg/types"
)

// DateLayout is the search-date format.
const DateLayout = "2006-01-02"

// OtherReasons labels screening exclusions recorded without a reason.
const OtherReasons = "Other reasons"

// Flow is a PRISMA flow accountant. The zero value is not usable; call New.
type Flow struct {
	databases         []types.DatabaseResult
	otherSources      []types.SourceCount
	duplicatesRemoved int
	screenExclusions  []types.ReasonCount
	eligExclusions    []types.ReasonCount
	notRetrieved      int
	studiesIncluded   int
	reportsIncluded   int

	now func() time.Time
}

// Option configures a Flow.
type Option func(*Flow)

// WithClock sets the clock used for default search dates and report
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

// New returns an empty accountant.
func New(opts ...Option) *Flow {
	f := &Flow{now: time.Now}
	for _, o := range opts {
		o(f)
	}
	return f
}

// AddDatabaseResults records count records from a database search. An empty
// date means today. Adding the same database again replaces its entry.
func (f *Flow) AddDatabaseResults(name string, count int, searchDate string) {
	if searchDate == "" {
		searchDate = f.now().Format(DateLayout)
	}
	r := types.DatabaseResult{Name: name, Count: count, SearchDate: searchDate}
	for i := range f.databases {
		if f.databases[i].Name == name {
			f.databases[i] = r
			return
		}
	}
	f.databases = append(f.databases, r)
}

// AddOtherSourceResults records count records from a non-database source
// such as citation searching. Re-adding a source replaces its count.
func (f *Flow) AddOtherSourceResults(name string, count int) {
	for i := range f.otherSources {
		if f.otherSources[i].Name == name {
			f.otherSources[i].Count = count
			return
		}
	}
	f.otherSources = append(f.otherSources, types.SourceCount{Name: name, Count: count})
}

// SetDuplicatesRemoved sets the number of duplicate records removed.
func (f *Flow) SetDuplicatesRemoved(n int) { f.duplicatesRemoved = n }

// AddScreeningExclusion sets the title/abstract exclusion count for reason.
func (f *Flow) AddScreeningExclusion(reason string, count int) {
	f.screenExclusions = setReason(f.screenExclusions, reason, count)
}

// AddEligibilityExclusion sets the full-text exclusion count for reason.
func (f *Flow) AddEligibilityExclusion(reason string, count int) {
	f.eligExclusions = setReason(f.eligExclusions, reason, count)
}

func setReason(list []types.ReasonCount, reason string, count int) []types.ReasonCount {
	for i := range list {
		if list[i].Reason == reason {
			list[i].Count = count
			return list
		}
	}
	return append(list, types.ReasonCount{Reason: reason, Count: count})
}

// SetReportsNotRetrieved sets the number of reports sought but not retrieved.
func (f *Flow) SetReportsNotRetrieved(n int) { f.notRetrieved = n }

// SetFinalIncluded sets the included study and report counts. A zero
// reports count means one report per study.
func (f *Flow) SetFinalIncluded(studies, reports int) {
	if reports == 0 {
		reports = studies
	}
	f.studiesIncluded = studies
	f.reportsIncluded = reports
}

// FromScreening records a screening summary's reason histogram as
// screening exclusions, largest first. Exclusions without a reason are
// recorded under OtherReasons so RecordsExcluded matches the summary.
func (f *Flow) FromScreening(s types.ScreeningSummary) {
	reasons := make([]types.ReasonCount, 0, len(s.ExclusionReasons))
	withReason := 0
	for r, n := range s.ExclusionReasons {
		reasons = append(reasons, types.ReasonCount{Reason: r, Count: n})
		withReason += n
	}
	sort.Slice(reasons, func(i, j int) bool {
		if reasons[i].Count != reasons[j].Count {
			return reasons[i].Count > reasons[j].Count
		}
		return reasons[i].Reason < reasons[j].Reason
	})
	for _, r := range reasons {
		f.AddScreeningExclusion(r.Reason, r.Count)
	}
	if rest := s.Excluded - withReason; rest > 0 {
		f.AddScreeningExclusion(OtherReasons, rest)
	}
}

// State recomputes every derived count from the recorded inputs and
// returns the full flow state. It is idempotent.
func (f *Flow) State() types.FlowState {
	var s types.FlowState

	s.Identification.Databases = append([]types.DatabaseResult{}, f.databases...)
	s.Identification.OtherSources = append([]types.SourceCount{}, f.otherSources...)
	for _, d := range f.databases {
		s.Identification.TotalIdentified += d.Count
	}
	for _, o := range f.otherSources {
		s.Identification.TotalIdentified += o.Count
	}
	s.Identification.DuplicatesRemoved = f.duplicatesRemoved

	s.Screening.RecordsScreened = s.Identification.TotalIdentified - f.duplicatesRemoved
	s.Screening.ExclusionReasons = append([]types.ReasonCount{}, f.screenExclusions...)
	s.Screening.RecordsExcluded = sumReasons(f.screenExclusions)

	s.Eligibility.ReportsSought = s.Screening.RecordsScreened - s.Screening.RecordsExcluded
	s.Eligibility.ReportsNotRetrieved = f.notRetrieved
	s.Eligibility.ReportsAssessed = s.Eligibility.ReportsSought - f.notRetrieved
	s.Eligibility.ExclusionReasons = append([]types.ReasonCount{}, f.eligExclusions...)
	s.Eligibility.ReportsExcluded = sumReasons(f.eligExclusions)

	s.Included = types.IncludedCounts{StudiesIncluded: f.studiesIncluded, ReportsIncluded: f.reportsIncluded}
	return s
}

func sumReasons(list []types.ReasonCount) int {
	n := 0
	for _, r := range list {
		n += r.Count
	}
	return n
}

// Save writes the recomputed state to path.
func (f *Flow) Save(path string) error {
	return docfile.Write(path, f.State())
}

// Load rebuilds an accountant from a saved state. Derived counts in the
// file are ignored and recomputed from the raw inputs.
func Load(path string, opts ...Option) (*Flow, error) {
	var s types.FlowState
	if err := docfile.Read(path, &s); err != nil {
		return nil, fmt.Errorf("loading PRISMA state: %w", err)
	}
	f := New(opts...)
	for _, d := range s.Identification.Databases {
		f.AddDatabaseResults(d.Name, d.Count, d.SearchDate)
	}
	for _, o := range s.Identification.OtherSources {
		f.AddOtherSourceResults(o.Name, o.Count)
	}
	f.SetDuplicatesRemoved(s.Identification.DuplicatesRemoved)
	for _, r := range s.Screening.ExclusionReasons {
		f.AddScreeningExclusion(r.Reason, r.Count)
	}
	f.SetReportsNotRetrieved(s.Eligibility.ReportsNotRetrieved)
	for _, r := range s.Eligibility.ExclusionReasons {
		f.AddEligibilityExclusion(r.Reason, r.Count)
	}
	f.studiesIncluded = s.Included.StudiesIncluded
	f.reportsIncluded = s.Included.ReportsIncluded
	return f, nil
}
