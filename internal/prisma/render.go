// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prisma

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pdiddy/review-engine/pkg/types"
)

// nodeID turns a source name into a Mermaid node ID suffix. Names with
// non-ASCII runes get a hash suffix so distinct names in other scripts
// stay distinct nodes.
func nodeID(name string) string {
	var b strings.Builder
	ascii := true
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			if r > unicode.MaxASCII {
				ascii = false
			}
			b.WriteByte('_')
		}
	}
	if !ascii {
		h := fnv.New32a()
		h.Write([]byte(name))
		fmt.Fprintf(&b, "_%08x", h.Sum32())
	}
	return b.String()
}

// label escapes text for a quoted Mermaid label.
func label(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}

// MermaidDiagram renders the flow as a Mermaid flowchart.
func (f *Flow) MermaidDiagram() string {
	s := f.State()
	var b strings.Builder

	b.WriteString("flowchart TD\n")
	b.WriteString("  %% PRISMA 2020 Flow Diagram\n\n")
	b.WriteString("  %% Identification\n")
	if len(s.Identification.Databases) == 0 {
		b.WriteString("  DB[\"Records identified from databases<br/>n = 0\"]\n")
	}
	for _, d := range s.Identification.Databases {
		fmt.Fprintf(&b, "  DB_%s[\"Records from %s<br/>n = %d\"]\n", nodeID(d.Name), label(d.Name), d.Count)
	}
	for _, o := range s.Identification.OtherSources {
		fmt.Fprintf(&b, "  OTHER_%s[\"Records from %s<br/>n = %d\"]\n", nodeID(o.Name), label(o.Name), o.Count)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  IDENTIFIED[\"Records identified<br/>n = %d\"]\n", s.Identification.TotalIdentified)
	fmt.Fprintf(&b, "  DUPLICATES[\"Duplicate records removed<br/>n = %d\"]\n\n", s.Identification.DuplicatesRemoved)

	b.WriteString("  %% Screening\n")
	fmt.Fprintf(&b, "  SCREENED[\"Records screened<br/>n = %d\"]\n", s.Screening.RecordsScreened)
	fmt.Fprintf(&b, "  SCREEN_EXCLUDED[\"Records excluded<br/>n = %d\"]\n\n", s.Screening.RecordsExcluded)

	b.WriteString("  %% Eligibility\n")
	fmt.Fprintf(&b, "  SOUGHT[\"Reports sought for retrieval<br/>n = %d\"]\n", s.Eligibility.ReportsSought)
	fmt.Fprintf(&b, "  NOT_RETRIEVED[\"Reports not retrieved<br/>n = %d\"]\n", s.Eligibility.ReportsNotRetrieved)
	fmt.Fprintf(&b, "  ASSESSED[\"Reports assessed for eligibility<br/>n = %d\"]\n", s.Eligibility.ReportsAssessed)
	fmt.Fprintf(&b, "  ELIG_EXCLUDED[\"Reports excluded<br/>n = %d\"]\n\n", s.Eligibility.ReportsExcluded)

	b.WriteString("  %% Included\n")
	fmt.Fprintf(&b, "  INCLUDED[\"Studies included in review<br/>n = %d<br/>Reports: %d\"]\n\n",
		s.Included.StudiesIncluded, s.Included.ReportsIncluded)

	b.WriteString("  %% Connections\n")
	if len(s.Identification.Databases) == 0 {
		b.WriteString("  DB --> IDENTIFIED\n")
	}
	for _, d := range s.Identification.Databases {
		fmt.Fprintf(&b, "  DB_%s --> IDENTIFIED\n", nodeID(d.Name))
	}
	for _, o := range s.Identification.OtherSources {
		fmt.Fprintf(&b, "  OTHER_%s --> IDENTIFIED\n", nodeID(o.Name))
	}
	b.WriteString(`  IDENTIFIED --> DUPLICATES
  DUPLICATES --> SCREENED
  SCREENED --> SCREEN_EXCLUDED
  SCREENED --> SOUGHT
  SOUGHT --> NOT_RETRIEVED
  SOUGHT --> ASSESSED
  ASSESSED --> ELIG_EXCLUDED
  ASSESSED --> INCLUDED
`)
	return b.String()
}

// MarkdownReport renders the flow diagram with a detailed breakdown.
func (f *Flow) MarkdownReport() string {
	s := f.State()
	var b strings.Builder

	b.WriteString("# PRISMA 2020 Flow Diagram\n\n## Search Flow\n\n```mermaid\n")
	b.WriteString(f.MermaidDiagram())
	b.WriteString("```\n\n## Detailed Breakdown\n\n### Identification\n\n**Database Searches:**\n\n")
	for _, d := range s.Identification.Databases {
		fmt.Fprintf(&b, "- **%s**: %d records (searched: %s)\n", d.Name, d.Count, d.SearchDate)
	}
	if len(s.Identification.OtherSources) > 0 {
		b.WriteString("\n**Other Sources:**\n\n")
		for _, o := range s.Identification.OtherSources {
			fmt.Fprintf(&b, "- **%s**: %d records\n", o.Name, o.Count)
		}
	}
	fmt.Fprintf(&b, "\n**Total Records Identified:** %d\n", s.Identification.TotalIdentified)
	fmt.Fprintf(&b, "**Duplicate Records Removed:** %d\n", s.Identification.DuplicatesRemoved)

	b.WriteString("\n### Screening\n\n")
	fmt.Fprintf(&b, "**Records Screened (title/abstract):** %d\n", s.Screening.RecordsScreened)
	fmt.Fprintf(&b, "**Records Excluded:** %d\n", s.Screening.RecordsExcluded)
	writeReasons(&b, s.Screening.ExclusionReasons, "records")

	b.WriteString("\n### Eligibility Assessment\n\n")
	fmt.Fprintf(&b, "**Reports Sought for Retrieval:** %d\n", s.Eligibility.ReportsSought)
	fmt.Fprintf(&b, "**Reports Not Retrieved:** %d\n", s.Eligibility.ReportsNotRetrieved)
	fmt.Fprintf(&b, "**Reports Assessed (full-text):** %d\n", s.Eligibility.ReportsAssessed)
	fmt.Fprintf(&b, "**Reports Excluded:** %d\n", s.Eligibility.ReportsExcluded)
	writeReasons(&b, s.Eligibility.ExclusionReasons, "reports")

	b.WriteString("\n### Included\n\n")
	fmt.Fprintf(&b, "**Studies Included in Review:** %d\n", s.Included.StudiesIncluded)
	fmt.Fprintf(&b, "**Total Reports:** %d\n", s.Included.ReportsIncluded)

	fmt.Fprintf(&b, "\n---\n\n*Generated: %s*\n*PRISMA 2020 compliant flow diagram*\n",
		f.now().Format("2006-01-02 15:04:05"))
	return b.String()
}

func writeReasons(b *strings.Builder, reasons []types.ReasonCount, unit string) {
	if len(reasons) == 0 {
		return
	}
	b.WriteString("\n**Exclusion Reasons:**\n\n")
	for _, r := range reasons {
		fmt.Fprintf(b, "- %s: %d %s\n", r.Reason, r.Count, unit)
	}
}

// SaveMarkdownReport writes MarkdownReport to path.
func (f *Flow) SaveMarkdownReport(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(f.MarkdownReport()), 0o644); err != nil {
		return fmt.Errorf("writing PRISMA report: %w", err)
	}
	return nil
}
