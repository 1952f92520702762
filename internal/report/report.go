// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes per-paper analysis reports and a review summary.
// Reports are drafted by an LLM; when the model is unavailable or fails,
// a template listing the paper's metadata is written instead.
package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/pdiddy/review-engine/internal/docfile"
	"github.com/pdiddy/review-engine/internal/llm"
	"github.com/pdiddy/review-engine/internal/strategy"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Output file names inside a report directory.
const (
	PapersDir       = "papers"
	SummaryFile     = "summary_report.md"
	PapersListFile  = "papers_list.json"
	BibliographyCSL = "references.yaml"
)

const maxSafeTitle = 50

// The seven questions every paper report answers.
var reportQuestions = []string{
	"What is it?",
	"How does it improve on prior work?",
	"What is the key technique?",
	"How was it validated?",
	"What are the open issues?",
	"What should be read next?",
	"How does it relate to my research?",
}

var paperPromptTmpl = template.Must(template.New("paper").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`You are helping a researcher triage papers for a systematic literature review. Read the paper below and write a concise Markdown report that answers each question under its own "###" heading, numbered 1 to 7:
{{range $i, $q := .Questions}}{{$i | inc}}. {{$q}}
{{end}}
End with a "### Paper information" section containing a single citation line linking to the paper.

Paper metadata:
{{.Metadata}}

Paper content:
{{.Content}}

Researcher's context:
{{.Research}}
`))

var summaryPromptTmpl = template.Must(template.New("summary").Parse(`You are writing the synthesis section of a systematic literature review on "{{.Theme}}". Using the individual paper reports below, write a Markdown summary with an executive summary, the main research directions, the methods in use, open problems, and recommendations for the researcher. Cite papers by title.

Researcher's context:
{{.Research}}

Search strategy:
{{.Strategy}}

Generated: {{.Date}}
Total papers: {{.Total}}

Paper reports:
{{.Reports}}
`))

// Generator drafts reports.
type Generator struct {
	completer llm.Completer
	log       *zap.Logger
	now       func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock sets the time source used for report dates.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator returns a Generator. A nil completer writes template
// reports only.
func NewGenerator(c llm.Completer, log *zap.Logger, opts ...Option) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	g := &Generator{completer: c, log: log, now: time.Now}
	for _, o := range opts {
		o(g)
	}
	return g
}

// FormatMetadata renders a paper's bibliographic fields for a prompt.
func FormatMetadata(p types.PaperRecord) string {
	authors := "N/A"
	if len(p.Authors) > 0 {
		authors = strings.Join(p.Authors, ", ")
	}
	year := "N/A"
	if p.Year != nil {
		year = fmt.Sprintf("%d", *p.Year)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", orNA(p.Title))
	fmt.Fprintf(&b, "Authors: %s\n", authors)
	fmt.Fprintf(&b, "Year: %s\n", year)
	fmt.Fprintf(&b, "Publication: %s\n", orNA(p.Venue))
	fmt.Fprintf(&b, "DOI: %s\n", orNA(p.Identifiers.DOI))
	fmt.Fprintf(&b, "URL: %s", orNA(p.Identifiers.URL))
	if p.Abstract != "" {
		fmt.Fprintf(&b, "\n\nAbstract:\n%s", p.Abstract)
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// PaperReport drafts the report for one paper. content is extracted full
// text, if any.
func (g *Generator) PaperReport(ctx context.Context, p types.PaperRecord, info types.ResearchInfo, content string) string {
	if content == "" {
		content = "(full text not available; using metadata only)"
	}
	var buf bytes.Buffer
	err := paperPromptTmpl.Execute(&buf, struct {
		Questions                   []string
		Metadata, Content, Research string
	}{reportQuestions, FormatMetadata(p), content, strategy.FormatContext(info)})
	if err == nil {
		var text string
		if text, err = g.complete(ctx, buf.String()); err == nil {
			return text
		}
	}
	g.log.Warn("falling back to template report", zap.String("title", p.Title), zap.Error(err))
	return g.FallbackPaperReport(p)
}

// SummaryReport drafts the review summary from the individual reports.
func (g *Generator) SummaryReport(ctx context.Context, reports []string, info types.ResearchInfo, s types.SearchStrategy) string {
	theme := info.ResearchTheme
	if theme == "" {
		theme = "Unknown Theme"
	}
	var buf bytes.Buffer
	err := summaryPromptTmpl.Execute(&buf, struct {
		Theme, Research, Strategy, Date, Reports string
		Total                                    int
	}{
		Theme:    theme,
		Research: strategy.FormatContext(info),
		Strategy: FormatStrategy(s),
		Date:     g.now().Format("2006-01-02 15:04:05"),
		Reports:  strings.Join(reports, "\n\n---\n\n"),
		Total:    len(reports),
	})
	if err == nil {
		var text string
		if text, err = g.complete(ctx, buf.String()); err == nil {
			return text
		}
	}
	g.log.Warn("falling back to template summary", zap.Error(err))
	return g.FallbackSummary(theme, len(reports))
}

func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	if g.completer == nil {
		return "", fmt.Errorf("no LLM configured")
	}
	text, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	text = ExtractMarkdown(text)
	if text == "" {
		return "", fmt.Errorf("empty report")
	}
	return text, nil
}

// ExtractMarkdown strips a code fence the model wrapped its answer in: the
// body of a ```markdown fence, else of the first complete ``` fence.
func ExtractMarkdown(text string) string {
	if _, after, ok := strings.Cut(text, "```markdown"); ok {
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	if parts := strings.Split(text, "```"); len(parts) >= 3 {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(text)
}

// FormatStrategy renders the keywords and queries of a strategy.
func FormatStrategy(s types.SearchStrategy) string {
	var lines []string
	if len(s.PrimaryKeywords) > 0 {
		lines = append(lines, "Primary keywords: "+strings.Join(s.PrimaryKeywords, ", "))
	}
	if len(s.SearchQueries) > 0 {
		lines = append(lines, "", "Search queries:")
		for i, q := range s.SearchQueries {
			lines = append(lines, fmt.Sprintf("  %d. %s", i+1, q))
		}
	}
	return strings.Join(lines, "\n")
}

// FallbackPaperReport is the template report: the seven headings with no
// analysis and a citation line.
func (g *Generator) FallbackPaperReport(p types.PaperRecord) string {
	title := p.Title
	if title == "" {
		title = "Unknown Title"
	}
	authors := "Unknown"
	if len(p.Authors) > 0 {
		authors = strings.Join(p.Authors, ", ")
	}
	year := "Unknown"
	if p.Year != nil {
		year = fmt.Sprintf("%d", *p.Year)
	}
	url := p.Identifiers.URL
	if url == "" && p.Identifiers.DOI != "" {
		url = "https://doi.org/" + p.Identifiers.DOI
	}
	if url == "" {
		url = "#"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## title: %q\n", title)
	fmt.Fprintf(&b, "date: %s\n", g.now().Format("2006-01-02"))
	b.WriteString("categories: Research\n\n")
	for i, q := range reportQuestions {
		fmt.Fprintf(&b, "### %d. %s\n(detailed analysis not available)\n\n", i+1, q)
	}
	b.WriteString("### Paper information\n")
	fmt.Fprintf(&b, "- [%s, %q, %s](%s)\n", authors, title, year, url)
	return b.String()
}

// FallbackSummary is the template summary.
func (g *Generator) FallbackSummary(theme string, papers int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Systematic Literature Review: %s\n\n", theme)
	b.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(&b, "%d papers were collected and analysed.\n", papers)
	b.WriteString("(A synthesized analysis is not available; see the individual paper reports.)\n\n")
	b.WriteString("---\n")
	fmt.Fprintf(&b, "Generated: %s\n", g.now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Total papers: %d\n", papers)
	return b.String()
}

// SafeTitle makes a title usable as a file name: letters, digits, spaces,
// '-' and '_' are kept, everything else becomes '_', and the result is cut
// to 50 characters.
func SafeTitle(title string) string {
	var b strings.Builder
	n := 0
	for _, r := range title {
		if n == maxSafeTitle {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
		n++
	}
	return b.String()
}

// Filename is the report file name for the idx-th paper (1-based).
func Filename(idx int, title string) string {
	return fmt.Sprintf("%03d_%s.md", idx, SafeTitle(title))
}

// Written lists the files produced by WriteAll.
type Written struct {
	PaperReports []string `json:"paper_reports"`
	Summary      string   `json:"summary"`
	PapersList   string   `json:"papers_list"`
	Bibliography string   `json:"bibliography"`
}

type papersList struct {
	Papers []types.PaperRecord `json:"papers"`
	Total  int                 `json:"total"`
}

// WriteAll writes one report per paper under dir/papers, then the summary,
// the papers list and a CSL bibliography. Progress lines go to w.
func (g *Generator) WriteAll(ctx context.Context, dir string, papers []types.PaperRecord, info types.ResearchInfo, s types.SearchStrategy, w io.Writer) (Written, error) {
	if w == nil {
		w = io.Discard
	}
	paperDir := filepath.Join(dir, PapersDir)
	if err := os.MkdirAll(paperDir, 0o755); err != nil {
		return Written{}, fmt.Errorf("creating report directory: %w", err)
	}

	var out Written
	reports := make([]string, 0, len(papers))
	for i, p := range papers {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		fmt.Fprintf(w, "[%d/%d] %s\n", i+1, len(papers), p.Title)
		text := g.PaperReport(ctx, p, info, "")
		path := filepath.Join(paperDir, Filename(i+1, p.Title))
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return out, fmt.Errorf("writing %s: %w", path, err)
		}
		reports = append(reports, text)
		out.PaperReports = append(out.PaperReports, path)
	}

	out.Summary = filepath.Join(dir, SummaryFile)
	if err := os.WriteFile(out.Summary, []byte(g.SummaryReport(ctx, reports, info, s)), 0o644); err != nil {
		return out, fmt.Errorf("writing summary: %w", err)
	}

	listed := papers
	if listed == nil {
		listed = []types.PaperRecord{}
	}
	out.PapersList = filepath.Join(dir, PapersListFile)
	if err := docfile.Write(out.PapersList, papersList{Papers: listed, Total: len(listed)}); err != nil {
		return out, err
	}

	out.Bibliography = filepath.Join(dir, BibliographyCSL)
	if err := WriteCSLFile(out.Bibliography, papers); err != nil {
		return out, err
	}
	fmt.Fprintf(w, "wrote %d paper reports and summary to %s\n", len(reports), dir)
	return out, nil
}
