// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/review-engine/pkg/types"
)

// ArxivFeed is the arXiv Atom feed.
type ArxivFeed struct {
	Entries []ArxivEntry `xml:"entry"`
}

// ArxivEntry is one Atom entry returned by the arXiv API.
type ArxivEntry struct {
	ID              string          `xml:"id"`
	Title           string          `xml:"title"`
	Summary         string          `xml:"summary"`
	Published       string          `xml:"published"`
	Authors         []ArxivAuthor   `xml:"author"`
	PrimaryCategory ArxivCategory   `xml:"primary_category"`
	Categories      []ArxivCategory `xml:"category"`
	DOI             string          `xml:"doi"`
	JournalRef      string          `xml:"journal_ref"`
}

// ArxivAuthor is an Atom author element.
type ArxivAuthor struct {
	Name string `xml:"name"`
}

// ArxivCategory is an arXiv category element.
type ArxivCategory struct {
	Term string `xml:"term,attr"`
}

var arxivIDPattern = regexp.MustCompile(`\d{4}\.\d{4,5}`)

// ExtractArxivID pulls a YYMM.NNNNN identifier out of an ID or abs URL,
// dropping any version suffix. Strings without such an ID are returned as is.
func ExtractArxivID(s string) string {
	if m := arxivIDPattern.FindString(s); m != "" {
		return m
	}
	return strings.TrimSpace(s)
}

// ArxivAbsURL returns the abstract page for an arXiv ID.
func ArxivAbsURL(id string) string { return "https://arxiv.org/abs/" + id }

// ArxivPDFURL returns the PDF link for an arXiv ID.
func ArxivPDFURL(id string) string { return fmt.Sprintf("https://arxiv.org/pdf/%s.pdf", id) }

// ParseArxivFeed decodes an Atom feed. A feed that fails to parse is logged and
// yields no records.
func (n *Normalizer) ParseArxivFeed(data []byte) []types.PaperRecord {
	var feed ArxivFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		n.log.Warn("skipping malformed feed", zap.String("source", SourceArxiv), zap.Error(err))
		return nil
	}
	return n.Arxiv(feed.Entries)
}

// Arxiv converts feed entries, skipping entries without an ID or title.
func (n *Normalizer) Arxiv(entries []ArxivEntry) []types.PaperRecord {
	return convertEach(n, SourceArxiv, entries, FromArxiv)
}

// FromArxiv converts one entry. It reports false when the entry has neither
// an ID nor a title.
func FromArxiv(e ArxivEntry) (types.PaperRecord, bool) {
	id := ExtractArxivID(e.ID)
	title := collapse(e.Title)
	if id == "" && title == "" {
		return types.PaperRecord{}, false
	}

	rec := types.PaperRecord{
		Title:    title,
		Abstract: strings.TrimSpace(e.Summary),
		Year:     ExtractYear(nil, e.Published),
		Identifiers: types.Identifiers{
			DOI:         strings.TrimSpace(e.DOI),
			ArxivID:     id,
			SourceTitle: e.Title,
		},
		Source:        SourceArxiv,
		Language:      types.DefaultLanguage,
		Venue:         strings.TrimSpace(e.JournalRef),
		PublishedDate: strings.TrimSpace(e.Published),
	}
	if id != "" {
		rec.Identifiers.URL = ArxivAbsURL(id)
		rec.PDFURL = ArxivPDFURL(id)
	}
	for _, a := range e.Authors {
		rec.Authors = appendName(rec.Authors, a.Name)
	}
	return rec, true
}

// collapse trims s and folds internal whitespace runs (Atom titles wrap lines).
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
