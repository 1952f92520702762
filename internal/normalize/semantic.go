// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

// SemanticPaper is one paper from the Semantic Scholar graph API.
type SemanticPaper struct {
	PaperID          string              `json:"paperId"`
	Title            string              `json:"title"`
	Abstract         string              `json:"abstract"`
	Year             FlexYear            `json:"year"`
	PublicationDate  string              `json:"publicationDate"`
	Authors          AuthorList          `json:"authors"`
	ExternalIDs      SemanticExternalIDs `json:"externalIds"`
	URL              string              `json:"url"`
	Venue            string              `json:"venue"`
	PublicationTypes []string            `json:"publicationTypes"`
	OpenAccessPDF    *struct {
		URL string `json:"url"`
	} `json:"openAccessPdf"`
}

// SemanticExternalIDs holds the external identifiers of a paper.
type SemanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}

// semanticTypes maps Semantic Scholar publication types to screening labels.
var semanticTypes = map[string]string{
	"JournalArticle": "Journal Article",
	"Conference":     "Conference Paper",
	"Review":         "Review",
	"Book":           "Book",
	"BookSection":    "Book Section",
	"Dataset":        "Dataset",
}

// SemanticScholar decodes a JSON array of Semantic Scholar papers.
func (n *Normalizer) SemanticScholar(data []byte) []types.PaperRecord {
	return decodeEach(n, SourceSemanticScholar, data, FromSemantic)
}

// FromSemantic converts one paper. The first publication type wins.
func FromSemantic(p SemanticPaper) (types.PaperRecord, bool) {
	url := strings.TrimSpace(p.URL)
	if url == "" && p.PaperID != "" {
		url = "https://www.semanticscholar.org/paper/" + p.PaperID
	}
	rec := types.PaperRecord{
		Title:    strings.TrimSpace(p.Title),
		Authors:  []string(p.Authors),
		Abstract: strings.TrimSpace(p.Abstract),
		Year:     ExtractYear(p.Year.Value, p.PublicationDate),
		Identifiers: types.Identifiers{
			DOI:         strings.TrimSpace(p.ExternalIDs.DOI),
			URL:         url,
			ArxivID:     strings.TrimSpace(p.ExternalIDs.ArXiv),
			SourceTitle: p.Title,
		},
		Source:        SourceSemanticScholar,
		Language:      types.DefaultLanguage,
		Venue:         strings.TrimSpace(p.Venue),
		PublishedDate: strings.TrimSpace(p.PublicationDate),
	}
	if len(p.PublicationTypes) > 0 {
		t := p.PublicationTypes[0]
		if mapped, ok := semanticTypes[t]; ok {
			t = mapped
		}
		rec.PublicationType = t
	}
	if p.OpenAccessPDF != nil {
		rec.PDFURL = p.OpenAccessPDF.URL
	}
	return rec, rec.HasIdentity()
}
