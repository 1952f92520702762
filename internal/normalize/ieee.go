// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

// IEEEArticle is an IEEE Xplore result as emitted by the browser-automation
// scraper or the Xplore metadata API.
type IEEEArticle struct {
	Title           string     `json:"title"`
	Authors         AuthorList `json:"authors"`
	Abstract        string     `json:"abstract"`
	Year            FlexYear   `json:"publication_year"`
	PublicationDate string     `json:"publication_date"`
	DOI             string     `json:"doi"`
	URL             string     `json:"url"`
	HTMLURL         string     `json:"html_url"`
	PDFURL          string     `json:"pdf_url"`
	ContentType     string     `json:"content_type"`
	PublicationName string     `json:"publication_title"`
}

// ieeeContentTypes maps Xplore content types to screening publication types.
var ieeeContentTypes = map[string]string{
	"journals":              "Journal Article",
	"conferences":           "Conference Paper",
	"early access articles": "Journal Article",
	"magazines":             "Magazine Article",
	"books":                 "Book",
	"standards":             "Standard",
}

// IEEE decodes a JSON array of IEEE Xplore articles.
func (n *Normalizer) IEEE(data []byte) []types.PaperRecord {
	return decodeEach(n, SourceIEEE, data, FromIEEE)
}

// FromIEEE converts one article.
func FromIEEE(a IEEEArticle) (types.PaperRecord, bool) {
	url := strings.TrimSpace(a.URL)
	if url == "" {
		url = strings.TrimSpace(a.HTMLURL)
	}
	pubType := strings.TrimSpace(a.ContentType)
	if mapped, ok := ieeeContentTypes[strings.ToLower(pubType)]; ok {
		pubType = mapped
	}
	rec := types.PaperRecord{
		Title:    strings.TrimSpace(a.Title),
		Authors:  []string(a.Authors),
		Abstract: strings.TrimSpace(a.Abstract),
		Year:     ExtractYear(a.Year.Value, a.PublicationDate),
		Identifiers: types.Identifiers{
			DOI:         strings.TrimSpace(a.DOI),
			URL:         url,
			SourceTitle: a.Title,
		},
		Source:          SourceIEEE,
		Language:        types.DefaultLanguage,
		PublicationType: pubType,
		Venue:           strings.TrimSpace(a.PublicationName),
		PDFURL:          strings.TrimSpace(a.PDFURL),
		PublishedDate:   strings.TrimSpace(a.PublicationDate),
	}
	return rec, rec.HasIdentity()
}

// IEEEArticles converts already-decoded articles, skipping those without
// identity.
func (n *Normalizer) IEEEArticles(as []IEEEArticle) []types.PaperRecord {
	return convertEach(n, SourceIEEE, as, FromIEEE)
}
