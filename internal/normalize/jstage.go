// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pdiddy/review-engine/pkg/types"
)

// jstageBase is the J-STAGE site root used for article URLs.
const jstageBase = "https://www.jstage.jst.go.jp"

// JStageArticle is a J-STAGE article as produced by the connector or a
// saved result file.
type JStageArticle struct {
	Title           string     `json:"title"`
	Authors         AuthorList `json:"authors"`
	Abstract        string     `json:"abstract"`
	Journal         string     `json:"journal"`
	Year            FlexYear   `json:"year"`
	PublishedDate   string     `json:"published_date"`
	Volume          string     `json:"volume"`
	Issue           string     `json:"issue"`
	Pages           string     `json:"pages"`
	DOI             string     `json:"doi"`
	URL             string     `json:"url"`
	Language        string     `json:"language"`
	PublicationType string     `json:"publication_type"`
}

// JStage decodes a JSON array of J-STAGE articles.
func (n *Normalizer) JStage(data []byte) []types.PaperRecord {
	return decodeEach(n, SourceJStage, data, FromJStage)
}

// FromJStage converts one article. The URL is built from the DOI when the
// article has none. Titles containing Japanese script mark the record as
// Japanese unless the article states a language.
func FromJStage(a JStageArticle) (types.PaperRecord, bool) {
	url := strings.TrimSpace(a.URL)
	doi := strings.TrimSpace(a.DOI)
	if url == "" && doi != "" {
		url = JStageArticleURL(doi, "", "", "", "")
	}
	rec := types.PaperRecord{
		Title:    strings.TrimSpace(a.Title),
		Authors:  []string(a.Authors),
		Abstract: strings.TrimSpace(a.Abstract),
		Year:     ExtractYear(a.Year.Value, a.PublishedDate),
		Identifiers: types.Identifiers{
			DOI:         doi,
			URL:         url,
			SourceTitle: a.Title,
		},
		Source:          SourceJStage,
		Language:        a.Language,
		PublicationType: strings.TrimSpace(a.PublicationType),
		Venue:           strings.TrimSpace(a.Journal),
		PublishedDate:   strings.TrimSpace(a.PublishedDate),
	}
	if rec.Language == "" {
		rec.Language = types.DefaultLanguage
		if ContainsJapanese(rec.Title) {
			rec.Language = "Japanese"
		}
	}
	return rec, rec.HasIdentity()
}

var jstageDOIJournal = regexp.MustCompile(`10\.\d+/([^/]+)/`)

// JStageArticleURL builds an article URL from a DOI, or from journal code,
// volume, issue and first page. With neither it returns the site root.
func JStageArticleURL(doi, journal, volume, issue, page string) string {
	if doi != "" {
		if m := jstageDOIJournal.FindStringSubmatch(doi); m != nil {
			parts := strings.Split(doi, "/")
			return jstageBase + "/article/" + m[1] + "/" + parts[len(parts)-1]
		}
		return jstageBase + "/article/" + doi
	}
	if journal != "" && volume != "" {
		u := jstageBase + "/article/" + journal + "/" + volume
		if issue != "" {
			u += "/" + issue
		}
		if page != "" {
			u += "/" + page
		}
		return u
	}
	return jstageBase
}

// ContainsJapanese reports whether text contains hiragana, katakana or kanji.
func ContainsJapanese(text string) bool {
	for _, r := range text {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana) || (r >= 0x4E00 && r <= 0x9FFF) {
			return true
		}
	}
	return false
}

// JStageArticles converts already-decoded articles, skipping those without
// identity.
func (n *Normalizer) JStageArticles(as []JStageArticle) []types.PaperRecord {
	return convertEach(n, SourceJStage, as, FromJStage)
}
