// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/review-engine/internal/httputil"
	"github.com/pdiddy/review-engine/internal/normalize"
	"github.com/pdiddy/review-engine/pkg/types"
)

// jstageAPIBase is the J-STAGE WebAPI endpoint. Declared as a var so
// tests can substitute an httptest server.
var jstageAPIBase = "https://api.jstage.jst.go.jp/searchapi/do"

// JStageBackend queries the J-STAGE article search service.
type JStageBackend struct {
	Retrier    httputil.Retrier
	Normalizer *normalize.Normalizer
	UserAgent  string
}

// Name returns the source tag.
func (b *JStageBackend) Name() string { return normalize.SourceJStage }

// Search fetches one page of results for req.
func (b *JStageBackend) Search(ctx context.Context, req Request) ([]types.PaperRecord, error) {
	text := BuildJStageQuery(req.Query)
	if text == "" {
		return nil, fmt.Errorf("empty J-STAGE query")
	}
	params := url.Values{
		"service": {"3"},
		"text":    {text},
		"count":   {fmt.Sprintf("%d", req.Limit)},
	}
	if req.YearRange != nil {
		if req.YearRange.Start > 0 {
			params.Set("pubyearfrom", fmt.Sprintf("%d", req.YearRange.Start))
		}
		if req.YearRange.End > 0 {
			params.Set("pubyearto", fmt.Sprintf("%d", req.YearRange.End))
		}
	}
	data, err := b.Retrier.Fetch(ctx, "J-STAGE API", jstageAPIBase+"?"+params.Encode(),
		http.Header{"User-Agent": {b.UserAgent}})
	if err != nil {
		return nil, err
	}
	articles, err := ParseJStageFeed(data)
	if err != nil {
		return nil, err
	}
	return b.Normalizer.JStageArticles(articles), nil
}

// BuildJStageQuery converts a Boolean query into J-STAGE free text: AND
// becomes a space, OR becomes " | ", and NOT terms are dropped.
func BuildJStageQuery(q string) string {
	q = strings.NewReplacer("(", " ", ")", " ").Replace(q)
	var out []string
	skip := false
	for _, f := range strings.Fields(q) {
		switch strings.ToUpper(f) {
		case "AND":
			continue
		case "OR":
			if len(out) > 0 {
				out = append(out, "|")
			}
			continue
		case "NOT", "ANDNOT":
			skip = true
			continue
		}
		if skip {
			skip = false
			continue
		}
		out = append(out, f)
	}
	for len(out) > 0 && out[len(out)-1] == "|" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, " ")
}

type jstageLangText struct {
	En string `xml:"en"`
	Ja string `xml:"ja"`
}

func (t jstageLangText) pick() string {
	if s := strings.TrimSpace(t.En); s != "" {
		return s
	}
	return strings.TrimSpace(t.Ja)
}

type jstageName struct {
	Names []string `xml:"name"`
}

type jstageEntry struct {
	Title    jstageLangText `xml:"article_title"`
	Material jstageLangText `xml:"material_title"`
	Link     struct {
		En string `xml:"en"`
		Ja string `xml:"ja"`
	} `xml:"article_link"`
	Author struct {
		En jstageName `xml:"en"`
		Ja jstageName `xml:"ja"`
	} `xml:"author"`
	DOI       string `xml:"doi"`
	PubYear   string `xml:"pubyear"`
	Volume    string `xml:"volume"`
	Number    string `xml:"number"`
	StartPage string `xml:"startingPage"`
	EndPage   string `xml:"endingPage"`
}

type jstageFeed struct {
	Entries []jstageEntry `xml:"entry"`
}

// ParseJStageFeed decodes a J-STAGE Atom response into articles. English
// fields are preferred over Japanese ones when both are present.
func ParseJStageFeed(data []byte) ([]normalize.JStageArticle, error) {
	var feed jstageFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("parsing J-STAGE response: %w", err)
	}
	out := make([]normalize.JStageArticle, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		authors := e.Author.En.Names
		if len(authors) == 0 {
			authors = e.Author.Ja.Names
		}
		link := strings.TrimSpace(e.Link.En)
		if link == "" {
			link = strings.TrimSpace(e.Link.Ja)
		}
		pages := strings.TrimSpace(e.StartPage)
		if end := strings.TrimSpace(e.EndPage); pages != "" && end != "" {
			pages += "-" + end
		}
		a := normalize.JStageArticle{
			Title:           e.Title.pick(),
			Authors:         trimAll(authors),
			Journal:         e.Material.pick(),
			PublishedDate:   strings.TrimSpace(e.PubYear),
			Volume:          strings.TrimSpace(e.Volume),
			Issue:           strings.TrimSpace(e.Number),
			Pages:           pages,
			DOI:             strings.TrimSpace(e.DOI),
			URL:             link,
			PublicationType: "Journal",
		}
		out = append(out, a)
	}
	return out, nil
}

func trimAll(in []string) normalize.AuthorList {
	var out normalize.AuthorList
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
