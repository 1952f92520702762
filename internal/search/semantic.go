// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/review-engine/internal/httputil"
	"github.com/pdiddy/review-engine/internal/normalize"
	"github.com/pdiddy/review-engine/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,authors,externalIds,year,publicationDate,url,venue,publicationTypes,openAccessPdf"

// SemanticScholarBackend queries the Semantic Scholar graph API.
type SemanticScholarBackend struct {
	Retrier    httputil.Retrier
	Normalizer *normalize.Normalizer
	UserAgent  string
	APIKey     string
}

// Name returns the source tag.
func (b *SemanticScholarBackend) Name() string { return normalize.SourceSemanticScholar }

// Search fetches one page of results for req. The strategy's year range is
// passed to the API as a filter.
func (b *SemanticScholarBackend) Search(ctx context.Context, req Request) ([]types.PaperRecord, error) {
	q := BuildKeywordQuery(req.Query)
	if q == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}
	params := url.Values{
		"query":  {q},
		"limit":  {fmt.Sprintf("%d", req.Limit)},
		"fields": {semanticFields},
	}
	if yr := SemanticYearFilter(req.YearRange); yr != "" {
		params.Set("year", yr)
	}

	header := http.Header{"User-Agent": {b.UserAgent}}
	if b.APIKey != "" {
		header.Set("x-api-key", b.APIKey)
	}
	data, err := b.Retrier.Fetch(ctx, "Semantic Scholar API", semanticAPIBase+"?"+params.Encode(), header)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	return b.Normalizer.SemanticScholar(resp.Data), nil
}

// BuildKeywordQuery drops Boolean operators and parentheses, leaving the
// keywords for sources with plain-text search.
func BuildKeywordQuery(q string) string {
	q = strings.NewReplacer("(", " ", ")", " ", `"`, " ").Replace(q)
	var kept []string
	for _, f := range strings.Fields(q) {
		switch strings.ToUpper(f) {
		case "AND", "OR", "NOT", "ANDNOT":
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// SemanticYearFilter formats a year range as the API's year parameter
// (e.g. "2018-2024", "2018-", "-2024").
func SemanticYearFilter(r *types.YearRange) string {
	if r == nil {
		return ""
	}
	switch {
	case r.Start > 0 && r.End > 0:
		return fmt.Sprintf("%d-%d", r.Start, r.End)
	case r.Start > 0:
		return fmt.Sprintf("%d-", r.Start)
	case r.End > 0:
		return fmt.Sprintf("-%d", r.End)
	}
	return ""
}
