// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/review-engine/internal/httputil"
	"github.com/pdiddy/review-engine/internal/normalize"
	"github.com/pdiddy/review-engine/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivBackend queries the arXiv Atom API.
type ArxivBackend struct {
	Retrier    httputil.Retrier
	Normalizer *normalize.Normalizer
	UserAgent  string
}

// Name returns the source tag.
func (b *ArxivBackend) Name() string { return normalize.SourceArxiv }

// Search fetches one page of results for req.
func (b *ArxivBackend) Search(ctx context.Context, req Request) ([]types.PaperRecord, error) {
	q := BuildArxivQuery(req.Query)
	if q == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	params := url.Values{
		"search_query": {"all:" + q},
		"start":        {"0"},
		"max_results":  {fmt.Sprintf("%d", req.Limit)},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}
	data, err := b.Retrier.Fetch(ctx, "arXiv API", arxivAPIBase+"?"+params.Encode(),
		http.Header{"User-Agent": {b.UserAgent}})
	if err != nil {
		return nil, err
	}
	return b.Normalizer.ParseArxivFeed(data), nil
}

// BuildArxivQuery rewrites a Boolean query into arXiv syntax: operators
// are upper-cased, NOT becomes ANDNOT, and whitespace is collapsed.
func BuildArxivQuery(q string) string {
	fields := strings.Fields(q)
	for i, f := range fields {
		switch strings.ToUpper(f) {
		case "AND":
			fields[i] = "AND"
		case "OR":
			fields[i] = "OR"
		case "NOT", "ANDNOT":
			fields[i] = "ANDNOT"
		}
	}
	return strings.Join(fields, " ")
}
