// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/review-engine/internal/httputil"
	"github.com/pdiddy/review-engine/internal/normalize"
	"github.com/pdiddy/review-engine/pkg/types"
)

// govUKAPIBase is the GOV.UK search endpoint. Declared as a var so tests
// can substitute an httptest server.
var govUKAPIBase = "https://www.gov.uk/api/search.json"

// Portal describes a government document source.
type Portal struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Country      string `json:"country,omitempty" yaml:"country,omitempty"`
	Organization string `json:"organization,omitempty" yaml:"organization,omitempty"`
	URL          string `json:"url" yaml:"url"`
	SearchURL    string `json:"search_url,omitempty" yaml:"search_url,omitempty"`
	Description  string `json:"description" yaml:"description"`
}

var portals = []Portal{
	{ID: "usa_gov", Name: "USA.gov", Country: "USA", URL: "https://www.usa.gov",
		SearchURL: "https://search.usa.gov/search", Description: "Official US Government portal"},
	{ID: "japan_gov", Name: "e-Gov (Japan)", Country: "Japan", URL: "https://www.e-gov.go.jp",
		Description: "Japanese government portal"},
	{ID: "uk_gov", Name: "GOV.UK", Country: "UK", URL: "https://www.gov.uk",
		SearchURL: "https://www.gov.uk/api/search.json", Description: "UK Government official website"},
	{ID: "eu", Name: "EUR-Lex", Organization: "European Union", URL: "https://eur-lex.europa.eu",
		Description: "EU law and publications"},
	{ID: "who", Name: "World Health Organization", Organization: "WHO", URL: "https://www.who.int",
		Description: "WHO publications and guidelines"},
	{ID: "un", Name: "United Nations", Organization: "UN", URL: "https://www.un.org",
		Description: "UN documents and resolutions"},
}

// Portals returns the known government portals.
func Portals() []Portal {
	return append([]Portal(nil), portals...)
}

// LookupPortal finds a portal by ID.
func LookupPortal(id string) (Portal, bool) {
	for _, p := range portals {
		if p.ID == id {
			return p, true
		}
	}
	return Portal{}, false
}

// SupportedCountries lists the distinct countries and organizations the
// portals cover, sorted.
func SupportedCountries() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range portals {
		for _, c := range []string{p.Country, p.Organization} {
			if c != "" && !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	sort.Strings(out)
	return out
}

// GovernmentBackend searches government portals. Only GOV.UK exposes a
// public search API; the other portals are logged and yield nothing.
type GovernmentBackend struct {
	Retrier    httputil.Retrier
	Normalizer *normalize.Normalizer
	UserAgent  string
	// PortalIDs restricts the search; empty means every portal.
	PortalIDs []string
	Log       *zap.Logger
}

// Name returns the source tag.
func (b *GovernmentBackend) Name() string { return normalize.SourceGovernment }

// Search queries each selected portal for req.
func (b *GovernmentBackend) Search(ctx context.Context, req Request) ([]types.PaperRecord, error) {
	q := BuildKeywordQuery(req.Query)
	if q == "" {
		return nil, fmt.Errorf("empty government query")
	}
	log := b.Log
	if log == nil {
		log = zap.NewNop()
	}

	ids := b.PortalIDs
	if len(ids) == 0 {
		for _, p := range portals {
			ids = append(ids, p.ID)
		}
	}

	var docs []normalize.GovernmentDocument
	var failed []string
	for _, id := range ids {
		p, ok := LookupPortal(id)
		if !ok {
			log.Warn("unknown government portal", zap.String("portal", id))
			continue
		}
		if p.ID != "uk_gov" {
			log.Info("portal has no search API", zap.String("portal", p.Name))
			continue
		}
		got, err := b.searchGovUK(ctx, p, q, req.Limit)
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", p.Name, err))
			continue
		}
		docs = append(docs, got...)
	}

	recs := b.Normalizer.GovernmentDocuments(docs)
	if len(recs) == 0 && len(failed) > 0 {
		return nil, fmt.Errorf("%s", strings.Join(failed, "; "))
	}
	return recs, nil
}

type govUKResponse struct {
	Results []struct {
		Title           string `json:"title"`
		Link            string `json:"link"`
		Description     string `json:"description"`
		PublicTimestamp string `json:"public_timestamp"`
		Format          string `json:"format"`
	} `json:"results"`
}

func (b *GovernmentBackend) searchGovUK(ctx context.Context, p Portal, q string, limit int) ([]normalize.GovernmentDocument, error) {
	params := url.Values{
		"q":     {q},
		"count": {fmt.Sprintf("%d", limit)},
	}
	data, err := b.Retrier.Fetch(ctx, "GOV.UK API", govUKAPIBase+"?"+params.Encode(),
		http.Header{"User-Agent": {b.UserAgent}})
	if err != nil {
		return nil, err
	}
	var resp govUKResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing GOV.UK response: %w", err)
	}
	out := make([]normalize.GovernmentDocument, 0, len(resp.Results))
	for _, r := range resp.Results {
		link := r.Link
		if strings.HasPrefix(link, "/") {
			link = p.URL + link
		}
		out = append(out, normalize.GovernmentDocument{
			Title:         r.Title,
			URL:           link,
			PublishedDate: r.PublicTimestamp,
			Country:       p.Country,
			Organization:  p.Organization,
			Abstract:      r.Description,
		})
	}
	return out, nil
}
