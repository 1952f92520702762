// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/review-engine/internal/httputil"
	"github.com/pdiddy/review-engine/internal/normalize"
	"github.com/pdiddy/review-engine/pkg/types"
)

// ieeeAPIBase is the IEEE Xplore metadata search endpoint. Declared as a
// var so tests can substitute an httptest server.
var ieeeAPIBase = "https://ieeexploreapi.ieee.org/api/v1/search/articles"

// IEEEBackend queries the IEEE Xplore metadata API.
type IEEEBackend struct {
	Retrier    httputil.Retrier
	Normalizer *normalize.Normalizer
	UserAgent  string
	APIKey     string
}

// Name returns the source tag.
func (b *IEEEBackend) Name() string { return normalize.SourceIEEE }

type ieeeResponse struct {
	Articles []struct {
		Title   string `json:"title"`
		Authors struct {
			Authors []struct {
				FullName string `json:"full_name"`
			} `json:"authors"`
		} `json:"authors"`
		Abstract         string             `json:"abstract"`
		PublicationYear  normalize.FlexYear `json:"publication_year"`
		PublicationDate  string             `json:"publication_date"`
		DOI              string             `json:"doi"`
		HTMLURL          string             `json:"html_url"`
		PDFURL           string             `json:"pdf_url"`
		ContentType      string             `json:"content_type"`
		PublicationTitle string             `json:"publication_title"`
	} `json:"articles"`
}

// Search fetches one page of results for req.
func (b *IEEEBackend) Search(ctx context.Context, req Request) ([]types.PaperRecord, error) {
	if b.APIKey == "" {
		return nil, fmt.Errorf("IEEE Xplore API key not configured")
	}
	params := url.Values{
		"apikey":      {b.APIKey},
		"querytext":   {req.Query},
		"max_records": {fmt.Sprintf("%d", req.Limit)},
		"format":      {"json"},
	}
	if req.YearRange != nil {
		if req.YearRange.Start > 0 {
			params.Set("start_year", fmt.Sprintf("%d", req.YearRange.Start))
		}
		if req.YearRange.End > 0 {
			params.Set("end_year", fmt.Sprintf("%d", req.YearRange.End))
		}
	}
	data, err := b.Retrier.Fetch(ctx, "IEEE Xplore API", ieeeAPIBase+"?"+params.Encode(),
		http.Header{"User-Agent": {b.UserAgent}})
	if err != nil {
		return nil, err
	}

	var resp ieeeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing IEEE Xplore response: %w", err)
	}
	articles := make([]normalize.IEEEArticle, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		var authors normalize.AuthorList
		for _, au := range a.Authors.Authors {
			if au.FullName != "" {
				authors = append(authors, au.FullName)
			}
		}
		articles = append(articles, normalize.IEEEArticle{
			Title:           a.Title,
			Authors:         authors,
			Abstract:        a.Abstract,
			Year:            a.PublicationYear,
			PublicationDate: a.PublicationDate,
			DOI:             a.DOI,
			HTMLURL:         a.HTMLURL,
			PDFURL:          a.PDFURL,
			ContentType:     a.ContentType,
			PublicationName: a.PublicationTitle,
		})
	}
	return b.Normalizer.IEEEArticles(articles), nil
}
