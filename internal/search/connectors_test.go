// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/review-engine/internal/httputil"
	"github.com/pdiddy/review-engine/internal/normalize"
	"github.com/pdiddy/review-engine/pkg/types"
)

// serve points *base at a test server that records the last request
// query and replies with body.
func serve(t *testing.T, base *string, status int, body string) *url.Values {
	t.Helper()
	var got url.Values
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		if key := r.Header.Get("x-api-key"); key != "" {
			got.Set("x-api-key", key)
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(ts.Close)
	old := *base
	*base = ts.URL
	t.Cleanup(func() { *base = old })
	return &got
}

func TestBuildArxivQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"deep learning", "deep learning"},
		{"llm and agents or tools", "llm AND agents OR tools"},
		{"vision NOT   medical", "vision ANDNOT medical"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BuildArxivQuery(tt.in), "BuildArxivQuery(%q)", tt.in)
	}
}

func TestBuildKeywordQuery(t *testing.T) {
	assert.Equal(t, "llm agents tools", BuildKeywordQuery(`("llm" AND agents) OR tools`))
	assert.Equal(t, "", BuildKeywordQuery("AND OR"))
}

func TestBuildJStageQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"robot AND control", "robot control"},
		{"robot OR drone", "robot | drone"},
		{"(robot OR drone) AND control NOT toy", "robot | drone control"},
		{"robot OR", "robot"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BuildJStageQuery(tt.in), "BuildJStageQuery(%q)", tt.in)
	}
}

func TestSemanticYearFilter(t *testing.T) {
	assert.Equal(t, "", SemanticYearFilter(nil))
	assert.Equal(t, "2018-2024", SemanticYearFilter(&types.YearRange{Start: 2018, End: 2024}))
	assert.Equal(t, "2018-", SemanticYearFilter(&types.YearRange{Start: 2018}))
	assert.Equal(t, "-2024", SemanticYearFilter(&types.YearRange{End: 2024}))
}

func TestArxivBackendSearch(t *testing.T) {
	got := serve(t, &arxivAPIBase, http.StatusOK, `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.07041v1</id>
    <published>2023-01-17T00:00:00Z</published>
    <title>Agents at Work</title>
    <summary>Abstract.</summary>
    <author><name>Ada Lovelace</name></author>
  </entry>
</feed>`)

	b := &ArxivBackend{Normalizer: normalize.New(nil), UserAgent: "test"}
	recs, err := b.Search(context.Background(), Request{Query: "agents and tools", Limit: 7})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Agents at Work", recs[0].Title)
	assert.Equal(t, "2301.07041", recs[0].Identifiers.ArxivID)
	assert.Equal(t, "all:agents AND tools", got.Get("search_query"))
	assert.Equal(t, "7", got.Get("max_results"))
}

func TestArxivBackendHTTPError(t *testing.T) {
	serve(t, &arxivAPIBase, http.StatusInternalServerError, "boom")
	b := &ArxivBackend{Normalizer: normalize.New(nil)}
	_, err := b.Search(context.Background(), Request{Query: "x", Limit: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestSemanticScholarBackendSearch(t *testing.T) {
	got := serve(t, &semanticAPIBase, http.StatusOK, `{"total":1,"data":[
		{"paperId":"abc","title":"Graph Agents","year":2022,
		 "authors":[{"name":"Alan Turing"}],
		 "externalIds":{"DOI":"10.1/ga"},
		 "publicationTypes":["JournalArticle"]}]}`)

	b := &SemanticScholarBackend{Normalizer: normalize.New(nil), APIKey: "k"}
	recs, err := b.Search(context.Background(), Request{
		Query: "graph AND agents", Limit: 5,
		YearRange: &types.YearRange{Start: 2020, End: 2023},
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "10.1/ga", recs[0].Identifiers.DOI)
	assert.Equal(t, "Journal Article", recs[0].PublicationType)
	assert.Equal(t, "https://www.semanticscholar.org/paper/abc", recs[0].Identifiers.URL)

	assert.Equal(t, "graph agents", got.Get("query"))
	assert.Equal(t, "5", got.Get("limit"))
	assert.Equal(t, "2020-2023", got.Get("year"))
	assert.Equal(t, "k", got.Get("x-api-key"))
}

func TestSemanticScholarBackendEmptyData(t *testing.T) {
	serve(t, &semanticAPIBase, http.StatusOK, `{"total":0}`)
	b := &SemanticScholarBackend{Normalizer: normalize.New(nil)}
	recs, err := b.Search(context.Background(), Request{Query: "x", Limit: 1})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSemanticScholarBackendRetriesOn429(t *testing.T) {
	old := httputil.RetryBaseDelay
	httputil.RetryBaseDelay = 0
	defer func() { httputil.RetryBaseDelay = old }()

	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"data":[{"paperId":"p","title":"T","year":2021}]}`)
	}))
	defer ts.Close()
	oldBase := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = oldBase }()

	b := &SemanticScholarBackend{Retrier: httputil.Retrier{Client: ts.Client()}, Normalizer: normalize.New(nil)}
	recs, err := b.Search(context.Background(), Request{Query: "x", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, 2, calls)
}

const jstageFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:prism="http://prismstandard.org/namespaces/basic/2.0/">
  <entry>
    <article_title><en>Robot Control</en><ja>ロボット制御</ja></article_title>
    <article_link><en>https://www.jstage.jst.go.jp/article/jrsj/41/2/41_100/_article</en></article_link>
    <author><en><name>Taro Yamada</name><name> Hanako Sato </name></en></author>
    <material_title><en>Journal of the Robotics Society of Japan</en></material_title>
    <prism:volume>41</prism:volume>
    <prism:number>2</prism:number>
    <prism:startingPage>100</prism:startingPage>
    <prism:endingPage>110</prism:endingPage>
    <prism:doi>10.7210/jrsj.41.100</prism:doi>
    <pubyear>2023</pubyear>
  </entry>
  <entry>
    <article_title><ja>深層学習</ja></article_title>
    <author><ja><name>山田 太郎</name></ja></author>
    <pubyear>2021</pubyear>
  </entry>
</feed>`

func TestParseJStageFeed(t *testing.T) {
	arts, err := ParseJStageFeed([]byte(jstageFeedXML))
	require.NoError(t, err)
	require.Len(t, arts, 2)

	a := arts[0]
	assert.Equal(t, "Robot Control", a.Title)
	assert.Equal(t, normalize.AuthorList{"Taro Yamada", "Hanako Sato"}, a.Authors)
	assert.Equal(t, "Journal of the Robotics Society of Japan", a.Journal)
	assert.Equal(t, "100-110", a.Pages)
	assert.Equal(t, "10.7210/jrsj.41.100", a.DOI)
	assert.Equal(t, "2023", a.PublishedDate)

	assert.Equal(t, "深層学習", arts[1].Title)
	assert.Equal(t, normalize.AuthorList{"山田 太郎"}, arts[1].Authors)

	_, err = ParseJStageFeed([]byte("<feed><entry>"))
	assert.Error(t, err)
}

func TestJStageBackendSearch(t *testing.T) {
	got := serve(t, &jstageAPIBase, http.StatusOK, jstageFeedXML)

	b := &JStageBackend{Normalizer: normalize.New(nil)}
	recs, err := b.Search(context.Background(), Request{
		Query: "robot OR drone", Limit: 4,
		YearRange: &types.YearRange{Start: 2020},
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, normalize.SourceJStage, recs[0].Source)
	assert.Equal(t, 2023, *recs[0].Year)
	assert.Equal(t, "English", recs[0].Language)
	assert.Equal(t, "Japanese", recs[1].Language)

	assert.Equal(t, "3", got.Get("service"))
	assert.Equal(t, "robot | drone", got.Get("text"))
	assert.Equal(t, "4", got.Get("count"))
	assert.Equal(t, "2020", got.Get("pubyearfrom"))
	assert.Empty(t, got.Get("pubyearto"))
}

func TestIEEEBackendSearch(t *testing.T) {
	got := serve(t, &ieeeAPIBase, http.StatusOK, `{"articles":[
		{"title":"Edge AI","authors":{"authors":[{"full_name":"Grace Hopper"}]},
		 "publication_year":"2022","doi":"10.1109/x","html_url":"https://ieeexplore.ieee.org/document/1",
		 "content_type":"Conferences","publication_title":"ICRA"}]}`)

	b := &IEEEBackend{Normalizer: normalize.New(nil), APIKey: "key"}
	recs, err := b.Search(context.Background(), Request{Query: "edge ai", Limit: 3})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"Grace Hopper"}, recs[0].Authors)
	assert.Equal(t, 2022, *recs[0].Year)
	assert.Equal(t, "key", got.Get("apikey"))
	assert.Equal(t, "3", got.Get("max_records"))

	_, err = (&IEEEBackend{Normalizer: normalize.New(nil)}).Search(context.Background(), Request{Query: "x"})
	assert.Error(t, err)
}

func TestGovernmentBackendSearch(t *testing.T) {
	got := serve(t, &govUKAPIBase, http.StatusOK, `{"results":[
		{"title":"AI Regulation White Paper","link":"/government/publications/ai-regulation",
		 "description":"Proposals.","public_timestamp":"2023-03-29T10:00:00Z"}]}`)

	b := &GovernmentBackend{Normalizer: normalize.New(nil)}
	recs, err := b.Search(context.Background(), Request{Query: "AI AND regulation", Limit: 2})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	r := recs[0]
	assert.Equal(t, "https://www.gov.uk/government/publications/ai-regulation", r.Identifiers.URL)
	assert.Equal(t, 2023, *r.Year)
	assert.Equal(t, "White Paper", r.PublicationType)
	assert.Contains(t, r.Source, "UK")
	assert.Equal(t, "AI regulation", got.Get("q"))
}

func TestGovernmentBackendPortalWithoutAPI(t *testing.T) {
	b := &GovernmentBackend{Normalizer: normalize.New(nil), PortalIDs: []string{"who", "nope"}}
	recs, err := b.Search(context.Background(), Request{Query: "health", Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestGovernmentBackendFailure(t *testing.T) {
	serve(t, &govUKAPIBase, http.StatusBadGateway, "")
	b := &GovernmentBackend{Normalizer: normalize.New(nil), PortalIDs: []string{"uk_gov"}}
	_, err := b.Search(context.Background(), Request{Query: "x", Limit: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOV.UK")
}

func TestPortals(t *testing.T) {
	assert.Len(t, Portals(), 6)
	p, ok := LookupPortal("uk_gov")
	require.True(t, ok)
	assert.Equal(t, "UK", p.Country)
	_, ok = LookupPortal("mars")
	assert.False(t, ok)
	assert.Equal(t, []string{"European Union", "Japan", "UK", "UN", "USA", "WHO"}, SupportedCountries())
}

func TestBackendsFromConfig(t *testing.T) {
	bs := Backends(types.SearchConfig{
		EnableArxiv: true, EnableJStage: true, EnableIEEE: true, EnableGovernment: true,
	}, nil)
	var names []string
	for _, b := range bs {
		names = append(names, b.Name())
	}
	assert.Equal(t, []string{normalize.SourceArxiv, normalize.SourceJStage, normalize.SourceGovernment}, names)
}
