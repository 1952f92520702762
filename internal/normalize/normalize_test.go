// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/review-engine/pkg/types"
)

func yearOf(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func TestExtractYear(t *testing.T) {
	tests := []struct {
		name     string
		explicit *int
		date     string
		want     int
	}{
		{"explicit wins", types.Year(2019), "2021-01-01", 2019},
		{"zero explicit ignored", types.Year(0), "2021-03-04", 2021},
		{"rfc3339", nil, "2023-01-17T18:59:58Z", 2023},
		{"date only", nil, "2020-06-30", 2020},
		{"year month", nil, "2017-11", 2017},
		{"regex fallback", nil, "Published March 2016, revised", 2016},
		{"unparseable", nil, "sometime", 0},
		{"empty", nil, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, yearOf(ExtractYear(tt.explicit, tt.date)))
		})
	}
}

func TestAuthorListShapes(t *testing.T) {
	data := []byte(`[
		{"title": "A", "authors": ["Ada Lovelace", " "]},
		{"title": "B", "authors": [{"name": "Alan Turing"}, {"full_name": "Grace Hopper"}, 7]},
		{"title": "C", "authors": "Edsger Dijkstra"},
		{"title": "D", "authors": null}
	]`)
	recs := New(nil).JStage(data)
	require.Len(t, recs, 4)
	assert.Equal(t, []string{"Ada Lovelace"}, recs[0].Authors)
	assert.Equal(t, []string{"Alan Turing", "Grace Hopper"}, recs[1].Authors)
	assert.Equal(t, []string{"Edsger Dijkstra"}, recs[2].Authors)
	assert.Empty(t, recs[3].Authors)
}

func TestMalformedEntrySkipped(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	n := New(zap.New(core))

	data := []byte(`[
		{"title": "Good paper", "doi": "10.1/x", "year": "2021"},
		{"title": 42},
		{"abstract": "no identity at all"},
		{"title": "Second good paper", "year": 2019}
	]`)
	recs := n.JStage(data)
	require.Len(t, recs, 2)
	assert.Equal(t, "Good paper", recs[0].Title)
	assert.Equal(t, 2021, yearOf(recs[0].Year))
	assert.Equal(t, 2019, yearOf(recs[1].Year))
	assert.Equal(t, 2, logs.Len())
}

func TestMalformedBatchYieldsNothing(t *testing.T) {
	n := New(nil)
	assert.Nil(t, n.JStage([]byte(`{"not": "an array"}`)))
	assert.Nil(t, n.ParseArxivFeed([]byte(`<feed><entry>`)))
	assert.Nil(t, n.Government([]byte(`garbage`)))
}

const arxivFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <entry>
    <id>http://arxiv.org/abs/2301.07041v2</id>
    <published>2023-01-17T18:59:58Z</published>
    <title>Attention Is
      All You Need</title>
    <summary>  We propose a transformer.  </summary>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <arxiv:doi>10.48550/arXiv.2301.07041</arxiv:doi>
    <arxiv:primary_category term="cs.CL"/>
  </entry>
  <entry>
    <id></id>
    <title></title>
  </entry>
</feed>`

func TestParseArxivFeed(t *testing.T) {
	recs := New(nil).ParseArxivFeed([]byte(arxivFeed))
	require.Len(t, recs, 1)

	want := types.PaperRecord{
		Title:    "Attention Is All You Need",
		Authors:  []string{"Ashish Vaswani", "Noam Shazeer"},
		Abstract: "We propose a transformer.",
		Year:     types.Year(2023),
		Identifiers: types.Identifiers{
			DOI:         "10.48550/arXiv.2301.07041",
			URL:         "https://arxiv.org/abs/2301.07041",
			ArxivID:     "2301.07041",
			SourceTitle: "Attention Is\n      All You Need",
		},
		Source:        SourceArxiv,
		Language:      types.DefaultLanguage,
		PDFURL:        "https://arxiv.org/pdf/2301.07041.pdf",
		PublishedDate: "2023-01-17T18:59:58Z",
	}
	if diff := cmp.Diff(want, recs[0]); diff != "" {
		t.Errorf("arXiv record mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractArxivID(t *testing.T) {
	assert.Equal(t, "2301.07041", ExtractArxivID("http://arxiv.org/abs/2301.07041v3"))
	assert.Equal(t, "1706.0376", ExtractArxivID("1706.0376"))
	assert.Equal(t, "hep-th/9901001", ExtractArxivID(" hep-th/9901001 "))
}

func TestJStageArticleURL(t *testing.T) {
	tests := []struct {
		name                              string
		doi, journal, volume, issue, page string
		want                              string
	}{
		{"bare doi", "10.1527/tjsai.38-2_A-M12", "", "", "", "",
			"https://www.jstage.jst.go.jp/article/10.1527/tjsai.38-2_A-M12"},
		{"doi with path", "10.2201/jjsai/38/2/38_A", "", "", "", "",
			"https://www.jstage.jst.go.jp/article/jjsai/38_A"},
		{"journal volume issue page", "", "jjsai", "38", "2", "101",
			"https://www.jstage.jst.go.jp/article/jjsai/38/2/101"},
		{"journal volume", "", "jjsai", "38", "", "",
			"https://www.jstage.jst.go.jp/article/jjsai/38"},
		{"nothing", "", "", "", "", "", "https://www.jstage.jst.go.jp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JStageArticleURL(tt.doi, tt.journal, tt.volume, tt.issue, tt.page))
		})
	}
}

func TestJStageLanguageDetection(t *testing.T) {
	recs := New(nil).JStage([]byte(`[
		{"title": "深層学習による画像認識", "doi": "10.1/a"},
		{"title": "Deep learning for images", "doi": "10.1/b"},
		{"title": "ニューラルネット", "doi": "10.1/c", "language": "English"}
	]`))
	require.Len(t, recs, 3)
	assert.Equal(t, "Japanese", recs[0].Language)
	assert.Equal(t, "English", recs[1].Language)
	assert.Equal(t, "English", recs[2].Language)
	assert.Equal(t, "https://www.jstage.jst.go.jp/article/10.1/a", recs[0].Identifiers.URL)
}

func TestContainsJapanese(t *testing.T) {
	assert.True(t, ContainsJapanese("ひらがな"))
	assert.True(t, ContainsJapanese("カタカナ"))
	assert.True(t, ContainsJapanese("漢字"))
	assert.False(t, ContainsJapanese("plain ASCII"))
}

func TestIEEEContentTypeMapping(t *testing.T) {
	recs := New(nil).IEEE([]byte(`[
		{"title": "Edge AI", "doi": "10.1109/x", "content_type": "Conferences", "publication_year": 2022},
		{"title": "Radar", "html_url": "https://ieeexplore.ieee.org/document/1", "content_type": "Early Access Articles"},
		{"title": "Odd", "content_type": "Courses"}
	]`))
	require.Len(t, recs, 3)
	assert.Equal(t, "Conference Paper", recs[0].PublicationType)
	assert.Equal(t, 2022, yearOf(recs[0].Year))
	assert.Equal(t, "Journal Article", recs[1].PublicationType)
	assert.Equal(t, "https://ieeexplore.ieee.org/document/1", recs[1].Identifiers.URL)
	assert.Equal(t, "Courses", recs[2].PublicationType)
}

func TestSemanticScholar(t *testing.T) {
	recs := New(nil).SemanticScholar([]byte(`[
		{
			"paperId": "abc123",
			"title": "Graph Networks",
			"year": 2020,
			"authors": [{"authorId": "1", "name": "Peter Battaglia"}],
			"externalIds": {"DOI": "10.5555/gn", "ArXiv": "1806.01261"},
			"publicationTypes": ["JournalArticle", "Review"],
			"openAccessPdf": {"url": "https://example.org/gn.pdf"}
		},
		{"paperId": "def456", "title": "No URL", "publicationDate": "2018-05-01"}
	]`))
	require.Len(t, recs, 2)
	assert.Equal(t, "Journal Article", recs[0].PublicationType)
	assert.Equal(t, "10.5555/gn", recs[0].Identifiers.DOI)
	assert.Equal(t, "1806.01261", recs[0].Identifiers.ArxivID)
	assert.Equal(t, "https://example.org/gn.pdf", recs[0].PDFURL)
	assert.Equal(t, []string{"Peter Battaglia"}, recs[0].Authors)
	assert.Equal(t, "https://www.semanticscholar.org/paper/def456", recs[1].Identifiers.URL)
	assert.Equal(t, 2018, yearOf(recs[1].Year))
}

func TestDetectDocumentType(t *testing.T) {
	tests := map[string]string{
		"Executive Order on Safe AI":                  "Executive Order",
		"Presidential Memorandum on Research":         "Presidential Document",
		"Request for Public Comment on AI regulation": "Public Comment",
		"FDA Annual Report 2023":                      "Report",
		"A White Paper on Quantum":                    "White Paper",
		"Policy Brief: Open Science":                  "Policy Paper",
		"Medical Device Regulation":                   "Regulation",
		"CHIPS Act of 2022":                           "Legislation",
		"Senate Hearing on Privacy":                   "Hearing",
		"Clinical Guidelines for Diabetes":            "Guidelines",
		"National AI Strategy":                        "Strategic Document",
		"Budget Request FY2025":                       "Budget Document",
		"Something else entirely":                     "Government Document",
	}
	for title, want := range tests {
		assert.Equal(t, want, DetectDocumentType(title), title)
	}
}

func TestExtractAgency(t *testing.T) {
	assert.Equal(t, "FDA", ExtractAgency("https://www.fda.gov/media/1234"))
	assert.Equal(t, "MHLW", ExtractAgency("https://www.mhlw.go.jp/stf/index.html"))
	assert.Equal(t, "UK Government", ExtractAgency("https://www.gov.uk/government/publications/x"))
	assert.Equal(t, "EPA", ExtractAgency("https://www.epa.gov/report"))
	assert.Equal(t, "Government Agency", ExtractAgency("not a url"))
}

func TestGovernmentRecord(t *testing.T) {
	recs := New(nil).Government([]byte(`[
		{"title": "National AI Strategy", "url": "https://www.gov.uk/ai", "published_date": "2021-09-22", "country": "UK"},
		{"title": "WHO guidance", "url": "https://www.who.int/x", "organization": "WHO", "document_type": "Guidance"}
	]`))
	require.Len(t, recs, 2)
	assert.Equal(t, "Strategic Document", recs[0].PublicationType)
	assert.Equal(t, "UK Government - UK", recs[0].Source)
	assert.Equal(t, 2021, yearOf(recs[0].Year))
	assert.Equal(t, "Guidance", recs[1].PublicationType)
	assert.Equal(t, "WHO - WHO", recs[1].Source)
	assert.Equal(t, SourceGovernment, GovernmentSource("", "", ""))
}

func TestFilterByYear(t *testing.T) {
	recs := []types.PaperRecord{
		{Title: "old", Year: types.Year(2010)},
		{Title: "in", Year: types.Year(2020)},
		{Title: "unknown"},
		{Title: "new", Year: types.Year(2030)},
	}
	got := FilterByYear(recs, &types.YearRange{Start: 2018, End: 2024})
	require.Len(t, got, 1)
	assert.Equal(t, "in", got[0].Title)

	assert.Len(t, FilterByYear(recs, nil), 4)
	assert.Len(t, FilterByYear(recs, &types.YearRange{Start: 2018}), 2)
}
