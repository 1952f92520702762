// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/review-engine/pkg/types"
)

const fakePDF = "%PDF-1.4 fake"

// newServer serves PDFs under /pdf/ and OpenAlex works under /works/.
// DOIs in oa map to a PDF path on the same server; any other DOI has no
// open-access location.
func newServer(t *testing.T, oa map[string]string) *httptest.Server {
	t.Helper()
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/pdf/missing"):
			w.WriteHeader(http.StatusNotFound)
		case strings.HasPrefix(r.URL.Path, "/pdf/"):
			assert.Equal(t, "application/pdf", r.Header.Get("Accept"))
			w.Write([]byte(fakePDF))
		case strings.HasPrefix(r.URL.Path, "/works/doi:"):
			doi := strings.TrimPrefix(r.URL.Path, "/works/doi:")
			if path, ok := oa[doi]; ok {
				w.Write([]byte(`{"best_oa_location": {"pdf_url": "` + ts.URL + path + `"}}`))
				return
			}
			w.Write([]byte(`{"best_oa_location": null}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ts.Close)

	oldArxiv, oldOA := arxivPDFBase, openAlexAPIBase
	arxivPDFBase = ts.URL + "/pdf/"
	openAlexAPIBase = ts.URL + "/works/"
	t.Cleanup(func() { arxivPDFBase, openAlexAPIBase = oldArxiv, oldOA })
	return ts
}

func TestResolve(t *testing.T) {
	ts := newServer(t, map[string]string{"10.1000/oa": "/pdf/oa"})
	r := &Retriever{}

	tests := []struct {
		name    string
		paper   types.PaperRecord
		want    string
		wantErr error
	}{
		{
			name:  "source PDF link wins",
			paper: types.PaperRecord{PDFURL: "https://example.org/p.pdf", Identifiers: types.Identifiers{ArxivID: "2301.00001"}},
			want:  "https://example.org/p.pdf",
		},
		{
			name:  "arXiv ID",
			paper: types.PaperRecord{Identifiers: types.Identifiers{ArxivID: "2301.00001", DOI: "10.1000/oa"}},
			want:  ts.URL + "/pdf/2301.00001",
		},
		{
			name:  "OpenAlex open access",
			paper: types.PaperRecord{Identifiers: types.Identifiers{DOI: "https://doi.org/10.1000/OA"}},
			want:  ts.URL + "/pdf/oa",
		},
		{
			name:    "DOI without open access",
			paper:   types.PaperRecord{Identifiers: types.Identifiers{DOI: "10.1000/closed"}},
			wantErr: ErrNoFullText,
		},
		{
			name:    "no identifiers",
			paper:   types.PaperRecord{Title: "Untitled"},
			wantErr: ErrNoFullText,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.paper)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		name  string
		paper types.PaperRecord
		want  string
	}{
		{"arXiv", types.PaperRecord{Identifiers: types.Identifiers{ArxivID: "2301.00001"}}, "2301.00001"},
		{"old arXiv", types.PaperRecord{Identifiers: types.Identifiers{ArxivID: "hep-th/9901001"}}, "hep-th-9901001"},
		{"DOI", types.PaperRecord{Identifiers: types.Identifiers{DOI: "doi:10.1000/ABC:1"}}, "10.1000-abc-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.paper))
		})
	}

	a := Slug(types.PaperRecord{Title: "First"})
	b := Slug(types.PaperRecord{Title: "Second"})
	assert.True(t, strings.HasPrefix(a, "paper-"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Slug(types.PaperRecord{Title: "First"}))
}

func TestRetrieveAll(t *testing.T) {
	newServer(t, map[string]string{"10.1000/oa": "/pdf/oa"})
	dir := filepath.Join(t.TempDir(), "fulltext")

	existing := types.PaperRecord{Title: "Already here", Identifiers: types.Identifiers{ArxivID: "2201.00002"}}
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2201.00002.pdf"), []byte("old"), 0o644))

	papers := []types.PaperRecord{
		{Title: "arXiv paper", Identifiers: types.Identifiers{ArxivID: "2301.00001"}},
		{Title: "Open access", Identifiers: types.Identifiers{DOI: "10.1000/oa"}},
		{Title: "Closed", Identifiers: types.Identifiers{DOI: "10.1000/closed"}},
		{Title: "Broken link", Identifiers: types.Identifiers{ArxivID: "missing"}},
		existing,
	}

	var out bytes.Buffer
	res, err := (&Retriever{}).RetrieveAll(context.Background(), papers, dir, &out)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Downloaded)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 2, res.NotRetrieved)
	require.Len(t, res.Outcomes, 5)
	assert.Equal(t, StatusDownloaded, res.Outcomes[0].Status)
	assert.Equal(t, StatusDownloaded, res.Outcomes[1].Status)
	assert.Equal(t, StatusNotRetrieved, res.Outcomes[2].Status)
	assert.Contains(t, res.Outcomes[2].Error, ErrNoFullText.Error())
	assert.Equal(t, StatusNotRetrieved, res.Outcomes[3].Status)
	assert.Contains(t, res.Outcomes[3].Error, "HTTP 404")
	assert.Equal(t, StatusSkipped, res.Outcomes[4].Status)

	data, err := os.ReadFile(filepath.Join(dir, "2301.00001.pdf"))
	require.NoError(t, err)
	assert.Equal(t, fakePDF, string(data))
	assert.FileExists(t, filepath.Join(dir, "10.1000-oa.pdf"))
	assert.NoFileExists(t, filepath.Join(dir, "missing.pdf"))

	old, err := os.ReadFile(filepath.Join(dir, "2201.00002.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
	assert.Contains(t, out.String(), "full text: 2 downloaded, 1 skipped, 2 not retrieved")
}

func TestRetrieve_TooLarge(t *testing.T) {
	newServer(t, nil)
	old := maxPDFBytes
	maxPDFBytes = int64(len(fakePDF)) - 1
	t.Cleanup(func() { maxPDFBytes = old })

	dir := t.TempDir()
	p := types.PaperRecord{Title: "Big", Identifiers: types.Identifiers{ArxivID: "2301.00009"}}
	o := (&Retriever{}).Retrieve(context.Background(), p, dir)

	assert.Equal(t, StatusNotRetrieved, o.Status)
	assert.Contains(t, o.Error, ErrTooLarge.Error())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRetrieve_ExactLimit(t *testing.T) {
	newServer(t, nil)
	old := maxPDFBytes
	maxPDFBytes = int64(len(fakePDF))
	t.Cleanup(func() { maxPDFBytes = old })

	p := types.PaperRecord{Identifiers: types.Identifiers{ArxivID: "2301.00010"}}
	o := (&Retriever{}).Retrieve(context.Background(), p, t.TempDir())
	assert.Equal(t, StatusDownloaded, o.Status)
}

func TestRetrieveAll_Cancelled(t *testing.T) {
	newServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	papers := []types.PaperRecord{{Identifiers: types.Identifiers{ArxivID: "2301.00001"}}}
	_, err := (&Retriever{}).RetrieveAll(ctx, papers, t.TempDir(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
