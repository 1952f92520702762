// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve downloads full-text PDFs for included papers. A paper's
// PDF URL comes from its source record, its arXiv ID, or the OpenAlex
// open-access location of its DOI. Papers with no reachable PDF are
// counted as reports not retrieved in the PRISMA flow.
package retrieve

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/review-engine/internal/httputil"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Base URLs for PDF resolution. Declared as vars so tests can substitute
// httptest servers.
var (
	arxivPDFBase    = "https://arxiv.org/pdf/"
	openAlexAPIBase = "https://api.openalex.org/works/"
)

// maxPDFBytes caps a single download. A larger body fails with
// ErrTooLarge instead of being saved truncated.
var maxPDFBytes int64 = httputil.MaxBodyBytes

// ErrTooLarge is returned when a PDF exceeds maxPDFBytes.
var ErrTooLarge = errors.New("PDF exceeds size limit")

// ErrNoFullText is returned when no PDF URL can be resolved for a paper.
var ErrNoFullText = errors.New("no full-text URL")

// Status is the retrieval outcome for one paper.
type Status string

const (
	StatusDownloaded   Status = "downloaded"
	StatusSkipped      Status = "skipped"
	StatusNotRetrieved Status = "not_retrieved"
)

// Outcome records what happened to one paper.
type Outcome struct {
	PaperID string `json:"paper_id" yaml:"paper_id"`
	Title   string `json:"title" yaml:"title"`
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	Status  Status `json:"status" yaml:"status"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Result summarizes a batch.
type Result struct {
	Outcomes     []Outcome `json:"outcomes" yaml:"outcomes"`
	Downloaded   int       `json:"downloaded" yaml:"downloaded"`
	Skipped      int       `json:"skipped" yaml:"skipped"`
	NotRetrieved int       `json:"not_retrieved" yaml:"not_retrieved"`
}

// Retriever downloads PDFs. The zero value uses http.DefaultClient and
// no delay.
type Retriever struct {
	Retrier   httputil.Retrier
	UserAgent string

	// Mailto is sent to OpenAlex to join its polite pool.
	Mailto string

	// Delay is the pause between consecutive downloads.
	Delay time.Duration

	Log *zap.Logger
}

// New returns a Retriever configured from cfg.
func New(cfg types.RetrievalConfig, log *zap.Logger) *Retriever {
	if log == nil {
		log = zap.NewNop()
	}
	return &Retriever{
		Retrier:   httputil.Retrier{Client: &http.Client{Timeout: cfg.Timeout}, Log: log},
		UserAgent: cfg.UserAgent,
		Mailto:    cfg.Mailto,
		Delay:     cfg.Delay,
		Log:       log,
	}
}

func (r *Retriever) log() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

// Resolve finds a PDF URL for p: the source's PDF link, then the arXiv PDF
// endpoint, then the OpenAlex open-access location for the DOI.
func (r *Retriever) Resolve(ctx context.Context, p types.PaperRecord) (string, error) {
	if p.PDFURL != "" {
		return p.PDFURL, nil
	}
	if p.Identifiers.ArxivID != "" {
		return arxivPDFBase + p.Identifiers.ArxivID, nil
	}
	if doi := types.NormalizeDOI(p.Identifiers.DOI); doi != "" {
		u, err := r.openAlex(ctx, doi)
		if err != nil {
			return "", err
		}
		if u != "" {
			return u, nil
		}
	}
	return "", ErrNoFullText
}

type openAlexWork struct {
	BestOALocation *struct {
		PDFURL string `json:"pdf_url"`
	} `json:"best_oa_location"`
}

// openAlex returns the open-access PDF URL OpenAlex lists for doi, or ""
// when it lists none.
func (r *Retriever) openAlex(ctx context.Context, doi string) (string, error) {
	apiURL := openAlexAPIBase + "doi:" + doi
	if r.Mailto != "" {
		apiURL += "?mailto=" + url.QueryEscape(r.Mailto)
	}
	data, err := r.Retrier.Fetch(ctx, "OpenAlex", apiURL, r.header(""))
	if err != nil {
		return "", err
	}
	var w openAlexWork
	if err := json.Unmarshal(data, &w); err != nil {
		return "", fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	if w.BestOALocation == nil {
		return "", nil
	}
	return w.BestOALocation.PDFURL, nil
}

func (r *Retriever) header(accept string) http.Header {
	h := http.Header{}
	if r.UserAgent != "" {
		h.Set("User-Agent", r.UserAgent)
	}
	if accept != "" {
		h.Set("Accept", accept)
	}
	return h
}

var slugReplacer = strings.NewReplacer("/", "-", ":", "-", "\\", "-")

// Slug returns a filesystem-safe file stem for p.
func Slug(p types.PaperRecord) string {
	if id := p.Identifiers.ArxivID; id != "" {
		return slugReplacer.Replace(id)
	}
	if doi := types.NormalizeDOI(p.Identifiers.DOI); doi != "" {
		return slugReplacer.Replace(doi)
	}
	h := sha256.Sum256([]byte(p.ID()))
	return fmt.Sprintf("paper-%x", h[:8])
}

// Retrieve downloads p's PDF into dir. An existing file is kept.
func (r *Retriever) Retrieve(ctx context.Context, p types.PaperRecord, dir string) Outcome {
	o := Outcome{PaperID: p.ID(), Title: p.Title}
	path := filepath.Join(dir, Slug(p)+".pdf")
	if _, err := os.Stat(path); err == nil {
		o.Path, o.Status = path, StatusSkipped
		return o
	}

	u, err := r.Resolve(ctx, p)
	if err != nil {
		o.Status, o.Error = StatusNotRetrieved, err.Error()
		return o
	}
	o.URL = u
	if err := r.download(ctx, u, path); err != nil {
		o.Status, o.Error = StatusNotRetrieved, err.Error()
		return o
	}
	o.Path, o.Status = path, StatusDownloaded
	return o
}

// RetrieveAll retrieves every paper in order, pausing Delay between
// downloads. Failures are recorded and the batch continues. Progress
// lines go to w.
func (r *Retriever) RetrieveAll(ctx context.Context, papers []types.PaperRecord, dir string, w io.Writer) (Result, error) {
	if w == nil {
		w = io.Discard
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	var res Result
	for i, p := range papers {
		if i > 0 && r.Delay > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(r.Delay):
			}
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		o := r.Retrieve(ctx, p, dir)
		switch o.Status {
		case StatusDownloaded:
			res.Downloaded++
			fmt.Fprintf(w, "downloaded: %s\n", filepath.Base(o.Path))
		case StatusSkipped:
			res.Skipped++
			fmt.Fprintf(w, "skipped: %s (already exists)\n", filepath.Base(o.Path))
		default:
			res.NotRetrieved++
			fmt.Fprintf(w, "not retrieved: %s (%s)\n", p.Title, o.Error)
			r.log().Debug("full text not retrieved", zap.String("paper_id", o.PaperID), zap.String("error", o.Error))
		}
		res.Outcomes = append(res.Outcomes, o)
	}
	fmt.Fprintf(w, "full text: %d downloaded, %d skipped, %d not retrieved\n",
		res.Downloaded, res.Skipped, res.NotRetrieved)
	return res, nil
}

// download fetches u to destPath through a temporary file so a failed
// transfer never leaves a partial PDF.
func (r *Retriever) download(ctx context.Context, u, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header = r.header("application/pdf")

	resp, err := r.Retrier.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, u)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".retrieve-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	n, copyErr := io.Copy(tmp, io.LimitReader(resp.Body, maxPDFBytes+1))
	closeErr := tmp.Close()
	if copyErr == nil && n > maxPDFBytes {
		copyErr = fmt.Errorf("%w (%d bytes)", ErrTooLarge, maxPDFBytes)
	}
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
