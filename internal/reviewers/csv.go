// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reviewers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

// csvHeader is the column layout of exported decision files.
var csvHeader = []string{"paper_id", "reviewer_id", "decision", "reason"}

// WriteCSV writes the full decision log, superseded decisions included.
func (m *Manager) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, d := range m.log {
		if err := cw.Write([]string{d.PaperID, d.ReviewerID, d.Decision, d.Reason}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV writes the decision log to a CSV file at path.
func (m *Manager) ExportCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := m.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("writing decisions CSV: %w", err)
	}
	return f.Close()
}

// ReadCSV parses decisions in the exported layout. The header row is
// required; the reason column may be missing.
func ReadCSV(r io.Reader) ([]types.ScreeningDecision, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if len(header) < 3 || strings.TrimSpace(strings.TrimPrefix(header[0], "\ufeff")) != "paper_id" {
		return nil, fmt.Errorf("unexpected CSV header %v (want %s)", header, strings.Join(csvHeader, ","))
	}

	var out []types.ScreeningDecision
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", line, err)
		}
		if len(row) < 3 {
			return nil, fmt.Errorf("CSV line %d: want at least 3 columns, got %d", line, len(row))
		}
		d := types.ScreeningDecision{PaperID: row[0], ReviewerID: row[1], Decision: row[2]}
		if len(row) > 3 {
			d.Reason = row[3]
		}
		out = append(out, d)
	}
	return out, nil
}

// ImportCSV appends every decision in the CSV file at path and returns how
// many were recorded.
func (m *Manager) ImportCSV(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	ds, err := ReadCSV(f)
	if err != nil {
		return 0, err
	}
	for _, d := range ds {
		m.RecordDecision(d)
	}
	return len(ds), nil
}
