// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-engine/pkg/types"
)

// CSLItem is a bibliography entry in CSL-YAML form, consumable by Pandoc
// and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	Author         []CSLName `yaml:"author,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Abstract       string    `yaml:"abstract,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	URL            string    `yaml:"URL,omitempty"`
	Language       string    `yaml:"language,omitempty"`
}

// CSLName is a person's name in CSL form.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate is a date in CSL date-parts form.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// ToCSL converts a paper record. The item ID is the paper's ID.
func ToCSL(p types.PaperRecord) CSLItem {
	item := CSLItem{
		ID:             p.ID(),
		Type:           CSLType(p.PublicationType),
		Title:          p.Title,
		ContainerTitle: p.Venue,
		Abstract:       p.Abstract,
		DOI:            p.Identifiers.DOI,
		URL:            p.Identifiers.URL,
	}
	if p.Language != "" && p.Language != types.DefaultLanguage {
		item.Language = p.Language
	}
	for _, a := range p.Authors {
		if n := ParseAuthorName(a); n != (CSLName{}) {
			item.Author = append(item.Author, n)
		}
	}
	if p.Year != nil {
		item.Issued = &CSLDate{DateParts: [][]int{{*p.Year}}}
	}
	return item
}

// CSLType maps a publication type label to a CSL item type.
func CSLType(pubType string) string {
	t := strings.ToLower(pubType)
	switch {
	case strings.Contains(t, "conference"):
		return "paper-conference"
	case strings.Contains(t, "journal"), strings.Contains(t, "magazine"):
		return "article-journal"
	case strings.Contains(t, "book section"), strings.Contains(t, "chapter"):
		return "chapter"
	case strings.Contains(t, "book"):
		return "book"
	case strings.Contains(t, "standard"):
		return "standard"
	case strings.Contains(t, "dataset"):
		return "dataset"
	case strings.Contains(t, "legislation"), strings.Contains(t, "regulation"):
		return "legislation"
	case strings.Contains(t, "report"), strings.Contains(t, "white paper"), strings.Contains(t, "policy"),
		strings.Contains(t, "guideline"), strings.Contains(t, "government"):
		return "report"
	}
	return "article"
}

// ParseAuthorName splits a full name on the last space: everything before
// is given, the last token is family. Single-token names use literal.
func ParseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  strings.TrimSpace(name[:idx]),
		Family: name[idx+1:],
	}
}

// WriteCSL writes records as a CSL-YAML list to w.
func WriteCSL(w io.Writer, records []types.PaperRecord) error {
	items := make([]CSLItem, len(records))
	for i, r := range records {
		items[i] = ToCSL(r)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encoding CSL: %w", err)
	}
	return enc.Close()
}

// WriteCSLFile writes records as CSL-YAML to path.
func WriteCSLFile(path string, records []types.PaperRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteCSL(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
