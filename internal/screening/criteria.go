// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package screening

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/review-engine/internal/docfile"
	"github.com/pdiddy/review-engine/pkg/types"
)

// ErrInvalidYearRange is returned when a criteria year range has start > end.
var ErrInvalidYearRange = errors.New("invalid year range")

// Default criteria values.
const (
	DefaultStartYear = 2018
	DefaultEndYear   = 2024
)

// DefaultPublicationTypes are the publication types accepted by default.
var DefaultPublicationTypes = []string{"Journal Article", "Conference Paper"}

// DefaultCriteria returns the baseline policy: English only, 2018–2024,
// journal articles and conference papers.
func DefaultCriteria() types.ScreeningCriteria {
	return types.ScreeningCriteria{
		InclusionCriteria: []string{},
		ExclusionCriteria: []string{},
		LanguageCriteria:  []string{types.DefaultLanguage},
		YearRange:         types.YearRange{Start: DefaultStartYear, End: DefaultEndYear},
		PublicationTypes:  append([]string(nil), DefaultPublicationTypes...),
		StudyDesigns:      []string{},
	}
}

var (
	computingFields = []string{"computer science", "engineering", "ai", "machine learning"}
	lifeFields      = []string{"medicine", "healthcare", "biology"}
)

// GenerateDefaultCriteria builds the default criteria for a review of theme
// within field, adding field-specific inclusion and exclusion items for
// computing and life-science fields.
func GenerateDefaultCriteria(field, theme string) types.ScreeningCriteria {
	c := DefaultCriteria()
	c.InclusionCriteria = []string{
		"Peer-reviewed publication (journal article or conference paper)",
		"Directly addresses " + theme,
		"Reports original research or systematic review",
		"Provides empirical data or theoretical framework",
	}
	c.ExclusionCriteria = []string{
		"Not peer-reviewed (blog posts, white papers, etc.)",
		"Not in English",
		"Outside specified publication year range",
		"Editorial, commentary, or opinion piece without original research",
		"Duplicate publication of same study",
	}

	f := strings.ToLower(strings.TrimSpace(field))
	switch {
	case oneOf(f, computingFields):
		c.InclusionCriteria = append(c.InclusionCriteria,
			"Describes methodology or algorithm clearly",
			"Includes performance evaluation")
		c.ExclusionCriteria = append(c.ExclusionCriteria,
			"Purely theoretical without implementation details")
	case oneOf(f, lifeFields):
		c.InclusionCriteria = append(c.InclusionCriteria,
			"Describes study design and sample",
			"Reports clinical or experimental outcomes")
		c.ExclusionCriteria = append(c.ExclusionCriteria,
			"Case report with n<5",
			"No ethical approval mentioned for human subjects")
	}
	return c
}

// Validate rejects criteria whose year range is inverted.
func Validate(c types.ScreeningCriteria) error {
	if !c.YearRange.Valid() {
		return fmt.Errorf("%w: start %d is after end %d", ErrInvalidYearRange, c.YearRange.Start, c.YearRange.End)
	}
	return nil
}

// SaveCriteria writes criteria to path as JSON, or YAML for .yaml/.yml paths.
func SaveCriteria(path string, c types.ScreeningCriteria) error {
	return docfile.Write(path, c)
}

// LoadCriteria reads criteria from a JSON or YAML file and validates them.
// Fields absent from the file take their default values.
func LoadCriteria(path string) (types.ScreeningCriteria, error) {
	c := DefaultCriteria()
	if err := docfile.Read(path, &c); err != nil {
		return types.ScreeningCriteria{}, fmt.Errorf("loading criteria: %w", err)
	}
	if err := Validate(c); err != nil {
		return types.ScreeningCriteria{}, err
	}
	return c, nil
}

func oneOf(s string, list []string) bool {
	for _, v := range list {
		if s == v {
			return true
		}
	}
	return false
}
