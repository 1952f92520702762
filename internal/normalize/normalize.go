// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize converts source-shaped records (arXiv Atom entries,
// J-STAGE, IEEE Xplore, Semantic Scholar and government-portal JSON) into
// canonical PaperRecords. Conversion never fails for a whole batch: a
// malformed entry is logged and skipped.
package normalize

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Source tags written to PaperRecord.Source.
const (
	SourceArxiv           = "arXiv"
	SourceJStage          = "J-STAGE"
	SourceIEEE            = "IEEE Xplore"
	SourceSemanticScholar = "Semantic Scholar"
	SourceGovernment      = "Government Document"
)

// Normalizer converts source records, logging skipped entries.
type Normalizer struct {
	log *zap.Logger
}

// New returns a Normalizer that logs to log. A nil logger discards output.
func New(log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{log: log}
}

// decodeEach splits a JSON array into raw entries and decodes each into T,
// skipping entries that fail to decode. A payload that is not an array
// yields no records.
func decodeEach[T any](n *Normalizer, source string, data []byte, convert func(T) (types.PaperRecord, bool)) []types.PaperRecord {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		n.log.Warn("skipping malformed batch", zap.String("source", source), zap.Error(err))
		return nil
	}
	var out []types.PaperRecord
	for i, msg := range raw {
		var v T
		if err := json.Unmarshal(msg, &v); err != nil {
			n.log.Warn("skipping malformed entry",
				zap.String("source", source), zap.Int("index", i), zap.Error(err))
			continue
		}
		rec, ok := convert(v)
		if !ok {
			n.log.Warn("skipping entry without identity",
				zap.String("source", source), zap.Int("index", i))
			continue
		}
		out = append(out, rec)
	}
	return out
}

// convertEach converts decoded entries, skipping those without identity.
func convertEach[T any](n *Normalizer, source string, in []T, convert func(T) (types.PaperRecord, bool)) []types.PaperRecord {
	var out []types.PaperRecord
	for i, v := range in {
		rec, ok := convert(v)
		if !ok {
			n.log.Warn("skipping entry without identity",
				zap.String("source", source), zap.Int("index", i))
			continue
		}
		out = append(out, rec)
	}
	return out
}

// dateLayouts are tried in order when deriving a year from a date string.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

var yearPattern = regexp.MustCompile(`\d{4}`)

// ExtractYear derives a publication year. An explicit year wins; otherwise
// the date is parsed as ISO 8601, falling back to the first four-digit run
// in the string. It returns nil when no year can be found.
func ExtractYear(explicit *int, date string) *int {
	if explicit != nil && *explicit > 0 {
		return types.Year(*explicit)
	}
	date = strings.TrimSpace(date)
	if date == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return types.Year(t.Year())
		}
	}
	if m := yearPattern.FindString(date); m != "" {
		y, err := strconv.Atoi(m)
		if err == nil {
			return types.Year(y)
		}
	}
	return nil
}

// AuthorList decodes an author array whose entries are either bare strings
// or objects with a "name" field. Entries of any other shape and empty
// names are dropped.
type AuthorList []string

// UnmarshalJSON implements json.Unmarshaler.
func (a *AuthorList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// A single string is accepted as one author.
		var single string
		if json.Unmarshal(data, &single) == nil {
			*a = appendName(nil, single)
			return nil
		}
		if string(data) == "null" {
			*a = nil
			return nil
		}
		return err
	}
	var names []string
	for _, r := range raw {
		var s string
		if json.Unmarshal(r, &s) == nil {
			names = appendName(names, s)
			continue
		}
		var obj struct {
			Name     string `json:"name"`
			FullName string `json:"full_name"`
		}
		if json.Unmarshal(r, &obj) == nil {
			if obj.Name == "" {
				obj.Name = obj.FullName
			}
			names = appendName(names, obj.Name)
		}
	}
	*a = names
	return nil
}

func appendName(names []string, name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return names
	}
	return append(names, name)
}

// FlexYear decodes a year given as a JSON number or a numeric string.
// Anything else decodes to nil without error.
type FlexYear struct {
	Value *int
}

// UnmarshalJSON implements json.Unmarshaler.
func (y *FlexYear) UnmarshalJSON(data []byte) error {
	y.Value = nil
	var n int
	if json.Unmarshal(data, &n) == nil {
		if n > 0 {
			y.Value = types.Year(n)
		}
		return nil
	}
	var s string
	if json.Unmarshal(data, &s) == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n > 0 {
			y.Value = types.Year(n)
		}
	}
	return nil
}

// FilterByYear keeps records whose year lies within r. Records with an
// unknown year are dropped. Connectors use this when a strategy carries a
// year range; screening, by contrast, passes unknown years through.
func FilterByYear(records []types.PaperRecord, r *types.YearRange) []types.PaperRecord {
	if r == nil {
		return records
	}
	var out []types.PaperRecord
	for _, rec := range records {
		if rec.Year == nil {
			continue
		}
		if r.Start > 0 && *rec.Year < r.Start {
			continue
		}
		if r.End > 0 && *rec.Year > r.End {
			continue
		}
		out = append(out, rec)
	}
	return out
}
