// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

// GovernmentDocument is a document returned by a government portal search.
type GovernmentDocument struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	PublishedDate string   `json:"published_date"`
	Year          FlexYear `json:"year"`
	Agency        string   `json:"agency"`
	Country       string   `json:"country"`
	Organization  string   `json:"organization"`
	DocumentType  string   `json:"document_type"`
	Abstract      string   `json:"abstract"`
	Language      string   `json:"language"`
}

// Government decodes a JSON array of government documents.
func (n *Normalizer) Government(data []byte) []types.PaperRecord {
	return decodeEach(n, SourceGovernment, data, FromGovernment)
}

// FromGovernment converts one document. The document type is detected from
// the title when absent, and the agency from the URL.
func FromGovernment(d GovernmentDocument) (types.PaperRecord, bool) {
	docType := strings.TrimSpace(d.DocumentType)
	if docType == "" {
		docType = DetectDocumentType(d.Title)
	}
	agency := strings.TrimSpace(d.Agency)
	if agency == "" && d.URL != "" {
		agency = ExtractAgency(d.URL)
	}
	lang := d.Language
	if lang == "" {
		lang = types.DefaultLanguage
	}
	rec := types.PaperRecord{
		Title:    strings.TrimSpace(d.Title),
		Abstract: strings.TrimSpace(d.Abstract),
		Year:     ExtractYear(d.Year.Value, d.PublishedDate),
		Identifiers: types.Identifiers{
			URL:         strings.TrimSpace(d.URL),
			SourceTitle: d.Title,
		},
		Source:          GovernmentSource(agency, d.Country, d.Organization),
		Language:        lang,
		PublicationType: docType,
		Venue:           agency,
		PublishedDate:   strings.TrimSpace(d.PublishedDate),
	}
	return rec, rec.HasIdentity()
}

// GovernmentSource joins agency and country (or organization) with " - ",
// defaulting to "Government Document".
func GovernmentSource(agency, country, organization string) string {
	var parts []string
	if agency != "" {
		parts = append(parts, agency)
	}
	switch {
	case country != "":
		parts = append(parts, country)
	case organization != "":
		parts = append(parts, organization)
	}
	if len(parts) == 0 {
		return SourceGovernment
	}
	return strings.Join(parts, " - ")
}

// documentTypes is checked in order; the first matching pattern wins.
// Public comment sits before regulation so comment notices are not
// classified as regulations.
var documentTypes = []struct {
	pattern *regexp.Regexp
	docType string
}{
	{regexp.MustCompile(`executive order`), "Executive Order"},
	{regexp.MustCompile(`presidential\s+(action|memorandum|directive)`), "Presidential Document"},
	{regexp.MustCompile(`public\s+comment`), "Public Comment"},
	{regexp.MustCompile(`(annual|quarterly|monthly)\s+report`), "Report"},
	{regexp.MustCompile(`white paper`), "White Paper"},
	{regexp.MustCompile(`policy\s+(brief|paper|statement)`), "Policy Paper"},
	{regexp.MustCompile(`regulation`), "Regulation"},
	{regexp.MustCompile(`bill|act\s+of`), "Legislation"},
	{regexp.MustCompile(`hearing|testimony`), "Hearing"},
	{regexp.MustCompile(`guidelines?`), "Guidelines"},
	{regexp.MustCompile(`strategy|roadmap`), "Strategic Document"},
	{regexp.MustCompile(`budget`), "Budget Document"},
}

// DetectDocumentType classifies a government document by its title.
func DetectDocumentType(title string) string {
	t := strings.ToLower(title)
	for _, dt := range documentTypes {
		if dt.pattern.MatchString(t) {
			return dt.docType
		}
	}
	return SourceGovernment
}

// agencyHosts maps host suffixes to agency names.
var agencyHosts = []struct {
	host   string
	agency string
}{
	{"whitehouse.gov", "White House"},
	{"fda.gov", "FDA"},
	{"cdc.gov", "CDC"},
	{"nih.gov", "NIH"},
	{"nsf.gov", "NSF"},
	{"nasa.gov", "NASA"},
	{"doe.gov", "Department of Energy"},
	{"defense.gov", "Department of Defense"},
	{"state.gov", "Department of State"},
	{"mhlw.go.jp", "MHLW"},
	{"mext.go.jp", "MEXT"},
	{"meti.go.jp", "METI"},
	{"gov.uk", "UK Government"},
	{"europa.eu", "European Union"},
	{"who.int", "WHO"},
}

// ExtractAgency names the issuing agency of a document URL. Unknown hosts
// yield their first label upper-cased.
func ExtractAgency(rawURL string) string {
	lower := strings.ToLower(rawURL)
	for _, a := range agencyHosts {
		if strings.Contains(lower, a.host) {
			return a.agency
		}
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return "Government Agency"
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	return strings.ToUpper(strings.Split(host, ".")[0])
}

// GovernmentDocuments converts already-decoded documents, skipping those
// without identity.
func (n *Normalizer) GovernmentDocuments(ds []GovernmentDocument) []types.PaperRecord {
	return convertEach(n, SourceGovernment, ds, FromGovernment)
}
