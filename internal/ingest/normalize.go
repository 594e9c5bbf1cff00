// Package ingest converts heterogeneous import records into canonical
// study stubs: parsed Sleuth bibliography entries, PubMed search hits,
// manual form submissions, and uploaded PDFs.
package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seibert-lab/cura/internal/study"
)

// Normalizer converts source-specific records to canonical stubs.
// Normalization is pure aside from ID assignment; inject NewID for
// deterministic output in tests.
type Normalizer struct {
	NewID  func() string
	logger *zap.Logger
}

// NewNormalizer creates a Normalizer with UUID identifiers.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{
		NewID:  uuid.NewString,
		logger: logger,
	}
}

// ManualEntry is a study entered through the manual form.
type ManualEntry struct {
	Title   string `json:"title"`
	Authors string `json:"authors"` // Display string, e.g. "Smith J, Jones K"
	Journal string `json:"journal"`
	Year    int    `json:"year"`
	DOI     string `json:"doi"`
	PMID    string `json:"pmid"`
	Note    string `json:"note"`
}

// FromSleuth converts a parsed Sleuth bibliography entry to a stub.
func (n *Normalizer) FromSleuth(e SleuthEntry) (study.Stub, error) {
	authors, year := ParseAuthorYear(e.AuthorYear)

	s := study.Stub{
		ID:      n.NewID(),
		Title:   strings.TrimSpace(e.AuthorYear),
		Authors: authors,
		Year:    year,
		DOI:     e.DOI,
		PMID:    e.PMID,
		Source:  study.SourceFileImport,
	}
	if e.AnalysisName != "" {
		s.Note = e.AnalysisName
	}

	if err := s.Validate(); err != nil {
		return study.Stub{}, &RecordError{Source: string(study.SourceFileImport), Reason: err.Error()}
	}
	return s, nil
}

// FromPubMed converts a PubMed search hit to a stub.
func (n *Normalizer) FromPubMed(a PubMedArticle) (study.Stub, error) {
	s := study.Stub{
		ID:      n.NewID(),
		Title:   strings.TrimSpace(a.Title),
		Authors: mapPubMedAuthors(a.Authors),
		Journal: a.Journal,
		Year:    a.Year(),
		DOI:     a.DOI,
		PMID:    a.PMID,
		Source:  study.SourcePubMed,
	}

	if err := s.Validate(); err != nil {
		return study.Stub{}, &RecordError{Source: string(study.SourcePubMed), Reason: err.Error()}
	}
	return s, nil
}

// FromManual converts a manual form submission to a stub.
func (n *Normalizer) FromManual(m ManualEntry) (study.Stub, error) {
	s := study.Stub{
		ID:      n.NewID(),
		Title:   strings.TrimSpace(m.Title),
		Authors: splitAuthorList(m.Authors),
		Journal: m.Journal,
		Year:    m.Year,
		DOI:     m.DOI,
		PMID:    m.PMID,
		Source:  study.SourceManual,
		Note:    m.Note,
	}

	if err := s.Validate(); err != nil {
		return study.Stub{}, &RecordError{Source: string(study.SourceManual), Reason: err.Error()}
	}
	return s, nil
}

// BatchResult collects the outcome of normalizing one import batch.
// Partial success is the norm: malformed records are reported and
// skipped, everything else goes through.
type BatchResult struct {
	Stubs  []study.Stub
	Errors []error
}

// Skipped returns the number of records dropped as malformed.
func (r BatchResult) Skipped() int { return len(r.Errors) }

// NormalizeSleuthBatch normalizes every entry of a parsed Sleuth file.
func (n *Normalizer) NormalizeSleuthBatch(entries []SleuthEntry) BatchResult {
	var res BatchResult
	for i, e := range entries {
		s, err := n.FromSleuth(e)
		if err != nil {
			if re, ok := err.(*RecordError); ok {
				re.Index = i
			}
			res.Errors = append(res.Errors, err)
			continue
		}
		res.Stubs = append(res.Stubs, s)
	}
	n.logger.Debug("normalized sleuth batch",
		zap.Int("stubs", len(res.Stubs)),
		zap.Int("skipped", len(res.Errors)))
	return res
}

// NormalizePubMedBatch normalizes a page of PubMed search hits.
func (n *Normalizer) NormalizePubMedBatch(articles []PubMedArticle) BatchResult {
	var res BatchResult
	for i, a := range articles {
		s, err := n.FromPubMed(a)
		if err != nil {
			if re, ok := err.(*RecordError); ok {
				re.Index = i
			}
			res.Errors = append(res.Errors, err)
			continue
		}
		res.Stubs = append(res.Stubs, s)
	}
	n.logger.Debug("normalized pubmed batch",
		zap.Int("stubs", len(res.Stubs)),
		zap.Int("skipped", len(res.Errors)))
	return res
}

// yearPattern matches a plausible publication year.
var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// ParseAuthorYear splits a Sleuth "Author, Year" string like
// "Smith et al., 2019" or "Garcia & Lee, 2004" into authors and year.
// Unparseable parts default to empty rather than failing.
func ParseAuthorYear(s string) ([]study.Author, int) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, 0
	}

	year := 0
	if m := yearPattern.FindString(s); m != "" {
		fmt.Sscanf(m, "%d", &year)
	}

	// Authors are everything before the year (or the whole string).
	namePart := s
	if idx := yearPattern.FindStringIndex(s); idx != nil {
		namePart = s[:idx[0]]
	}
	namePart = strings.TrimRight(strings.TrimSpace(namePart), ",")
	namePart = strings.TrimSuffix(namePart, "et al.")
	namePart = strings.TrimSuffix(namePart, "et al")

	return splitAuthorList(namePart), year
}

// splitAuthorList splits a display string of authors on the usual
// separators and derives first/last names for each.
func splitAuthorList(s string) []study.Author {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	s = strings.ReplaceAll(s, " and ", ";")
	s = strings.ReplaceAll(s, "&", ";")
	// Commas separate authors only when not used as "Last, F." pairs;
	// Sleuth exports use them as separators, so treat them as such.
	s = strings.ReplaceAll(s, ",", ";")

	var authors []study.Author
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" || strings.EqualFold(part, "et al.") || strings.EqualFold(part, "et al") {
			continue
		}
		first, last := splitName(part)
		authors = append(authors, study.Author{First: first, Last: last})
	}
	return authors
}

// nameSuffixes are kept attached to the family name when splitting.
var nameSuffixes = map[string]bool{
	"jr": true, "jr.": true, "sr": true, "sr.": true,
	"ii": true, "iii": true, "iv": true,
}

// splitName splits a display name into first and last name. Single
// tokens are treated as a bare surname, which is what Sleuth author
// strings usually carry.
func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	}

	lastPart := strings.ToLower(parts[len(parts)-1])
	if nameSuffixes[lastPart] && len(parts) > 2 {
		last = parts[len(parts)-2] + " " + parts[len(parts)-1]
		first = strings.Join(parts[:len(parts)-2], " ")
		return first, last
	}

	last = parts[len(parts)-1]
	first = strings.Join(parts[:len(parts)-1], " ")
	return first, last
}
