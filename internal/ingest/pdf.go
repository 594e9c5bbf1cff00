package ingest

import (
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/seibert-lab/cura/internal/study"
)

// DOI pattern: 10.XXXX/... where XXXX is 4+ digits.
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// pmidPattern matches an explicit "PMID: 12345678" mention.
var pmidPattern = regexp.MustCompile(`(?i)PMID:?\s*(\d{4,10})`)

// FromPDF builds a stub from an uploaded PDF by scanning the first
// pages for a DOI or PMID and taking the first substantial line as a
// title guess. Returns a malformed-record error when nothing usable
// is found.
func (n *Normalizer) FromPDF(filePath string) (study.Stub, error) {
	text, err := extractPDFText(filePath, 3)
	if err != nil {
		return study.Stub{}, &RecordError{Source: filePath, Reason: err.Error()}
	}

	s := study.Stub{
		ID:     n.NewID(),
		Title:  guessTitle(text),
		DOI:    findDOI(text),
		PMID:   findPMID(text),
		Source: study.SourceFileImport,
	}

	if err := s.Validate(); err != nil {
		return study.Stub{}, &RecordError{Source: filePath, Reason: err.Error()}
	}
	return s, nil
}

// extractPDFText extracts plain text from the first maxPages pages.
func extractPDFText(filePath string, maxPages int) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if maxPages <= 0 || maxPages > r.NumPage() {
		maxPages = r.NumPage()
	}

	var builder strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// findDOI finds the first valid DOI in text.
func findDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:)")
		if isValidDOI(match) {
			return match
		}
	}
	return ""
}

// findPMID finds an explicit PMID mention in text.
func findPMID(text string) string {
	m := pmidPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// isValidDOI performs basic validation on a DOI.
func isValidDOI(doi string) bool {
	if len(doi) < 10 {
		return false
	}
	if !strings.HasPrefix(doi, "10.") {
		return false
	}
	slashIdx := strings.Index(doi, "/")
	return slashIdx != -1 && slashIdx < len(doi)-1
}

// guessTitle returns the first substantial line of extracted text,
// skipping likely header/footer lines.
func guessTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 20 && !isHeaderLine(line) {
			return line
		}
	}
	return ""
}

// isHeaderLine checks if a line is likely a journal header or footer.
func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	if strings.Contains(lower, "journal") {
		return true
	}
	if strings.Contains(lower, "volume") && strings.Contains(lower, "issue") {
		return true
	}
	if strings.Contains(lower, "copyright") {
		return true
	}
	if strings.Contains(lower, "article") && strings.Contains(lower, "published") {
		return true
	}
	return false
}
