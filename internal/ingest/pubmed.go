package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/seibert-lab/cura/internal/study"
)

// PubMedArticle is the esummary-shaped metadata carried by a remote
// search hit.
type PubMedArticle struct {
	PMID    string         `json:"uid"`
	Title   string         `json:"title"`
	Authors []PubMedAuthor `json:"authors"`
	Journal string         `json:"fulljournalname"`
	PubDate string         `json:"pubdate"` // e.g. "2019 Mar 14"
	DOI     string         `json:"elocationid"`
}

// PubMedAuthor is an author entry in an esummary record.
type PubMedAuthor struct {
	Name string `json:"name"` // "Smith JA" format
}

// Year extracts the publication year from the pubdate string.
func (a PubMedArticle) Year() int {
	fields := strings.Fields(a.PubDate)
	if len(fields) == 0 {
		return 0
	}
	y, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return y
}

// ParsePubMedSummaries parses a JSON array of esummary records, the
// shape saved from a remote search. A top-level parse failure fails
// the whole file; per-record problems surface later in normalization.
func ParsePubMedSummaries(data []byte) ([]PubMedArticle, error) {
	var articles []PubMedArticle
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("parsing pubmed summaries: %w", err)
	}
	for i := range articles {
		articles[i].DOI = cleanELocationDOI(articles[i].DOI)
	}
	return articles, nil
}

// cleanELocationDOI strips the "doi: " prefix esummary uses in the
// elocationid field.
func cleanELocationDOI(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "doi:") {
		return strings.TrimSpace(s[4:])
	}
	return s
}

// mapPubMedAuthors converts "Smith JA"-style names to Author values.
func mapPubMedAuthors(authors []PubMedAuthor) []study.Author {
	out := make([]study.Author, 0, len(authors))
	for _, a := range authors {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		// esummary names are "Last Initials"; everything before the
		// final token is the family name.
		parts := strings.Fields(name)
		if len(parts) == 1 {
			out = append(out, study.Author{Last: parts[0]})
			continue
		}
		out = append(out, study.Author{
			First: parts[len(parts)-1],
			Last:  strings.Join(parts[:len(parts)-1], " "),
		})
	}
	return out
}
