package study

import "strings"

// Author represents a study author.
type Author struct {
	First string `json:"first,omitempty"` // First/given name(s)
	Last  string `json:"last"`            // Last/family name
}

// Display formats the author as "First Last".
func (a Author) Display() string {
	if a.First != "" {
		return a.First + " " + a.Last
	}
	return a.Last
}

// Surnames returns the lowercase family names of an author list.
// Used by the duplicate matcher for fuzzy comparison.
func Surnames(authors []Author) []string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		if a.Last == "" {
			continue
		}
		names = append(names, strings.ToLower(a.Last))
	}
	return names
}

// FormatAuthors formats an author list with "et al." past maxCount.
func FormatAuthors(authors []Author, maxCount int) string {
	if len(authors) == 0 {
		return ""
	}
	var names []string
	for i, a := range authors {
		if i >= maxCount {
			names = append(names, "et al.")
			break
		}
		names = append(names, a.Display())
	}
	return strings.Join(names, ", ")
}
