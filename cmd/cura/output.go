package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/seibert-lab/cura/internal/study"
)

// Title truncation lengths by context.
const (
	ImportTitleMaxLen = 60 // Used in import command output
	ListTitleMaxLen   = 50 // Used in board and case listings
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ImportResponse summarizes one import batch.
type ImportResponse struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Cases    int      `json:"duplicate_cases"`
	Errors   []string `json:"errors,omitempty"`
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatStubLine formats one stub for listings.
func formatStubLine(s study.Stub) string {
	parts := []string{truncateString(s.Title, ListTitleMaxLen)}
	if len(s.Authors) > 0 {
		parts = append(parts, study.FormatAuthors(s.Authors, 3))
	}
	if s.Year != 0 {
		parts = append(parts, fmt.Sprintf("(%d)", s.Year))
	}
	if s.DOI != "" {
		parts = append(parts, s.DOI)
	}
	return strings.Join(parts, " ")
}
