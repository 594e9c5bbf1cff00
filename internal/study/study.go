// Package study defines the core domain types for curated studies.
package study

import (
	"errors"
	"strings"
)

// Source identifies where an import record came from.
type Source string

const (
	SourceRemoteSearch Source = "remote-search"
	SourceFileImport   Source = "file-import"
	SourceManual       Source = "manual"
	SourcePubMed       Source = "pubmed"
)

// ExclusionDuplicate is the reserved exclusion tag applied when a stub
// is adjudicated as a duplicate during promotion.
const ExclusionDuplicate = "duplicate"

// ErrNoIdentity is returned when a stub has neither a title nor an
// external identifier to identify it by.
var ErrNoIdentity = errors.New("stub has no title, DOI, or PMID")

// Stub is the canonical, source-agnostic representation of one imported
// study awaiting curation. Stubs are owned by the curation pipeline
// until promotion, at which point they become Study entities.
type Stub struct {
	// Identity
	ID string `json:"id"` // Stable identifier, unique within a project

	// Metadata
	Title   string   `json:"title"`
	Authors []Author `json:"authors,omitempty"`
	Journal string   `json:"journal,omitempty"`
	Year    int      `json:"year,omitempty"`

	// External identifiers (primary deduplication keys)
	DOI  string `json:"doi,omitempty"`
	PMID string `json:"pmid,omitempty"`

	// Import tracking
	Source Source `json:"source"`

	// Curation state
	ExclusionTag string `json:"exclusion_tag,omitempty"`
	Note         string `json:"note,omitempty"`
}

// Validate checks the stub identity invariant: at least one of title,
// DOI, or PMID must be non-empty.
func (s Stub) Validate() error {
	if strings.TrimSpace(s.Title) == "" && s.DOI == "" && s.PMID == "" {
		return ErrNoIdentity
	}
	return nil
}

// HasIdentifier reports whether the stub carries an external identifier.
func (s Stub) HasIdentifier() bool {
	return s.DOI != "" || s.PMID != ""
}

// Study is the editable entity a stub becomes once it leaves curation.
// It is decoupled from the pipeline: no back-reference to columns.
type Study struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Authors     []Author `json:"authors,omitempty"`
	Journal     string   `json:"journal,omitempty"`
	Year        int      `json:"year,omitempty"`
	DOI         string   `json:"doi,omitempty"`
	PMID        string   `json:"pmid,omitempty"`
	Description string   `json:"description,omitempty"`
	Analyses    []Analysis `json:"analyses,omitempty"`
}

// Analysis is a named set of reported coordinates within a study.
type Analysis struct {
	Name     string  `json:"name"`
	Subjects int     `json:"subjects,omitempty"`
	Points   []Point `json:"points,omitempty"`
}

// Point is a stereotactic coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// FromStub converts a promoted stub into a Study entity. The stub's ID
// is carried over so ledger and pipeline history remain traceable.
func FromStub(s Stub) Study {
	return Study{
		ID:      s.ID,
		Title:   s.Title,
		Authors: s.Authors,
		Journal: s.Journal,
		Year:    s.Year,
		DOI:     s.DOI,
		PMID:    s.PMID,
	}
}
