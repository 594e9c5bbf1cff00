// Package dupe detects candidate duplicate studies within an import
// batch and against a project's existing studies.
package dupe

import "github.com/seibert-lab/cura/internal/study"

// Resolution is the adjudication state of one candidate pair.
type Resolution string

const (
	Unresolved   Resolution = "unresolved"
	Duplicate    Resolution = "duplicate"
	NotDuplicate Resolution = "not-duplicate"
)

// Terminal reports whether the resolution is final for its pair.
func (r Resolution) Terminal() bool {
	return r == Duplicate || r == NotDuplicate
}

// MatchBasis records how a candidate was matched.
type MatchBasis string

const (
	BasisDOI   MatchBasis = "doi"
	BasisPMID  MatchBasis = "pmid"
	BasisTitle MatchBasis = "title" // normalized titles equal
	BasisFuzzy MatchBasis = "fuzzy" // similarity score over threshold
)

// Located is a stub together with its pipeline position.
type Located struct {
	Stub        study.Stub
	ColumnIndex int
	StudyIndex  int
}

// Candidate is one possible duplicate of an imported stub.
type Candidate struct {
	Stub        study.Stub `json:"stub"`
	ColumnIndex int        `json:"column_index"`
	StudyIndex  int        `json:"study_index"`
	MatchedBy   MatchBasis `json:"matched_by"`
	Score       float64    `json:"score"`
	Resolution  Resolution `json:"resolution"`
}

// Case relates one freshly imported stub to the set of studies it may
// duplicate. The case ID equals the imported stub's ID, which is
// unique within a project.
type Case struct {
	ID          string      `json:"id"`
	Stub        study.Stub  `json:"stub"`
	ColumnIndex int         `json:"column_index"`
	StudyIndex  int         `json:"study_index"`
	Candidates  []Candidate `json:"candidates"`
}

// Resolved reports whether every candidate has a terminal resolution.
// This is derived state, never set directly; a case with zero
// candidates is trivially resolved.
func (c Case) Resolved() bool {
	for _, cand := range c.Candidates {
		if !cand.Resolution.Terminal() {
			return false
		}
	}
	return true
}

// MarkedDuplicate reports whether any candidate was adjudicated as an
// actual duplicate of the imported stub.
func (c Case) MarkedDuplicate() bool {
	for _, cand := range c.Candidates {
		if cand.Resolution == Duplicate {
			return true
		}
	}
	return false
}

// Pending returns the number of candidates still awaiting adjudication.
func (c Case) Pending() int {
	n := 0
	for _, cand := range c.Candidates {
		if !cand.Resolution.Terminal() {
			n++
		}
	}
	return n
}
