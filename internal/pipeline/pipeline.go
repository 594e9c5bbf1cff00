// Package pipeline owns the ordered columns of the curation workflow
// and the placement of stubs within them. Column order is fixed at
// creation; curation only moves membership.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/seibert-lab/cura/internal/dupe"
	"github.com/seibert-lab/cura/internal/notify"
	"github.com/seibert-lab/cura/internal/study"
)

var (
	// ErrUnknownColumn indicates a column index out of range.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrStubNotFound indicates a stub absent from the named column.
	ErrStubNotFound = errors.New("stub not found")

	// ErrDuplicateStubID indicates an attempt to add a stub whose ID is
	// already placed in the pipeline.
	ErrDuplicateStubID = errors.New("stub id already present")
)

// ExclusionColumn is the fixed column that receives stubs adjudicated
// as duplicates.
const ExclusionColumn = "excluded: duplicate"

// DefaultColumns is the standard workflow. The exclusion column is
// always appended after these.
var DefaultColumns = []string{"search results", "screening", "eligibility", "included"}

type column struct {
	name string
	ids  []string
}

// ColumnView is a read-only snapshot of one column.
type ColumnView struct {
	Name    string   `json:"name"`
	StubIDs []string `json:"stub_ids"`
}

// Pipeline holds the columns and stubs of one project's curation
// phase. A stub ID appears in exactly one column at any time. All
// operations either apply fully or leave the pipeline unchanged.
type Pipeline struct {
	columns   []column
	stubs     map[string]study.Stub
	placement map[string]int // stub ID -> column index
	exclusion int            // index of the exclusion column
	hub       *notify.Hub
}

// New creates a pipeline with the given workflow columns, appending
// the duplicate-exclusion column if the names do not include it. With
// no names, DefaultColumns is used.
func New(names []string, hub *notify.Hub) *Pipeline {
	if len(names) == 0 {
		names = DefaultColumns
	}

	p := &Pipeline{
		stubs:     make(map[string]study.Stub),
		placement: make(map[string]int),
		exclusion: -1,
		hub:       hub,
	}
	for _, name := range names {
		if name == ExclusionColumn {
			p.exclusion = len(p.columns)
		}
		p.columns = append(p.columns, column{name: name})
	}
	if p.exclusion == -1 {
		p.exclusion = len(p.columns)
		p.columns = append(p.columns, column{name: ExclusionColumn})
	}
	return p
}

// Columns returns snapshots of all columns in fixed order.
func (p *Pipeline) Columns() []ColumnView {
	out := make([]ColumnView, len(p.columns))
	for i, c := range p.columns {
		out[i] = ColumnView{
			Name:    c.name,
			StubIDs: append([]string(nil), c.ids...),
		}
	}
	return out
}

// ExclusionIndex returns the index of the duplicate-exclusion column.
func (p *Pipeline) ExclusionIndex() int { return p.exclusion }

// Stub looks up a stub by ID.
func (p *Pipeline) Stub(id string) (study.Stub, bool) {
	s, ok := p.stubs[id]
	return s, ok
}

// ColumnOf returns the column index a stub currently occupies.
func (p *Pipeline) ColumnOf(id string) (int, bool) {
	idx, ok := p.placement[id]
	return idx, ok
}

// StubsIn returns the stubs of one column in placement order.
func (p *Pipeline) StubsIn(columnIndex int) ([]study.Stub, error) {
	if columnIndex < 0 || columnIndex >= len(p.columns) {
		return nil, fmt.Errorf("%w: index %d", ErrUnknownColumn, columnIndex)
	}
	c := p.columns[columnIndex]
	out := make([]study.Stub, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, p.stubs[id])
	}
	return out, nil
}

// Located returns the stubs of one column with their positions, the
// shape the duplicate matcher consumes.
func (p *Pipeline) Located(columnIndex int) ([]dupe.Located, error) {
	if columnIndex < 0 || columnIndex >= len(p.columns) {
		return nil, fmt.Errorf("%w: index %d", ErrUnknownColumn, columnIndex)
	}
	c := p.columns[columnIndex]
	out := make([]dupe.Located, 0, len(c.ids))
	for i, id := range c.ids {
		out = append(out, dupe.Located{Stub: p.stubs[id], ColumnIndex: columnIndex, StudyIndex: i})
	}
	return out, nil
}

// LocatedAll returns every placed stub with its position, column by
// column. Used as the matcher's existing-study reference set.
func (p *Pipeline) LocatedAll() []dupe.Located {
	var out []dupe.Located
	for ci, c := range p.columns {
		for si, id := range c.ids {
			out = append(out, dupe.Located{Stub: p.stubs[id], ColumnIndex: ci, StudyIndex: si})
		}
	}
	return out
}

// AddStubs appends stubs to a column. The batch is validated up front;
// on any error nothing is added.
func (p *Pipeline) AddStubs(columnIndex int, stubs []study.Stub) error {
	if columnIndex < 0 || columnIndex >= len(p.columns) {
		return fmt.Errorf("%w: index %d", ErrUnknownColumn, columnIndex)
	}
	seen := make(map[string]bool, len(stubs))
	for _, s := range stubs {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("stub %s: %w", s.ID, err)
		}
		if _, exists := p.stubs[s.ID]; exists || seen[s.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateStubID, s.ID)
		}
		seen[s.ID] = true
	}

	for _, s := range stubs {
		p.stubs[s.ID] = s
		p.columns[columnIndex].ids = append(p.columns[columnIndex].ids, s.ID)
		p.placement[s.ID] = columnIndex
	}
	return nil
}

// MoveStub moves a stub between columns in one observable step: it
// disappears from fromColumn and appears at the end of toColumn, never
// both or neither.
func (p *Pipeline) MoveStub(stubID string, fromColumn, toColumn int) error {
	if fromColumn < 0 || fromColumn >= len(p.columns) {
		return fmt.Errorf("%w: index %d", ErrUnknownColumn, fromColumn)
	}
	if toColumn < 0 || toColumn >= len(p.columns) {
		return fmt.Errorf("%w: index %d", ErrUnknownColumn, toColumn)
	}
	if p.placement[stubID] != fromColumn || !p.contains(fromColumn, stubID) {
		return fmt.Errorf("%w: %s in column %d", ErrStubNotFound, stubID, fromColumn)
	}
	if fromColumn == toColumn {
		return nil
	}

	p.removeFrom(fromColumn, stubID)
	p.columns[toColumn].ids = append(p.columns[toColumn].ids, stubID)
	p.placement[stubID] = toColumn
	return nil
}

// SetExclusionTag replaces the exclusion tag of a placed stub.
func (p *Pipeline) SetExclusionTag(stubID, tag string) error {
	s, ok := p.stubs[stubID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrStubNotFound, stubID)
	}
	s.ExclusionTag = tag
	p.stubs[stubID] = s
	return nil
}

func (p *Pipeline) contains(columnIndex int, stubID string) bool {
	for _, id := range p.columns[columnIndex].ids {
		if id == stubID {
			return true
		}
	}
	return false
}

func (p *Pipeline) removeFrom(columnIndex int, stubID string) {
	ids := p.columns[columnIndex].ids
	for i, id := range ids {
		if id == stubID {
			p.columns[columnIndex].ids = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}
