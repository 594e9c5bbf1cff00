package pipeline

import (
	"fmt"

	"github.com/seibert-lab/cura/internal/notify"
	"github.com/seibert-lab/cura/internal/study"
)

// State is the serializable form of a pipeline, used to persist the
// board between invocations.
type State struct {
	Columns []ColumnView          `json:"columns"`
	Stubs   map[string]study.Stub `json:"stubs"`
}

// State snapshots the pipeline.
func (p *Pipeline) State() State {
	stubs := make(map[string]study.Stub, len(p.stubs))
	for id, s := range p.stubs {
		stubs[id] = s
	}
	return State{Columns: p.Columns(), Stubs: stubs}
}

// Restore rebuilds a pipeline from a persisted snapshot. Column order
// and stub placement are taken verbatim; the exactly-one-column
// invariant is re-checked on load.
func Restore(st State, hub *notify.Hub) (*Pipeline, error) {
	names := make([]string, len(st.Columns))
	for i, c := range st.Columns {
		names[i] = c.Name
	}
	p := New(names, hub)

	for ci, c := range st.Columns {
		for _, id := range c.StubIDs {
			s, ok := st.Stubs[id]
			if !ok {
				return nil, fmt.Errorf("restoring board: %w: %s", ErrStubNotFound, id)
			}
			if _, placed := p.placement[id]; placed {
				return nil, fmt.Errorf("restoring board: %w: %s", ErrDuplicateStubID, id)
			}
			p.stubs[id] = s
			p.columns[ci].ids = append(p.columns[ci].ids, id)
			p.placement[id] = ci
		}
	}
	return p, nil
}
