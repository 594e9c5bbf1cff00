package pipeline

import (
	"fmt"

	"github.com/seibert-lab/cura/internal/dupe"
	"github.com/seibert-lab/cura/internal/study"
)

// PromoteReport summarizes one promotion run.
type PromoteReport struct {
	Excluded int `json:"excluded"` // moved to the duplicate-exclusion column
	Advanced int `json:"advanced"` // moved to the next workflow column
	Skipped  int `json:"skipped"`  // cases still awaiting adjudication
}

// PromoteResolvedDuplicates applies adjudicated duplicate cases to the
// board. For every resolved case whose imported stub was marked a
// duplicate, the stub moves to the exclusion column and is tagged; for
// every case resolved as not-duplicate (or with no candidates), the
// stub advances to the next workflow column. Unresolved cases are
// skipped. This is the single integration point between the matcher,
// the ledger, and pipeline state.
//
// All referenced stubs are validated before any move; on error the
// pipeline is unchanged.
func (p *Pipeline) PromoteResolvedDuplicates(cases []dupe.Case) (PromoteReport, error) {
	var report PromoteReport

	type move struct {
		stubID   string
		from, to int
		exclude  bool
	}
	var moves []move

	for _, c := range cases {
		if !c.Resolved() {
			report.Skipped++
			continue
		}

		from, ok := p.placement[c.Stub.ID]
		if !ok {
			return PromoteReport{}, fmt.Errorf("%w: %s", ErrStubNotFound, c.Stub.ID)
		}

		if c.MarkedDuplicate() {
			moves = append(moves, move{stubID: c.Stub.ID, from: from, to: p.exclusion, exclude: true})
			continue
		}
		moves = append(moves, move{stubID: c.Stub.ID, from: from, to: p.nextWorkflowColumn(from)})
	}

	for _, m := range moves {
		if err := p.MoveStub(m.stubID, m.from, m.to); err != nil {
			// Unreachable after validation above; fail loudly if it is not.
			return PromoteReport{}, err
		}
		if m.exclude {
			if err := p.SetExclusionTag(m.stubID, study.ExclusionDuplicate); err != nil {
				return PromoteReport{}, err
			}
			report.Excluded++
			if p.hub != nil {
				p.hub.Info("stub.excluded", fmt.Sprintf("%s excluded as duplicate", stubLabel(p.stubs[m.stubID])))
			}
		} else {
			report.Advanced++
		}
	}

	return report, nil
}

// nextWorkflowColumn returns the column a cleared stub advances to:
// the following column, skipping the exclusion column, and staying put
// at the end of the workflow.
func (p *Pipeline) nextWorkflowColumn(from int) int {
	next := from + 1
	if next == p.exclusion {
		next++
	}
	if next >= len(p.columns) {
		return from
	}
	return next
}

// Summary reports per-column stub counts.
func (p *Pipeline) Summary() map[string]int {
	out := make(map[string]int, len(p.columns))
	for _, c := range p.columns {
		out[c.name] = len(c.ids)
	}
	return out
}

func stubLabel(s study.Stub) string {
	if s.Title != "" {
		return s.Title
	}
	if s.DOI != "" {
		return s.DOI
	}
	return s.ID
}
