// Package ledger tracks the adjudication of duplicate cases. Each
// candidate pair is a small state machine: unresolved until a human
// (or the bulk dismissal) marks it duplicate or not-duplicate, both
// terminal. Case-level resolution is derived, never set directly.
package ledger

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/seibert-lab/cura/internal/dupe"
	"github.com/seibert-lab/cura/internal/notify"
)

// ErrUnknownCase indicates a case ID or candidate index that does not
// resolve to a tracked pair. The operation is aborted with no mutation.
var ErrUnknownCase = errors.New("unknown duplicate case")

// ErrAlreadyResolved indicates an attempt to flip a candidate from one
// terminal resolution to the other. Re-invoking with the same terminal
// value is a no-op, not an error.
var ErrAlreadyResolved = errors.New("candidate already has a terminal resolution")

// Ledger holds the duplicate cases of one import batch and records
// every adjudication decision exactly once.
type Ledger struct {
	cases  map[string]*dupe.Case
	order  []string
	hub    *notify.Hub
	logger *zap.Logger
}

// New builds a ledger over a matcher result. Cases are copied; the
// caller's slice is not retained.
func New(cases []dupe.Case, hub *notify.Hub, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Ledger{
		cases:  make(map[string]*dupe.Case, len(cases)),
		hub:    hub,
		logger: logger,
	}
	for _, c := range cases {
		copied := c
		copied.Candidates = append([]dupe.Candidate(nil), c.Candidates...)
		l.cases[c.ID] = &copied
		l.order = append(l.order, c.ID)
	}
	return l
}

// Case returns a snapshot of one tracked case.
func (l *Ledger) Case(id string) (dupe.Case, bool) {
	c, ok := l.cases[id]
	if !ok {
		return dupe.Case{}, false
	}
	return snapshot(c), true
}

// Cases returns snapshots of all tracked cases in matcher order.
func (l *Ledger) Cases() []dupe.Case {
	out := make([]dupe.Case, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, snapshot(l.cases[id]))
	}
	return out
}

// Pending returns the number of cases not yet fully resolved.
func (l *Ledger) Pending() int {
	n := 0
	for _, c := range l.cases {
		if !c.Resolved() {
			n++
		}
	}
	return n
}

// MarkDuplicate records that the imported stub duplicates the given
// candidate. Idempotent for repeated duplicate markings.
func (l *Ledger) MarkDuplicate(caseID string, candidateIndex int) error {
	return l.resolve(caseID, candidateIndex, dupe.Duplicate)
}

// MarkNotDuplicate records that the candidate is a false positive.
// Idempotent for repeated not-duplicate markings.
func (l *Ledger) MarkNotDuplicate(caseID string, candidateIndex int) error {
	return l.resolve(caseID, candidateIndex, dupe.NotDuplicate)
}

// AutoResolveAllNotDuplicate marks every pending candidate of a case
// as not-duplicate in one step. Used when a user dismisses the whole
// case as a false positive.
func (l *Ledger) AutoResolveAllNotDuplicate(caseID string) error {
	c, ok := l.cases[caseID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCase, caseID)
	}

	changed := false
	for i := range c.Candidates {
		if c.Candidates[i].Resolution.Terminal() {
			continue
		}
		c.Candidates[i].Resolution = dupe.NotDuplicate
		changed = true
	}

	if changed && c.Resolved() {
		l.announceResolved(c)
	}
	return nil
}

// resolve applies one terminal resolution to a candidate pair.
func (l *Ledger) resolve(caseID string, candidateIndex int, r dupe.Resolution) error {
	c, ok := l.cases[caseID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCase, caseID)
	}
	if candidateIndex < 0 || candidateIndex >= len(c.Candidates) {
		return fmt.Errorf("%w: %s candidate %d", ErrUnknownCase, caseID, candidateIndex)
	}

	current := c.Candidates[candidateIndex].Resolution
	if current.Terminal() {
		if current == r {
			return nil // Re-invocation with the same terminal value
		}
		return fmt.Errorf("%w: %s candidate %d is %s", ErrAlreadyResolved, caseID, candidateIndex, current)
	}

	c.Candidates[candidateIndex].Resolution = r
	l.logger.Debug("candidate resolved",
		zap.String("case", caseID),
		zap.Int("candidate", candidateIndex),
		zap.String("resolution", string(r)))

	// The case transitions to resolved the instant its last pending
	// candidate becomes terminal.
	if c.Resolved() {
		l.announceResolved(c)
	}
	return nil
}

func (l *Ledger) announceResolved(c *dupe.Case) {
	if l.hub == nil {
		return
	}
	l.hub.Info("duplicate.resolved", fmt.Sprintf("duplicate case for %q resolved", displayName(c)))
}

func displayName(c *dupe.Case) string {
	if c.Stub.Title != "" {
		return c.Stub.Title
	}
	if c.Stub.DOI != "" {
		return c.Stub.DOI
	}
	return c.Stub.ID
}

func snapshot(c *dupe.Case) dupe.Case {
	out := *c
	out.Candidates = append([]dupe.Candidate(nil), c.Candidates...)
	return out
}
