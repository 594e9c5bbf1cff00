// Package entity holds the authoritative editable copy of one
// remote-backed entity (study, annotation, project) and mediates local
// edits against the last confirmed server snapshot.
package entity

import (
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// ErrNotLoaded indicates an edit against a store that has never
// received a remote snapshot.
var ErrNotLoaded = errors.New("entity not loaded")

// Patch is a partial update with field-level replace semantics: a
// provided field fully replaces the prior value, omitted fields are
// untouched. Keys are the entity's JSON field names.
type Patch map[string]any

// Store tracks one entity instance: the last remote-confirmed snapshot,
// the local working copy, and a dirty flag recomputed from structural
// comparison after every mutation. It performs no network calls; that
// is the sync coordinator's job.
type Store[T any] struct {
	remote  *T
	local   *T
	edited  bool
	loading bool
	lastErr error
}

// NewStore returns an empty store awaiting its first snapshot.
func NewStore[T any]() *Store[T] {
	return &Store[T]{}
}

// Load sets both snapshots to the given remote state and clears the
// dirty flag. Any unsaved local edits are overwritten: callers must
// not invoke Load while Edited is true without explicit confirmation
// from the user.
func (s *Store[T]) Load(snapshot T) {
	remote := clone(snapshot)
	local := clone(snapshot)
	s.remote = &remote
	s.local = &local
	s.recompute()
}

// Loaded reports whether a snapshot has ever been received.
func (s *Store[T]) Loaded() bool { return s.remote != nil }

// Remote returns the last confirmed server snapshot.
func (s *Store[T]) Remote() (T, bool) {
	if s.remote == nil {
		var zero T
		return zero, false
	}
	return clone(*s.remote), true
}

// Local returns the current working copy.
func (s *Store[T]) Local() (T, bool) {
	if s.local == nil {
		var zero T
		return zero, false
	}
	return clone(*s.local), true
}

// Edited reports whether the working copy differs structurally from
// the remote snapshot. It is always derived, never set directly.
func (s *Store[T]) Edited() bool { return s.edited }

// ApplyLocalEdit merges a patch into the working copy and recomputes
// the dirty flag.
func (s *Store[T]) ApplyLocalEdit(patch Patch) error {
	if s.local == nil {
		return ErrNotLoaded
	}
	if len(patch) == 0 {
		return nil
	}

	merged, err := mergePatch(*s.local, patch)
	if err != nil {
		return fmt.Errorf("applying edit: %w", err)
	}
	s.local = &merged
	s.recompute()
	return nil
}

// MarkSaved replaces the remote snapshot after a successful persist
// and recomputes the dirty flag. If the server response differs from
// what was sent, edits against the new remote surface immediately.
func (s *Store[T]) MarkSaved(snapshot T) {
	remote := clone(snapshot)
	s.remote = &remote
	if s.local == nil {
		local := clone(snapshot)
		s.local = &local
	}
	s.recompute()
}

// DiscardLocalEdits resets the working copy to the remote snapshot.
func (s *Store[T]) DiscardLocalEdits() {
	if s.remote == nil {
		return
	}
	local := clone(*s.remote)
	s.local = &local
	s.recompute()
}

// BeginOp flags the start of a remote operation.
func (s *Store[T]) BeginOp() {
	s.loading = true
	s.lastErr = nil
}

// EndOp records the outcome of the most recent remote operation.
func (s *Store[T]) EndOp(err error) {
	s.loading = false
	s.lastErr = err
}

// Loading reports whether a remote operation is in flight.
func (s *Store[T]) Loading() bool { return s.loading }

// Err returns the failure of the most recent remote operation, if any.
func (s *Store[T]) Err() error { return s.lastErr }

// recompute derives the dirty flag from a structural comparison of the
// two snapshots.
func (s *Store[T]) recompute() {
	if s.remote == nil || s.local == nil {
		s.edited = false
		return
	}
	s.edited = fingerprint(*s.local) != fingerprint(*s.remote)
}

// fingerprint hashes the canonical JSON encoding of a snapshot. Map
// keys marshal in sorted order, so equal structures hash equally.
func fingerprint[T any](v T) [blake2b.Size256]byte {
	data, err := json.Marshal(v)
	if err != nil {
		// Entities are plain data; an unmarshalable one is a programming
		// error surfaced at development time.
		panic(fmt.Sprintf("entity: fingerprint: %v", err))
	}
	return blake2b.Sum256(data)
}

// mergePatch applies field-level replacement through the entity's JSON
// representation.
func mergePatch[T any](base T, patch Patch) (T, error) {
	var zero T

	raw, err := json.Marshal(base)
	if err != nil {
		return zero, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return zero, err
	}
	if m == nil {
		m = make(map[string]any)
	}
	for k, v := range patch {
		if v == nil {
			delete(m, k)
			continue
		}
		m[k] = v
	}

	merged, err := json.Marshal(m)
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(merged, &out); err != nil {
		return zero, err
	}
	return out, nil
}

// clone deep-copies a snapshot through its JSON encoding so callers
// never alias internal state.
func clone[T any](v T) T {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("entity: clone: %v", err))
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("entity: clone: %v", err))
	}
	return out
}
