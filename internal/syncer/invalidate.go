package syncer

// Invalidations tracks which cached collections are stale. It is
// shared across the coordinators of one session so a mutation through
// one entity kind can invalidate related collections.
type Invalidations struct {
	stale map[string]bool
}

// NewInvalidations returns an empty staleness tracker.
func NewInvalidations() *Invalidations {
	return &Invalidations{stale: make(map[string]bool)}
}

// MarkStale records that a collection's cached listing no longer
// reflects the server.
func (v *Invalidations) MarkStale(collection string) {
	v.stale[collection] = true
}

// Stale reports whether a collection must be re-fetched before its
// next read.
func (v *Invalidations) Stale(collection string) bool {
	return v.stale[collection]
}

// Clear resets a collection after a fresh fetch.
func (v *Invalidations) Clear(collection string) {
	delete(v.stale, collection)
}
