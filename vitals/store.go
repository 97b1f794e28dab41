package vitals

import "sync"

// Store holds the session's metric state: the scalar set written by the
// aggregator and the append-only render record log written by TrackRender.
//
// There is one scalar writer per aggregation cycle and any number of
// readers; the whole scalar set is always replaced as a single unit so a
// reader never observes a mix of pre- and post-cycle values.
//
// Store is safe for concurrent use. It carries no hidden package state;
// construct one per session and inject it.
type Store struct {
	mu      sync.RWMutex
	scalars Scalars
	renders []RenderRecord
}

// NewStore returns an empty Store. All scalars start unknown.
func NewStore() *Store { return &Store{} }

// MergeScalars replaces the full scalar set atomically. Render records are
// untouched. An unknown field in sc is an explicit reading ("this cycle
// could not resolve the metric"), not an omission.
func (s *Store) MergeScalars(sc Scalars) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scalars = sc
}

// AppendRender records one component render observation and returns the
// stored record with RenderTime rounded to two decimal places. Appending is
// synchronous and never fails; existing records are never reordered or
// removed.
func (s *Store) AppendRender(name string, renderTime float64) RenderRecord {
	rec := RenderRecord{Name: name, RenderTime: roundTo(renderTime, timeDecimals)}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renders = append(s.renders, rec)
	return rec
}

// Snapshot returns a consistent copy of the current state. The returned
// render slice is a copy; callers may retain it freely.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	renders := make([]RenderRecord, len(s.renders))
	copy(renders, s.renders)
	return Snapshot{Scalars: s.scalars, Renders: renders}
}

// RenderCount returns the number of render records appended so far.
func (s *Store) RenderCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.renders)
}
