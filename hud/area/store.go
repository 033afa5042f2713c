package area

import (
	"maps"
	"slices"
)

// Store owns the area records and the between-sync mutation tracking: a
// handle-ordered, deduplicated dirty set and an equally shaped removal
// queue. It issues handles strictly increasing from 1 and never reuses one.
//
// The Store is plain bookkeeping with no GPU knowledge; the hud's sync pass
// drains TakeRemovals and TakeDirty once per frame and reconciles the
// instance buffers from them.
type Store[S, F comparable] struct {
	records map[Handle]*Record[S, F]
	nextID  uint32

	dirty    []Handle // sorted, each handle at most once
	removals []Handle // sorted, each handle at most once
}

// NewStore creates an empty Store. The first handle it issues is 1.
func NewStore[S, F comparable]() *Store[S, F] {
	return &Store[S, F]{
		records: make(map[Handle]*Record[S, F]),
		nextID:  1,
	}
}

// Add inserts a new area record, marks it dirty, and returns its handle.
//
// Parameters:
//   - a: the area to insert
//
// Returns:
//   - Handle: the newly assigned, strictly increasing handle
func (s *Store[S, F]) Add(a Area[S, F]) Handle {
	h := Handle(s.nextID)
	s.nextID++
	s.records[h] = &Record[S, F]{
		Area:  a,
		LastZ: a.Z,
		Slot:  NoSlot,
	}
	s.MarkDirty(h)
	return h
}

// Get returns the area for the handle, read-only by convention, with no
// side effect on the dirty set. Returns nil if the handle is unknown or
// already removed.
func (s *Store[S, F]) Get(h Handle) *Area[S, F] {
	rec, ok := s.records[h]
	if !ok {
		return nil
	}
	return &rec.Area
}

// Mut returns the area for mutation and unconditionally marks the handle
// dirty. The store cannot distinguish a read through this path from a
// write, so any Mut access schedules a resync. Returns nil if the handle is
// unknown or already removed.
//
// Parameters:
//   - h: the area's handle
//
// Returns:
//   - *Area: the mutable area record, or nil
func (s *Store[S, F]) Mut(h Handle) *Area[S, F] {
	rec, ok := s.records[h]
	if !ok {
		return nil
	}
	s.MarkDirty(h)
	return &rec.Area
}

// Record returns the full record including sync bookkeeping, or nil. The
// hud's sync pass uses this to read and patch slot assignments.
func (s *Store[S, F]) Record(h Handle) *Record[S, F] {
	return s.records[h]
}

// Remove queues the handle for removal. The record stays visible until the
// next sync pass applies the queue. Queueing the same handle twice has no
// additional effect; unknown handles are ignored.
//
// Parameters:
//   - h: the area's handle
func (s *Store[S, F]) Remove(h Handle) {
	if _, ok := s.records[h]; !ok {
		return
	}
	s.removals = insertSorted(s.removals, h)
}

// MarkDirty inserts the handle into the dirty set, keeping it sorted and
// deduplicated.
func (s *Store[S, F]) MarkDirty(h Handle) {
	s.dirty = insertSorted(s.dirty, h)
}

// TakeRemovals returns the queued removals in ascending handle order and
// resets the queue.
func (s *Store[S, F]) TakeRemovals() []Handle {
	out := s.removals
	s.removals = nil
	return out
}

// TakeDirty returns the dirty set in ascending handle order and resets it.
func (s *Store[S, F]) TakeDirty() []Handle {
	out := s.dirty
	s.dirty = nil
	return out
}

// Drop deletes the record outright. Called by the sync pass once a queued
// removal has been reconciled against the instance buffers.
func (s *Store[S, F]) Drop(h Handle) {
	delete(s.records, h)
}

// Len returns the number of live records, queued removals included.
func (s *Store[S, F]) Len() int {
	return len(s.records)
}

// Each calls fn for every record in ascending handle order. Ordered
// iteration keeps rebuild passes (text relayout in particular)
// deterministic from frame to frame.
func (s *Store[S, F]) Each(fn func(Handle, *Record[S, F])) {
	for _, h := range slices.Sorted(maps.Keys(s.records)) {
		fn(h, s.records[h])
	}
}

// Clear drops every record and all pending tracking. The handle counter is
// not reset: handles stay unique for the lifetime of the store.
func (s *Store[S, F]) Clear() {
	s.records = make(map[Handle]*Record[S, F])
	s.dirty = nil
	s.removals = nil
}

// insertSorted inserts h into the sorted slice unless already present.
func insertSorted(hs []Handle, h Handle) []Handle {
	i, found := slices.BinarySearch(hs, h)
	if found {
		return hs
	}
	return slices.Insert(hs, i, h)
}
