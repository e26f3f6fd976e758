// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package combinator

import "fmt"

// SourceID identifies a source slot. A slot index is reused once its
// source is removed, so the generation tells a stale id apart from the
// id of the source now occupying the slot. The zero value never names a
// source.
type SourceID struct {
	Index      uint32
	Generation uint32
}

// String returns the id as "index.generation".
func (id SourceID) String() string {
	return fmt.Sprintf("%d.%d", id.Index, id.Generation)
}

type arenaEntry[T comparable] struct {
	generation uint32
	slot       *sourceSlot[T]
}

// arena owns every source slot.
type arena[T comparable] struct {
	entries []arenaEntry[T]
	free    []uint32
}

func (a *arena[T]) alloc() (SourceID, *sourceSlot[T]) {
	slot := newSourceSlot[T]()
	if n := len(a.free); n > 0 {
		index := a.free[n-1]
		a.free = a.free[:n-1]
		entry := &a.entries[index]
		entry.generation++
		if entry.generation == 0 {
			// Wrapped; zero is never a live generation.
			entry.generation = 1
		}
		entry.slot = slot
		return SourceID{Index: index, Generation: entry.generation}, slot
	}
	index := uint32(len(a.entries))
	a.entries = append(a.entries, arenaEntry[T]{generation: 1, slot: slot})
	return SourceID{Index: index, Generation: 1}, slot
}

func (a *arena[T]) get(id SourceID) (*sourceSlot[T], bool) {
	if int(id.Index) >= len(a.entries) {
		return nil, false
	}
	entry := a.entries[id.Index]
	if entry.slot == nil || entry.generation != id.Generation {
		return nil, false
	}
	return entry.slot, true
}

func (a *arena[T]) release(id SourceID) bool {
	if _, ok := a.get(id); !ok {
		return false
	}
	a.entries[id.Index].slot = nil
	a.free = append(a.free, id.Index)
	return true
}

func (a *arena[T]) reset() {
	a.entries = nil
	a.free = nil
}
