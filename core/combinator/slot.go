// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package combinator

import "sort"

// sourceSlot holds the items a live source currently contributes, so that
// they can be retracted exactly when the source is cleared or removed.
type sourceSlot[T comparable] struct {
	items   map[T]uint64
	nextSeq uint64
}

func newSourceSlot[T comparable]() *sourceSlot[T] {
	return &sourceSlot[T]{items: make(map[T]uint64)}
}

func (s *sourceSlot[T]) has(item T) bool {
	_, ok := s.items[item]
	return ok
}

func (s *sourceSlot[T]) add(item T) {
	s.nextSeq++
	s.items[item] = s.nextSeq
}

func (s *sourceSlot[T]) remove(item T) {
	delete(s.items, item)
}

func (s *sourceSlot[T]) len() int {
	return len(s.items)
}

// ordered returns the held items in the order they were added.
func (s *sourceSlot[T]) ordered() []T {
	result := make([]T, 0, len(s.items))
	for item := range s.items {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool {
		return s.items[result[i]] < s.items[result[j]]
	})
	return result
}
