// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package combinator

import (
	"sort"

	"github.com/juju/errors"
)

// membership is the tracked state of one item.
type membership struct {
	// count is the number of live sources holding the item.
	count int
	// published records whether the item is part of the output
	// emitted so far.
	published bool
	// seq orders items by first contribution.
	seq uint64
}

// tracker maps every item held by at least one live source to its
// membership. An entry with a zero count only survives until the end of
// the mutation that zeroed it.
type tracker[T comparable] struct {
	entries map[T]*membership
	nextSeq uint64
}

func newTracker[T comparable]() *tracker[T] {
	return &tracker[T]{entries: make(map[T]*membership)}
}

// count returns the number of live sources holding item.
func (t *tracker[T]) count(item T) int {
	if m, ok := t.entries[item]; ok {
		return m.count
	}
	return 0
}

func (t *tracker[T]) increment(item T) {
	m, ok := t.entries[item]
	if !ok {
		t.nextSeq++
		m = &membership{seq: t.nextSeq}
		t.entries[item] = m
	}
	m.count++
}

func (t *tracker[T]) decrement(item T) error {
	m, ok := t.entries[item]
	if !ok || m.count == 0 {
		return errors.Annotatef(CountUnderflow, "decrementing %v", item)
	}
	m.count--
	return nil
}

// prune drops the entries of items that no source holds and that are not
// published.
func (t *tracker[T]) prune(items []T) {
	for _, item := range items {
		if m, ok := t.entries[item]; ok && m.count == 0 && !m.published {
			delete(t.entries, item)
		}
	}
}

// ordered returns every tracked item in first contribution order.
func (t *tracker[T]) ordered() []T {
	result := make([]T, 0, len(t.entries))
	for item := range t.entries {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool {
		return t.entries[result[i]].seq < t.entries[result[j]].seq
	})
	return result
}

// published returns the published items in first contribution order.
func (t *tracker[T]) published() []T {
	var result []T
	for _, item := range t.ordered() {
		if t.entries[item].published {
			result = append(result, item)
		}
	}
	return result
}

func (t *tracker[T]) reset() {
	t.entries = make(map[T]*membership)
}
