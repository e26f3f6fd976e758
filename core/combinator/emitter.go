// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package combinator

import (
	"github.com/juju/combinator/core/changes"
)

// emitter gathers the items that may have toggled during one mutation
// and turns their net transitions into a single change set.
type emitter[T comparable] struct {
	candidates []T
	seen       map[T]struct{}
	rescan     bool
}

func newEmitter[T comparable]() *emitter[T] {
	return &emitter[T]{seen: make(map[T]struct{})}
}

// candidate records item, once, in discovery order.
func (e *emitter[T]) candidate(item T) {
	if _, ok := e.seen[item]; ok {
		return
	}
	e.seen[item] = struct{}{}
	e.candidates = append(e.candidates, item)
}

// rescanAll marks every tracked item as a candidate.
func (e *emitter[T]) rescanAll() {
	e.rescan = true
}

// emit compares the inclusion of each candidate against its published
// state, updates the published state and prunes entries left without
// sources. include is evaluated against the final state of the mutation.
func (e *emitter[T]) emit(t *tracker[T], include func(T, *membership) bool) changes.ChangeSet[T] {
	items := e.candidates
	if e.rescan {
		for _, item := range t.ordered() {
			if _, ok := e.seen[item]; !ok {
				items = append(items, item)
			}
		}
	}

	result := changes.ChangeSet[T]{}
	for _, item := range items {
		m, ok := t.entries[item]
		if !ok {
			continue
		}
		now := include(item, m)
		if now == m.published {
			continue
		}
		m.published = now
		if now {
			result = append(result, changes.NewAdd(item))
		} else {
			result = append(result, changes.NewRemove(item))
		}
	}
	t.prune(items)
	return result
}
