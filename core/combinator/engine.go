// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package combinator

import (
	"sync"

	"github.com/juju/errors"

	"github.com/juju/combinator/core/changes"
)

// Stats describes the size of an engine's state.
type Stats struct {
	// Sources is the number of live sources.
	Sources int
	// Tracked is the number of items held by at least one source.
	Tracked int
	// Included is the number of items in the combined output.
	Included int
}

// Engine maintains the combination of a list of sources. All methods are
// safe for concurrent use; each mutation is applied, diffed and returned
// as one change set while holding the engine's lock.
//
// An engine fails permanently on the first error returned by a mutation:
// every later mutation returns that error.
type Engine[T comparable] struct {
	mu      sync.Mutex
	kind    Kind
	policy  Policy
	arena   arena[T]
	order   []SourceID
	tracker *tracker[T]
	err     error
	closed  bool
}

// NewEngine returns an engine with no sources combining with kind.
func NewEngine[T comparable](kind Kind) *Engine[T] {
	return &Engine[T]{
		kind:    kind,
		policy:  kind.Policy(),
		tracker: newTracker[T](),
	}
}

// Kind returns the combination the engine computes.
func (e *Engine[T]) Kind() Kind {
	return e.kind
}

// Update runs fn with a batch, then returns the net change of the combined
// output over every mutation fn made. If fn returns an error the engine
// fails with it and no change set is returned.
func (e *Engine[T]) Update(fn func(*Batch[T]) error) (changes.ChangeSet[T], error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, EngineClosed
	}
	if e.err != nil {
		return nil, e.err
	}

	b := &Batch[T]{
		engine:  e,
		emitter: newEmitter[T](),
	}
	if err := fn(b); err != nil {
		e.err = err
		return nil, err
	}
	if b.sourcesChanged && e.policy.DependsOnSources() {
		b.emitter.rescanAll()
	}
	return b.emitter.emit(e.tracker, e.include), nil
}

// AddSource adds a source holding items at position index of the source
// list. A negative index, or one past the end, appends the source.
func (e *Engine[T]) AddSource(index int, items ...T) (SourceID, changes.ChangeSet[T], error) {
	var id SourceID
	cs, err := e.Update(func(b *Batch[T]) error {
		var err error
		id, err = b.AddSource(index, items...)
		return err
	})
	return id, cs, err
}

// RemoveSource removes the source, retracting every item it holds.
func (e *Engine[T]) RemoveSource(id SourceID) (changes.ChangeSet[T], error) {
	return e.Update(func(b *Batch[T]) error {
		return b.RemoveSource(id)
	})
}

// Apply applies the changes reported by a source, in order.
func (e *Engine[T]) Apply(id SourceID, cs changes.ChangeSet[T]) (changes.ChangeSet[T], error) {
	return e.Update(func(b *Batch[T]) error {
		return b.Apply(id, cs)
	})
}

// ClearSources removes every source.
func (e *Engine[T]) ClearSources() (changes.ChangeSet[T], error) {
	return e.Update(func(b *Batch[T]) error {
		return b.ClearSources()
	})
}

// Close discards every source and item. Closing twice is a no-op.
func (e *Engine[T]) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	e.arena.reset()
	e.order = nil
	e.tracker.reset()
}

// Err returns the error the engine failed with, if any.
func (e *Engine[T]) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Items returns the combined output in first contribution order.
func (e *Engine[T]) Items() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.published()
}

// Contains returns whether item is part of the combined output.
func (e *Engine[T]) Contains(item T) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.tracker.entries[item]
	return ok && m.published
}

// Count returns the number of live sources holding item.
func (e *Engine[T]) Count(item T) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.count(item)
}

// Sources returns the ids of the live sources in list order.
func (e *Engine[T]) Sources() []SourceID {
	e.mu.Lock()
	defer e.mu.Unlock()
	result := make([]SourceID, len(e.order))
	copy(result, e.order)
	return result
}

// Stats returns the current size of the engine's state.
func (e *Engine[T]) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	stats := Stats{
		Sources: len(e.order),
		Tracked: len(e.tracker.entries),
	}
	for _, m := range e.tracker.entries {
		if m.published {
			stats.Included++
		}
	}
	return stats
}

// include evaluates the policy for item against the current state.
func (e *Engine[T]) include(item T, m *membership) bool {
	var count int
	if m != nil {
		count = m.count
	}
	return e.policy.Include(count, len(e.order), e.inFirst(item))
}

func (e *Engine[T]) inFirst(item T) bool {
	if len(e.order) == 0 {
		return false
	}
	slot, ok := e.arena.get(e.order[0])
	return ok && slot.has(item)
}

// Batch collects mutations whose effect on the combined output is
// emitted as one change set. A batch is only valid inside the function
// passed to Update.
type Batch[T comparable] struct {
	engine         *Engine[T]
	emitter        *emitter[T]
	sourcesChanged bool
}

// AddSource adds a source holding items at position index of the source
// list. A negative index, or one past the end, appends the source.
// Repeated items are held once.
func (b *Batch[T]) AddSource(index int, items ...T) (SourceID, error) {
	e := b.engine
	id, slot := e.arena.alloc()
	if index < 0 || index > len(e.order) {
		index = len(e.order)
	}
	e.order = append(e.order, SourceID{})
	copy(e.order[index+1:], e.order[index:])
	e.order[index] = id
	b.sourcesChanged = true

	for _, item := range items {
		b.add(slot, item)
	}
	return id, nil
}

// RemoveSource removes the source, retracting every item it holds.
func (b *Batch[T]) RemoveSource(id SourceID) error {
	e := b.engine
	slot, ok := e.arena.get(id)
	if !ok {
		return errors.Annotatef(SourceNotFound, "removing source %v", id)
	}
	if err := b.clear(slot); err != nil {
		return errors.Annotatef(err, "removing source %v", id)
	}
	for i, other := range e.order {
		if other == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	e.arena.release(id)
	b.sourcesChanged = true
	return nil
}

// ClearSources removes every source, in list order.
func (b *Batch[T]) ClearSources() error {
	ids := make([]SourceID, len(b.engine.order))
	copy(ids, b.engine.order)
	for _, id := range ids {
		if err := b.RemoveSource(id); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// Apply applies the changes reported by a source, in order.
func (b *Batch[T]) Apply(id SourceID, cs changes.ChangeSet[T]) error {
	slot, ok := b.engine.arena.get(id)
	if !ok {
		return errors.Annotatef(SourceNotFound, "applying changes to source %v", id)
	}
	for _, change := range cs {
		if err := b.apply(slot, change); err != nil {
			return errors.Annotatef(err, "applying %v to source %v", change, id)
		}
	}
	return nil
}

func (b *Batch[T]) apply(slot *sourceSlot[T], change changes.Change[T]) error {
	switch change.Type {
	case changes.Add, changes.AddRange:
		for _, item := range change.Values() {
			b.add(slot, item)
		}
	case changes.Remove, changes.RemoveRange:
		for _, item := range change.Values() {
			if err := b.remove(slot, item); err != nil {
				return errors.Trace(err)
			}
		}
	case changes.Clear:
		return b.clear(slot)
	default:
		return errors.NotValidf("change type %v", change.Type)
	}
	return nil
}

// add makes slot hold item. Adding an item the slot already holds is a
// no-op: each source contributes an item at most once.
func (b *Batch[T]) add(slot *sourceSlot[T], item T) {
	if slot.has(item) {
		return
	}
	e := b.engine
	before := e.include(item, e.tracker.entries[item])
	slot.add(item)
	e.tracker.increment(item)
	if after := e.include(item, e.tracker.entries[item]); after != before {
		b.emitter.candidate(item)
	}
}

func (b *Batch[T]) remove(slot *sourceSlot[T], item T) error {
	if !slot.has(item) {
		return errors.Annotatef(ItemNotPresent, "removing %v", item)
	}
	e := b.engine
	before := e.include(item, e.tracker.entries[item])
	slot.remove(item)
	if err := e.tracker.decrement(item); err != nil {
		return errors.Trace(err)
	}
	// An item no source holds is always a candidate so that its entry
	// gets pruned.
	after := e.include(item, e.tracker.entries[item])
	if after != before || e.tracker.count(item) == 0 {
		b.emitter.candidate(item)
	}
	return nil
}

func (b *Batch[T]) clear(slot *sourceSlot[T]) error {
	for _, item := range slot.ordered() {
		if err := b.remove(slot, item); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
