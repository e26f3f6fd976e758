// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package changes

import (
	"github.com/juju/errors"
)

// Collection materialises a stream of change sets into the set of items
// it describes, keeping items in the order they were first added.
// The zero value is not usable; use NewCollection.
type Collection[T comparable] struct {
	index map[T]int

	// items may hold removed items; the entry at i is live only while
	// index maps its item to i. Removed entries are compacted once they
	// outnumber the live ones.
	items []T
}

// NewCollection returns a collection holding items.
func NewCollection[T comparable](items ...T) *Collection[T] {
	c := &Collection[T]{
		index: make(map[T]int, len(items)),
	}
	for _, item := range items {
		_ = c.add(item)
	}
	return c
}

// Apply applies every change of cs in order. Adding an item already held
// or removing one not held is an error; the collection keeps the changes
// applied before the offending one.
func (c *Collection[T]) Apply(cs ChangeSet[T]) error {
	for _, change := range cs {
		if err := c.apply(change); err != nil {
			return errors.Annotatef(err, "applying %v", change)
		}
	}
	return nil
}

func (c *Collection[T]) apply(change Change[T]) error {
	switch change.Type {
	case Add, AddRange:
		for _, item := range change.Values() {
			if err := c.add(item); err != nil {
				return errors.Trace(err)
			}
		}
	case Remove, RemoveRange:
		for _, item := range change.Values() {
			if err := c.remove(item); err != nil {
				return errors.Trace(err)
			}
		}
	case Clear:
		c.index = make(map[T]int)
		c.items = nil
	default:
		return errors.NotValidf("change type %v", change.Type)
	}
	return nil
}

func (c *Collection[T]) add(item T) error {
	if _, ok := c.index[item]; ok {
		return errors.AlreadyExistsf("item %v", item)
	}
	c.index[item] = len(c.items)
	c.items = append(c.items, item)
	return nil
}

func (c *Collection[T]) remove(item T) error {
	i, ok := c.index[item]
	if !ok {
		return errors.NotFoundf("item %v", item)
	}
	delete(c.index, item)
	var zero T
	c.items[i] = zero
	if len(c.items) > 2*len(c.index) {
		c.compact()
	}
	return nil
}

func (c *Collection[T]) live(i int) bool {
	j, ok := c.index[c.items[i]]
	return ok && j == i
}

func (c *Collection[T]) compact() {
	items := make([]T, 0, len(c.index))
	for i := range c.items {
		if c.live(i) {
			c.index[c.items[i]] = len(items)
			items = append(items, c.items[i])
		}
	}
	c.items = items
}

// Contains returns whether item is held.
func (c *Collection[T]) Contains(item T) bool {
	_, ok := c.index[item]
	return ok
}

// Len returns the number of items held.
func (c *Collection[T]) Len() int {
	return len(c.index)
}

// Items returns a copy of the items held, in insertion order.
func (c *Collection[T]) Items() []T {
	result := make([]T, 0, len(c.index))
	for i := range c.items {
		if c.live(i) {
			result = append(result, c.items[i])
		}
	}
	return result
}

// Snapshot returns a change set that builds the current contents from an
// empty collection. An empty collection yields an empty change set.
func (c *Collection[T]) Snapshot() ChangeSet[T] {
	if len(c.index) == 0 {
		return ChangeSet[T]{}
	}
	return ChangeSet[T]{NewAddRange(c.Items()...)}
}
