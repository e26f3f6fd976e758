// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package changes

import (
	"fmt"
	"strings"
)

// ChangeType represents the type of change applied to a collection.
// The changes are bit flags so that they can be combined into masks.
type ChangeType int

const (
	// Add represents a single item added to a collection.
	Add ChangeType = 1 << iota
	// Remove represents a single item removed from a collection.
	Remove
	// Clear represents every item of a collection being removed.
	Clear
	// AddRange represents a batch of items added to a collection.
	AddRange
	// RemoveRange represents a batch of items removed from a collection.
	RemoveRange

	// Additions matches any change that adds items.
	Additions = Add | AddRange
	// Removals matches any change that removes items.
	Removals = Remove | RemoveRange | Clear
	// All matches any change.
	All = Additions | Removals
)

// String returns the name of the change type.
func (t ChangeType) String() string {
	switch t {
	case Add:
		return "add"
	case Remove:
		return "remove"
	case Clear:
		return "clear"
	case AddRange:
		return "add-range"
	case RemoveRange:
		return "remove-range"
	}
	return fmt.Sprintf("change-type(%d)", int(t))
}

// Change is a single notification about the items of a collection.
// Add and Remove carry Item, AddRange and RemoveRange carry Items and
// Clear carries neither.
type Change[T comparable] struct {
	Type  ChangeType
	Item  T
	Items []T
}

// NewAdd returns a change adding item.
func NewAdd[T comparable](item T) Change[T] {
	return Change[T]{Type: Add, Item: item}
}

// NewRemove returns a change removing item.
func NewRemove[T comparable](item T) Change[T] {
	return Change[T]{Type: Remove, Item: item}
}

// NewAddRange returns a change adding every one of items.
func NewAddRange[T comparable](items ...T) Change[T] {
	return Change[T]{Type: AddRange, Items: items}
}

// NewRemoveRange returns a change removing every one of items.
func NewRemoveRange[T comparable](items ...T) Change[T] {
	return Change[T]{Type: RemoveRange, Items: items}
}

// NewClear returns a change removing every item of a collection.
func NewClear[T comparable]() Change[T] {
	return Change[T]{Type: Clear}
}

// Values returns the items named by the change. Clear names no items
// since its extent depends on the collection it applies to.
func (c Change[T]) Values() []T {
	switch c.Type {
	case Add, Remove:
		return []T{c.Item}
	case AddRange, RemoveRange:
		return c.Items
	}
	return nil
}

// String returns a compact representation, e.g. "+1" or "-[1 2]".
func (c Change[T]) String() string {
	switch c.Type {
	case Add:
		return fmt.Sprintf("+%v", c.Item)
	case Remove:
		return fmt.Sprintf("-%v", c.Item)
	case AddRange:
		return fmt.Sprintf("+%v", c.Items)
	case RemoveRange:
		return fmt.Sprintf("-%v", c.Items)
	case Clear:
		return "clear"
	}
	return c.Type.String()
}

// ChangeSet is an ordered batch of changes published together for a
// single triggering mutation.
type ChangeSet[T comparable] []Change[T]

// Adds returns the number of items added by the change set.
func (cs ChangeSet[T]) Adds() int {
	var n int
	for _, c := range cs {
		if c.Type&Additions != 0 {
			n += len(c.Values())
		}
	}
	return n
}

// Removes returns the number of items removed by the change set,
// excluding those implied by a Clear.
func (cs ChangeSet[T]) Removes() int {
	var n int
	for _, c := range cs {
		if c.Type&(Remove|RemoveRange) != 0 {
			n += len(c.Values())
		}
	}
	return n
}

// Matching returns the changes whose type is in mask.
func (cs ChangeSet[T]) Matching(mask ChangeType) ChangeSet[T] {
	var result ChangeSet[T]
	for _, c := range cs {
		if c.Type&mask != 0 {
			result = append(result, c)
		}
	}
	return result
}

// String returns the changes separated by spaces.
func (cs ChangeSet[T]) String() string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
