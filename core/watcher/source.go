// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package watcher

import (
	"fmt"
)

// Source is a collection of items that can be watched for changes.
type Source[T comparable] interface {
	// Watch returns a watcher whose first event is the current contents of
	// the source. Each call returns an independent watcher.
	Watch() (ChangesWatcher[T], error)
}

// SourceChangeType describes how a set of sources changed.
type SourceChangeType int

const (
	// SourceAdded reports a source joining the set.
	SourceAdded SourceChangeType = iota
	// SourceRemoved reports a source leaving the set.
	SourceRemoved
	// SourcesCleared reports every source leaving the set.
	SourcesCleared
)

// String returns the name of the change type.
func (t SourceChangeType) String() string {
	switch t {
	case SourceAdded:
		return "added"
	case SourceRemoved:
		return "removed"
	case SourcesCleared:
		return "cleared"
	}
	return fmt.Sprintf("source-change-type(%d)", int(t))
}

// SourceChange is a single notification about a set of sources.
type SourceChange[T comparable] struct {
	Type SourceChangeType

	// Key identifies the source within the set. It is empty for
	// SourcesCleared.
	Key string

	// Index is the position of an added source in the set. A negative
	// index appends the source.
	Index int

	// Source is the added source. It is only set for SourceAdded.
	Source Source[T]
}

// String returns a compact representation of the change.
func (c SourceChange[T]) String() string {
	switch c.Type {
	case SourceAdded:
		return fmt.Sprintf("added %q at %d", c.Key, c.Index)
	case SourceRemoved:
		return fmt.Sprintf("removed %q", c.Key)
	}
	return c.Type.String()
}

// SourceSetWatcher sends the sources currently in a set as its first
// event, followed by every change to the set. Every change of an event
// applies atomically.
type SourceSetWatcher[T comparable] interface {
	Watcher[[]SourceChange[T]]
}
