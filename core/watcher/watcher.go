// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package watcher

import (
	"github.com/juju/worker/v4"

	"github.com/juju/combinator/core/changes"
)

// Watcher sends a value to indicate that the watch is active, and
// subsequent values whenever the value(s) under observation change(s).
// The channel is closed when the watcher dies.
type Watcher[T any] interface {
	worker.Worker
	Changes() <-chan T
}

// ChangesWatcher sends the current contents of a collection as its first
// change set, followed by every change applied to it. An empty collection
// is reported by an empty first change set.
type ChangesWatcher[T comparable] interface {
	Watcher[changes.ChangeSet[T]]
}
