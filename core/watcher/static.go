// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package watcher

import (
	"sync"

	"github.com/juju/combinator/core/changes"
)

// Static returns a source whose contents never change.
func Static[T comparable](items ...T) Source[T] {
	return staticSource[T](items)
}

type staticSource[T comparable] []T

// Watch is part of the Source interface.
func (s staticSource[T]) Watch() (ChangesWatcher[T], error) {
	initial := changes.ChangeSet[T]{}
	if len(s) > 0 {
		items := make([]T, len(s))
		copy(items, s)
		initial = append(initial, changes.NewAddRange(items...))
	}
	return Once(initial), nil
}

// Once returns a watcher that sends initial and then nothing else until
// it is killed.
func Once[T any](initial T) Watcher[T] {
	ch := make(chan T, 1)
	ch <- initial
	return &onceWatcher[T]{
		ch:   ch,
		done: make(chan struct{}),
	}
}

type onceWatcher[T any] struct {
	ch   chan T
	done chan struct{}
	kill sync.Once
}

// Kill is part of the worker.Worker interface.
func (w *onceWatcher[T]) Kill() {
	w.kill.Do(func() {
		close(w.done)
		close(w.ch)
	})
}

// Wait is part of the worker.Worker interface.
func (w *onceWatcher[T]) Wait() error {
	<-w.done
	return nil
}

// Changes is part of the Watcher interface.
func (w *onceWatcher[T]) Changes() <-chan T {
	return w.ch
}
