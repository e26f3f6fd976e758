// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package watchertest

import (
	"gopkg.in/tomb.v2"

	"github.com/juju/combinator/core/changes"
	"github.com/juju/combinator/core/watcher"
)

// MockWatcher is a watcher that forwards whatever is sent on its input
// channel. Closing the input channel stops the watcher cleanly.
type MockWatcher[T any] struct {
	tomb    tomb.Tomb
	changes chan T
}

var _ watcher.Watcher[struct{}] = (*MockWatcher[struct{}])(nil)

// NewMockWatcher returns a watcher forwarding the values sent on in.
func NewMockWatcher[T any](in <-chan T) *MockWatcher[T] {
	w := &MockWatcher[T]{
		changes: make(chan T),
	}
	w.tomb.Go(func() error {
		defer close(w.changes)
		for {
			var (
				value T
				ok    bool
			)
			select {
			case <-w.tomb.Dying():
				return tomb.ErrDying
			case value, ok = <-in:
				if !ok {
					return nil
				}
			}
			select {
			case <-w.tomb.Dying():
				return tomb.ErrDying
			case w.changes <- value:
			}
		}
	})
	return w
}

// NewMockChangesWatcher returns a changes watcher forwarding the change
// sets sent on in.
func NewMockChangesWatcher[T comparable](in <-chan changes.ChangeSet[T]) *MockWatcher[changes.ChangeSet[T]] {
	return NewMockWatcher(in)
}

// Changes is part of the Watcher interface.
func (w *MockWatcher[T]) Changes() <-chan T {
	return w.changes
}

// Kill is part of the worker.Worker interface.
func (w *MockWatcher[T]) Kill() {
	w.tomb.Kill(nil)
}

// KillErr kills the watcher with err.
func (w *MockWatcher[T]) KillErr(err error) {
	w.tomb.Kill(err)
}

// Wait is part of the worker.Worker interface.
func (w *MockWatcher[T]) Wait() error {
	return w.tomb.Wait()
}

// Stop kills the watcher and waits for it to die.
func (w *MockWatcher[T]) Stop() error {
	w.Kill()
	return w.Wait()
}
