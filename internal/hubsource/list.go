// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package hubsource provides in-memory sources that publish their
// changes on a pubsub hub, so that any number of watchers can follow
// them.
package hubsource

import (
	"sync"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/pubsub/v2"

	"github.com/juju/combinator/core/changes"
	"github.com/juju/combinator/core/watcher"
)

var logger = loggo.GetLogger("juju.combinator.hubsource")

// List is a mutable collection of distinct items. It implements
// watcher.Source.
type List[T comparable] struct {
	hub   *pubsub.SimpleHub
	topic string

	mu    sync.Mutex
	items *changes.Collection[T]
}

var _ watcher.Source[string] = (*List[string])(nil)

// NewList returns a list holding items that publishes its changes on
// topic. Each list needs a topic of its own.
func NewList[T comparable](hub *pubsub.SimpleHub, topic string, items ...T) *List[T] {
	return &List[T]{
		hub:   hub,
		topic: topic,
		items: changes.NewCollection(items...),
	}
}

// Add adds item to the list. Adding an item already held is an error.
func (l *List[T]) Add(item T) error {
	return l.update(changes.NewAdd(item))
}

// AddRange adds every one of items to the list as a single change. If any
// of them is already held, or repeated, nothing is added.
func (l *List[T]) AddRange(items ...T) error {
	return l.update(changes.NewAddRange(items...))
}

// Remove removes item from the list. Removing an item not held is an
// error.
func (l *List[T]) Remove(item T) error {
	return l.update(changes.NewRemove(item))
}

// RemoveRange removes every one of items from the list as a single
// change. If any of them is not held, or repeated, nothing is removed.
func (l *List[T]) RemoveRange(items ...T) error {
	return l.update(changes.NewRemoveRange(items...))
}

// Clear removes every item from the list.
func (l *List[T]) Clear() error {
	return l.update(changes.NewClear[T]())
}

// Items returns the items held, in the order they were added.
func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.items.Items()
}

// Watch is part of the watcher.Source interface.
func (l *List[T]) Watch() (watcher.ChangesWatcher[T], error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return newHubWatcher(l.hub, l.topic, l.items.Snapshot()), nil
}

func (l *List[T]) update(change changes.Change[T]) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.check(change); err != nil {
		return errors.Annotatef(err, "applying %v", change)
	}
	cs := changes.ChangeSet[T]{change}
	if err := l.items.Apply(cs); err != nil {
		return errors.Trace(err)
	}
	_ = l.hub.Publish(l.topic, cs)
	return nil
}

// check verifies that change applies as a whole.
func (l *List[T]) check(change changes.Change[T]) error {
	seen := make(map[T]bool)
	for _, item := range change.Values() {
		if seen[item] {
			return errors.NotValidf("repeated item %v", item)
		}
		seen[item] = true
		held := l.items.Contains(item)
		if change.Type&changes.Additions != 0 && held {
			return errors.AlreadyExistsf("item %v", item)
		}
		if change.Type&changes.Removals != 0 && !held {
			return errors.NotFoundf("item %v", item)
		}
	}
	return nil
}
