// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package hubsource

import (
	"sync"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/pubsub/v2"

	"github.com/juju/combinator/core/watcher"
)

// SourceSet is an ordered set of named sources, as consumed by the
// combiner worker.
type SourceSet[T comparable] struct {
	hub   *pubsub.SimpleHub
	topic string

	mu      sync.Mutex
	keys    set.Strings
	order   []string
	sources map[string]watcher.Source[T]
}

// NewSourceSet returns an empty source set that publishes its changes on
// topic.
func NewSourceSet[T comparable](hub *pubsub.SimpleHub, topic string) *SourceSet[T] {
	return &SourceSet[T]{
		hub:     hub,
		topic:   topic,
		keys:    set.NewStrings(),
		sources: make(map[string]watcher.Source[T]),
	}
}

// Add appends source to the set under key.
func (s *SourceSet[T]) Add(key string, source watcher.Source[T]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(len(s.order), key, source)
}

// Insert adds source to the set under key at position index.
func (s *SourceSet[T]) Insert(index int, key string, source watcher.Source[T]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(index, key, source)
}

func (s *SourceSet[T]) insert(index int, key string, source watcher.Source[T]) error {
	if source == nil {
		return errors.NotValidf("nil source %q", key)
	}
	if s.keys.Contains(key) {
		return errors.AlreadyExistsf("source %q", key)
	}
	if index < 0 || index > len(s.order) {
		return errors.NotValidf("index %d for %d sources", index, len(s.order))
	}
	s.keys.Add(key)
	s.sources[key] = source
	s.order = append(s.order, "")
	copy(s.order[index+1:], s.order[index:])
	s.order[index] = key

	s.publish(watcher.SourceChange[T]{
		Type:   watcher.SourceAdded,
		Key:    key,
		Index:  index,
		Source: source,
	})
	return nil
}

// Remove removes the source named key.
func (s *SourceSet[T]) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.keys.Contains(key) {
		return errors.NotFoundf("source %q", key)
	}
	for i, other := range s.order {
		if other == key {
			s.removeAt(i)
			break
		}
	}
	return nil
}

// RemoveAt removes the source at position index.
func (s *SourceSet[T]) RemoveAt(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.order) {
		return errors.NotValidf("index %d for %d sources", index, len(s.order))
	}
	s.removeAt(index)
	return nil
}

func (s *SourceSet[T]) removeAt(index int) {
	key := s.order[index]
	s.order = append(s.order[:index], s.order[index+1:]...)
	s.keys.Remove(key)
	delete(s.sources, key)
	s.publish(watcher.SourceChange[T]{
		Type: watcher.SourceRemoved,
		Key:  key,
	})
}

// Clear removes every source.
func (s *SourceSet[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = set.NewStrings()
	s.order = nil
	s.sources = make(map[string]watcher.Source[T])
	s.publish(watcher.SourceChange[T]{Type: watcher.SourcesCleared})
}

// Keys returns the keys of the sources in set order.
func (s *SourceSet[T]) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]string, len(s.order))
	copy(result, s.order)
	return result
}

// Watch returns a watcher whose first event adds every source currently
// in the set, in order.
func (s *SourceSet[T]) Watch() (watcher.SourceSetWatcher[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	initial := make([]watcher.SourceChange[T], len(s.order))
	for i, key := range s.order {
		initial[i] = watcher.SourceChange[T]{
			Type:   watcher.SourceAdded,
			Key:    key,
			Index:  i,
			Source: s.sources[key],
		}
	}
	return newHubWatcher(s.hub, s.topic, initial), nil
}

func (s *SourceSet[T]) publish(change watcher.SourceChange[T]) {
	_ = s.hub.Publish(s.topic, []watcher.SourceChange[T]{change})
}
