// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package hubsource

import (
	"sync"

	"github.com/juju/errors"
	"github.com/juju/pubsub/v2"
	"gopkg.in/tomb.v2"
)

// hubWatcher delivers every value published on a hub topic, in order,
// after an initial value. Values are queued until they are read.
type hubWatcher[E any] struct {
	tomb    tomb.Tomb
	changes chan E
	wake    chan struct{}

	mu      sync.Mutex
	pending []E
}

// newHubWatcher starts a watcher sending initial followed by whatever is
// published on topic. The caller must make sure nothing is published on
// topic between taking initial and calling this function.
func newHubWatcher[E any](hub *pubsub.SimpleHub, topic string, initial E) *hubWatcher[E] {
	w := &hubWatcher[E]{
		changes: make(chan E),
		wake:    make(chan struct{}, 1),
		pending: []E{initial},
	}
	w.wake <- struct{}{}
	unsubscribe := hub.Subscribe(topic, w.onPublish)
	w.tomb.Go(func() error {
		defer unsubscribe()
		defer close(w.changes)
		return w.loop()
	})
	return w
}

func (w *hubWatcher[E]) onPublish(topic string, data interface{}) {
	value, ok := data.(E)
	if !ok {
		// The watcher can no longer follow its source.
		err := errors.Errorf("programming error: %q data expected %T, got %T", topic, value, data)
		logger.Criticalf("%v", err)
		w.tomb.Kill(err)
		return
	}
	w.mu.Lock()
	w.pending = append(w.pending, value)
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *hubWatcher[E]) next() (E, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var value E
	if len(w.pending) == 0 {
		return value, false
	}
	value = w.pending[0]
	w.pending = w.pending[1:]
	return value, true
}

func (w *hubWatcher[E]) loop() error {
	for {
		value, ok := w.next()
		if !ok {
			select {
			case <-w.tomb.Dying():
				return tomb.ErrDying
			case <-w.wake:
			}
			continue
		}
		select {
		case <-w.tomb.Dying():
			return tomb.ErrDying
		case w.changes <- value:
		}
	}
}

// Changes is part of the watcher.Watcher interface.
func (w *hubWatcher[E]) Changes() <-chan E {
	return w.changes
}

// Kill is part of the worker.Worker interface.
func (w *hubWatcher[E]) Kill() {
	w.tomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (w *hubWatcher[E]) Wait() error {
	return w.tomb.Wait()
}
