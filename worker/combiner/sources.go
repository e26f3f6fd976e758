// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package combiner

import (
	"github.com/juju/errors"
	"github.com/juju/worker/v4"
	"github.com/juju/worker/v4/catacomb"

	"github.com/juju/combinator/core/changes"
	"github.com/juju/combinator/core/combinator"
	"github.com/juju/combinator/core/watcher"
)

// trackedSource is a source the worker combines.
type trackedSource[T comparable] struct {
	key       string
	id        combinator.SourceID
	forwarder *forwarder[T]
}

// sourceEvent carries a change set reported by a tracked source.
type sourceEvent[T comparable] struct {
	source  *trackedSource[T]
	changes changes.ChangeSet[T]
}

// sourceOp is a change of the source set ready to apply to the engine.
type sourceOp[T comparable] struct {
	change watcher.SourceChange[T]
	source  *trackedSource[T]
	initial changes.ChangeSet[T]
}

// updateSources starts and stops the forwarders of the sources named by
// batch, then applies the whole batch to the engine as one update.
func (w *Worker[T]) updateSources(batch []watcher.SourceChange[T]) (changes.ChangeSet[T], error) {
	ops := make([]sourceOp[T], 0, len(batch))
	for _, change := range batch {
		op := sourceOp[T]{change: change}
		switch change.Type {
		case watcher.SourceAdded:
			if _, ok := w.sources[change.Key]; ok {
				return nil, errors.Annotatef(SourceAlreadyExists, "adding source %q", change.Key)
			}
			if change.Source == nil {
				return nil, errors.NotValidf("nil source %q", change.Key)
			}
			src, initial, err := w.startSource(change.Key, change.Source)
			if err != nil {
				return nil, errors.Annotatef(err, "adding source %q", change.Key)
			}
			w.sources[change.Key] = src
			op.source, op.initial = src, initial
			w.config.Logger.Debugf("source %q added with initial changes %v", change.Key, initial)

		case watcher.SourceRemoved:
			src, ok := w.sources[change.Key]
			if !ok {
				return nil, errors.Annotatef(combinator.SourceNotFound, "removing source %q", change.Key)
			}
			if err := w.stopSource(src); err != nil {
				return nil, errors.Trace(err)
			}
			op.source = src
			w.config.Logger.Debugf("source %q removed", change.Key)

		case watcher.SourcesCleared:
			for _, src := range w.sources {
				if err := w.stopSource(src); err != nil {
					return nil, errors.Trace(err)
				}
			}
			w.config.Logger.Debugf("sources cleared")

		default:
			return nil, errors.NotValidf("source change type %v", change.Type)
		}
		ops = append(ops, op)
	}
	w.updateKeys()

	return w.update(func(b *combinator.Batch[T]) error {
		for _, op := range ops {
			switch op.change.Type {
			case watcher.SourceAdded:
				id, err := b.AddSource(op.change.Index)
				if err != nil {
					return errors.Trace(err)
				}
				op.source.id = id
				if err := b.Apply(id, op.initial); err != nil {
					return errors.Annotatef(err, "initial state of source %q", op.change.Key)
				}
			case watcher.SourceRemoved:
				if err := b.RemoveSource(op.source.id); err != nil {
					return errors.Annotatef(err, "source %q", op.change.Key)
				}
			case watcher.SourcesCleared:
				if err := b.ClearSources(); err != nil {
					return errors.Trace(err)
				}
			}
		}
		return nil
	})
}

// applySource applies the changes reported by a tracked source.
func (w *Worker[T]) applySource(event sourceEvent[T]) (changes.ChangeSet[T], error) {
	src := event.source
	cs, err := w.update(func(b *combinator.Batch[T]) error {
		return b.Apply(src.id, event.changes)
	})
	return cs, errors.Annotatef(err, "source %q", src.key)
}

func (w *Worker[T]) update(fn func(*combinator.Batch[T]) error) (changes.ChangeSet[T], error) {
	start := w.config.Clock.Now()
	cs, err := w.engine.Update(fn)
	if err != nil {
		return nil, errors.Trace(err)
	}
	w.config.Metrics.observe(w.engine.Stats(), cs.Adds(), cs.Removes(), w.config.Clock.Now().Sub(start))
	w.config.Logger.Tracef("combined changes %v", cs)
	return cs, nil
}

// startSource watches source and reads its initial change set, then hands
// the watcher to a forwarder owned by the worker.
func (w *Worker[T]) startSource(key string, source watcher.Source[T]) (*trackedSource[T], changes.ChangeSet[T], error) {
	sw, err := source.Watch()
	if err != nil {
		return nil, nil, errors.Trace(err)
	}

	var initial changes.ChangeSet[T]
	select {
	case <-w.catacomb.Dying():
		_ = worker.Stop(sw)
		return nil, nil, w.catacomb.ErrDying()
	case cs, ok := <-sw.Changes():
		if !ok {
			if err := worker.Stop(sw); err != nil {
				return nil, nil, errors.Trace(err)
			}
			return nil, nil, errors.New("watcher closed before sending initial state")
		}
		initial = cs
	}

	src := &trackedSource[T]{key: key}
	f, err := newForwarder(src, sw, w.events)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	if err := w.catacomb.Add(f); err != nil {
		return nil, nil, errors.Trace(err)
	}
	src.forwarder = f
	return src, initial, nil
}

// stopSource stops the forwarder of src and forgets it. Events the
// forwarder had not yet delivered are dropped.
func (w *Worker[T]) stopSource(src *trackedSource[T]) error {
	delete(w.sources, src.key)
	if err := worker.Stop(src.forwarder); err != nil {
		return errors.Annotatef(err, "stopping source %q", src.key)
	}
	return nil
}

func (w *Worker[T]) updateKeys() {
	keys := make([]string, 0, len(w.sources))
	for key := range w.sources {
		keys = append(keys, key)
	}
	w.mu.Lock()
	w.keys = keys
	w.mu.Unlock()
}

// forwarder delivers the change sets of one source watcher to the
// worker loop.
type forwarder[T comparable] struct {
	catacomb catacomb.Catacomb
	source   *trackedSource[T]
	changes  <-chan changes.ChangeSet[T]
	watcher  watcher.ChangesWatcher[T]
	out      chan<- sourceEvent[T]
}

// newForwarder starts a forwarder for source. The forwarder takes
// ownership of w, whether or not this function succeeds.
func newForwarder[T comparable](
	source *trackedSource[T],
	w watcher.ChangesWatcher[T],
	out chan<- sourceEvent[T],
) (*forwarder[T], error) {
	f := &forwarder[T]{
		source:  source,
		changes: w.Changes(),
		watcher: w,
		out:     out,
	}
	err := catacomb.Invoke(catacomb.Plan{
		Site: &f.catacomb,
		Work: f.loop,
		Init: []worker.Worker{w},
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return f, nil
}

func (f *forwarder[T]) loop() error {
	for {
		select {
		case <-f.catacomb.Dying():
			return f.catacomb.ErrDying()
		case cs, ok := <-f.changes:
			if !ok {
				return closedErr(&f.catacomb, f.watcher, "source "+f.source.key)
			}
			select {
			case <-f.catacomb.Dying():
				return f.catacomb.ErrDying()
			case f.out <- sourceEvent[T]{source: f.source, changes: cs}:
			}
		}
	}
}

// Kill is part of the worker.Worker interface.
func (f *forwarder[T]) Kill() {
	f.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (f *forwarder[T]) Wait() error {
	return f.catacomb.Wait()
}
