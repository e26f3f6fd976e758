// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package combiner

import (
	"sync"

	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/worker/v4"
	"github.com/juju/worker/v4/catacomb"

	"github.com/juju/combinator/core/changes"
	"github.com/juju/combinator/core/combinator"
	"github.com/juju/combinator/core/watcher"
)

// SourceAlreadyExists is returned when a source set announces a key it
// has already announced.
const SourceAlreadyExists = errors.ConstError("source already exists")

// Logger represents the methods used by the worker to log details.
type Logger interface {
	Warningf(string, ...interface{})
	Debugf(string, ...interface{})
	Tracef(string, ...interface{})
}

// Config holds the dependencies and configuration of a combining worker.
type Config[T comparable] struct {
	// Sources announces the sources to combine. The worker takes
	// ownership of it.
	Sources watcher.SourceSetWatcher[T]
	Kind    combinator.Kind
	Logger  Logger
	Clock   clock.Clock
	Metrics *Collector
}

// Validate returns an error if the config cannot be used to start a
// Worker.
func (config Config[T]) Validate() error {
	if config.Sources == nil {
		return errors.NotValidf("nil Sources")
	}
	if err := config.Kind.Validate(); err != nil {
		return errors.Trace(err)
	}
	if config.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	if config.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if config.Metrics == nil {
		return errors.NotValidf("nil Metrics")
	}
	return nil
}

// Worker combines the items of a changing set of sources. It is a
// ChangesWatcher: the first change set holds the initial combined
// contents, and every later change set the net effect of one event from
// the source set or from one of the sources.
type Worker[T comparable] struct {
	catacomb catacomb.Catacomb
	config   Config[T]
	engine   *combinator.Engine[T]
	out      chan changes.ChangeSet[T]
	events   chan sourceEvent[T]

	// sources is only accessed by the loop goroutine.
	sources map[string]*trackedSource[T]

	mu   sync.Mutex
	keys []string
}

var _ watcher.ChangesWatcher[string] = (*Worker[string])(nil)

// NewWorker starts a worker combining the sources announced by
// config.Sources. The worker stops the source set watcher when it dies,
// whether or not this function succeeds.
func NewWorker[T comparable](config Config[T]) (*Worker[T], error) {
	if err := config.Validate(); err != nil {
		if config.Sources != nil {
			_ = worker.Stop(config.Sources)
		}
		return nil, errors.Trace(err)
	}
	w := &Worker[T]{
		config:  config,
		engine:  combinator.NewEngine[T](config.Kind),
		out:     make(chan changes.ChangeSet[T]),
		events:  make(chan sourceEvent[T]),
		sources: make(map[string]*trackedSource[T]),
	}
	err := catacomb.Invoke(catacomb.Plan{
		Site: &w.catacomb,
		Work: w.loop,
		Init: []worker.Worker{config.Sources},
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return w, nil
}

// Combine starts a worker combining the sources announced by sources
// with kind, using the wall clock and the package logger.
func Combine[T comparable](sources watcher.SourceSetWatcher[T], kind combinator.Kind) (*Worker[T], error) {
	return NewWorker(Config[T]{
		Sources: sources,
		Kind:    kind,
		Logger:  loggo.GetLogger("juju.worker.combiner"),
		Clock:   clock.WallClock,
		Metrics: NewMetricsCollector(),
	})
}

// Changes is part of the watcher.Watcher interface.
func (w *Worker[T]) Changes() <-chan changes.ChangeSet[T] {
	return w.out
}

// Kill is part of the worker.Worker interface.
func (w *Worker[T]) Kill() {
	w.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (w *Worker[T]) Wait() error {
	return w.catacomb.Wait()
}

// Report implements dependency.Reporter.
func (w *Worker[T]) Report() map[string]interface{} {
	w.mu.Lock()
	keys := set.NewStrings(w.keys...).SortedValues()
	w.mu.Unlock()

	stats := w.engine.Stats()
	report := map[string]interface{}{
		"kind":     w.config.Kind.String(),
		"sources":  keys,
		"tracked":  stats.Tracked,
		"included": stats.Included,
	}
	if err := w.engine.Err(); err != nil {
		report["error"] = err.Error()
	}
	return report
}

func (w *Worker[T]) loop() error {
	defer close(w.out)
	defer w.engine.Close()

	var (
		// out is only set while pending waits to be delivered.
		out     chan changes.ChangeSet[T]
		pending changes.ChangeSet[T]
		started bool
	)
	for {
		// Further events are only read once the pending change set has
		// been delivered.
		if out != nil {
			select {
			case <-w.catacomb.Dying():
				return w.catacomb.ErrDying()
			case out <- pending:
				out, pending = nil, nil
			}
			continue
		}

		var (
			cs  changes.ChangeSet[T]
			err error
		)
		select {
		case <-w.catacomb.Dying():
			return w.catacomb.ErrDying()
		case batch, ok := <-w.config.Sources.Changes():
			if !ok {
				return closedErr(&w.catacomb, w.config.Sources, "source set")
			}
			if cs, err = w.updateSources(batch); err != nil {
				return w.dyingOr(err)
			}
			if !started {
				// The initial state is sent even when empty.
				started = true
				out, pending = w.out, cs
				continue
			}
		case event := <-w.events:
			if cs, err = w.applySource(event); err != nil {
				return w.dyingOr(err)
			}
		}
		if len(cs) > 0 {
			out, pending = w.out, cs
		}
	}
}

// closedErr returns the error a watcher whose channel closed died with,
// or an error reporting that it stopped without one.
func closedErr(c *catacomb.Catacomb, dead worker.Worker, what string) error {
	select {
	case <-c.Dying():
		return c.ErrDying()
	default:
	}
	if err := dead.Wait(); err != nil {
		return errors.Annotatef(err, "%s", what)
	}
	return errors.Errorf("%s watcher closed", what)
}

// dyingOr returns ErrDying if the worker is being killed, and err
// otherwise.
func (w *Worker[T]) dyingOr(err error) error {
	select {
	case <-w.catacomb.Dying():
		return w.catacomb.ErrDying()
	default:
		return errors.Trace(err)
	}
}
