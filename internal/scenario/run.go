// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package scenario

import (
	"github.com/juju/collections/set"
	"github.com/juju/collections/transform"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/combinator/core/changes"
	"github.com/juju/combinator/core/combinator"
)

// ExpectationFailed is returned when the combined output differs from an
// expect step.
const ExpectationFailed = errors.ConstError("expectation failed")

var logger = loggo.GetLogger("juju.combinator.scenario")

// Result describes the outcome of one step.
type Result struct {
	// Step is the 1-based position of the step.
	Step int
	Name string
	// Changes is what the step emitted. It is nil for expect steps.
	Changes changes.ChangeSet[string]
	// Output is the combined output after the step.
	Output []string
}

// Describe returns the changes as strings, e.g. "+a" or "-b".
func (r Result) Describe() []string {
	return transform.Slice(r.Changes, func(c changes.Change[string]) string {
		return c.String()
	})
}

// Run applies every step of s to a new engine, calling observe after each
// one. It stops at the first failing step.
func Run(s *Scenario, observe func(Result)) error {
	kind, err := combinator.ParseKind(s.Kind)
	if err != nil {
		return errors.Trace(err)
	}
	r := &runner{
		engine:  combinator.NewEngine[string](kind),
		sources: make(map[string]combinator.SourceID),
		output:  changes.NewCollection[string](),
	}
	defer r.engine.Close()

	for i, step := range s.Steps {
		result := Result{Step: i + 1, Name: step.String()}
		cs, err := r.run(step)
		if err != nil {
			return errors.Annotatef(err, "step %d (%s)", i+1, result.Name)
		}
		if cs != nil {
			if err := r.output.Apply(cs); err != nil {
				return errors.Annotatef(err, "step %d (%s)", i+1, result.Name)
			}
		}
		result.Changes = cs
		result.Output = r.output.Items()
		logger.Tracef("step %d %s: %v", result.Step, result.Name, cs)
		if observe != nil {
			observe(result)
		}
	}
	return nil
}

type runner struct {
	engine  *combinator.Engine[string]
	sources map[string]combinator.SourceID
	output  *changes.Collection[string]
}

func (r *runner) run(step Step) (changes.ChangeSet[string], error) {
	switch {
	case step.AddSource != nil:
		name := step.AddSource.Name
		if _, ok := r.sources[name]; ok {
			return nil, errors.AlreadyExistsf("source %q", name)
		}
		index := -1
		if step.AddSource.Index != nil {
			index = *step.AddSource.Index
		}
		id, cs, err := r.engine.AddSource(index, step.AddSource.Items...)
		if err != nil {
			return nil, errors.Trace(err)
		}
		r.sources[name] = id
		return cs, nil

	case step.RemoveSource != "":
		id, err := r.source(step.RemoveSource)
		if err != nil {
			return nil, errors.Trace(err)
		}
		delete(r.sources, step.RemoveSource)
		return r.engine.RemoveSource(id)

	case step.Add != nil:
		return r.apply(step.Add.Source, itemsChange(changes.NewAdd[string], changes.NewAddRange[string], step.Add.Items))

	case step.Remove != nil:
		return r.apply(step.Remove.Source, itemsChange(changes.NewRemove[string], changes.NewRemoveRange[string], step.Remove.Items))

	case step.Clear != "":
		return r.apply(step.Clear, changes.NewClear[string]())

	case step.ClearSources:
		r.sources = make(map[string]combinator.SourceID)
		return r.engine.ClearSources()

	case step.Expect != nil:
		return nil, r.expect(*step.Expect)
	}
	return nil, errors.NotValidf("empty step")
}

func (r *runner) source(name string) (combinator.SourceID, error) {
	id, ok := r.sources[name]
	if !ok {
		return id, errors.NotFoundf("source %q", name)
	}
	return id, nil
}

func (r *runner) apply(name string, change changes.Change[string]) (changes.ChangeSet[string], error) {
	id, err := r.source(name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return r.engine.Apply(id, changes.ChangeSet[string]{change})
}

func (r *runner) expect(items []string) error {
	want := set.NewStrings(items...)
	got := set.NewStrings(r.output.Items()...)
	if want.Size() != len(items) {
		return errors.NotValidf("expect with repeated items")
	}
	if !want.Difference(got).IsEmpty() || !got.Difference(want).IsEmpty() {
		return errors.Annotatef(ExpectationFailed, "want %v, got %v", want.SortedValues(), got.SortedValues())
	}
	return nil
}

func itemsChange(
	single func(string) changes.Change[string],
	multiple func(...string) changes.Change[string],
	items []string,
) changes.Change[string] {
	if len(items) == 1 {
		return single(items[0])
	}
	return multiple(items...)
}
