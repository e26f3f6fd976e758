// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package scenario replays scripted source and item changes against a
// combinator engine, checking the combined output at chosen points.
package scenario

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"

	"github.com/juju/combinator/core/combinator"
)

// Scenario is a script of steps applied to an engine of one kind.
type Scenario struct {
	Kind  string `yaml:"kind"`
	Steps []Step `yaml:"steps"`
}

// SourceStep adds a source. A nil Index appends it.
type SourceStep struct {
	Name  string   `yaml:"name"`
	Items []string `yaml:"items,omitempty"`
	Index *int     `yaml:"index,omitempty"`
}

// ItemsStep changes the items of a source.
type ItemsStep struct {
	Source string   `yaml:"source"`
	Items  []string `yaml:"items"`
}

// Step is a single action. Exactly one field is set.
type Step struct {
	AddSource    *SourceStep `yaml:"add-source,omitempty"`
	RemoveSource string      `yaml:"remove-source,omitempty"`
	Add          *ItemsStep  `yaml:"add,omitempty"`
	Remove       *ItemsStep  `yaml:"remove,omitempty"`
	Clear        string      `yaml:"clear,omitempty"`
	ClearSources bool        `yaml:"clear-sources,omitempty"`
	Expect       *[]string   `yaml:"expect,omitempty"`
}

// Parse reads a YAML scenario and validates it.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Annotate(err, "parsing scenario")
	}
	if err := s.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &s, nil
}

// Validate returns an error if the scenario cannot be run.
func (s *Scenario) Validate() error {
	if _, err := combinator.ParseKind(s.Kind); err != nil {
		return errors.Trace(err)
	}
	for i, step := range s.Steps {
		if err := step.Validate(); err != nil {
			return errors.Annotatef(err, "step %d", i+1)
		}
	}
	return nil
}

// Validate returns an error unless exactly one action is set.
func (s Step) Validate() error {
	var actions int
	if s.AddSource != nil {
		if s.AddSource.Name == "" {
			return errors.NotValidf("add-source without name")
		}
		actions++
	}
	if s.RemoveSource != "" {
		actions++
	}
	if s.Add != nil {
		if s.Add.Source == "" || len(s.Add.Items) == 0 {
			return errors.NotValidf("add without source or items")
		}
		actions++
	}
	if s.Remove != nil {
		if s.Remove.Source == "" || len(s.Remove.Items) == 0 {
			return errors.NotValidf("remove without source or items")
		}
		actions++
	}
	if s.Clear != "" {
		actions++
	}
	if s.ClearSources {
		actions++
	}
	if s.Expect != nil {
		actions++
	}
	if actions != 1 {
		return errors.NotValidf("step with %d actions", actions)
	}
	return nil
}

// String describes the step.
func (s Step) String() string {
	switch {
	case s.AddSource != nil:
		where := "end"
		if s.AddSource.Index != nil {
			where = fmt.Sprint(*s.AddSource.Index)
		}
		return fmt.Sprintf("add source %s at %s [%s]", s.AddSource.Name, where, strings.Join(s.AddSource.Items, " "))
	case s.RemoveSource != "":
		return "remove source " + s.RemoveSource
	case s.Add != nil:
		return fmt.Sprintf("add [%s] to %s", strings.Join(s.Add.Items, " "), s.Add.Source)
	case s.Remove != nil:
		return fmt.Sprintf("remove [%s] from %s", strings.Join(s.Remove.Items, " "), s.Remove.Source)
	case s.Clear != "":
		return "clear " + s.Clear
	case s.ClearSources:
		return "clear sources"
	case s.Expect != nil:
		return fmt.Sprintf("expect [%s]", strings.Join(*s.Expect, " "))
	}
	return "empty step"
}
