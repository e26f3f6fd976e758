// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package combinator

import (
	"strings"

	"github.com/juju/errors"
)

// Kind identifies a set combination.
type Kind int

const (
	// Or includes items held by at least one source.
	Or Kind = iota
	// And includes items held by every source.
	And
	// Xor includes items held by exactly one source.
	Xor
	// Except includes items held by the first source and no other.
	Except
)

var kindNames = map[Kind]string{
	Or:     "or",
	And:    "and",
	Xor:    "xor",
	Except: "except",
}

// String returns the lower case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Validate returns an error if k is not a known kind.
func (k Kind) Validate() error {
	if _, ok := kindNames[k]; !ok {
		return errors.NotValidf("combination kind %d", int(k))
	}
	return nil
}

// ParseKind returns the kind with the given name, ignoring case.
func ParseKind(name string) (Kind, error) {
	for kind, n := range kindNames {
		if strings.EqualFold(n, name) {
			return kind, nil
		}
	}
	return 0, errors.NotValidf("combination kind %q", name)
}

// Policy decides whether an item is part of the combined output.
type Policy interface {
	// Include reports whether an item held by count of the total live
	// sources is included. inFirst reports whether the first live source
	// holds the item.
	Include(count, total int, inFirst bool) bool

	// DependsOnSources reports whether Include can change for an
	// untouched item when sources are added, removed or reordered.
	DependsOnSources() bool
}

// Policy returns the policy implementing the kind.
func (k Kind) Policy() Policy {
	switch k {
	case And:
		return andPolicy{}
	case Xor:
		return xorPolicy{}
	case Except:
		return exceptPolicy{}
	}
	return orPolicy{}
}

type orPolicy struct{}

func (orPolicy) Include(count, _ int, _ bool) bool { return count >= 1 }
func (orPolicy) DependsOnSources() bool           { return false }

type andPolicy struct{}

func (andPolicy) Include(count, total int, _ bool) bool { return total > 0 && count == total }
func (andPolicy) DependsOnSources() bool                { return true }

type xorPolicy struct{}

func (xorPolicy) Include(count, _ int, _ bool) bool { return count == 1 }
func (xorPolicy) DependsOnSources() bool           { return false }

// exceptPolicy includes an item held by the first source when no other
// source holds it, i.e. the first source's holding is the only one.
type exceptPolicy struct{}

func (exceptPolicy) Include(count, _ int, inFirst bool) bool { return inFirst && count == 1 }
func (exceptPolicy) DependsOnSources() bool                 { return true }
