// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package combinator

import "github.com/juju/errors"

const (
	// ItemNotPresent is returned when a source removes an item that it
	// does not hold.
	ItemNotPresent = errors.ConstError("item not present in source")

	// CountUnderflow is returned when a membership count would drop
	// below zero.
	CountUnderflow = errors.ConstError("membership count underflow")

	// SourceNotFound is returned when a source id does not name a live
	// source, including ids of sources that have since been removed.
	SourceNotFound = errors.ConstError("source not found")

	// EngineClosed is returned by every operation on a closed engine.
	EngineClosed = errors.ConstError("engine closed")
)
