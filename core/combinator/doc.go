// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package combinator computes set combinations (or, and, xor, except) over
// a changing list of sources, each of which reports incremental item
// changes.
//
// The Engine keeps, per distinct item, the number of live sources holding
// it. Every mutation (a source added or removed, a change set applied to a
// source, or a batch of those) re-evaluates only the items it touched,
// unless the combination depends on the number or order of the sources
// (and, except), in which case every tracked item is re-evaluated. The
// result of a mutation is a single change set naming only the items whose
// combined membership flipped.
//
// The Engine is synchronous and does no subscription management of its
// own; see the combiner worker for driving it from watchers.
package combinator
