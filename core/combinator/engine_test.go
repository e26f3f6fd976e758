// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package combinator_test

import (
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/combinator/core/changes"
	"github.com/juju/combinator/core/combinator"
)

type engineSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&engineSuite{})

// harness drives an engine and materialises everything it emits, checking
// that each change set only names items whose membership flipped.
type harness struct {
	c      *gc.C
	engine *combinator.Engine[int]
	output *changes.Collection[int]
}

func newHarness(c *gc.C, kind combinator.Kind) *harness {
	return &harness{
		c:      c,
		engine: combinator.NewEngine[int](kind),
		output: changes.NewCollection[int](),
	}
}

func (h *harness) emitted(cs changes.ChangeSet[int], err error) changes.ChangeSet[int] {
	h.c.Assert(err, jc.ErrorIsNil)
	seen := make(map[int]bool)
	for _, change := range cs {
		h.c.Assert(change.Type&(changes.Add|changes.Remove), gc.Not(gc.Equals), changes.ChangeType(0))
		h.c.Assert(seen[change.Item], jc.IsFalse, gc.Commentf("%v named twice in %v", change.Item, cs))
		seen[change.Item] = true
	}
	h.c.Assert(h.output.Apply(cs), jc.ErrorIsNil)
	h.c.Assert(h.output.Items(), jc.SameContents, h.items())
	return cs
}

func (h *harness) items() []int {
	items := h.engine.Items()
	if items == nil {
		return []int{}
	}
	return items
}

func (h *harness) addSource(items ...int) combinator.SourceID {
	id, cs, err := h.engine.AddSource(-1, items...)
	h.emitted(cs, err)
	return id
}

func (h *harness) insertSource(index int, items ...int) combinator.SourceID {
	id, cs, err := h.engine.AddSource(index, items...)
	h.emitted(cs, err)
	return id
}

func (h *harness) removeSource(id combinator.SourceID) changes.ChangeSet[int] {
	return h.emitted(h.engine.RemoveSource(id))
}

func (h *harness) apply(id combinator.SourceID, cs ...changes.Change[int]) changes.ChangeSet[int] {
	return h.emitted(h.engine.Apply(id, cs))
}

func (h *harness) assertOutput(expect ...int) {
	if expect == nil {
		expect = []int{}
	}
	h.c.Assert(h.output.Items(), jc.SameContents, expect)
}

func span(from, count int) []int {
	result := make([]int, count)
	for i := range result {
		result[i] = from + i
	}
	return result
}

func (s *engineSuite) TestXorIncludedWhenItemIsInOneSource(c *gc.C) {
	h := newHarness(c, combinator.Xor)
	a := h.addSource()
	h.addSource()

	cs := h.apply(a, changes.NewAdd(1))
	c.Check(cs, jc.DeepEquals, changes.ChangeSet[int]{changes.NewAdd(1)})
	h.assertOutput(1)
}

func (s *engineSuite) TestXorItemFlipsWithSecondSource(c *gc.C) {
	h := newHarness(c, combinator.Xor)
	a := h.addSource()
	b := h.addSource()

	h.apply(a, changes.NewAdd(1))
	h.assertOutput(1)

	cs := h.apply(b, changes.NewAdd(1))
	c.Check(cs, jc.DeepEquals, changes.ChangeSet[int]{changes.NewRemove(1)})
	h.assertOutput()

	cs = h.apply(a, changes.NewRemove(1))
	c.Check(cs, jc.DeepEquals, changes.ChangeSet[int]{changes.NewAdd(1)})
	h.assertOutput(1)

	h.apply(b, changes.NewRemove(1))
	h.assertOutput()
	c.Check(h.engine.Stats(), jc.DeepEquals, combinator.Stats{Sources: 2})
}

func (s *engineSuite) TestXorRemovedWhenNoLongerInEither(c *gc.C) {
	h := newHarness(c, combinator.Xor)
	a := h.addSource()
	h.addSource()

	h.apply(a, changes.NewAdd(1))
	h.apply(a, changes.NewRemove(1))
	h.assertOutput()
}

func (s *engineSuite) TestXorDisjointRanges(c *gc.C) {
	h := newHarness(c, combinator.Xor)
	a := h.addSource()
	b := h.addSource()

	h.apply(a, changes.NewAddRange(span(1, 5)...))
	h.apply(b, changes.NewAddRange(span(6, 5)...))
	h.assertOutput(span(1, 10)...)
}

func (s *engineSuite) TestXorOverlappingRangeExcludesIntersection(c *gc.C) {
	h := newHarness(c, combinator.Xor)
	a := h.addSource()
	b := h.addSource()

	h.apply(a, changes.NewAddRange(span(1, 10)...))
	cs := h.apply(b, changes.NewAddRange(span(6, 10)...))
	c.Check(cs.Matching(changes.Remove), gc.HasLen, 5)
	c.Check(cs.Matching(changes.Add), gc.HasLen, 5)
	h.assertOutput(append(span(1, 5), span(11, 5)...)...)
}

func (s *engineSuite) TestXorClearOnlyClearsOneSource(c *gc.C) {
	h := newHarness(c, combinator.Xor)
	a := h.addSource()
	b := h.addSource()

	h.apply(a, changes.NewAddRange(span(1, 5)...))
	h.apply(b, changes.NewAddRange(span(6, 5)...))

	cs := h.apply(a, changes.NewClear[int]())
	c.Check(cs, jc.DeepEquals, changes.ChangeSet[int]{
		changes.NewRemove(1),
		changes.NewRemove(2),
		changes.NewRemove(3),
		changes.NewRemove(4),
		changes.NewRemove(5),
	})
	h.assertOutput(span(6, 5)...)
}

func (s *engineSuite) TestXorAddAndRemoveSources(c *gc.C) {
	h := newHarness(c, combinator.Xor)
	a := h.addSource(span(1, 5)...)
	h.addSource(span(6, 5)...)
	h.addSource(span(1, 5)...)
	h.assertOutput(span(6, 5)...)

	h.removeSource(a)
	h.assertOutput(span(1, 10)...)

	h.addSource(span(1, 5)...)
	h.assertOutput(span(6, 5)...)
}

func (s *engineSuite) TestOrMembership(c *gc.C) {
	h := newHarness(c, combinator.Or)
	a := h.addSource(1, 2)
	b := h.addSource(2, 3)
	h.assertOutput(1, 2, 3)

	cs := h.apply(a, changes.NewRemove(2))
	c.Check(cs, gc.HasLen, 0)
	h.assertOutput(1, 2, 3)

	cs = h.apply(b, changes.NewRemove(2))
	c.Check(cs, jc.DeepEquals, changes.ChangeSet[int]{changes.NewRemove(2)})
	h.assertOutput(1, 3)

	h.removeSource(a)
	h.assertOutput(3)
}

func (s *engineSuite) TestAndMembership(c *gc.C) {
	h := newHarness(c, combinator.And)
	h.assertOutput()

	a := h.addSource(1, 2, 3)
	h.assertOutput(1, 2, 3)

	h.addSource(2, 3, 4)
	h.assertOutput(2, 3)

	// An empty source excludes everything until it holds the items too.
	empty := h.addSource()
	h.assertOutput()

	cs := h.apply(empty, changes.NewAdd(2))
	c.Check(cs, jc.DeepEquals, changes.ChangeSet[int]{changes.NewAdd(2)})
	h.assertOutput(2)

	h.removeSource(empty)
	h.assertOutput(2, 3)

	h.apply(a, changes.NewRemove(3))
	h.assertOutput(2)
}

func (s *engineSuite) TestAndWithoutSourcesIncludesNothing(c *gc.C) {
	h := newHarness(c, combinator.And)
	a := h.addSource(1)
	h.assertOutput(1)

	h.removeSource(a)
	h.assertOutput()
	c.Check(h.engine.Stats(), jc.DeepEquals, combinator.Stats{})
}

func (s *engineSuite) TestExceptMembership(c *gc.C) {
	h := newHarness(c, combinator.Except)
	a := h.addSource(1, 2, 3)
	h.assertOutput(1, 2, 3)

	b := h.addSource(2)
	h.assertOutput(1, 3)

	cs := h.apply(b, changes.NewAdd(3))
	c.Check(cs, jc.DeepEquals, changes.ChangeSet[int]{changes.NewRemove(3)})
	h.assertOutput(1)

	// Items only held by other sources are never included.
	h.apply(b, changes.NewAdd(7))
	h.assertOutput(1)

	h.apply(a, changes.NewRemove(1))
	h.assertOutput()

	// Inserting a source at the front makes it the distinguished one.
	first := h.insertSource(0, 3, 9)
	h.assertOutput(9)

	h.removeSource(first)
	h.assertOutput()

	// Removing the first source promotes the next one.
	h.removeSource(a)
	h.assertOutput(2, 3, 7)
	c.Check(h.engine.Sources(), jc.DeepEquals, []combinator.SourceID{b})
}

func (s *engineSuite) TestExceptWithoutSourcesIncludesNothing(c *gc.C) {
	h := newHarness(c, combinator.Except)
	h.assertOutput()
	a := h.addSource(1)
	h.removeSource(a)
	h.assertOutput()
}

func (s *engineSuite) TestSourceLifecycleSymmetry(c *gc.C) {
	for _, kind := range []combinator.Kind{combinator.Or, combinator.And, combinator.Xor, combinator.Except} {
		c.Logf("kind %v", kind)
		h := newHarness(c, kind)
		h.addSource(span(1, 3)...)
		h.addSource(span(2, 5)...)
		before := h.items()

		extra := h.addSource(span(1, 5)...)
		h.removeSource(extra)
		c.Check(h.items(), jc.SameContents, before)
		c.Check(h.engine.Stats().Sources, gc.Equals, 2)
	}
}

func (s *engineSuite) TestBatchCancellationEmitsNothing(c *gc.C) {
	h := newHarness(c, combinator.Xor)
	a := h.addSource()

	cs := h.apply(a, changes.NewAdd(1), changes.NewRemove(1))
	c.Check(cs, gc.HasLen, 0)

	cs = h.emitted(h.engine.Update(func(b *combinator.Batch[int]) error {
		id, err := b.AddSource(-1, 1, 2)
		if err != nil {
			return err
		}
		return b.RemoveSource(id)
	}))
	c.Check(cs, gc.HasLen, 0)
	c.Check(h.engine.Stats(), jc.DeepEquals, combinator.Stats{Sources: 1})
}

func (s *engineSuite) TestBatchEmitsOneChangeSet(c *gc.C) {
	h := newHarness(c, combinator.Or)
	a := h.addSource(1)

	cs := h.emitted(h.engine.Update(func(b *combinator.Batch[int]) error {
		if _, err := b.AddSource(-1, 2, 3); err != nil {
			return err
		}
		if err := b.Apply(a, changes.ChangeSet[int]{changes.NewAdd(4)}); err != nil {
			return err
		}
		return b.RemoveSource(a)
	}))
	c.Check(cs, jc.DeepEquals, changes.ChangeSet[int]{
		changes.NewAdd(2),
		changes.NewAdd(3),
		changes.NewRemove(1),
	})
	h.assertOutput(2, 3)
}

func (s *engineSuite) TestClearSources(c *gc.C) {
	h := newHarness(c, combinator.Or)
	h.addSource(1, 2)
	h.addSource(2, 3)

	h.emitted(h.engine.ClearSources())
	h.assertOutput()
	c.Check(h.engine.Stats(), jc.DeepEquals, combinator.Stats{})
	c.Check(h.engine.Sources(), gc.HasLen, 0)
}

func (s *engineSuite) TestDuplicateAddHeldOnce(c *gc.C) {
	h := newHarness(c, combinator.Xor)
	a := h.addSource()

	h.apply(a, changes.NewAdd(1))
	cs := h.apply(a, changes.NewAdd(1))
	c.Check(cs, gc.HasLen, 0)
	c.Check(h.engine.Count(1), gc.Equals, 1)

	h.apply(a, changes.NewRemove(1))
	h.assertOutput()
	c.Check(h.engine.Count(1), gc.Equals, 0)
}

func (s *engineSuite) TestEntriesPrunedWhenNoSourceHoldsThem(c *gc.C) {
	h := newHarness(c, combinator.And)
	a := h.addSource(1)
	b := h.addSource(2)
	h.addSource(3)
	c.Check(h.engine.Stats(), jc.DeepEquals, combinator.Stats{Sources: 3, Tracked: 3})

	h.apply(a, changes.NewRemove(1))
	h.removeSource(b)
	c.Check(h.engine.Stats(), jc.DeepEquals, combinator.Stats{Sources: 2, Tracked: 1})
}

func (s *engineSuite) TestRemoveUnknownItemFailsEngine(c *gc.C) {
	engine := combinator.NewEngine[int](combinator.Xor)
	a, _, err := engine.AddSource(-1, 1)
	c.Assert(err, jc.ErrorIsNil)

	_, err = engine.Apply(a, changes.ChangeSet[int]{changes.NewRemove(7)})
	c.Assert(err, jc.ErrorIs, combinator.ItemNotPresent)
	c.Check(engine.Err(), jc.ErrorIs, combinator.ItemNotPresent)

	_, err = engine.Apply(a, changes.ChangeSet[int]{changes.NewAdd(2)})
	c.Check(err, jc.ErrorIs, combinator.ItemNotPresent)
}

func (s *engineSuite) TestStaleSourceID(c *gc.C) {
	engine := combinator.NewEngine[int](combinator.Or)
	a, _, err := engine.AddSource(-1, 1)
	c.Assert(err, jc.ErrorIsNil)
	_, err = engine.RemoveSource(a)
	c.Assert(err, jc.ErrorIsNil)

	b, _, err := engine.AddSource(-1, 2)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(b.Index, gc.Equals, a.Index)
	c.Check(b.Generation, gc.Not(gc.Equals), a.Generation)

	_, err = engine.Apply(a, changes.ChangeSet[int]{changes.NewAdd(3)})
	c.Check(err, jc.ErrorIs, combinator.SourceNotFound)
}

func (s *engineSuite) TestZeroSourceIDNeverValid(c *gc.C) {
	engine := combinator.NewEngine[int](combinator.Or)
	_, _, err := engine.AddSource(-1)
	c.Assert(err, jc.ErrorIsNil)
	_, err = engine.RemoveSource(combinator.SourceID{})
	c.Check(err, jc.ErrorIs, combinator.SourceNotFound)
}

func (s *engineSuite) TestCloseIsIdempotent(c *gc.C) {
	engine := combinator.NewEngine[int](combinator.Or)
	a, _, err := engine.AddSource(-1, 1, 2)
	c.Assert(err, jc.ErrorIsNil)

	engine.Close()
	engine.Close()

	_, err = engine.Apply(a, changes.ChangeSet[int]{changes.NewAdd(3)})
	c.Check(err, jc.ErrorIs, combinator.EngineClosed)
	c.Check(engine.Items(), gc.HasLen, 0)
	c.Check(engine.Stats(), jc.DeepEquals, combinator.Stats{})
}

func (s *engineSuite) TestUnknownChangeType(c *gc.C) {
	engine := combinator.NewEngine[int](combinator.Or)
	a, _, err := engine.AddSource(-1)
	c.Assert(err, jc.ErrorIsNil)
	_, err = engine.Apply(a, changes.ChangeSet[int]{{Type: changes.ChangeType(0)}})
	c.Check(err, gc.ErrorMatches, `applying .* to source .*: change type change-type\(0\) not valid`)
}
