// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package changes_test

import (
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/combinator/core/changes"
)

type changeSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&changeSuite{})

func (s *changeSuite) TestValues(c *gc.C) {
	c.Check(changes.NewAdd(1).Values(), jc.DeepEquals, []int{1})
	c.Check(changes.NewRemove(2).Values(), jc.DeepEquals, []int{2})
	c.Check(changes.NewAddRange(1, 2, 3).Values(), jc.DeepEquals, []int{1, 2, 3})
	c.Check(changes.NewRemoveRange(4, 5).Values(), jc.DeepEquals, []int{4, 5})
	c.Check(changes.NewClear[int]().Values(), gc.HasLen, 0)
}

func (s *changeSuite) TestMasks(c *gc.C) {
	c.Check(changes.Add&changes.Additions, gc.Not(gc.Equals), changes.ChangeType(0))
	c.Check(changes.AddRange&changes.Additions, gc.Not(gc.Equals), changes.ChangeType(0))
	c.Check(changes.Clear&changes.Additions, gc.Equals, changes.ChangeType(0))
	c.Check(changes.Clear&changes.Removals, gc.Not(gc.Equals), changes.ChangeType(0))
	c.Check(changes.All, gc.Equals, changes.Additions|changes.Removals)
}

func (s *changeSuite) TestCounts(c *gc.C) {
	cs := changes.ChangeSet[int]{
		changes.NewAdd(1),
		changes.NewAddRange(2, 3),
		changes.NewRemove(4),
		changes.NewClear[int](),
		changes.NewRemoveRange(5, 6, 7),
	}
	c.Check(cs.Adds(), gc.Equals, 3)
	c.Check(cs.Removes(), gc.Equals, 4)
	c.Check(cs.Matching(changes.Clear), gc.HasLen, 1)
	c.Check(cs.Matching(changes.Additions), jc.DeepEquals, changes.ChangeSet[int]{
		changes.NewAdd(1),
		changes.NewAddRange(2, 3),
	})
}

func (s *changeSuite) TestString(c *gc.C) {
	cs := changes.ChangeSet[string]{
		changes.NewAdd("a"),
		changes.NewRemove("b"),
		changes.NewAddRange("c", "d"),
		changes.NewClear[string](),
	}
	c.Check(cs.String(), gc.Equals, "[+a -b +[c d] clear]")
	c.Check(changes.RemoveRange.String(), gc.Equals, "remove-range")
	c.Check(changes.ChangeType(0).String(), gc.Equals, "change-type(0)")
}
