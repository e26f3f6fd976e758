// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package watchertest

import (
	"time"

	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/combinator/core/changes"
	"github.com/juju/combinator/core/watcher"
	"github.com/juju/combinator/internal/testhelpers"
)

// ChangesWatcherC embeds a gocheck.C and adds methods to help verify the
// behaviour of a ChangesWatcher. Every change set received is applied to
// Output, so assertions can be made against the materialised contents.
type ChangesWatcherC[T comparable] struct {
	*gc.C
	Watcher watcher.ChangesWatcher[T]
	Output  *changes.Collection[T]
}

// NewChangesWatcherC returns a ChangesWatcherC for w, starting from an
// empty output.
func NewChangesWatcherC[T comparable](c *gc.C, w watcher.ChangesWatcher[T]) ChangesWatcherC[T] {
	return ChangesWatcherC[T]{
		C:       c,
		Watcher: w,
		Output:  changes.NewCollection[T](),
	}
}

// Next waits for the next change set, applies it to the output and
// returns it.
func (c ChangesWatcherC[T]) Next() changes.ChangeSet[T] {
	select {
	case cs, ok := <-c.Watcher.Changes():
		c.Assert(ok, jc.IsTrue, gc.Commentf("watcher closed"))
		c.Assert(c.Output.Apply(cs), jc.ErrorIsNil)
		return cs
	case <-time.After(testhelpers.LongWait):
		c.Fatalf("watcher did not send change")
	}
	return nil
}

// AssertChange asserts that the next change set equals expect.
func (c ChangesWatcherC[T]) AssertChange(expect ...changes.Change[T]) {
	cs := c.Next()
	if expect == nil {
		c.Assert(cs, gc.HasLen, 0)
		return
	}
	c.Assert(cs, jc.DeepEquals, changes.ChangeSet[T](expect))
}

// AssertContents waits for the next change set and asserts that the
// output then holds exactly expect, in any order.
func (c ChangesWatcherC[T]) AssertContents(expect ...T) changes.ChangeSet[T] {
	cs := c.Next()
	if expect == nil {
		expect = []T{}
	}
	c.Assert(c.Output.Items(), jc.SameContents, expect, gc.Commentf("after %v", cs))
	return cs
}

// AssertNoChange asserts that no change set arrives within ShortWait.
func (c ChangesWatcherC[T]) AssertNoChange() {
	select {
	case cs, ok := <-c.Watcher.Changes():
		c.Fatalf("watcher sent unexpected change: (%v, %v)", cs, ok)
	case <-time.After(testhelpers.ShortWait):
	}
}

// AssertClosed asserts that the changes channel gets closed.
func (c ChangesWatcherC[T]) AssertClosed() {
	select {
	case cs, ok := <-c.Watcher.Changes():
		c.Assert(ok, jc.IsFalse, gc.Commentf("unexpected change %v", cs))
	case <-time.After(testhelpers.LongWait):
		c.Fatalf("watcher not closed")
	}
}
