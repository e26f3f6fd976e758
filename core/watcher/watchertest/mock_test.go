// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package watchertest_test

import (
	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	"github.com/juju/worker/v4/workertest"
	gc "gopkg.in/check.v1"

	"github.com/juju/combinator/core/changes"
	"github.com/juju/combinator/core/watcher/watchertest"
)

type mockSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&mockSuite{})

func (s *mockSuite) TestForwardsChanges(c *gc.C) {
	in := make(chan changes.ChangeSet[int], 2)
	w := watchertest.NewMockChangesWatcher[int](in)
	defer workertest.CleanKill(c, w)

	in <- changes.ChangeSet[int]{changes.NewAddRange(1, 2)}
	in <- changes.ChangeSet[int]{changes.NewRemove(1)}

	wc := watchertest.NewChangesWatcherC[int](c, w)
	wc.AssertContents(1, 2)
	wc.AssertChange(changes.NewRemove(1))
	c.Check(wc.Output.Items(), jc.DeepEquals, []int{2})
	wc.AssertNoChange()
}

func (s *mockSuite) TestClosingInputStopsWatcher(c *gc.C) {
	in := make(chan changes.ChangeSet[int])
	w := watchertest.NewMockChangesWatcher[int](in)
	close(in)

	wc := watchertest.NewChangesWatcherC[int](c, w)
	wc.AssertClosed()
	workertest.CheckKilled(c, w)
}

func (s *mockSuite) TestKillErr(c *gc.C) {
	w := watchertest.NewMockWatcher[struct{}](make(chan struct{}))
	w.KillErr(errors.New("boom"))
	c.Check(w.Wait(), gc.ErrorMatches, "boom")
}
