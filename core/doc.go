// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

/*
Package core holds the concepts and pure logic of set combination: the
change model, the combining engine and the watcher types they are exchanged
through.

When adding to core:

  - it's fine to import from any subpackage of "github.com/juju/combinator/core"
  - but never import from any other subpackage of "github.com/juju/combinator"
  - no mutable global state
  - nothing that blocks, other than behind a watcher
*/
package core
