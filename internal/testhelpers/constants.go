// Copyright 2018 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package testhelpers

import (
	"time"
)

// ShortWait is how long a test blocks waiting for an event that should
// not arrive. The test really waits this long before continuing.
const ShortWait = 50 * time.Millisecond

// LongWait bounds the wait for an event that should already have
// happened. Tests proceed as soon as the event arrives, so it can be long
// without slowing the suite down.
const LongWait = 10 * time.Second
