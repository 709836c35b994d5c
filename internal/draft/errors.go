// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package draft

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when Load or Commit is called while an earlier
// Load or Commit on the same store is still in flight.
var ErrBusy = errors.New("draft: operation already in flight")

// LoadError reports a failed snapshot fetch. The store's prior state is
// preserved and the load can be retried.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading snapshot: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// CommitError reports a failed batch write. All pending change-sets are
// preserved and the commit can be retried or discarded.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("committing changes: %v", e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }
