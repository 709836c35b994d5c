// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package generation

import "fmt"

// Error reports a failed upstream generation or translation call. No
// local state is affected; the caller may simply retry.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("generation %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ParseError reports an upstream response that did not contain the
// expected structured payload. It unwraps to *Error, and keeps the raw
// payload for diagnosis.
type ParseError struct {
	Op  string
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("generation %s: parsing response: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error {
	return &Error{Op: e.Op, Err: e.Err}
}
