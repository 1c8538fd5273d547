// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package settlement

import "fmt"

// ErrorCode identifies a kind of settlement failure. Callers branch on
// the code, never on error text.
type ErrorCode int

const (
	// ErrValidation indicates malformed input, e.g. an empty batch or a
	// bucket configuration that does not sum to 10000 bps. Rejected
	// before any state change.
	ErrValidation ErrorCode = iota

	// ErrNotFound indicates an unknown period key, miner or leaf index.
	// Returned to the caller, not retried.
	ErrNotFound

	// ErrConflict indicates losing a concurrent batch-build race. It is
	// resolved internally by fetching the winner's batch and must not
	// surface to API callers as a failure.
	ErrConflict

	// ErrTransientStore indicates a store timeout or unavailability.
	// Retrying is safe because every write is idempotent by key.
	ErrTransientStore

	// ErrIntegrity indicates that a recomputed root does not match the
	// persisted root for a period. Fatal for that period: distribution
	// halts and the operator is alerted.
	ErrIntegrity
)

var errorCodeStrings = map[ErrorCode]string{
	ErrValidation:     "ErrValidation",
	ErrNotFound:       "ErrNotFound",
	ErrConflict:       "ErrConflict",
	ErrTransientStore: "ErrTransientStore",
	ErrIntegrity:      "ErrIntegrity",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error identifies a settlement failure. The caller can use type
// assertions to access the ErrorCode field to ascertain the specific
// reason for the failure.
type Error struct {
	ErrorCode   ErrorCode
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	return e.Description
}

// NewError creates an Error given a set of arguments.
func NewError(c ErrorCode, desc string) Error {
	return Error{ErrorCode: c, Description: desc}
}

// NewErrorf creates an Error with a formatted description.
func NewErrorf(c ErrorCode, format string, args ...interface{}) Error {
	return Error{ErrorCode: c, Description: fmt.Sprintf(format, args...)}
}

// IsErrorCode reports whether err is a settlement Error carrying the
// given code. It unwraps pkg/errors causes.
func IsErrorCode(err error, c ErrorCode) bool {
	type causer interface {
		Cause() error
	}

	for err != nil {
		if serr, ok := err.(Error); ok {
			return serr.ErrorCode == c
		}
		cause, ok := err.(causer)
		if !ok {
			return false
		}
		err = cause.Cause()
	}
	return false
}
