// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import "fmt"

// ErrorCode identifies a kind of error returned while computing a
// transaction's in-pool ancestor set.
type ErrorCode int

const (
	// ErrTooManyAncestors indicates that a transaction's in-pool ancestor
	// count exceeds the configured limit.
	ErrTooManyAncestors ErrorCode = iota

	// ErrAncestorSizeExceeded indicates that the cumulative size of a
	// transaction's in-pool ancestors exceeds the configured limit.
	ErrAncestorSizeExceeded

	// ErrTooManyDescendants indicates that admitting the transaction would
	// push one of its ancestors' in-pool descendant count over the
	// configured limit.
	ErrTooManyDescendants

	// ErrDescendantSizeExceeded indicates that admitting the transaction
	// would push one of its ancestors' in-pool descendant size over the
	// configured limit.
	ErrDescendantSizeExceeded
)

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	switch e {
	case ErrTooManyAncestors:
		return "ErrTooManyAncestors"
	case ErrAncestorSizeExceeded:
		return "ErrAncestorSizeExceeded"
	case ErrTooManyDescendants:
		return "ErrTooManyDescendants"
	case ErrDescendantSizeExceeded:
		return "ErrDescendantSizeExceeded"
	default:
		return fmt.Sprintf("unknown ErrorCode (%d)", int(e))
	}
}

// RuleError identifies an error caused by a transaction violating one of the
// pool's chain-limit invariants. It is non-fatal: the caller (typically
// admission) rejects the offending transaction and continues operating.
type RuleError struct {
	ErrorCode   ErrorCode
	Description string
}

// Error satisfies the error interface.
func (e RuleError) Error() string {
	return e.Description
}

// ruleError creates a RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}
