package domain

import (
	"errors"
	"fmt"
)

// Sentinel failures surfaced to callers as distinct types.
var (
	// ErrAuthRequired no resolvable principal; all operations fail closed
	ErrAuthRequired = errors.New("authentication required")
	// ErrAccessDenied principal lacks event membership
	ErrAccessDenied = errors.New("access denied")
	// ErrEmptyMessage empty or whitespace-only body
	ErrEmptyMessage = errors.New("message body must not be empty")
	// ErrThreadNotFound no such thread
	ErrThreadNotFound = errors.New("thread not found")
	// ErrRealtimeDisabled subscribe called while the realtime transport is off
	ErrRealtimeDisabled = errors.New("realtime transport is disabled")
)

// PolicyRejectionError means the data store's authorization policy rejected the
// operation. Distinct from ErrAccessDenied: it indicates a policy configuration
// gap, so it carries an actionable message instead of being swallowed.
type PolicyRejectionError struct {
	Op     string
	Detail string
}

func (e *PolicyRejectionError) Error() string {
	return fmt.Sprintf("storage policy rejected %s: %s (check the row-level policy configuration)", e.Op, e.Detail)
}

// ConsistencyFaultError is the recursive-policy-evaluation failure class.
// Read paths degrade to empty results; write paths fail loudly.
type ConsistencyFaultError struct {
	Op     string
	Detail string
}

func (e *ConsistencyFaultError) Error() string {
	return fmt.Sprintf("transient consistency fault during %s: %s", e.Op, e.Detail)
}

// IsConsistencyFault reports whether err is the soft read-degradation class.
func IsConsistencyFault(err error) bool {
	var cf *ConsistencyFaultError
	return errors.As(err, &cf)
}
