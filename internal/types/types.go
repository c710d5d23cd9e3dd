// Package types provides domain models shared across Tripwire components.
//
// Zero-dependency design: types.go, errors.go and rules.go use only the
// standard library so the condition engine can be embedded without pulling
// storage or transport deps. ID utilities in ids.go import uuid.
package types

// RuleID represents a UUIDv7 rule identifier.
// String alias enables type safety while maintaining JSON string serialization.
// UUIDv7 time-ordering makes lexical id order equal to insertion order.
type RuleID string

// String returns the id as a plain string.
func (id RuleID) String() string {
	return string(id)
}

// Resource limits enforced at rule registration time.
const (
	// MaxConditionLength bounds condition text so lexing and parsing stay
	// proportional to a small input.
	MaxConditionLength = 4096

	// MaxNestingDepth limits parenthesis and "not" nesting to keep the
	// recursive descent parser and evaluator shallow.
	MaxNestingDepth = 64

	// MaxActionLength bounds the opaque action label returned to callers.
	MaxActionLength = 1024
)
