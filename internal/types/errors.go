package types

import "errors"

// Sentinel errors for Tripwire operations.
var (
	// ErrRuleNotFound indicates no rule exists with the requested id.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrEmptyCondition indicates a rule was registered without condition text.
	ErrEmptyCondition = errors.New("condition is empty")

	// ErrConditionTooLong indicates condition text exceeds MaxConditionLength.
	ErrConditionTooLong = errors.New("condition exceeds maximum length")

	// ErrNestingTooDeep indicates a condition nests deeper than MaxNestingDepth.
	ErrNestingTooDeep = errors.New("condition nesting exceeds maximum depth")

	// ErrEmptyAction indicates a rule was registered without an action label.
	ErrEmptyAction = errors.New("action is empty")

	// ErrActionTooLong indicates an action label exceeds MaxActionLength.
	ErrActionTooLong = errors.New("action exceeds maximum length")

	// ErrUnsupportedBackend indicates an unknown rule store backend name.
	ErrUnsupportedBackend = errors.New("unsupported store backend")

	// ErrBatchTooLarge indicates a message batch exceeds the configured maximum.
	ErrBatchTooLarge = errors.New("batch exceeds maximum size")
)
