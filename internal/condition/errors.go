package condition

import "fmt"

// LexError reports a byte in condition text that does not start a valid token.
type LexError struct {
	Position int    // byte offset of the offending character
	Char     rune   // unexpected character
	Reason   string // optional detail, e.g. "unterminated string"
}

func (e *LexError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("lex error at position %d: %s (%q)", e.Position, e.Reason, e.Char)
	}
	return fmt.Sprintf("lex error at position %d: unexpected character %q", e.Position, e.Char)
}

// ParseError reports a grammar violation: what the parser expected and the
// token it found instead.
type ParseError struct {
	Expected string
	Found    Token
	Position int
	Err      error // optional sentinel, e.g. types.ErrNestingTooDeep
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d: expected %s, found %s", e.Position, e.Expected, e.Found)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// EvalKind classifies evaluation failures.
type EvalKind int

const (
	// EvalMissingField: the message has no value for a referenced field.
	EvalMissingField EvalKind = iota + 1
	// EvalTypeMismatch: the field's kind differs from the literal's kind.
	EvalTypeMismatch
	// EvalUnsupportedOperator: the operator is undefined for the kind
	// (ordering on text or booleans).
	EvalUnsupportedOperator
)

func (k EvalKind) String() string {
	switch k {
	case EvalMissingField:
		return "missing field"
	case EvalTypeMismatch:
		return "type mismatch"
	case EvalUnsupportedOperator:
		return "unsupported operator"
	default:
		return "unknown"
	}
}

// EvalError reports why a comparison could not be evaluated against a message.
type EvalError struct {
	Kind     EvalKind
	Field    string
	Operator CompareOp
	Expected Kind // literal kind (type mismatch, unsupported operator)
	Found    Kind // message value kind (type mismatch)
}

func (e *EvalError) Error() string {
	switch e.Kind {
	case EvalMissingField:
		return fmt.Sprintf("field %q missing from message", e.Field)
	case EvalTypeMismatch:
		return fmt.Sprintf("field %q: type mismatch, expected %s, found %s", e.Field, e.Expected, e.Found)
	case EvalUnsupportedOperator:
		return fmt.Sprintf("field %q: operator %s not supported for %s", e.Field, e.Operator, e.Expected)
	default:
		return fmt.Sprintf("field %q: evaluation error", e.Field)
	}
}
