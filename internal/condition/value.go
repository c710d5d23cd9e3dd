// internal/condition/value.go
package condition

import (
	"strconv"
	"strings"
)

/*
 * Typed values for condition evaluation.
 *
 * Value is a closed tagged union over Number (float64), Text and Boolean.
 * Literals in condition text and fields in a message both become Values.
 * Comparison is only defined within one kind; the evaluator reports a
 * TypeMismatch for cross-kind comparisons instead of coercing.
 */

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindInvalid Kind = iota
	KindNumber
	KindText
	KindBool
)

// String returns the lowercase kind name used in error messages.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "boolean"
	default:
		return "invalid"
	}
}

// Value is an immutable number, text or boolean.
// The zero Value has KindInvalid and never appears in a parsed expression.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
}

// Number returns a numeric Value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Text returns a text Value.
func Text(s string) Value {
	return Value{kind: KindText, str: s}
}

// Bool returns a boolean Value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind {
	return v.kind
}

// AsNumber returns the numeric payload and whether v is a number.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// AsText returns the text payload and whether v is text.
func (v Value) AsText() (string, bool) {
	return v.str, v.kind == KindText
}

// AsBool returns the boolean payload and whether v is a boolean.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Interface returns the payload as float64, string or bool (nil if invalid).
func (v Value) Interface() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindText:
		return v.str
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// String renders v as a condition literal that the lexer reads back to an
// equal Value. Numbers use plain decimal notation (no exponent), text is
// double-quoted unless it contains a double quote.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		if strings.ContainsRune(v.str, '"') {
			return "'" + v.str + "'"
		}
		return `"` + v.str + `"`
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	default:
		return "<invalid>"
	}
}
