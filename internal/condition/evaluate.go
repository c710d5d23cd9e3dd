// internal/condition/evaluate.go
package condition

/*
 * Expression evaluation.
 *
 * Walks a parsed Expression against a Message. And/Or short-circuit left to
 * right, so an error in a right operand is only reported when that operand
 * is actually needed.
 *
 * Comparison rules:
 *   - field absent from message       -> EvalMissingField
 *   - field kind != literal kind      -> EvalTypeMismatch
 *   - number                          -> all six operators, IEEE semantics
 *   - text, boolean                   -> == and != only, otherwise
 *                                        EvalUnsupportedOperator
 *
 * Errors propagate to the caller; nothing is folded into false here. The
 * rules engine decides that a failing rule is skipped for that message.
 */

// Message maps field names to values. Evaluation never mutates it.
type Message map[string]Value

// Evaluate reports whether expr holds for msg.
// Returns *EvalError when a needed comparison cannot be evaluated.
func Evaluate(expr Expression, msg Message) (bool, error) {
	switch n := expr.(type) {
	case Comparison:
		return evaluateComparison(n, msg)

	case And:
		left, err := Evaluate(n.Left, msg)
		if err != nil || !left {
			return false, err
		}
		return Evaluate(n.Right, msg)

	case Or:
		left, err := Evaluate(n.Left, msg)
		if err != nil {
			return false, err
		}
		if left {
			return true, nil
		}
		return Evaluate(n.Right, msg)

	case Not:
		v, err := Evaluate(n.Operand, msg)
		if err != nil {
			return false, err
		}
		return !v, nil

	default:
		return false, nil
	}
}

// evaluateComparison resolves the field and applies the operator.
func evaluateComparison(c Comparison, msg Message) (bool, error) {
	v, ok := msg[c.Field]
	if !ok || v.Kind() == KindInvalid {
		return false, &EvalError{Kind: EvalMissingField, Field: c.Field, Operator: c.Op}
	}

	if v.Kind() != c.Literal.Kind() {
		return false, &EvalError{
			Kind:     EvalTypeMismatch,
			Field:    c.Field,
			Operator: c.Op,
			Expected: c.Literal.Kind(),
			Found:    v.Kind(),
		}
	}

	switch v.Kind() {
	case KindNumber:
		return compareNumbers(c.Op, v.num, c.Literal.num), nil
	case KindText:
		return compareEquality(c, v.str == c.Literal.str)
	case KindBool:
		return compareEquality(c, v.b == c.Literal.b)
	default:
		return false, &EvalError{Kind: EvalMissingField, Field: c.Field, Operator: c.Op}
	}
}

func compareNumbers(op CompareOp, a, b float64) bool {
	switch op {
	case OpLt:
		return a < b
	case OpLte:
		return a <= b
	case OpGt:
		return a > b
	case OpGte:
		return a >= b
	case OpEq:
		return a == b
	case OpNeq:
		return a != b
	default:
		return false
	}
}

// compareEquality applies == / != for kinds without an ordering.
func compareEquality(c Comparison, equal bool) (bool, error) {
	switch c.Op {
	case OpEq:
		return equal, nil
	case OpNeq:
		return !equal, nil
	default:
		return false, &EvalError{
			Kind:     EvalUnsupportedOperator,
			Field:    c.Field,
			Operator: c.Op,
			Expected: c.Literal.Kind(),
		}
	}
}
