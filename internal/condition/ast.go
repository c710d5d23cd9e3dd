// internal/condition/ast.go
package condition

import "strings"

/*
 * Expression tree.
 *
 * Four node kinds: Comparison leaves and And/Or/Not combinators. Nodes are
 * plain values held behind the Expression interface, so a parsed tree is
 * never mutated after construction and can be shared between rules through
 * the condition cache.
 *
 * String() renders canonical condition text: single spaces, double-quoted
 * strings, decimal numbers, and parentheses only where precedence or the
 * left-associative shape of and/or requires them. Parsing the rendered
 * text yields a structurally identical tree.
 */

// Expression is a node of a parsed condition.
type Expression interface {
	String() string
	precedence() int
}

// Precedence levels, lowest binds loosest.
const (
	precOr = iota + 1
	precAnd
	precNot
	precComparison
)

// Comparison tests one message field against a literal.
type Comparison struct {
	Field   string
	Op      CompareOp
	Literal Value
}

// And is true when both operands are true. Right is not evaluated when Left is false.
type And struct {
	Left, Right Expression
}

// Or is true when either operand is true. Right is not evaluated when Left is true.
type Or struct {
	Left, Right Expression
}

// Not inverts its operand.
type Not struct {
	Operand Expression
}

func (c Comparison) String() string {
	return c.Field + " " + string(c.Op) + " " + c.Literal.String()
}

func (a And) String() string {
	return renderBinary(a.Left, "and", a.Right, precAnd)
}

func (o Or) String() string {
	return renderBinary(o.Left, "or", o.Right, precOr)
}

func (n Not) String() string {
	return "not " + renderOperand(n.Operand, n.Operand.precedence() < precNot)
}

func (Comparison) precedence() int { return precComparison }
func (And) precedence() int        { return precAnd }
func (Or) precedence() int         { return precOr }
func (Not) precedence() int        { return precNot }

// renderBinary wraps the left child when it binds looser than the parent
// and the right child when it binds looser or equal, which preserves
// left associativity on reparse.
func renderBinary(left Expression, op string, right Expression, prec int) string {
	var sb strings.Builder
	sb.WriteString(renderOperand(left, left.precedence() < prec))
	sb.WriteString(" ")
	sb.WriteString(op)
	sb.WriteString(" ")
	sb.WriteString(renderOperand(right, right.precedence() <= prec))
	return sb.String()
}

func renderOperand(e Expression, paren bool) string {
	if paren {
		return "(" + e.String() + ")"
	}
	return e.String()
}

// Fields returns the distinct field names referenced by expr in first-use order.
func Fields(expr Expression) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(Expression)
	walk = func(e Expression) {
		switch n := e.(type) {
		case Comparison:
			if !seen[n.Field] {
				seen[n.Field] = true
				out = append(out, n.Field)
			}
		case And:
			walk(n.Left)
			walk(n.Right)
		case Or:
			walk(n.Left)
			walk(n.Right)
		case Not:
			walk(n.Operand)
		}
	}
	walk(expr)
	return out
}
