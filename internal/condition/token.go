package condition

import "fmt"

// TokenType represents the type of a token in condition text.
type TokenType int

const (
	// TokenEnd terminates every token sequence
	TokenEnd TokenType = iota
	TokenIdentifier
	TokenNumber
	TokenString
	TokenBool
	TokenCompare
	TokenAnd
	TokenOr
	TokenNot
	TokenLParen
	TokenRParen
)

// String returns the string representation of a token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEnd:
		return "end of input"
	case TokenIdentifier:
		return "identifier"
	case TokenNumber:
		return "number"
	case TokenString:
		return "string"
	case TokenBool:
		return "boolean"
	case TokenCompare:
		return "comparison operator"
	case TokenAnd:
		return "'and'"
	case TokenOr:
		return "'or'"
	case TokenNot:
		return "'not'"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	default:
		return "unknown"
	}
}

// CompareOp is a comparison operator between a field and a literal.
type CompareOp string

const (
	OpLt  CompareOp = "<"
	OpLte CompareOp = "<="
	OpGt  CompareOp = ">"
	OpGte CompareOp = ">="
	OpEq  CompareOp = "=="
	OpNeq CompareOp = "!="
)

// IsOrdering reports whether op requires ordered operands (<, <=, >, >=).
func (op CompareOp) IsOrdering() bool {
	switch op {
	case OpLt, OpLte, OpGt, OpGte:
		return true
	default:
		return false
	}
}

// Token is a single lexeme with its start offset in the condition text.
// Text holds the source spelling, Value the decoded literal for
// number/string/boolean tokens and Op the operator for comparison tokens.
type Token struct {
	Type     TokenType
	Text     string
	Value    Value
	Op       CompareOp
	Position int
}

// String returns a string representation of the token for error messages.
func (t Token) String() string {
	if t.Type == TokenEnd {
		return "end of input"
	}
	return fmt.Sprintf("%s %q", t.Type, t.Text)
}
