// internal/condition/parser.go
package condition

import (
	"fmt"

	"github.com/solatis/tripwire/internal/types"
)

/*
 * Recursive descent parser.
 *
 * Grammar, lowest to highest precedence:
 *
 *   expr       := or_expr
 *   or_expr    := and_expr ( "or" and_expr )*
 *   and_expr   := not_expr ( "and" not_expr )*
 *   not_expr   := "not" not_expr | comparison
 *   comparison := "(" expr ")" | identifier comp_op literal
 *
 * and/or fold left. Comparisons only ever hold identifier OP literal; there
 * are no arithmetic or field-to-field forms, so a parsed condition cannot
 * express anything beyond comparisons and boolean combinators.
 *
 * Nesting ("(" and "not") is capped at types.MaxNestingDepth.
 */

type parser struct {
	tokens []Token
	pos    int
	depth  int
}

// Parse builds an Expression from a token sequence produced by Tokenize.
// The sequence must end with TokenEnd. Returns *ParseError on any grammar violation,
// including trailing tokens after a complete expression.
func Parse(tokens []Token) (Expression, error) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != TokenEnd {
		tokens = append(tokens, Token{Type: TokenEnd})
	}
	p := &parser{tokens: tokens}

	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != TokenEnd {
		return nil, p.errorf(tok, "'and', 'or' or end of input")
	}
	return expr, nil
}

// peek returns the current token; the trailing TokenEnd is sticky.
func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Type != TokenEnd {
		p.pos++
	}
	return tok
}

func (p *parser) errorf(found Token, expected string) *ParseError {
	return &ParseError{Expected: expected, Found: found, Position: found.Position}
}

func (p *parser) parseOr() (Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expression, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenAnd {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Expression, error) {
	if p.peek().Type != TokenNot {
		return p.parseComparison()
	}
	tok := p.advance()
	if err := p.enter(tok); err != nil {
		return nil, err
	}
	defer p.leave()

	operand, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return Not{Operand: operand}, nil
}

func (p *parser) parseComparison() (Expression, error) {
	tok := p.advance()

	switch tok.Type {
	case TokenLParen:
		if err := p.enter(tok); err != nil {
			return nil, err
		}
		defer p.leave()

		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.advance(); closing.Type != TokenRParen {
			return nil, p.errorf(closing, "')'")
		}
		return inner, nil

	case TokenIdentifier:
		opTok := p.advance()
		if opTok.Type != TokenCompare {
			return nil, p.errorf(opTok, "comparison operator after "+fmt.Sprintf("%q", tok.Text))
		}
		lit := p.advance()
		switch lit.Type {
		case TokenNumber, TokenString, TokenBool:
		default:
			return nil, p.errorf(lit, "literal after "+string(opTok.Op))
		}
		return Comparison{Field: tok.Text, Op: opTok.Op, Literal: lit.Value}, nil

	default:
		return nil, p.errorf(tok, "identifier, 'not' or '('")
	}
}

// enter tracks one level of "(" or "not" nesting.
func (p *parser) enter(tok Token) error {
	p.depth++
	if p.depth > types.MaxNestingDepth {
		return &ParseError{
			Expected: fmt.Sprintf("at most %d levels of nesting", types.MaxNestingDepth),
			Found:    tok,
			Position: tok.Position,
			Err:      types.ErrNestingTooDeep,
		}
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}
