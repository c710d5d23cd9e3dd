// internal/condition/lexer.go
package condition

import (
	"strconv"
	"unicode/utf8"
)

/*
 * Condition tokenizer.
 *
 * Single forward pass over the condition bytes. Whitespace separates tokens
 * and is never emitted. Every other byte must begin one of:
 *
 *   identifier   [A-Za-z_][A-Za-z0-9_]*   (and/or/not/true/false are keywords)
 *   number       [+-]?[0-9]+(\.[0-9]+)?
 *   string       '...' or "..."            (no escapes; closing quote ends it)
 *   comparison   <= >= == != < >           (two-byte forms matched first)
 *   parens       ( )
 *
 * A sign is only part of a number when a digit follows it immediately.
 * Keywords are lowercase and case-sensitive. The sequence always ends with
 * a TokenEnd positioned at len(text) so the parser never reads past it.
 */

// Tokenize splits condition text into tokens terminated by TokenEnd.
// Returns *LexError on the first byte that cannot start a token.
func Tokenize(text string) ([]Token, error) {
	tokens := make([]Token, 0, 8)
	i := 0

	for i < len(text) {
		c := text[i]

		switch {
		case isSpace(c):
			i++

		case isIdentStart(c):
			start := i
			for i < len(text) && isIdentPart(text[i]) {
				i++
			}
			tokens = append(tokens, keywordOrIdentifier(text[start:i], start))

		case isDigit(c) || ((c == '+' || c == '-') && i+1 < len(text) && isDigit(text[i+1])):
			tok, next, err := lexNumber(text, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next

		case c == '"' || c == '\'':
			end := i + 1
			for end < len(text) && text[end] != c {
				end++
			}
			if end >= len(text) {
				return nil, &LexError{Position: i, Char: rune(c), Reason: "unterminated string"}
			}
			tokens = append(tokens, Token{
				Type:     TokenString,
				Text:     text[i : end+1],
				Value:    Text(text[i+1 : end]),
				Position: i,
			})
			i = end + 1

		case c == '<' || c == '>' || c == '=' || c == '!':
			op, width := lexOperator(text, i)
			if width == 0 {
				return nil, unexpected(text, i)
			}
			tokens = append(tokens, Token{Type: TokenCompare, Text: string(op), Op: op, Position: i})
			i += width

		case c == '(':
			tokens = append(tokens, Token{Type: TokenLParen, Text: "(", Position: i})
			i++

		case c == ')':
			tokens = append(tokens, Token{Type: TokenRParen, Text: ")", Position: i})
			i++

		default:
			return nil, unexpected(text, i)
		}
	}

	tokens = append(tokens, Token{Type: TokenEnd, Position: len(text)})
	return tokens, nil
}

// keywordOrIdentifier classifies a scanned word.
func keywordOrIdentifier(word string, pos int) Token {
	switch word {
	case "and":
		return Token{Type: TokenAnd, Text: word, Position: pos}
	case "or":
		return Token{Type: TokenOr, Text: word, Position: pos}
	case "not":
		return Token{Type: TokenNot, Text: word, Position: pos}
	case "true":
		return Token{Type: TokenBool, Text: word, Value: Bool(true), Position: pos}
	case "false":
		return Token{Type: TokenBool, Text: word, Value: Bool(false), Position: pos}
	default:
		return Token{Type: TokenIdentifier, Text: word, Position: pos}
	}
}

// lexNumber scans an optionally signed decimal starting at i.
// A '.' must be followed by at least one digit.
func lexNumber(text string, i int) (Token, int, error) {
	start := i
	if text[i] == '+' || text[i] == '-' {
		i++
	}
	for i < len(text) && isDigit(text[i]) {
		i++
	}
	if i < len(text) && text[i] == '.' {
		if i+1 >= len(text) || !isDigit(text[i+1]) {
			return Token{}, 0, &LexError{Position: i, Char: '.', Reason: "expected digit after decimal point"}
		}
		i++
		for i < len(text) && isDigit(text[i]) {
			i++
		}
	}

	spelling := text[start:i]
	f, err := strconv.ParseFloat(spelling, 64)
	if err != nil {
		// only reachable on overflow (e.g. 400 digits)
		return Token{}, 0, &LexError{Position: start, Char: rune(text[start]), Reason: "number out of range"}
	}
	return Token{Type: TokenNumber, Text: spelling, Value: Number(f), Position: start}, i, nil
}

// lexOperator matches two-byte operators before their one-byte prefixes.
// Returns width 0 for a lone '=' or '!'.
func lexOperator(text string, i int) (CompareOp, int) {
	if i+1 < len(text) && text[i+1] == '=' {
		switch text[i] {
		case '<':
			return OpLte, 2
		case '>':
			return OpGte, 2
		case '=':
			return OpEq, 2
		case '!':
			return OpNeq, 2
		}
	}
	switch text[i] {
	case '<':
		return OpLt, 1
	case '>':
		return OpGt, 1
	}
	return "", 0
}

// unexpected builds a LexError for the (possibly multi-byte) character at i.
func unexpected(text string, i int) *LexError {
	r, _ := utf8.DecodeRuneInString(text[i:])
	return &LexError{Position: i, Char: r}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
