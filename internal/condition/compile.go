package condition

import (
	"fmt"
	"strings"

	"github.com/solatis/tripwire/internal/types"
)

// Compile tokenizes and parses condition text.
// Blank text returns a *ParseError wrapping types.ErrEmptyCondition, text
// longer than types.MaxConditionLength returns types.ErrConditionTooLong.
// Lexer and parser failures are returned unwrapped as *LexError / *ParseError.
func Compile(text string) (Expression, error) {
	if strings.TrimSpace(text) == "" {
		end := Token{Type: TokenEnd, Position: len(text)}
		return nil, &ParseError{
			Expected: "identifier, 'not' or '('",
			Found:    end,
			Position: end.Position,
			Err:      types.ErrEmptyCondition,
		}
	}
	if len(text) > types.MaxConditionLength {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", types.ErrConditionTooLong, len(text), types.MaxConditionLength)
	}

	tokens, err := Tokenize(text)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}
