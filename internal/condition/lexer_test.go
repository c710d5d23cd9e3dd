// internal/condition/lexer_test.go
package condition

import (
	"errors"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func tokenTypes(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func TestTokenize_Kinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{
			name:  "simple comparison",
			input: "temperature > 25",
			want:  []TokenType{TokenIdentifier, TokenCompare, TokenNumber, TokenEnd},
		},
		{
			name:  "no whitespace",
			input: "a>=1and(b!=\"x\")",
			want: []TokenType{
				TokenIdentifier, TokenCompare, TokenNumber, TokenAnd,
				TokenLParen, TokenIdentifier, TokenCompare, TokenString, TokenRParen, TokenEnd,
			},
		},
		{
			name:  "keywords",
			input: "not x == true or y == false",
			want: []TokenType{
				TokenNot, TokenIdentifier, TokenCompare, TokenBool, TokenOr,
				TokenIdentifier, TokenCompare, TokenBool, TokenEnd,
			},
		},
		{
			name:  "uppercase keyword is identifier",
			input: "AND",
			want:  []TokenType{TokenIdentifier, TokenEnd},
		},
		{
			name:  "keyword prefix is identifier",
			input: "order notes android",
			want:  []TokenType{TokenIdentifier, TokenIdentifier, TokenIdentifier, TokenEnd},
		},
		{
			name:  "empty input",
			input: "",
			want:  []TokenType{TokenEnd},
		},
		{
			name:  "whitespace only",
			input: " \t\r\n",
			want:  []TokenType{TokenEnd},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize(%q) error = %v, want nil", tt.input, err)
			}
			got := tokenTypes(tokens)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTokenize_Operators(t *testing.T) {
	tests := []struct {
		input string
		want  CompareOp
	}{
		{"<", OpLt},
		{"<=", OpLte},
		{">", OpGt},
		{">=", OpGte},
		{"==", OpEq},
		{"!=", OpNeq},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize() error = %v, want nil", err)
			}
			if len(tokens) != 2 {
				t.Fatalf("len(tokens) = %d, want 2", len(tokens))
			}
			if tokens[0].Op != tt.want {
				t.Errorf("Op = %q, want %q", tokens[0].Op, tt.want)
			}
		})
	}
}

func TestTokenize_GreedyOperators(t *testing.T) {
	// "<==" is "<=" followed by a lone "=", which is not a token
	_, err := Tokenize("a <== 1")
	var lexErr *LexError
	if !errors.As(err, &lexErr) {
		t.Fatalf("Tokenize() error = %v, want *LexError", err)
	}
	if lexErr.Position != 4 {
		t.Errorf("Position = %d, want 4", lexErr.Position)
	}
}

func TestTokenize_Numbers(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"0", 0},
		{"25", 25},
		{"1013.25", 1013.25},
		{"-5", -5},
		{"+7.5", 7.5},
		{"007", 7},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize() error = %v, want nil", err)
			}
			if tokens[0].Type != TokenNumber {
				t.Fatalf("Type = %v, want number", tokens[0].Type)
			}
			got, ok := tokens[0].Value.AsNumber()
			if !ok || got != tt.want {
				t.Errorf("Value = %v, want %v", tokens[0].Value, tt.want)
			}
			if tokens[0].Text != tt.input {
				t.Errorf("Text = %q, want %q", tokens[0].Text, tt.input)
			}
		})
	}
}

func TestTokenize_Strings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"active"`, "active"},
		{`'active'`, "active"},
		{`""`, ""},
		{`"it's"`, "it's"},
		{`'say "hi"'`, `say "hi"`},
		{`"a and b > 1"`, "a and b > 1"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize() error = %v, want nil", err)
			}
			got, ok := tokens[0].Value.AsText()
			if !ok || got != tt.want {
				t.Errorf("Value = %v, want %q", tokens[0].Value, tt.want)
			}
		})
	}
}

func TestTokenize_Positions(t *testing.T) {
	tokens, err := Tokenize("  temp >= 10")
	if err != nil {
		t.Fatalf("Tokenize() error = %v, want nil", err)
	}
	want := []int{2, 7, 10, 12}
	for i, pos := range want {
		if tokens[i].Position != pos {
			t.Errorf("token[%d].Position = %d, want %d", i, tokens[i].Position, pos)
		}
	}
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		position int
		char     rune
	}{
		{"lone equals", "a = 1", 2, '='},
		{"lone bang", "!a", 0, '!'},
		{"unknown symbol", "a == 1 & b", 7, '&'},
		{"unterminated string", `status == "active`, 10, '"'},
		{"trailing decimal point", "a > 1.", 5, '.'},
		{"leading decimal point", "a > .5", 4, '.'},
		{"non-ascii", "température > 1", 4, 'é'},
		{"bare sign", "a > -", 4, '-'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			var lexErr *LexError
			if !errors.As(err, &lexErr) {
				t.Fatalf("Tokenize(%q) error = %v, want *LexError", tt.input, err)
			}
			if lexErr.Position != tt.position {
				t.Errorf("Position = %d, want %d", lexErr.Position, tt.position)
			}
			if lexErr.Char != tt.char {
				t.Errorf("Char = %q, want %q", lexErr.Char, tt.char)
			}
		})
	}
}

func TestTokenize_NeverPanics(t *testing.T) {
	const alphabet = "az_19.-+<>=!()\"' "

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("tokenize returns tokens ending in End or an error", prop.ForAll(
		func(input string) bool {
			tokens, err := Tokenize(input)
			if err != nil {
				var lexErr *LexError
				return errors.As(err, &lexErr) && lexErr.Position >= 0 && lexErr.Position < len(input)
			}
			last := tokens[len(tokens)-1]
			return last.Type == TokenEnd && last.Position == len(input)
		},
		gen.AnyString(),
	))

	properties.Property("condition alphabet never panics", prop.ForAll(
		func(picks []int) bool {
			var sb strings.Builder
			for _, i := range picks {
				sb.WriteByte(alphabet[i])
			}
			tokens, err := Tokenize(sb.String())
			if err != nil {
				return true
			}
			_, _ = Parse(tokens)
			return true
		},
		gen.SliceOf(gen.IntRange(0, len(alphabet)-1)),
	))

	properties.TestingRun(t)
}
