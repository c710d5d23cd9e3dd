// internal/condition/evaluate_test.go
package condition

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestEvaluate_Examples(t *testing.T) {
	tests := []struct {
		name      string
		condition string
		msg       Message
		want      bool
	}{
		{"above threshold", "temperature > 25", Message{"temperature": Number(30)}, true},
		{"below threshold", "temperature > 25", Message{"temperature": Number(20)}, false},
		{"both hold", "temperature > 25 and humidity < 30", Message{"temperature": Number(30), "humidity": Number(20)}, true},
		{"one fails", "temperature > 25 and humidity < 30", Message{"temperature": Number(30), "humidity": Number(50)}, false},
		{"not inverts", "not (pressure > 1013)", Message{"pressure": Number(1000)}, true},
		{"or either", "a > 1 or b > 1", Message{"a": Number(0), "b": Number(2)}, true},
		{"equal boundary", "a >= 10", Message{"a": Number(10)}, true},
		{"strict boundary", "a < 10", Message{"a": Number(10)}, false},
		{"lte", "a <= 10", Message{"a": Number(10)}, true},
		{"numeric equality", "a == 1", Message{"a": Number(1.0)}, true},
		{"numeric inequality", "a != 1", Message{"a": Number(1.5)}, true},
		{"text equality", `status == "active"`, Message{"status": Text("active")}, true},
		{"text inequality", `status != "active"`, Message{"status": Text("idle")}, true},
		{"text is case sensitive", `status == "Active"`, Message{"status": Text("active")}, false},
		{"bool equality", "door_open == true", Message{"door_open": Bool(true)}, true},
		{"bool inequality", "door_open != true", Message{"door_open": Bool(false)}, true},
		{"extra fields ignored", "a > 1", Message{"a": Number(2), "b": Text("x")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Compile(tt.condition)
			if err != nil {
				t.Fatalf("Compile(%q) error = %v, want nil", tt.condition, err)
			}
			got, err := Evaluate(expr, tt.msg)
			if err != nil {
				t.Fatalf("Evaluate() error = %v, want nil", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.condition, got, tt.want)
			}
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name      string
		condition string
		msg       Message
		kind      EvalKind
		field     string
		expected  Kind
		found     Kind
	}{
		{"missing field", "temperature > 25", Message{}, EvalMissingField, "temperature", KindInvalid, KindInvalid},
		{"invalid value counts as missing", "temperature > 25", Message{"temperature": {}}, EvalMissingField, "temperature", KindInvalid, KindInvalid},
		{"text vs number", "temperature > 25", Message{"temperature": Text("hot")}, EvalTypeMismatch, "temperature", KindNumber, KindText},
		{"number vs text", `status == "on"`, Message{"status": Number(1)}, EvalTypeMismatch, "status", KindText, KindNumber},
		{"bool vs number", "door == true", Message{"door": Number(1)}, EvalTypeMismatch, "door", KindBool, KindNumber},
		{"text ordering", `status < "b"`, Message{"status": Text("a")}, EvalUnsupportedOperator, "status", KindText, KindInvalid},
		{"bool ordering", "door >= false", Message{"door": Bool(true)}, EvalUnsupportedOperator, "door", KindBool, KindInvalid},
		{"right operand needed", "a > 1 and b > 1", Message{"a": Number(2)}, EvalMissingField, "b", KindInvalid, KindInvalid},
		{"not propagates", "not a > 1", Message{}, EvalMissingField, "a", KindInvalid, KindInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Compile(tt.condition)
			if err != nil {
				t.Fatalf("Compile(%q) error = %v, want nil", tt.condition, err)
			}
			got, err := Evaluate(expr, tt.msg)
			var evalErr *EvalError
			if !errors.As(err, &evalErr) {
				t.Fatalf("Evaluate() error = %v, want *EvalError", err)
			}
			if got {
				t.Errorf("Evaluate() = true alongside error, want false")
			}
			if evalErr.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", evalErr.Kind, tt.kind)
			}
			if evalErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", evalErr.Field, tt.field)
			}
			if evalErr.Expected != tt.expected {
				t.Errorf("Expected = %v, want %v", evalErr.Expected, tt.expected)
			}
			if evalErr.Found != tt.found {
				t.Errorf("Found = %v, want %v", evalErr.Found, tt.found)
			}
		})
	}
}

func TestEvaluate_ShortCircuit(t *testing.T) {
	// the right operand references a missing field and would fail if evaluated
	tests := []struct {
		condition string
		want      bool
	}{
		{"a > 1 or missing > 1", true},
		{"a < 1 and missing > 1", false},
		{"not (a > 1 or missing > 1)", false},
	}

	msg := Message{"a": Number(5)}
	for _, tt := range tests {
		t.Run(tt.condition, func(t *testing.T) {
			expr, err := Compile(tt.condition)
			if err != nil {
				t.Fatalf("Compile() error = %v, want nil", err)
			}
			got, err := Evaluate(expr, msg)
			if err != nil {
				t.Fatalf("Evaluate() error = %v, want nil", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_DoesNotMutateMessage(t *testing.T) {
	msg := Message{"a": Number(1), "b": Text("x")}
	expr, err := Compile(`a > 0 and b == "x" or c == true`)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	if _, err := Evaluate(expr, msg); err != nil {
		t.Fatalf("Evaluate() error = %v, want nil", err)
	}
	if len(msg) != 2 {
		t.Errorf("len(msg) = %d, want 2", len(msg))
	}
}

func TestEvaluate_NotInversion(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	fullMessage := func(r *rand.Rand) Message {
		return Message{
			"temperature": Number(float64(r.Intn(2000) - 1000)),
			"humidity":    Number(r.NormFloat64() * 1000),
			"pressure":    Number(float64(r.Intn(3))),
			"door_open":   Bool(r.Intn(2) == 0),
			"status":      Text([]string{"", "on", "it's"}[r.Intn(3)]),
			"_x1":         Number(0),
		}
	}

	properties.Property("not e is the negation of e when e evaluates", prop.ForAll(
		func(seed int64) bool {
			r := rand.New(rand.NewSource(seed))
			expr := randomExpression(r, 4)
			msg := fullMessage(r)

			v, err := Evaluate(expr, msg)
			nv, nerr := Evaluate(Not{Operand: expr}, msg)
			if err != nil {
				// same first failing comparison either way
				return nerr != nil && nerr.Error() == err.Error()
			}
			return nerr == nil && nv == !v
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
