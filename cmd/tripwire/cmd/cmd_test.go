package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// run executes the root command with args and stdin, returning stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCheck_Valid(t *testing.T) {
	out, err := run(t, "", "check", "not (temperature>25 and humidity<30) or pressure == 1013")
	if err != nil {
		t.Fatalf("check error = %v", err)
	}
	want := "not (temperature > 25 and humidity < 30) or pressure == 1013\nfields: temperature, humidity, pressure\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("check output mismatch (-want +got):\n%s", diff)
	}
}

func TestCheck_ErrorCaret(t *testing.T) {
	out, err := run(t, "", "check", "temperature >> 5")
	if err == nil {
		t.Fatal("check error = nil, want lex error")
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 || lines[1] != strings.Repeat(" ", 13)+"^" {
		t.Errorf("caret output = %q", out)
	}
}

func TestEval(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.yaml")
	ruleFile := `rules:
  - condition: temperature > 25
    action: hot
  - condition: humidity < 30
    action: dry
`
	if err := os.WriteFile(rulesPath, []byte(ruleFile), 0o600); err != nil {
		t.Fatal(err)
	}

	stdin := strings.Join([]string{
		`{"temperature": 30, "humidity": 20}`,
		``,
		`{"temperature": 10, "humidity": 50}`,
		`not json`,
		`{"humidity": 10}`,
	}, "\n")

	out, err := run(t, stdin, "eval", "--rules", rulesPath)
	if err != nil {
		t.Fatalf("eval error = %v", err)
	}

	want := strings.Join([]string{
		`{"line":1,"actions":["hot","dry"]}`,
		`{"line":3,"actions":[]}`,
		`{"line":4,"actions":[],"error":"line 4: not a JSON object"}`,
		`{"line":5,"actions":["dry"]}`,
	}, "\n") + "\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("eval output mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_ReportsFailure(t *testing.T) {
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"check", "temperature >"})
	if err := Execute(); err == nil {
		t.Error("Execute() error = nil, want parse error")
	}
}

func TestEval_BadRuleFile(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(rulesPath, []byte("rules:\n  - condition: temperature >\n    action: x\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "", "eval", "--rules", rulesPath); err == nil {
		t.Error("eval with malformed rule error = nil, want error")
	}
}
