package cmd

import (
	"bufio"
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/solatis/tripwire/internal/condition"
	"github.com/solatis/tripwire/internal/rules"
	"github.com/spf13/cobra"
)

// maxLineBytes bounds one JSONL message.
const maxLineBytes = 1 << 20

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate JSONL messages from stdin against a rule file",
	Long: `eval loads rules from a YAML file into an in-memory engine, reads one JSON
object per line from stdin and writes one JSON line per message:

  {"line": 1, "actions": ["High temperature alert"]}

Malformed lines produce {"line": N, "error": "..."} and processing continues.
Final statistics are logged on exit.`,
	Args: cobra.NoArgs,
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().String("rules", "", "YAML rule file (required)")
	_ = evalCmd.MarkFlagRequired("rules")
}

type evalLine struct {
	Line    int      `json:"line"`
	Actions []string `json:"actions"`
	Error   string   `json:"error,omitempty"`
}

func runEval(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path, _ := cmd.Flags().GetString("rules")

	defs, err := rules.LoadRuleFile(path)
	if err != nil {
		return err
	}
	engine := rules.NewEngine(rules.NewMemoryStore(), rules.WithLogger(logger))
	if _, err := engine.LoadRules(ctx, defs); err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		out := evalLine{Line: line, Actions: []string{}}
		var fields map[string]any
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&fields); err != nil || fields == nil {
			out.Error = fmt.Sprintf("line %d: not a JSON object", line)
		} else {
			actions, err := engine.ProcessMessage(ctx, condition.MessageFromMap(fields))
			if err != nil {
				return err
			}
			out.Actions = actions
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	stats := engine.GetStatistics()
	logger.Info().
		Uint64("messages_processed", stats.MessagesProcessed).
		Uint64("rules_triggered", stats.RulesTriggered).
		Uint64("evaluation_errors", stats.EvaluationErrors).
		Dur("average_evaluation_time", stats.AverageEvaluationTime).
		Msg("Evaluation complete")
	return nil
}
