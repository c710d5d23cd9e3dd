package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/solatis/tripwire/internal/condition"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <condition>",
	Short: "Validate a condition and print its canonical form",
	Long: `check compiles a condition without registering it. On success it prints
the canonical rendering and the message fields the condition reads. On failure
it prints the condition with a caret under the offending position.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	text := args[0]
	out := cmd.OutOrStdout()

	expr, err := condition.Compile(text)
	if err != nil {
		if pos, ok := errorPosition(err); ok {
			fmt.Fprintln(out, text)
			fmt.Fprintln(out, strings.Repeat(" ", pos)+"^")
		}
		return err
	}

	fmt.Fprintln(out, expr.String())
	fmt.Fprintf(out, "fields: %s\n", strings.Join(condition.Fields(expr), ", "))
	return nil
}

func errorPosition(err error) (int, bool) {
	var lexErr *condition.LexError
	if errors.As(err, &lexErr) {
		return lexErr.Position, true
	}
	var parseErr *condition.ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Position, true
	}
	return 0, false
}
