package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/solatis/tripwire/internal/bench"
	"github.com/solatis/tripwire/internal/core/config"
	"github.com/solatis/tripwire/internal/core/db"
	"github.com/solatis/tripwire/internal/rules"
	"github.com/spf13/cobra"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Compare rule store backends",
	Long: `bench registers rules and processes random temperature/humidity/pressure
messages against each selected backend, reporting add-rule time and messages
per second. The sql backend uses a temporary SQLite database unless --db-url
is given; the nats backend is included when --nats-url is set.`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().Int("rules", 10, "rules to register")
	benchCmd.Flags().Int("messages", 1000, "messages to process")
	benchCmd.Flags().Int64("seed", 1, "random seed for generated messages")
	benchCmd.Flags().StringSlice("backends", []string{config.BackendMemory, config.BackendSQL}, "backends to benchmark")
	benchCmd.Flags().String("nats-url", "", "NATS server URL for the nats backend")
	benchCmd.Flags().Bool("json", false, "print results as JSON")
}

func runBench(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	var opts bench.Options
	opts.Rules, _ = flags.GetInt("rules")
	opts.Messages, _ = flags.GetInt("messages")
	opts.Seed, _ = flags.GetInt64("seed")
	backends, _ := flags.GetStringSlice("backends")
	natsURL, _ := flags.GetString("nats-url")
	asJSON, _ := flags.GetBool("json")

	if natsURL != "" && !slices.Contains(backends, config.BackendNATS) {
		backends = append(backends, config.BackendNATS)
	}

	var results []bench.Result
	for _, backend := range backends {
		logger.Info().Str("backend", backend).Int("rules", opts.Rules).Int("messages", opts.Messages).Msg("Benchmarking")

		store, closeStore, err := benchStore(ctx, backend, natsURL)
		if err != nil {
			logger.Error().Err(err).Str("backend", backend).Msg("Backend unavailable, skipped")
			continue
		}
		res, err := bench.Run(ctx, backend, rules.NewEngine(store), opts)
		closeStore()
		if err != nil {
			return fmt.Errorf("%s: %w", backend, err)
		}
		results = append(results, res)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tADD RULES\tPROCESS\tMSG/SEC\tTRIGGERED\tHEAP DELTA")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%v\t%v\t%.2f\t%d\t%d B\n",
			r.Backend, r.AddRuleTime, r.ProcessTime, r.MessagesPerSecond, r.RulesTriggered, r.HeapDeltaBytes)
	}
	return w.Flush()
}

// benchStore opens a throwaway store for backend.
func benchStore(ctx context.Context, backend, natsURL string) (rules.RuleStore, func(), error) {
	switch strings.ToLower(backend) {
	case config.BackendSQL:
		url, cleanup := dbURL, func() {}
		if url == "" {
			dir, err := os.MkdirTemp("", "tripwire-bench-")
			if err != nil {
				return nil, nil, err
			}
			url = "sqlite://" + filepath.Join(dir, "bench.db")
			cleanup = func() { _ = os.RemoveAll(dir) }
		}
		database, err := db.Open(ctx, url)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closeAll := func() {
			database.Close()
			cleanup()
		}
		if err := db.MigrateUp(ctx, database); err != nil {
			closeAll()
			return nil, nil, err
		}
		store, err := db.NewSQLStore(database)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		return store, closeAll, nil

	case config.BackendNATS:
		if natsURL == "" {
			return nil, nil, fmt.Errorf("--nats-url required for the nats backend")
		}
		return openStore(ctx, config.StoreConfig{
			Backend:    config.BackendNATS,
			NATSURL:    natsURL,
			NATSBucket: "tripwire_bench",
		})

	default:
		return openStore(ctx, config.StoreConfig{Backend: strings.ToLower(backend)})
	}
}
