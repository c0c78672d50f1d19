// Package jobcli holds the cobra commands of the go_jobclean binary.
package jobcli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
	"github.com/anatolykoptev/go_jobclean/internal/engine/batch"
	"github.com/anatolykoptev/go_jobclean/internal/logger"
)

// app is the state shared by all commands of one invocation.
type app struct {
	version string
	tables  *engine.Tables

	verbose    bool
	jsonOutput bool
}

// NewRootCmd builds the command tree. Configuration comes from engine.Cfg,
// already populated from the environment; persistent flags override it.
func NewRootCmd(version string) *cobra.Command {
	a := &app{version: version}
	cfg := engine.Cfg

	root := &cobra.Command{
		Use:   "go_jobclean",
		Short: "Clean, deduplicate and normalize scraped job listings",
		Long: `go_jobclean turns raw scraped job listings into clean, database-ready batches.

Raw HTML and JSON payloads under <root>/raw are extracted, deduplicated across
the whole batch, normalized, and written to <root>/processed together with a
run report and quality metrics.

Examples:
  go_jobclean process                     # process every pending raw file
  go_jobclean process --date 20260615     # process one scrape day
  go_jobclean quality processed/b.json    # analyze an artifact
  go_jobclean status --metrics            # directory and counter overview
  go_jobclean import                      # upsert processed batches into Postgres
  go_jobclean schedule --cron "@every 1h" # process pending files periodically`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Initialize(cfg.LogJSON, a.verbose); err != nil {
				return errors.Wrap(err, "initialize logger")
			}
			if cmd.Name() == "version" {
				return nil
			}
			t, err := engine.LoadTables(cfg.TablesPath)
			if err != nil {
				return err
			}
			a.tables = t
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			logger.Cleanup()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfg.RootDir, "root", cfg.RootDir, "pipeline root containing raw/, processed/, imported/, errors/")
	pf.StringVar(&cfg.TablesPath, "tables", cfg.TablesPath, "YAML file replacing the embedded pattern tables")
	pf.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "shared Redis ledger (default: sqlite under processed/)")
	pf.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "emit JSON logs on stderr")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVarP(&a.jsonOutput, "json", "j", false, "print results as JSON")

	root.AddCommand(
		a.processCmd(),
		a.qualityCmd(),
		a.statusCmd(),
		a.importCmd(),
		a.scheduleCmd(),
		a.versionCmd(),
	)
	return root
}

// openLedger opens the configured ledger.
func (a *app) openLedger(ctx context.Context) (batch.Ledger, error) {
	return batch.OpenLedger(ctx, engine.Cfg)
}

func (a *app) runner(l batch.Ledger) *batch.Runner {
	return batch.NewRunner(engine.Cfg, a.tables, l)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode output")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
