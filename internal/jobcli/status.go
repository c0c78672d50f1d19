package jobcli

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
	"github.com/anatolykoptev/go_jobclean/internal/engine/batch"
	"github.com/anatolykoptev/go_jobclean/internal/logger"
)

func (a *app) statusCmd() *cobra.Command {
	var showMetrics bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show file counts and recent files per pipeline directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var l batch.Ledger
			if ol, err := batch.OpenExistingLedger(cmd.Context(), engine.Cfg); err != nil {
				if !errors.Is(err, batch.ErrNoLedger) {
					logger.Logger.Warnw("ledger unavailable", logger.FieldError, err)
				}
			} else {
				l = ol
				defer ol.Close()
			}

			st, err := batch.Status(cmd.Context(), engine.Cfg.RootDir, l)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				out := map[string]any{"status": st}
				if showMetrics {
					out["metrics"] = engine.GetMetrics()
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Root: %s\n", st.Root)
			for _, d := range st.Dirs {
				fmt.Fprintf(w, "%-10s %d files\n", d.Name+"/", d.Count)
				for _, f := range d.Recent {
					fmt.Fprintf(w, "  %s  %s\n", f.ModTime.Format("2006-01-02 15:04:05"), f.Name)
				}
			}
			if st.LedgerSize >= 0 {
				fmt.Fprintf(w, "Ledger: %d processed contents\n", st.LedgerSize)
			}
			if showMetrics {
				fmt.Fprint(w, engine.FormatMetrics())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "also print process counters")
	return cmd
}
