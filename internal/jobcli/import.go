package jobcli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
	"github.com/anatolykoptev/go_jobclean/internal/engine/importer"
)

func (a *app) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [artifact...]",
		Short: "Upsert processed artifacts into Postgres and move them to imported/",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			imp, err := importer.Open(ctx, engine.Cfg)
			if err != nil {
				return err
			}
			defer imp.Close()
			if err := imp.EnsureSchema(ctx); err != nil {
				return err
			}

			var done []importer.Summary
			if len(args) == 0 {
				done, err = imp.ImportPending(ctx)
			} else {
				for _, p := range args {
					s, ierr := imp.ImportFile(ctx, p)
					if ierr != nil {
						err = ierr
						break
					}
					done = append(done, s)
				}
			}

			if a.jsonOutput {
				if werr := writeJSON(cmd.OutOrStdout(), done); werr != nil {
					return werr
				}
			} else {
				for _, s := range done {
					fmt.Fprintf(cmd.OutOrStdout(), "imported %s: %d records -> %s\n", s.BatchName, s.Records, s.MovedTo)
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&engine.Cfg.DatabaseURL, "database-url", engine.Cfg.DatabaseURL, "Postgres connection URL")
	return cmd
}
