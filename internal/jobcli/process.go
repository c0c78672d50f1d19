package jobcli

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
	"github.com/anatolykoptev/go_jobclean/internal/engine/batch"
)

func (a *app) processCmd() *cobra.Command {
	var (
		date      string
		batchName string
	)
	cmd := &cobra.Command{
		Use:   "process [file...]",
		Short: "Run one batch over raw files",
		Long: `Process raw files into one artifact and one run report.

Without arguments every raw file whose content is not yet in the ledger is
processed. --date restricts the run to file names containing YYYYMMDD;
explicit files are processed regardless of the ledger.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel := batch.Pending()
			switch {
			case date != "" && len(args) > 0:
				return errors.Wrap(engine.ErrInvalidSelection, "use either --date or file arguments")
			case date != "":
				sel = batch.ByDate(date)
			case len(args) > 0:
				sel = batch.Files(args...)
			}

			l, err := a.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer l.Close()

			res, err := a.runner(l).Run(cmd.Context(), sel, batchName)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			printResult(cmd, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "only raw files whose name contains this YYYYMMDD date")
	cmd.Flags().StringVar(&batchName, "batch", "", "batch name (default batch_<timestamp>)")
	cmd.Flags().IntVar(&engine.Cfg.ExtractWorkers, "workers", engine.Cfg.ExtractWorkers, "parallel extract workers (1 = sequential)")
	cmd.Flags().Float64Var(&engine.Cfg.FuzzyThreshold, "fuzzy-threshold", engine.Cfg.FuzzyThreshold, "title similarity ratio for fuzzy duplicates")
	return cmd
}

func printResult(cmd *cobra.Command, res *batch.Result) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Batch:     %s (%s)\n", res.BatchName, res.Status)
	fmt.Fprintf(w, "Run ID:    %s\n", res.RunID)
	fmt.Fprintf(w, "Files:     %d processed, %d failed\n", res.FilesProcessed, res.FilesFailed)
	fmt.Fprintf(w, "Jobs:      %d in, %d out\n", res.JobsInput, res.JobsOutput)
	fmt.Fprintf(w, "Duration:  %s\n", res.Duration().Round(time.Millisecond))
	if res.ArtifactPath != "" {
		fmt.Fprintf(w, "Artifact:  %s\n", res.ArtifactPath)
	}
	fmt.Fprintf(w, "Report:    %s\n", res.ReportPath)
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  [%s] %s: %s\n", e.Category, e.Path, e.Message)
	}
}
