package jobcli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
	"github.com/anatolykoptev/go_jobclean/internal/engine/quality"
)

func (a *app) qualityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quality <artifact>",
		Short: "Analyze completeness and anomalies of an artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			art, err := quality.LoadArtifact(args[0])
			if err != nil {
				return err
			}
			m := quality.Monitor{Config: quality.ConfigFrom(engine.Cfg)}
			rep := m.Analyze(art.Jobs)
			if a.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), rep)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Batch:                %s\n", art.BatchName)
			fmt.Fprintf(w, "Records:              %d\n", rep.TotalRecords)
			fmt.Fprintf(w, "Overall completeness: %.2f%%\n", rep.OverallCompleteness)
			fmt.Fprintf(w, "Anomalies:            %d (%.2f%%)\n", len(rep.Anomalies), rep.AnomalyRate)
			for typ, n := range rep.AnomalyCounts {
				fmt.Fprintf(w, "  %-20s %d\n", typ, n)
			}
			fmt.Fprintln(w, "Recommendations:")
			for _, r := range rep.Recommendations {
				fmt.Fprintf(w, "  - %s\n", r)
			}
			return nil
		},
	}
}
