package jobcli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_jobclean/internal/engine/batch"
)

func (a *app) scheduleCmd() *cobra.Command {
	var spec string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Process pending raw files now and on a cron schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			l, err := a.openLedger(ctx)
			if err != nil {
				return err
			}
			defer l.Close()

			s, err := batch.NewScheduler(a.runner(l), spec)
			if err != nil {
				return err
			}
			return s.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&spec, "cron", "@every 1h", "cron spec (standard 5-field or @every/@hourly descriptors)")
	return cmd
}
