package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/captionsort/internal/report"
	"github.com/cognicore/captionsort/pkg/captionsort/internalerr"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or show one run in detail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := a.settings(cmd)
			if err != nil {
				return err
			}
			if cfg.ReportDB == "" {
				return fmt.Errorf("no report database: set report_db or --report-db: %w", internalerr.ErrInvalidConfig)
			}
			st, err := a.openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			out := report.New(cmd.OutOrStdout())
			if len(args) == 0 {
				limit, _ := cmd.Flags().GetInt("limit")
				runs, err := st.ListRuns(ctx, limit)
				if err != nil {
					return err
				}
				out.History(runs)
				return nil
			}

			run, found, err := st.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("run %s: %w", args[0], internalerr.ErrNotFound)
			}
			top, _ := cmd.Flags().GetInt("top")
			out.Run(run, top)
			return nil
		},
	}

	cmd.Flags().String("report-db", "", "SQLite file recording run reports")
	cmd.Flags().IntP("limit", "n", 20, "Number of runs to list")
	cmd.Flags().Int("top", 20, "Number of tag counts to show for one run")
	return cmd
}
