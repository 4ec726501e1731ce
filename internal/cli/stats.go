package cli

import (
	"github.com/spf13/cobra"

	"github.com/cognicore/captionsort/internal/report"
	"github.com/cognicore/captionsort/pkg/captionsort"
)

func newStatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <dataset-dir>",
		Short: "Run the pipeline without writing and print tag statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStats(cmd, args[0])
		},
	}

	addSettingsFlags(cmd)
	cmd.Flags().Int("top", 0, "Number of tag counts to print (0 = all)")
	cmd.Flags().Bool("preview", false, "Print the sorted line of every caption")
	cmd.Flags().Bool("show-groups", false, "Print the groups of every caption")
	return cmd
}

func (a *app) runStats(cmd *cobra.Command, root string) error {
	p, err := a.loadPipeline(cmd, root)
	if err != nil {
		return err
	}
	top, _ := cmd.Flags().GetInt("top")
	preview, _ := cmd.Flags().GetBool("preview")
	showGroups, _ := cmd.Flags().GetBool("show-groups")

	res, err := captionsort.New(p.opts).Process(cmd.Context(), root, p.entries)
	if err != nil {
		return err
	}

	out := report.New(cmd.OutOrStdout())
	out.Banned(res.Banned)
	if showGroups {
		out.Groups(res.Entries)
	}
	out.Counts(res.Counts, top)
	out.Unsorted(res.Unsorted, res.Threshold)
	out.Pruned(res.Pruned, res.Counts, res.Threshold)
	if preview {
		out.Previews(res.Entries)
	}
	out.Unresolved(res.Unresolved)
	return nil
}
