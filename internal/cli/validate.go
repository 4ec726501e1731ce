package cli

import (
	"github.com/spf13/cobra"

	"github.com/cognicore/captionsort/internal/report"
)

func newValidateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check group definitions for duplicates and missing reserved groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.settings(cmd)
			if err != nil {
				return err
			}
			comp, err := a.components(cfg)
			if err != nil {
				return err
			}

			report.New(cmd.OutOrStdout()).Registry(comp.Registry)
			return comp.Registry.Require(cfg.KeepFirstN)
		},
	}

	addSettingsFlags(cmd)
	return cmd
}
