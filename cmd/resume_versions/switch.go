package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-versions/internal/session"
	"github.com/jonathan/resume-versions/internal/types"
)

// switchOutput is what the switch command prints
type switchOutput struct {
	State   session.State         `json:"state"`
	Version *types.CompanyVersion `json:"version"`
}

func newSwitchCmd(opts *rootOptions) *cobra.Command {
	var preview bool
	cmd := &cobra.Command{
		Use:   "switch <companyId> <versionId>",
		Short: "Make a version the company's current version",
		Long: `Make a version the company's current version. With --preview the version is only
opened for viewing and the stored current pointer is left alone.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			view := session.NewView(a.manager)
			if _, err := view.Load(cmd.Context(), args[0]); err != nil {
				return err
			}

			var v *types.CompanyVersion
			if preview {
				v, err = view.Open(args[1])
			} else {
				v, err = view.Switch(cmd.Context(), args[1])
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), switchOutput{State: view.Snapshot(), Version: v})
		},
	}
	cmd.Flags().BoolVar(&preview, "preview", false, "Open the version without switching")
	return cmd
}
