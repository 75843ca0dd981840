// Package layout provides commands for the grid or list preference.
package layout

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/storefront/internal/cmd/application"
)

// NewCommand creates the layout command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "layout",
		GroupID: "core",
		Short:   "Show or toggle the product list layout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current layout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sf, err := app.Storefront()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), sf.CurrentLayoutStyle())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Switch between grid and list",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sf, err := app.Storefront()
			if err != nil {
				return err
			}
			layout, err := sf.ChangeLayoutStyle()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), layout)
			return nil
		},
	})

	return cmd
}
