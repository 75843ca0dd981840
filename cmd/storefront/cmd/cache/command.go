// Package cache provides commands for the local product store.
package cache

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/storefront/internal/cmd/application"
	"github.com/agentstation/storefront/internal/cmd/filter"
	"github.com/agentstation/storefront/internal/cmd/output"
)

// NewCommand creates the cache command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cache",
		GroupID: "core",
		Short:   "Inspect the local product store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newListCommand(app))
	return cmd
}

func newListCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored products without contacting the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sf, err := app.Storefront()
			if err != nil {
				return err
			}

			products := filter.Parse(cmd).Apply(sf.Cached(cmd.Context()))
			app.Logger().Debug().Int("count", len(products)).Msg("Read stored products")

			format := output.DetectFormat(app.OutputFormat())
			return output.WriteProducts(cmd.OutOrStdout(), format, products, sf.CurrentLayoutStyle())
		},
	}
	filter.AddFlags(cmd)
	return cmd
}
