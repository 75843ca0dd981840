// Package products provides the products resource command and subcommands.
package products

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/storefront/internal/cmd/application"
	"github.com/agentstation/storefront/pkg/errors"
)

// NewCommand creates the products resource command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products [product-id]",
		GroupID: "core",
		Short:   "Browse catalog products",
		Long: `Fetch products from the remote catalog.

When the catalog cannot be reached the last stored list is shown
together with the reason.`,
		Args: cobra.MaximumNArgs(1),
		Example: `  storefront products list              # First page
  storefront products list --pages 3    # First three pages
  storefront products 4                 # Show product 4
  storefront products image 4 --out 4.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return showProduct(cmd, app, args[0])
			}
			return cmd.Help()
		},
	}

	cmd.AddCommand(NewListCommand(app))
	cmd.AddCommand(NewShowCommand(app))
	cmd.AddCommand(NewImageCommand(app))

	return cmd
}

// parseID parses a product ID argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, &errors.ValidationError{
			Field:   "product-id",
			Value:   arg,
			Message: "must be an integer",
		}
	}
	return id, nil
}
