package products

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/storefront/internal/cmd/application"
	"github.com/agentstation/storefront/internal/cmd/filter"
	"github.com/agentstation/storefront/internal/cmd/output"
	"github.com/agentstation/storefront/pkg/errors"
)

// NewListCommand creates the list subcommand for products.
func NewListCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products from the catalog",
		Example: `  storefront products list
  storefront products list --pages 2 -o json
  storefront products list --category electronics --max-price 100`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pages, err := cmd.Flags().GetInt("pages")
			if err != nil {
				return err
			}
			return listProducts(cmd, app, pages, filter.Parse(cmd))
		},
	}

	cmd.Flags().Int("pages", 1, "Number of pages to load")
	filter.AddFlags(cmd)

	return cmd
}

// listProducts loads the requested number of pages and prints the shown list.
func listProducts(cmd *cobra.Command, app application.Application, pages int, productFilter *filter.ProductFilter) error {
	if pages < 1 {
		return &errors.ValidationError{Field: "pages", Value: pages, Message: "must be at least 1"}
	}

	sf, err := app.Storefront()
	if err != nil {
		return err
	}
	logger := app.Logger()

	var fetchErr error
	for i := 0; i < pages; i++ {
		if fetchErr = sf.LoadMore(cmd.Context()); fetchErr != nil {
			break
		}
	}

	state := sf.State()
	if fetchErr != nil {
		if len(state.Products) == 0 {
			return fetchErr
		}
		logger.Warn().Err(fetchErr).Msg(state.Message)
	}

	products := productFilter.Apply(state.Products)
	logger.Debug().
		Int("shown", len(state.Products)).
		Int("matched", len(products)).
		Str("phase", state.Phase.String()).
		Msg("Listing products")

	format := output.DetectFormat(app.OutputFormat())
	return output.WriteProducts(cmd.OutOrStdout(), format, products, state.Layout)
}
