package products

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/storefront/internal/cmd/application"
	"github.com/agentstation/storefront/internal/cmd/output"
	"github.com/agentstation/storefront/pkg/catalogs"
)

// NewShowCommand creates the show subcommand for products.
func NewShowCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "show <product-id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showProduct(cmd, app, args[0])
		},
	}
}

// showProduct fetches the first page, then looks the product up in the
// shown list or the local store.
func showProduct(cmd *cobra.Command, app application.Application, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}

	sf, err := app.Storefront()
	if err != nil {
		return err
	}

	if err := sf.FetchProducts(cmd.Context(), false); err != nil {
		app.Logger().Warn().Err(err).Msg("Fetch failed, looking up stored products")
	}

	product, err := sf.Product(cmd.Context(), id)
	if err != nil {
		return err
	}

	format := output.DetectFormat(app.OutputFormat())
	if format.IsTable() {
		return output.WriteProducts(cmd.OutOrStdout(), output.FormatWide, []catalogs.Product{product}, catalogs.LayoutList)
	}
	return output.NewFormatter(format).Format(cmd.OutOrStdout(), product)
}
