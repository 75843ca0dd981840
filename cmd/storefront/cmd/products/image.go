package products

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/storefront/internal/cmd/application"
	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
)

// NewImageCommand creates the image subcommand for products.
func NewImageCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image <product-id>",
		Short: "Download a product image",
		Args:  cobra.ExactArgs(1),
		Example: `  storefront products image 4 --out 4.jpg
  storefront products image 4 > 4.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}

			sf, err := app.Storefront()
			if err != nil {
				return err
			}

			if _, err := sf.Product(cmd.Context(), id); errors.IsNotFound(err) {
				// Not shown or stored yet
				if fetchErr := sf.FetchProducts(cmd.Context(), false); fetchErr != nil {
					app.Logger().Warn().Err(fetchErr).Msg("Fetch failed, looking up stored products")
				}
			}

			data, err := sf.ProductImage(cmd.Context(), id)
			if err != nil {
				return err
			}

			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, constants.FilePermissions); err != nil {
				return errors.WrapIO("write", out, err)
			}
			app.Logger().Info().Str("path", out).Int("bytes", len(data)).Msg("Image saved")
			return nil
		},
	}

	cmd.Flags().String("out", "", "Write the image to this file instead of stdout")

	return cmd
}
