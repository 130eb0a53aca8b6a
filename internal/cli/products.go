package cli

import (
	"github.com/spf13/cobra"
)

var (
	addProductID string
	addName      string
)

var addCmd = &cobra.Command{
	Use:   "add <sku>",
	Short: "Register a product SKU for tracking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().AddProduct(cmd.Context(), args[0], addProductID, addName)
	},
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List tracked products",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Products(cmd.Context())
	},
}

func init() {
	addCmd.Flags().StringVar(&addProductID, "product-id", "", "Upstream product identifier (defaults to the SKU)")
	addCmd.Flags().StringVar(&addName, "name", "", "Display name (defaults to the SKU)")
}
