package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:   "view <sku>",
	Short: "Display the product view (cached or live) for a SKU",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := getApp().View(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(view)
	},
}

var offersCmd = &cobra.Command{
	Use:   "offers <sku>",
	Short: "Fetch live normalized offers from every vendor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		offers, err := getApp().Offers(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(offers)
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
