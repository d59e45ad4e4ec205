package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/cardshop/cardshop/internal/model"
)

var listingCmd = &cobra.Command{
	Use:   "listing <card-id>...",
	Short: "Generate marketplace listing copy",
	Long:  "Writes a title, eBay description and TCGplayer notes for each card. Several ids run concurrently; a failed card keeps its previous copy.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if len(args) == 1 {
			out, err := env.Inventory.GenerateListing(ctx, args[0])
			if err != nil {
				return eris.Wrap(err, "listing")
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		res, err := env.Inventory.BulkGenerateListings(ctx, args)
		if err != nil {
			return eris.Wrap(err, "listing bulk")
		}
		for _, c := range res.Updated {
			fmt.Fprintf(os.Stdout, "%s\t%s\n", c.ID, c.Listing.Title)
		}
		for id, msg := range res.Failed {
			fmt.Fprintf(os.Stderr, "%s\tfailed: %s\n", id, msg)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <inventory|listing|sold> <card-id>...",
	Short: "Move cards to a lifecycle status",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Inventory.BulkUpdateStatus(ctx, args[1:], model.Status(args[0]))
		if err != nil {
			return eris.Wrap(err, "status")
		}
		fmt.Fprintf(os.Stdout, "%d updated, %d failed\n", len(res.Updated), len(res.Failed))
		for id, msg := range res.Failed {
			fmt.Fprintf(os.Stderr, "%s\tfailed: %s\n", id, msg)
		}
		return nil
	},
}

var marketCmd = &cobra.Command{
	Use:   "market <card-id>",
	Short: "Show market data for a card, refreshing an expired cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		force, _ := cmd.Flags().GetBool("force")

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		card, fetched, err := env.Inventory.MarketData(ctx, args[0], force)
		if err != nil {
			return eris.Wrap(err, "market")
		}
		if !fetched {
			fmt.Fprintln(os.Stderr, "Using cached market data.")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(card.MarketData)
	},
}

func init() {
	marketCmd.Flags().Bool("force", false, "fetch even when the cache is still fresh")

	rootCmd.AddCommand(listingCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(marketCmd)
}
