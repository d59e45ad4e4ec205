package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/cardshop/cardshop/internal/model"
	"github.com/cardshop/cardshop/internal/view"
)

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "List cards in the inventory",
	Long:  "Prints the filtered, sorted view of the inventory with totals. Use --json for machine-readable output.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		q, err := queryFromFlags(cmd)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Inventory.List(ctx, q)
		if err != nil {
			return eris.Wrap(err, "cards list")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		if len(res.Cards) == 0 {
			fmt.Fprintln(os.Stderr, "No cards found.")
			return nil
		}
		formatCards(os.Stdout, res.Cards, res.Stats)
		return nil
	},
}

// addQueryFlags registers the view filter flags on cmd.
func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().String("status", view.StatusAll, "filter by status (all, inventory, listing, sold)")
	cmd.Flags().String("q", "", "case-insensitive search over name, set, number and game")
	cmd.Flags().String("sort", view.SortDate, "sort field (name, price, date, status)")
	cmd.Flags().String("dir", view.Desc, "sort direction (asc, desc)")
}

func queryFromFlags(cmd *cobra.Command) (view.Query, error) {
	status, _ := cmd.Flags().GetString("status")
	search, _ := cmd.Flags().GetString("q")
	sortBy, _ := cmd.Flags().GetString("sort")
	dir, _ := cmd.Flags().GetString("dir")

	q := view.Query{Status: status, Search: search, Sort: sortBy, Direction: dir}
	return q, q.Validate()
}

func formatCards(out io.Writer, cards []model.Card, stats view.Stats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSET\tSTATUS\tCONDITION\tVALUE\tDATE")
	for _, c := range cards {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\t%s\n",
			truncateID(c.ID), c.Name, c.Set, c.Status,
			c.Grading.Overall.Condition, c.Value(), c.SortDate())
	}
	fmt.Fprintf(w, "\nTOTAL\t%d cards\t\t\t\t%.2f\t\n", stats.Total, stats.TotalValue)
	w.Flush() //nolint:errcheck
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	addQueryFlags(cardsCmd)
	cardsCmd.Flags().Bool("json", false, "print JSON instead of a table")
	rootCmd.AddCommand(cardsCmd)
}
