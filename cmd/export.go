package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/cardshop/cardshop/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the inventory view to an XLSX spreadsheet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		q, err := queryFromFlags(cmd)
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Inventory.List(ctx, q)
		if err != nil {
			return eris.Wrap(err, "export")
		}
		if err := export.WriteXLSX(out, res.Cards, res.Stats); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Wrote %d cards to %s\n", res.Stats.Total, out)
		return nil
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show the candidate models per task, in fallback order",
	RunE: func(cmd *cobra.Command, _ []string) error {
		tasks := cfg.Models.Registry().Tasks()
		names := make([]string, 0, len(tasks))
		for name := range tasks {
			names = append(names, name)
		}
		sort.Strings(names)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TASK\tORDER\tMODEL")
		for _, name := range names {
			for i, m := range tasks[name] {
				fmt.Fprintf(w, "%s\t%d\t%s\n", name, i+1, m)
			}
		}
		return w.Flush()
	},
}

func init() {
	addQueryFlags(exportCmd)
	exportCmd.Flags().String("out", "cards.xlsx", "output file")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(modelsCmd)
}
