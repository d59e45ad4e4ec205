package main

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/cardshop/cardshop/internal/inference"
	"github.com/cardshop/cardshop/internal/inventory"
	"github.com/cardshop/cardshop/internal/model"
)

var scanCmd = &cobra.Command{
	Use:   "scan <image>...",
	Short: "Grade a card from photos and add it to the inventory",
	Long:  "Sends the front (and optionally back) photos to the grading models, then stores the graded card and its images.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		images, err := readImageFiles(args)
		if err != nil {
			return err
		}

		strictness, _ := cmd.Flags().GetString("strictness")
		feedback, _ := cmd.Flags().GetString("feedback")
		modelID, _ := cmd.Flags().GetString("model")

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		out, err := env.Inventory.Scan(ctx, inventory.ScanInput{
			Images:     images,
			Strictness: model.Strictness(strictness),
			Feedback:   feedback,
			Model:      modelID,
		})
		if err != nil {
			return eris.Wrap(err, "scan")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

var gradeCmd = &cobra.Command{
	Use:   "grade <card-id>",
	Short: "Grade a stored card again, optionally with reviewer feedback",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		strictness, _ := cmd.Flags().GetString("strictness")
		feedback, _ := cmd.Flags().GetString("feedback")
		modelID, _ := cmd.Flags().GetString("model")

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		out, err := env.Inventory.Regrade(ctx, args[0], inventory.RegradeInput{
			Feedback:   feedback,
			Strictness: model.Strictness(strictness),
			Model:      modelID,
		})
		if err != nil {
			return eris.Wrap(err, "grade")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func readImageFiles(paths []string) ([]inference.Image, error) {
	images := make([]inference.Image, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, eris.Wrapf(err, "read image %s", p)
		}
		images = append(images, inference.Image{MIMEType: http.DetectContentType(data), Data: data})
	}
	return images, nil
}

func init() {
	for _, c := range []*cobra.Command{scanCmd, gradeCmd} {
		c.Flags().String("strictness", "", "grading strictness (relaxed, standard, strict); default from settings")
		c.Flags().String("feedback", "", "reviewer feedback to reconsider")
		c.Flags().String("model", "", "preferred model, tried before the configured candidates")
		rootCmd.AddCommand(c)
	}
}
