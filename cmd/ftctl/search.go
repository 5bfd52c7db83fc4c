package main

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/turbosearch/ftcore/ftcore"
)

var searchCmd = &cobra.Command{
	Use:   "search [QUERY]",
	Short: "run one search query and print the matching hits as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		filterExpr, _ := cmd.Flags().GetString("filter")
		offset, _ := cmd.Flags().GetInt("offset")
		limit, _ := cmd.Flags().GetInt("limit")
		matchingStrategy, _ := cmd.Flags().GetString("matching-strategy")
		showScore, _ := cmd.Flags().GetBool("show-ranking-score")
		cropLength, _ := cmd.Flags().GetInt("crop-length")

		var q string
		if len(args) == 1 {
			q = args[0]
		}

		ix, err := ftcore.Open(dataDir, ftcore.DefaultOptions(), "ftctl")
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		defer ix.Close()

		result, err := ix.Search(ftcore.Query{
			Text:             q,
			Filter:           filterExpr,
			Offset:           offset,
			Limit:            limit,
			MatchingStrategy: matchingStrategy,
			ShowRankingScore: showScore,
			CropLength:       cropLength,
		})
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	searchCmd.Flags().String("filter", "", "filter expression")
	searchCmd.Flags().Int("offset", 0, "result offset")
	searchCmd.Flags().Int("limit", 20, "result limit")
	searchCmd.Flags().String("matching-strategy", "all", "all|last|frequency")
	searchCmd.Flags().Bool("show-ranking-score", false, "include per-hit ranking score")
	searchCmd.Flags().Int("crop-length", 0, "crop highlighted fields to this many words (0 disables)")
}
