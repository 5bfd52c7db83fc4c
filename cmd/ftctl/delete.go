package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turbosearch/ftcore/ftcore"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [EXTERNAL_ID...]",
	Short: "delete documents by external id or by filter",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		filterExpr, _ := cmd.Flags().GetString("filter")

		if filterExpr == "" && len(args) == 0 {
			return fmt.Errorf("must pass either external ids or --filter")
		}

		ix, err := ftcore.Open(dataDir, ftcore.DefaultOptions(), "ftctl")
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		defer ix.Close()

		var stats ftcore.Stats
		if filterExpr != "" {
			stats, err = ix.DeleteByFilter(filterExpr)
		} else {
			stats, err = ix.DeleteByExternalIds(args)
		}
		if err != nil {
			return fmt.Errorf("delete: %w", err)
		}

		fmt.Printf("deleted: %d\n", stats.Indexed)
		return nil
	},
}

func init() {
	deleteCmd.Flags().String("filter", "", "filter expression selecting documents to delete")
}
