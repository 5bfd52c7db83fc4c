package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turbosearch/ftcore/ftcore"
)

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "rewrite the index file to reclaim free pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")

		ix, err := ftcore.Open(dataDir, ftcore.DefaultOptions(), "ftctl")
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		defer ix.Close()

		if err := ix.Compact(); err != nil {
			return fmt.Errorf("compact: %w", err)
		}
		fmt.Println("compaction complete")
		return nil
	},
}
