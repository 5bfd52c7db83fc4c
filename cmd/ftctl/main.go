package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ftctl",
	Short: "ftctl operates a single embedded full-text search index",
	Long: `ftctl opens a search index directory directly (no server process
involved) and runs one operation against it: indexing documents, deleting
them, searching, or inspecting/updating settings.`,
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", "./ftcore-data", "index directory")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(compactCmd)
}
