package main

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/turbosearch/ftcore/ftcore"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "inspect or update index settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "print the current settings as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		ix, err := ftcore.Open(dataDir, ftcore.DefaultOptions(), "ftctl")
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		defer ix.Close()

		out, err := json.MarshalIndent(ix.Settings(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set FILE",
	Short: "replace settings with the JSON object read from FILE (or stdin if \"-\")",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")

		raw, err := readAll(args[0])
		if err != nil {
			return fmt.Errorf("read settings: %w", err)
		}
		var s ftcore.Settings
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("parse settings: %w", err)
		}

		ix, err := ftcore.Open(dataDir, ftcore.DefaultOptions(), "ftctl")
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		defer ix.Close()

		if err := ix.UpdateSettings(s); err != nil {
			return fmt.Errorf("update settings: %w", err)
		}
		fmt.Println("settings updated")
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func readAll(path string) ([]byte, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
