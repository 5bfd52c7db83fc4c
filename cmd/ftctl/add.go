package main

import (
	"bufio"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/turbosearch/ftcore/ftcore"
)

var addCmd = &cobra.Command{
	Use:   "add FILE",
	Short: "add_documents: index newline-delimited JSON documents from FILE",
	Long: `Reads one JSON object per line from FILE (or stdin if FILE is "-")
and runs them through add_documents as a single batch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		method, _ := cmd.Flags().GetString("method")
		primaryKey, _ := cmd.Flags().GetString("primary-key")

		var m ftcore.Method
		switch method {
		case "update":
			m = ftcore.UpdateDocuments
		default:
			m = ftcore.ReplaceDocuments
		}

		f, err := openInput(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		var docs []map[string]interface{}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var doc map[string]interface{}
			if err := json.Unmarshal(line, &doc); err != nil {
				return fmt.Errorf("parse document: %w", err)
			}
			docs = append(docs, doc)
		}
		if err := scanner.Err(); err != nil {
			return err
		}

		ix, err := ftcore.Open(dataDir, ftcore.DefaultOptions(), "ftctl")
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		defer ix.Close()

		stats, err := ix.AddDocuments(docs, m, primaryKey)
		if err != nil {
			return fmt.Errorf("add_documents: %w", err)
		}

		fmt.Printf("indexed: %d\n", stats.Indexed)
		for _, e := range stats.Errors {
			fmt.Printf("error: %s: %v\n", e.External, e.Err)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().String("method", "replace", "replace|update")
	addCmd.Flags().String("primary-key", "", "primary key field name (inferred if omitted)")
}

func openInput(path string) (*os.File, error) {
	if path == "-" {
		return os.Stdin, nil
	}
	return os.Open(path)
}
