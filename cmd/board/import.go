package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/pipeline-board/internal/ingestion"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import applications from a JSON file",
	Long:  "Validate an application import file against its JSON Schema and insert (or update) every application it lists.",
	RunE:  runImport,
}

var (
	importFile   string
	importDryRun bool
)

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "Path to application import JSON file (required)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate the file without writing to the database")
	_ = importCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	records, err := ingestion.LoadFile(importFile, s.registry)
	if err != nil {
		return fmt.Errorf("invalid import file: %w", err)
	}
	if importDryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "%d application(s) valid, nothing written\n", len(records))
		return nil
	}

	ctx := context.Background()
	database, err := s.openDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	n, err := ingestion.Import(ctx, database, records)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d application(s)\n", n)
	return nil
}
