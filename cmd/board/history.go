package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonathan/pipeline-board/internal/observability"
)

var historyCmd = &cobra.Command{
	Use:   "history <application-id>",
	Short: "Print an application's stage history",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	ctx := context.Background()
	database, err := s.openDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	events, err := database.ListHistory(ctx, args[0])
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintHistory(args[0], events)
	return nil
}
