package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/pipeline-board/internal/board"
	"github.com/jonathan/pipeline-board/internal/observability"
)

var bulkCmd = &cobra.Command{
	Use:   "bulk <stage> <application-id>...",
	Short: "Move several applications to one stage",
	Long:  "Select the given applications and move them all to one stage. Each move is committed independently; the board is reloaded once all of them settle.",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runBulk,
}

var (
	bulkJobID string
	bulkJSON  bool
)

func init() {
	bulkCmd.Flags().StringVar(&bulkJobID, "job", "", "Job ID (required)")
	bulkCmd.Flags().BoolVar(&bulkJSON, "json", false, "Print JSON instead of boxes")
	_ = bulkCmd.MarkFlagRequired("job")

	rootCmd.AddCommand(bulkCmd)
}

func runBulk(cmd *cobra.Command, args []string) error {
	target, ids := args[0], args[1:]

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

	b := s.newBoard(database, database)
	defer b.Close()

	var integrity *board.IntegrityError
	if _, err := b.Load(ctx, bulkJobID); err != nil && !errors.As(err, &integrity) {
		return err
	}

	for _, id := range ids {
		b.Selection.Add(id)
	}
	result, err := b.BulkApply(ctx, target)
	if err != nil && !errors.As(err, &integrity) {
		if errors.Is(err, board.ErrUnknownStage) {
			return err
		}
		// the moves themselves have settled; only the reload failed
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
	}

	if bulkJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		observability.NewPrinter(cmd.OutOrStdout()).PrintBulkResult(result)
	}

	if result.Failed > 0 {
		return fmt.Errorf("%d of %d application(s) could not be moved", result.Failed, len(result.Items))
	}
	return nil
}
