package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/pipeline-board/internal/board"
)

var moveCmd = &cobra.Command{
	Use:   "move <application-id> <stage>",
	Short: "Move one application to a stage",
	Long:  "Quick-action transition: move one application to a stage, commit it and record the move in its history.",
	Args:  cobra.ExactArgs(2),
	RunE:  runMove,
}

var (
	moveJobID string
)

func init() {
	moveCmd.Flags().StringVar(&moveJobID, "job", "", "Job ID the application belongs to (required)")
	_ = moveCmd.MarkFlagRequired("job")

	rootCmd.AddCommand(moveCmd)
}

func runMove(cmd *cobra.Command, args []string) error {
	applicationID, stage := args[0], args[1]

	s, err := loadSettings()
	if err != nil {
		return err
	}
	if !s.registry.IsValid(stage) {
		return fmt.Errorf("%w: %s (valid: %v)", board.ErrUnknownStage, stage, s.registry.IDs())
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
	if _, err := b.Load(ctx, moveJobID); err != nil && !errors.As(err, &integrity) {
		return err
	}

	pending, err := b.Mutator.MoveTo(ctx, applicationID, stage)
	if err != nil {
		return err
	}
	if pending == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is already in %s\n", applicationID, stage)
		return nil
	}

	outcome := pending.Wait()
	if !outcome.Committed() {
		return fmt.Errorf("failed to move %s to %s: %w", applicationID, stage, outcome.Err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Moved %s: %s -> %s\n", applicationID, outcome.Transition.From, outcome.Transition.To)
	return nil
}
