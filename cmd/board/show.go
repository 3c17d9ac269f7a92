package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/spf13/cobra"

	"github.com/jonathan/pipeline-board/internal/board"
	"github.com/jonathan/pipeline-board/internal/observability"
	"github.com/jonathan/pipeline-board/internal/types"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a job's board",
	Long:  "Load a job's applications, partition them by stage and print the board. Filter flags print only matching cards.",
	RunE:  runShow,
}

var (
	showJobID    string
	showSearch   string
	showMinScore float64
	showSource   string
	showJSON     bool
)

func init() {
	showCmd.Flags().StringVar(&showJobID, "job", "", "Job ID (required)")
	showCmd.Flags().StringVar(&showSearch, "search", "", "Case-insensitive match on candidate name or email")
	showCmd.Flags().Float64Var(&showMinScore, "min-score", 0, "Minimum fit score")
	showCmd.Flags().StringVar(&showSource, "source", types.SourceAll, "Application source, or 'all'")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print JSON instead of boxes")
	_ = showCmd.MarkFlagRequired("job")

	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, _ []string) error {
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
	snap, err := b.Load(ctx, showJobID)
	var integrity *board.IntegrityError
	if err != nil {
		if !errors.As(err, &integrity) {
			return err
		}
		log.Printf("[board] %v", err)
	}

	criteria := types.FilterCriteria{Search: showSearch, MinScore: showMinScore, Source: showSource}
	filtered := showSearch != "" || showMinScore > 0 || !criteria.MatchesAllSources()

	out := cmd.OutOrStdout()
	if showJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if filtered {
			return enc.Encode(b.Filter(criteria))
		}
		return enc.Encode(snap)
	}

	printer := observability.NewPrinter(out)
	if filtered {
		printer.PrintView(b.Filter(criteria), s.registry)
		return nil
	}
	printer.PrintBoard(snap, s.registry)
	return nil
}
