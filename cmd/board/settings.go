package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/pipeline-board/internal/board"
	"github.com/jonathan/pipeline-board/internal/config"
	"github.com/jonathan/pipeline-board/internal/db"
	"github.com/jonathan/pipeline-board/internal/history"
	"github.com/jonathan/pipeline-board/internal/stages"
)

var (
	configPath  string
	databaseURL string
	stagesFile  string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to JSON config file")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "db-url", "", "Database URL (overrides DATABASE_URL env var)")
	rootCmd.PersistentFlags().StringVar(&stagesFile, "stages", "", "YAML stage catalog (overrides BOARD_STAGES_FILE env var)")
}

// settings is the resolved configuration of one command invocation.
type settings struct {
	cfg      config.Config
	registry *stages.Registry
	policy   *stages.Policy
}

// loadSettings resolves configuration with precedence flags > config file > environment > defaults.
func loadSettings() (*settings, error) {
	cfg := &config.Config{}
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}
	if stagesFile != "" {
		cfg.StagesFile = stagesFile
	}

	env := config.Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StagesFile:  os.Getenv("BOARD_STAGES_FILE"),
	}
	merged := cfg.MergeWithDefaults(env)
	merged = merged.MergeWithDefaults(config.Defaults())

	if err := merged.Validate(); err != nil {
		return nil, err
	}

	registry, err := merged.Registry()
	if err != nil {
		return nil, fmt.Errorf("failed to load stages: %w", err)
	}

	return &settings{cfg: merged, registry: registry, policy: merged.Policy()}, nil
}

// openDB connects to the configured database.
func (s *settings) openDB(ctx context.Context) (*db.DB, error) {
	if s.cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required (or use --db-url)")
	}
	database, err := db.Connect(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return database, nil
}

// newBoard wires a board for one-shot CLI use.
func (s *settings) newBoard(remote board.Remote, appender history.Appender) *board.Board {
	if !s.cfg.UseAtomicHistory() {
		remote = plainRemote{remote}
	}
	logger := history.NewLogger(appender, history.WithActor(s.cfg.Actor))
	return board.New(s.registry, remote, logger, board.Options{
		Policy:          s.policy,
		BulkConcurrency: s.cfg.BulkConcurrency,
	})
}

// plainRemote hides CommitTransition so history is appended separately.
type plainRemote struct {
	board.Remote
}
