package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/pipeline-board/internal/server"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the pipeline board: loading, filtering, drag and quick-action moves, selection, bulk moves and history.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config, 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	if servePort != 0 {
		s.cfg.Port = servePort
	}

	database, err := s.openDB(context.Background())
	if err != nil {
		return err
	}
	defer database.Close()

	srv := server.New(server.Config{
		Port:               s.cfg.Port,
		Registry:           s.registry,
		Policy:             s.policy,
		Actor:              s.cfg.Actor,
		BulkConcurrency:    s.cfg.BulkConcurrency,
		ActivationDistance: s.cfg.ActivationDistance,
		AtomicHistory:      s.cfg.UseAtomicHistory(),
	}, database)

	if err := srv.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
