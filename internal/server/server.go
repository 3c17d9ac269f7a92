// Package server provides the HTTP REST API for the pipeline board.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/pipeline-board/internal/board"
	"github.com/jonathan/pipeline-board/internal/history"
	"github.com/jonathan/pipeline-board/internal/stages"
	"github.com/jonathan/pipeline-board/internal/types"
)

// Backend is the system of record the server hosts boards over.
type Backend interface {
	board.Remote
	history.Appender
	ListHistory(ctx context.Context, applicationID string) ([]types.TransitionEvent, error)
	Ping(ctx context.Context) error
}

// Config holds server configuration
type Config struct {
	Port            int
	Registry        *stages.Registry
	Policy          *stages.Policy
	Actor           string
	BulkConcurrency int
	// ActivationDistance is the pointer travel before a press becomes a drag.
	ActivationDistance float64
	// AtomicHistory commits the stage change and its audit record in one
	// operation when the backend supports it.
	AtomicHistory bool
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	backend    Backend
	remote     board.Remote
	registry   *stages.Registry
	policy     *stages.Policy
	history    *history.Logger
	validator  *validator.Validate
	events     *eventHub
	bulkLimit  int
	activation float64

	mu     sync.Mutex
	boards map[string]*board.Board
}

// plainRemote hides any CommitTransition method of the wrapped remote.
type plainRemote struct {
	board.Remote
}

// New creates a new server instance over backend.
func New(cfg Config, backend Backend) *Server {
	if cfg.Registry == nil {
		cfg.Registry = stages.Default()
	}

	var remote board.Remote = backend
	if !cfg.AtomicHistory {
		remote = plainRemote{backend}
	}

	s := &Server{
		backend:    backend,
		remote:     remote,
		registry:   cfg.Registry,
		policy:     cfg.Policy,
		history:    history.NewLogger(backend, history.WithActor(cfg.Actor)),
		validator:  validator.New(),
		events:     newEventHub(),
		bulkLimit:  cfg.BulkConcurrency,
		activation: cfg.ActivationDistance,
		boards:     make(map[string]*board.Board),
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // event streams stay open
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /stages", s.handleListStages)

	// Board endpoints
	mux.HandleFunc("GET /jobs/{job_id}/board", s.handleLoadBoard)
	mux.HandleFunc("GET /jobs/{job_id}/board/view", s.handleBoardView)
	mux.HandleFunc("GET /jobs/{job_id}/board/events", s.handleBoardEvents)
	mux.HandleFunc("POST /jobs/{job_id}/board/drag", s.handleDrag)
	mux.HandleFunc("POST /jobs/{job_id}/board/gesture", s.handleGesture)
	mux.HandleFunc("POST /jobs/{job_id}/board/bulk", s.handleBulk)

	// Selection endpoints
	mux.HandleFunc("GET /jobs/{job_id}/selection", s.handleListSelection)
	mux.HandleFunc("POST /jobs/{job_id}/selection/{id}", s.handleSelect)
	mux.HandleFunc("DELETE /jobs/{job_id}/selection/{id}", s.handleDeselect)

	// Application endpoints
	mux.HandleFunc("POST /applications/{id}/stage", s.handleMoveApplication)
	mux.HandleFunc("GET /applications/{id}/history", s.handleHistory)

	return s.withLogging(s.withCORS(mux))
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.Close()
	log.Println("Server stopped")
	return nil
}

// Close waits for outstanding commits on every hosted board.
func (s *Server) Close() {
	s.mu.Lock()
	boards := make([]*board.Board, 0, len(s.boards))
	for _, b := range s.boards {
		boards = append(boards, b)
	}
	s.mu.Unlock()

	for _, b := range boards {
		b.Close()
	}
}

// boardFor returns the hosted board for jobID, creating it on first use.
func (s *Server) boardFor(jobID string) *board.Board {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.boards[jobID]; ok {
		return b
	}
	b := board.New(s.registry, s.remote, s.history, board.Options{
		Policy:          s.policy,
		Notifier:        s.events,
		BulkConcurrency: s.bulkLimit,
	})
	s.boards[jobID] = b
	return b
}

// loadedBoard returns the board for jobID, loading it if it has never been loaded.
// Integrity problems are logged; the partial board is still served.
func (s *Server) loadedBoard(ctx context.Context, jobID string) (*board.Board, error) {
	b := s.boardFor(jobID)
	if b.Store.Loaded() {
		return b, nil
	}
	if _, err := b.Load(ctx, jobID); err != nil && !isIntegrity(err) {
		return nil, err
	}
	return b, nil
}

func isIntegrity(err error) bool {
	var integrity *board.IntegrityError
	return errors.As(err, &integrity)
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.Ping(r.Context()); err != nil {
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// failure writes err with the status HTTPStatus maps it to.
func (s *Server) failure(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[server] %v", err)
	}
	s.errorResponse(w, status, err.Error())
}
