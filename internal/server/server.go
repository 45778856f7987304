package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/DouglasMacKrell/namegnome-serve/internal/applier"
	"github.com/DouglasMacKrell/namegnome-serve/internal/cachestore"
	"github.com/DouglasMacKrell/namegnome-serve/internal/config"
	"github.com/DouglasMacKrell/namegnome-serve/internal/disambig"
	"github.com/DouglasMacKrell/namegnome-serve/internal/jobs"
	"github.com/DouglasMacKrell/namegnome-serve/internal/logging"
	"github.com/DouglasMacKrell/namegnome-serve/internal/planner"
	"github.com/DouglasMacKrell/namegnome-serve/internal/scanner"
)

// Server is the REST front end over the pipeline services.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *cachestore.Store
	scanner  *scanner.Scanner
	planner  *planner.Planner
	executor *applier.Executor
	ledger   *disambig.Ledger
	jobs     *jobs.Controller

	listener net.Listener
	server   *http.Server
}

// New wires the server. All dependencies are passed explicitly; the only
// shared handles are the store and the provider registry inside the planner.
func New(cfg *config.Config, logger *slog.Logger, store *cachestore.Store, scan *scanner.Scanner, plan *planner.Planner, exec *applier.Executor, ledger *disambig.Ledger) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "api"),
		store:    store,
		scanner:  scan,
		planner:  plan,
		executor: exec,
		ledger:   ledger,
		jobs:     jobs.NewController(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/scan", s.handleScan)
	mux.HandleFunc("/plan", s.handlePlan)
	mux.HandleFunc("/disambiguate", s.handleDisambiguate)
	mux.HandleFunc("/apply", s.handleApply)
	mux.HandleFunc("/jobs/", s.handleJobs)

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Start listens on the configured bind address and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Paths.APIBind)
	if err != nil {
		return err
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}
