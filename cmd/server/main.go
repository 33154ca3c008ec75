/*
main.go - Roster engine server entry point

PURPOSE:
  Initializes and starts the roster engine API server: configuration,
  logging, store selection, dependency wiring, graceful shutdown.

STARTUP SEQUENCE:
  1. Parse flags, load YAML config
  2. Build the logger
  3. Build the period calculator and crew threshold from config
  4. Open the selected store (memory | sqlite | postgres)
  5. Start the HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Path to YAML config file (optional; defaults apply)
  -port    Override the configured HTTP port
  -dev     Human-readable console logging

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, drain in-flight
  requests (30s budget), close the store, exit.

SEE ALSO:
  - config/config.go: configuration shape and defaults
  - api/server.go: router configuration
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/skycruzer/roster-engine/api"
	"github.com/skycruzer/roster-engine/config"
	"github.com/skycruzer/roster-engine/leave"
	"github.com/skycruzer/roster-engine/logging"
	"github.com/skycruzer/roster-engine/roster"
	"github.com/skycruzer/roster-engine/store/memory"
	"github.com/skycruzer/roster-engine/store/postgres"
	"github.com/skycruzer/roster-engine/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	port := flag.Int("port", 0, "override HTTP port")
	dev := flag.Bool("dev", false, "human-readable console logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	log, err := logging.New(cfg.LogLevel, *dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger setup failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config validated these already; errors here are impossible.
	calc, _ := cfg.Calculator()
	threshold, _ := cfg.Threshold()

	store, closeStore, err := openStore(cfg, calc)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer closeStore()

	handler := api.NewHandler(store, calc, threshold, cfg.Rules.LateCutoffDays, log)
	router := api.NewRouter(handler, log)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("driver", cfg.Database.Driver),
			zap.String("anchor", calc.Anchor().String()),
			zap.Int("minimum_crew", threshold.MinimumCrew))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}

// openStore builds the configured AdmissionStore and its closer.
func openStore(cfg config.Config, calc *roster.Calculator) (leave.AdmissionStore, func(), error) {
	switch cfg.Database.Driver {
	case "memory":
		return memory.New(calc), func() {}, nil
	case "sqlite":
		s, err := sqlite.New(cfg.Database.Path, calc)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := postgres.New(ctx, cfg.Database.DSN, calc)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
