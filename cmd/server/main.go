// Package main is the entry point for the cash-flow asset risk scoring and
// basket allocation service.
//
// The application follows clean architecture principles:
// - Domain layer is pure (no infrastructure dependencies)
// - Repository pattern for data access
// - Service layer for business logic
// - HTTP handlers for API endpoints
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aquifer-fi/aquifer/internal/config"
	"github.com/aquifer-fi/aquifer/internal/database"
	"github.com/aquifer-fi/aquifer/internal/modules/baskets"
	"github.com/aquifer-fi/aquifer/internal/modules/enhance"
	"github.com/aquifer-fi/aquifer/internal/modules/scoring"
	"github.com/aquifer-fi/aquifer/internal/modules/underwriting"
	underwritinghandlers "github.com/aquifer-fi/aquifer/internal/modules/underwriting/handlers"
	"github.com/aquifer-fi/aquifer/internal/scheduler"
	"github.com/aquifer-fi/aquifer/internal/server"
	"github.com/aquifer-fi/aquifer/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Int("port", cfg.Port).Msg("Starting aquifer")

	// Two-database architecture:
	// - baskets.db: current basket state, membership, snapshots
	// - ledger.db: append-only assignment ledger
	basketsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "baskets.db"),
		Profile: database.ProfileStandard,
		Name:    "baskets",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open baskets database")
	}
	defer basketsDB.Close()

	ledgerDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger database")
	}
	defer ledgerDB.Close()

	for _, db := range []*database.DB{basketsDB, ledgerDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to migrate database")
		}
	}

	// Wire services
	repo := baskets.NewSQLRepository(basketsDB.Conn(), ledgerDB.Conn(), log)
	allocator, err := baskets.NewAllocator(repo, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize allocator")
	}

	var enhancer enhance.Enhancer = enhance.NewNoop()
	if cfg.EnhancerURL != "" {
		enhancer = enhance.NewClient(cfg.EnhancerURL, cfg.EnhancerTimeout, log)
		log.Info().Str("url", cfg.EnhancerURL).Dur("timeout", cfg.EnhancerTimeout).
			Msg("Enhancement service enabled")
	}

	registry := scoring.NewRegistry()
	service := underwriting.NewService(registry, allocator, enhancer, log)

	// Periodic maintenance jobs
	sched := scheduler.New(allocator, repo, log)
	if err := sched.Register(cfg.ResyncSchedule); err != nil {
		log.Fatal().Err(err).Msg("Failed to register scheduled jobs")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Log:                 log,
		Config:              cfg,
		Port:                cfg.Port,
		UnderwritingHandler: underwritinghandlers.NewHandler(service, allocator, log),
		SystemHandlers:      server.NewSystemHandlers(basketsDB, ledgerDB, log),
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			log.Fatal().Err(err).Msg("Server failed")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}
