// Kestrel - Loan decisions in milliseconds.
// Copyright (c) 2025 openlend
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openlend/kestrel/internal/api"
	"github.com/openlend/kestrel/internal/bus"
	"github.com/openlend/kestrel/internal/cache"
	"github.com/openlend/kestrel/internal/config"
	"github.com/openlend/kestrel/internal/decision"
	"github.com/openlend/kestrel/internal/domain"
	"github.com/openlend/kestrel/internal/notify"
	"github.com/openlend/kestrel/internal/policy"
	"github.com/openlend/kestrel/internal/repository"
	"github.com/openlend/kestrel/internal/rules"
	"github.com/openlend/kestrel/internal/velocity"
	"github.com/openlend/kestrel/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("KESTREL_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting kestrel",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration (tier defaults, optional YAML file, KESTREL_ env vars)
	cfg, err := config.Load(os.Getenv("KESTREL_CONFIG"))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Logging.Level == "debug" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		slog.SetDefault(logger)
	}

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"notifier", cfg.Notifier.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize Notifier
	notifier, err := notify.New(cfg.Notifier)
	if err != nil {
		slog.Error("failed to initialize notifier", "error", err)
		os.Exit(1)
	}
	slog.Info("notifier initialized", "type", cfg.Notifier.Type, "enabled", notifier.Enabled())

	// Initialize Intake Velocity Service
	velocitySvc := velocity.NewService(repo, cacheImpl)
	slog.Info("velocity service initialized")

	// Initialize Eligibility Rule Engine
	engine := rules.NewEngine()
	slog.Info("rule engine initialized", "version", rules.EngineVersion)

	// Initialize Policy Engine with intake getter
	policies, err := policy.NewEngine(velocitySvc.GetIntakeGetter(), 100)
	if err != nil {
		slog.Error("failed to initialize policy engine", "error", err)
		os.Exit(1)
	}

	// Load policies from database (no hardcoded defaults - configure via API)
	if err := loadPoliciesFromDatabase(ctx, repo, policies); err != nil {
		slog.Error("failed to load policies", "error", err)
		os.Exit(1)
	}
	slog.Info("policy engine initialized", "policy_count", policies.PolicyCount())

	// Initialize Decision Processor
	processor := decision.NewProcessor(rules.EngineVersion)
	slog.Info("decision processor initialized")

	// Initialize notification Worker
	notifyWorker := worker.NewWorker(busImpl, notifier)
	if err := notifyWorker.Start(); err != nil {
		slog.Error("failed to start notification worker", "error", err)
	} else {
		slog.Info("notification worker started")
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, engine, policies, processor, velocitySvc, cfg.VelocityWindowSecs, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("kestrel is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop notification worker first
	if err := notifyWorker.Stop(); err != nil {
		slog.Error("failed to stop notification worker", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("kestrel shutdown complete")
}

// loadPoliciesFromDatabase loads policies from the database into the engine.
// All policies must be configured via POST /policies API - no hardcoded defaults.
func loadPoliciesFromDatabase(ctx context.Context, repo domain.Repository, engine *policy.Engine) error {
	dbPolicies, err := repo.ListPolicyConfigs(ctx)
	if err != nil {
		slog.Warn("failed to list policies from database", "error", err)
		return nil // Start with empty policies - they can be added via API
	}

	if len(dbPolicies) > 0 {
		slog.Info("loading policies from database", "count", len(dbPolicies))
		return engine.LoadPolicies(dbPolicies)
	}

	slog.Info("no policies in database - configure via POST /policies API")
	return nil
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║               🪶 KESTREL                  ║")
	fmt.Println("  ║       Loan Decisioning Engine             ║")
	fmt.Println("  ║      Every application, decided.          ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /apply/{loanType}           - Submit a loan application")
	fmt.Println("    GET  /applications               - List applications")
	fmt.Println("    GET  /applications/{id}          - Get application by ID")
	fmt.Println("    PUT  /applications/{id}/status   - Override application status")
	fmt.Println("    DELETE /applications/{id}        - Delete an application")
	fmt.Println("    POST /emi                        - Calculate EMI for a loan")
	fmt.Println("    GET  /loan-details               - List loan products")
	fmt.Println("    GET  /loan-details/{loanType}    - Get a loan product")
	fmt.Println("    GET  /policies                   - List all policies")
	fmt.Println("    POST /policies                   - Create a new policy")
	fmt.Println("    DELETE /policies/{id}            - Delete a policy")
	fmt.Println("    POST /policies/reload            - Hot-reload policies from database")
	fmt.Println("    GET  /health                     - Health check")
	fmt.Println()
}
