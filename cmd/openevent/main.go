// OpenEvent booking server — provides the HTTP API, runs the booking
// workflow router, and manages HIL approvals and retention cleanup.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/api"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/calendar"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/catalog"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/cleanup"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/config"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/detect"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/hil"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/llm"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/llm/anthropic"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/llm/openai"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/prefilter"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/session"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/store"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/trace"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/verbalizer"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/version"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/workflow"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// buildProvider constructs the LLM adapter for one registry entry.
// Providers with a missing API key are reported, not fatal: the router
// degrades to the remaining providers and ultimately the fallback reply.
func buildProvider(pc *config.LLMProviderConfig) (llm.Provider, error) {
	switch pc.Type {
	case config.LLMProviderTypeStub:
		return llm.NewStubProvider(), nil
	case config.LLMProviderTypeOpenAI:
		key := os.Getenv(pc.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("environment variable %s is not set", pc.APIKeyEnv)
		}
		return openai.NewFromAPIKey(key, pc.BaseURL, openai.Options{
			Model:       pc.Model,
			MaxTokens:   pc.MaxTokens,
			Temperature: pc.Temperature,
			Timeout:     time.Duration(pc.TimeoutSeconds) * time.Second,
		})
	case config.LLMProviderTypeAnthropic:
		key := os.Getenv(pc.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("environment variable %s is not set", pc.APIKeyEnv)
		}
		return anthropic.NewFromAPIKey(key, pc.BaseURL, anthropic.Options{
			Model:       pc.Model,
			MaxTokens:   pc.MaxTokens,
			Temperature: pc.Temperature,
			Timeout:     time.Duration(pc.TimeoutSeconds) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unsupported provider type %q", pc.Type)
	}
}

func main() {
	// Parse command-line flags
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	// Load .env file from config directory
	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
	} else {
		slog.Info("Loaded environment", "path", envPath)
	}

	logger := slog.Default()

	slog.Info("Starting OpenEvent",
		"version", version.Full(),
		"config_dir", *configDir)

	ctx := context.Background()

	// 1. Initialize configuration
	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	// 2. Open the event store and seed runtime settings on first run
	st := store.New(cfg.Store.DBPath)
	err = st.WithLock(ctx, func(db *store.Database) error {
		if db.Config.ConfigVersion == 0 {
			db.SaveSettings(cfg.Bootstrap)
			slog.Info("Seeded runtime settings from bootstrap config",
				"config_version", db.Config.ConfigVersion)
		}
		return nil
	})
	if err != nil {
		slog.Error("Failed to open event store", "path", cfg.Store.DBPath, "error", err)
		os.Exit(1)
	}
	slog.Info("Event store ready", "path", cfg.Store.DBPath)

	// 3. Build the LLM provider router
	llmRouter := llm.NewRouter(logger)
	registered := 0
	for name, pc := range cfg.LLMProviders.GetAll() {
		pname := models.ProviderName(name)
		if !pname.IsValid() {
			slog.Warn("Skipping provider with unroutable name",
				"provider", name, "type", pc.Type)
			continue
		}
		provider, perr := buildProvider(pc)
		if perr != nil {
			slog.Warn("LLM provider not registered",
				"provider", name, "type", pc.Type, "error", perr)
			continue
		}
		llmRouter.Register(pname, provider)
		registered++
	}
	if registered == 0 {
		slog.Error("No LLM providers could be registered")
		os.Exit(1)
	}
	slog.Info("LLM providers registered", "count", registered)

	// 4. Domain services: detection, scanning, verbalization, catalog, calendar
	detector := detect.New(llmRouter, logger)
	scanner := prefilter.NewScanner(logger)
	verb := verbalizer.New(llmRouter, logger)
	cat := catalog.New(cfg.Rooms, cfg.Products)

	loc, err := time.LoadLocation(cfg.Bootstrap.Venue.Timezone)
	if err != nil {
		slog.Warn("Unknown venue timezone, using UTC",
			"timezone", cfg.Bootstrap.Venue.Timezone, "error", err)
		loc = time.UTC
	}
	cal := calendar.New(cfg.Calendar, loc)

	// 5. Trace bus and session registry
	bus := trace.NewBus(cfg.Bootstrap.Retention.TraceLimit)
	sessions, err := session.NewRegistry(session.DefaultSize, logger)
	if err != nil {
		slog.Error("Failed to create session registry", "error", err)
		os.Exit(1)
	}

	// 6. HIL approval service
	hilSvc := hil.NewService(st, hil.NewLogNotifier(logger), logger)

	// 7. Workflow router; the HIL service resumes through it after approvals
	wf := workflow.NewRouter(workflow.Options{
		Store:      st,
		Detector:   detector,
		Scanner:    scanner,
		Verbalizer: verb,
		HIL:        hilSvc,
		Catalog:    cat,
		Calendar:   cal,
		Trace:      bus,
		Sessions:   sessions,
		Env:        cfg.Environment,
		Logger:     logger,
	})
	hilSvc.SetResumer(wf)
	slog.Info("Workflow router initialized")

	// 8. Start retention cleanup loop
	cleaner := cleanup.NewService(st, bus, logger)
	cleaner.Start(ctx)

	// 9. Start HTTP server (non-blocking)
	httpServer := api.NewServer(wf, st, hilSvc, cfg.Environment, logger)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		slog.Info("HTTP server listening", "addr", addr)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("OpenEvent started successfully",
		"environment", cfg.Environment,
		"hil_mode", cfg.Bootstrap.HILMode.Enabled)

	// 10. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// Graceful shutdown: stop the cleanup loop, then drain HTTP
	cleaner.Stop()

	httpShutdownCtx, httpCancel := context.WithTimeout(ctx, 5*time.Second)
	defer httpCancel()
	if err := httpServer.Shutdown(httpShutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
