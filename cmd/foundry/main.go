// Package main is the entry point for the Foundry Engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cerina/foundry-engine/internal/agent"
	"github.com/cerina/foundry-engine/internal/api"
	"github.com/cerina/foundry-engine/internal/config"
	"github.com/cerina/foundry-engine/internal/log"
	"github.com/cerina/foundry-engine/internal/model"
	"github.com/cerina/foundry-engine/internal/notify"
	"github.com/cerina/foundry-engine/internal/review"
	"github.com/cerina/foundry-engine/internal/store"
	"github.com/cerina/foundry-engine/internal/workflow"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to configuration JSON file")
	flag.Parse()

	if *showVersion {
		fmt.Printf("foundry %s (commit=%s, built=%s)\n", version, commit, date)
		os.Exit(0)
	}

	// Resolve config path: --config flag > FOUNDRY_CONFIG env > auto-discover.
	path := *configPath
	if path == "" {
		path = os.Getenv("FOUNDRY_CONFIG")
	}
	if path == "" {
		path = discoverConfig()
	}
	if path == "" {
		fatal("no config found. Place config.json next to the exe, use --config <path>, or set FOUNDRY_CONFIG.")
	}

	cfg, err := config.Load(path)
	if err != nil {
		fatal(fmt.Sprintf("load config: %v", err))
	}
	log.SetLevel(cfg.LogLevel)

	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		fatal(fmt.Sprintf("open database: %v", err))
	}
	defer db.Close()

	// Wire the generation clients. The canned provider keeps the full
	// pipeline runnable offline, including the escalation path.
	var drafterClient, safetyClient, clinicalClient model.Client
	switch cfg.Model.Provider {
	case "openai":
		client := model.NewOpenAI(model.OpenAIOptions{
			APIKey:  cfg.Model.APIKey,
			BaseURL: cfg.Model.BaseURL,
			Model:   cfg.Model.Name,
		})
		drafterClient, safetyClient, clinicalClient = client, client, client
	default:
		drafterClient = model.CannedDrafter()
		safetyClient = model.CannedSafety()
		clinicalClient = model.CannedClinical()
	}

	validator := &review.Validator{}
	thresholds := review.Thresholds{
		MinEmpathy:   cfg.MinEmpathyScore,
		MinStructure: cfg.MinStructureScore,
	}

	adapters := []agent.Adapter{
		&agent.Drafter{Client: drafterClient},
		&agent.SafetyGuardian{Client: safetyClient, Validator: validator},
		&agent.ClinicalCritic{Client: clinicalClient, Thresholds: thresholds, Validator: validator},
		&agent.CrisisManager{},
	}

	var sink notify.Sink = notify.Nop{}
	if cfg.AlertWebhookURL != "" {
		sink = notify.NewWebhook(cfg.AlertWebhookURL)
	}

	engine := workflow.NewEngine(db, adapters, sink, workflow.Options{
		MaxIterations: cfg.MaxIterations,
		MaxSteps:      cfg.MaxSteps,
		StepTimeout:   time.Duration(cfg.StepTimeoutSec) * time.Second,
		Retry: workflow.RetryPolicy{
			MaxAttempts:     cfg.RetryMaxAttempts,
			InitialInterval: time.Duration(cfg.RetryInitialMS) * time.Millisecond,
			BackoffFactor:   2.0,
			MaxInterval:     5 * time.Second,
		},
	})

	handler := &api.Handler{
		Engine:    engine,
		DB:        db,
		Events:    &store.EventRepo{},
		Critiques: &store.CritiqueRepo{},
	}
	srv := api.NewServer(handler, cfg.ListenAddr)

	// Graceful shutdown on interrupt.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Infof("shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warnf("server shutdown: %v", err)
		}
	}()

	log.Infof("foundry engine listening on %s", cfg.ListenAddr)

	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		fatal(fmt.Sprintf("server error: %v", err))
	}
}

// discoverConfig looks for config.json next to the executable, then in the cwd.
func discoverConfig() string {
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), "config.json")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	if _, err := os.Stat("config.json"); err == nil {
		return "config.json"
	}
	return ""
}

func fatal(msg string) {
	fmt.Fprintf(os.Stderr, "ERROR: %s\n", msg)
	os.Exit(1)
}
