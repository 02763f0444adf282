package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/config"
	gsheet "fintrack/internal/export/google"
	"fintrack/internal/journal"
	applog "fintrack/internal/log"
	"fintrack/internal/store"
	"fintrack/internal/store/memory"
	"fintrack/internal/store/rest"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	logger.Info("Starting journal-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	jnl, err := journal.Open(cfg.JournalDBPath)
	if err != nil {
		logger.Error("Failed to open commit journal", "error", err, "path", cfg.JournalDBPath)
		os.Exit(1)
	}
	defer jnl.Close()

	var txnStore store.TransactionStore
	switch cfg.StoreBackend {
	case "rest":
		txnStore = rest.New(cfg.StoreBaseURL, cfg.StoreToken, cfg.StoreTimeout)
		logger.Info("Initialized REST store backend", "base_url", cfg.StoreBaseURL)
	default:
		txnStore = memory.New()
		logger.Info("Initialized memory store backend")
	}

	// Audit export to Google Sheets (optional)
	var exporter journal.AuditExporter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Audit export enabled",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleAuditSheet)
	} else {
		logger.Info("Audit export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	processorCfg := journal.DefaultProcessorConfig()
	processorCfg.PollInterval = cfg.WorkerPollInterval
	processorCfg.BatchSize = cfg.WorkerBatchSize
	processorCfg.MaxRetries = cfg.WorkerMaxRetries
	processor := journal.NewProcessor(jnl, txnStore, exporter, processorCfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start journal processor", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := processor.Stop(shutdownCtx); err != nil {
		logger.Warn("Journal processor shutdown error", "error", err)
	}
	logger.Info("Worker shutdown complete")
}
