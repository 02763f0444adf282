package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/commit"
	"fintrack/internal/config"
	"fintrack/internal/events"
	apphttp "fintrack/internal/http"
	"fintrack/internal/journal"
	applog "fintrack/internal/log"
	"fintrack/internal/session"
	"fintrack/internal/store"
	"fintrack/internal/store/memory"
	"fintrack/internal/store/rest"
	"fintrack/internal/wizard"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Transaction store backend
	var txnStore store.TransactionStore
	switch cfg.StoreBackend {
	case "rest":
		txnStore = rest.New(cfg.StoreBaseURL, cfg.StoreToken, cfg.StoreTimeout)
		logger.Info("Initialized REST store backend", "base_url", cfg.StoreBaseURL)
	default:
		txnStore = memory.New()
		logger.Info("Initialized memory store backend")
	}

	// Commit journal
	jnl, err := journal.Open(cfg.JournalDBPath)
	if err != nil {
		logger.Error("Failed to open commit journal", "error", err, "path", cfg.JournalDBPath)
		os.Exit(1)
	}
	defer jnl.Close()

	// Event publisher (optional)
	var publisher commit.Publisher
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("Event publishing enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("Event publishing disabled - no AMQP_URL provided")
	}

	orchestrator := commit.NewOrchestrator(txnStore, jnl, publisher, cfg.StoreTimeout)

	policy := wizard.PolicyStrict
	if cfg.AllocationMode == "permissive" {
		policy = wizard.PolicyPermissive
	}
	sessions := session.NewStore(cfg.MaxSessions, cfg.SessionTTL, policy)
	defer sessions.Close()

	srv := apphttp.NewServer(":"+cfg.Port, sessions, orchestrator)
	srv.Handler = applog.Middleware(logger.WithComponent(applog.ComponentHTTP))(srv.Handler)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// In-process journal recovery; the standalone journal-worker does the
	// same job when this service runs with a shared journal database.
	processorCfg := journal.DefaultProcessorConfig()
	processorCfg.PollInterval = cfg.WorkerPollInterval
	processorCfg.BatchSize = cfg.WorkerBatchSize
	processorCfg.MaxRetries = cfg.WorkerMaxRetries
	processor := journal.NewProcessor(jnl, txnStore, nil, processorCfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting fintrack server",
			"port", cfg.Port,
			"backend", cfg.StoreBackend,
			"allocation_mode", cfg.AllocationMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return processor.Start(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := processor.Stop(shutdownCtx); err != nil {
			logger.Error("Journal processor shutdown error", "error", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
