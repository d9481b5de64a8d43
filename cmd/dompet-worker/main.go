package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"dompet/internal/amqp"
	"dompet/internal/config"
	"dompet/internal/core"
	applog "dompet/internal/log"
	"dompet/internal/mirror"
	"dompet/internal/reports"
	"dompet/internal/store/sqlite"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting dompet-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	// The worker mirrors state pushed by other processes, so it needs
	// the shared sqlite database and the AMQP change feed.
	if cfg.DataBackend != "sqlite" {
		logger.Error("Worker requires the sqlite backend", "data_backend", cfg.DataBackend)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("Worker requires AMQP_URL to receive change notifications")
		os.Exit(1)
	}

	repo, err := sqlite.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge remote change messages into the repository's local hub so
	// any mirror watching this process picks them up.
	go func() {
		err := amqpClient.ConsumeChanges(ctx, func(msg *amqp.ChangeMessage) error {
			logger.Debug("Change received",
				applog.FieldUserID, msg.UserID,
				applog.FieldCollection, msg.Collection)
			repo.Broadcast(msg.UserID, msg.Collection)
			return nil
		})
		if err != nil && err != context.Canceled {
			logger.Error("Message consumption failed", applog.FieldError, err)
		}
		cancel()
	}()

	// Optionally keep a live mirror for one user and log a periodic
	// financial overview. Useful as a liveness signal and for piping
	// summaries into downstream consumers.
	if cfg.UserID != "" {
		manager := mirror.NewManager(repo)
		cancelSub, err := manager.Subscribe(ctx, cfg.UserID)
		if err != nil {
			logger.Error("Failed to subscribe mirror", applog.FieldError, err, applog.FieldUserID, cfg.UserID)
			os.Exit(1)
		}
		defer cancelSub()

		reporter := reports.NewService(manager)

		ticker := time.NewTicker(cfg.ReportPeriod)
		defer ticker.Stop()

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := manager.Err(); err != nil {
						logger.Error("Mirror subscription degraded", applog.FieldError, err)
						continue
					}
					o := reporter.Overview(overviewRange())
					logger.Info("Financial overview",
						applog.FieldUserID, cfg.UserID,
						applog.FieldVersion, manager.Version(),
						"income_rupiah", o.Income.Rupiah,
						"expense_rupiah", o.Expense.Rupiah,
						"net_rupiah", o.Net.Rupiah,
						"goals", len(o.Goals),
						"debts", len(o.Debts))
				}
			}
		}()
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()
}

// overviewRange covers the trailing twelve months.
func overviewRange() core.DateRange {
	now := time.Now()
	return core.DateRange{
		From: core.DateOf(now.AddDate(-1, 0, 0)),
		To:   core.DateOf(now),
	}
}
