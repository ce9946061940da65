package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"lavagens/internal/amqp"
	"lavagens/internal/config"
	"lavagens/internal/core"
	"lavagens/internal/export/google"
	applog "lavagens/internal/log"
	"lavagens/internal/storage"
	"lavagens/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting lavagens-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// The worker reads the same SQLite ledger the server writes.
	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open ledger", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var publisher worker.SummaryPublisher
	if cfg.GoogleSpreadsheetID != "" {
		sheets, err := google.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets publisher", "error", err)
			os.Exit(1)
		}
		publisher = sheets
		logger.Info("Google Sheets publisher initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		publisher = logPublisher{}
		logger.Info("Google Sheets disabled, summaries are logged only")
	}

	syncWorker := worker.NewSyncWorker(repo, publisher, cfg.ResyncInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return syncWorker.Run(ctx)
	})

	if cfg.AMQPURL != "" {
		g.Go(func() error {
			return amqp.ConsumeWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
				func(msg *amqp.ChangeMessage) error {
					return syncWorker.HandleChange(ctx, msg)
				})
		})
		logger.Info("Consuming change notifications",
			"exchange", cfg.AMQPExchange,
			"queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled, relying on periodic resync",
			"interval", cfg.ResyncInterval)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

// logPublisher stands in for Google Sheets when no spreadsheet is configured.
type logPublisher struct{}

func (logPublisher) PublishSummary(ctx context.Context, s core.MonthlySummary) error {
	slog.InfoContext(ctx, "Monthly summary",
		"period", s.Period.String(),
		"revenue", core.FormatAmount(s.Revenue),
		"expense", core.FormatAmount(s.Expense),
		"profit", core.FormatAmount(s.Profit),
		"wash_count", s.WashCount)
	return nil
}
