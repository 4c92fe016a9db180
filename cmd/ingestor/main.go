package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/meridianops/dealflow-metrics-service/internal/config"
	"github.com/meridianops/dealflow-metrics-service/internal/crm"
	"github.com/meridianops/dealflow-metrics-service/internal/ingestion"
	"github.com/meridianops/dealflow-metrics-service/internal/logger"
	"github.com/meridianops/dealflow-metrics-service/internal/notify/sqs"
	"github.com/meridianops/dealflow-metrics-service/internal/repository/clickhouse"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting ingestor",
		zap.String("environment", cfg.Service.Environment))

	ctx := context.Background()

	entityIDs, err := loadEntityIDs(cfg.Ingestion.EntityIDsFile, os.Args[1:])
	if err != nil {
		log.Fatal("Failed to load entity IDs", zap.Error(err))
	}
	if len(entityIDs) == 0 {
		log.Fatal("No entity IDs given; pass them as arguments or set ENTITY_IDS_FILE")
	}

	// Initialize ClickHouse client
	chClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
	if err != nil {
		log.Fatal("Failed to create ClickHouse client", zap.Error(err))
	}
	defer func() {
		if err := chClient.Close(); err != nil {
			log.Error("Failed to close ClickHouse client", zap.Error(err))
		}
	}()

	// Initialize repository
	repo := clickhouse.NewRepository(chClient, log)

	// Initialize schema (create tables if not exist)
	if err := repo.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize schema", zap.Error(err))
	}
	log.Info("Database schema initialized")

	// Initialize CRM client
	crmClient := crm.NewClient(&cfg.CRM, log)

	// Run-summary notifications are optional.
	var notifier ingestion.Notifier
	if cfg.SQS.QueueURL != "" {
		sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
		if err != nil {
			log.Fatal("Failed to create SQS client", zap.Error(err))
		}
		notifier = sqsClient
	}

	batcher := ingestion.NewBatcher(crmClient, repo, notifier, ingestion.Config{
		BatchSize:     cfg.Ingestion.BatchSize,
		BatchDelay:    cfg.Ingestion.BatchDelay(),
		FetchTimeout:  cfg.Ingestion.FetchTimeout(),
		ProgressEvery: cfg.Ingestion.ProgressEvery,
		FailedIDsPath: cfg.Ingestion.FailedIDsPath,
	}, log)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Shutting down ingestor gracefully")
		cancel()
	}()

	if cfg.Ingestion.Cron == "" {
		runOnce(runCtx, batcher, entityIDs, log)
		return
	}

	// Scheduled mode: run on the configured cron expression until signalled.
	log.Info("Running on schedule", zap.String("cron", cfg.Ingestion.Cron))

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Ingestion.Cron, func() {
		runOnce(runCtx, batcher, entityIDs, log)
	})
	if err != nil {
		log.Fatal("Invalid cron expression", zap.Error(err))
	}

	scheduler.Start()
	<-runCtx.Done()

	stopCtx := scheduler.Stop()
	// Let an in-flight run finish its current batch.
	<-stopCtx.Done()
}

func runOnce(ctx context.Context, batcher *ingestion.Batcher, entityIDs []string, log *zap.Logger) {
	report, err := batcher.Run(ctx, entityIDs)
	if err != nil {
		log.Error("Ingestion run failed", zap.Error(err))
		return
	}

	log.Info("Ingestion run finished",
		zap.String("run_id", report.RunID),
		zap.Int("total", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("no_data", report.NoData),
		zap.Int("retried", report.Retried),
		zap.Int("failed", len(report.Failed)),
		zap.Duration("elapsed", report.Elapsed))
}

// loadEntityIDs takes IDs from the command line, or from a newline-delimited
// file when configured. Blank lines and #-comments are skipped.
func loadEntityIDs(path string, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open entity IDs file: %w", err)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entity IDs file: %w", err)
	}

	return ids, nil
}
