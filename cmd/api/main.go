package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/meridianops/dealflow-metrics-service/docs"
	"github.com/meridianops/dealflow-metrics-service/internal/config"
	"github.com/meridianops/dealflow-metrics-service/internal/crm"
	"github.com/meridianops/dealflow-metrics-service/internal/handler"
	"github.com/meridianops/dealflow-metrics-service/internal/ingestion"
	"github.com/meridianops/dealflow-metrics-service/internal/logger"
	"github.com/meridianops/dealflow-metrics-service/internal/notify/sqs"
	"github.com/meridianops/dealflow-metrics-service/internal/repository/clickhouse"
	"github.com/meridianops/dealflow-metrics-service/internal/repository/postgres"
	"github.com/meridianops/dealflow-metrics-service/internal/service"
)

// @title Deal Flow Metrics Service API
// @version 1.0
// @description Ingests CRM stage-change history and serves stage flow metrics.
// @host localhost:8080
// @BasePath /
// @schemes http https
func main() {
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

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort))

	// Configure Swagger host dynamically
	docs.SwaggerInfo.Host = cfg.Service.Host

	ctx := context.Background()

	// Initialize ClickHouse client
	clickhouseClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
	if err != nil {
		log.Fatal("Failed to create ClickHouse client", zap.Error(err))
	}
	defer func(clickhouseClient *clickhouse.Client) {
		if err := clickhouseClient.Close(); err != nil {
			log.Error("Failed to close ClickHouse client", zap.Error(err))
		}
	}(clickhouseClient)

	// Initialize Postgres client
	postgresClient, err := postgres.NewClient(ctx, &cfg.Postgres, log)
	if err != nil {
		log.Fatal("Failed to create Postgres client", zap.Error(err))
	}
	defer func(postgresClient *postgres.Client) {
		if err := postgresClient.Close(); err != nil {
			log.Error("Failed to close Postgres client", zap.Error(err))
		}
	}(postgresClient)

	// Initialize repositories
	intervalRepo := clickhouse.NewRepository(clickhouseClient, log)
	mappingRepo := postgres.NewRepository(postgresClient, log)

	if err := intervalRepo.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize ClickHouse schema", zap.Error(err))
	}
	if err := mappingRepo.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize Postgres schema", zap.Error(err))
	}

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

	// Initialize batcher
	batcher := ingestion.NewBatcher(crmClient, intervalRepo, notifier, ingestion.Config{
		BatchSize:     cfg.Ingestion.BatchSize,
		BatchDelay:    cfg.Ingestion.BatchDelay(),
		FetchTimeout:  cfg.Ingestion.FetchTimeout(),
		ProgressEvery: cfg.Ingestion.ProgressEvery,
		FailedIDsPath: cfg.Ingestion.FailedIDsPath,
	}, log)

	// Initialize services
	metricsService := service.NewMetricsService(mappingRepo, intervalRepo, log)
	mappingService := service.NewMappingService(mappingRepo, log)
	ingestionService := service.NewIngestionService(batcher, log)

	// Initialize handler
	h := handler.NewHandler(metricsService, mappingService, ingestionService, log)

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	log.Info("API server starting", zap.String("address", addr))

	if err := http.ListenAndServe(addr, h); err != nil {
		log.Fatal("Failed to start API server", zap.Error(err))
	}
}
