package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full deployment configuration, loaded once at startup and
// passed explicitly into constructors. Core logic never reads the process
// environment directly.
type Config struct {
	Service    Service
	CRM        CRM
	ClickHouse ClickHouse
	Postgres   Postgres
	SQS        SQS
	Ingestion  Ingestion
}

type Service struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	APIPort     string `envconfig:"API_PORT" default:"8080"`
	Host        string `envconfig:"HOST" default:"localhost:8080"`
}

// CRM configures the stage-history API client, including the client-side
// rate limit that keeps us under the provider's quota.
type CRM struct {
	BaseURL           string `envconfig:"BASE_URL" required:"true"`
	AuthToken         string `envconfig:"AUTH_TOKEN" default:""`
	RequestsPerSecond int    `envconfig:"REQUESTS_PER_SECOND" default:"10"`
	Burst             int    `envconfig:"BURST" default:"20"`
	TimeoutSec        int    `envconfig:"TIMEOUT_SEC" default:"30"`
}

type ClickHouse struct {
	Host            string `envconfig:"HOST" required:"true"`
	Port            string `envconfig:"PORT" required:"true"`
	Database        string `envconfig:"DB" required:"true"`
	User            string `envconfig:"USER" default:""`
	Password        string `envconfig:"PASSWORD" default:""`
	UseTLS          bool   `envconfig:"USE_TLS" default:"false"`
	MaxOpenConns    int    `envconfig:"MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int    `envconfig:"MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime int    `envconfig:"CONN_MAX_LIFETIME_SEC" default:"3600"`
}

type Postgres struct {
	Host         string `envconfig:"HOST" required:"true"`
	Port         string `envconfig:"PORT" default:"5432"`
	Database     string `envconfig:"DB" required:"true"`
	User         string `envconfig:"USER" required:"true"`
	Password     string `envconfig:"PASSWORD" default:""`
	SSLMode      string `envconfig:"SSLMODE" default:"disable"`
	MaxOpenConns int    `envconfig:"MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns int    `envconfig:"MAX_IDLE_CONNS" default:"2"`
}

// SQS configures the optional run-summary notification queue. Notifications
// are disabled when QueueURL is empty.
type SQS struct {
	Endpoint string `envconfig:"ENDPOINT" default:""`
	QueueURL string `envconfig:"QUEUE_URL" default:""`
	Region   string `envconfig:"REGION" default:"us-east-1"`
}

// Ingestion configures the batch job. BatchSize and BatchDelaySec together
// bound the aggregate request rate against the CRM.
type Ingestion struct {
	BatchSize       int    `envconfig:"BATCH_SIZE" default:"40"`
	BatchDelaySec   int    `envconfig:"BATCH_DELAY_SEC" default:"2"`
	FetchTimeoutSec int    `envconfig:"FETCH_TIMEOUT_SEC" default:"30"`
	ProgressEvery   int    `envconfig:"PROGRESS_EVERY" default:"25"`
	FailedIDsPath   string `envconfig:"FAILED_IDS_PATH" default:"failed_entities.json"`
	EntityIDsFile   string `envconfig:"ENTITY_IDS_FILE" default:""`
	Cron            string `envconfig:"CRON" default:""`
}

// BatchDelay returns the inter-batch pause as a duration.
func (i Ingestion) BatchDelay() time.Duration {
	return time.Duration(i.BatchDelaySec) * time.Second
}

// FetchTimeout returns the per-entity fetch timeout as a duration.
func (i Ingestion) FetchTimeout() time.Duration {
	return time.Duration(i.FetchTimeoutSec) * time.Second
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
