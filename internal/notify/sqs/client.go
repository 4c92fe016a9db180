// Package sqs publishes ingestion run summaries to the notification queue the
// chat-notification relay consumes.
package sqs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"

	envconfig "github.com/meridianops/dealflow-metrics-service/internal/config"
	"github.com/meridianops/dealflow-metrics-service/internal/ingestion"
)

// Client publishes run summaries to SQS.
type Client struct {
	client   *awssqs.Client
	queueURL string
	log      *zap.Logger
}

// NewClient creates a new SQS notification client.
func NewClient(ctx context.Context, sqsConfig envconfig.SQS, log *zap.Logger) (*Client, error) {
	configOpts := []func(*config.LoadOptions) error{
		config.WithRegion(sqsConfig.Region),
	}

	var clientOpts []func(*awssqs.Options)

	// Local development against ElasticMQ.
	if sqsConfig.Endpoint != "" {
		log.Info("Configuring SQS for local development",
			zap.String("endpoint", sqsConfig.Endpoint))
		configOpts = append(configOpts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")))

		clientOpts = append(clientOpts, func(o *awssqs.Options) {
			o.BaseEndpoint = aws.String(sqsConfig.Endpoint)
		})
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := awssqs.NewFromConfig(cfg, clientOpts...)

	log.Info("SQS notification client created",
		zap.String("region", sqsConfig.Region),
		zap.String("queue_url", sqsConfig.QueueURL))

	return &Client{
		client:   client,
		queueURL: sqsConfig.QueueURL,
		log:      log,
	}, nil
}

// PublishRunSummary sends the run report as a JSON message.
func (c *Client) PublishRunSummary(ctx context.Context, report *ingestion.RunReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	_, err = c.client.SendMessage(ctx, &awssqs.SendMessageInput{
		QueueUrl:    aws.String(c.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to publish run summary: %w", err)
	}

	c.log.Info("Published ingestion run summary",
		zap.String("run_id", report.RunID),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", len(report.Failed)))

	return nil
}
