package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"bloodlink/internal/platform/config"
	"bloodlink/pkg/platform/audit/worker"
)

const topicSetupTimeout = 15 * time.Second

// startRelay provisions the activity topic and starts draining the outbox.
// The returned client must be closed after the relay stops.
func startRelay(ctx context.Context, cfg config.KafkaConfig, db *sql.DB, logger *slog.Logger) (*kgo.Client, <-chan error, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID("bloodlink-outbox"),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka client: %w", err)
	}

	setupCtx, cancel := context.WithTimeout(ctx, topicSetupTimeout)
	defer cancel()
	admin := kadm.NewClient(client)
	if err := worker.EnsureTopic(setupCtx, admin, cfg.Topic, cfg.Partitions, cfg.ReplicationFactor); err != nil {
		client.Close()
		return nil, nil, err
	}

	w := worker.NewWorker(db, client, cfg.Topic,
		worker.WithBatchSize(cfg.BatchSize),
		worker.WithInterval(cfg.RelayInterval),
		worker.WithLogger(logger),
	)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()
	logger.Info("outbox relay started", "topic", cfg.Topic, "brokers", cfg.Brokers)
	return client, done, nil
}
