package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"healthfund/internal/platform/config"
	"healthfund/internal/platform/kafka"
	"healthfund/internal/platform/postgres"
	platformredis "healthfund/internal/platform/redis"
)

const (
	topicPartitions  = 3
	topicReplication = 1
	startupTimeout   = 30 * time.Second
)

// infra holds the external connections. Any of them may be nil when the
// corresponding backend is not configured.
type infra struct {
	db       *sql.DB
	redis    *platformredis.Client
	producer *kafka.Producer
	log      *slog.Logger
}

func openInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	in := &infra{log: log}
	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		in.db = db
		if err := postgres.Migrate(ctx, db); err != nil {
			in.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	rc, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	in.redis = rc

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		in.Close()
		return nil, err
	}
	if producer != nil {
		in.producer = producer
		if err := producer.EnsureTopic(ctx, topicPartitions, topicReplication); err != nil {
			// The broker may still auto-create the topic; publishing is best effort anyway.
			log.Warn("could not ensure membership topic", "error", err)
		}
	}
	return in, nil
}

func (in *infra) engine() string {
	if in.db != nil {
		return "postgres"
	}
	return "memory"
}

func (in *infra) Close() {
	if in.producer != nil {
		in.producer.Close()
	}
	if in.redis != nil {
		if err := in.redis.Close(); err != nil {
			in.log.Warn("close redis", "error", err)
		}
	}
	if in.db != nil {
		if err := in.db.Close(); err != nil {
			in.log.Warn("close database", "error", err)
		}
	}
}
