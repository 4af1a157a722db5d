package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectDB connects to MongoDB, retrying with exponential backoff up to
// cfg.MongoConnectRetries times. After startup the driver handles reconnects.
func ConnectDB(ctx context.Context, cfg *Config, logger *slog.Logger) (*mongo.Database, error) {
	attempts := cfg.MongoConnectRetries
	if attempts < 1 {
		attempts = 1
	}

	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client, err := connectOnce(ctx, cfg.MongoURI)
		if err == nil {
			logger.Info("connected to MongoDB", "database", cfg.MongoDatabase, "attempt", attempt)
			return client.Database(cfg.MongoDatabase), nil
		}
		lastErr = err
		logger.Warn("MongoDB connection failed", "attempt", attempt, "of", attempts, "error", err)

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("connect to MongoDB after %d attempts: %w", attempts, lastErr)
}

func connectOnce(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// DisconnectDB closes the client behind db.
func DisconnectDB(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.Client().Disconnect(ctx)
}
