package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Connect opens and pings a MongoDB client.
func Connect(ctx context.Context, uri string, logger *zap.Logger) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	logger.Info("Connected to MongoDB", zap.String("uri", redactURI(uri)))
	return client, nil
}

// redactURI drops credentials from a connection string before it is logged.
func redactURI(uri string) string {
	opts := options.Client().ApplyURI(uri)
	if opts.Auth == nil {
		return uri
	}
	if len(opts.Hosts) == 0 {
		return "mongodb://<redacted>"
	}
	return "mongodb://<redacted>@" + opts.Hosts[0]
}
