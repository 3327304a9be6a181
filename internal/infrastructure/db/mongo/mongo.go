// Package mongo stores the auth audit trail in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout = 10 * time.Second
	appName        = "todoapp"
)

type Config struct {
	URI      string
	Database string
	// Timeout bounds connecting, the startup ping and index creation.
	Timeout time.Duration
}

func (c Config) clientOptions() *options.ClientOptions {
	return options.Client().
		ApplyURI(c.URI).
		SetAppName(appName).
		SetServerSelectionTimeout(c.Timeout)
}

// AuditStore is a connected audit database with its indexes in place.
type AuditStore struct {
	client *mongo.Client
	db     *mongo.Database
	Events *AuthEventRepository
}

// Connect opens the client, pings it and creates the auth_events indexes.
// Any failure disconnects again.
func Connect(ctx context.Context, cfg Config) (*AuditStore, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo: empty URI")
	}
	if cfg.Database == "" {
		return nil, errors.New("mongo: empty database name")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	setupCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(setupCtx, cfg.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(setupCtx, nil); err != nil {
		_ = client.Disconnect(setupCtx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	events := NewAuthEventRepository(db)
	if err := events.EnsureIndexes(setupCtx); err != nil {
		_ = client.Disconnect(setupCtx)
		return nil, err
	}

	return &AuditStore{client: client, db: db, Events: events}, nil
}

// Ping runs the ping command against the audit database.
func (s *AuditStore) Ping(ctx context.Context) error {
	return s.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

func (s *AuditStore) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
