package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const defaultMongoDatabase = "MistyEMS"

type MongoConfig struct {
	URI            string
	Database       string
	MaxPoolSize    uint64
	ConnectTimeout time.Duration
}

// MongoConnection holds a connected client and the database the store lives in.
type MongoConnection struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// DatabaseName picks the explicit name when set, then the path segment of the URI,
// then the default.
func DatabaseName(uri, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return "", fmt.Errorf("invalid mongodb uri: %w", err)
	}
	if cs.Database != "" {
		return cs.Database, nil
	}
	return defaultMongoDatabase, nil
}

func ConnectMongo(ctx context.Context, cfg MongoConfig) (*MongoConnection, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongodb uri is required")
	}
	name, err := DatabaseName(cfg.URI, cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	opts := options.Client().ApplyURI(cfg.URI).SetConnectTimeout(cfg.ConnectTimeout)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoConnection{Client: client, Database: client.Database(name)}, nil
}

func (c *MongoConnection) Ping(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return errors.New("mongodb not connected")
	}
	return c.Client.Ping(ctx, readpref.Primary())
}

func (c *MongoConnection) Close(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Disconnect(ctx)
}
