package mongo

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	defaultURI      = "mongodb://localhost:27017"
	defaultDatabase = "swara"

	defaultMaxPoolSize            = 10
	defaultMinPoolSize            = 1
	defaultMaxConnIdleTime        = 30 * time.Minute
	defaultServerSelectionTimeout = 5 * time.Second
	defaultConnectTimeout         = 10 * time.Second
)

// ClientConfig holds the MongoDB connection configuration
type ClientConfig struct {
	URI                    string
	Database               string
	MaxPoolSize            uint64
	MinPoolSize            uint64
	MaxConnIdleTime        time.Duration
	ServerSelectionTimeout time.Duration
	ConnectTimeout         time.Duration
}

// NewClientConfigFromEnv reads the connection settings from MONGODB_URI and
// MONGODB_DATABASE, falling back to local-development defaults
func NewClientConfigFromEnv() ClientConfig {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = defaultURI
	}

	database := os.Getenv("MONGODB_DATABASE")
	if database == "" {
		database = defaultDatabase
	}

	return ClientConfig{
		URI:                    uri,
		Database:               database,
		MaxPoolSize:            defaultMaxPoolSize,
		MinPoolSize:            defaultMinPoolSize,
		MaxConnIdleTime:        defaultMaxConnIdleTime,
		ServerSelectionTimeout: defaultServerSelectionTimeout,
		ConnectTimeout:         defaultConnectTimeout,
	}
}

// ValidateClientConfig validates the MongoDB client configuration
func ValidateClientConfig(config ClientConfig) error {
	if config.URI == "" {
		return fmt.Errorf("mongodb URI is required")
	}
	if config.Database == "" {
		return fmt.Errorf("mongodb database name is required")
	}
	if config.MaxPoolSize == 0 {
		return fmt.Errorf("mongodb max pool size must be positive")
	}
	if config.MinPoolSize > config.MaxPoolSize {
		return fmt.Errorf("mongodb min pool size %d exceeds max pool size %d",
			config.MinPoolSize, config.MaxPoolSize)
	}
	if config.ConnectTimeout <= 0 || config.ServerSelectionTimeout <= 0 {
		return fmt.Errorf("mongodb timeouts must be positive")
	}
	return nil
}

// Client wraps the MongoDB client and database
type Client struct {
	*mongo.Client
	Database *mongo.Database
	logger   *zap.Logger
}

// NewClient connects to MongoDB with the given configuration and verifies
// the connection with a ping
func NewClient(config ClientConfig, logger *zap.Logger) (*Client, error) {
	if err := ValidateClientConfig(config); err != nil {
		return nil, err
	}

	clientOptions := options.Client().
		ApplyURI(config.URI).
		SetMaxPoolSize(config.MaxPoolSize).
		SetMinPoolSize(config.MinPoolSize).
		SetMaxConnIdleTime(config.MaxConnIdleTime).
		SetServerSelectionTimeout(config.ServerSelectionTimeout).
		SetConnectTimeout(config.ConnectTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("Successfully connected to MongoDB",
		zap.String("database", config.Database),
		zap.String("uri", config.URI))

	return &Client{
		Client:   client,
		Database: client.Database(config.Database),
		logger:   logger,
	}, nil
}

// Close closes the MongoDB connection
func (c *Client) Close(ctx context.Context) error {
	if err := c.Client.Disconnect(ctx); err != nil {
		c.logger.Error("Failed to disconnect from MongoDB", zap.Error(err))
		return err
	}
	c.logger.Info("Disconnected from MongoDB")
	return nil
}
