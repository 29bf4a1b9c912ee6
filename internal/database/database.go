package database

import (
	"context"
	"fmt"

	"github.com/roopamkhare/fashion-vashion/internal/logging"
	bolt "go.etcd.io/bbolt"
)

type Config struct {
	FilePath string `envconfig:"VASHION_DB_PATH" default:"vashion.db"`
}

type DB struct {
	DB *bolt.DB
}

func NewFromEnv(ctx context.Context, config *Config) (*DB, error) {
	logger := logging.FromContext(ctx)
	logger.Infof("creating db connection, path: %s", config.FilePath)

	db, err := bolt.Open(config.FilePath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	return &DB{DB: db}, nil
}

func (db *DB) Close(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	logger.Infof("closing db connection")

	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("close db connection: %w", err)
	}

	return nil
}
