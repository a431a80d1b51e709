// Package sinks opens the backend.Sink selected by configuration
package sinks

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/searchmap/internal/backend"
	"github.com/conduit-lang/searchmap/internal/backend/bleve"
	"github.com/conduit-lang/searchmap/internal/backend/redis"
	"github.com/conduit-lang/searchmap/internal/config"
)

// Open creates the sink described by cfg
func Open(cfg config.BackendConfig, logger *zap.Logger) (backend.Sink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("backend", cfg.Kind))

	switch cfg.Kind {
	case config.BackendBleve:
		return bleve.New(bleve.Config{Path: cfg.Bleve.Path, Logger: logger}), nil
	case config.BackendRedis:
		return redis.New(redis.Config{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			Logger:    logger,
		})
	default:
		return nil, fmt.Errorf("unknown backend kind %q", cfg.Kind)
	}
}
