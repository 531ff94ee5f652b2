package database

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	neo4jconfig "github.com/neo4j/neo4j-go-driver/v5/neo4j/config"
	"go.uber.org/zap"

	"github.com/subhadeepchowdhury41/we-share/metrics"
	"github.com/subhadeepchowdhury41/we-share/pkg/apperr"
)

type Config struct {
	URI                   string
	Username              string
	Password              string
	Database              string
	MaxPoolSize           int
	AcquireTimeout        time.Duration
	MaxConnectionLifetime time.Duration
	QueryTimeout          time.Duration
}

// Connection owns the driver and its pool. It is created once by the process
// bootstrap and closed on shutdown.
type Connection struct {
	driver       neo4j.DriverWithContext
	database     string
	queryTimeout time.Duration
	logger       *zap.Logger
	metrics      *metrics.Metrics
}

// NewConnection creates the driver and verifies the store is reachable.
func NewConnection(ctx context.Context, cfg Config, logger *zap.Logger, m *metrics.Metrics) (*Connection, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *neo4jconfig.Config) {
			if cfg.MaxPoolSize > 0 {
				c.MaxConnectionPoolSize = cfg.MaxPoolSize
			}
			if cfg.AcquireTimeout > 0 {
				c.ConnectionAcquisitionTimeout = cfg.AcquireTimeout
			}
			if cfg.MaxConnectionLifetime > 0 {
				c.MaxConnectionLifetime = cfg.MaxConnectionLifetime
			}
		},
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, err, "failed to create neo4j driver")
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, apperr.Wrap(apperr.StoreUnavailable, err, "failed to connect to neo4j")
	}

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	logger.Info("connected to neo4j", zap.String("uri", cfg.URI), zap.String("database", cfg.Database))

	return &Connection{
		driver:       driver,
		database:     cfg.Database,
		queryTimeout: timeout,
		logger:       logger,
		metrics:      m,
	}, nil
}

// HealthCheck reports whether the store is currently reachable.
func (c *Connection) HealthCheck(ctx context.Context) error {
	if err := c.driver.VerifyConnectivity(ctx); err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, err, "neo4j is unreachable")
	}
	return nil
}

func (c *Connection) Close(ctx context.Context) error {
	if err := c.driver.Close(ctx); err != nil {
		return fmt.Errorf("failed to close neo4j driver: %w", err)
	}
	return nil
}
