package database

import (
	"context"
	"errors"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/subhadeepchowdhury41/we-share/pkg/apperr"
)

// Runner executes Cypher against the store. Repositories depend on this
// interface only, so tests can substitute a fake.
type Runner interface {
	// Read runs a single statement in an auto-commit read session.
	Read(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error)
	// Write runs a single statement in an auto-commit write session.
	Write(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error)
	// ExecuteWrite runs fn inside one managed write transaction. Everything fn
	// does commits together or not at all.
	ExecuteWrite(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is a statement executor bound to an open transaction.
type Tx interface {
	Run(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error)
}

const constraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"

func (c *Connection) Read(ctx context.Context, cypher string, params map[string]any) (records []*neo4j.Record, err error) {
	started := time.Now()
	defer func() { c.metrics.ObserveStore("read", started, err) }()

	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: c.database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, c.classify(err, "read")
	}
	records, err = result.Collect(ctx)
	if err != nil {
		return nil, c.classify(err, "read")
	}
	return records, nil
}

func (c *Connection) Write(ctx context.Context, cypher string, params map[string]any) (records []*neo4j.Record, err error) {
	started := time.Now()
	defer func() { c.metrics.ObserveStore("write", started, err) }()

	ctx, cancel := c.detached(ctx)
	defer cancel()

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, c.classify(err, "write")
	}
	records, err = result.Collect(ctx)
	if err != nil {
		return nil, c.classify(err, "write")
	}
	return records, nil
}

func (c *Connection) ExecuteWrite(ctx context.Context, fn func(tx Tx) error) (err error) {
	started := time.Now()
	defer func() { c.metrics.ObserveStore("transaction", started, err) }()

	ctx, cancel := c.detached(ctx)
	defer cancel()

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.database,
	})
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(mtx neo4j.ManagedTransaction) (any, error) {
		return nil, fn(managedTx{tx: mtx})
	})
	if err != nil {
		return c.classify(err, "transaction")
	}
	return nil
}

// detached strips caller cancellation so a client going away cannot abort a
// write halfway. The configured query timeout still bounds it.
func (c *Connection) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.queryTimeout)
}

func (c *Connection) classify(err error, mode string) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	if neo4j.IsConnectivityError(err) {
		c.logger.Error("neo4j connectivity failure", zap.String("mode", mode), zap.Error(err))
		return apperr.Wrap(apperr.StoreUnavailable, err, "graph store unavailable")
	}
	return apperr.Wrap(apperr.QueryError, err, "graph query failed")
}

type managedTx struct {
	tx neo4j.ManagedTransaction
}

func (m managedTx) Run(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	result, err := m.tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return result.Collect(ctx)
}

// IsConstraintViolation reports whether err was caused by a uniqueness
// constraint rejecting a write.
func IsConstraintViolation(err error) bool {
	var neoErr *neo4j.Neo4jError
	return errors.As(err, &neoErr) && neoErr.Code == constraintViolation
}
