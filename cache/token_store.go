package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/subhadeepchowdhury41/we-share/config"
	"github.com/subhadeepchowdhury41/we-share/metrics"
)

const revokedPrefix = "revoked:jti:"

// TokenStore remembers revoked token IDs until the token would have expired
// anyway.
type TokenStore struct {
	client  *redis.Client
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewTokenStore(cfg config.RedisConfig, m *metrics.Metrics, logger *zap.Logger) *TokenStore {
	opts := &redis.Options{Addr: cfg.Addr}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	return &TokenStore{
		client:  redis.NewClient(opts),
		metrics: m,
		logger:  logger.Named("token_store"),
		now:     time.Now,
	}
}

func (s *TokenStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *TokenStore) Close() error {
	return s.client.Close()
}

func revokedKey(jti string) string {
	return revokedPrefix + jti
}

// Revoke marks jti as revoked. Tokens that already expired are ignored.
func (s *TokenStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return errors.New("token has no id")
	}
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedKey(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	s.metrics.RevokedTokens.Inc()
	s.logger.Debug("token revoked", zap.String("jti", jti), zap.Duration("ttl", ttl))
	return nil
}

func (s *TokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	return n > 0, nil
}
