package main

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/subhadeepchowdhury41/we-share/cache"
	"github.com/subhadeepchowdhury41/we-share/config"
	database "github.com/subhadeepchowdhury41/we-share/db"
	"github.com/subhadeepchowdhury41/we-share/graph"
	"github.com/subhadeepchowdhury41/we-share/interceptor"
	"github.com/subhadeepchowdhury41/we-share/metrics"
	natsClient "github.com/subhadeepchowdhury41/we-share/nats"
	"github.com/subhadeepchowdhury41/we-share/pkg/jwt"
	"github.com/subhadeepchowdhury41/we-share/publisher"
	"github.com/subhadeepchowdhury41/we-share/repository"
	"github.com/subhadeepchowdhury41/we-share/server"
	"github.com/subhadeepchowdhury41/we-share/service"
	"github.com/subhadeepchowdhury41/we-share/storage"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the GraphQL HTTP server and the gRPC health endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(v, "we-share")
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
	cmd.Flags().String("port", "", "HTTP listen port")
	cmd.Flags().String("grpc-health-port", "", "gRPC health listen port")
	_ = v.BindPFlag("HTTP_PORT", cmd.Flags().Lookup("port"))
	_ = v.BindPFlag("GRPC_HEALTH_PORT", cmd.Flags().Lookup("grpc-health-port"))
	return cmd
}

func neo4jConfig(cfg *config.Config) database.Config {
	return database.Config{
		URI:                   cfg.Neo4j.URI,
		Username:              cfg.Neo4j.Username,
		Password:              cfg.Neo4j.Password,
		Database:              cfg.Neo4j.Database,
		MaxPoolSize:           cfg.Neo4j.MaxPoolSize,
		AcquireTimeout:        cfg.Neo4j.AcquireTimeout,
		MaxConnectionLifetime: cfg.Neo4j.MaxConnectionLifetime,
		QueryTimeout:          cfg.Neo4j.QueryTimeout,
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	m := metrics.New()

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Neo4j.AcquireTimeout)
	conn, err := database.NewConnection(connectCtx, neo4jConfig(cfg), logger.Named("neo4j"), m)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(context.Background()); err != nil {
			logger.Warn("failed to close neo4j", zap.Error(err))
		}
	}()
	if err := database.EnsureSchema(ctx, conn); err != nil {
		return err
	}

	checks := []server.Probe{conn.HealthCheck}
	var broker publisher.Broker = publisher.NewLocalBroker()
	if cfg.NATSURL != "" {
		nc, err := natsClient.NewClient(natsClient.Config{
			URL:           cfg.NATSURL,
			MaxReconnects: 10,
			ReconnectWait: 2 * time.Second,
			ClientID:      "we-share",
		}, logger.Named("nats"))
		if err != nil {
			return err
		}
		defer nc.Close()
		broker = nc
		checks = append(checks, nc.HealthCheck)
	} else {
		logger.Info("NATS_URL not set, events stay in process")
	}
	events := publisher.NewEventPublisher(broker, logger.Named("events"), m)

	// interface values stay nil when the backing service is disabled
	var (
		revocations interceptor.RevocationChecker
		revoker     graph.TokenRevoker
	)
	if cfg.Redis.Addr != "" {
		revoked := cache.NewTokenStore(cfg.Redis, m, logger.Named("redis"))
		defer revoked.Close()
		if err := revoked.Ping(ctx); err != nil {
			logger.Warn("redis unreachable at startup, revocation checks will fail open", zap.Error(err))
		}
		revocations, revoker = revoked, revoked
	} else {
		logger.Info("REDIS_ADDR not set, token revocation disabled")
	}

	var media server.Uploader
	if cfg.Media.Endpoint != "" {
		store, err := storage.NewMediaStore(cfg.Media, logger.Named("media"))
		if err != nil {
			return err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return err
		}
		media = store
	} else {
		logger.Info("MEDIA_ENDPOINT not set, uploads disabled")
	}

	tokens, err := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
	if err != nil {
		return err
	}

	dates := database.NewDates(logger.Named("dates"), m)
	users := service.NewUserService(repository.NewUserRepository(conn, dates), events, logger.Named("users"))
	comments := service.NewCommentService(repository.NewCommentRepository(conn, dates), events, logger.Named("comments"))
	tweets := service.NewTweetService(repository.NewTweetRepository(conn, dates), comments, events, logger.Named("tweets"))

	schema, err := graph.NewSchema(graph.NewResolver(graph.Deps{
		Users:    users,
		Tweets:   tweets,
		Comments: comments,
		Tokens:   tokens,
		Revoker:  revoker,
		Feed:     events,
		Cookie:   graph.CookieConfig{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure},
		Logger:   logger,
	}))
	if err != nil {
		return fmt.Errorf("failed to build graphql schema: %w", err)
	}

	health := server.AllHealthy(checks...)
	httpServer := server.New(server.Options{
		Port:           cfg.HTTPPort,
		CORSOrigins:    cfg.CORSOrigins,
		Schema:         schema,
		Auth:           interceptor.NewAuthInterceptor(tokens, revocations, cfg.Auth.CookieName, logger.Named("auth")),
		Media:          media,
		MaxUploadBytes: cfg.Media.MaxUploadBytes,
		Metrics:        m,
		Health:         health,
		Logger:         logger,
	})

	lis, err := net.Listen("tcp", ":"+cfg.GRPCHealthPort)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", cfg.GRPCHealthPort, err)
	}
	grpcHealth := server.NewHealthServer(health, server.ProbeInterval, logger)
	go grpcHealth.Run(ctx)

	errCh := make(chan error, 2)
	go func() { errCh <- httpServer.Start() }()
	go func() { errCh <- grpcHealth.Serve(lis) }()

	select {
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
	case err = <-errCh:
		if err != nil {
			logger.Error("server stopped unexpectedly", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("http shutdown failed", zap.Error(shutdownErr))
	}
	grpcHealth.Stop()
	logger.Info("server stopped")
	return err
}
