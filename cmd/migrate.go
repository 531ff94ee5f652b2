package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	database "github.com/subhadeepchowdhury41/we-share/db"
	"github.com/subhadeepchowdhury41/we-share/metrics"
)

func newMigrateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the graph store constraints and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(v, "migrate")
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			conn, err := database.NewConnection(ctx, neo4jConfig(cfg), logger, metrics.New())
			if err != nil {
				return err
			}
			defer conn.Close(context.Background())

			if err := database.EnsureSchema(ctx, conn); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			logger.Info("schema constraints applied", zap.String("database", cfg.Neo4j.Database))
			return nil
		},
	}
}
