package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/subhadeepchowdhury41/we-share/config"
	"github.com/subhadeepchowdhury41/we-share/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded, using environment")
	}
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	root := &cobra.Command{
		Use:           "we-share",
		Short:         "GraphQL backend for the we-share social network",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	root.PersistentFlags().String("log-format", "", "log format: json or text")
	root.PersistentFlags().String("neo4j-uri", "", "neo4j connection URI")
	// flags override the environment only when set explicitly
	_ = v.BindPFlag("LOG_LEVEL", root.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("LOG_FORMAT", root.PersistentFlags().Lookup("log-format"))
	_ = v.BindPFlag("NEO4J_URI", root.PersistentFlags().Lookup("neo4j-uri"))

	root.AddCommand(newServeCmd(v), newMigrateCmd(v))
	return root
}

// setup loads configuration and builds the process logger.
func setup(v *viper.Viper, component string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	l := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Component: component})
	return cfg, l, nil
}
