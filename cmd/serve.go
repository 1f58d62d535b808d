package cmd

import (
	"context"
	"log"

	"github.com/spigell/devscout/internal/logger"
	"github.com/spigell/devscout/internal/metrics"
	"github.com/spigell/devscout/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultListenAddress = ":8080"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the profiling pipeline over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	m := metrics.New()

	s, mode, err := newScout(ctx, config, logger, m)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	address := defaultListenAddress
	if config.Server != nil && config.Server.Address != "" {
		address = config.Server.Address
	}

	srv := server.New(s, config.Storage.TargetsFile, mode, m, logger)

	logger.Info("starting the http server",
		zap.String("address", address),
		zap.Bool("using_ai", mode.UsingAI),
	)

	if err := srv.Router().Run(address); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}
