package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/spigell/devscout/internal/logger"
	"github.com/spigell/devscout/internal/profile"
	"github.com/spigell/devscout/internal/scout"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Assign stored profiles to target specifications",
	Run: func(_ *cobra.Command, _ []string) {
		match()
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
}

func match() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	s, _, err := newScout(ctx, config, logger, nil)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	targets, err := profile.LoadTargets(config.Storage.TargetsFile)
	if err != nil {
		logger.Fatal("loading targets", zap.Error(err))
	}

	result, err := s.RunAssignmentMatch(ctx, targets)
	if err != nil {
		if errors.Is(err, scout.ErrNoProfiles) {
			logger.Info("no profiles available", zap.String("hint", "run 'devscout analyze' first"))
			return
		}
		logger.Fatal("assignment matching failed", zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(result.Matches, "", "  ")
	logger.Info(string(pretty),
		zap.Int("persona_count", result.PersonaCount),
		zap.Int("target_count", result.TargetCount),
		zap.Bool("using_ai", result.UsingAI),
	)
}
