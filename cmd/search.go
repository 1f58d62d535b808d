package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/spigell/devscout/internal/logger"
	"github.com/spigell/devscout/internal/scout"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search stored profiles with a free-text query",
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		search(strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func search(query string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	s, mode, err := newScout(ctx, config, logger, nil)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	matches, err := s.MatchQuery(ctx, query)
	if err != nil {
		if errors.Is(err, scout.ErrNoProfiles) {
			logger.Info("no profiles available", zap.String("hint", "run 'devscout analyze' first"))
			return
		}
		logger.Fatal("matching failed", zap.Error(err))
	}

	if len(matches) == 0 {
		logger.Info("no matches found", zap.String("query", query))
		return
	}

	enriched := make([]map[string]any, 0, len(matches))
	for _, match := range matches {
		enriched = append(enriched, match.Fields)
	}

	pretty, _ := json.MarshalIndent(enriched, "", "  ")
	logger.Info(string(pretty),
		zap.String("query", query),
		zap.Int("matches", len(matches)),
		zap.Bool("using_ai", mode.UsingAI),
	)
}
