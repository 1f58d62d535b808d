package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/devscout/internal/ai"
	"github.com/spigell/devscout/internal/ai/gemini"
	"github.com/spigell/devscout/internal/github"
	"github.com/spigell/devscout/internal/metrics"
	"github.com/spigell/devscout/internal/profile"
	"github.com/spigell/devscout/internal/scout"
	"github.com/spigell/devscout/internal/secrets"
	"github.com/spigell/devscout/internal/server"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// newScout wires the whole pipeline from the config. Missing credentials are
// not fatal: without a Gemini key the pipeline runs in demo mode, without a
// GitHub token requests go out unauthenticated.
func newScout(ctx context.Context, config *Config, logger *zap.Logger, m *metrics.Manager) (*scout.Scout, server.Mode, error) {
	mode := server.Mode{}

	token := resolveGitHubToken(config, logger)
	mode.HasGitHubToken = token != ""

	gh := github.New(ctx, logger, token)
	if config.UserAgent != "" {
		gh.UserAgent = config.UserAgent
	}

	maxLogLength := 0
	var generator *gemini.Generator

	if aiEnabled(config.AI) {
		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: config.AI.Gemini.APIKeyFile,
		})
		if err != nil {
			return nil, mode, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
		}

		generator, err = gemini.NewGenerator(ctx, apiKey, config.AI.Gemini.Model, int32(config.AI.Gemini.MaxOutputTokens))
		if err != nil {
			return nil, mode, err
		}

		maxLogLength = config.AI.Gemini.MaxLogLength
		mode.HasGeminiKey = true
		mode.UsingAI = true
	} else {
		logger.Warn("reasoning service is not configured; running in demo mode",
			zap.String("hint", "enable ai.gemini in the configuration file"),
		)
	}

	var matcher ai.Matcher
	synthesizer := gemini.NewSynthesizer(nil, 0, logger)

	if generator != nil {
		genLogger := logger.With(
			zap.String("provider", "gemini"),
			zap.String("model", generator.Model()),
		)
		matcher = gemini.NewMatcher(generator, maxLogLength, genLogger)
		synthesizer = gemini.NewSynthesizer(generator, maxLogLength, genLogger)
	}

	deps := &scout.Deps{
		Source:      gh,
		Synthesizer: synthesizer,
		Matcher:     matcher,
		Store:       profile.NewFileStore(config.Storage.ProfilesFile),
		Logger:      logger,
		Metrics:     m,
	}

	cfg := &scout.Config{
		Workers:     config.Workers,
		CommitLimit: config.CommitLimit,
	}

	return scout.New(cfg, deps), mode, nil
}

func aiEnabled(cfg *AIConfig) bool {
	if cfg == nil || !cfg.Enabled || cfg.Gemini == nil {
		return false
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	return provider == "" || provider == "gemini"
}

func resolveGitHubToken(config *Config, logger *zap.Logger) string {
	tokenFile := ""
	if config.GitHub != nil {
		tokenFile = strings.TrimSpace(config.GitHub.TokenFile)
	}
	if tokenFile == "" {
		tokenFile = strings.TrimSpace(viper.GetString("github.token-file"))
	}
	if tokenFile == "" {
		logger.Warn("github token is not configured; using unauthenticated requests",
			zap.String("hint", "set GITHUB_TOKEN_FILE environment variable or the 'github.token-file' key in the configuration file"),
		)
		return ""
	}

	token, err := secrets.Load(secrets.Source{
		Name: "github token",
		File: tokenFile,
	})
	if err != nil {
		logger.Warn("loading github token failed; using unauthenticated requests", zap.Error(err))
		return ""
	}

	return token
}
