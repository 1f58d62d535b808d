package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/spigell/devscout/internal/logger"
	"github.com/spigell/devscout/internal/profile"
	"github.com/spigell/devscout/internal/scout"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptSave       = "Save profiles"
	PromptDiscard    = "Discard and exit"
	PromptReport     = "Report by contributor"
	PromptDumpToFile = "Dump profiles to file"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptSave, PromptDiscard, PromptReport, PromptDumpToFile},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [owner/repo ...]",
	Short: "Fetch recent commits, synthesize contributor profiles and store them",
	Run: func(cmd *cobra.Command, args []string) {
		analyze(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().BoolP("auto-approve", "y", false, "save the snapshot without asking for confirmation")
}

func analyze(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the devscout", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	refs := args
	if len(refs) == 0 {
		refs = config.Repos
	}
	if len(refs) == 0 {
		logger.Fatal("at least one repository is required, via arguments or the 'repos' config key")
	}

	s, mode, err := newScout(ctx, config, logger, nil)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	logger.Info("starting the analysis",
		zap.Strings("repos", refs),
		zap.Bool("using_ai", mode.UsingAI),
	)

	result, err := s.SynthesizeProfiles(ctx, refs)
	if err != nil {
		logger.Fatal("synthesizing profiles", zap.Error(err))
	}

	for _, failed := range result.FailedSources {
		logger.Warn("source failed", zap.String("ref", failed.Ref), zap.String("error", failed.Err))
	}

	if result.Profiles.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no profiles synthesized"))
		return
	}

	logger.Info("profiles synthesized", zap.Int("count", result.Profiles.Len()))

	if cmd.Flag("auto-approve").Value.String() == "true" {
		if err := s.SaveProfiles(result.Profiles); err != nil {
			logger.Fatal("saving profiles", zap.Error(err))
		}
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, s, logger, result.Profiles); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, s *scout.Scout, logger *zap.Logger, profiles *profile.Profiles) error {
	switch action {
	case PromptSave:
		if err := s.SaveProfiles(profiles); err != nil {
			return err
		}
		return errExit
	case PromptDiscard:
		logger.Info("exiting", zap.String("reason", "profiles discarded"))
		return errExit
	case PromptReport:
		pretty, _ := json.MarshalIndent(profiles.Report(), "", "  ")
		logger.Info(string(pretty), zap.Int("profiles count", profiles.Len()))
		return nil
	case PromptDumpToFile:
		filename, err := profiles.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump profiles to file: %w", err)
		}
		logger.Info("dumping profiles to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}
