package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "devscout"

	defaultProfilesFile = "profiles.json"
	defaultTargetsFile  = "targets.json"
)

type Config struct {
	Repos       []string       `mapstructure:"repos"`
	UserAgent   string         `mapstructure:"user-agent"`
	CommitLimit int            `mapstructure:"commit-limit"`
	Workers     int            `mapstructure:"workers"`
	GitHub      *GitHubConfig  `mapstructure:"github"`
	AI          *AIConfig      `mapstructure:"ai"`
	Storage     *StorageConfig `mapstructure:"storage"`
	Server      *ServerConfig  `mapstructure:"server"`
}

type GitHubConfig struct {
	TokenFile string `mapstructure:"token-file"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile      string `mapstructure:"api-key-file"`
	Model           string `mapstructure:"model"`
	MaxOutputTokens int    `mapstructure:"max-output-tokens"`
	MaxLogLength    int    `mapstructure:"max-log-length"`
}

type StorageConfig struct {
	ProfilesFile string `mapstructure:"profiles-file"`
	TargetsFile  string `mapstructure:"targets-file"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "devscout builds AI-enriched contributor profiles from repository activity and matches them to queries and targets",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("github.token-file", "GITHUB_TOKEN_FILE"); err != nil {
		log.Fatalf("binding GITHUB_TOKEN_FILE environment variable: %v", err)
	}

	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is devscout.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// The version command works without any config.
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}

	if config.Storage == nil {
		config.Storage = &StorageConfig{}
	}
	if config.Storage.ProfilesFile == "" {
		config.Storage.ProfilesFile = defaultProfilesFile
	}
	if config.Storage.TargetsFile == "" {
		config.Storage.TargetsFile = defaultTargetsFile
	}

	return config, nil
}
