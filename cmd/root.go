package cmd

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "cv-job-matcher"

	defaultStorePath = app + ".db"
	defaultOutputDir = "output"
)

type Config struct {
	UserID    string `mapstructure:"user-id"`
	Role      string `mapstructure:"role"`
	Location  string `mapstructure:"location"`
	ProfileID string `mapstructure:"profile-id"`
	CVPath    string `mapstructure:"cv-path"`
	StorePath string `mapstructure:"store-path"`
	OutputDir string `mapstructure:"output-dir"`

	Gemini  *GeminiConfig  `mapstructure:"gemini"`
	SerpAPI *SerpAPIConfig `mapstructure:"serpapi"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	// Each stage can run on its own model; empty values fall back to the
	// client default.
	ParseModel    string `mapstructure:"parse-model"`
	ResearchModel string `mapstructure:"research-model"`
	AnalyseModel  string `mapstructure:"analyse-model"`
	MaxLogLength  int    `mapstructure:"max-log-length"`
}

type SerpAPIConfig struct {
	APIKeyFile  string `mapstructure:"api-key-file"`
	Distance    int    `mapstructure:"distance"`
	MaxSearches int    `mapstructure:"max-searches"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "cv-job-matcher parses a CV, researches matching jobs and scores the fit",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("serpapi.api-key-file", "SERPAPI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding SERPAPI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is "+app+".yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetDefault("store-path", defaultStorePath)
	viper.SetDefault("output-dir", defaultOutputDir)
}

func initConfig() {
	// Config needed only for the run and profiles commands. If there is no
	// config, we can skip initialization.
	if runCmd.CalledAs() == "" && profilesCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// A missing default config file is fine: flags and env vars can carry a
	// full configuration. An unparseable one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return config, err
	}

	if config != nil {
		if config.Gemini == nil {
			config.Gemini = &GeminiConfig{}
		}
		if config.SerpAPI == nil {
			config.SerpAPI = &SerpAPIConfig{}
		}
	}

	return config, nil
}
