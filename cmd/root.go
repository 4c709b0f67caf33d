package cmd

import (
	"errors"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/job-matcher/internal/ai/gemini"
	"github.com/spigell/job-matcher/internal/ai/openrouter"
	"github.com/spigell/job-matcher/internal/cache"
	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/model"
	"github.com/spigell/job-matcher/internal/redistribute"
	"github.com/spigell/job-matcher/internal/semantic"
)

const (
	app       = "job-matcher"
	envPrefix = "JOB_MATCHER"
)

type Config struct {
	Matching     matching.Options      `mapstructure:"matching"`
	Redistribute redistribute.Options  `mapstructure:"redistribute"`
	Semantic     semantic.Options      `mapstructure:"semantic"`
	Cache        cache.Options         `mapstructure:"cache"`
	AI           AIConfig              `mapstructure:"ai"`
	Embedding    EmbeddingConfig       `mapstructure:"embedding"`
	User         model.UserPreferences `mapstructure:"user"`
}

type AIConfig struct {
	Provider   string            `mapstructure:"provider"`
	Gemini     gemini.Config     `mapstructure:"gemini"`
	OpenRouter openrouter.Config `mapstructure:"openrouter"`
}

type EmbeddingConfig struct {
	DatabaseURL     string `mapstructure:"database-url"`
	DatabaseURLFile string `mapstructure:"database-url-file"`
	Table           string `mapstructure:"table"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-matcher scores job postings against candidate preferences",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	semanticDefaults := semantic.DefaultOptions()
	cacheDefaults := cache.DefaultOptions()

	v.SetDefault("matching.mode", string(matching.ModeAuto))
	v.SetDefault("matching.max-matches", 0)
	v.SetDefault("redistribute.limit", 0)
	v.SetDefault("semantic.batch-size", semanticDefaults.BatchSize)
	v.SetDefault("semantic.batch-delay", semanticDefaults.BatchDelay)
	v.SetDefault("semantic.max-tokens", semanticDefaults.MaxTokens)
	v.SetDefault("semantic.temperature", *semanticDefaults.Temperature)
	v.SetDefault("semantic.max-log-length", semanticDefaults.MaxLogLength)
	v.SetDefault("cache.backend", cacheDefaults.Backend)
	v.SetDefault("cache.ttl", cacheDefaults.DefaultTTL)
	v.SetDefault("cache.redis-url", "")
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("embedding.table", "")
	v.SetDefault("user.subscription-tier", string(model.TierFree))
}

func initConfig() {
	// The version command does not need any configuration.
	if versionCmd.CalledAs() != "" {
		return
	}

	// A missing .env is fine; values may come from the real environment.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// An explicit config must parse; the default one may be absent.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
