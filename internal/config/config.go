package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	LLM     LLMConfig     `yaml:"llm" mapstructure:"llm"`
	Compare CompareConfig `yaml:"compare" mapstructure:"compare"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// LLMConfig configures the external-model refinement gate. With Enabled
// false every rule-based path stays fully functional.
type LLMConfig struct {
	Enabled            bool    `yaml:"enabled" mapstructure:"enabled"`
	Provider           string  `yaml:"provider" mapstructure:"provider"`
	Model              string  `yaml:"model" mapstructure:"model"`
	APIKey             string  `yaml:"api_key" mapstructure:"api_key"`
	TimeoutSecs        int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxCallsPerRequest int     `yaml:"max_calls_per_request" mapstructure:"max_calls_per_request"`
	MaxCharsPerCall    int     `yaml:"max_chars_per_call" mapstructure:"max_chars_per_call"`
	MaxRetries         int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec         float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// Timeout returns the per-call timeout as a duration.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// CompareConfig configures the compare engine.
type CompareConfig struct {
	TopKPerInsurer    int `yaml:"top_k_per_insurer" mapstructure:"top_k_per_insurer"`
	BestEvidenceLimit int `yaml:"best_evidence_limit" mapstructure:"best_evidence_limit"`
	RecommendLimit    int `yaml:"recommend_limit" mapstructure:"recommend_limit"`
	CellConcurrency   int `yaml:"cell_concurrency" mapstructure:"cell_concurrency"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COMPARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("llm.enabled", false)
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.model", "claude-haiku-4-5-20251001")
	v.SetDefault("llm.timeout_secs", 10)
	v.SetDefault("llm.max_calls_per_request", 4)
	v.SetDefault("llm.max_chars_per_call", 4000)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.rate_per_sec", 2.0)
	v.SetDefault("compare.top_k_per_insurer", 5)
	v.SetDefault("compare.best_evidence_limit", 2)
	v.SetDefault("compare.recommend_limit", 3)
	v.SetDefault("compare.cell_concurrency", 8)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
