// Package config resolves diacheck settings from, in increasing priority:
// built-in defaults, an optional diacheck.yaml, a .env file, DIACHECK_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/abhisek/diacheck/internal/classifier"
	"github.com/abhisek/diacheck/internal/llm"
	"github.com/abhisek/diacheck/internal/store"
)

// EnvPrefix is prepended to every environment key.
const EnvPrefix = "DIACHECK"

// Keys shared by viper, yaml and flags.
const (
	KeyLogLevel     = "log_level"
	KeyDBDriver     = "db_driver"
	KeyDB           = "db"
	KeyHistory      = "history"
	KeyModel        = "model"
	KeyModelURL     = "model_url"
	KeyDataset      = "dataset"
	KeyFallback     = "fallback"
	KeyFallbackKind = "fallback_kind"
	KeyAddr         = "addr"
	KeyRateLimit    = "rate_limit"
	KeyRateBurst    = "rate_burst"
)

// DefaultModelURL hosts released model artifacts.
const DefaultModelURL = "https://github.com/abhisek/diacheck/releases/download"

// Config is the resolved application configuration.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	DBDriver string `mapstructure:"db_driver"`
	// DB is a sqlite file path or a postgres DSN.
	DB string `mapstructure:"db"`
	// History records every assessment to the store.
	History bool `mapstructure:"history"`

	Model        string `mapstructure:"model"`
	ModelURL     string `mapstructure:"model_url"`
	Dataset      string `mapstructure:"dataset"`
	Fallback     bool   `mapstructure:"fallback"`
	FallbackKind string `mapstructure:"fallback_kind"`

	Addr      string  `mapstructure:"addr"`
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`

	LLM llm.Config `mapstructure:"-"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// Options control where Load looks.
type Options struct {
	// ConfigFile is an explicit yaml path. Empty searches the working
	// directory and $XDG_CONFIG_HOME/diacheck for diacheck.yaml.
	ConfigFile string
	// EnvFile is a dotenv file. Empty tries ".env" and ignores its absence.
	EnvFile string
	// Flags are bound by their names with "-" mapped to "_".
	Flags *pflag.FlagSet
}

// Load resolves the configuration.
func Load(opts Options) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("diacheck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "diacheck"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
	}

	if opts.Flags != nil {
		if err := bindFlags(v, opts.Flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.LLM = llm.ConfigFromLookup(func(key string) string {
		return v.GetString(strings.ToLower(strings.TrimPrefix(key, EnvPrefix+"_")))
	})

	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyDBDriver, store.DriverSQLite)
	v.SetDefault(KeyDB, "")
	v.SetDefault(KeyHistory, false)
	v.SetDefault(KeyModel, "")
	v.SetDefault(KeyModelURL, DefaultModelURL)
	v.SetDefault(KeyDataset, "")
	v.SetDefault(KeyFallback, true)
	v.SetDefault(KeyFallbackKind, classifier.KindRandomForest)
	v.SetDefault(KeyAddr, "127.0.0.1:8080")
	v.SetDefault(KeyRateLimit, 10.0)
	v.SetDefault(KeyRateBurst, 20)

	// LLM keys are read through the same viper instance so they can
	// come from yaml as well as the environment.
	for _, k := range []string{
		"llm_provider", "llm_timeout",
		"anthropic_api_key", "anthropic_model", "anthropic_base_url",
		"openai_api_key", "openai_model", "openai_base_url",
		"gemini_api_key", "gemini_model",
		"openrouter_api_key", "openrouter_model", "openrouter_base_url",
	} {
		v.SetDefault(k, "")
	}
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if bindErr := v.BindPFlag(key, f); bindErr != nil {
			err = fmt.Errorf("bind flag %s: %w", f.Name, bindErr)
		}
	})
	return err
}

func loadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) resolvePaths() error {
	if c.DBDriver == store.DriverSQLite && c.DB == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return err
		}
		c.DB = p
	}
	if c.Model == "" {
		p, err := DefaultModelPath()
		if err != nil {
			return err
		}
		c.Model = p
	}
	return nil
}

// DefaultModelPath returns $XDG_DATA_HOME/diacheck/model.json.
func DefaultModelPath() (string, error) {
	dataHome, err := store.DataHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataHome, "diacheck", "model.json"), nil
}

// Validate checks values that cannot be caught by type alone.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case store.DriverSQLite, store.DriverPostgres:
	default:
		return fmt.Errorf("unsupported db_driver %q", c.DBDriver)
	}
	if c.DBDriver == store.DriverPostgres && c.DB == "" {
		return errors.New("db is required for the postgres driver")
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return errors.New("rate_limit and rate_burst must not be negative")
	}
	return c.LLM.Validate()
}

// LLMTimeout returns the per-request budget for narrative generation.
func (c *Config) LLMTimeout() time.Duration {
	if c.LLM.Timeout > 0 {
		return c.LLM.Timeout
	}
	return llm.DefaultConfig().Timeout
}
