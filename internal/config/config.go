// Package config loads engine configuration from an optional config.yaml
// plus environment overrides, with code defaults for everything.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Data   DataConfig   `mapstructure:"data"`
	Rules  RulesConfig  `mapstructure:"rules"`
	Engine EngineConfig `mapstructure:"engine"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DataConfig selects the input batch: a CSV file, or the seeded demo
// portfolio when Source is "demo".
type DataConfig struct {
	Source  string `mapstructure:"source"`
	CSVPath string `mapstructure:"csv_path"`
	Seed    int64  `mapstructure:"seed"`
}

// RulesConfig carries the risk rule thresholds.
type RulesConfig struct {
	BasisCompression         float64 `mapstructure:"basis_compression"`
	ImbalanceCostRatio       float64 `mapstructure:"imbalance_cost_ratio"`
	DayAheadBasisCompression float64 `mapstructure:"day_ahead_basis_compression"`
	BudgetMissPct            float64 `mapstructure:"budget_miss_pct"`
}

// EngineConfig controls batch execution.
type EngineConfig struct {
	Workers int `mapstructure:"workers"`
}

// Load reads config.yaml from the working directory when present and applies
// POWERMARKET_* environment overrides on top of the defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("data.source", "demo")
	v.SetDefault("data.csv_path", "")
	v.SetDefault("data.seed", 1)
	v.SetDefault("rules.basis_compression", 2.0)
	v.SetDefault("rules.imbalance_cost_ratio", 0.10)
	v.SetDefault("rules.day_ahead_basis_compression", 2.5)
	v.SetDefault("rules.budget_miss_pct", -5.0)
	v.SetDefault("engine.workers", 4)

	v.SetEnvPrefix("POWERMARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Data.Source != "demo" && cfg.Data.Source != "csv" {
		return nil, fmt.Errorf("data.source must be \"demo\" or \"csv\", got %q", cfg.Data.Source)
	}
	if cfg.Data.Source == "csv" && cfg.Data.CSVPath == "" {
		return nil, fmt.Errorf("data.csv_path is required when data.source is \"csv\"")
	}
	return &cfg, nil
}
