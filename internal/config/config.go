// Package config loads the engine configuration from YAML.
//
// Defaults are applied before the file is decoded, so keys missing from the
// file keep their default and explicit zero values are preserved.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"market-structure-lab/internal/logging"
	"market-structure-lab/internal/structure"
)

// Environment overrides.
const (
	EnvPostgresDSN   = "MSE_POSTGRES_DSN"
	EnvClickHouseDSN = "MSE_CLICKHOUSE_DSN"
	EnvKafkaBrokers  = "MSE_KAFKA_BROKERS"
)

// Config is the full engine configuration.
type Config struct {
	Engine     structure.Config `yaml:"engine"`
	Features   string           `yaml:"features" default:"core" validate:"required"`
	Log        logging.Config   `yaml:"log"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// PipelineConfig configures the batch runner.
type PipelineConfig struct {
	Workers   int    `yaml:"workers" default:"4" validate:"gte=1,lte=256"`
	OutputDir string `yaml:"output_dir" default:"out"`
	// Summary writes a markdown summary next to each CSV.
	Summary bool `yaml:"summary"`
}

// PostgresConfig holds the bar and run store connection. Empty DSN disables it.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// ClickHouseConfig holds the feature store connection. Empty DSN disables it.
type ClickHouseConfig struct {
	DSN string `yaml:"dsn" validate:"omitempty,startswith=clickhouse://"`
	// BatchSize bounds rows per insert batch.
	BatchSize int `yaml:"batch_size" default:"10000" validate:"gte=1"`
}

// KafkaConfig configures the feature row sink. No brokers disables it.
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic" default:"market-structure.features" validate:"required"`
	BatchSize    int           `yaml:"batch_size" default:"100" validate:"gte=1"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	RequiredAcks int           `yaml:"required_acks" default:"-1" validate:"oneof=-1 0 1"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr" default:":9090"`
	Namespace string `yaml:"namespace" default:"market_structure_lab"`
}

var validate = validator.New()

// Default returns the configuration with every default applied.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	return &c, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Load reads and parses a YAML configuration file. An empty path yields
// the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		c, err := Default()
		if err != nil {
			return nil, err
		}
		return c, c.Validate()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// LoadWithEnv loads config and overrides connection settings from the
// environment.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvPostgresDSN); v != "" {
		c.Postgres.DSN = v
	}
	if v := getenv(EnvClickHouseDSN); v != "" {
		c.ClickHouse.DSN = v
	}
	if v := getenv(EnvKafkaBrokers); v != "" {
		var brokers []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		c.Kafka.Brokers = brokers
	}
}

// Validate checks struct tags and the rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	if c.Engine.Liquidity.Mode == structure.LiquidityExperimental && c.Engine.Liquidity.ReactionWindow < 2 {
		return fmt.Errorf("engine.liquidity.reaction_window must be >= 2 in experimental mode")
	}
	return nil
}
