package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Target    TargetConfig    `mapstructure:"target"`
	Benchmark BenchmarkConfig `mapstructure:"benchmark"`
	Sampler   SamplerConfig   `mapstructure:"sampler"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// TargetConfig describes the inference server under test
type TargetConfig struct {
	Host  string `mapstructure:"host"`
	Port  int    `mapstructure:"port"`
	Model string `mapstructure:"model"`
}

// BaseURL returns the target's HTTP base URL.
func (t TargetConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", t.Host, t.Port)
}

// BenchmarkConfig holds benchmark execution configuration
type BenchmarkConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Streaming      bool          `mapstructure:"streaming"`
	ExportPath     string        `mapstructure:"export_path"`
}

// SamplerConfig holds resource sampling configuration
type SamplerConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	ProcessName string        `mapstructure:"process_name"`
	PIDFile     string        `mapstructure:"pid_file"`
}

// DatabaseConfig holds report history storage configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "text"
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Config file is optional
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration primarily from environment variables
func LoadFromEnv() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Read from .env file if it exists
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults: the benchmark API sits next to the inference
	// server, one port up from it by convention
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8082)

	// Target defaults
	v.SetDefault("target.host", "localhost")
	v.SetDefault("target.port", 8080)
	v.SetDefault("target.model", "granite-4.0-h-tiny")

	// Benchmark defaults
	v.SetDefault("benchmark.request_timeout", 120*time.Second)
	v.SetDefault("benchmark.streaming", true)
	v.SetDefault("benchmark.export_path", "./benchmark_results.json")

	// Sampler defaults
	v.SetDefault("sampler.interval", time.Second)
	v.SetDefault("sampler.process_name", "llama-server")
	v.SetDefault("sampler.pid_file", "")

	// Database defaults
	v.SetDefault("database.path", "./data/benchmarks.db")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func bindEnvVars(v *viper.Viper) {
	// Helper to bind and log errors (BindEnv errors are non-fatal but should be logged)
	bindEnv := func(key string, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			slog.Warn("failed to bind environment variable",
				slog.String("key", key),
				slog.String("env_var", envVar),
				slog.String("error", err.Error()))
		}
	}

	bindEnv("server.host", "SERVER_HOST")
	bindEnv("server.port", "SERVER_PORT")

	bindEnv("target.host", "TARGET_HOST")
	bindEnv("target.port", "TARGET_PORT")
	bindEnv("target.model", "TARGET_MODEL")

	bindEnv("benchmark.request_timeout", "BENCHMARK_REQUEST_TIMEOUT")
	bindEnv("benchmark.export_path", "BENCHMARK_EXPORT_PATH")

	bindEnv("sampler.interval", "SAMPLER_INTERVAL")
	bindEnv("sampler.process_name", "SAMPLER_PROCESS_NAME")
	bindEnv("sampler.pid_file", "SAMPLER_PID_FILE")

	bindEnv("database.path", "DATABASE_PATH")

	bindEnv("logging.level", "LOG_LEVEL")
	bindEnv("logging.format", "LOG_FORMAT")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	if c.Target.Host == "" {
		return fmt.Errorf("target host is required")
	}
	if c.Target.Port <= 0 || c.Target.Port > 65535 {
		return fmt.Errorf("target port must be between 1 and 65535")
	}
	if c.Target.Model == "" {
		return fmt.Errorf("target model is required")
	}

	if c.Benchmark.RequestTimeout <= 0 {
		return fmt.Errorf("benchmark request timeout must be positive")
	}
	if c.Sampler.Interval <= 0 {
		return fmt.Errorf("sampler interval must be positive")
	}

	return nil
}
