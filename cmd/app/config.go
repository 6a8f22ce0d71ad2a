package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration.
type Config struct {
	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Broker configuration
	Broker BrokerConfig `mapstructure:"broker"`

	// Engine configuration
	Engine EngineConfig `mapstructure:"engine"`

	// WorkerPool configuration
	WorkerPool WorkerPoolConfig `mapstructure:"worker_pool"`

	// Application configuration
	App AppConfig `mapstructure:"app"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// Port is the HTTP server port
	Port string `mapstructure:"port"`

	// ShutdownTimeout is the timeout for server shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// BrokerConfig selects and configures the messaging substrate (spec.md
// §5): "inprocess" for a single-process deployment, "pubsub" for the
// Google Cloud Pub/Sub adapter.
type BrokerConfig struct {
	// Kind is either "inprocess" or "pubsub"
	Kind string `mapstructure:"kind"`

	// QueueSize bounds the inprocess bus's per-subscriber channel
	QueueSize int `mapstructure:"queue_size"`

	// Project is the GCP project id, required when Kind is "pubsub"
	Project string `mapstructure:"project"`

	// EndpointName prefixes Pub/Sub subscription names so several
	// deployments can share a Pub/Sub project
	EndpointName string `mapstructure:"endpoint_name"`
}

// EngineConfig selects the optimisation engine algorithm (spec.md §4.1,
// §9's "opaque Engine" requirement).
type EngineConfig struct {
	// Algorithm names a constructor registered on the engine.Factory,
	// e.g. "cel"
	Algorithm string `mapstructure:"algorithm"`
}

// WorkerPoolConfig controls how many solver workers the dispatcher
// manages (spec.md §3 "full worker pool").
type WorkerPoolConfig struct {
	// Size is the number of solver.Worker instances to start
	Size int `mapstructure:"size"`

	// AddressPrefix names worker addresses "<prefix>-0".."<prefix>-<Size-1>"
	AddressPrefix string `mapstructure:"address_prefix"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	// Component is the name of the component
	Component string `mapstructure:"component"`

	// LogLevel is the log level
	LogLevel string `mapstructure:"log_level"`
}

// Load loads configuration from files and environment.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)
	configureViper(v)

	if err := readConfigs(v); err != nil {
		return nil, err
	}
	if err := loadEnvVars(v); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configs: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// configureViper sets up Viper configuration paths and types.
func configureViper(v *viper.Viper) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("./properties")
	v.AddConfigPath("/etc/optimus-coordinator/")

	v.AutomaticEnv()
	v.SetEnvPrefix("OPTIMUS")
}

// readConfigs attempts to read the configuration file.
func readConfigs(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read configs file: %w", err)
		}
	}
	return nil
}

// loadEnvVars loads environment variables from an app.env file, if one
// is present alongside the YAML config.
func loadEnvVars(v *viper.Viper) error {
	envViper := viper.New()
	envViper.SetConfigName("app")
	envViper.SetConfigType("env")
	envViper.AddConfigPath("./configs")
	envViper.AddConfigPath("./properties")

	if err := envViper.ReadInConfig(); err == nil {
		for _, key := range envViper.AllKeys() {
			v.Set(key, envViper.Get(key))
		}
	}
	return nil
}

// validateConfig validates the configuration.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}

	switch cfg.Broker.Kind {
	case "inprocess":
	case "pubsub":
		if cfg.Broker.Project == "" {
			return fmt.Errorf("broker.project is required when broker.kind is pubsub")
		}
	default:
		return fmt.Errorf("broker.kind must be \"inprocess\" or \"pubsub\", got %q", cfg.Broker.Kind)
	}

	if cfg.Engine.Algorithm == "" {
		return fmt.Errorf("engine.algorithm is required")
	}

	if cfg.WorkerPool.Size <= 0 {
		return fmt.Errorf("worker_pool.size must be positive")
	}

	return nil
}

// setDefaults sets default values for configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("broker.kind", "inprocess")
	v.SetDefault("broker.queue_size", 64)
	v.SetDefault("broker.endpoint_name", "optimus")

	v.SetDefault("engine.algorithm", "cel")

	v.SetDefault("worker_pool.size", 1)
	v.SetDefault("worker_pool.address_prefix", "worker")

	v.SetDefault("app.component", "optimus-coordinator")
	v.SetDefault("app.log_level", "info")
}
