package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Execution ExecutionConfig
	Gateway   GatewayConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// StorageConfig holds the master storage directory. Each principal's
// root lives directly under it.
type StorageConfig struct {
	MasterDir string `envconfig:"MASTER_DIR" default:"/var/lib/filedock/storage"`
}

// ExecutionConfig holds script execution sandbox configuration.
type ExecutionConfig struct {
	Timeout        time.Duration `envconfig:"EXEC_TIMEOUT" default:"30s"`
	Interpreter    string        `envconfig:"EXEC_INTERPRETER" default:"python3"`
	ArtifactSuffix string        `envconfig:"EXEC_ARTIFACT_SUFFIX" default:".py"`
}

// GatewayConfig holds the execution-gateway IP allow-list. AllowedIPs
// is a comma-separated env list; AllowlistFile optionally points at a
// YAML file whose entries are merged in.
type GatewayConfig struct {
	AllowedIPs    []string `envconfig:"MCP_ALLOWED_IPS" default:"127.0.0.1,::1"`
	AllowlistFile string   `envconfig:"MCP_ALLOWLIST_FILE" default:""`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Storage: StorageConfig{
			MasterDir: "/var/lib/filedock/storage",
		},
		Execution: ExecutionConfig{
			Timeout:        30 * time.Second,
			Interpreter:    "python3",
			ArtifactSuffix: ".py",
		},
		Gateway: GatewayConfig{
			AllowedIPs: []string{"127.0.0.1", "::1"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
