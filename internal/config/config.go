package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Log     LogConfig     `koanf:"log"`
	Command CommandConfig `koanf:"command"`
	Capture CaptureConfig `koanf:"capture"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type CommandConfig struct {
	TimeoutSeconds int `koanf:"timeout_seconds"`
}

type CaptureConfig struct {
	Dir             string `koanf:"dir"`              // capture file directory (default: platform temp dir)
	RetentionDays   int    `koanf:"retention_days"`   // max age before a capture file is swept
	CleanupSchedule string `koanf:"cleanup_schedule"` // cron spec for the periodic sweep; "" disables it
}

// Load builds the configuration from defaults, an optional YAML file, and
// XCODEMCP_-prefixed environment variables, in that order of precedence.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		configPath = expandPath(configPath)
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider("XCODEMCP_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "XCODEMCP_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Capture.Dir = expandPath(cfg.Capture.Dir)
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.Log.Level)
	}
	if c.Command.TimeoutSeconds <= 0 {
		return fmt.Errorf("command timeout must be positive")
	}
	if c.Capture.RetentionDays <= 0 {
		return fmt.Errorf("capture retention must be positive")
	}
	return nil
}

// CommandTimeout returns the configured per-invocation timeout.
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.Command.TimeoutSeconds) * time.Second
}

// Retention returns the capture file retention window.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Capture.RetentionDays) * 24 * time.Hour
}

func expandPath(path string) string {
	if path == "" {
		return path
	}
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
