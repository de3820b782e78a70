// Package config provides configuration loading for arbiter.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the default config file name.
const ConfigFileName = "arbiter.yaml"

// Config holds the arbiter configuration.
type Config struct {
	// Server configures the HTTP surface.
	Server ServerConfig `yaml:"server"`
	// Approvals configures the decision broker.
	Approvals ApprovalsConfig `yaml:"approvals"`
	// Notify configures human notifications.
	Notify NotifyConfig `yaml:"notify"`
	// Database configures the task/audit store.
	Database DatabaseConfig `yaml:"database"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// ApprovalsConfig configures the decision broker.
type ApprovalsConfig struct {
	// AutoApprove disables the human reviewer: every tool is allowed.
	AutoApprove bool `yaml:"auto_approve"`
	// Timeout is how long a decision waits before timing out.
	Timeout time.Duration `yaml:"timeout"`
	// AllowedTools are glob patterns approved without a human round trip.
	AllowedTools []string `yaml:"allowed_tools"`
}

// NotifyConfig configures human notifications.
type NotifyConfig struct {
	// Command is run with extra Args plus title and body appended.
	// Empty disables notifications.
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	// Path of the SQLite file. Empty disables persistence.
	Path string `yaml:"path"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: "127.0.0.1:8617",
		},
		Approvals: ApprovalsConfig{
			Timeout: time.Hour,
		},
		Database: DatabaseConfig{
			Path: ".arbiter/arbiter.db",
		},
	}
}

// LoadFrom loads configuration from a YAML file, applying defaults for
// unset fields and ARBITER_* environment overrides on top.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvVars(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnvVars(cfg)

	if cfg.Approvals.Timeout <= 0 {
		cfg.Approvals.Timeout = time.Hour
	}
	return cfg, nil
}

// applyEnvVars applies ARBITER_* environment variable overrides.
func applyEnvVars(cfg *Config) {
	if v := os.Getenv("ARBITER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("ARBITER_AUTO_APPROVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Approvals.AutoApprove = b
		}
	}
	if v := os.Getenv("ARBITER_APPROVAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Approvals.Timeout = d
		}
	}
	if v := os.Getenv("ARBITER_ALLOWED_TOOLS"); v != "" {
		cfg.Approvals.AllowedTools = splitList(v)
	}
	if v := os.Getenv("ARBITER_NOTIFY_COMMAND"); v != "" {
		cfg.Notify.Command = v
	}
	if v := os.Getenv("ARBITER_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
