package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/titanous/json5"
)

// Load reads configuration from path, falling back to defaults when the
// file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(ExpandHome(path))
		switch {
		case err == nil:
			if err := json5.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
			slog.Debug("config loaded", "path", path)
		case os.IsNotExist(err):
			slog.Debug("config file not found, using defaults", "path", path)
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config for values that cannot work.
func (c *Config) Validate() error {
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("gateway port %d out of range", c.Gateway.Port)
	}
	if c.Channels.WhatsApp.Enabled && c.Channels.WhatsApp.BridgeURL == "" {
		return fmt.Errorf("channels.whatsapp.bridge_url is required when enabled")
	}
	return nil
}

// applyEnvOverrides lets environment variables override file values.
// Only settings that commonly differ between deployments are exposed.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QUIZBRIDGE_GATEWAY_HOST"); v != "" {
		cfg.Gateway.Host = v
	}
	if v := os.Getenv("QUIZBRIDGE_GATEWAY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		} else {
			slog.Warn("invalid QUIZBRIDGE_GATEWAY_PORT, ignoring", "value", v)
		}
	}
	if v := os.Getenv("QUIZBRIDGE_GATEWAY_TOKEN"); v != "" {
		cfg.Gateway.Token = v
	}
	if v := os.Getenv("QUIZBRIDGE_BRIDGE_URL"); v != "" {
		cfg.Channels.WhatsApp.BridgeURL = v
	}
	if v := os.Getenv("QUIZBRIDGE_BOT_ADDRESS"); v != "" {
		cfg.Channels.WhatsApp.BotAddress = v
	}
	if v := os.Getenv("QUIZBRIDGE_ALLOW_FROM"); v != "" {
		cfg.Channels.WhatsApp.AllowFrom = splitList(v)
	}
	if v := os.Getenv("QUIZBRIDGE_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
