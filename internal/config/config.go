// Package config defines the application configuration.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Config is the root configuration.
type Config struct {
	Gateway  GatewayConfig  `json:"gateway"`
	Channels ChannelsConfig `json:"channels"`
	Data     DataConfig     `json:"data"`
}

// GatewayConfig configures the control-channel WebSocket server.
type GatewayConfig struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	Token          string   `json:"token,omitempty"`
	AllowedOrigins []string `json:"allowed_origins,omitempty"`
	// RateLimitRPM caps requests per client per minute. 0 disables limiting.
	RateLimitRPM int `json:"rate_limit_rpm,omitempty"`
}

// ChannelsConfig holds per-platform channel configuration.
type ChannelsConfig struct {
	WhatsApp WhatsAppConfig `json:"whatsapp"`
}

// WhatsAppConfig configures the WhatsApp bridge channel.
type WhatsAppConfig struct {
	Enabled   bool   `json:"enabled"`
	BridgeURL string `json:"bridge_url"`
	// BotAddress is the fallback self address, used until the bridge
	// announces one on connect.
	BotAddress  string   `json:"bot_address,omitempty"`
	AllowFrom   []string `json:"allow_from,omitempty"`
	DMPolicy    string   `json:"dm_policy,omitempty"`
	GroupPolicy string   `json:"group_policy,omitempty"`
}

// DataConfig configures local state storage.
type DataConfig struct {
	Dir string `json:"dir,omitempty"`
}

// Default returns a config with sensible defaults.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Host:         "127.0.0.1",
			Port:         8790,
			RateLimitRPM: 120,
		},
		Channels: ChannelsConfig{
			WhatsApp: WhatsAppConfig{
				Enabled:     true,
				BridgeURL:   "ws://127.0.0.1:8765/ws",
				DMPolicy:    "open",
				GroupPolicy: "open",
			},
		},
		Data: DataConfig{
			Dir: "~/.quizbridge",
		},
	}
}

// DirectoryPath returns the path of the identity directory database.
func (c *Config) DirectoryPath() string {
	return filepath.Join(ExpandHome(c.Data.Dir), "directory.db")
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// MaskToken returns a token suitable for logging.
func MaskToken(token string) string {
	if token == "" {
		return "(none)"
	}
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
