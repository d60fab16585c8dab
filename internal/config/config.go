// Package config builds the explicit runtime configuration passed into each
// component. Values come from an optional YAML file named by RELAY_CONFIG,
// with environment variables layered on top (env wins).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config collects every knob the relay needs, constructed once at startup
// and handed by value into each component.
type Config struct {
	Token             string  `yaml:"token"`
	ChannelID         string  `yaml:"channel_id"`
	Webhook1          string  `yaml:"webhook_1"`
	Webhook2          string  `yaml:"webhook_2"`
	Notional          float64 `yaml:"notional"`
	PollBaseSeconds   int     `yaml:"poll_base_seconds"`
	PollOffsetSeconds int     `yaml:"poll_offset_seconds"`
	PollLimit         int     `yaml:"poll_limit"`
	StateFile         string  `yaml:"state_file"`
	MetricsAddr       string  `yaml:"metrics_addr"`
	LogLevel          string  `yaml:"log_level"`
}

// Endpoints returns the configured webhook URLs, primary first.
func (c *Config) Endpoints() []string {
	urls := []string{c.Webhook1}
	if c.Webhook2 != "" {
		urls = append(urls, c.Webhook2)
	}
	return urls
}

// PollBase returns the tick period as a duration.
func (c *Config) PollBase() time.Duration {
	return time.Duration(c.PollBaseSeconds) * time.Second
}

// PollOffset returns the within-period tick offset as a duration.
func (c *Config) PollOffset() time.Duration {
	return time.Duration(c.PollOffsetSeconds) * time.Second
}

// Load hydrates a Config from defaults, the optional YAML file, and the
// environment. Missing required keys make the process unrunnable, so they
// come back as an error before any loop starts.
func Load() (*Config, error) {
	_ = godotenv.Load() // best-effort

	cfg := &Config{
		Notional:          50,
		PollBaseSeconds:   300,
		PollOffsetSeconds: 5,
		PollLimit:         5,
		StateFile:         "state.json",
		LogLevel:          "info",
	}
	if path := os.Getenv("RELAY_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(c); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("DISCORD_TOKEN")); v != "" {
		c.Token = v
	}
	if v := strings.TrimSpace(os.Getenv("CHANNEL_ID")); v != "" {
		c.ChannelID = v
	}
	if v := strings.TrimSpace(os.Getenv("WEBHOOK_1")); v != "" {
		c.Webhook1 = v
	}
	if v := strings.TrimSpace(os.Getenv("WEBHOOK_2")); v != "" {
		c.Webhook2 = v
	}
	// Older deployments used NOTIONAL / DEFAULT_NOTIONAL; keep the aliases.
	if v := envFirst("FORWARDER_NOTIONAL", "NOTIONAL", "DEFAULT_NOTIONAL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Notional = f
		}
	}
	if v := os.Getenv("POLL_BASE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.PollBaseSeconds = n
		}
	}
	if v := os.Getenv("POLL_OFFSET_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.PollOffsetSeconds = n
		}
	}
	if v := os.Getenv("POLL_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.PollLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("STATE_FILE")); v != "" {
		c.StateFile = v
	}
	if v := strings.TrimSpace(os.Getenv("METRICS_ADDR")); v != "" {
		c.MetricsAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
}

func envFirst(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func (c *Config) validate() error {
	if c.Token == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if c.ChannelID == "" {
		return fmt.Errorf("CHANNEL_ID is required")
	}
	if c.Webhook1 == "" {
		return fmt.Errorf("WEBHOOK_1 is required")
	}
	return nil
}
