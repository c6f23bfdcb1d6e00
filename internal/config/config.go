// Package config loads server and client configuration from an
// optional YAML file with environment overrides on top. Defaults are
// chosen so that only GEMINI_API_KEY is needed to run.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LLMConfig configures the inference gateway.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// TimeoutDuration parses the timeout, falling back to two minutes.
func (c LLMConfig) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 2 * time.Minute
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

// ClientConfig configures the TUI's API client.
type ClientConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// TimeoutDuration parses the timeout, falling back to two minutes.
func (c ClientConfig) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 2 * time.Minute
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

// Config is the root configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	LLM    LLMConfig    `yaml:"llm"`
	Client ClientConfig `yaml:"client"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":3001"},
		LLM:    LLMConfig{Model: "gemini-1.5-flash"},
		Client: ClientConfig{BaseURL: "http://localhost:3001"},
	}
}

// Load reads the config file at path (missing file is not an error)
// and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides lets the environment win over the file. The API
// key is expected to come from the environment in most deployments.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("SAJU_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if addr := os.Getenv("SAJU_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if url := os.Getenv("SAJU_API_BASE_URL"); url != "" {
		c.Client.BaseURL = url
	}
}
