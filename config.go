package phantom

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadConfig and ConfigFromEnv.
const (
	EnvURL                = "PHANTOM_URL"
	EnvToken              = "PHANTOM_AUTH_TOKEN"
	EnvInsecureSkipVerify = "PHANTOM_INSECURE_SKIP_VERIFY"
	EnvTimeout            = "PHANTOM_TIMEOUT"
)

// Config holds the connection settings of a Phantom instance.
//
// Example file:
//
//	phantom-url: https://phantom.example.com
//	ph-auth-token: "..."
//	insecure-skip-verify: true
//	timeout: 45s
type Config struct {
	URL                string        `yaml:"phantom-url"`
	Token              string        `yaml:"ph-auth-token"`
	InsecureSkipVerify bool          `yaml:"insecure-skip-verify,omitempty"`
	Timeout            time.Duration `yaml:"timeout,omitempty"`
	UserAgent          string        `yaml:"user-agent,omitempty"`
}

// LoadConfig reads a YAML config file and applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("phantom: reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("phantom: parsing config %s: %w", path, err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigFromEnv builds a Config from environment variables only.
func ConfigFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvURL); v != "" {
		c.URL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvInsecureSkipVerify); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("phantom: parsing %s: %w", EnvInsecureSkipVerify, err)
		}
		c.InsecureSkipVerify = b
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("phantom: parsing %s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	return nil
}

// Validate reports a configuration error when URL or token is missing.
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrNoBaseURL
	}
	if c.Token == "" {
		return ErrNoToken
	}
	return nil
}
