package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides: SERVERCHECK_CLIENT_HOST -> client.host.
const EnvPrefix = "SERVERCHECK_"

type Config struct {
	Client ClientConfig `yaml:"client"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

type ClientConfig struct {
	Host           string        `yaml:"host"`
	Port           string        `yaml:"port"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Version        string   `yaml:"version"`
}

type LogConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			Host:           "localhost",
			Port:           "8080",
			ProbeTimeout:   5 * time.Second,
			RequestTimeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://127.0.0.1:3000",
				"http://localhost:8080",
				"http://127.0.0.1:8080",
			},
			Version: "1.0.0",
		},
		Log: LogConfig{
			File:       "servercheck.log",
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path (a
// missing file is not an error), then SERVERCHECK_* environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps SERVERCHECK_CLIENT_PROBE_TIMEOUT to client.probe_timeout. Only
// the first underscore separates the section; keys keep theirs.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "_", ".", 1)
}

// Validate rejects values the client or server cannot run with.
func (c *Config) Validate() error {
	if c.Client.ProbeTimeout <= 0 {
		return fmt.Errorf("client.probe_timeout must be positive, got %s", c.Client.ProbeTimeout)
	}
	if c.Client.RequestTimeout <= 0 {
		return fmt.Errorf("client.request_timeout must be positive, got %s", c.Client.RequestTimeout)
	}
	if c.Client.Port != "" {
		if n, err := strconv.Atoi(c.Client.Port); err != nil || n < 1 || n > 65535 {
			return fmt.Errorf("client.port %q is not a valid TCP port", c.Client.Port)
		}
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	return nil
}

// Marshal renders the effective configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yamlv3.Marshal(c)
}

// MarshalYAML writes durations as "5s" rather than nanoseconds so the output
// loads back through Load.
func (c ClientConfig) MarshalYAML() (interface{}, error) {
	return struct {
		Host           string `yaml:"host"`
		Port           string `yaml:"port"`
		ProbeTimeout   string `yaml:"probe_timeout"`
		RequestTimeout string `yaml:"request_timeout"`
	}{
		Host:           c.Host,
		Port:           c.Port,
		ProbeTimeout:   c.ProbeTimeout.String(),
		RequestTimeout: c.RequestTimeout.String(),
	}, nil
}
