// Package config loads CLI settings from a YAML file, the environment and
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/caffeineduck/piston/client"
	"github.com/drone/envsubst"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by all commands.
type Config struct {
	BaseURL    string        `yaml:"base_url"`
	APIVersion string        `yaml:"api_version"`
	UserAgent  string        `yaml:"user_agent"`
	Cache      bool          `yaml:"cache"`
	Timeout    time.Duration `yaml:"timeout"`
	LogFormat  string        `yaml:"log_format"`
	Serve      Serve         `yaml:"serve"`
}

// Serve holds settings for the gateway server.
type Serve struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		BaseURL:    client.DefaultBaseURL,
		APIVersion: string(client.V2),
		UserAgent:  client.DefaultUserAgent,
		Cache:      true,
		Timeout:    client.DefaultTimeout,
		LogFormat:  "text",
		Serve: Serve{
			Addr:            ":8080",
			ShutdownTimeout: 20 * time.Second,
		},
	}
}

// ParseConfig applies a YAML document on top of the defaults. ${VAR}
// references in string values are expanded from the environment.
func ParseConfig(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	for _, field := range []*string{&c.BaseURL, &c.APIVersion, &c.UserAgent, &c.LogFormat, &c.Serve.Addr} {
		v, err := envsubst.EvalEnv(*field)
		if err != nil {
			return nil, fmt.Errorf("expand config: %w", err)
		}
		*field = v
	}
	return c, nil
}

// FromFile reads and parses a config file.
func FromFile(fsys afero.Fs, path string) (*Config, error) {
	b, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

// Load builds the config from the file at path (skipped when empty) and
// then the PISTON_* environment variables, which take precedence.
func Load(fsys afero.Fs, path string) (*Config, error) {
	c := Default()
	if path != "" {
		var err error
		if c, err = FromFile(fsys, path); err != nil {
			return nil, err
		}
	}
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadDotEnv loads variables from .env files into the environment without
// overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PISTON_BASE_URL"); ok {
		c.BaseURL = v
	}
	if v, ok := lookup("PISTON_API_VERSION"); ok {
		c.APIVersion = v
	}
	if v, ok := lookup("PISTON_USER_AGENT"); ok {
		c.UserAgent = v
	}
	if v, ok := lookup("PISTON_CACHE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PISTON_CACHE: %w", err)
		}
		c.Cache = b
	}
	if v, ok := lookup("PISTON_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PISTON_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v, ok := lookup("LOG_FORMAT"); ok {
		c.LogFormat = v
	}
	return nil
}

// ClientOptions converts the settings into client options.
func (c *Config) ClientOptions() []client.Option {
	return []client.Option{
		client.WithBaseURL(c.BaseURL),
		client.WithAPIVersion(client.APIVersion(c.APIVersion)),
		client.WithUserAgent(c.UserAgent),
		client.WithCache(c.Cache),
		client.WithTimeout(c.Timeout),
	}
}
