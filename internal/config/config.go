// Package config loads the constellation configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// SourceADS and SourceOpenAlex are the supported citation data sources.
const (
	SourceADS      = "ads"
	SourceOpenAlex = "openalex"
)

// Config is the constellation configuration, stored in
// ~/.constellation.yaml.
type Config struct {
	// DefaultSource selects the citation data source: ads or openalex.
	DefaultSource string `yaml:"default_source"`
	// DataDir is where downloaded sources and the metadata cache live.
	DataDir string `yaml:"data_dir,omitempty"`
	Sources struct {
		ADS      SourceConfig `yaml:"ads"`
		OpenAlex SourceConfig `yaml:"openalex"`
	} `yaml:"sources"`
}

// SourceConfig holds per-source API settings. Values support ${VAR}
// environment expansion.
type SourceConfig struct {
	APIToken      string  `yaml:"api_token,omitempty"`
	Mailto        string  `yaml:"polite_pool_email,omitempty"`
	RatePerSecond float64 `yaml:"rate_limit_per_second,omitempty"`
	MaxRetries    int     `yaml:"max_retries,omitempty"`
	MaxResults    int     `yaml:"max_results,omitempty"`
}

// ConfigFileName is the config file name under the home directory.
const ConfigFileName = ".constellation.yaml"

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{DefaultSource: SourceADS, DataDir: "data"}
	cfg.Sources.ADS = SourceConfig{
		APIToken:      "${ADS_API_TOKEN}",
		RatePerSecond: 1,
		MaxRetries:    3,
		MaxResults:    25,
	}
	cfg.Sources.OpenAlex = SourceConfig{
		Mailto:        "${OPENALEX_POLITE_POOL_EMAIL}",
		RatePerSecond: 10,
		MaxRetries:    3,
		MaxResults:    25,
	}
	return cfg
}

// Path returns the config file path under the user's home directory.
// Empty string when the home directory cannot be determined.
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ConfigFileName)
}

// Load reads the configuration from path, falling back to Default when
// the file does not exist. Environment references are expanded after
// parsing, so tokens can live in the environment rather than the file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) || path == "" {
			cfg := Default()
			cfg.expandEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.expandEnv()
	return cfg, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Source returns the settings for the named source.
func (c *Config) Source(name string) SourceConfig {
	if name == SourceOpenAlex {
		return c.Sources.OpenAlex
	}
	return c.Sources.ADS
}

func (c *Config) validate() error {
	switch c.DefaultSource {
	case SourceADS, SourceOpenAlex:
		return nil
	default:
		return fmt.Errorf("invalid default_source %q (expected %s or %s)", c.DefaultSource, SourceADS, SourceOpenAlex)
	}
}

// envRefRe matches ${VAR} references in config values.
var envRefRe = regexp.MustCompile(`\$\{(\w+)\}`)

// expandEnv replaces ${VAR} references in string settings with the
// environment value, or empty string when unset.
func (c *Config) expandEnv() {
	for _, s := range []*string{
		&c.DataDir,
		&c.Sources.ADS.APIToken, &c.Sources.ADS.Mailto,
		&c.Sources.OpenAlex.APIToken, &c.Sources.OpenAlex.Mailto,
	} {
		*s = envRefRe.ReplaceAllStringFunc(*s, func(ref string) string {
			return os.Getenv(envRefRe.FindStringSubmatch(ref)[1])
		})
	}
}
