package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-vir-cfg/internal/log"
)

// OutputFormat selects how vcfg renders results
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputDOT  OutputFormat = "dot"
)

// Config holds all configuration for vcfg
type Config struct {
	// Labels no block or statement may use, on top of end_of_method
	ReservedLabels []string `yaml:"reserved_labels" env:"VCFG_RESERVED_LABELS"`

	// Logging
	LogLevel string `yaml:"log_level" env:"VCFG_LOG_LEVEL"`
	LogJSON  bool   `yaml:"log_json" env:"VCFG_LOG_JSON"`
	Verbose  bool   `yaml:"verbose" env:"VCFG_VERBOSE"`

	// Snapshot cache
	CachePath       string `yaml:"cache_path" env:"VCFG_CACHE_PATH"`
	CacheMaxEntries int    `yaml:"cache_max_entries" env:"VCFG_CACHE_MAX_ENTRIES"`

	// Default output format of the commands
	OutputFormat OutputFormat `yaml:"output_format" env:"VCFG_OUTPUT_FORMAT"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ReservedLabels:  nil,
		LogLevel:        "info",
		LogJSON:         false,
		Verbose:         false,
		CachePath:       defaultCachePath(),
		CacheMaxEntries: 256,
		OutputFormat:    OutputText,
	}
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".vcfg", "cache.msgpack")
	}
	return filepath.Join(home, ".vcfg", "cache.msgpack")
}

// GlobalConfigPath returns the global config file path (~/.vcfg/config.yaml)
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vcfg/config.yaml"
	}
	return filepath.Join(home, ".vcfg", "config.yaml")
}

// ProjectConfigPath returns the project-level config file path (./.vcfg/config.yaml)
func ProjectConfigPath() string {
	return ".vcfg/config.yaml"
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.vcfg/config.yaml)
// 3. Global config (~/.vcfg/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	return load(GlobalConfigPath(), ProjectConfigPath())
}

func load(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return load(path)
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VCFG_RESERVED_LABELS"); v != "" {
		cfg.ReservedLabels = splitList(v)
	}
	if v := os.Getenv("VCFG_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("VCFG_LOG_JSON"); v != "" {
		cfg.LogJSON = parseBool(v)
	}
	if v := os.Getenv("VCFG_VERBOSE"); v != "" {
		cfg.Verbose = parseBool(v)
	}
	if v := os.Getenv("VCFG_CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv("VCFG_CACHE_MAX_ENTRIES"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.CacheMaxEntries = i
		}
	}
	if v := os.Getenv("VCFG_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}

	switch c.OutputFormat {
	case OutputText, OutputJSON, OutputDOT:
		// Valid
	default:
		return fmt.Errorf("invalid output_format: %s (must be 'text', 'json' or 'dot')", c.OutputFormat)
	}

	if c.CacheMaxEntries <= 0 {
		return fmt.Errorf("cache_max_entries must be positive")
	}

	seen := make(map[string]bool, len(c.ReservedLabels))
	for _, l := range c.ReservedLabels {
		if l == "" {
			return fmt.Errorf("reserved_labels must not contain empty labels")
		}
		if seen[l] {
			return fmt.Errorf("reserved label %q listed twice", l)
		}
		seen[l] = true
	}

	return nil
}

// Level returns the effective log level. Verbose forces debug.
func (c *Config) Level() log.Level {
	if c.Verbose {
		return log.DebugLevel
	}
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// splitList splits a comma separated list, dropping blanks
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseBool accepts the usual truthy spellings
func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// parseInt attempts to parse a string as int
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}
