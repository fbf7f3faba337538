package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// mapstructure decodes into the default slice in place; a shorter list
	// from the file would keep stale trailing defaults.
	if v.IsSet("tracking.ignored_attributes") {
		cfg.Tracking.IgnoredAttributes = v.GetStringSlice("tracking.ignored_attributes")
	}

	substituteEnvVars(cfg)

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(cfg *Config) {
	cfg.HistoryStore.Host = expandEnvVar(cfg.HistoryStore.Host)
	cfg.HistoryStore.User = expandEnvVar(cfg.HistoryStore.User)
	cfg.HistoryStore.Password = expandEnvVar(cfg.HistoryStore.Password)
	cfg.HistoryStore.Database = expandEnvVar(cfg.HistoryStore.Database)

	cfg.Tracking.Table = expandEnvVar(cfg.Tracking.Table)
	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Leave unknown variables untouched
		return match
	})
}

// GetEntity retrieves a specific entity configuration by name.
func (c *Config) GetEntity(name string) (*EntityConfig, error) {
	entity, exists := c.Entities[name]
	if !exists {
		return nil, fmt.Errorf("entity %q not found in configuration", name)
	}
	return &entity, nil
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat, historyTable string) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if historyTable != "" {
		c.Tracking.Table = historyTable
	}
}
