package logger

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds logging configuration
type Config struct {
	Level          string `yaml:"level" env:"LOG_LEVEL"`
	ConsoleEnabled bool   `yaml:"console_enabled" env:"LOG_CONSOLE_ENABLED"`
	ConsoleFormat  string `yaml:"console_format" env:"LOG_CONSOLE_FORMAT"`
	FileEnabled    bool   `yaml:"file_enabled" env:"LOG_FILE_ENABLED"`
	FilePath       string `yaml:"file_path" env:"LOG_FILE_PATH"`
	FileFormat     string `yaml:"file_format" env:"LOG_FILE_FORMAT"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb" env:"LOG_FILE_MAX_SIZE_MB"`
	FileMaxBackups int    `yaml:"file_max_backups" env:"LOG_FILE_MAX_BACKUPS"`
	FileMaxAgeDays int    `yaml:"file_max_age_days" env:"LOG_FILE_MAX_AGE_DAYS"`
}

// fileConfig mirrors the top-level layout of the logging YAML file.
type fileConfig struct {
	Logging Config `yaml:"logging"`
}

// DefaultConfig returns console-only INFO logging.
func DefaultConfig() Config {
	return Config{
		Level:          "INFO",
		ConsoleEnabled: true,
		ConsoleFormat:  "text",
		FileEnabled:    false,
		FilePath:       "logs/realmd.log",
		FileFormat:     "text",
		FileMaxSizeMB:  10,
		FileMaxBackups: 5,
		FileMaxAgeDays: 30,
	}
}

// LoadConfig loads logging configuration from a YAML file and applies
// environment variable overrides. A missing or unreadable file falls back to
// the defaults; a malformed environment override is reported.
func LoadConfig(configPath string) (Config, error) {
	fc := fileConfig{Logging: DefaultConfig()}

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			// Keys absent from the file keep their default values.
			if err := yaml.Unmarshal(data, &fc); err != nil {
				fc.Logging = DefaultConfig()
			}
		}
	}

	config := fc.Logging
	if err := env.Parse(&config); err != nil {
		return config, fmt.Errorf("failed to parse logging environment: %w", err)
	}

	return config, nil
}
