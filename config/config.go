// Package config loads the converter configuration and builds its logger.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lanl-future-campaign/c2-parquet-writer/pkg/errors"
)

// Config represents the converter configuration
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Convert ConvertConfig `yaml:"convert"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level    string `yaml:"level"`
	FilePath string `yaml:"file_path"` // Path to log file, empty disables file logging
	Console  bool   `yaml:"console"`   // Whether to log to console
}

// ConvertConfig represents conversion defaults; CLI flags override these.
type ConvertConfig struct {
	RowGroupSize   int64 `yaml:"rowgroup_size"`   // Bytes per parquet row group
	DiskPageSize   int64 `yaml:"diskpage_size"`   // ZFS ashift alignment target in bytes
	FragmentSize   int64 `yaml:"fragment_size"`   // Bytes per on-disk fragment
	Jobs           int   `yaml:"jobs"`            // Parallel conversions
	SkipPadding    bool  `yaml:"skip_padding"`    // Disable all alignment padding
	SkipScattering bool  `yaml:"skip_scattering"` // Write one monolithic stream
}

// LoadDefaultConfig returns a default configuration
func LoadDefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
		Convert: ConvertConfig{
			RowGroupSize: 1 << 20,
			DiskPageSize: 1 << 9,
			FragmentSize: 4 << 20,
			Jobs:         1,
		},
	}
}

// LoadConfig loads configuration from a file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.New(ErrConfigFileReadFailed, "failed to read config file", err).AddContext("path", filename)
	}

	config := LoadDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.New(ErrConfigFileParseFailed, "failed to parse config file", err).AddContext("path", filename)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration for geometry the writer cannot honor.
func (c *Config) Validate() error {
	cv := c.Convert
	if cv.RowGroupSize <= 0 || cv.DiskPageSize <= 0 || cv.FragmentSize <= 0 {
		return errors.Newf(ErrConfigValidationFailed,
			"sizes must be positive (rowgroup=%d diskpage=%d fragment=%d)",
			cv.RowGroupSize, cv.DiskPageSize, cv.FragmentSize)
	}
	if cv.RowGroupSize%cv.DiskPageSize != 0 {
		return errors.Newf(ErrConfigValidationFailed,
			"rowgroup_size %d must be a multiple of diskpage_size %d", cv.RowGroupSize, cv.DiskPageSize)
	}
	if cv.FragmentSize%cv.RowGroupSize != 0 {
		return errors.Newf(ErrConfigValidationFailed,
			"fragment_size %d must be a multiple of rowgroup_size %d", cv.FragmentSize, cv.RowGroupSize)
	}
	if cv.Jobs < 1 {
		return errors.Newf(ErrConfigValidationFailed, "jobs must be at least 1, got %d", cv.Jobs)
	}
	return nil
}
