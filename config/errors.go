package config

import "github.com/lanl-future-campaign/c2-parquet-writer/pkg/errors"

// Package-specific error codes for configuration handling
var (
	ErrConfigFileReadFailed   = errors.MustNewCode("config.file_read_failed")
	ErrConfigFileParseFailed  = errors.MustNewCode("config.file_parse_failed")
	ErrConfigValidationFailed = errors.MustNewCode("config.validation_failed")
	ErrLogFileOpenFailed      = errors.MustNewCode("config.log_file_open_failed")
	ErrLogDirCreationFailed   = errors.MustNewCode("config.log_dir_creation_failed")
)
