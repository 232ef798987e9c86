package config

import "github.com/gear6io/parity/pkg/errors"

// Config-specific error codes
var (
	ErrConfigFileReadFailed    = errors.MustNewCode("config.file_read_failed")
	ErrConfigFileParseFailed   = errors.MustNewCode("config.file_parse_failed")
	ErrConfigValidationFailed  = errors.MustNewCode("config.validation_failed")
	ErrConfigFileMarshalFailed = errors.MustNewCode("config.file_marshal_failed")
	ErrConfigFileWriteFailed   = errors.MustNewCode("config.file_write_failed")
	ErrConfigEnvFileFailed     = errors.MustNewCode("config.env_file_failed")
	ErrConfigInvalidEnvValue   = errors.MustNewCode("config.invalid_env_value")

	ErrDatabaseDriverUnsupported = errors.MustNewCode("config.database_driver_unsupported")
	ErrDatabaseNameRequired      = errors.MustNewCode("config.database_name_required")
	ErrDatabaseHostRequired      = errors.MustNewCode("config.database_host_required")
	ErrObjectStoreTypeUnknown    = errors.MustNewCode("config.object_store_type_unknown")
	ErrBucketRequired            = errors.MustNewCode("config.bucket_required")
	ErrEndpointRequired          = errors.MustNewCode("config.endpoint_required")
	ErrSchemaModeUnknown         = errors.MustNewCode("config.schema_mode_unknown")
	ErrPortOutOfRange            = errors.MustNewCode("config.port_out_of_range")
	ErrTokensRequired            = errors.MustNewCode("config.tokens_required")

	// Logging-specific error codes
	ErrLogDirectoryCreationFailed = errors.MustNewCode("config.log_directory_creation_failed")
	ErrLogFileOpenFailed          = errors.MustNewCode("config.log_file_open_failed")
	ErrLogFilePathRequired        = errors.MustNewCode("config.log_file_path_required")
	ErrLogRotationCheckFailed     = errors.MustNewCode("config.log_rotation_check_failed")
	ErrLogFileStatFailed          = errors.MustNewCode("config.log_file_stat_failed")
	ErrLogRotationFailed          = errors.MustNewCode("config.log_rotation_failed")
	ErrLogBackupReadFailed        = errors.MustNewCode("config.log_backup_read_failed")
	ErrLogBackupRemoveFailed      = errors.MustNewCode("config.log_backup_remove_failed")
	ErrLogCleanupFailed           = errors.MustNewCode("config.log_cleanup_failed")
	ErrLogFileWriterSetupFailed   = errors.MustNewCode("config.log_file_writer_setup_failed")
)
