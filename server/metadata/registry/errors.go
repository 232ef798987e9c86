package registry

import "github.com/gear6io/parity/pkg/errors"

var (
	RegistryOpenFailed          = errors.MustNewCode("registry.open_failed")
	RegistryMigrationFailed     = errors.MustNewCode("registry.migration_failed")
	RegistrySchemaVerification  = errors.MustNewCode("registry.schema_verification_failed")
	RegistryRecordFailed        = errors.MustNewCode("registry.record_failed")
	RegistryQueryFailed         = errors.MustNewCode("registry.query_failed")
	RegistryRunNotFound         = errors.MustNewCode("registry.run_not_found")
	RegistryInvalidRecord       = errors.MustNewCode("registry.invalid_record")
	RegistryFileOperationFailed = errors.MustNewCode("registry.file_operation_failed")
)
