package store

import "github.com/gear6io/parity/pkg/errors"

// Bad input from the caller is a schema problem
var (
	ErrEmptySchema         = errors.MustNewCode("schema.empty")
	ErrInvalidIdentifier   = errors.MustNewCode("schema.invalid_identifier")
	ErrUnknownColumn       = errors.MustNewCode("schema.unknown_column")
	ErrMissingConditions   = errors.MustNewCode("schema.missing_conditions")
	ErrValueCountMismatch  = errors.MustNewCode("schema.value_count_mismatch")
	ErrUnsupportedDialect  = errors.MustNewCode("store.unsupported_dialect")
	ErrOpenFailed          = errors.MustNewCode("store.open_failed")
	ErrExecFailed          = errors.MustNewCode("store.exec_failed")
	ErrQueryFailed         = errors.MustNewCode("store.query_failed")
	ErrTableNotFound       = errors.MustNewCode("store.table_not_found")
	ErrCloseFailed         = errors.MustNewCode("store.close_failed")
	ErrLoadTableMissing    = errors.MustNewCode("load.table_missing")
	ErrLoadFileOpenFailed  = errors.MustNewCode("load.file_open_failed")
	ErrLoadMalformedFile   = errors.MustNewCode("load.malformed_file")
	ErrLoadColumnMismatch  = errors.MustNewCode("load.column_count_mismatch")
	ErrLoadHeaderMismatch  = errors.MustNewCode("load.header_mismatch")
	ErrLoadCopyFailed      = errors.MustNewCode("load.copy_failed")
	ErrLoadConnUnavailable = errors.MustNewCode("load.conn_unavailable")
)
