package consistency

import "github.com/gear6io/parity/pkg/errors"

var (
	ErrUnknownSchemaMode = errors.MustNewCode("consistency.unknown_schema_mode")
	ErrColumnMismatch    = errors.MustNewCode("consistency.column_mismatch")
	ErrRowCountMismatch  = errors.MustNewCode("consistency.row_count_mismatch")
	ErrValueMismatch     = errors.MustNewCode("consistency.value_mismatch")
	ErrSchemaMismatch    = errors.MustNewCode("consistency.schema_mismatch")
)
