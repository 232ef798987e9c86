package inference

import "github.com/gear6io/parity/pkg/errors"

// Inference failures are schema problems of the source file
var (
	InferenceFileOpenFailed = errors.MustNewCode("schema.file_open_failed")
	InferenceMissingHeader  = errors.MustNewCode("schema.missing_header")
	InferenceMalformedFile  = errors.MustNewCode("schema.malformed_file")
	InferenceEmptyColumn    = errors.MustNewCode("schema.empty_column_name")
)
