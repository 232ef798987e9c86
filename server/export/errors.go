package export

import "github.com/gear6io/parity/pkg/errors"

var (
	ExportUnsupportedCompression = errors.MustNewCode("export.unsupported_compression")
	ExportTypeMismatch           = errors.MustNewCode("export.type_mismatch")
	ExportWriterFailed           = errors.MustNewCode("export.writer_failed")
	ExportReaderFailed           = errors.MustNewCode("export.reader_failed")
	ExportUploadFailed           = errors.MustNewCode("export.upload_failed")
	ExportDownloadFailed         = errors.MustNewCode("export.download_failed")
	ExportVerifyFailed           = errors.MustNewCode("export.verify_failed")
)
