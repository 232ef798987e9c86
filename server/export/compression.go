package export

import (
	"strings"

	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/gear6io/parity/pkg/errors"
)

// CompressionType names a Parquet page codec
type CompressionType string

const (
	CompressionNone   CompressionType = "none"
	CompressionSnappy CompressionType = "snappy"
	CompressionGzip   CompressionType = "gzip"
	CompressionBrotli CompressionType = "brotli"
	CompressionLZ4    CompressionType = "lz4"
	CompressionZSTD   CompressionType = "zstd"
)

// DefaultCompression is used when no codec is configured
const DefaultCompression = CompressionSnappy

// GetCompressionCodec converts a configured codec name to a Parquet codec.
// An empty name selects DefaultCompression.
func GetCompressionCodec(compression string) (compress.Compression, error) {
	if compression == "" {
		compression = string(DefaultCompression)
	}

	switch strings.ToLower(compression) {
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	case "snappy":
		return compress.Codecs.Snappy, nil
	case "gzip", "gz":
		return compress.Codecs.Gzip, nil
	case "brotli":
		return compress.Codecs.Brotli, nil
	case "lz4":
		return compress.Codecs.Lz4Raw, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	default:
		return compress.Codecs.Uncompressed, errors.New(ExportUnsupportedCompression, "unsupported compression type", nil).AddContext("compression", compression)
	}
}
