// Package export serializes whole tables to Parquet and uploads them to the
// object store under a deterministic key per table.
package export

import (
	"bytes"
	"context"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/config"
	"github.com/gear6io/parity/server/objectstore"
	"github.com/gear6io/parity/server/types"
	"github.com/rs/zerolog"
)

// DefaultPrefix is where artifacts land when no prefix is configured
const DefaultPrefix = "output/"

// TableReader reads a whole table as a frame
type TableReader interface {
	Rows(ctx context.Context, table string) (*types.Frame, error)
}

// Exporter writes tables to the object store as Parquet artifacts
type Exporter struct {
	tables  TableReader
	objects objectstore.Store
	prefix  string
	codec   compress.Compression
	mem     memory.Allocator
	logger  zerolog.Logger
}

// NewExporter validates cfg and creates an exporter
func NewExporter(tables TableReader, objects objectstore.Store, cfg config.ExportConfig, logger zerolog.Logger) (*Exporter, error) {
	codec, err := GetCompressionCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return &Exporter{
		tables:  tables,
		objects: objects,
		prefix:  prefix,
		codec:   codec,
		mem:     memory.NewGoAllocator(),
		logger:  logger.With().Str("component", "exporter").Logger(),
	}, nil
}

// Key returns the artifact key of table
func (e *Exporter) Key(table string) string {
	return e.prefix + table + ".parquet"
}

// Export reads the whole table, encodes it and uploads it, replacing any
// previous artifact. It returns the artifact key.
func (e *Exporter) Export(ctx context.Context, table string) (string, error) {
	start := time.Now()

	frame, err := e.tables.Rows(ctx, table)
	if err != nil {
		return "", err
	}

	payload, err := e.Encode(frame)
	if err != nil {
		if ee, ok := errors.As(err); ok {
			ee.AddContext("table", table)
		}
		return "", err
	}

	key := e.Key(table)
	if err := e.objects.Put(ctx, key, payload); err != nil {
		return "", errors.New(ExportUploadFailed, "failed to upload artifact", err).
			AddContext("table", table).AddContext("key", key)
	}

	e.logger.Info().
		Str("table", table).
		Str("key", key).
		Int("rows", frame.NumRows()).
		Int("bytes", len(payload)).
		Dur("duration", time.Since(start)).
		Msg("Table exported")
	return key, nil
}

// Encode writes frame as a single row group Parquet file
func (e *Exporter) Encode(frame *types.Frame) ([]byte, error) {
	rec, err := FrameToRecord(e.mem, frame)
	if err != nil {
		return nil, err
	}
	defer rec.Release()

	var buf bytes.Buffer
	props := parquet.NewWriterProperties(
		parquet.WithCompression(e.codec),
		parquet.WithAllocator(e.mem),
	)
	w, err := pqarrow.NewFileWriter(rec.Schema(), &buf, props, pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		return nil, errors.New(ExportWriterFailed, "failed to create parquet writer", err)
	}

	if rec.NumRows() > 0 {
		if err := w.Write(rec); err != nil {
			w.Close()
			return nil, errors.New(ExportWriterFailed, "failed to write parquet record", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, errors.New(ExportWriterFailed, "failed to finalize parquet file", err)
	}

	return buf.Bytes(), nil
}

// Decode reads a Parquet payload into a frame typed with Arrow type names
func (e *Exporter) Decode(ctx context.Context, payload []byte) (*types.Frame, error) {
	tbl, err := pqarrow.ReadTable(ctx, bytes.NewReader(payload),
		parquet.NewReaderProperties(e.mem), pqarrow.ArrowReadProperties{}, e.mem)
	if err != nil {
		return nil, errors.New(ExportReaderFailed, "failed to read parquet artifact", err)
	}
	defer tbl.Release()

	return TableToFrame(tbl), nil
}

// VerifyUploaded reports whether an object exists under exactly key
func (e *Exporter) VerifyUploaded(ctx context.Context, key string) (bool, error) {
	keys, err := e.objects.List(ctx, key)
	if err != nil {
		return false, errors.New(ExportVerifyFailed, "failed to list artifacts", err).AddContext("key", key)
	}
	for _, k := range keys {
		if k == key {
			return true, nil
		}
	}
	return false, nil
}

// Fetch downloads and decodes the current artifact of table
func (e *Exporter) Fetch(ctx context.Context, table string) (*types.Frame, error) {
	key := e.Key(table)
	payload, err := e.objects.Get(ctx, key)
	if err != nil {
		return nil, errors.New(ExportDownloadFailed, "failed to download artifact", err).
			AddContext("table", table).AddContext("key", key)
	}

	frame, err := e.Decode(ctx, payload)
	if err != nil {
		if ee, ok := errors.As(err); ok {
			ee.AddContext("table", table).AddContext("key", key)
		}
		return nil, err
	}
	return frame, nil
}
