package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/rs/zerolog"
)

// Importer bulk-loads delimited files into existing tables
type Importer struct {
	manager *Manager
	logger  zerolog.Logger
}

// NewImporter creates an importer on top of manager's connection
func NewImporter(manager *Manager, logger zerolog.Logger) *Importer {
	return &Importer{
		manager: manager,
		logger:  logger.With().Str("component", "importer").Logger(),
	}
}

// Load copies every row after the header of the file at path into table and
// returns the number of data rows loaded. The header must name exactly the
// columns of table, in any order.
func (im *Importer) Load(ctx context.Context, table, path string) (int64, error) {
	cols, err := im.manager.Columns(ctx, table)
	if err != nil {
		if errors.HasCode(err, ErrTableNotFound) {
			return 0, errors.New(ErrLoadTableMissing, "target table does not exist", err).AddContext("table", table)
		}
		return 0, err
	}

	header, rows, err := scanFile(path)
	if err != nil {
		return 0, err
	}

	if len(header) != len(cols) {
		return 0, errors.New(ErrLoadColumnMismatch, "file and table column counts differ", nil).
			AddContext("table", table).
			AddContext("file_columns", strconv.Itoa(len(header))).
			AddContext("table_columns", strconv.Itoa(len(cols)))
	}
	known := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		known[c.Name] = struct{}{}
	}
	for _, h := range header {
		if _, ok := known[h]; !ok {
			return 0, errors.New(ErrLoadHeaderMismatch, "file column is not a table column", nil).
				AddContext("table", table).AddContext("column", h)
		}
	}

	if err := im.manager.dialect.BulkLoad(ctx, im.manager.db, table, header, path); err != nil {
		return 0, err
	}

	im.logger.Info().Str("table", table).Str("path", path).Int64("rows", rows).Msg("File loaded")
	return rows, nil
}

// RowCount returns the number of rows currently in table
func (im *Importer) RowCount(ctx context.Context, table string) (int64, error) {
	if err := checkIdentifier(table); err != nil {
		return 0, err
	}

	var n int64
	stmt := "SELECT COUNT(*) FROM " + im.manager.dialect.QuoteIdent(table)
	if err := im.manager.db.QueryRowContext(ctx, stmt).Scan(&n); err != nil {
		return 0, errors.New(ErrQueryFailed, "failed to count rows", err).AddContext("table", table)
	}
	return n, nil
}

// scanFile validates the file before anything is written: every data row
// must have as many cells as the header. It returns the trimmed header and
// the number of data rows.
func scanFile(path string) ([]string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.New(ErrLoadFileOpenFailed, "failed to open source file", err).AddContext("path", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	record, err := reader.Read()
	if err == io.EOF {
		return nil, 0, errors.New(ErrLoadMalformedFile, "source file has no header row", nil).AddContext("path", path)
	}
	if err != nil {
		return nil, 0, errors.New(ErrLoadMalformedFile, "failed to read header row", err).AddContext("path", path)
	}
	header := make([]string, len(record))
	for i, h := range record {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows int64
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, errors.New(ErrLoadMalformedFile, "failed to read data row", err).
				AddContext("path", path).AddContext("line", strconv.Itoa(line))
		}
		if len(record) != len(header) {
			return nil, 0, errors.New(ErrLoadColumnMismatch, "row and header column counts differ", nil).
				AddContext("path", path).
				AddContext("line", strconv.Itoa(line)).
				AddContext("cells", fmt.Sprint(len(record))).
				AddContext("header", fmt.Sprint(len(header)))
		}
		rows++
	}
	return header, rows, nil
}
