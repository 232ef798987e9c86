// Package inference derives a relational column type per column of a
// delimited file by classifying every data cell.
package inference

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/types"
)

// Options tunes classification
type Options struct {
	// SignedIntegers classifies "-12" as Integer. Off by default: only
	// unsigned digit strings are integers and negative numbers fall through
	// to Float.
	SignedIntegers bool

	// Comma is the field delimiter, ',' when zero.
	Comma rune
}

// Inferer infers a ColumnSchema from a delimited file
type Inferer struct {
	opts Options
}

// New creates an Inferer
func New(opts Options) *Inferer {
	if opts.Comma == 0 {
		opts.Comma = ','
	}
	return &Inferer{opts: opts}
}

// Infer reads the file at path and returns one schema entry per header column
func (in *Inferer) Infer(path string) (types.ColumnSchema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(InferenceFileOpenFailed, "failed to open source file", err).AddContext("path", path)
	}
	defer f.Close()

	schema, err := in.InferReader(f)
	if err != nil {
		if e, ok := errors.As(err); ok {
			e.AddContext("path", path)
		}
		return nil, err
	}
	return schema, nil
}

// InferReader is Infer over an arbitrary reader.
//
// The first data row initializes every column's type. On any later row a
// column whose cell classifies differently is demoted to String and never
// reconsidered. A file with a header and no data rows yields String for every
// column.
func (in *Inferer) InferReader(r io.Reader) (types.ColumnSchema, error) {
	reader := csv.NewReader(r)
	reader.Comma = in.opts.Comma
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New(InferenceMissingHeader, "source file has no header row", nil)
	}
	if err != nil {
		return nil, errors.New(InferenceMalformedFile, "failed to read header row", err)
	}

	schema := make(types.ColumnSchema, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "" {
			return nil, errors.New(InferenceEmptyColumn, "header has an empty column name", nil).AddContext("position", strconv.Itoa(i))
		}
		schema[i] = types.Column{Name: name, Type: types.TypeString}
	}

	initialized := make([]bool, len(schema))
	demoted := make([]bool, len(schema))

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.New(InferenceMalformedFile, "failed to read data row", err).AddContext("line", strconv.Itoa(line))
		}

		for i, value := range record {
			if i >= len(schema) || demoted[i] {
				continue
			}
			observed := in.Classify(value)
			switch {
			case !initialized[i]:
				schema[i].Type = observed
				initialized[i] = true
			case schema[i].Type != observed:
				schema[i].Type = types.TypeString
				demoted[i] = true
			}
		}
	}

	return schema, nil
}

// Classify returns the most specific type for a single cell, trying integer,
// float, date and finally string.
func (in *Inferer) Classify(value string) types.ColumnType {
	if in.isInteger(value) {
		return types.TypeInteger
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return types.TypeFloat
	}
	if _, err := time.Parse(types.DateLayout, value); err == nil {
		return types.TypeDate
	}
	return types.TypeString
}

// isInteger accepts ASCII digit strings that fit in int64, optionally signed
// when SignedIntegers is set.
func (in *Inferer) isInteger(value string) bool {
	digits := value
	if in.opts.SignedIntegers && len(digits) > 1 && (digits[0] == '-' || digits[0] == '+') {
		digits = digits[1:]
	}
	if digits == "" {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	// Digit strings past int64 are left to the Float check, since Integer
	// columns are BIGINT.
	_, err := strconv.ParseInt(value, 10, 64)
	return err == nil
}

// TableName derives the table name for a source file: its base name without
// extension.
func TableName(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}
