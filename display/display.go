// Package display renders command output: status lines and tables in table,
// CSV or JSON form.
package display

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
)

// Format selects how a table is rendered
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// ParseFormat validates a user supplied format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatCSV, FormatJSON:
		return f, nil
	case "":
		return FormatTable, nil
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

// TableData is a header row plus data rows
type TableData struct {
	Headers []string
	Rows    [][]interface{}
}

// Display prints to the terminal or any writer
type Display interface {
	Info(format string, args ...interface{})
	Success(format string, args ...interface{})
	Warning(format string, args ...interface{})
	Error(format string, args ...interface{})
	Table(data TableData) *TableRenderer
}

type ptermDisplay struct {
	out io.Writer
}

// New returns a display writing to stdout
func New() Display {
	return NewWithWriter(os.Stdout)
}

// NewWithWriter returns a display writing to out. Colors are disabled when
// plain is requested through DisableColor.
func NewWithWriter(out io.Writer) Display {
	return &ptermDisplay{out: out}
}

// DisableColor turns off styling for every display, used when stdout is not
// a terminal
func DisableColor() {
	pterm.DisableStyling()
}

func (d *ptermDisplay) Info(format string, args ...interface{}) {
	pterm.Info.WithWriter(d.out).Printfln(format, args...)
}

func (d *ptermDisplay) Success(format string, args ...interface{}) {
	pterm.Success.WithWriter(d.out).Printfln(format, args...)
}

func (d *ptermDisplay) Warning(format string, args ...interface{}) {
	pterm.Warning.WithWriter(d.out).Printfln(format, args...)
}

func (d *ptermDisplay) Error(format string, args ...interface{}) {
	pterm.Error.WithWriter(d.out).Printfln(format, args...)
}

func (d *ptermDisplay) Table(data TableData) *TableRenderer {
	return &TableRenderer{out: d.out, data: data, format: FormatTable}
}

// TableRenderer renders one table
type TableRenderer struct {
	out    io.Writer
	data   TableData
	format Format
}

// WithFormat selects the output format
func (t *TableRenderer) WithFormat(f Format) *TableRenderer {
	t.format = f
	return t
}

// Render writes the table
func (t *TableRenderer) Render() error {
	switch t.format {
	case FormatCSV:
		return t.renderCSV()
	case FormatJSON:
		return t.renderJSON()
	default:
		return t.renderTable()
	}
}

func (t *TableRenderer) renderTable() error {
	data := pterm.TableData{t.data.Headers}
	for _, row := range t.data.Rows {
		data = append(data, cells(row))
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(t.out).Render()
}

func (t *TableRenderer) renderCSV() error {
	w := csv.NewWriter(t.out)
	if err := w.Write(t.data.Headers); err != nil {
		return err
	}
	for _, row := range t.data.Rows {
		if err := w.Write(cells(row)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (t *TableRenderer) renderJSON() error {
	out := make([]map[string]interface{}, 0, len(t.data.Rows))
	for _, row := range t.data.Rows {
		obj := make(map[string]interface{}, len(t.data.Headers))
		for i, h := range t.data.Headers {
			if i < len(row) {
				obj[h] = row[i]
			}
		}
		out = append(out, obj)
	}
	enc := json.NewEncoder(t.out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func cells(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if v == nil {
			out[i] = "NULL"
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}

type contextKey struct{}

// WithDisplay stores d in ctx
func WithDisplay(ctx context.Context, d Display) context.Context {
	return context.WithValue(ctx, contextKey{}, d)
}

// GetDisplayOrDefault returns the display stored in ctx, or a stdout display
func GetDisplayOrDefault(ctx context.Context) Display {
	if ctx != nil {
		if d, ok := ctx.Value(contextKey{}).(Display); ok {
			return d
		}
	}
	return New()
}

// FormatBytes formats a byte count as a human-readable string
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
