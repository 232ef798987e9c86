package cli

import (
	"fmt"

	"github.com/gear6io/parity/display"
	"github.com/gear6io/parity/server/inference"
	"github.com/gear6io/parity/server/store"
	"github.com/spf13/cobra"
)

type inferOptions struct {
	signedIntegers bool
	delimiter      string
}

func newInferCommand(root *rootOptions) *cobra.Command {
	opts := &inferOptions{}

	cmd := &cobra.Command{
		Use:   "infer <file>",
		Short: "Show the schema inferred for a delimited file",
		Long: `Classify every cell of a delimited file and print the resulting column
types together with the relational type the configured store would use.

Examples:
  parity infer data/patients.csv
  parity infer data/readings.tsv --delimiter '\t'
  parity infer data/ledger.csv --signed-integers --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfer(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.signedIntegers, "signed-integers", false, "classify negative whole numbers as integers")
	cmd.Flags().StringVar(&opts.delimiter, "delimiter", ",", "field delimiter")
	return cmd
}

func runInfer(cmd *cobra.Command, root *rootOptions, opts *inferOptions, path string) error {
	d := getDisplayFromContext(commandContext(cmd))

	cfg, err := root.loadConfig(cmd)
	if err != nil {
		return err
	}
	format, err := root.tableFormat()
	if err != nil {
		return err
	}
	comma, err := parseDelimiter(opts.delimiter)
	if err != nil {
		return err
	}
	dialect, err := store.DialectFor(cfg.Database.Driver)
	if err != nil {
		return err
	}

	inferer := inference.New(inference.Options{
		SignedIntegers: opts.signedIntegers || cfg.Pipeline.SignedIntegers,
		Comma:          comma,
	})
	schema, err := inferer.Infer(path)
	if err != nil {
		d.Error("Failed to infer schema for %s", path)
		return err
	}

	data := display.TableData{Headers: []string{"column", "type", "sql_type"}}
	for _, col := range schema {
		data.Rows = append(data.Rows, []interface{}{col.Name, col.Type.String(), dialect.SQLType(col.Type)})
	}
	if format == display.FormatTable {
		d.Info("Table %s (%d columns)", inference.TableName(path), len(schema))
	}
	return d.Table(data).WithFormat(format).Render()
}

// parseDelimiter accepts a single character or the escape \t
func parseDelimiter(s string) (rune, error) {
	if s == `\t` {
		return '\t', nil
	}
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	return runes[0], nil
}
