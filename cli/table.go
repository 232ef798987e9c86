package cli

import (
	"github.com/gear6io/parity/display"
	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/consistency"
	"github.com/gear6io/parity/server/pipeline"
	"github.com/spf13/cobra"
)

var ErrArtifactNotUploaded = errors.MustNewCode("cli.artifact_not_uploaded")

func newCheckCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <table>",
		Short: "Compare a table with its current artifact",
		Long: `Read the table and its Parquet artifact and compare them row by row and
column by column without exporting first. A table changed since its last
export fails the data check.

Examples:
  parity check patients
  parity check patients --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTableCommand(cmd, root, args[0], func(rt *runtime, table string) ([]*pipeline.SyncResult, error) {
				res, err := rt.pipeline.Check(commandContext(cmd), table)
				return []*pipeline.SyncResult{res}, err
			})
		},
	}
}

func newExportCommand(root *rootOptions) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "export <table>",
		Short: "Export a table to Parquet and upload it",
		Long: `Serialize the whole table to Parquet and upload it to the object store
under <prefix><table>.parquet, then confirm the key is listed. With
--verify both consistency checks run against the new artifact.

Examples:
  parity export patients
  parity export patients --verify`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTableCommand(cmd, root, args[0], func(rt *runtime, table string) ([]*pipeline.SyncResult, error) {
				ctx := commandContext(cmd)
				if verify {
					res, err := rt.pipeline.Sync(ctx, table)
					return []*pipeline.SyncResult{res}, err
				}

				key, err := rt.exporter.Export(ctx, table)
				if err != nil {
					return nil, err
				}
				uploaded, err := rt.exporter.VerifyUploaded(ctx, key)
				if err != nil {
					return nil, err
				}
				if !uploaded {
					return nil, errors.New(ErrArtifactNotUploaded, "artifact not found after upload", nil).AddContext("key", key)
				}
				getDisplayFromContext(ctx).Success("Exported %s to %s/%s", table, rt.objects.Bucket(), key)
				return nil, nil
			})
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "run both consistency checks after the upload")
	return cmd
}

func newExerciseCommand(root *rootOptions) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "exercise <table>",
		Short: "Insert, update and delete a sample row, validating after each step",
		Long: `Insert a row of sample values, change its key column, delete it again
and re-export and validate the table after every mutation. The table is
left as it was.

Examples:
  parity exercise patients --key patient_id`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTableCommand(cmd, root, args[0], func(rt *runtime, table string) ([]*pipeline.SyncResult, error) {
				return rt.pipeline.Exercise(commandContext(cmd), table, key)
			})
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "column identifying the sample row")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

// runTableCommand opens the runtime, runs fn and renders its sync results
func runTableCommand(cmd *cobra.Command, root *rootOptions, table string, fn func(*runtime, string) ([]*pipeline.SyncResult, error)) error {
	ctx := commandContext(cmd)
	d := getDisplayFromContext(ctx)

	cfg, err := root.loadConfig(cmd)
	if err != nil {
		return err
	}
	format, err := root.tableFormat()
	if err != nil {
		return err
	}

	rt, err := openRuntime(ctx, cfg, getLoggerFromContext(ctx))
	if err != nil {
		return err
	}
	defer rt.Close()

	results, runErr := fn(rt, table)
	if data := checkTable(results); len(data.Rows) > 0 {
		if err := d.Table(data).WithFormat(format).Render(); err != nil {
			return err
		}
	}
	if runErr != nil {
		d.Error("%s: %v", table, runErr)
		return runErr
	}
	return nil
}

func checkTable(results []*pipeline.SyncResult) display.TableData {
	data := display.TableData{
		Headers: []string{"table", "artifact", "check", "ok", "rows", "columns", "mismatch"},
	}
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, r := range []*consistency.Result{res.Data, res.Schema} {
			if r == nil {
				continue
			}
			data.Rows = append(data.Rows, []interface{}{
				r.Table, res.Key, string(r.Kind), r.OK, r.RowsCompared, r.ColumnsCompared, r.Mismatch,
			})
		}
	}
	return data
}
