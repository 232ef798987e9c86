package cli

import (
	"github.com/gear6io/parity/display"
	"github.com/gear6io/parity/server/metadata/registry/regtypes"
	"github.com/spf13/cobra"
)

type runOptions struct {
	file       string
	noRollback bool
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "Load, export and validate every CSV file of a directory",
		Long: `Run the pipeline over every *.csv file of a directory in name order.
Each file becomes a table named after it. A failing file stops the run and,
unless --no-rollback is given, its table is dropped.

The directory defaults to pipeline.data_dir from the configuration.

Examples:
  parity run
  parity run ./data
  parity run --file ./data/patients.csv
  parity run ./data --no-rollback`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, root, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "run a single file instead of a directory")
	cmd.Flags().BoolVar(&opts.noRollback, "no-rollback", false, "keep the table of a failed file")
	return cmd
}

func runPipeline(cmd *cobra.Command, root *rootOptions, opts *runOptions, args []string) error {
	ctx := commandContext(cmd)
	d := getDisplayFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	cfg, err := root.loadConfig(cmd)
	if err != nil {
		return err
	}
	format, err := root.tableFormat()
	if err != nil {
		return err
	}
	if opts.noRollback {
		cfg.Pipeline.RollbackOnFailure = false
	}

	rt, err := openRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	var records []regtypes.RunRecord
	var runErr error
	if opts.file != "" {
		rec, err := rt.pipeline.RunFile(ctx, opts.file)
		records, runErr = []regtypes.RunRecord{*rec}, err
	} else {
		dir := cfg.Pipeline.DataDir
		if len(args) == 1 {
			dir = args[0]
		}
		records, runErr = rt.pipeline.Run(ctx, dir)
	}

	if len(records) > 0 {
		if err := d.Table(runTable(records)).WithFormat(format).Render(); err != nil {
			return err
		}
	}
	if runErr != nil {
		d.Error("Pipeline failed: %v", runErr)
		return runErr
	}
	if format == display.FormatTable {
		d.Success("Loaded, exported and validated %d table(s)", len(records))
	}
	return nil
}

func runTable(records []regtypes.RunRecord) display.TableData {
	data := display.TableData{
		Headers: []string{"run_id", "table", "status", "rows", "artifact", "duration", "error"},
	}
	for _, rec := range records {
		data.Rows = append(data.Rows, []interface{}{
			rec.ID, rec.Table, rec.Status, rec.RowsLoaded, rec.ArtifactKey, rec.Duration().String(), rec.Error,
		})
	}
	return data
}
