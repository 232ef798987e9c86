package cli

import (
	"github.com/gear6io/parity/server/metadata/registry/regtypes"
	"github.com/spf13/cobra"
)

func newRunsCommand(root *rootOptions) *cobra.Command {
	var limit int
	var table string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded pipeline runs",
		Long: `List the most recent pipeline runs from the run ledger, newest first.

Examples:
  parity runs
  parity runs --limit 50
  parity runs --table patients`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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
			if cfg.Registry.Path == "" {
				d.Warning("Run ledger is disabled (registry.path is empty)")
				return nil
			}

			ledger, err := openLedger(ctx, cfg, getLoggerFromContext(ctx))
			if err != nil {
				return err
			}
			defer ledger.Close()

			if table != "" {
				rec, err := ledger.Latest(ctx, table)
				if err != nil {
					return err
				}
				return d.Table(runTable([]regtypes.RunRecord{*rec})).WithFormat(format).Render()
			}

			records, err := ledger.List(ctx, limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				d.Info("No runs recorded")
				return nil
			}
			return d.Table(runTable(records)).WithFormat(format).Render()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show")
	cmd.Flags().StringVar(&table, "table", "", "show only the latest run of this table")
	return cmd
}
