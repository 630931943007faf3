package cmd

import (
	"github.com/fieldops/pdvstamp/internal/batchcmd"
	"github.com/spf13/cobra"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Batch watermarking from visit manifests",
		Long: `Batch tools for stamping many visit photos at once.

A manifest (Parquet or JSONL) lists one photo per row with its PDV, promoter
and visit time. Photos are processed strictly one after another and a YAML
report is written when the run finishes.`,
	}

	// Add batch subcommands
	cmd.AddCommand(batchcmd.NewRunCmd())
	cmd.AddCommand(batchcmd.NewWatchCmd())
	cmd.AddCommand(batchcmd.NewConvertCmd())

	return cmd
}
