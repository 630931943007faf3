package batchcmd

import (
	"fmt"
	"os"
	"time"

	"github.com/fieldops/pdvstamp/internal/config"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command for a single manifest
func NewRunCmd() *cobra.Command {
	cfg := config.FromEnv()
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Stamp every photo listed in a manifest",
		Long: `Reads a Parquet or JSONL manifest with the columns file, pdv, promotor and
timestamp, stamps each photo found under --images and writes the results to
--output, keeping the manifest's relative directories.

Rows that fail are recorded in the report; the run continues with the next row.`,
		Example: `  # Stamp a day of visits
  pdvstamp batch run --manifest visits.parquet --images ./fotos --output ./carimbadas

  # Try the first 10 rows as JPEG
  pdvstamp batch run --manifest visits.jsonl --images ./fotos --sample 10 --format jpeg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Check if manifest file exists
			if _, err := os.Stat(opts.manifestPath); os.IsNotExist(err) {
				return fmt.Errorf("manifest file not found: %s", opts.manifestPath)
			}

			processor, err := cfg.Processor()
			if err != nil {
				return err
			}

			_, err = executeBatch(cmd.Context(), processor, opts)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.manifestPath, "manifest", "", "Path to the visit manifest (.parquet or .jsonl)")
	opts.bindFlags(cmd)
	cfg.BindFlags(cmd.Flags())

	_ = cmd.MarkFlagRequired("manifest")
	return cmd
}

// NewWatchCmd creates the watch command that runs a batch for every manifest dropped in a folder
func NewWatchCmd() *cobra.Command {
	cfg := config.FromEnv()
	var opts runOptions
	var dir string
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run a batch for every manifest dropped into a folder",
		Long: `Watches --dir for new or updated manifest files and runs a batch for each one
once writes to it have settled. Manifests are processed one at a time.`,
		Example: `  pdvstamp batch watch --dir ./entrada --images ./fotos --output ./carimbadas`,
		RunE: func(cmd *cobra.Command, args []string) error {
			processor, err := cfg.Processor()
			if err != nil {
				return err
			}
			return executeWatch(cmd.Context(), processor, dir, debounce, opts)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Folder to watch for manifests")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Quiet period before a manifest is processed")
	opts.bindFlags(cmd)
	cfg.BindFlags(cmd.Flags())

	return cmd
}

// NewConvertCmd creates the convert command that turns a JSONL manifest into Parquet
func NewConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <input.jsonl> <output.parquet>",
		Short: "Convert a JSONL manifest to Parquet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeConvert(args[0], args[1])
		},
	}
	return cmd
}

type runOptions struct {
	manifestPath string
	imagesDir    string
	outputDir    string
	reportsDir   string
	sampleSize   int
	send         bool
}

func (o *runOptions) bindFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.imagesDir, "images", ".", "Directory the manifest's file paths are relative to")
	cmd.Flags().StringVar(&o.outputDir, "output", "./stamped", "Output directory for watermarked photos")
	cmd.Flags().StringVar(&o.reportsDir, "reports", "reports", "Directory for YAML run reports")
	cmd.Flags().IntVar(&o.sampleSize, "sample", -1, "Number of rows to process (-1 for all)")
	cmd.Flags().BoolVar(&o.send, "upload", false, "Forward each result to $PDVSTAMP_UPLOAD_URL")
}
