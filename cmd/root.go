package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	// Load .env file if present (ignore errors); flag defaults read PDVSTAMP_* values
	_ = godotenv.Load()

	cmd := &cobra.Command{
		Use:   "pdvstamp",
		Short: "Visit photo watermarking for field promoter evidence",
		Long: `pdvstamp burns visit evidence (PDV, promoter and visit time) into photos
taken during merchandising visits and re-encodes them as compressed WebP.

It runs as an HTTP service for the console, or as a CLI for single files
and batch manifests.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStampCmd())
	cmd.AddCommand(newBatchCmd())

	return cmd
}
