package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fieldops/pdvstamp/internal/config"
	"github.com/fieldops/pdvstamp/internal/upload"
	"github.com/fieldops/pdvstamp/internal/watermark"
	"github.com/spf13/cobra"
)

func newStampCmd() *cobra.Command {
	cfg := config.FromEnv()
	var siteName string
	var operator string
	var at string
	var outputDir string
	var send bool

	cmd := &cobra.Command{
		Use:   "stamp <image>...",
		Short: "Watermark one or more photos",
		Long: `Burns the visit caption into each photo and writes the result next to it
(or into --output) with the extension replaced by the output format.

Photos are processed one after another; the first failure stops the run.`,
		Example: `  # Stamp a single photo with the current time
  pdvstamp stamp gondola.jpg --pdv "Supermercado Central" --promotor "Ana Souza"

  # Stamp with an explicit visit time and forward to the upload endpoint
  pdvstamp stamp *.jpg --pdv "Loja 12" --promotor "Rui" --at "2026-10-19 14:07" --upload`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			processor, err := cfg.Processor()
			if err != nil {
				return err
			}

			meta := watermark.Metadata{
				SiteName:     siteName,
				OperatorName: operator,
				Timestamp:    time.Now(),
			}
			if at != "" {
				meta.Timestamp, err = watermark.ParseTimestamp(at, processor.Location())
				if err != nil {
					return err
				}
			}

			var uploader *upload.Client
			if send {
				if uploader = upload.NewClientFromEnv(); uploader == nil {
					return fmt.Errorf("--upload requires PDVSTAMP_UPLOAD_URL")
				}
			}

			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}

				img, err := processor.Process(data, path, meta)
				if err != nil {
					return err
				}

				dir := outputDir
				if dir == "" {
					dir = filepath.Dir(path)
				}
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}

				outputPath := filepath.Join(dir, img.Filename)
				if err := os.WriteFile(outputPath, img.Data, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", outputPath, err)
				}
				slog.Info("Photo stamped", "input", path, "output", outputPath, "width", img.Width, "height", img.Height, "bytes", len(img.Data))

				if uploader != nil {
					fields := map[string]string{
						"pdv":       meta.SiteName,
						"promotor":  meta.OperatorName,
						"timestamp": meta.Timestamp.Format(time.RFC3339),
					}
					if err := uploader.Send(cmd.Context(), img, fields); err != nil {
						return err
					}
				}

				fmt.Fprintln(cmd.OutOrStdout(), outputPath)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&siteName, "pdv", "", "PDV (site) name shown on the caption")
	cmd.Flags().StringVar(&operator, "promotor", "", "Promoter name shown on the caption")
	cmd.Flags().StringVar(&at, "at", "", "Visit time, RFC 3339 or \"YYYY-MM-DD HH:MM\" (default now)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default next to each input)")
	cmd.Flags().BoolVar(&send, "upload", false, "Forward each result to $PDVSTAMP_UPLOAD_URL")
	cfg.BindFlags(cmd.Flags())

	return cmd
}
