package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fieldops/pdvstamp/internal/config"
	"github.com/fieldops/pdvstamp/internal/handlers"
	"github.com/fieldops/pdvstamp/internal/upload"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	var uploadsDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the watermarking web service",
		Long: `Starts the pdvstamp HTTP service on the specified port.

The console posts visit photos with the PDV name, promoter and visit
date/time; the service returns or stores the watermarked WebP and, when
PDVSTAMP_UPLOAD_URL is set, forwards it to the upload endpoint.`,
		Example: `  # Start server on default port 8888
  pdvstamp serve

  # Start server on custom port
  pdvstamp serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if uploadsDir != "" {
				cfg.UploadsDir = uploadsDir
			}

			processor, err := cfg.Processor()
			if err != nil {
				return err
			}

			uploader := upload.NewClientFromEnv()
			if uploader != nil {
				slog.Info("Forwarding evidence", "endpoint", uploader.Endpoint)
			}

			handler := handlers.New(processor, uploader, cfg.UploadsDir)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/watermark", handler.HandleWatermark)
			mux.HandleFunc("/api/evidence", handler.HandleEvidence)
			mux.HandleFunc("/api/evidence/", handler.HandleEvidenceDetail)
			mux.HandleFunc("/static/uploads/", handler.HandleStatic)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("pdvstamp service available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&uploadsDir, "uploads", "", "Directory for stored evidence (default $PDVSTAMP_UPLOADS_DIR or ./uploads)")

	return cmd
}
