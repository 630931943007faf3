package batchcmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fieldops/pdvstamp/internal/batch"
	"github.com/fieldops/pdvstamp/internal/manifest"
	"github.com/fieldops/pdvstamp/internal/upload"
	"github.com/fieldops/pdvstamp/internal/watermark"
)

func executeBatch(ctx context.Context, processor *watermark.Processor, opts runOptions) (*batch.Report, error) {
	slog.Info("Starting batch", "manifest", opts.manifestPath, "images", opts.imagesDir, "output", opts.outputDir, "sample", opts.sampleSize)

	visits, err := manifest.NewLoader(opts.manifestPath).LoadSample(opts.sampleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	slog.Info("Loaded manifest", "visits", len(visits))

	runner := &batch.Runner{
		Processor: processor,
		ImagesDir: opts.imagesDir,
		OutputDir: opts.outputDir,
	}
	if opts.send {
		if runner.Uploader = upload.NewClientFromEnv(); runner.Uploader == nil {
			return nil, fmt.Errorf("--upload requires PDVSTAMP_UPLOAD_URL")
		}
	}

	report, runErr := runner.Run(ctx, visits)
	if report == nil {
		return nil, runErr
	}
	report.Config.Manifest = opts.manifestPath

	reportPath, err := batch.SaveReport(report, opts.reportsDir)
	if err != nil {
		return report, err
	}

	batch.PrintSummary(report)
	fmt.Printf("\nReport saved to: %s\n", reportPath)

	return report, runErr
}

func executeWatch(ctx context.Context, processor *watermark.Processor, dir string, debounce time.Duration, opts runOptions) error {
	watcher := &batch.Watcher{
		Dir:      dir,
		Debounce: debounce,
		Handle: func(ctx context.Context, path string) error {
			run := opts
			run.manifestPath = path
			// keep results of different manifests apart
			run.outputDir = filepath.Join(opts.outputDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
			_, err := executeBatch(ctx, processor, run)
			return err
		},
	}
	return watcher.Run(ctx)
}

func executeConvert(input, output string) error {
	visits, err := manifest.NewLoader(input).Load()
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	if err := manifest.WriteParquet(output, visits); err != nil {
		return err
	}

	slog.Info("Manifest converted", "input", input, "output", output, "visits", len(visits))
	return nil
}
