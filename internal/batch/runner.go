package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fieldops/pdvstamp/internal/manifest"
	"github.com/fieldops/pdvstamp/internal/upload"
	"github.com/fieldops/pdvstamp/internal/watermark"
)

// Status is the outcome of one manifest row
type Status string

const (
	StatusOK          Status = "ok"
	StatusDecodeError Status = "decode_error"
	StatusEncodeError Status = "encode_error"
	StatusInvalid     Status = "invalid"
	StatusIOError     Status = "io_error"
	StatusUploadError Status = "upload_error"
)

// Runner stamps manifest rows one at a time
type Runner struct {
	Processor *watermark.Processor
	ImagesDir string
	OutputDir string
	Uploader  *upload.Client // optional
}

// Run processes visits strictly in order. It stops between rows when ctx is
// cancelled and returns the partial report together with ctx.Err().
func (r *Runner) Run(ctx context.Context, visits []manifest.Visit) (*Report, error) {
	report := &Report{
		Config: ReportConfig{
			ImagesDir: r.ImagesDir,
			OutputDir: r.OutputDir,
			Format:    string(r.Processor.Format()),
			MaxEdge:   r.Processor.Policy().MaxEdge,
			Quality:   r.Processor.Policy().Quality,
			Timestamp: time.Now().Format("2006-01-02_15-04-05"),
		},
		Results: make([]Result, 0, len(visits)),
	}

	if err := os.MkdirAll(r.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	for i, visit := range visits {
		if err := ctx.Err(); err != nil {
			slog.Warn("Batch interrupted", "processed", i, "total", len(visits))
			report.Summarize()
			return report, err
		}

		slog.Info("Processing visit", "index", i+1, "total", len(visits), "file", visit.File, "pdv", visit.SiteName)

		result := r.processVisit(ctx, visit)
		if result.Status != StatusOK {
			slog.Warn("Visit failed", "file", visit.File, "status", result.Status, "error", result.Error)
		}
		report.Results = append(report.Results, result)
	}

	report.Summarize()
	return report, nil
}

func (r *Runner) processVisit(ctx context.Context, visit manifest.Visit) Result {
	start := time.Now()
	result := Result{File: visit.File, SiteName: visit.SiteName, Operator: visit.Operator}
	defer func() {
		result.DurationMS = time.Since(start).Milliseconds()
	}()

	// rows may only name files below the images and output directories
	if !filepath.IsLocal(visit.File) {
		return result.fail(StatusInvalid, fmt.Errorf("file %q must be a relative path inside the images directory", visit.File))
	}
	file := filepath.Clean(visit.File)

	meta, err := visit.Metadata(r.Processor.Location())
	if err != nil {
		return result.fail(StatusInvalid, err)
	}

	data, err := os.ReadFile(filepath.Join(r.ImagesDir, file))
	if err != nil {
		return result.fail(StatusIOError, err)
	}

	img, err := r.Processor.Process(data, file, meta)
	if err != nil {
		var decodeErr *watermark.DecodeError
		if errors.As(err, &decodeErr) {
			return result.fail(StatusDecodeError, err)
		}
		return result.fail(StatusEncodeError, err)
	}

	outputPath := filepath.Join(r.OutputDir, filepath.Dir(file), img.Filename)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return result.fail(StatusIOError, err)
	}
	if err := os.WriteFile(outputPath, img.Data, 0644); err != nil {
		return result.fail(StatusIOError, err)
	}

	result.Output = outputPath
	result.Width = img.Width
	result.Height = img.Height
	result.Bytes = len(img.Data)

	if r.Uploader != nil {
		fields := map[string]string{
			"pdv":       meta.SiteName,
			"promotor":  meta.OperatorName,
			"timestamp": meta.Timestamp.Format(time.RFC3339),
		}
		if err := r.Uploader.Send(ctx, img, fields); err != nil {
			return result.fail(StatusUploadError, err)
		}
	}

	result.Status = StatusOK
	return result
}

func (res Result) fail(status Status, err error) Result {
	res.Status = status
	res.Error = err.Error()
	return res
}
