package batch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/fieldops/pdvstamp/internal/manifest"
	"github.com/fieldops/pdvstamp/internal/raster"
	"github.com/fieldops/pdvstamp/internal/watermark"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("Failed to encode fixture: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
}

func newRunner(t *testing.T) *Runner {
	t.Helper()
	backend, err := raster.New()
	if err != nil {
		t.Fatalf("Failed to create backend: %v", err)
	}
	return &Runner{
		Processor: watermark.New(backend),
		ImagesDir: t.TempDir(),
		OutputDir: filepath.Join(t.TempDir(), "out"),
	}
}

func TestRun(t *testing.T) {
	runner := newRunner(t)
	writePNG(t, filepath.Join(runner.ImagesDir, "loja1", "gondola.png"), 1600, 1200)
	writePNG(t, filepath.Join(runner.ImagesDir, "loja2", "gondola.png"), 300, 200)
	if err := os.WriteFile(filepath.Join(runner.ImagesDir, "broken.jpg"), []byte("nope"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	visits := []manifest.Visit{
		{File: "loja1/gondola.png", SiteName: "Loja 1", Operator: "Ana", Timestamp: "2026-10-19 08:00"},
		{File: "loja2/gondola.png", SiteName: "Loja 2", Operator: "Ana", Timestamp: "2026-10-19 09:00"},
		{File: "broken.jpg", SiteName: "Loja 3", Operator: "Ana", Timestamp: "2026-10-19 10:00"},
		{File: "missing.jpg", SiteName: "Loja 4", Operator: "Ana", Timestamp: "2026-10-19 11:00"},
		{File: "loja1/gondola.png", SiteName: "Loja 5", Operator: "Ana", Timestamp: "logo mais"},
	}

	report, err := runner.Run(context.Background(), visits)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := []Status{StatusOK, StatusOK, StatusDecodeError, StatusIOError, StatusInvalid}
	if len(report.Results) != len(expected) {
		t.Fatalf("Expected %d results, got %d", len(expected), len(report.Results))
	}
	for i, status := range expected {
		if report.Results[i].Status != status {
			t.Errorf("Result %d: expected %s, got %s (%s)", i, status, report.Results[i].Status, report.Results[i].Error)
		}
	}

	first := report.Results[0]
	if first.Width != 1280 || first.Height != 960 {
		t.Errorf("Expected 1280x960, got %dx%d", first.Width, first.Height)
	}
	if first.Output != filepath.Join(runner.OutputDir, "loja1", "gondola.webp") {
		t.Errorf("Unexpected output path %s", first.Output)
	}
	for _, res := range report.Results[:2] {
		if _, err := os.Stat(res.Output); err != nil {
			t.Errorf("Expected output file %s: %v", res.Output, err)
		}
	}

	if report.Summary.Total != 5 || report.Summary.Succeeded != 2 || report.Summary.Failed != 3 {
		t.Errorf("Unexpected summary: %+v", report.Summary)
	}
}

func TestRunStopsWhenCancelled(t *testing.T) {
	runner := newRunner(t)
	writePNG(t, filepath.Join(runner.ImagesDir, "a.png"), 10, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := runner.Run(ctx, []manifest.Visit{{File: "a.png", Timestamp: "2026-10-19 08:00"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if len(report.Results) != 0 {
		t.Errorf("Expected no processed rows, got %d", len(report.Results))
	}
}

func TestSaveReport(t *testing.T) {
	report := &Report{
		Config: ReportConfig{Format: "webp", MaxEdge: 1280, Quality: 0.8, Timestamp: "2026-10-19_12-00-00"},
		Results: []Result{
			{File: "a.jpg", Status: StatusOK, Width: 100, Height: 50},
			{File: "b.jpg", Status: StatusDecodeError, Error: "bad"},
		},
	}
	report.Summarize()

	path, err := SaveReport(report, filepath.Join(t.TempDir(), "reports"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if name := filepath.Base(path); !strings.HasPrefix(name, "batch-2026-10-19_12-00-00-") || filepath.Ext(name) != ".yaml" {
		t.Errorf("Unexpected report name %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	var loaded Report
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Invalid YAML: %v", err)
	}
	if loaded.Summary.Succeeded != 1 || loaded.Summary.ByStatus[StatusDecodeError] != 1 {
		t.Errorf("Unexpected summary after reload: %+v", loaded.Summary)
	}
	if loaded.Results[1].Error != "bad" {
		t.Errorf("Expected error to be kept, got %+v", loaded.Results[1])
	}
}

func TestSaveReportKeepsRunsInTheSameSecond(t *testing.T) {
	dir := t.TempDir()

	var paths []string
	for _, manifestPath := range []string{"entrada/loja1.jsonl", "entrada/loja1.jsonl", "entrada/loja2.parquet"} {
		report := &Report{Config: ReportConfig{Manifest: manifestPath, Timestamp: "2026-10-19_14-22-46"}}
		report.Summarize()

		path, err := SaveReport(report, dir)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		paths = append(paths, path)
	}

	if paths[0] == paths[1] {
		t.Errorf("Expected distinct report paths, got %s twice", paths[0])
	}
	if !strings.HasPrefix(filepath.Base(paths[2]), "batch-loja2-2026-10-19_14-22-46-") {
		t.Errorf("Expected manifest name in report path, got %s", paths[2])
	}

	files, err := filepath.Glob(filepath.Join(dir, "batch-*.yaml"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(files) != 3 {
		t.Errorf("Expected 3 report files, got %v", files)
	}
}

func TestRunRejectsPathsOutsideImagesDir(t *testing.T) {
	runner := newRunner(t)
	parent := filepath.Dir(runner.ImagesDir)
	writePNG(t, filepath.Join(parent, "evil.png"), 10, 10)

	visits := []manifest.Visit{
		{File: "../evil.png", Timestamp: "2026-10-19 08:00"},
		{File: "loja/../../evil.png", Timestamp: "2026-10-19 08:00"},
		{File: filepath.Join(parent, "evil.png"), Timestamp: "2026-10-19 08:00"},
	}

	report, err := runner.Run(context.Background(), visits)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for i, res := range report.Results {
		if res.Status != StatusInvalid {
			t.Errorf("Row %d (%s): expected %s, got %s", i, visits[i].File, StatusInvalid, res.Status)
		}
		if res.Output != "" {
			t.Errorf("Row %d: expected no output, got %s", i, res.Output)
		}
	}

	outside := filepath.Join(filepath.Dir(runner.OutputDir), "evil.webp")
	if _, err := os.Stat(outside); !os.IsNotExist(err) {
		t.Errorf("Expected nothing written outside the output directory, got %v", err)
	}
}
