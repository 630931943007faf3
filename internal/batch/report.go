package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReportConfig records the settings a batch ran with
type ReportConfig struct {
	Manifest  string  `yaml:"manifest"`
	ImagesDir string  `yaml:"imagesdir"`
	OutputDir string  `yaml:"outputdir"`
	Format    string  `yaml:"format"`
	MaxEdge   int     `yaml:"maxedge"`
	Quality   float64 `yaml:"quality"`
	Timestamp string  `yaml:"timestamp"`
}

// Result is the outcome of a single visit photo
type Result struct {
	File       string `yaml:"file"`
	SiteName   string `yaml:"pdv"`
	Operator   string `yaml:"promotor"`
	Status     Status `yaml:"status"`
	Output     string `yaml:"output,omitempty"`
	Width      int    `yaml:"width,omitempty"`
	Height     int    `yaml:"height,omitempty"`
	Bytes      int    `yaml:"bytes,omitempty"`
	DurationMS int64  `yaml:"durationms"`
	Error      string `yaml:"error,omitempty"`
}

// Summary counts results by status
type Summary struct {
	Total     int            `yaml:"total"`
	Succeeded int            `yaml:"succeeded"`
	Failed    int            `yaml:"failed"`
	ByStatus  map[Status]int `yaml:"bystatus"`
}

// Report is the YAML document written after a batch
type Report struct {
	Config  ReportConfig `yaml:"config"`
	Summary Summary      `yaml:"summary"`
	Results []Result     `yaml:"results"`
}

// Summarize recomputes the summary from the results
func (r *Report) Summarize() {
	summary := Summary{
		Total:    len(r.Results),
		ByStatus: make(map[Status]int),
	}
	for _, res := range r.Results {
		summary.ByStatus[res.Status]++
		if res.Status == StatusOK {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	r.Summary = summary
}

// SaveReport writes the report to dir/batch-[<manifest>-]<timestamp>-<random>.yaml
// and returns its path. The random suffix keeps runs finishing in the same
// second from overwriting each other.
func SaveReport(report *Report, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	prefix := "batch-"
	if report.Config.Manifest != "" {
		base := filepath.Base(report.Config.Manifest)
		prefix += strings.TrimSuffix(base, filepath.Ext(base)) + "-"
	}

	file, err := os.CreateTemp(dir, prefix+report.Config.Timestamp+"-*.yaml")
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	return file.Name(), nil
}

// PrintSummary writes a human readable summary to stdout
func PrintSummary(report *Report) {
	fmt.Println("\n========================================")
	fmt.Println("Batch Summary")
	fmt.Println("========================================")
	fmt.Printf("Total Visits:   %d\n", report.Summary.Total)
	fmt.Printf("Succeeded:      %d\n", report.Summary.Succeeded)
	fmt.Printf("Failed:         %d\n", report.Summary.Failed)
	for _, status := range []Status{StatusDecodeError, StatusEncodeError, StatusInvalid, StatusIOError, StatusUploadError} {
		if n := report.Summary.ByStatus[status]; n > 0 {
			fmt.Printf("  %s: %d\n", status, n)
		}
	}
	fmt.Printf("Output:         %s\n", report.Config.OutputDir)
	fmt.Println("========================================")
}
