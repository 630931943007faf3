package manifest

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Loader reads visit manifests from Parquet or JSONL files
type Loader struct {
	path string
}

// NewLoader creates a new manifest loader
func NewLoader(path string) *Loader {
	return &Loader{
		path: path,
	}
}

// IsManifest reports whether path has a supported manifest extension
func IsManifest(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".jsonl", ".json":
		return true
	}
	return false
}

// Load loads every visit in the manifest
func (l *Loader) Load() ([]Visit, error) {
	return l.LoadSample(-1)
}

// LoadSample loads at most limit visits; a negative limit loads everything
func (l *Loader) LoadSample(limit int) ([]Visit, error) {
	// Detect file format
	ext := strings.ToLower(filepath.Ext(l.path))

	switch ext {
	case ".parquet":
		return l.loadParquet(limit)
	case ".jsonl", ".json":
		return l.loadJSONL(limit)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", ext)
	}
}

// loadJSONL loads visits from a JSONL file, one object per line
func (l *Loader) loadJSONL(limit int) ([]Visit, error) {
	slog.Debug("Opening JSONL manifest", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest file: %w", err)
	}
	defer file.Close()

	var visits []Visit
	scanner := bufio.NewScanner(file)

	// Increase buffer size for long lines
	const maxCapacity = 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		if limit >= 0 && len(visits) >= limit {
			break
		}
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		var visit Visit
		if err := json.Unmarshal([]byte(line), &visit); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		if visit.File == "" {
			return nil, fmt.Errorf("missing file at line %d", lineNum)
		}

		visits = append(visits, visit)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}

	slog.Debug("Finished reading JSONL manifest", "visits", len(visits), "lines", lineNum)

	return visits, nil
}

// loadParquet loads visits from a Parquet file
func (l *Loader) loadParquet(limit int) ([]Visit, error) {
	slog.Debug("Opening Parquet manifest", "path", l.path, "limit", limit)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet manifest opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[Visit](pf)
	defer reader.Close()

	var visits []Visit
	rows := make([]Visit, 128) // Read in batches

	for limit < 0 || len(visits) < limit {
		n, err := reader.Read(rows)
		if n > 0 {
			if limit >= 0 && n > limit-len(visits) {
				n = limit - len(visits)
			}
			visits = append(visits, rows[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("Finished reading Parquet manifest", "visits", len(visits))

	return visits, nil
}

// WriteParquet writes visits to path, used to build manifests from other tools
func WriteParquet(path string, visits []Visit) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[Visit](file)
	if _, err := writer.Write(visits); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
