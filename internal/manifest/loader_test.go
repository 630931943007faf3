package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var sampleVisits = []Visit{
	{File: "loja1/gondola.jpg", SiteName: "Loja 1", Operator: "Ana", Timestamp: "2026-10-19 08:15"},
	{File: "loja2/ruptura.png", SiteName: "Loja 2", Operator: "Bruno", Timestamp: "2026-10-19T10:00:00-03:00"},
	{File: "loja3/validade.jpg", SiteName: "Loja 3", Operator: "Carla", Timestamp: "19/10/2026 16:45"},
}

func writeJSONL(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "visits.jsonl")
	if err := os.WriteFile(path, []byte(lines), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	path := "./visits.parquet"
	loader := NewLoader(path)

	if loader.path != path {
		t.Errorf("Expected path %s, got %s", path, loader.path)
	}
}

func TestLoadJSONL(t *testing.T) {
	path := writeJSONL(t, `{"file": "a.jpg", "pdv": "Loja 1", "promotor": "Ana", "timestamp": "2026-10-19 08:15"}

{"file": "b.jpg", "pdv": "Loja 2", "promotor": "Bruno", "timestamp": "2026-10-19 09:00"}
{"file": "c.jpg", "pdv": "Loja 3", "promotor": "Carla", "timestamp": "2026-10-19 10:00"}
`)

	visits, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(visits) != 3 {
		t.Fatalf("Expected 3 visits, got %d", len(visits))
	}
	if visits[1].SiteName != "Loja 2" || visits[1].Operator != "Bruno" {
		t.Errorf("Unexpected second visit: %+v", visits[1])
	}

	sample, err := NewLoader(path).LoadSample(2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(sample) != 2 {
		t.Errorf("Expected 2 visits, got %d", len(sample))
	}
}

func TestLoadJSONLErrors(t *testing.T) {
	tests := []struct {
		name  string
		lines string
	}{
		{"malformed json", "{not json}\n"},
		{"missing file", `{"pdv": "Loja 1"}` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLoader(writeJSONL(t, tt.lines)).Load(); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visits.parquet")
	if err := WriteParquet(path, sampleVisits); err != nil {
		t.Fatalf("Failed to write parquet: %v", err)
	}

	visits, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(visits) != len(sampleVisits) {
		t.Fatalf("Expected %d visits, got %d", len(sampleVisits), len(visits))
	}
	for i := range visits {
		if visits[i] != sampleVisits[i] {
			t.Errorf("Row %d: expected %+v, got %+v", i, sampleVisits[i], visits[i])
		}
	}

	sample, err := NewLoader(path).LoadSample(1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(sample) != 1 || sample[0].File != "loja1/gondola.jpg" {
		t.Errorf("Expected first visit only, got %+v", sample)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := NewLoader("visits.csv").Load(); err == nil {
		t.Error("Expected error for csv manifest")
	}
	if IsManifest("visits.csv") || !IsManifest("VISITS.PARQUET") || !IsManifest("a.jsonl") {
		t.Error("Unexpected IsManifest result")
	}
}

func TestVisitMetadata(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)

	meta, err := sampleVisits[0].Metadata(loc)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := time.Date(2026, 10, 19, 8, 15, 0, 0, loc)
	if !meta.Timestamp.Equal(expected) {
		t.Errorf("Expected %v, got %v", expected, meta.Timestamp)
	}
	if meta.SiteName != "Loja 1" || meta.OperatorName != "Ana" {
		t.Errorf("Unexpected metadata: %+v", meta)
	}

	bad := Visit{File: "x.jpg", Timestamp: "amanhã"}
	if _, err := bad.Metadata(loc); err == nil {
		t.Error("Expected error for bad timestamp")
	}
}
