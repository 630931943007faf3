package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/fieldops/pdvstamp/internal/raster"
	"github.com/fieldops/pdvstamp/internal/watermark"
)

// Config holds processor settings read from PDVSTAMP_* environment variables.
// Command flags override these values.
type Config struct {
	Format     string
	MaxEdge    int
	Quality    float64
	Timezone   string
	UploadsDir string
}

// FromEnv reads the configuration, falling back to the production defaults
func FromEnv() Config {
	policy := watermark.DefaultPolicy()
	cfg := Config{
		Format:     getenv("PDVSTAMP_FORMAT", string(watermark.FormatWebP)),
		MaxEdge:    policy.MaxEdge,
		Quality:    policy.Quality,
		Timezone:   getenv("PDVSTAMP_TIMEZONE", watermark.DefaultLocation),
		UploadsDir: getenv("PDVSTAMP_UPLOADS_DIR", "uploads"),
	}

	if v, err := strconv.Atoi(os.Getenv("PDVSTAMP_MAX_EDGE")); err == nil && v > 0 {
		cfg.MaxEdge = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("PDVSTAMP_QUALITY"), 64); err == nil && v > 0 && v <= 1 {
		cfg.Quality = v
	}

	return cfg
}

// Validate checks values that may have come from flags
func (c Config) Validate() error {
	if _, ok := watermark.ParseFormat(c.Format); !ok {
		return fmt.Errorf("unsupported format %q (supported: webp, jpeg)", c.Format)
	}
	if c.MaxEdge <= 0 {
		return fmt.Errorf("max edge must be positive, got %d", c.MaxEdge)
	}
	if c.Quality <= 0 || c.Quality > 1 {
		return fmt.Errorf("quality must be in (0, 1], got %v", c.Quality)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Processor builds a watermark processor on the raster backend
func (c Config) Processor() (*watermark.Processor, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	backend, err := raster.New()
	if err != nil {
		return nil, err
	}

	format, _ := watermark.ParseFormat(c.Format)
	loc, _ := time.LoadLocation(c.Timezone)

	policy := watermark.DefaultPolicy()
	policy.MaxEdge = c.MaxEdge
	policy.Quality = c.Quality

	return watermark.New(backend,
		watermark.WithPolicy(policy),
		watermark.WithFormat(format),
		watermark.WithLocation(loc),
	), nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// BindFlags registers processor flags on fs, using the current values as defaults
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Format, "format", c.Format, "Output format (webp or jpeg)")
	fs.IntVar(&c.MaxEdge, "max-edge", c.MaxEdge, "Longest output edge in pixels")
	fs.Float64Var(&c.Quality, "quality", c.Quality, "Lossy encoding quality between 0 and 1")
	fs.StringVar(&c.Timezone, "timezone", c.Timezone, "Zone the visit time is shown in")
}
