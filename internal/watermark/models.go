package watermark

import (
	"image"
	"image/color"
	"time"
)

// Metadata is the visit evidence burned into a photo
type Metadata struct {
	SiteName     string    `json:"site_name"`
	OperatorName string    `json:"operator_name"`
	Timestamp    time.Time `json:"timestamp"`
}

// Format is the encoding of a processed image
type Format string

const (
	FormatWebP Format = "webp"
	FormatJPEG Format = "jpeg"
)

// Extension returns the file extension for the format, including the dot
func (f Format) Extension() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	default:
		return ".webp"
	}
}

// MIMEType returns the content type for the format
func (f Format) MIMEType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	default:
		return "image/webp"
	}
}

// ParseFormat maps a user supplied name to a Format
func ParseFormat(name string) (Format, bool) {
	switch name {
	case "", "webp":
		return FormatWebP, true
	case "jpeg", "jpg":
		return FormatJPEG, true
	}
	return "", false
}

// SourceImage is a decoded input image
type SourceImage struct {
	Image  image.Image
	Width  int
	Height int
}

// ProcessedImage is the encoded, watermarked output of a single Process call
type ProcessedImage struct {
	Data     []byte
	Filename string
	Format   Format
	Width    int
	Height   int
}

// Line is one rendered caption line
type Line struct {
	Text     string
	Bold     bool
	Baseline int
}

// Layout describes everything a backend needs to composite the watermark
type Layout struct {
	Width    int
	Height   int
	Box      image.Rectangle
	Overlay  color.NRGBA
	FontSize float64
	PaddingX int
	Lines    []Line
}

// Backend decodes, composites and encodes images.
// The processor owns the scaling and layout math; backends only draw.
type Backend interface {
	Decode(data []byte) (image.Image, error)
	Composite(src image.Image, layout Layout) (image.Image, error)
	Encode(img image.Image, format Format, quality float64) ([]byte, error)
}
