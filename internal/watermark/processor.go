package watermark

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"
)

// DefaultLocation is the zone visit timestamps are rendered in
const DefaultLocation = "America/Sao_Paulo"

var (
	errEmptyInput  = errors.New("empty image data")
	errEmptyImage  = errors.New("image has no pixels")
	errEmptyOutput = errors.New("encoder produced no output")
)

// Processor watermarks visit photos. It holds no per-call state and is
// safe to share; each Process call allocates its own canvas.
type Processor struct {
	backend  Backend
	policy   Policy
	format   Format
	location *time.Location
}

// Option configures a Processor
type Option func(*Processor)

// WithPolicy overrides the sizing and quality settings
func WithPolicy(policy Policy) Option {
	return func(p *Processor) {
		p.policy = policy
	}
}

// WithFormat sets the output encoding
func WithFormat(format Format) Option {
	return func(p *Processor) {
		p.format = format
	}
}

// WithLocation sets the zone used for the DATA / HORA caption
func WithLocation(loc *time.Location) Option {
	return func(p *Processor) {
		if loc != nil {
			p.location = loc
		}
	}
}

// New creates a processor backed by the given backend
func New(backend Backend, opts ...Option) *Processor {
	loc, err := time.LoadLocation(DefaultLocation)
	if err != nil {
		loc = time.Local
	}

	p := &Processor{
		backend:  backend,
		policy:   DefaultPolicy(),
		format:   FormatWebP,
		location: loc,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Policy returns the processor's active settings
func (p *Processor) Policy() Policy {
	return p.policy
}

// Format returns the processor's output encoding
func (p *Processor) Format() Format {
	return p.format
}

// Decode reads data into a SourceImage
func (p *Processor) Decode(data []byte, filename string) (*SourceImage, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Filename: filename, Err: errEmptyInput}
	}

	img, err := p.backend.Decode(data)
	if err != nil {
		return nil, &DecodeError{Filename: filename, Err: err}
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &DecodeError{Filename: filename, Err: errEmptyImage}
	}

	return &SourceImage{Image: img, Width: b.Dx(), Height: b.Dy()}, nil
}

// Process decodes data, scales it, burns in the caption and re-encodes it.
// Either a complete ProcessedImage or an error is returned, never both.
func (p *Processor) Process(data []byte, filename string, meta Metadata) (*ProcessedImage, error) {
	src, err := p.Decode(data, filename)
	if err != nil {
		return nil, err
	}

	width, height := ScaleToFit(src.Width, src.Height, p.policy.MaxEdge)
	layout := ComputeLayout(width, height, meta, p.policy, p.location)

	slog.Debug("Watermarking image",
		"filename", filename,
		"source_width", src.Width,
		"source_height", src.Height,
		"width", width,
		"height", height,
		"font_size", layout.FontSize)

	canvas, err := p.backend.Composite(src.Image, layout)
	if err != nil {
		return nil, &EncodeError{Filename: filename, Err: err}
	}

	out, err := p.backend.Encode(canvas, p.format, p.policy.Quality)
	if err != nil {
		return nil, &EncodeError{Filename: filename, Err: err}
	}
	if len(out) == 0 {
		return nil, &EncodeError{Filename: filename, Err: errEmptyOutput}
	}

	return &ProcessedImage{
		Data:     out,
		Filename: OutputFilename(filename, p.format),
		Format:   p.format,
		Width:    width,
		Height:   height,
	}, nil
}

// OutputFilename replaces the extension of name with the format's extension
func OutputFilename(name string, format Format) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		base = "image"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + format.Extension()
}
