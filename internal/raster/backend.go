package raster

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/fieldops/pdvstamp/internal/watermark"
)

// Backend resizes with imaging, draws the caption with golang.org/x/image and
// encodes WebP through libwebp
type Backend struct {
	bold    *opentype.Font
	regular *opentype.Font
}

// New parses the embedded Go fonts used for the caption
func New() (*Backend, error) {
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}

	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}

	return &Backend{bold: bold, regular: regular}, nil
}

// Decode reads any registered format: JPEG, PNG, GIF, WebP, BMP or TIFF.
// JPEGs are rotated upright according to their EXIF orientation.
func (b *Backend) Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Composite scales src onto a fresh canvas and burns in the caption box
func (b *Backend) Composite(src image.Image, layout watermark.Layout) (image.Image, error) {
	if layout.Width <= 0 || layout.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", layout.Width, layout.Height)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, layout.Width, layout.Height))
	sb := src.Bounds()
	if sb.Dx() != layout.Width || sb.Dy() != layout.Height {
		src = imaging.Resize(src, layout.Width, layout.Height, imaging.Lanczos)
		sb = src.Bounds()
	}
	draw.Draw(canvas, canvas.Bounds(), src, sb.Min, draw.Src)

	draw.Draw(canvas, layout.Box, image.NewUniform(layout.Overlay), image.Point{}, draw.Over)

	if err := b.drawCaption(canvas, layout); err != nil {
		return nil, err
	}

	return canvas, nil
}

func (b *Backend) drawCaption(canvas *image.RGBA, layout watermark.Layout) error {
	if layout.FontSize <= 0 || len(layout.Lines) == 0 {
		return nil
	}

	boldFace, err := newFace(b.bold, layout.FontSize)
	if err != nil {
		return err
	}
	defer boldFace.Close()

	regularFace, err := newFace(b.regular, layout.FontSize)
	if err != nil {
		return err
	}
	defer regularFace.Close()

	// text never leaves the box
	dst, ok := canvas.SubImage(layout.Box).(*image.RGBA)
	if !ok {
		return fmt.Errorf("failed to clip caption box %v", layout.Box)
	}

	for _, line := range layout.Lines {
		face := regularFace
		if line.Bold {
			face = boldFace
		}
		d := font.Drawer{
			Dst:  dst,
			Src:  image.White,
			Face: face,
			Dot:  fixed.P(layout.Box.Min.X+layout.PaddingX, line.Baseline),
		}
		d.DrawString(line.Text)
	}

	return nil
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

// Encode writes img as lossy WebP or JPEG. Quality is in the 0-1 range.
func (b *Backend) Encode(img image.Image, format watermark.Format, quality float64) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case watermark.FormatWebP:
		options, err := encoder.NewLossyEncoderOptions(encoder.PresetPhoto, float32(quality*100))
		if err != nil {
			return nil, fmt.Errorf("webp options: %w", err)
		}
		if err := webp.Encode(&buf, img, options); err != nil {
			return nil, fmt.Errorf("webp: %w", err)
		}
	case watermark.FormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: int(math.Round(quality * 100))}); err != nil {
			return nil, fmt.Errorf("jpeg: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}

	return buf.Bytes(), nil
}
