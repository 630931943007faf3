package watermark

import (
	"image"
	"image/color"
	"math"
	"time"
)

// Caption labels, rendered top to bottom in this order
const (
	LabelTimestamp = "DATA / HORA:"
	LabelSite      = "PDV:"
	LabelOperator  = "PROMOTOR:"
)

// Vertical rhythm of the caption block, in multiples of the font size
const (
	firstBaselineEm = 1.3
	labelToValueEm  = 1.2
	valueToLabelEm  = 1.5
	bottomPadEm     = 0.5
	paddingXEm      = 0.6

	// total height of the six caption lines, including padding
	captionHeightEm = firstBaselineEm + 3*labelToValueEm + 2*valueToLabelEm + bottomPadEm
)

const timestampLayout = "02/01/2006 15:04:05"

// Policy holds the fixed sizing and quality settings for a processor
type Policy struct {
	MaxEdge        int
	Quality        float64
	BoxWidthRatio  float64
	BoxHeightRatio float64
	OverlayOpacity float64
	FontRatio      float64
}

// DefaultPolicy returns the production settings: 1280px longest edge,
// quality 0.8, a half-width quarter-height box at 90% black.
func DefaultPolicy() Policy {
	return Policy{
		MaxEdge:        1280,
		Quality:        0.8,
		BoxWidthRatio:  0.5,
		BoxHeightRatio: 0.25,
		OverlayOpacity: 0.9,
		FontRatio:      0.035,
	}
}

// ScaleToFit caps the longest side at maxEdge, keeping the aspect ratio.
// Images already within the limit are returned unchanged; there is no upscaling.
func ScaleToFit(width, height, maxEdge int) (int, int) {
	if maxEdge <= 0 || (width <= maxEdge && height <= maxEdge) {
		return width, height
	}

	if width >= height {
		scale := float64(maxEdge) / float64(width)
		return maxEdge, max(1, int(math.Round(float64(height)*scale)))
	}

	scale := float64(maxEdge) / float64(height)
	return max(1, int(math.Round(float64(width)*scale))), maxEdge
}

// WatermarkRect returns the caption box anchored at the bottom-left corner
func WatermarkRect(width, height int, policy Policy) image.Rectangle {
	boxW := int(float64(width) * policy.BoxWidthRatio)
	boxH := int(float64(height) * policy.BoxHeightRatio)
	return image.Rect(0, height-boxH, boxW, height)
}

// FontSize returns the caption font size in pixels. FontRatio of the canvas
// width (3.5% by default) is a ceiling, not the rule: the size is clamped to
// box height / 8.4 so all six lines fit the box. The clamp applies to any
// canvas wider than about 0.85 of its height, so most landscape and square
// photos get the fitted size (400x400 gives 100/8.4 = 11.9px, not 14px).
func FontSize(width int, box image.Rectangle, policy Policy) float64 {
	size := float64(width) * policy.FontRatio
	if fit := float64(box.Dy()) / captionHeightEm; size > fit {
		size = fit
	}
	return size
}

// FormatTimestamp renders the visit time as dd/mm/yyyy HH:MM:SS in loc
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(timestampLayout)
}

// CaptionText returns the label/value pairs in render order
func CaptionText(meta Metadata, loc *time.Location) []string {
	return []string{
		LabelTimestamp, FormatTimestamp(meta.Timestamp, loc),
		LabelSite, meta.SiteName,
		LabelOperator, meta.OperatorName,
	}
}

// ComputeLayout positions the overlay and caption for a canvas of the given size
func ComputeLayout(width, height int, meta Metadata, policy Policy, loc *time.Location) Layout {
	box := WatermarkRect(width, height, policy)
	fontSize := FontSize(width, box, policy)

	layout := Layout{
		Width:    width,
		Height:   height,
		Box:      box,
		Overlay:  color.NRGBA{A: uint8(math.Round(policy.OverlayOpacity * 255))},
		FontSize: fontSize,
		PaddingX: int(math.Round(fontSize * paddingXEm)),
	}

	y := float64(box.Min.Y) + fontSize*firstBaselineEm
	text := CaptionText(meta, loc)
	for i := 0; i < len(text); i += 2 {
		layout.Lines = append(layout.Lines,
			Line{Text: text[i], Bold: true, Baseline: int(math.Round(y))},
			Line{Text: text[i+1], Baseline: int(math.Round(y + fontSize*labelToValueEm))},
		)
		y += fontSize * (labelToValueEm + valueToLabelEm)
	}

	return layout
}
