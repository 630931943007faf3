package manifest

import (
	"fmt"
	"time"

	"github.com/fieldops/pdvstamp/internal/watermark"
)

// Visit is one photo to stamp, as listed in a batch manifest
type Visit struct {
	File      string `json:"file" parquet:"file"`           // path relative to the images directory
	SiteName  string `json:"pdv" parquet:"pdv"`             // PDV name shown on the caption
	Operator  string `json:"promotor" parquet:"promotor"`   // promoter name shown on the caption
	Timestamp string `json:"timestamp" parquet:"timestamp"` // RFC 3339 or YYYY-MM-DD HH:MM[:SS]
}

// Metadata converts the row into caption metadata, reading wall-clock
// timestamps in loc
func (v *Visit) Metadata(loc *time.Location) (watermark.Metadata, error) {
	ts, err := watermark.ParseTimestamp(v.Timestamp, loc)
	if err != nil {
		return watermark.Metadata{}, fmt.Errorf("visit %s: %w", v.File, err)
	}
	return watermark.Metadata{
		SiteName:     v.SiteName,
		OperatorName: v.Operator,
		Timestamp:    ts,
	}, nil
}
