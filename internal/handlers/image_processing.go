package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldops/pdvstamp/internal/models"
	"github.com/fieldops/pdvstamp/internal/watermark"
)

type ImageProcessResult struct {
	Image          *watermark.ProcessedImage
	StoredFilename string
	ImageFilePath  string
}

// metadataFromForm reads the caption fields sent by the console.
// The visit time is either a single "timestamp" field or the "data"/"hora" pair;
// when both are absent the current time is used.
func metadataFromForm(r *http.Request, loc *time.Location) (watermark.Metadata, error) {
	meta := watermark.Metadata{
		SiteName:     strings.TrimSpace(r.FormValue("pdv")),
		OperatorName: strings.TrimSpace(r.FormValue("promotor")),
	}

	raw := strings.TrimSpace(r.FormValue("timestamp"))
	if raw == "" {
		raw = strings.TrimSpace(r.FormValue("data") + " " + r.FormValue("hora"))
	}
	if raw == "" {
		meta.Timestamp = time.Now()
		return meta, nil
	}

	ts, err := watermark.ParseTimestamp(raw, loc)
	if err != nil {
		return meta, err
	}
	meta.Timestamp = ts
	return meta, nil
}

// storeProcessedImage writes img under the evidence ID, so every record owns
// its file even when the same photo is submitted twice.
func (h *Handler) storeProcessedImage(id string, img *watermark.ProcessedImage) (*ImageProcessResult, error) {
	if err := h.ensureUploadsDir(); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	storedFilename := id + img.Format.Extension()
	imageFilePath := filepath.Join(h.uploadsDir, storedFilename)

	if err := os.WriteFile(imageFilePath, img.Data, 0644); err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	slog.Info("Image saved", "filename", storedFilename, "width", img.Width, "height", img.Height, "bytes", len(img.Data))

	return &ImageProcessResult{
		Image:          img,
		StoredFilename: storedFilename,
		ImageFilePath:  imageFilePath,
	}, nil
}

// processAndStore runs one photo through the processor, keeps the artifact and
// forwards it when an upload endpoint is configured.
func (h *Handler) processAndStore(ctx context.Context, data []byte, filename string, meta watermark.Metadata) (*models.Evidence, error) {
	img, err := h.processor.Process(data, filename, meta)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	result, err := h.storeProcessedImage(id, img)
	if err != nil {
		return nil, err
	}

	record := h.createEvidence(id, result, meta, filename)
	h.forward(ctx, record, img)
	h.evidenceStore.Set(record.ID, record)

	slog.Info("Evidence created", "id", record.ID, "pdv", record.SiteName, "promotor", record.OperatorName)
	return record, nil
}

func (h *Handler) forward(ctx context.Context, record *models.Evidence, img *watermark.ProcessedImage) {
	if h.uploader == nil {
		return
	}

	fields := map[string]string{
		"pdv":       record.SiteName,
		"promotor":  record.OperatorName,
		"timestamp": record.VisitedAt.Format(time.RFC3339),
	}
	if err := h.uploader.Send(ctx, img, fields); err != nil {
		// the local copy is kept; the console can retry from it
		slog.Error("Failed to forward image", "id", record.ID, "error", err)
		record.UploadError = err.Error()
		return
	}
	record.Uploaded = true
}
