package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/fieldops/pdvstamp/internal/images"
	"github.com/fieldops/pdvstamp/internal/models"
	"github.com/fieldops/pdvstamp/internal/storage"
	"github.com/fieldops/pdvstamp/internal/upload"
	"github.com/fieldops/pdvstamp/internal/watermark"
)

// Limit uploads to 10MB
const maxUploadBytes = 10 * 1024 * 1024

type Handler struct {
	evidenceStore *storage.EvidenceStore
	processor     *watermark.Processor
	uploader      *upload.Client
	fetcher       *images.Fetcher
	uploadsDir    string
}

// New creates a handler. uploader may be nil, in which case evidence is
// only kept locally.
func New(processor *watermark.Processor, uploader *upload.Client, uploadsDir string) *Handler {
	if uploadsDir == "" {
		uploadsDir = "uploads"
	}
	return &Handler{
		evidenceStore: storage.New(),
		processor:     processor,
		uploader:      uploader,
		fetcher:       images.NewFetcher(maxUploadBytes),
		uploadsDir:    uploadsDir,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// writeProcessError maps processor failures to HTTP status codes
func (h *Handler) writeProcessError(w http.ResponseWriter, err error) {
	var decodeErr *watermark.DecodeError
	var encodeErr *watermark.EncodeError
	switch {
	case errors.As(err, &decodeErr):
		h.writeError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &encodeErr):
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

// Evidence helpers
func (h *Handler) getEvidenceOrError(w http.ResponseWriter, id string) (*models.Evidence, bool) {
	record, exists := h.evidenceStore.Get(id)
	if !exists {
		h.writeError(w, "Evidence not found", http.StatusNotFound)
		return nil, false
	}
	return record, true
}

// File operation helpers
func (h *Handler) ensureUploadsDir() error {
	return os.MkdirAll(h.uploadsDir, 0755)
}

func (h *Handler) createEvidence(id string, result *ImageProcessResult, meta watermark.Metadata, originalFilename string) *models.Evidence {
	return &models.Evidence{
		ID:               id,
		SiteName:         meta.SiteName,
		OperatorName:     meta.OperatorName,
		VisitedAt:        meta.Timestamp,
		OriginalFilename: originalFilename,
		Filename:         result.Image.Filename,
		ImagePath:        result.ImageFilePath,
		ImageURL:         "/static/uploads/" + result.StoredFilename,
		Format:           string(result.Image.Format),
		Width:            result.Image.Width,
		Height:           result.Image.Height,
		SizeBytes:        len(result.Image.Data),
		CreatedAt:        time.Now(),
	}
}
