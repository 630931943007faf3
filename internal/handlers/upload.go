package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fieldops/pdvstamp/internal/watermark"
)

// HandleWatermark processes a single photo and returns the watermarked image
func (h *Handler) HandleWatermark(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	fileData, filename, ok := h.readUploadedFile(w, r)
	if !ok {
		return
	}

	meta, err := metadataFromForm(r, h.processor.Location())
	if err != nil {
		h.writeError(w, "Invalid visit time: "+err.Error(), http.StatusBadRequest)
		return
	}

	img, err := h.processor.Process(fileData, filename, meta)
	if err != nil {
		h.writeProcessError(w, err)
		return
	}

	w.Header().Set("Content-Type", img.Format.MIMEType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", img.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	if _, err := w.Write(img.Data); err != nil {
		slog.Error("Unable to write image response", "err", err)
	}
}

// HandleUpload processes a photo, stores it as evidence and forwards it upstream
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Check if this is a JSON request with image URL
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		h.handleURLUpload(w, r)
		return
	}

	// Handle file upload
	h.handleFileUpload(w, r)
}

func (h *Handler) handleURLUpload(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ImageURL     string `json:"image_url"`
		SiteName     string `json:"pdv"`
		OperatorName string `json:"promotor"`
		Timestamp    string `json:"timestamp"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if request.ImageURL == "" {
		h.writeError(w, "image_url is required", http.StatusBadRequest)
		return
	}

	meta := watermark.Metadata{
		SiteName:     strings.TrimSpace(request.SiteName),
		OperatorName: strings.TrimSpace(request.OperatorName),
	}
	meta.Timestamp = time.Now()
	if request.Timestamp != "" {
		ts, err := watermark.ParseTimestamp(request.Timestamp, h.processor.Location())
		if err != nil {
			h.writeError(w, "Invalid visit time: "+err.Error(), http.StatusBadRequest)
			return
		}
		meta.Timestamp = ts
	}

	imageData, filename, err := h.fetcher.Fetch(r.Context(), request.ImageURL)
	if err != nil {
		h.writeError(w, "Failed to process image URL: "+err.Error(), http.StatusBadRequest)
		return
	}

	record, err := h.processAndStore(r.Context(), imageData, filename, meta)
	if err != nil {
		h.writeProcessError(w, err)
		return
	}

	h.writeJSONStatus(w, http.StatusCreated, record)
}

func (h *Handler) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	fileData, filename, ok := h.readUploadedFile(w, r)
	if !ok {
		return
	}

	meta, err := metadataFromForm(r, h.processor.Location())
	if err != nil {
		h.writeError(w, "Invalid visit time: "+err.Error(), http.StatusBadRequest)
		return
	}

	record, err := h.processAndStore(r.Context(), fileData, filename, meta)
	if err != nil {
		h.writeProcessError(w, err)
		return
	}

	h.writeJSONStatus(w, http.StatusCreated, record)
}

// readUploadedFile accepts the photo under "file" or "files"
func (h *Handler) readUploadedFile(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	// cap the whole body before multipart parsing spills it to disk; 1MB of
	// headroom covers the caption fields and part headers
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)

	file, header, err := formFile(r, "file", "files")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, "File too large (max 10MB)", http.StatusRequestEntityTooLarge)
			return nil, "", false
		}
		h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return nil, "", false
	}
	defer file.Close()

	fileData, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return nil, "", false
	}

	// Validate file size
	if len(fileData) >= maxUploadBytes {
		h.writeError(w, "File too large (max 10MB)", http.StatusRequestEntityTooLarge)
		return nil, "", false
	}

	return fileData, header.Filename, true
}

func formFile(r *http.Request, names ...string) (multipart.File, *multipart.FileHeader, error) {
	var lastErr error
	for _, name := range names {
		file, header, err := r.FormFile(name)
		if err == nil {
			return file, header, nil
		}
		if !errors.Is(err, http.ErrMissingFile) {
			return nil, nil, err
		}
		lastErr = err
	}
	return nil, nil, lastErr
}
