package handlers

import (
	"net/http"
	"path/filepath"
	"strings"
)

// HandleStatic serves stored evidence images under /static/uploads/
func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/static/uploads/")

	// Prevent directory traversal attacks
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	// Set appropriate content type based on file extension
	switch strings.ToLower(filepath.Ext(name)) {
	case ".webp":
		w.Header().Set("Content-Type", "image/webp")
	case ".jpg", ".jpeg":
		w.Header().Set("Content-Type", "image/jpeg")
	}

	http.ServeFile(w, r, filepath.Join(h.uploadsDir, name))
}
