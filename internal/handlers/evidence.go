package handlers

import (
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/fieldops/pdvstamp/internal/models"
)

func (h *Handler) HandleEvidence(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		records := h.evidenceStore.GetAll()
		list := make([]*models.Evidence, 0, len(records))
		for _, record := range records {
			list = append(list, record)
		}
		sort.Slice(list, func(i, j int) bool {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		})
		h.writeJSON(w, list)
	case "POST":
		h.HandleUpload(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleEvidenceDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/evidence/")

	record, ok := h.getEvidenceOrError(w, id)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		h.writeJSON(w, record)
	case "DELETE":
		h.evidenceStore.Delete(id)
		if err := os.Remove(record.ImagePath); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove evidence file", "id", id, "path", record.ImagePath, "error", err)
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
