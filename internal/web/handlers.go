package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
)

// Handlers contains the HTTP handlers for the sorter.
type Handlers struct {
	svc    SortService
	logger *log.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc SortService, logger *log.Logger) *Handlers {
	return &Handlers{svc: svc, logger: logger}
}

// Status reports that the service is up (GET /).
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "spotify-genre-sorter",
		"status":  "ok",
	})
}

// Sort runs a sorting pass over the user's liked songs (GET /sort).
// An optional limit query parameter bounds how many tracks are
// processed; omitted or non-positive means the whole library.
func (h *Handlers) Sort(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be an integer"})
			return
		}
		limit = parsed
	}

	summary, err := h.svc.SortLikedSongs(r.Context(), limit)
	if err != nil {
		h.logger.Error("sort run failed", "err", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
