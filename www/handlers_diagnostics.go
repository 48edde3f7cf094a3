package www

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, map[string]any{
		"status":      "ok",
		"version":     h.version,
		"sessions":    h.sessions.Len(),
		"sse_clients": h.eventHub.ClientCount(),
	})
}

// handleToasts lists the session's pending toasts.
func (h *Handlers) handleToasts(w http.ResponseWriter, r *http.Request) {
	s, ok := h.existing(r)
	if !ok {
		h.jsonOK(w, []any{})
		return
	}
	h.jsonOK(w, s.Notifier.Pending())
}

func (h *Handlers) handleToastDismiss(w http.ResponseWriter, r *http.Request) {
	s, ok := h.existing(r)
	if !ok {
		h.jsonError(w, "no session", http.StatusNotFound)
		return
	}
	if !s.Notifier.Dismiss(chi.URLParam(r, "id")) {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
