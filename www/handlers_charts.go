package www

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// handleChart renders the SVG of a live chart handle. Released or unknown
// canvases are 404 so a stale <img> never shows another view's chart.
func (h *Handlers) handleChart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.existing(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	handle, ok := s.Charts.Get(chi.URLParam(r, "canvas"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	var buf bytes.Buffer
	if err := handle.Render(&buf); err != nil {
		h.log.Warn("render chart", zap.String("canvas", handle.ID()), zap.Error(err))
		http.Error(w, "chart render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}
