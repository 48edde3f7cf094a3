package www

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"certdash/markup"
	"certdash/notify"
)

const (
	predictionsFailed = "Failed to run ML predictions. Please try again."
	anomaliesFailed   = "Failed to detect anomalies. Please try again."
)

// handlePredictions returns the predictions modal body.
func (h *Handlers) handlePredictions(w http.ResponseWriter, r *http.Request) {
	b := h.session(r)
	h.save(w, r, b)
	preds, err := b.API.Predictions(r.Context(), "")
	if err != nil {
		h.log.Warn("ml predictions", zap.String("session", b.ID), zap.Error(err))
		b.Notifier.Push(predictionsFailed, notify.Error)
		h.fragment(w, http.StatusBadGateway, markup.ErrorPanel(predictionsFailed))
		return
	}
	h.fragment(w, http.StatusOK, markup.PredictionsPanel(preds))
}

// handleAnomalies returns the anomaly detection modal body.
func (h *Handlers) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	b := h.session(r)
	h.save(w, r, b)
	anoms, err := b.API.Anomalies(r.Context(), "")
	if err != nil {
		h.log.Warn("ml anomalies", zap.String("session", b.ID), zap.Error(err))
		b.Notifier.Push(anomaliesFailed, notify.Error)
		h.fragment(w, http.StatusBadGateway, markup.ErrorPanel(anomaliesFailed))
		return
	}
	h.fragment(w, http.StatusOK, markup.AnomaliesPanel(anoms))
}

func (h *Handlers) fragment(w http.ResponseWriter, code int, body template.HTML) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	w.Write([]byte(body))
}
