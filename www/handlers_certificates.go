package www

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"certdash/markup"
	"certdash/notify"
)

// handleCertificate returns the details modal body for one certificate,
// from the session's cached list or a fresh fetch.
func (h *Handlers) handleCertificate(w http.ResponseWriter, r *http.Request) {
	b := h.session(r)
	h.save(w, r, b)
	id := chi.URLParam(r, "id")

	cert, ok := b.Cache.Certificate(id)
	if !ok {
		certs, err := b.API.Certificates(r.Context(), "")
		if err != nil {
			h.log.Warn("certificate details", zap.String("certificate", id), zap.Error(err))
			b.Notifier.Push("Failed to load certificate details.", notify.Error)
			h.fragment(w, http.StatusBadGateway, markup.ErrorPanel("Failed to load certificate details."))
			return
		}
		b.Cache.SetCertificates(certs)
		cert, ok = b.Cache.Certificate(id)
	}
	if !ok {
		h.fragment(w, http.StatusNotFound, markup.WarningPanel("Certificate not found"))
		return
	}
	h.fragment(w, http.StatusOK, markup.CertificateDetails(cert, time.Now(), b.Thresholds))
}
