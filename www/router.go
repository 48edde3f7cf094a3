package www

import (
	"html/template"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"certdash/config"
	"certdash/dashboard"
)

// Deps is everything the HTTP surface needs from the process.
type Deps struct {
	Config   *config.Config
	Sessions *dashboard.Sessions
	Views    *dashboard.Registry
	Logger   *zap.Logger
	// Metrics serves /metrics when set.
	Metrics http.Handler
	Version string
}

type Handlers struct {
	cfg      *config.Config
	sessions *dashboard.Sessions
	views    *dashboard.Registry
	cookies  *sessions.CookieStore
	layout   *template.Template
	eventHub *EventHub
	log      *zap.Logger
	version  string
}

func NewRouter(d Deps) (http.Handler, func()) {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	hub := NewEventHub(log.Named("sse"))
	hub.Start()

	layout := template.New("").Funcs(templateFuncs())
	layout = template.Must(layout.ParseFS(templateFS, "templates/layout.html", "templates/partials/*.html"))

	h := &Handlers{
		cfg:      d.Config,
		sessions: d.Sessions,
		views:    d.Views,
		cookies:  newCookieStore(d.Config.Web, log),
		layout:   layout,
		eventHub: hub,
		log:      log.Named("www"),
		version:  d.Version,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log.Named("http")))
	r.Use(middleware.Recoverer)

	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	r.With(middleware.Compress(5)).Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// SSE, uncompressed so events flush as they arrive
	r.Get("/events", h.handleEvents)

	r.Get("/healthz", h.handleHealth)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.Get("/", h.handleIndex)
		r.Get("/view/{id}", h.handleView)
		r.Get("/view/{id}/fragment", h.handleFragment)
		r.Get("/charts/{canvas}.svg", h.handleChart)
		r.Get("/ml/predictions", h.handlePredictions)
		r.Get("/ml/anomalies", h.handleAnomalies)
		r.Get("/certificates/{id}", h.handleCertificate)
		r.Get("/toasts", h.handleToasts)
		r.Post("/toasts/{id}/dismiss", h.handleToastDismiss)
	})

	stopFn := func() {
		hub.Stop()
	}

	return r, stopFn
}

func (h *Handlers) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.layout.ExecuteTemplate(w, name, data); err != nil {
		h.log.Error("render", zap.String("template", name), zap.Error(err))
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}
