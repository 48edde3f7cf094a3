package www

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"certdash/config"
	"certdash/dashboard"
	"certdash/markup"
	"certdash/notify"
)

type navGroup struct {
	Name  string
	Views []dashboard.Meta
}

type layoutData struct {
	Title       string
	Version     string
	Active      string
	Location    string
	Nav         []navGroup
	Content     template.HTML
	Toasts      []notify.Toast
	Loader      bool
	LoaderStyle string
	Stream      bool
}

// navGroups lists the registered views grouped in first-seen group order.
func navGroups(reg *dashboard.Registry) []navGroup {
	var groups []navGroup
	idx := map[string]int{}
	for _, v := range reg.Views() {
		m := v.Meta()
		i, ok := idx[m.Group]
		if !ok {
			i = len(groups)
			idx[m.Group] = i
			groups = append(groups, navGroup{Name: m.Group})
		}
		groups[i].Views = append(groups[i].Views, m)
	}
	return groups
}

// handleIndex sends the browser back to its last view.
func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	b := h.session(r)
	loc := b.location()
	if !strings.HasPrefix(loc, "/view/") {
		loc = markup.ViewHref(h.cfg.Dashboard.DefaultView, nil)
	}
	h.save(w, r, b)
	http.Redirect(w, r, loc, http.StatusFound)
}

// navigate runs a navigation for the request and records the resulting
// location in the cookie. Without section streaming it waits for the data
// load so the response carries the filled page.
func (h *Handlers) navigate(w http.ResponseWriter, r *http.Request) (*browserSession, *dashboard.Navigation, bool) {
	b := h.session(r)
	nav := b.Navigator.Navigate(r.Context(), chi.URLParam(r, "id"), r.URL.Query())
	if !h.cfg.Web.StreamSections {
		err := nav.Wait(r.Context())
		if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
			return nil, nil, false
		}
	}
	if nav.Location != "" {
		b.cookie.Values[keyLocation] = nav.Location
	}
	if nav.Err != nil && errors.Is(nav.Err, dashboard.ErrClosed) {
		http.Error(w, "session closed", http.StatusServiceUnavailable)
		return nil, nil, false
	}
	h.save(w, r, b)
	return b, nav, true
}

func (h *Handlers) handleView(w http.ResponseWriter, r *http.Request) {
	b, nav, ok := h.navigate(w, r)
	if !ok {
		return
	}
	title := "Certificate Analytics Dashboard"
	if v, ok := h.views.Lookup(nav.ID); ok {
		title = v.Meta().Title + " | " + title
	}
	h.render(w, "layout", layoutData{
		Title:       title,
		Version:     h.version,
		Active:      b.Navigator.ActiveID(),
		Location:    nav.Location,
		Nav:         navGroups(h.views),
		Content:     template.HTML(b.Region.String()),
		Toasts:      b.Notifier.Pending(),
		Loader:      b.PageLoader.Visible(),
		LoaderStyle: loaderStyle(h.cfg.Web.LoaderStyle),
		Stream:      h.cfg.Web.StreamSections,
	})
}

// handleFragment returns only the content region, for in-page navigation.
func (h *Handlers) handleFragment(w http.ResponseWriter, r *http.Request) {
	b, nav, ok := h.navigate(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-View-ID", b.Navigator.ActiveID())
	w.Header().Set("X-Location", nav.Location)
	if v, ok := h.views.Lookup(nav.ID); ok {
		w.Header().Set("X-View-Title", v.Meta().Title)
	}
	if err := b.Region.Render(w); err != nil {
		h.log.Warn("write fragment", zap.String("session", b.ID), zap.Error(err))
	}
}

func loaderStyle(s string) string {
	if s == config.LoaderSpinner {
		return config.LoaderSpinner
	}
	return config.LoaderBlob
}
