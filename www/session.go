package www

import (
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"certdash/config"
	"certdash/dashboard"
)

const (
	sessionName = "certdash-session"
	keyID       = "id"
	keyLocation = "location"
)

// newCookieStore signs cookies with the configured secret. Without one a
// random key is generated, so cookies do not survive a restart.
func newCookieStore(cfg config.WebConfig, log *zap.Logger) *sessions.CookieStore {
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		log.Warn("web.session_secret is empty, using a random key; sessions reset on restart")
		secret = securecookie.GenerateRandomKey(32)
	}
	s := sessions.NewCookieStore(secret)
	s.Options.Path = "/"
	s.Options.HttpOnly = true
	s.Options.Secure = false
	s.Options.SameSite = http.SameSiteLaxMode
	if cfg.SessionTTL > 0 {
		s.Options.MaxAge = int(cfg.SessionTTL.Seconds())
	}
	return s
}

// browserSession is the cookie and the dashboard session it names.
type browserSession struct {
	cookie *sessions.Session
	*dashboard.Session
}

// session resolves the request's dashboard session, creating one (and
// attaching it to the event hub) when the cookie names none that is live.
// A changed id is only persisted by save.
func (h *Handlers) session(r *http.Request) *browserSession {
	// a cookie that fails to decode yields a fresh session
	cs, _ := h.cookies.Get(r, sessionName)
	id, _ := cs.Values[keyID].(string)
	s, created := h.sessions.GetOrCreate(id)
	if created {
		h.eventHub.Attach(s)
	}
	cs.Values[keyID] = s.ID
	return &browserSession{cookie: cs, Session: s}
}

// existing resolves the session without creating one.
func (h *Handlers) existing(r *http.Request) (*dashboard.Session, bool) {
	cs, err := h.cookies.Get(r, sessionName)
	if err != nil {
		return nil, false
	}
	id, _ := cs.Values[keyID].(string)
	if id == "" {
		return nil, false
	}
	return h.sessions.Get(id)
}

// location is the last view the browser was on, or "".
func (b *browserSession) location() string {
	loc, _ := b.cookie.Values[keyLocation].(string)
	return loc
}

func (h *Handlers) save(w http.ResponseWriter, r *http.Request, b *browserSession) {
	if err := b.cookie.Save(r, w); err != nil {
		h.log.Warn("session save", zap.String("session", b.ID), zap.Error(err))
	}
}
