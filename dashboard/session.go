package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"certdash/analytics"
	"certdash/chart"
	"certdash/config"
	"certdash/markup"
	"certdash/notify"
)

// Observer receives session lifecycle measurements. Any method may be
// called concurrently.
type Observer interface {
	NavigationDone(view, outcome string)
	SessionsActive(n int)
	ChartsDelta(delta int)
}

type Config struct {
	App      *config.Config
	Views    *Registry
	API      *analytics.Client
	Logger   *zap.Logger
	Observer Observer
}

// Session is everything one browser session owns.
type Session struct {
	ID         string
	Events     *EventBus
	Region     *Region
	Charts     *chart.Registry
	Cache      *Cache
	Notifier   *notify.Notifier
	PageLoader *notify.PageLoader
	Navigator  *Navigator
	// API is the loader-free client for requests outside a navigation.
	API        *analytics.Client
	Thresholds markup.Thresholds

	log *zap.Logger
	now func() time.Time

	mu         sync.Mutex
	lastSeen   time.Time
	liveCharts int
}

func newSession(id string, cfg Config, now func() time.Time) *Session {
	app := cfg.App
	th := markup.Thresholds{
		Critical: app.Dashboard.Expiry.Critical,
		Warning:  app.Dashboard.Expiry.Warning,
		Notice:   app.Dashboard.Expiry.Notice,
	}
	log := cfg.Logger.With(zap.String("session", id))
	bus := NewEventBus()
	s := &Session{
		ID:         id,
		Events:     bus,
		Region:     NewRegion(bus),
		Charts:     chart.NewRegistry(),
		Cache:      &Cache{},
		API:        cfg.API,
		Thresholds: th,
		log:        log,
		now:        now,
		lastSeen:   now(),
	}
	s.Notifier = notify.NewNotifier(notify.DefaultTTL, func(t notify.Toast) {
		bus.Emit(EventToast, ToastEvent{Toast: t})
	})
	style := app.Web.LoaderStyle
	s.PageLoader = notify.NewPageLoader(style, func(visible bool) {
		bus.Emit(EventPageLoader, PageLoaderEvent{Visible: visible, Style: style})
	})

	var observe func(view, outcome string)
	if cfg.Observer != nil {
		observe = cfg.Observer.NavigationDone
	}
	s.Navigator = &Navigator{
		views:    cfg.Views,
		api:      cfg.API,
		region:   s.Region,
		charts:   s.Charts,
		cache:    s.Cache,
		notifier: s.Notifier,
		page:     s.PageLoader,
		bus:      bus,
		cfg: NavigatorConfig{
			DefaultView:  app.Dashboard.DefaultView,
			WelcomeToast: app.Dashboard.WelcomeToast,
			Spinner:      style == config.LoaderSpinner,
			Thresholds:   th,
			PageSize:     app.Web.PageSize,
		},
		log:     log.Named("navigator"),
		now:     now,
		observe: observe,
	}
	s.wireEventHandlers(cfg.Observer)
	return s
}

func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Close tears the session's navigator down.
func (s *Session) Close() {
	s.Navigator.Close()
}

// Sessions is the in-memory session table. A janitor evicts sessions that
// have been idle longer than the configured TTL.
type Sessions struct {
	cfg Config
	ttl time.Duration
	log *zap.Logger
	now func() time.Time

	mu       sync.Mutex
	byID     map[string]*Session
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewSessions(cfg Config) *Sessions {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.App == nil {
		cfg.App = config.Defaults()
	}
	return &Sessions{
		cfg:      cfg,
		ttl:      cfg.App.Web.SessionTTL,
		log:      cfg.Logger.Named("sessions"),
		now:      time.Now,
		byID:     make(map[string]*Session),
		stopChan: make(chan struct{}),
	}
}

// Get returns a live session and marks it as seen.
func (ss *Sessions) Get(id string) (*Session, bool) {
	ss.mu.Lock()
	s, ok := ss.byID[id]
	ss.mu.Unlock()
	if ok {
		s.Touch()
	}
	return s, ok
}

// GetOrCreate returns the session for id, creating it when unknown. Ids that
// are not UUIDs are replaced with a fresh one.
func (ss *Sessions) GetOrCreate(id string) (*Session, bool) {
	if s, ok := ss.Get(id); ok {
		return s, false
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	ss.mu.Lock()
	if s, ok := ss.byID[id]; ok {
		ss.mu.Unlock()
		return s, false
	}
	s := newSession(id, ss.cfg, ss.now)
	ss.byID[id] = s
	n := len(ss.byID)
	ss.mu.Unlock()

	ss.log.Debug("session created", zap.String("session", id))
	ss.reportCount(n)
	return s, true
}

func (ss *Sessions) Remove(id string) {
	ss.mu.Lock()
	s, ok := ss.byID[id]
	delete(ss.byID, id)
	n := len(ss.byID)
	ss.mu.Unlock()
	if !ok {
		return
	}
	s.Close()
	ss.reportCount(n)
}

func (ss *Sessions) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.byID)
}

// Sweep evicts idle sessions and returns how many were closed.
func (ss *Sessions) Sweep() int {
	if ss.ttl <= 0 {
		return 0
	}
	cutoff := ss.now().Add(-ss.ttl)
	var idle []*Session
	ss.mu.Lock()
	for id, s := range ss.byID {
		if s.LastSeen().Before(cutoff) {
			idle = append(idle, s)
			delete(ss.byID, id)
		}
	}
	n := len(ss.byID)
	ss.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	if len(idle) > 0 {
		ss.log.Info("evicted idle sessions", zap.Int("evicted", len(idle)), zap.Int("active", n))
		ss.reportCount(n)
	}
	return len(idle)
}

func (ss *Sessions) Start() {
	go ss.janitorLoop()
}

// Stop ends the janitor and closes every session.
func (ss *Sessions) Stop() {
	ss.stopOnce.Do(func() { close(ss.stopChan) })
	ss.mu.Lock()
	all := make([]*Session, 0, len(ss.byID))
	for _, s := range ss.byID {
		all = append(all, s)
	}
	ss.byID = make(map[string]*Session)
	ss.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
	ss.reportCount(0)
}

func (ss *Sessions) janitorLoop() {
	interval := time.Minute
	if ss.ttl > 0 && ss.ttl/2 < interval {
		interval = ss.ttl / 2
	}
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ss.stopChan:
			return
		case <-ticker.C:
			ss.Sweep()
		}
	}
}

func (ss *Sessions) reportCount(n int) {
	if ss.cfg.Observer != nil {
		ss.cfg.Observer.SessionsActive(n)
	}
}
