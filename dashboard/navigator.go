package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"certdash/analytics"
	"certdash/chart"
	"certdash/markup"
	"certdash/notify"
)

const WelcomeMessage = "Welcome to Certificate Analytics Dashboard"

// NavigatorConfig holds the per-session routing settings.
type NavigatorConfig struct {
	DefaultView  string
	WelcomeToast bool
	Spinner      bool
	Thresholds   markup.Thresholds
	PageSize     int
}

// Navigation is the outcome of one Navigate call. ID is the view that was
// actually rendered, which differs from Requested after a fallback.
type Navigation struct {
	Requested string
	ID        string
	Location  string
	Err       error

	loadErr error
	done    chan struct{}
}

func newNavigation(requested string) *Navigation {
	return &Navigation{Requested: requested, done: make(chan struct{})}
}

// Done is closed once rendering and any data load have settled.
func (n *Navigation) Done() <-chan struct{} { return n.done }

// Wait blocks until the navigation settles and returns the render error, or
// failing that the load error.
func (n *Navigation) Wait(ctx context.Context) error {
	select {
	case <-n.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if n.Err != nil {
		return n.Err
	}
	return n.loadErr
}

// Navigator is one session's router: it tears the active view down,
// renders the next one, and starts its data load.
type Navigator struct {
	views    *Registry
	api      *analytics.Client
	region   *Region
	charts   *chart.Registry
	cache    *Cache
	notifier *notify.Notifier
	page     *notify.PageLoader
	bus      *EventBus
	cfg      NavigatorConfig
	log      *zap.Logger
	now      func() time.Time
	observe  func(view, outcome string)

	navMu     sync.Mutex
	mu        sync.Mutex
	gen       uint64
	active    View
	activeCtx *Context
	activeID  string
	location  string
	cancel    context.CancelFunc
	welcomed  bool
	closed    bool
}

func (n *Navigator) ActiveID() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.activeID
}

// Location is the last location string written, "/view/<id>?<params>".
func (n *Navigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

// Navigate switches the content region to target. Unknown ids fall back to
// the default view. The returned Navigation settles after the view's data
// load, which keeps running after ctx is done; a later Navigate or Close
// cancels it.
func (n *Navigator) Navigate(ctx context.Context, target string, params url.Values) *Navigation {
	n.navMu.Lock()
	defer n.navMu.Unlock()

	nav := newNavigation(target)
	if n.isClosed() {
		nav.Err = ErrClosed
		close(nav.done)
		return nav
	}
	n.welcome()

	view, err := n.resolve(target)
	if err != nil {
		n.log.Error("navigation failed", zap.String("view", target), zap.Error(err))
		n.finish(nav, target, err)
		return nav
	}
	id := view.Meta().ID
	nav.ID = id

	n.teardown()

	loadCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	n.mu.Lock()
	n.gen++
	gen := n.gen
	n.cancel = cancel
	n.mu.Unlock()
	n.charts.Advance(gen)
	if leaked := n.charts.IDs(); len(leaked) > 0 {
		n.log.Warn("releasing leaked charts", zap.Strings("canvases", leaked))
		n.charts.ReleaseAll()
	}
	tok := n.region.Begin(loadCtx, gen)
	vc := n.newContext(id, tok, params)

	n.page.Show()
	err = guard(id+" render", func() error { return view.Render(loadCtx, vc) })
	n.page.Hide()
	if err != nil {
		cancel()
		n.log.Error("view render failed", append(errFields(err), zap.String("view", id))...)
		if perr := n.region.Mount(Token{gen: gen}, string(markup.ErrorPanel("Error loading view: "+err.Error()))); perr != nil {
			n.log.Warn("error panel not shown", zap.Error(perr))
		}
		n.finish(nav, id, err)
		return nav
	}

	location := markup.ViewHref(id, params)
	n.mu.Lock()
	n.active, n.activeCtx, n.activeID = view, vc, id
	n.location = location
	n.mu.Unlock()
	nav.Location = location
	n.bus.Emit(EventNavigated, NavigatedEvent{ViewID: id, Title: view.Meta().Title, Location: location, Gen: gen})

	dl, ok := view.(DataLoader)
	if !ok {
		n.record(id, "ok")
		close(nav.done)
		return nav
	}
	go func() {
		defer close(nav.done)
		err := guard(id+" load", func() error { return dl.LoadData(loadCtx, vc) })
		switch {
		case err == nil:
			n.record(id, "ok")
		case IsStale(err):
			n.log.Debug("load superseded", zap.String("view", id), zap.Error(err))
			n.record(id, "superseded")
		default:
			n.log.Warn("view load failed", append(errFields(err), zap.String("view", id))...)
			n.record(id, "load_error")
		}
		nav.loadErr = err
	}()
	return nav
}

// Close cancels the in-flight navigation, destroys the active view and
// releases every chart. Later navigations fail with ErrClosed.
func (n *Navigator) Close() {
	n.navMu.Lock()
	defer n.navMu.Unlock()
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()
	n.teardown()
	if released := n.charts.ReleaseAll(); released > 0 {
		n.log.Debug("released charts on close", zap.Int("count", released))
	}
}

func (n *Navigator) isClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}

func (n *Navigator) welcome() {
	n.mu.Lock()
	first := !n.welcomed
	n.welcomed = true
	n.mu.Unlock()
	if first && n.cfg.WelcomeToast {
		n.notifier.Push(WelcomeMessage, notify.Info)
	}
}

func (n *Navigator) resolve(target string) (View, error) {
	if v, ok := n.views.Lookup(target); ok {
		return v, nil
	}
	n.log.Warn("unknown view, using default", zap.String("view", target), zap.String("default", n.cfg.DefaultView))
	n.notifier.Push(fmt.Sprintf("View %q not found, showing %s instead", target, n.cfg.DefaultView), notify.Warning)
	if v, ok := n.views.Lookup(n.cfg.DefaultView); ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNoDefaultView, n.cfg.DefaultView)
}

// teardown cancels the running load and destroys the active view. Destroy
// failures are logged and never stop the navigation.
func (n *Navigator) teardown() {
	n.mu.Lock()
	cancel := n.cancel
	view, vc, id := n.active, n.activeCtx, n.activeID
	n.cancel = nil
	n.active, n.activeCtx, n.activeID = nil, nil, ""
	n.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if view == nil {
		return
	}
	if err := guard(id+" destroy", func() error { return view.Destroy(vc) }); err != nil {
		n.log.Warn("view destroy failed", append(errFields(err), zap.String("view", id))...)
	}
}

func (n *Navigator) newContext(id string, tok Token, params url.Values) *Context {
	loaders := notify.NewLoaders(loaderTarget{region: n.region, tok: tok}, n.cfg.Spinner)
	return &Context{
		ViewID:     id,
		API:        n.api.WithLoader(loaders),
		Charts:     chart.NewFactory(canvasSurface{region: n.region, tok: tok}, n.charts, tok.gen),
		Cache:      n.cache,
		Notifier:   n.notifier,
		Loaders:    loaders,
		Params:     params,
		Thresholds: n.cfg.Thresholds,
		PageSize:   n.cfg.PageSize,
		Logger:     n.log.With(zap.String("view", id)),
		region:     n.region,
		registry:   n.charts,
		token:      tok,
		now:        n.now,
	}
}

func (n *Navigator) finish(nav *Navigation, id string, err error) {
	nav.Err = err
	outcome := "render_error"
	if errors.Is(err, ErrNoDefaultView) {
		outcome = "no_view"
	}
	n.record(id, outcome)
	n.bus.Emit(EventNavigationFailed, NavigationFailedEvent{ViewID: id, Err: err})
	close(nav.done)
}

func (n *Navigator) record(view, outcome string) {
	if n.observe != nil {
		n.observe(view, outcome)
	}
}

// PanicError is a panic recovered from a view hook.
type PanicError struct {
	Hook  string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.Hook, e.Value)
}

// guard runs a view hook, turning a panic into a *PanicError.
func guard(hook string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Hook: hook, Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

func errFields(err error) []zap.Field {
	fields := []zap.Field{zap.Error(err)}
	var pe *PanicError
	if errors.As(err, &pe) {
		fields = append(fields, zap.ByteString("stack", pe.Stack))
	}
	return fields
}
