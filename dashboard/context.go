package dashboard

import (
	"html/template"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"certdash/analytics"
	"certdash/chart"
	"certdash/markup"
	"certdash/notify"
)

// Context is what a view sees during one navigation: the region writes,
// chart creation and fetches it makes are all bound to that navigation.
type Context struct {
	ViewID     string
	API        *analytics.Client
	Charts     *chart.Factory
	Cache      *Cache
	Notifier   *notify.Notifier
	Loaders    *notify.Loaders
	Params     url.Values
	Thresholds markup.Thresholds
	PageSize   int
	Logger     *zap.Logger

	region   *Region
	registry *chart.Registry
	token    Token
	now      func() time.Time
}

func (c *Context) Token() Token { return c.token }

func (c *Context) Now() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

// Mount replaces the whole content region, normally with the view scaffold.
func (c *Context) Mount(h template.HTML) error {
	return c.region.Mount(c.token, string(h))
}

// Set replaces the content of one container.
func (c *Context) Set(id string, h template.HTML) error {
	return c.region.SetInner(c.token, id, string(h))
}

// Has reports whether the scaffold contains id.
func (c *Context) Has(id string) bool {
	return c.region.Has(id)
}

// Fail paints msg as an error panel into container and returns err. Stale
// errors are returned untouched.
func (c *Context) Fail(container, msg string, err error) error {
	if IsStale(err) {
		return err
	}
	c.Logger.Warn("section failed", zap.String("container", container), zap.Error(err))
	if setErr := c.Set(container, markup.ErrorPanel(msg)); setErr != nil && !IsStale(setErr) {
		c.Logger.Debug("error panel not shown", zap.String("container", container), zap.Error(setErr))
	}
	return err
}

func (c *Context) Toast(msg string, sev notify.Severity) {
	if c.Notifier != nil {
		c.Notifier.Push(msg, sev)
	}
}

// Release destroys the chart handles on the given canvases.
func (c *Context) Release(canvases ...string) int {
	if c.registry == nil {
		return 0
	}
	return c.registry.Release(canvases...)
}

func (c *Context) Param(key string) string {
	return c.Params.Get(key)
}

// Page reads a 1-based page number, defaulting to 1.
func (c *Context) Page(key string) int {
	n, err := strconv.Atoi(c.Params.Get(key))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Cache holds the few payloads views share within a session.
type Cache struct {
	mu       sync.RWMutex
	overview *analytics.Overview
	certs    []analytics.Certificate
}

func (c *Cache) Overview() (*analytics.Overview, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.overview, c.overview != nil
}

func (c *Cache) SetOverview(o *analytics.Overview) {
	c.mu.Lock()
	c.overview = o
	c.mu.Unlock()
}

func (c *Cache) Certificates() []analytics.Certificate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.certs
}

func (c *Cache) SetCertificates(certs []analytics.Certificate) {
	c.mu.Lock()
	c.certs = certs
	c.mu.Unlock()
}

// Certificate finds a cached certificate by id.
func (c *Cache) Certificate(id string) (analytics.Certificate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, cert := range c.certs {
		if cert.ID() == id {
			return cert, true
		}
	}
	return analytics.Certificate{}, false
}
