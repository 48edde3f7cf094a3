package notify

import (
	"strings"
	"sync"

	"certdash/markup"
)

const (
	// LoaderClass marks a section whose data is in flight.
	LoaderClass = "api-loader"
	// SectionLoaderClass wraps the spinner that replaces a section's content
	// in spinner style.
	SectionLoaderClass = "section-loader"
)

var (
	// SectionLoader is the markup a spinner-style loader puts in its container.
	SectionLoader = `<div class="` + SectionLoaderClass + `">` + string(markup.Spinner("", "", "")) + `</div>`
	// SectionLoaderRow replaces SectionLoader inside table sections.
	SectionLoaderRow = `<tr class="` + SectionLoaderClass + `"><td colspan="100">` + string(markup.Spinner("", "", "")) + `</td></tr>`
)

// Target is the element store the section loaders write into.
type Target interface {
	AddClass(id, class string) error
	RemoveClass(id, class string) error
	SetInner(id, html string) error
	Inner(id string) (string, error)
	Tag(id string) string
}

// Loaders tracks per-section loading indicators. Shows for the same
// container nest; the indicator is cleared when the last one is hidden.
// In spinner style the container's content is swapped for a spinner and put
// back on Hide, unless something else was written there meanwhile.
type Loaders struct {
	target  Target
	spinner bool

	mu     sync.Mutex
	active map[string]int
	saved  map[string]string
}

func NewLoaders(target Target, spinner bool) *Loaders {
	return &Loaders{target: target, spinner: spinner, active: make(map[string]int), saved: make(map[string]string)}
}

func (l *Loaders) Show(container string) {
	l.mu.Lock()
	l.active[container]++
	first := l.active[container] == 1
	l.mu.Unlock()
	if !first {
		return
	}
	// missing or stale containers are not an error for a loader
	l.target.AddClass(container, LoaderClass)
	if !l.spinner {
		return
	}
	inner, err := l.target.Inner(container)
	if err != nil {
		return
	}
	loader := SectionLoader
	switch l.target.Tag(container) {
	case "tbody", "thead", "tfoot", "table":
		loader = SectionLoaderRow
	}
	if l.target.SetInner(container, loader) == nil {
		l.mu.Lock()
		l.saved[container] = inner
		l.mu.Unlock()
	}
}

func (l *Loaders) Hide(container string) {
	l.mu.Lock()
	n, ok := l.active[container]
	if !ok {
		l.mu.Unlock()
		return
	}
	if n > 1 {
		l.active[container] = n - 1
		l.mu.Unlock()
		return
	}
	delete(l.active, container)
	saved, stashed := l.saved[container]
	delete(l.saved, container)
	l.mu.Unlock()
	l.target.RemoveClass(container, LoaderClass)
	if !stashed {
		return
	}
	// content written while loading stays
	if inner, err := l.target.Inner(container); err == nil && strings.Contains(inner, `class="`+SectionLoaderClass+`"`) {
		l.target.SetInner(container, saved)
	}
}

// Active reports whether container has an outstanding Show.
func (l *Loaders) Active(container string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active[container] > 0
}

// Reset forgets every outstanding loader, used when the region is cleared.
func (l *Loaders) Reset() {
	l.mu.Lock()
	l.active = make(map[string]int)
	l.saved = make(map[string]string)
	l.mu.Unlock()
}

// PageLoader is the whole-page overlay shown while a view bootstraps.
type PageLoader struct {
	mu      sync.Mutex
	style   string
	visible bool
	onFlip  func(visible bool)
}

func NewPageLoader(style string, onFlip func(visible bool)) *PageLoader {
	return &PageLoader{style: style, onFlip: onFlip}
}

func (p *PageLoader) Show() { p.set(true) }
func (p *PageLoader) Hide() { p.set(false) }

func (p *PageLoader) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

func (p *PageLoader) Style() string { return p.style }

func (p *PageLoader) set(v bool) {
	p.mu.Lock()
	changed := p.visible != v
	p.visible = v
	fn := p.onFlip
	p.mu.Unlock()
	if changed && fn != nil {
		fn(v)
	}
}
