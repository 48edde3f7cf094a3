package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"certdash/chart"
	"certdash/dom"
)

var (
	// ErrStale is returned for writes made on behalf of a superseded or
	// cancelled navigation. The write is dropped.
	ErrStale = errors.New("dashboard: stale navigation")

	ErrNoDefaultView = errors.New("dashboard: default view is not registered")
	ErrClosed        = errors.New("dashboard: session closed")
)

// IsStale reports whether err only means the navigation was superseded.
func IsStale(err error) bool {
	return errors.Is(err, ErrStale) || errors.Is(err, chart.ErrStale) || errors.Is(err, context.Canceled)
}

// Token identifies one navigation. Writes carrying an old token are dropped.
type Token struct {
	gen uint64
	ctx context.Context
}

func (t Token) Gen() uint64 { return t.gen }

func (t Token) Context() context.Context {
	if t.ctx == nil {
		return context.Background()
	}
	return t.ctx
}

// Region is the session's content area. Every mutation goes through a
// token check against the current generation.
type Region struct {
	mu  sync.Mutex
	doc *dom.Document
	gen uint64
	bus *EventBus
}

func NewRegion(bus *EventBus) *Region {
	return &Region{doc: dom.New(), bus: bus}
}

// Begin clears the region and makes gen the only generation allowed to write.
func (r *Region) Begin(ctx context.Context, gen uint64) Token {
	r.mu.Lock()
	r.gen = gen
	r.doc.Clear()
	r.mu.Unlock()
	r.emit(EventSectionUpdated, SectionUpdatedEvent{Gen: gen, Target: dom.RootID})
	return Token{gen: gen, ctx: ctx}
}

func (r *Region) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

func (r *Region) check(tok Token) error {
	if tok.gen != r.gen {
		return fmt.Errorf("%w: generation %d, current %d", ErrStale, tok.gen, r.gen)
	}
	if err := tok.Context().Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStale, err)
	}
	return nil
}

// Write runs fn against the document if tok is current.
func (r *Region) Write(tok Token, fn func(*dom.Document) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(tok); err != nil {
		return err
	}
	return fn(r.doc)
}

// Mount replaces the whole region.
func (r *Region) Mount(tok Token, fragment string) error {
	return r.SetInner(tok, dom.RootID, fragment)
}

// SetInner replaces the children of one element.
func (r *Region) SetInner(tok Token, id, fragment string) error {
	var inner string
	err := r.Write(tok, func(d *dom.Document) error {
		if err := d.SetInner(id, fragment); err != nil {
			return err
		}
		var err error
		inner, err = d.Inner(id)
		return err
	})
	if err != nil {
		return err
	}
	r.emit(EventSectionUpdated, SectionUpdatedEvent{Gen: tok.gen, Target: id, HTML: inner})
	return nil
}

func (r *Region) AddClass(tok Token, id, class string) error {
	return r.toggle(tok, id, class, true)
}

func (r *Region) RemoveClass(tok Token, id, class string) error {
	return r.toggle(tok, id, class, false)
}

func (r *Region) toggle(tok Token, id, class string, add bool) error {
	err := r.Write(tok, func(d *dom.Document) error {
		if add {
			return d.AddClass(id, class)
		}
		return d.RemoveClass(id, class)
	})
	if err != nil {
		return err
	}
	r.emit(EventClassChanged, ClassChangedEvent{Gen: tok.gen, Target: id, Class: class, Added: add})
	return nil
}

func (r *Region) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc.Has(id)
}

func (r *Region) IsCanvas(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc.IsCanvas(id)
}

func (r *Region) Tag(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc.Tag(id)
}

func (r *Region) HasClass(id, class string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc.HasClass(id, class)
}

func (r *Region) Inner(id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc.Inner(id)
}

// Render writes the region element and its content.
func (r *Region) Render(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc.Render(w)
}

func (r *Region) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc.String()
}

func (r *Region) emit(t EventType, payload any) {
	if r.bus != nil {
		r.bus.Emit(t, payload)
	}
}
