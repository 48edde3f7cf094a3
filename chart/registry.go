package chart

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

var (
	// ErrCanvasInUse is returned when a live handle already owns the canvas.
	ErrCanvasInUse = errors.New("chart: canvas is already in use")
	// ErrStale is returned when a chart is created for a superseded generation.
	ErrStale = errors.New("chart: stale generation")
)

// Dataset is one series. In multi charts Kind picks bar or line drawing.
type Dataset struct {
	Label  string
	Values []float64
	Kind   Kind
	Color  string
	// Secondary plots a line series against the right-hand axis.
	Secondary bool
}

var handleSeq atomic.Uint64

// Handle is a live chart bound to one canvas id.
type Handle struct {
	id       string
	seq      uint64
	kind     Kind
	labels   []string
	datasets []Dataset
	opts     Options

	mu       sync.Mutex
	registry *Registry
	released bool
}

func (h *Handle) ID() string { return h.id }
func (h *Handle) Seq() uint64 { return h.seq }
func (h *Handle) Kind() Kind { return h.kind }
func (h *Handle) Labels() []string { return h.labels }
func (h *Handle) Datasets() []Dataset { return h.datasets }
func (h *Handle) Options() Options { return h.opts }

// Values returns the first dataset's values.
func (h *Handle) Values() []float64 {
	if len(h.datasets) == 0 {
		return nil
	}
	return h.datasets[0].Values
}

func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Destroy releases the handle. It is safe on a nil or released handle.
func (h *Handle) Destroy() {
	if h == nil {
		return
	}
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return
	}
	h.released = true
	reg := h.registry
	h.mu.Unlock()
	if reg != nil {
		reg.drop(h)
	}
}

// Destroy is the package-level form of (*Handle).Destroy.
func Destroy(h *Handle) { h.Destroy() }

// Registry is the handle table for one drawing surface.
type Registry struct {
	mu       sync.Mutex
	handles  map[string]*Handle
	gen      uint64
	onChange func(live int)
}

func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]*Handle)}
}

// OnChange registers a callback run with the live handle count after every change.
func (r *Registry) OnChange(fn func(live int)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Advance moves the registry to a new generation; later attaches for older
// generations fail with ErrStale.
func (r *Registry) Advance(gen uint64) {
	r.mu.Lock()
	r.gen = gen
	r.mu.Unlock()
}

func (r *Registry) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

func (r *Registry) attach(h *Handle, gen uint64) error {
	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return fmt.Errorf("%w: %d, current %d", ErrStale, gen, r.gen)
	}
	if _, ok := r.handles[h.id]; ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrCanvasInUse, h.id)
	}
	h.registry = r
	r.handles[h.id] = h
	n, fn := len(r.handles), r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn(n)
	}
	return nil
}

func (r *Registry) drop(h *Handle) {
	r.mu.Lock()
	if cur, ok := r.handles[h.id]; !ok || cur != h {
		r.mu.Unlock()
		return
	}
	delete(r.handles, h.id)
	n, fn := len(r.handles), r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn(n)
	}
}

func (r *Registry) Get(id string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	return h, ok
}

// Release destroys the handles on the given canvases and returns how many were live.
func (r *Registry) Release(ids ...string) int {
	released := 0
	for _, id := range ids {
		if h, ok := r.Get(id); ok {
			h.Destroy()
			released++
		}
	}
	return released
}

// ReleaseAll destroys every live handle.
func (r *Registry) ReleaseAll() int {
	return r.Release(r.IDs()...)
}

// IDs lists the canvases with live handles, sorted.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	ids := make([]string, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	sort.Strings(ids)
	return ids
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
