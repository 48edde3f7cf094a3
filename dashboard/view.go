package dashboard

import (
	"context"
	"fmt"
	"sync"
)

// Meta describes a view's navigation entry.
type Meta struct {
	ID    string
	Title string
	Icon  string
	Group string
}

// View renders one dashboard page into a Context. Implementations are
// stateless; anything per-session lives on the Context.
type View interface {
	Meta() Meta
	Render(ctx context.Context, c *Context) error
	Destroy(c *Context) error
}

// DataLoader is implemented by views that fetch after their scaffold is shown.
type DataLoader interface {
	LoadData(ctx context.Context, c *Context) error
}

// Registry maps view ids to views, keeping registration order.
type Registry struct {
	mu    sync.RWMutex
	order []string
	views map[string]View
}

func NewRegistry() *Registry {
	return &Registry{views: make(map[string]View)}
}

func (r *Registry) Register(v View) error {
	id := v.Meta().ID
	if id == "" {
		return fmt.Errorf("register view: empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.views[id]; ok {
		return fmt.Errorf("register view %q: already registered", id)
	}
	r.views[id] = v
	r.order = append(r.order, id)
	return nil
}

// MustRegister registers every view and panics on the first failure.
func (r *Registry) MustRegister(views ...View) {
	for _, v := range views {
		if err := r.Register(v); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Lookup(id string) (View, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.views[id]
	return v, ok
}

// Views lists views in registration order.
func (r *Registry) Views() []View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]View, len(r.order))
	for i, id := range r.order {
		out[i] = r.views[id]
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
