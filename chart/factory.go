package chart

import "fmt"

// Surface is where canvases live. Attach is called once a handle owns a canvas.
type Surface interface {
	IsCanvas(id string) bool
	Attach(h *Handle) error
}

// Factory creates handles for one generation of a surface.
type Factory struct {
	surface  Surface
	registry *Registry
	gen      uint64
}

func NewFactory(s Surface, r *Registry, gen uint64) *Factory {
	return &Factory{surface: s, registry: r, gen: gen}
}

// Doughnut returns nil and no error when the canvas is not on the surface.
func (f *Factory) Doughnut(id string, labels []string, values []float64, label string, opts Options) (*Handle, error) {
	return f.create(KindDoughnut, id, labels, []Dataset{{Label: label, Values: values}}, opts)
}

func (f *Factory) Bar(id string, labels []string, values []float64, label string, opts Options) (*Handle, error) {
	return f.create(KindBar, id, labels, []Dataset{{Label: label, Values: values, Kind: KindBar}}, opts)
}

func (f *Factory) Line(id string, labels []string, values []float64, label string, opts Options) (*Handle, error) {
	return f.create(KindLine, id, labels, []Dataset{{Label: label, Values: values, Kind: KindLine}}, opts)
}

// Multi draws several datasets over shared labels. Datasets without a Kind
// use kind, which must be bar or line.
func (f *Factory) Multi(id string, labels []string, datasets []Dataset, kind Kind, opts Options) (*Handle, error) {
	if kind != KindBar && kind != KindLine {
		return nil, fmt.Errorf("chart: multi kind %q: want bar or line", kind)
	}
	ds := make([]Dataset, len(datasets))
	for i, d := range datasets {
		if d.Kind == "" {
			d.Kind = kind
		}
		ds[i] = d
	}
	return f.create(KindMulti, id, labels, ds, opts)
}

func (f *Factory) create(kind Kind, id string, labels []string, datasets []Dataset, overrides Options) (*Handle, error) {
	if f == nil || f.surface == nil || !f.surface.IsCanvas(id) {
		return nil, nil
	}
	opts, err := Resolve(kind, overrides)
	if err != nil {
		return nil, err
	}
	for i := range datasets {
		if datasets[i].Color == "" {
			datasets[i].Color = opts.Color(i)
		}
		if n := len(datasets[i].Values); n != len(labels) {
			return nil, fmt.Errorf("chart %s: dataset %q has %d values for %d labels", id, datasets[i].Label, n, len(labels))
		}
	}
	h := &Handle{
		id:       id,
		seq:      handleSeq.Add(1),
		kind:     kind,
		labels:   labels,
		datasets: datasets,
		opts:     opts,
	}
	if err := f.registry.attach(h, f.gen); err != nil {
		return nil, err
	}
	if err := f.surface.Attach(h); err != nil {
		h.Destroy()
		return nil, fmt.Errorf("chart %s: attach: %w", id, err)
	}
	return h, nil
}
