package chart

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock surface ---

type fakeSurface struct {
	mu       sync.Mutex
	canvases map[string]bool
	attached []string
	fail     error
}

func newSurface(ids ...string) *fakeSurface {
	s := &fakeSurface{canvases: make(map[string]bool)}
	for _, id := range ids {
		s.canvases[id] = true
	}
	return s
}

func (s *fakeSurface) IsCanvas(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canvases[id]
}

func (s *fakeSurface) Attach(h *Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.attached = append(s.attached, h.ID())
	return nil
}

func TestResolve_LayerPrecedence(t *testing.T) {
	opts, err := Resolve(KindDoughnut, Options{})
	require.NoError(t, err)
	assert.Equal(t, 65, opts.Cutout)
	assert.Equal(t, "right", opts.Legend, "type default beats library default")
	assert.Equal(t, 20, opts.Padding)
	assert.Equal(t, Palette, opts.Palette)

	opts, err = Resolve(KindDoughnut, Options{Cutout: 70, Title: "Status"})
	require.NoError(t, err)
	assert.Equal(t, 70, opts.Cutout, "override beats type default")
	assert.Equal(t, "Status", opts.Title)
	assert.Equal(t, "right", opts.Legend)

	opts, err = Resolve(KindBar, Options{Horizontal: true, Palette: []string{"#000000"}})
	require.NoError(t, err)
	assert.Equal(t, 0.6, opts.BarPercentage)
	assert.Equal(t, "top", opts.Legend)
	assert.True(t, opts.Horizontal)
	assert.Equal(t, []string{"#000000"}, opts.Palette)
	assert.Equal(t, "#000000", opts.Color(3))

	opts, err = Resolve(KindMulti, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0.7, opts.BarPercentage)
	assert.Equal(t, 3.0, opts.PointRadius)

	opts, err = Resolve(KindLine, Options{})
	require.NoError(t, err)
	assert.Equal(t, 4.0, opts.PointRadius)
	assert.Equal(t, 0.4, opts.Tension)
}

func TestFactory_MissingCanvasReturnsNil(t *testing.T) {
	reg := NewRegistry()
	f := NewFactory(newSurface(), reg, 0)

	h, err := f.Doughnut("status-chart", []string{"Active"}, []float64{1}, "", Options{})
	assert.NoError(t, err)
	assert.Nil(t, h)
	assert.Equal(t, 0, reg.Len())
}

func TestFactory_CanvasInUse(t *testing.T) {
	reg := NewRegistry()
	f := NewFactory(newSurface("c"), reg, 0)

	first, err := f.Bar("c", []string{"a"}, []float64{1}, "x", Options{})
	require.NoError(t, err)
	require.NotNil(t, first)

	_, err = f.Bar("c", []string{"a"}, []float64{1}, "x", Options{})
	assert.True(t, errors.Is(err, ErrCanvasInUse))

	first.Destroy()
	second, err := f.Bar("c", []string{"a"}, []float64{2}, "x", Options{})
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, second.Values())
}

func TestFactory_StaleGeneration(t *testing.T) {
	reg := NewRegistry()
	surface := newSurface("c")
	old := NewFactory(surface, reg, 1)
	reg.Advance(2)

	_, err := old.Line("c", []string{"a"}, []float64{1}, "", Options{})
	assert.True(t, errors.Is(err, ErrStale))
	assert.Equal(t, 0, reg.Len())

	h, err := NewFactory(surface, reg, 2).Line("c", []string{"a"}, []float64{1}, "", Options{})
	require.NoError(t, err)
	assert.NotNil(t, h)
}

func TestFactory_AttachFailureReleases(t *testing.T) {
	reg := NewRegistry()
	surface := newSurface("c")
	surface.fail = errors.New("gone")

	_, err := NewFactory(surface, reg, 0).Bar("c", []string{"a"}, []float64{1}, "", Options{})
	assert.Error(t, err)
	assert.Equal(t, 0, reg.Len())
}

func TestFactory_LengthMismatch(t *testing.T) {
	_, err := NewFactory(newSurface("c"), NewRegistry(), 0).Bar("c", []string{"a", "b"}, []float64{1}, "", Options{})
	assert.Error(t, err)
}

func TestFactory_Multi(t *testing.T) {
	reg := NewRegistry()
	f := NewFactory(newSurface("m"), reg, 0)

	_, err := f.Multi("m", nil, nil, KindDoughnut, Options{})
	assert.Error(t, err)

	h, err := f.Multi("m", []string{"SSL", "Email"}, []Dataset{
		{Label: "Active", Values: []float64{5, 3}, Color: ColorSuccess},
		{Label: "Expired", Values: []float64{1, 1}},
	}, KindBar, Options{Stacked: true})
	require.NoError(t, err)
	ds := h.Datasets()
	require.Len(t, ds, 2)
	assert.Equal(t, KindBar, ds[0].Kind)
	assert.Equal(t, ColorSuccess, ds[0].Color)
	assert.Equal(t, Palette[1], ds[1].Color, "unset colours come from the palette")
}

func TestDestroy_Idempotent(t *testing.T) {
	var nilHandle *Handle
	assert.NotPanics(t, func() {
		nilHandle.Destroy()
		Destroy(nil)
	})

	reg := NewRegistry()
	h, err := NewFactory(newSurface("c"), reg, 0).Doughnut("c", []string{"a"}, []float64{1}, "", Options{})
	require.NoError(t, err)

	h.Destroy()
	h.Destroy()
	assert.True(t, h.Released())
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 0, reg.Release("c"))
}

func TestRegistry_ReleaseAllAndOnChange(t *testing.T) {
	reg := NewRegistry()
	var counts []int
	reg.OnChange(func(live int) { counts = append(counts, live) })

	f := NewFactory(newSurface("a", "b"), reg, 0)
	_, err := f.Bar("a", []string{"x"}, []float64{1}, "", Options{})
	require.NoError(t, err)
	_, err = f.Bar("b", []string{"x"}, []float64{1}, "", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, reg.IDs())

	assert.Equal(t, 2, reg.ReleaseAll())
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, []int{1, 2, 1, 0}, counts)
}

func TestRender_SVG(t *testing.T) {
	reg := NewRegistry()
	f := NewFactory(newSurface("d", "b", "l", "s", "m"), reg, 0)

	d, err := f.Doughnut("d", []string{"Active", "Expired"}, []float64{7, 3}, "", Options{})
	require.NoError(t, err)
	b, err := f.Bar("b", []string{"< 30 days", "30-90 days"}, []float64{4, 9}, "Certificates", Options{})
	require.NoError(t, err)
	l, err := f.Line("l", []string{"2024-01", "2024-02", "2024-03"}, []float64{1, 5, 2}, "Issued", Options{})
	require.NoError(t, err)
	s, err := f.Multi("s", []string{"SSL", "Email"}, []Dataset{
		{Label: "Active", Values: []float64{5, 3}},
		{Label: "Expired", Values: []float64{1, 0}},
	}, KindBar, Options{Stacked: true})
	require.NoError(t, err)
	m, err := f.Multi("m", []string{"2020", "2021"}, []Dataset{
		{Label: "Average validity", Values: []float64{365, 398}, Kind: KindLine},
		{Label: "Certificates", Values: []float64{10, 12}, Kind: KindBar, Secondary: true},
	}, KindLine, Options{})
	require.NoError(t, err)

	for _, h := range []*Handle{d, b, l, s, m} {
		var buf bytes.Buffer
		require.NoError(t, h.Render(&buf), h.ID())
		assert.True(t, strings.Contains(buf.String(), "<svg"), h.ID())
	}
}

func TestRender_EmptyPlaceholder(t *testing.T) {
	f := NewFactory(newSurface("e", "z"), NewRegistry(), 0)

	e, err := f.Bar("e", nil, nil, "", Options{Title: "SAN Domains"})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, e.Render(&buf))
	assert.Contains(t, buf.String(), "SAN Domains: no data available")

	z, err := f.Doughnut("z", []string{"a", "b"}, []float64{0, 0}, "", Options{})
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, z.Render(&buf))
	assert.Contains(t, buf.String(), "No data available")
}

func TestRender_EdgeShapes(t *testing.T) {
	tests := []struct {
		name        string
		create      func(f *Factory) (*Handle, error)
		placeholder bool
	}{
		{"doughnut single label", func(f *Factory) (*Handle, error) {
			return f.Doughnut("c", []string{"SSL"}, []float64{3}, "", Options{})
		}, false},
		{"doughnut all zero", func(f *Factory) (*Handle, error) {
			return f.Doughnut("c", []string{"SSL", "Email"}, []float64{0, 0}, "", Options{})
		}, true},
		{"bar single label", func(f *Factory) (*Handle, error) {
			return f.Bar("c", []string{"< 30 days"}, []float64{4}, "Certificates", Options{})
		}, false},
		{"bar all zero", func(f *Factory) (*Handle, error) {
			return f.Bar("c", []string{"a", "b"}, []float64{0, 0}, "Certificates", Options{})
		}, true},
		{"line single label", func(f *Factory) (*Handle, error) {
			return f.Line("c", []string{"2024"}, []float64{3}, "Issued", Options{})
		}, false},
		{"line all zero", func(f *Factory) (*Handle, error) {
			return f.Line("c", []string{"2024-01", "2024-02"}, []float64{0, 0}, "Issued", Options{})
		}, false},
		{"line single zero", func(f *Factory) (*Handle, error) {
			return f.Line("c", []string{"2024-01"}, []float64{0}, "Issued", Options{})
		}, false},
		{"line past tick step", func(f *Factory) (*Handle, error) {
			labels := make([]string, 14)
			values := make([]float64, 14)
			for i := range labels {
				labels[i] = strings.Repeat("x", i+1)
				values[i] = float64(i)
			}
			return f.Line("c", labels, values, "Issued", Options{})
		}, false},
		{"multi line single label", func(f *Factory) (*Handle, error) {
			return f.Multi("c", []string{"2024"}, []Dataset{
				{Label: "Legacy", Values: []float64{1}},
				{Label: "Modern", Values: []float64{4}},
			}, KindLine, Options{})
		}, false},
		{"multi line and bar single label", func(f *Factory) (*Handle, error) {
			return f.Multi("c", []string{"2024"}, []Dataset{
				{Label: "Average validity", Values: []float64{365}, Kind: KindLine},
				{Label: "Certificates", Values: []float64{12}, Kind: KindBar, Secondary: true},
			}, KindLine, Options{})
		}, false},
		{"multi all zero", func(f *Factory) (*Handle, error) {
			return f.Multi("c", []string{"2024", "2025"}, []Dataset{
				{Label: "Legacy", Values: []float64{0, 0}},
			}, KindLine, Options{})
		}, true},
		{"stacked single bar", func(f *Factory) (*Handle, error) {
			return f.Multi("c", []string{"SSL"}, []Dataset{
				{Label: "Active", Values: []float64{5}},
				{Label: "Expired", Values: []float64{1}},
			}, KindBar, Options{Stacked: true})
		}, false},
		{"stacked all zero", func(f *Factory) (*Handle, error) {
			return f.Multi("c", []string{"SSL", "Email"}, []Dataset{
				{Label: "Active", Values: []float64{0, 0}},
			}, KindBar, Options{Stacked: true})
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFactory(newSurface("c"), NewRegistry(), 0)
			h, err := tt.create(f)
			require.NoError(t, err)
			require.NotNil(t, h)

			var buf bytes.Buffer
			require.NoError(t, h.Render(&buf))
			assert.Contains(t, buf.String(), "<svg")
			if tt.placeholder {
				assert.Contains(t, buf.String(), "No data available")
			} else {
				assert.NotContains(t, buf.String(), "No data available")
			}
		})
	}
}
