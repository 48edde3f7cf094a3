package chart

import (
	"fmt"
	"html"
	"io"
	"math"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const maxTicks = 12

// Render writes the chart as SVG.
func (h *Handle) Render(w io.Writer) error {
	if h == nil {
		return fmt.Errorf("chart: render nil handle")
	}
	if h.empty() {
		return placeholder(w, h.opts)
	}
	switch h.kind {
	case KindDoughnut:
		return h.renderDoughnut(w)
	case KindBar:
		if h.opts.Stacked {
			return h.renderStacked(w)
		}
		return h.renderBar(w)
	case KindLine:
		return h.renderLines(w)
	case KindMulti:
		if h.allBars() {
			return h.renderStacked(w)
		}
		return h.renderLines(w)
	}
	return fmt.Errorf("chart %s: unknown kind %q", h.id, h.kind)
}

func (h *Handle) empty() bool {
	if len(h.labels) == 0 {
		return true
	}
	for _, d := range h.datasets {
		for _, v := range d.Values {
			if v != 0 && !math.IsNaN(v) {
				return false
			}
		}
	}
	// all-zero line charts still carry a shape worth drawing
	return h.kind != KindLine
}

func (h *Handle) allBars() bool {
	for _, d := range h.datasets {
		if d.Kind != KindBar {
			return false
		}
	}
	return true
}

func (h *Handle) renderDoughnut(w io.Writer) error {
	values := make([]gochart.Value, 0, len(h.labels))
	for i, l := range h.labels {
		v := h.Values()[i]
		if v <= 0 {
			continue
		}
		c := color(h.opts.Color(i))
		values = append(values, gochart.Value{
			Label: l,
			Value: v,
			Style: gochart.Style{FillColor: c, StrokeColor: drawing.ColorWhite},
		})
	}
	dc := gochart.DonutChart{
		Title:      h.opts.Title,
		Width:      h.opts.Width,
		Height:     h.opts.Height,
		Background: background(h.opts),
		Values:     values,
	}
	return dc.Render(gochart.SVG, w)
}

func (h *Handle) renderBar(w io.Writer) error {
	d := h.datasets[0]
	bars := make([]gochart.Value, len(h.labels))
	for i, l := range h.labels {
		c := color(d.Color)
		if len(h.datasets) == 1 && h.opts.Horizontal {
			c = color(h.opts.Color(i))
		}
		bars[i] = gochart.Value{
			Label: l,
			Value: d.Values[i],
			Style: gochart.Style{FillColor: c, StrokeColor: c},
		}
	}
	width, spacing := barGeometry(h.opts, len(bars))
	bc := gochart.BarChart{
		Title:      h.opts.Title,
		Width:      h.opts.Width,
		Height:     h.opts.Height,
		Background: background(h.opts),
		BarWidth:   width,
		BarSpacing: spacing,
		XAxis:      gochart.Style{TextRotationDegrees: h.opts.LabelRotation},
		YAxis: gochart.YAxis{
			Range: yRange(h.opts, d.Values),
		},
		Bars: bars,
	}
	return bc.Render(gochart.SVG, w)
}

// renderStacked draws one stacked bar per label. Bars are normalised to their
// own total by the library, so labels whose datasets sum to zero are skipped.
func (h *Handle) renderStacked(w io.Writer) error {
	var bars []gochart.StackedBar
	width, spacing := barGeometry(h.opts, len(h.labels))
	for i, l := range h.labels {
		var parts []gochart.Value
		for _, d := range h.datasets {
			if v := d.Values[i]; v > 0 {
				c := color(d.Color)
				parts = append(parts, gochart.Value{
					Label: d.Label,
					Value: v,
					Style: gochart.Style{FillColor: c, StrokeColor: c},
				})
			}
		}
		if len(parts) == 0 {
			continue
		}
		bars = append(bars, gochart.StackedBar{Name: l, Width: width, Values: parts})
	}
	if len(bars) == 0 {
		return placeholder(w, h.opts)
	}
	sb := gochart.StackedBarChart{
		Title:      h.opts.Title,
		Width:      h.opts.Width,
		Height:     h.opts.Height,
		Background: background(h.opts),
		BarSpacing: spacing,
		XAxis:      gochart.Style{TextRotationDegrees: h.opts.LabelRotation},
		Bars:       bars,
	}
	return sb.Render(gochart.SVG, w)
}

func (h *Handle) renderLines(w io.Writer) error {
	n := len(h.labels)
	// Pad to at least two X values for go-chart
	single := n == 1
	if single {
		n = 2
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	pad := func(v []float64, fill float64) []float64 {
		if !single {
			return v
		}
		return []float64{v[0], fill}
	}
	dot := h.opts.PointRadius
	if single && dot < 6 {
		dot = 6
	}

	var primary, secondary []float64
	series := make([]gochart.Series, 0, len(h.datasets))
	for _, d := range h.datasets {
		c := color(d.Color)
		axis := gochart.YAxisPrimary
		if d.Secondary {
			axis = gochart.YAxisSecondary
			secondary = append(secondary, d.Values...)
		} else {
			primary = append(primary, d.Values...)
		}
		if h.kind == KindMulti && d.Kind == KindBar {
			series = append(series, gochart.HistogramSeries{
				Name:  d.Label,
				YAxis: axis,
				Style: gochart.Style{FillColor: c.WithAlpha(160), StrokeColor: c},
				InnerSeries: gochart.ContinuousSeries{
					Name:    d.Label,
					XValues: xs,
					YValues: pad(d.Values, 0),
					YAxis:   axis,
				},
			})
			continue
		}
		series = append(series, gochart.ContinuousSeries{
			Name:    d.Label,
			XValues: xs,
			YValues: pad(d.Values, d.Values[0]),
			YAxis:   axis,
			Style: gochart.Style{
				StrokeColor: c,
				StrokeWidth: 2,
				DotColor:    c,
				DotWidth:    dot,
			},
		})
	}

	c := gochart.Chart{
		Title:      h.opts.Title,
		Width:      h.opts.Width,
		Height:     h.opts.Height,
		Background: background(h.opts),
		XAxis: gochart.XAxis{
			Range: &gochart.ContinuousRange{Min: 0, Max: float64(n - 1)},
			Ticks: ticks(h.labels),
			Style: gochart.Style{TextRotationDegrees: h.opts.LabelRotation},
		},
		YAxis:  gochart.YAxis{Range: yRange(h.opts, primary)},
		Series: series,
	}
	if len(secondary) > 0 {
		c.YAxisSecondary = gochart.YAxis{Range: yRange(Options{}, secondary)}
	}
	if len(series) > 1 && h.opts.Legend != "none" {
		c.Elements = []gochart.Renderable{gochart.Legend(&c)}
	}
	return c.Render(gochart.SVG, w)
}

func background(o Options) gochart.Style {
	p := o.Padding
	top := p
	if len(o.Title) > 0 {
		top += 20
	}
	return gochart.Style{Padding: gochart.Box{Top: top, Left: p, Right: p, Bottom: p}}
}

// barGeometry splits the plot width per bar into bar and gap by BarPercentage.
func barGeometry(o Options, n int) (width, spacing int) {
	if n == 0 {
		return 1, 0
	}
	plot := o.Width - 2*o.Padding - 60
	if plot < n {
		plot = n
	}
	per := float64(plot) / float64(n)
	pct := o.BarPercentage
	if pct <= 0 || pct > 1 {
		pct = 0.8
	}
	width = int(per * pct)
	if width < 1 {
		width = 1
	}
	spacing = int(per) - width
	if spacing < 0 {
		spacing = 0
	}
	return width, spacing
}

// yRange pins the value axis at zero; the library rejects empty ranges.
func yRange(o Options, values []float64) *gochart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if o.YMax > 0 {
		hi = o.YMax
	} else {
		hi *= 1.1
	}
	if hi-lo < 1 {
		hi = lo + 1
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi}
}

// ticks labels every step-th point. The library takes the x-range from the
// ticks, so the last point always gets one, blank when it falls between steps
// or pads a single label.
func ticks(labels []string) []gochart.Tick {
	step := 1
	if len(labels) > maxTicks {
		step = int(math.Ceil(float64(len(labels)) / maxTicks))
	}
	out := make([]gochart.Tick, 0, len(labels)/step+2)
	for i := 0; i < len(labels); i += step {
		out = append(out, gochart.Tick{Value: float64(i), Label: labels[i]})
	}
	last := math.Max(float64(len(labels)-1), 1)
	if out[len(out)-1].Value < last {
		out = append(out, gochart.Tick{Value: last})
	}
	return out
}

func color(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func placeholder(w io.Writer, o Options) error {
	_, err := fmt.Fprintf(w, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
		`<text x="50%%" y="50%%" text-anchor="middle" fill="#6c757d" font-family="sans-serif" font-size="14">%s</text></svg>`,
		o.Width, o.Height, o.Width, o.Height, html.EscapeString(placeholderText(o)))
	return err
}

func placeholderText(o Options) string {
	if o.Title != "" {
		return o.Title + ": no data available"
	}
	return "No data available"
}
