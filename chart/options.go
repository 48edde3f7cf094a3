package chart

import (
	"fmt"

	"dario.cat/mergo"
)

type Kind string

const (
	KindDoughnut Kind = "doughnut"
	KindBar      Kind = "bar"
	KindLine     Kind = "line"
	KindMulti    Kind = "multi"
)

// Options is the merged styling for one chart. Zero fields mean "inherit"; the
// boolean flags can only be switched on by a later layer.
type Options struct {
	Title         string
	Width         int
	Height        int
	Padding       int
	Legend        string // top, right, bottom or none
	Cutout        int    // doughnut hole, percent of radius
	BarPercentage float64
	PointRadius   float64
	Tension       float64
	Stacked       bool
	Horizontal    bool
	YMax          float64
	LabelRotation float64
	Palette       []string
}

var Palette = []string{
	"#1976d2", "#f44336", "#4caf50", "#ff9800", "#9c27b0",
	"#00bcd4", "#e91e63", "#009688", "#3f51b5", "#cddc39",
}

const (
	ColorPrimary   = "#1976d2"
	ColorSecondary = "#ff9800"
	ColorSuccess   = "#4caf50"
	ColorDanger    = "#f44336"
	ColorWarning   = "#ff9800"
	ColorInfo      = "#2196f3"
)

// defaults is the library-wide layer.
func defaults() Options {
	return Options{
		Width:   480,
		Height:  300,
		Padding: 20,
		Legend:  "top",
		Palette: Palette,
	}
}

// typeDefaults is the per-kind layer applied over defaults.
func typeDefaults(k Kind) Options {
	switch k {
	case KindDoughnut:
		return Options{Cutout: 65, Legend: "right"}
	case KindBar:
		return Options{BarPercentage: 0.6}
	case KindLine:
		return Options{PointRadius: 4, Tension: 0.4}
	case KindMulti:
		return Options{BarPercentage: 0.7, PointRadius: 3}
	}
	return Options{}
}

// Resolve merges the library defaults, the defaults for k and overrides, in
// increasing precedence.
func Resolve(k Kind, overrides Options) (Options, error) {
	out := defaults()
	for _, layer := range []Options{typeDefaults(k), overrides} {
		if err := mergo.Merge(&out, layer, mergo.WithOverride); err != nil {
			return Options{}, fmt.Errorf("chart: merge %s options: %w", k, err)
		}
	}
	return out, nil
}

// Color returns the palette colour for series i.
func (o Options) Color(i int) string {
	p := o.Palette
	if len(p) == 0 {
		p = Palette
	}
	return p[i%len(p)]
}
