package dashboard

import (
	"fmt"
	"html"

	"certdash/chart"
)

// loaderTarget bridges the section loaders to one navigation's region token.
type loaderTarget struct {
	region *Region
	tok    Token
}

func (t loaderTarget) AddClass(id, class string) error {
	return t.region.AddClass(t.tok, id, class)
}

func (t loaderTarget) RemoveClass(id, class string) error {
	return t.region.RemoveClass(t.tok, id, class)
}

func (t loaderTarget) SetInner(id, html string) error {
	return t.region.SetInner(t.tok, id, html)
}

func (t loaderTarget) Inner(id string) (string, error) {
	return t.region.Inner(id)
}

func (t loaderTarget) Tag(id string) string {
	return t.region.Tag(id)
}

// canvasSurface presents the region's canvas elements to the chart factory.
// An attached handle is shown as an image of its SVG rendering.
type canvasSurface struct {
	region *Region
	tok    Token
}

func (s canvasSurface) IsCanvas(id string) bool {
	return s.region.IsCanvas(id)
}

func (s canvasSurface) Attach(h *chart.Handle) error {
	alt := h.Options().Title
	if alt == "" {
		alt = h.ID()
	}
	img := fmt.Sprintf(`<img class="chart-image" src="%s" alt="%s">`,
		html.EscapeString(ChartURL(h)), html.EscapeString(alt))
	return s.region.SetInner(s.tok, h.ID(), img)
}

// ChartURL is where the page fetches a handle's rendering. The sequence
// number busts caches across redraws of the same canvas.
func ChartURL(h *chart.Handle) string {
	return fmt.Sprintf("/charts/%s.svg?v=%d", h.ID(), h.Seq())
}
