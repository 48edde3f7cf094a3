// Package views holds the dashboard pages. Each view mounts a scaffold with
// named containers and canvases, then fills them from the analytics API.
package views

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"certdash/analytics"
	"certdash/dashboard"
	"certdash/markup"
	"certdash/notify"
)

//go:embed templates/*.html
var templateFS embed.FS

var scaffolds = template.Must(template.New("").Funcs(template.FuncMap{
	"canvas": canvas,
	"slot":   func(title, id string) slot { return slot{Title: title, ID: id} },
	"tbody":  tbody,
	"num":    markup.FormatNumber,
	"abbrev": markup.Abbrev,
	"keys":   joinKeys,
}).ParseFS(templateFS, "templates/*.html"))

// canvas is the chart slot markup. The chart image is attached inside it.
func canvas(id string) template.HTML {
	return template.HTML(fmt.Sprintf(`<div class="chart-container"><div id="%s" class="chart-canvas" data-canvas></div></div>`,
		template.HTMLEscapeString(id)))
}

// slot names a card's title and the id of the element inside it.
type slot struct {
	Title string
	ID    string
}

func tbody(id string) template.HTML {
	return template.HTML(fmt.Sprintf(`<tbody id="%s"></tbody>`, template.HTMLEscapeString(id)))
}

func joinKeys(ks []analytics.Key) string {
	parts := make([]string, 0, len(ks))
	for _, k := range ks {
		if k != "" {
			parts = append(parts, string(k))
		}
	}
	return strings.Join(parts, ", ")
}

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := scaffolds.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// page is the shared scaffold and teardown of every view. The scaffold
// template is named after the view id.
type page struct {
	meta     dashboard.Meta
	canvases []string
}

func (p page) Meta() dashboard.Meta { return p.meta }

func (p page) Render(_ context.Context, c *dashboard.Context) error {
	h, err := execute(p.meta.ID, p.meta)
	if err != nil {
		return err
	}
	return c.Mount(h)
}

func (p page) Destroy(c *dashboard.Context) error {
	c.Release(p.canvases...)
	return nil
}

// failed reports a load error as a toast unless the navigation was superseded.
func failed(c *dashboard.Context, msg string, err error) error {
	if dashboard.IsStale(err) {
		return err
	}
	c.Toast(msg, notify.Error)
	return err
}

// fill writes several containers, stopping at the first failure.
func fill(c *dashboard.Context, sections ...section) error {
	for _, s := range sections {
		if err := c.Set(s.id, s.html); err != nil {
			return err
		}
	}
	return nil
}

type section struct {
	id   string
	html template.HTML
}

// All returns every view in navigation order.
func All() []dashboard.View {
	return []dashboard.View{
		Overview,
		ActiveExpired,
		TypeDistribution,
		ExpiringSoon,
		ValidityAnalytics,
		SignatureAnalytics,
		CAAnalytics,
		SANAnalytics,
		TrendsAnalytics,
		SubjectNames,
		CADomain,
		CAURL,
		CAPubkey,
		IssuerOrganization,
		IssuerCountry,
		RegionsDepartments,
		SharedPubkeys,
	}
}

// Register adds every view to reg.
func Register(reg *dashboard.Registry) error {
	for _, v := range All() {
		if err := reg.Register(v); err != nil {
			return err
		}
	}
	return nil
}
