package views

import (
	"context"
	"html/template"

	"certdash/analytics"
	"certdash/chart"
	"certdash/dashboard"
	"certdash/dom"
	"certdash/markup"
)

const recentCount = 5

type overviewView struct{ page }

var Overview = overviewView{page{
	meta:     dashboard.Meta{ID: "overview", Title: "Certificates Overview", Icon: "bi-speedometer2", Group: "Certificates"},
	canvases: []string{"status-chart", "types-chart"},
}}

func (v overviewView) LoadData(ctx context.Context, c *dashboard.Context) error {
	const failMsg = "Failed to load overview data. Please try again later."
	ov, err := c.API.Overview(ctx, "overview-stats")
	if err != nil {
		return c.Fail(dom.RootID, failMsg, err)
	}
	c.Cache.SetOverview(ov)

	err = fill(c,
		section{"total-certificates", markup.Text(markup.FormatNumber(ov.Total))},
		section{"active-certificates", markup.Text(markup.FormatNumber(ov.Active))},
		section{"expired-certificates", markup.Text(markup.FormatNumber(ov.Expired))},
		section{"expiring-certificates", markup.Text(markup.FormatNumber(ov.ExpiringSoon))},
	)
	if err != nil {
		return err
	}

	if _, err := c.Charts.Doughnut("status-chart",
		[]string{analytics.StatusActive, analytics.StatusExpired},
		[]float64{float64(ov.Active), float64(ov.Expired)}, "Certificates",
		chart.Options{Cutout: 70, Palette: []string{chart.ColorSuccess, chart.ColorDanger}}); err != nil {
		return err
	}
	labels, values := markup.Series(ov.Types, "Unknown")
	if _, err := c.Charts.Doughnut("types-chart", labels, values, "Certificates", chart.Options{Cutout: 70}); err != nil {
		return err
	}

	certs, err := c.API.Certificates(ctx, "recent-certificates-table")
	if err != nil {
		return c.Fail(dom.RootID, failMsg, err)
	}
	c.Cache.SetCertificates(certs)
	return c.Set("recent-certificates-table", markup.RecentRows(markup.RecentCertificates(certs, recentCount), c.Now()))
}

type activeExpiredView struct{ page }

var ActiveExpired = activeExpiredView{page{
	meta:     dashboard.Meta{ID: "active-expired", Title: "Active vs Expired Certificates", Icon: "bi-toggle-on", Group: "Certificates"},
	canvases: []string{"active-expired-chart", "department-status-chart"},
}}

func (v activeExpiredView) LoadData(ctx context.Context, c *dashboard.Context) error {
	const failMsg = "Failed to load certificate data. Please try again later."
	ov, cached := c.Cache.Overview()
	if !cached {
		var err error
		if ov, err = c.API.Overview(ctx, dom.RootID); err != nil {
			return c.Fail(dom.RootID, failMsg, err)
		}
		c.Cache.SetOverview(ov)
	}
	active, err := c.API.ActiveCertificates(ctx, "active-certificates-table")
	if err != nil {
		return c.Fail(dom.RootID, failMsg, err)
	}
	expired, err := c.API.ExpiredCertificates(ctx, "expired-certificates-table")
	if err != nil {
		return c.Fail(dom.RootID, failMsg, err)
	}

	if len(ov.StatusDistribution) > 0 {
		labels, values := markup.Series(ov.StatusDistribution, "Unknown")
		if _, err := c.Charts.Doughnut("active-expired-chart", labels, values, "Certificates",
			chart.Options{Palette: []string{chart.ColorSuccess, chart.ColorDanger}}); err != nil {
			return err
		}
		if err := c.Set("status-stats-table", statusStats(ov.StatusDistribution)); err != nil {
			return err
		}
	}
	if len(ov.DepartmentStatus) > 0 {
		departments, datasets := departmentSeries(ov.DepartmentStatus)
		if _, err := c.Charts.Multi("department-status-chart", departments, datasets, chart.KindBar,
			chart.Options{Stacked: true}); err != nil {
			return err
		}
	}

	return fill(c, append(
		certificatePage(c, v.meta.ID, "active", active, "No active certificates found"),
		certificatePage(c, v.meta.ID, "expired", expired, "No expired certificates found")...,
	)...)
}

// certificatePage renders one page of the kind table and its pagination.
func certificatePage(c *dashboard.Context, viewID, kind string, certs []analytics.Certificate, empty string) []section {
	param := kind + "_page"
	p := markup.Paginate(len(certs), c.Page(param), c.PageSize)
	return []section{
		{kind + "-certificates-table", markup.CertificateRows(certs[p.Start:p.End], empty)},
		{kind + "-certificates-pagination", markup.Pagination(p, viewID, param, c.Params, kind+" certificates pages")},
	}
}

func statusStats(dist []analytics.Count) template.HTML {
	total := markup.Total(dist)
	count := func(status string) int {
		for _, d := range dist {
			if string(d.ID) == status {
				return d.Count
			}
		}
		return 0
	}
	t := markup.Table{Cols: 3}
	for _, status := range []string{analytics.StatusActive, analytics.StatusExpired} {
		n := count(status)
		t.Rows = append(t.Rows, markup.Row{
			markup.StatusBadge(status),
			markup.Text(markup.FormatNumber(n)),
			markup.Text(markup.FormatFloat(markup.Percent(n, total), 1) + "%"),
		})
	}
	t.Footer = markup.Cells("Total", markup.FormatNumber(total), "100%")
	return markup.Rows(t)
}

// departmentSeries pivots department/status counts into one dataset per
// status over the departments, both in first-seen order.
func departmentSeries(rows []analytics.DepartmentStatus) ([]string, []chart.Dataset) {
	var departments, statuses []string
	deptIdx := map[string]int{}
	statusIdx := map[string]int{}
	for _, r := range rows {
		if _, ok := deptIdx[r.Department]; !ok {
			deptIdx[r.Department] = len(departments)
			departments = append(departments, r.Department)
		}
		if _, ok := statusIdx[r.Status]; !ok {
			statusIdx[r.Status] = len(statuses)
			statuses = append(statuses, r.Status)
		}
	}
	datasets := make([]chart.Dataset, len(statuses))
	for i, s := range statuses {
		color := chart.ColorDanger
		if s == analytics.StatusActive {
			color = chart.ColorSuccess
		}
		datasets[i] = chart.Dataset{Label: s, Values: make([]float64, len(departments)), Color: color}
	}
	for _, r := range rows {
		datasets[statusIdx[r.Status]].Values[deptIdx[r.Department]] += float64(r.Count)
	}
	return departments, datasets
}

type typeDistributionView struct{ page }

var TypeDistribution = typeDistributionView{page{
	meta:     dashboard.Meta{ID: "type-distribution", Title: "Certificate Type Distribution", Icon: "bi-pie-chart", Group: "Certificates"},
	canvases: []string{"type-distribution-chart", "type-status-chart"},
}}

type typeStats struct {
	total, active, expired int
}

func (v typeDistributionView) LoadData(ctx context.Context, c *dashboard.Context) error {
	const failMsg = "Failed to load certificate type data. Please try again later."
	active, err := c.API.ActiveCertificates(ctx, "type-distribution-chart")
	if err != nil {
		return c.Fail(dom.RootID, failMsg, err)
	}
	expired, err := c.API.ExpiredCertificates(ctx, "type-status-chart")
	if err != nil {
		return c.Fail(dom.RootID, failMsg, err)
	}
	types, err := c.API.Types(ctx, "type-stats-table")
	if err != nil {
		return c.Fail(dom.RootID, failMsg, err)
	}

	labels, values := markup.Series(types, "Unknown")
	if _, err := c.Charts.Doughnut("type-distribution-chart", labels, values, "Certificates", chart.Options{}); err != nil {
		return err
	}

	all := append(append([]analytics.Certificate(nil), active...), expired...)
	stats := make(map[string]*typeStats, len(labels))
	for _, l := range labels {
		stats[l] = &typeStats{}
	}
	now := c.Now()
	for _, cert := range all {
		s, ok := stats[cert.TypeName()]
		if !ok {
			continue
		}
		s.total++
		if cert.StatusAt(now) == analytics.StatusActive {
			s.active++
		} else {
			s.expired++
		}
	}

	activeBy := make([]float64, len(labels))
	expiredBy := make([]float64, len(labels))
	t := markup.Table{Cols: 5, Empty: "No certificate types found"}
	for i, l := range labels {
		s := stats[l]
		activeBy[i], expiredBy[i] = float64(s.active), float64(s.expired)
		t.Rows = append(t.Rows, markup.Cells(
			l,
			markup.FormatNumber(s.total),
			markup.FormatNumber(s.active),
			markup.FormatNumber(s.expired),
			markup.FormatFloat(markup.Percent(s.total, len(all)), 0)+"%",
		))
	}
	if _, err := c.Charts.Multi("type-status-chart", labels, []chart.Dataset{
		{Label: analytics.StatusActive, Values: activeBy, Color: chart.ColorSuccess},
		{Label: analytics.StatusExpired, Values: expiredBy, Color: chart.ColorDanger},
	}, chart.KindBar, chart.Options{Stacked: true}); err != nil {
		return err
	}
	return c.Set("type-stats-table", markup.Rows(t))
}

type expiringSoonView struct{ page }

var ExpiringSoon = expiringSoonView{page{
	meta:     dashboard.Meta{ID: "expiring-soon", Title: "Certificates Expiring Soon", Icon: "bi-hourglass-split", Group: "Certificates"},
	canvases: []string{"timeline-chart"},
}}

func (v expiringSoonView) LoadData(ctx context.Context, c *dashboard.Context) error {
	fail := func(err error) error {
		return failed(c, "Failed to load expiring certificates.",
			c.Fail(dom.RootID, "Failed to load expiring certificates. Please try again later.", err))
	}
	expiring, err := c.API.Expiring(ctx, "expiring-certificates-table")
	if err != nil {
		return fail(err)
	}
	timeline, err := c.API.Timeline(ctx, "timeline-chart")
	if err != nil {
		return fail(err)
	}

	labels := make([]string, len(timeline))
	values := make([]float64, len(timeline))
	for i, p := range timeline {
		labels[i] = markup.FormatDate(p.Date, "Jan 2006")
		values[i] = float64(p.Count)
	}
	if _, err := c.Charts.Line("timeline-chart", labels, values, "Certificates Issued", chart.Options{}); err != nil {
		return err
	}

	p := markup.Paginate(len(expiring), c.Page("page"), c.PageSize)
	return fill(c,
		section{"expiring-certificates-table", markup.ExpiringRows(expiring[p.Start:p.End], c.Now(), c.Thresholds)},
		section{"expiring-certificates-pagination", markup.Pagination(p, v.meta.ID, "page", c.Params, "expiring certificates pages")},
	)
}

var (
	_ dashboard.DataLoader = overviewView{}
	_ dashboard.DataLoader = activeExpiredView{}
	_ dashboard.DataLoader = typeDistributionView{}
	_ dashboard.DataLoader = expiringSoonView{}
)
