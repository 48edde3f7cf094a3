package views

import (
	"context"
	"math"
	"sort"
	"strconv"

	"certdash/analytics"
	"certdash/chart"
	"certdash/dashboard"
	"certdash/markup"
)

type validityView struct{ page }

var ValidityAnalytics = validityView{page{
	meta:     dashboard.Meta{ID: "validity-analytics", Title: "Certificate Validity Analytics", Icon: "bi-calendar-range", Group: "Analytics"},
	canvases: []string{"validity-distribution-chart", "validity-trends-chart", "expiration-timeline-chart"},
}}

func (v validityView) LoadData(ctx context.Context, c *dashboard.Context) error {
	const failMsg = "Failed to load validity analytics data."
	dist, err := c.API.ValidityDistribution(ctx, "validity-distribution-chart")
	if err != nil {
		return failed(c, failMsg, err)
	}
	trends, err := c.API.ValidityTrends(ctx, "validity-trends-chart")
	if err != nil {
		return failed(c, failMsg, err)
	}
	active, err := c.API.ActiveCertificates(ctx, "expiration-timeline-chart")
	if err != nil {
		return failed(c, failMsg, err)
	}

	labels, values := rangeSeries(dist)
	if _, err := c.Charts.Bar("validity-distribution-chart", labels, values, "Certificates",
		chart.Options{Horizontal: true}); err != nil {
		return err
	}

	years := make([]string, len(trends))
	avg := make([]float64, len(trends))
	counts := make([]float64, len(trends))
	for i, t := range trends {
		years[i] = t.Year.Or("Unknown")
		avg[i] = math.Round(t.AvgValidity)
		counts[i] = float64(t.Count)
	}
	if _, err := c.Charts.Multi("validity-trends-chart", years, []chart.Dataset{
		{Label: "Avg. Validity (days)", Values: avg, Kind: chart.KindLine, Color: chart.ColorPrimary},
		{Label: "Certificate Count", Values: counts, Kind: chart.KindBar, Color: chart.ColorSecondary, Secondary: true},
	}, chart.KindBar, chart.Options{}); err != nil {
		return err
	}

	months := markup.GroupByMonth(active, analytics.Certificate.ExpiresAt)
	mlabels := make([]string, len(months))
	mvalues := make([]float64, len(months))
	for i, m := range months {
		mlabels[i] = m.Key
		mvalues[i] = float64(len(m.Certs))
	}
	_, err = c.Charts.Line("expiration-timeline-chart", mlabels, mvalues, "Certificates Expiring", chart.Options{})
	return err
}

func rangeSeries(rs []analytics.RangeCount) ([]string, []float64) {
	labels := make([]string, len(rs))
	values := make([]float64, len(rs))
	for i, r := range rs {
		labels[i] = r.Range
		values[i] = float64(r.Count)
	}
	return labels, values
}

type signatureView struct{ page }

var SignatureAnalytics = signatureView{page{
	meta:     dashboard.Meta{ID: "signature-analytics", Title: "Signature & Hash Algorithm Analytics", Icon: "bi-fingerprint", Group: "Analytics"},
	canvases: []string{"signature-algorithm-chart", "hash-algorithm-chart", "algorithm-trends-chart"},
}}

func (v signatureView) LoadData(ctx context.Context, c *dashboard.Context) error {
	const failMsg = "Failed to load signature analytics data."
	sigs, err := c.API.SignatureAlgorithms(ctx, "signature-algorithm-chart")
	if err != nil {
		return failed(c, failMsg, err)
	}
	hashes, err := c.API.HashAlgorithms(ctx, "hash-algorithm-chart")
	if err != nil {
		return failed(c, failMsg, err)
	}
	trends, err := c.API.AlgorithmTrends(ctx, "algorithm-trends-chart")
	if err != nil {
		return failed(c, failMsg, err)
	}

	labels, values := markup.Series(sigs, "Unknown")
	if _, err := c.Charts.Doughnut("signature-algorithm-chart", labels, values, "Certificates", chart.Options{}); err != nil {
		return err
	}
	labels, values = markup.Series(hashes, "Unknown")
	if _, err := c.Charts.Doughnut("hash-algorithm-chart", labels, values, "Certificates", chart.Options{}); err != nil {
		return err
	}

	years, datasets := algorithmSeries(trends)
	_, err = c.Charts.Multi("algorithm-trends-chart", years, datasets, chart.KindBar, chart.Options{Stacked: true})
	return err
}

// algorithmSeries pivots yearly algorithm counts into one dataset per
// algorithm, in first-seen order.
func algorithmSeries(trends []analytics.AlgorithmTrend) ([]string, []chart.Dataset) {
	years := make([]string, len(trends))
	idx := map[string]int{}
	var datasets []chart.Dataset
	for _, t := range trends {
		for _, a := range t.Algorithms {
			if _, ok := idx[a.Algorithm]; !ok {
				idx[a.Algorithm] = len(datasets)
				datasets = append(datasets, chart.Dataset{
					Label:  a.Algorithm,
					Values: make([]float64, len(trends)),
					Color:  chart.Palette[len(datasets)%len(chart.Palette)],
				})
			}
		}
	}
	for i, t := range trends {
		years[i] = strconv.Itoa(t.Year)
		for _, a := range t.Algorithms {
			datasets[idx[a.Algorithm]].Values[i] += float64(a.Count)
		}
	}
	return years, datasets
}

const (
	caTopCount     = 10
	marketTopCount = 15
)

type caView struct{ page }

var CAAnalytics = caView{page{
	meta:     dashboard.Meta{ID: "ca-analytics", Title: "Certificate Authority Analytics", Icon: "bi-building", Group: "Authorities"},
	canvases: []string{"ca-distribution-chart", "intermediate-ca-chart", "ca-market-share-chart"},
}}

func (v caView) LoadData(ctx context.Context, c *dashboard.Context) error {
	const failMsg = "Failed to load CA analytics data."
	cas, err := c.API.CertificateAuthorities(ctx, "ca-distribution-chart")
	if err != nil {
		return failed(c, failMsg, err)
	}
	intermediates, err := c.API.IntermediateCAs(ctx, "intermediate-ca-chart")
	if err != nil {
		return failed(c, failMsg, err)
	}

	labels, values := markup.Series(markup.TopWithOther(cas, caTopCount, "Other CAs"), "Unknown")
	if _, err := c.Charts.Doughnut("ca-distribution-chart", labels, values, "Certificates", chart.Options{}); err != nil {
		return err
	}
	labels, values = markup.Series(markup.TopWithOther(intermediates, caTopCount, "Other Intermediates"), "Unknown")
	if _, err := c.Charts.Doughnut("intermediate-ca-chart", labels, values, "Certificates", chart.Options{}); err != nil {
		return err
	}

	share := append([]analytics.Count(nil), cas...)
	sort.SliceStable(share, func(i, j int) bool { return share[i].Count > share[j].Count })
	labels, values = markup.Series(markup.Top(share, marketTopCount), "Unknown")
	if _, err := c.Charts.Bar("ca-market-share-chart", labels, values, "Certificates Issued",
		chart.Options{Horizontal: true}); err != nil {
		return err
	}

	return fill(c,
		section{"ca-stats-table", markup.CountRows(cas, "Unknown", "No certificate authorities found")},
		section{"intermediate-stats-table", markup.CountRows(intermediates, "Unknown", "No intermediate CAs found")},
	)
}

const sanTopDomains = 20

// sanTypes is the fixed split shown by the SAN type doughnut; the API does
// not break SAN entries down by type.
var sanTypes = struct {
	labels []string
	values []float64
}{
	labels: []string{"DNS Names", "IP Addresses", "Email Addresses", "URLs", "Other Types"},
	values: []float64{85, 10, 3, 1, 1},
}

type sanView struct{ page }

var SANAnalytics = sanView{page{
	meta:     dashboard.Meta{ID: "san-analytics", Title: "Subject Alternative Name (SAN) Analytics", Icon: "bi-diagram-3", Group: "Analytics"},
	canvases: []string{"san-count-chart", "san-domains-chart", "san-type-chart"},
}}

func (v sanView) LoadData(ctx context.Context, c *dashboard.Context) error {
	const failMsg = "Failed to load SAN analytics data."
	dist, err := c.API.SANDistribution(ctx, "san-count-chart")
	if err != nil {
		return failed(c, failMsg, err)
	}
	domains, err := c.API.SANDomains(ctx, "san-domains-chart")
	if err != nil {
		return failed(c, failMsg, err)
	}

	labels, values := rangeSeries(dist)
	if _, err := c.Charts.Bar("san-count-chart", labels, values, "Number of Certificates", chart.Options{}); err != nil {
		return err
	}
	labels, values = markup.Series(markup.Top(domains, sanTopDomains), "Unknown")
	if _, err := c.Charts.Bar("san-domains-chart", labels, values, "Occurrences", chart.Options{Horizontal: true}); err != nil {
		return err
	}
	_, err = c.Charts.Doughnut("san-type-chart", sanTypes.labels, sanTypes.values, "SAN Types", chart.Options{})
	return err
}

type trendsView struct{ page }

var TrendsAnalytics = trendsView{page{
	meta:     dashboard.Meta{ID: "trends-analytics", Title: "Certificate Trends & Analytics", Icon: "bi-graph-up", Group: "Analytics"},
	canvases: []string{"issuance-trend-chart", "cert-length-trend-chart", "security-adoption-chart"},
}}

func (v trendsView) LoadData(ctx context.Context, c *dashboard.Context) error {
	certs, err := c.API.Certificates(ctx, "issuance-trend-chart")
	if err != nil {
		return failed(c, "Failed to load trends analytics data.", err)
	}

	months := markup.GroupByMonth(certs, analytics.Certificate.IssuedAt)
	labels := make([]string, len(months))
	issued := make([]float64, len(months))
	validity := make([]float64, len(months))
	levels := make([]chart.Dataset, len(markup.SecurityLevels))
	for i, l := range markup.SecurityLevels {
		levels[i] = chart.Dataset{Label: l, Values: make([]float64, len(months)), Color: chart.Palette[i%len(chart.Palette)]}
	}
	levelIdx := make(map[string]int, len(markup.SecurityLevels))
	for i, l := range markup.SecurityLevels {
		levelIdx[l] = i
	}

	for i, m := range months {
		labels[i] = m.Key
		issued[i] = float64(len(m.Certs))
		validity[i] = math.Round(averageValidityDays(m.Certs))
		for _, cert := range m.Certs {
			levels[levelIdx[markup.SecurityLevel(cert.AlgorithmName())]].Values[i]++
		}
	}

	if _, err := c.Charts.Line("issuance-trend-chart", labels, issued, "Certificates Issued", chart.Options{}); err != nil {
		return err
	}
	if _, err := c.Charts.Line("cert-length-trend-chart", labels, validity, "Average Validity (days)", chart.Options{}); err != nil {
		return err
	}
	_, err = c.Charts.Multi("security-adoption-chart", labels, levels, chart.KindLine, chart.Options{Tension: 0.4})
	return err
}

// averageValidityDays is the mean issue-to-expiry span of the certificates
// that carry both dates.
func averageValidityDays(certs []analytics.Certificate) float64 {
	var sum float64
	n := 0
	for _, c := range certs {
		from, to := c.IssuedAt(), c.ExpiresAt()
		if from.IsZero() || to.IsZero() {
			continue
		}
		sum += to.Sub(from.Time).Hours() / 24
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

var (
	_ dashboard.DataLoader = validityView{}
	_ dashboard.DataLoader = signatureView{}
	_ dashboard.DataLoader = caView{}
	_ dashboard.DataLoader = sanView{}
	_ dashboard.DataLoader = trendsView{}
)
