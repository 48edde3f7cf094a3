package views

import (
	"context"
	"errors"
	"html/template"
	"net/url"
	"sort"
	"strings"

	"certdash/analytics"
	"certdash/chart"
	"certdash/dashboard"
	"certdash/markup"
)

const (
	subjectTopCount  = 20
	subjectLabelLen  = 30
	caDomainTopCount = 10
	caURLTopCount    = 10
	detailsTopCount  = 10
	urlTypesTopCount = 8
	pubkeyTopCount   = 10
	issuerTopCount   = 10
	issuerPieCount   = 5
)

// linkRows renders name, count and share rows whose names re-open the view
// with param selecting that entry.
func linkRows(viewID, param string, counts []analytics.Count, selected string) template.HTML {
	total := markup.Total(counts)
	t := markup.Table{Cols: 3, Empty: "No data available"}
	for _, c := range counts {
		name := c.ID.Or("Unknown")
		link := markup.ViewLink(viewID, url.Values{param: {name}}, name)
		if name == selected {
			link = "<strong>" + link + "</strong>"
		}
		t.Rows = append(t.Rows, markup.Row{
			link,
			markup.Text(markup.FormatNumber(c.Count)),
			markup.Text(markup.FormatFloat(markup.Percent(c.Count, total), 1) + "%"),
		})
	}
	return markup.Rows(t)
}

type share struct {
	Label   string
	Count   int
	Percent int
}

func shares[T any](items []T, total int, label func(T) string, count func(T) int) []share {
	out := make([]share, len(items))
	for i, it := range items {
		n := count(it)
		out[i] = share{Label: label(it), Count: n, Percent: int(markup.Percent(n, total) + 0.5)}
	}
	return out
}

type subjectNamesView struct{ page }

var SubjectNames = subjectNamesView{page{
	meta:     dashboard.Meta{ID: "subject-names", Title: "Subject Names Analytics", Icon: "bi-person-badge", Group: "Subjects"},
	canvases: []string{"subject-names-chart", "domain-category-chart"},
}}

func (v subjectNamesView) LoadData(ctx context.Context, c *dashboard.Context) error {
	names, err := c.API.SubjectCommonNames(ctx, "subject-names-chart")
	if err != nil {
		return failed(c, "Failed to load subject names data.", err)
	}
	if len(names) == 0 {
		return c.Set("subject-names-chart", markup.InfoPanel("No subject common names data available"))
	}

	top := markup.Top(names, subjectTopCount)
	labels, values := markup.Series(top, "Unknown")
	for i := range labels {
		labels[i] = markup.Truncate(labels[i], subjectLabelLen)
	}
	if _, err := c.Charts.Bar("subject-names-chart", labels, values, "Number of Certificates",
		chart.Options{Horizontal: true}); err != nil {
		return err
	}

	cats := domainCategories(names)
	labels, values = markup.Series(cats, "Unknown")
	if _, err := c.Charts.Doughnut("domain-category-chart", labels, values, "Certificates", chart.Options{}); err != nil {
		return err
	}

	selected := c.Param("name")
	if err := c.Set("subject-names-table", linkRows(v.meta.ID, "name", names, selected)); err != nil {
		return err
	}
	if selected == "" {
		return nil
	}
	for _, n := range names {
		if n.ID.Or("Unknown") == selected {
			return c.Set("subject-name-details", subjectDetail(selected, n.Count))
		}
	}
	return c.Set("subject-name-details", markup.WarningPanel("Subject name "+selected+" not found"))
}

// domainCategories sums counts per TLD category, dropping empty categories.
func domainCategories(names []analytics.Count) []analytics.Count {
	sums := make(map[string]int, len(markup.DomainCategories))
	for _, n := range names {
		sums[markup.DomainCategory(string(n.ID))] += n.Count
	}
	var out []analytics.Count
	for _, cat := range markup.DomainCategories {
		if sums[cat] > 0 {
			out = append(out, analytics.Count{ID: analytics.Key(cat), Count: sums[cat]})
		}
	}
	return out
}

func subjectDetail(name string, count int) template.HTML {
	tld, sub := markup.DomainParts(name)
	domain := name
	if labels := strings.Split(strings.TrimSuffix(name, "."), "."); len(labels) > 1 {
		domain = labels[len(labels)-2]
	}
	if tld == "" {
		tld = "Unknown"
	}
	h, err := execute("subject-name-detail", struct {
		Name, Domain, TLD, Subdomain string
		Count                        int
	}{name, domain, tld, sub, count})
	if err != nil {
		return markup.ErrorPanel(err.Error())
	}
	return h
}

type breakdown struct {
	Name, Noun, Heading, Canvas string
	Total, Unique               int
	Shares                      []share
}

type caDomainView struct{ page }

var CADomain = caDomainView{page{
	meta:     dashboard.Meta{ID: "ca-domain", Title: "CAs vs Domains Analytics", Icon: "bi-globe2", Group: "Authorities"},
	canvases: []string{"ca-domain-chart", "ca-domain-details-chart"},
}}

func (v caDomainView) LoadData(ctx context.Context, c *dashboard.Context) error {
	cas, err := c.API.CADomains(ctx, "ca-domain-chart")
	if err != nil {
		return failed(c, "Failed to load CA domain analysis data.", err)
	}
	if len(cas) == 0 {
		return c.Set("ca-domain-chart", markup.InfoPanel("No CA domain analysis data available"))
	}

	totals := make([]analytics.Count, len(cas))
	for i, ca := range cas {
		totals[i] = analytics.Count{ID: ca.CA, Count: ca.Total}
	}
	labels, values := markup.Series(markup.Top(totals, caDomainTopCount), "Unknown")
	if _, err := c.Charts.Bar("ca-domain-chart", labels, values, "Number of Domains", chart.Options{}); err != nil {
		return err
	}

	selected := c.Param("ca")
	if err := c.Set("ca-domain-table", linkRows(v.meta.ID, "ca", totals, selected)); err != nil {
		return err
	}
	if selected == "" {
		return nil
	}
	for _, ca := range cas {
		if ca.CA.Or("Unknown") != selected {
			continue
		}
		domains := append([]analytics.DomainCount(nil), ca.Domains...)
		sort.SliceStable(domains, func(i, j int) bool { return domains[i].Count > domains[j].Count })
		top := markup.Top(domains, detailsTopCount)
		h, err := execute("ca-breakdown-detail", breakdown{
			Name:    selected,
			Noun:    "Domain",
			Heading: "Top Domains Secured by " + selected,
			Canvas:  "ca-domain-details-chart",
			Total:   ca.Total,
			Unique:  len(ca.Domains),
			Shares: shares(top, ca.Total,
				func(d analytics.DomainCount) string { return d.Domain.Or("Unknown") },
				func(d analytics.DomainCount) int { return d.Count }),
		})
		if err != nil {
			return err
		}
		if err := c.Set("ca-domain-details", h); err != nil {
			return err
		}
		dl := make([]string, len(top))
		dv := make([]float64, len(top))
		for i, d := range top {
			dl[i], dv[i] = d.Domain.Or("Unknown"), float64(d.Count)
		}
		_, err = c.Charts.Doughnut("ca-domain-details-chart", dl, dv, "Domains", chart.Options{Title: "Domain Distribution"})
		return err
	}
	return c.Set("ca-domain-details", markup.WarningPanel("Certificate authority "+selected+" not found"))
}

type caURLView struct{ page }

var CAURL = caURLView{page{
	meta:     dashboard.Meta{ID: "ca-url", Title: "CAs vs URL Analytics", Icon: "bi-link-45deg", Group: "Authorities"},
	canvases: []string{"ca-url-chart", "ca-url-details-chart"},
}}

func (v caURLView) LoadData(ctx context.Context, c *dashboard.Context) error {
	cas, err := c.API.CAURLs(ctx, "ca-url-chart")
	if err != nil {
		return failed(c, "Failed to load CA URL analysis data.", err)
	}
	if len(cas) == 0 {
		return c.Set("ca-url-chart", markup.InfoPanel("No CA URL analysis data available"))
	}

	sorted := append([]analytics.CAURLs(nil), cas...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].URLs() > sorted[j].URLs() })
	top := markup.Top(sorted, caURLTopCount)
	labels := make([]string, len(top))
	values := make([]float64, len(top))
	for i, ca := range top {
		labels[i], values[i] = ca.Name(), float64(ca.URLs())
	}
	if _, err := c.Charts.Bar("ca-url-chart", labels, values, "Number of URLs", chart.Options{Horizontal: true}); err != nil {
		return err
	}

	selected := c.Param("ca")
	t := markup.Table{Cols: 4, Empty: "No CA URL analysis data available"}
	for _, ca := range sorted {
		avg := ca.AvgURLsPerCert
		if avg == 0 && ca.CertCount > 0 {
			avg = float64(ca.URLs()) / float64(ca.CertCount)
		}
		t.Rows = append(t.Rows, markup.Row{
			markup.ViewLink(v.meta.ID, url.Values{"ca": {ca.Name()}}, ca.Name()),
			markup.Text(markup.FormatNumber(ca.URLs())),
			markup.Text(markup.FormatNumber(ca.CertCount)),
			markup.Text(markup.FormatFloat(avg, 2)),
		})
	}
	if err := c.Set("ca-url-table", markup.Rows(t)); err != nil {
		return err
	}
	if selected == "" {
		return nil
	}
	for _, ca := range sorted {
		if ca.Name() != selected {
			continue
		}
		if len(ca.URLTypes) == 0 {
			return c.Set("ca-url-details", markup.InfoPanel(selected+" has no URL type breakdown"))
		}
		types := append([]analytics.TypeCount(nil), ca.URLTypes...)
		sort.SliceStable(types, func(i, j int) bool { return types[i].Count > types[j].Count })
		h, err := execute("ca-breakdown-detail", breakdown{
			Name:    selected,
			Noun:    "URL",
			Heading: "URL Type Distribution",
			Canvas:  "ca-url-details-chart",
			Total:   ca.URLs(),
			Unique:  len(types),
			Shares: shares(types, ca.URLs(),
				func(ut analytics.TypeCount) string { return orUnknown(ut.Type) },
				func(ut analytics.TypeCount) int { return ut.Count }),
		})
		if err != nil {
			return err
		}
		if err := c.Set("ca-url-details", h); err != nil {
			return err
		}
		top := markup.Top(types, urlTypesTopCount)
		tl := make([]string, len(top))
		tv := make([]float64, len(top))
		for i, ut := range top {
			tl[i], tv[i] = orUnknown(ut.Type), float64(ut.Count)
		}
		_, err = c.Charts.Doughnut("ca-url-details-chart", tl, tv, "URLs", chart.Options{Title: "URL Type Distribution"})
		return err
	}
	return c.Set("ca-url-details", markup.WarningPanel("Certificate authority "+selected+" not found"))
}

type caPubkeyView struct{ page }

var CAPubkey = caPubkeyView{page{
	meta:     dashboard.Meta{ID: "ca-pubkey", Title: "CAs vs Public Keys Analytics", Icon: "bi-key", Group: "Keys"},
	canvases: []string{"ca-pubkey-chart", "key-types-chart"},
}}

func (v caPubkeyView) LoadData(ctx context.Context, c *dashboard.Context) error {
	cas, err := c.API.CAPubkeys(ctx, "ca-pubkey-chart")
	if err != nil {
		return failed(c, "Failed to load CA public key analysis data.", err)
	}
	if len(cas) == 0 {
		return c.Set("ca-pubkey-chart", markup.InfoPanel("No CA public key analysis data available"))
	}

	top := markup.Top(cas, pubkeyTopCount)
	labels := make([]string, len(top))
	values := make([]float64, len(top))
	for i, ca := range top {
		labels[i], values[i] = ca.CA.Or("Unknown"), float64(ca.TotalDuplications)
	}
	if _, err := c.Charts.Bar("ca-pubkey-chart", labels, values, "Duplicated Keys",
		chart.Options{Title: "Top CAs by Public Key Reuse"}); err != nil {
		return err
	}

	if kinds := keyTypes(cas); len(kinds) > 0 {
		kl, kv := markup.Series(kinds, "Other")
		if _, err := c.Charts.Doughnut("key-types-chart", kl, kv, "Keys", chart.Options{Title: "Key Types Distribution"}); err != nil {
			return err
		}
	} else if err := c.Set("key-types-chart", markup.InfoPanel("No key type data available")); err != nil {
		return err
	}

	selected := c.Param("ca")
	t := markup.Table{Cols: 4, Empty: "No CA public key analysis data available"}
	for _, ca := range cas {
		name := ca.CA.Or("Unknown")
		t.Rows = append(t.Rows, markup.Row{
			markup.ViewLink(v.meta.ID, url.Values{"ca": {name}}, name),
			markup.Text(markup.FormatNumber(ca.TotalDuplications)),
			markup.Text(markup.FormatNumber(sharedCerts(ca))),
			markup.Text(markup.FormatFloat(ca.ReuseRatio*100, 2) + "%"),
		})
	}
	if err := c.Set("ca-pubkey-table", markup.Rows(t)); err != nil {
		return err
	}
	if selected == "" {
		return nil
	}
	for _, ca := range cas {
		if ca.CA.Or("Unknown") != selected {
			continue
		}
		h, err := execute("ca-pubkey-detail", struct {
			Name, Ratio string
			Shared      int
			CA          analytics.CAPubkeys
		}{selected, markup.FormatFloat(ca.ReuseRatio*100, 2) + "%", sharedCerts(ca), ca})
		if err != nil {
			return err
		}
		return c.Set("ca-pubkey-details", h)
	}
	return c.Set("ca-pubkey-details", markup.WarningPanel("Certificate authority "+selected+" not found"))
}

func sharedCerts(ca analytics.CAPubkeys) int {
	n := 0
	for _, k := range ca.DuplicatedKeys {
		n += k.Count
	}
	return n
}

// keyTypes buckets every CA's key type counts, in a fixed order, dropping
// empty buckets.
func keyTypes(cas []analytics.CAPubkeys) []analytics.Count {
	order := []string{"RSA", "ECDSA", "DSA", "Ed25519", "Other"}
	sums := make(map[string]int, len(order))
	for _, ca := range cas {
		for _, kt := range ca.KeyTypes {
			sums[markup.KeyType(kt.Type)] += kt.Count
		}
	}
	var out []analytics.Count
	for _, k := range order {
		if sums[k] > 0 {
			out = append(out, analytics.Count{ID: analytics.Key(k), Count: sums[k]})
		}
	}
	return out
}

// issuerView serves both issuer breakdowns; they differ only in the
// endpoint and wording.
type issuerView struct {
	page
	kind    string
	blurb   string
	toast   string
	empty   string
	fetch   func(*analytics.Client, context.Context, string) ([]analytics.Count, error)
	palette string
}

var IssuerOrganization = issuerView{
	page: page{
		meta:     dashboard.Meta{ID: "issuer-organization", Title: "Issuer Organization Analytics", Icon: "bi-briefcase", Group: "Issuers"},
		canvases: []string{"issuer-organization-chart", "issuer-organization-pie-chart"},
	},
	kind:    "Certificate Authority Organization",
	blurb:   "Certificate authorities issue digital certificates that verify the identity of entities and secure online communications.",
	toast:   "Failed to load issuer organization analytics data",
	empty:   "No issuer organization data available. Please check your certificate database.",
	fetch:   (*analytics.Client).IssuerOrganizations,
	palette: chart.ColorPrimary,
}

var IssuerCountry = issuerView{
	page: page{
		meta:     dashboard.Meta{ID: "issuer-country", Title: "Issuer Country Analytics", Icon: "bi-flag", Group: "Issuers"},
		canvases: []string{"issuer-country-chart", "issuer-country-pie-chart"},
	},
	kind:    "Certificate Issuer Country",
	blurb:   "The distribution of certificate authorities across countries can provide insights into the global trust infrastructure.",
	toast:   "Failed to load issuer country analytics data",
	empty:   "No issuer country data available. Please check your certificate database.",
	fetch:   (*analytics.Client).IssuerCountries,
	palette: chart.ColorSecondary,
}

func (v issuerView) LoadData(ctx context.Context, c *dashboard.Context) error {
	id := v.meta.ID
	counts, err := v.fetch(c.API, ctx, id+"-chart")
	if err != nil {
		return failed(c, v.toast, err)
	}
	if len(counts) == 0 {
		return c.Set(id+"-chart", markup.InfoPanel(v.empty))
	}

	labels, values := markup.Series(markup.Top(counts, issuerTopCount), "Unknown")
	if _, err := c.Charts.Bar(id+"-chart", labels, values, "Certificate Count",
		chart.Options{Horizontal: true, Palette: []string{v.palette}}); err != nil {
		return err
	}
	labels, values = markup.Series(markup.TopWithOther(counts, issuerPieCount, "Others"), "Unknown")
	if _, err := c.Charts.Doughnut(id+"-pie-chart", labels, values, "Certificates", chart.Options{}); err != nil {
		return err
	}

	selected := c.Param("name")
	if err := c.Set(id+"-table", linkRows(id, "name", counts, selected)); err != nil {
		return err
	}
	if selected == "" {
		return nil
	}
	total := markup.Total(counts)
	for i, n := range counts {
		if n.ID.Or("Unknown") != selected {
			continue
		}
		h, err := execute("issuer-detail", struct {
			Name, Kind, Blurb, Share string
			Count, Rank, Of          int
		}{selected, v.kind, v.blurb, markup.FormatFloat(markup.Percent(n.Count, total), 0), n.Count, i + 1, len(counts)})
		if err != nil {
			return err
		}
		return c.Set(id+"-details", h)
	}
	return c.Set(id+"-details", markup.WarningPanel(selected+" not found"))
}

type regionsView struct{ page }

var RegionsDepartments = regionsView{page{
	meta:     dashboard.Meta{ID: "regions-departments", Title: "Regions & Departments", Icon: "bi-map", Group: "Issuers"},
	canvases: []string{"regions-chart", "departments-chart", "issuers-chart"},
}}

func (v regionsView) LoadData(ctx context.Context, c *dashboard.Context) error {
	// sections fail independently; each is painted as its fetch returns
	var errs []error
	regions, err := c.API.Regions(ctx, "regions-chart")
	if err = sectionErr(c, "regions-chart", "Failed to load region data.", err); err == nil {
		labels, values := markup.Series(regions, "Unknown")
		if _, err := c.Charts.Doughnut("regions-chart", labels, values, "Certificates", chart.Options{}); err != nil {
			return err
		}
		err = c.Set("regions-table", markup.CountRows(regions, "Unknown", "No regions found"))
	}
	if dashboard.IsStale(err) {
		return err
	}
	errs = append(errs, err)

	departments, err := c.API.Departments(ctx, "departments-chart")
	if err = sectionErr(c, "departments-chart", "Failed to load department data.", err); err == nil {
		labels, values := markup.Series(departments, "Unknown")
		if _, err := c.Charts.Bar("departments-chart", labels, values, "Certificates", chart.Options{}); err != nil {
			return err
		}
		err = c.Set("departments-table", markup.CountRows(departments, "Unknown", "No departments found"))
	}
	if dashboard.IsStale(err) {
		return err
	}
	errs = append(errs, err)

	issuers, err := c.API.Issuers(ctx, "issuers-chart")
	if err = sectionErr(c, "issuers-chart", "Failed to load issuer data.", err); err == nil {
		labels, values := markup.Series(markup.Top(issuers, issuerTopCount), "Unknown")
		_, err = c.Charts.Bar("issuers-chart", labels, values, "Certificates", chart.Options{Horizontal: true})
	}
	if dashboard.IsStale(err) {
		return err
	}
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return failed(c, "Failed to load regions and departments data.", err)
	}
	return nil
}

func sectionErr(c *dashboard.Context, container, msg string, err error) error {
	if err == nil {
		return nil
	}
	return c.Fail(container, msg, err)
}

type sharedPubkeysView struct{ page }

var SharedPubkeys = sharedPubkeysView{page{
	meta: dashboard.Meta{ID: "shared-pubkeys", Title: "Shared Public Keys Analysis", Icon: "bi-share", Group: "Keys"},
}}

const sharedIssuersShown = 2

func (v sharedPubkeysView) LoadData(ctx context.Context, c *dashboard.Context) error {
	keys, err := c.API.SharedPubkeys(ctx, "shared-pubkeys-container")
	if err != nil {
		return c.Fail("shared-pubkeys-container", "Failed to load shared public keys data. "+err.Error(), err)
	}
	if len(keys) == 0 {
		return c.Set("shared-pubkeys-container", markup.InfoPanel("No certificates found sharing the same public key."))
	}

	selected := c.Param("key")
	t := markup.Table{Cols: 5}
	for _, k := range keys {
		t.Rows = append(t.Rows, markup.Row{
			template.HTML("<code>" + string(markup.Text(markup.Abbrev(k.Fingerprint.Or("N/A"), 16))) + "</code>"),
			markup.Text(markup.FormatNumber(k.Count)),
			markup.Text(issuerSummary(k.Issuers)),
			markup.Text(markup.FormatNumber(len(k.Domains))),
			markup.ViewLink(v.meta.ID, url.Values{"key": {string(k.Fingerprint)}}, "View Certificates"),
		})
	}
	if err := c.Set("shared-pubkeys-table", markup.Rows(t)); err != nil {
		return err
	}
	if selected == "" {
		return nil
	}
	for _, k := range keys {
		if string(k.Fingerprint) == selected {
			return c.Set("shared-key-details", markup.PubkeyDetails(k))
		}
	}
	return c.Set("shared-key-details", markup.WarningPanel("Public key not found"))
}

// issuerSummary lists the first issuers, marking that more exist.
func issuerSummary(issuers []analytics.Key) string {
	if len(issuers) == 0 {
		return "Unknown"
	}
	names := make([]string, 0, sharedIssuersShown)
	for _, i := range markup.Top(issuers, sharedIssuersShown) {
		names = append(names, i.Or("Unknown"))
	}
	s := strings.Join(names, ", ")
	if len(issuers) > sharedIssuersShown {
		s += "..."
	}
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

var (
	_ dashboard.DataLoader = subjectNamesView{}
	_ dashboard.DataLoader = caDomainView{}
	_ dashboard.DataLoader = caURLView{}
	_ dashboard.DataLoader = caPubkeyView{}
	_ dashboard.DataLoader = issuerView{}
	_ dashboard.DataLoader = regionsView{}
	_ dashboard.DataLoader = sharedPubkeysView{}
)
