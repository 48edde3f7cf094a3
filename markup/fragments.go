package markup

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"time"

	"certdash/analytics"
)

//go:embed templates/*.html
var templateFS embed.FS

var fragments = template.Must(template.New("").Funcs(template.FuncMap{
	"riskClass":  RiskClass,
	"f1":         func(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) },
	"join":       strings.Join,
	"confidence": func(c float64) string { return fmt.Sprintf("%.0f%%", c*100) },
}).ParseFS(templateFS, "templates/*.html"))

func render(name string, data any) template.HTML {
	var buf bytes.Buffer
	if err := fragments.ExecuteTemplate(&buf, name, data); err != nil {
		// templates are fixed at build time; a failure here is a programming error
		panic(fmt.Sprintf("markup: render %s: %v", name, err))
	}
	return template.HTML(buf.String())
}

// Text escapes s for use as element content.
func Text(s string) template.HTML {
	return template.HTML(template.HTMLEscapeString(s))
}

type alert struct {
	Kind    string
	Icon    string
	Message string
}

// ErrorPanel is the inline alert used when a section or view fails.
func ErrorPanel(msg string) template.HTML {
	return render("alert", alert{Kind: "danger", Icon: "bi-exclamation-triangle-fill", Message: msg})
}

func InfoPanel(msg string) template.HTML {
	return render("alert", alert{Kind: "info", Message: msg})
}

func SuccessPanel(msg string) template.HTML {
	return render("alert", alert{Kind: "success", Message: msg})
}

func WarningPanel(msg string) template.HTML {
	return render("alert", alert{Kind: "warning", Message: msg})
}

// Spinner is the section placeholder shown while data is in flight.
func Spinner(tone, text, caption string) template.HTML {
	if tone == "" {
		tone = "primary"
	}
	if text == "" {
		text = "Loading..."
	}
	return render("spinner", struct{ Tone, Text, Caption string }{tone, text, caption})
}

func badge(class, text string) template.HTML {
	return render("badge", struct{ Class, Text string }{class, text})
}

func StatusBadge(status string) template.HTML {
	return badge(StatusBadgeClass(status), status)
}

func ExpiryBadge(days int, t Thresholds) template.HTML {
	return badge(ExpiryBadgeClass(days, t), ExpiryText(days))
}

func RiskIndicator(score float64) template.HTML {
	return render("risk", score)
}

func DetailsButton(certID string) template.HTML {
	return render("details-button", certID)
}

// Row is one table row of already escaped cells.
type Row []template.HTML

// Table describes rows for a <tbody>; Empty is shown across Cols when there are none.
type Table struct {
	Rows   []Row
	Footer Row
	Cols   int
	Empty  string
}

func Rows(t Table) template.HTML {
	if t.Cols == 0 {
		t.Cols = 1
	}
	return render("rows", t)
}

// Cells escapes plain strings into a Row.
func Cells(values ...string) Row {
	r := make(Row, len(values))
	for i, v := range values {
		r[i] = Text(v)
	}
	return r
}

// ViewLink is a navigation link to another view.
func ViewLink(viewID string, params url.Values, text string) template.HTML {
	return render("link", struct{ Href, Text string }{ViewHref(viewID, params), text})
}

// ViewHref is the URL of a view with query parameters.
func ViewHref(viewID string, params url.Values) string {
	href := "/view/" + url.PathEscape(viewID)
	if len(params) > 0 {
		href += "?" + params.Encode()
	}
	return href
}

type pagerData struct {
	Pager  Pager
	Label  string
	view   string
	param  string
	params url.Values
}

func (p pagerData) Href(page int) string {
	q := url.Values{}
	for k, v := range p.params {
		q[k] = append([]string(nil), v...)
	}
	q.Set(p.param, strconv.Itoa(page))
	return ViewHref(p.view, q)
}

// Pagination renders page links that re-navigate to view with param set to
// the page number; other params are kept.
func Pagination(p Pager, viewID, param string, params url.Values, label string) template.HTML {
	return render("pagination", pagerData{Pager: p, Label: label, view: viewID, param: param, params: params})
}

// RecentRows renders the recent certificates table body.
func RecentRows(certs []analytics.Certificate, now time.Time) template.HTML {
	t := Table{Cols: 6, Empty: "No certificates found"}
	for _, c := range certs {
		t.Rows = append(t.Rows, Row{
			Text(c.DisplayName()),
			Text(c.TypeName()),
			Text(c.IssuerName()),
			StatusBadge(c.StatusAt(now)),
			Text(FormatDate(c.ExpiresAt(), LayoutShort)),
			DetailsButton(c.ID()),
		})
	}
	return Rows(t)
}

// CertificateRows renders one page of the active or expired tables.
func CertificateRows(certs []analytics.Certificate, empty string) template.HTML {
	t := Table{Cols: 7, Empty: empty}
	for _, c := range certs {
		t.Rows = append(t.Rows, Row{
			Text(c.DisplayName()),
			Text(c.TypeName()),
			Text(c.IssuerName()),
			Text(orNA(c.Department)),
			Text(FormatDate(c.IssuedAt(), LayoutShort)),
			Text(FormatDate(c.ExpiresAt(), LayoutShort)),
			DetailsButton(c.ID()),
		})
	}
	return Rows(t)
}

// ExpiringRows renders certificates with their expiry badge.
func ExpiringRows(certs []analytics.Certificate, now time.Time, th Thresholds) template.HTML {
	t := Table{Cols: 5, Empty: "No certificates expiring soon"}
	for _, c := range certs {
		days := DaysRemaining(c.ExpiresAt(), now)
		if c.DaysRemaining != nil && c.ExpiresAt().IsZero() {
			days = *c.DaysRemaining
		}
		t.Rows = append(t.Rows, Row{
			Text(c.DisplayName()),
			Text(c.IssuerName()),
			Text(FormatDate(c.ExpiresAt(), LayoutShort)),
			ExpiryBadge(days, th),
			DetailsButton(c.ID()),
		})
	}
	return Rows(t)
}

// CountRows renders label, count and share of total with a total footer.
func CountRows(counts []analytics.Count, fallback, empty string) template.HTML {
	total := Total(counts)
	t := Table{Cols: 3, Empty: empty}
	for _, c := range counts {
		t.Rows = append(t.Rows, Cells(
			c.ID.Or(fallback),
			FormatNumber(c.Count),
			FormatFloat(Percent(c.Count, total), 1)+"%",
		))
	}
	if len(counts) > 0 {
		t.Footer = Cells("Total", FormatNumber(total), "100%")
	}
	return Rows(t)
}

type predictions struct {
	All, High, Medium, MediumShown, Low []analytics.Prediction
	Empty                               alert
}

// PredictionsPanel renders the ML expiry-risk summary.
func PredictionsPanel(preds []analytics.Prediction) template.HTML {
	d := predictions{All: preds, Empty: alert{Kind: "info", Message: "No predictions available. Try again later."}}
	for _, p := range preds {
		switch p.RiskCategory {
		case "High":
			d.High = append(d.High, p)
		case "Medium":
			d.Medium = append(d.Medium, p)
		case "Low":
			d.Low = append(d.Low, p)
		}
	}
	d.MediumShown = Top(d.Medium, 5)
	return render("predictions", d)
}

// AnomaliesPanel renders the anomaly detection results.
func AnomaliesPanel(anoms []analytics.Anomaly) template.HTML {
	return render("anomalies", struct {
		Anomalies []analytics.Anomaly
		Empty     alert
	}{anoms, alert{Kind: "success", Message: "No anomalies detected. Your certificate infrastructure appears to be in good health."}})
}

// CertificateDetails renders the details modal body for one certificate.
func CertificateDetails(c analytics.Certificate, now time.Time, th Thresholds) template.HTML {
	days := DaysRemaining(c.ExpiresAt(), now)
	return render("certificate", struct {
		Cert            analytics.Certificate
		Status, Expiry  template.HTML
		Issued, Expires string
	}{
		Cert:    c,
		Status:  StatusBadge(c.StatusAt(now)),
		Expiry:  ExpiryBadge(days, th),
		Issued:  FormatDate(c.IssuedAt(), LayoutFull),
		Expires: FormatDate(c.ExpiresAt(), LayoutFull),
	})
}

type sharedCert struct {
	Serial, Issuer, Subject, From, To string
}

// PubkeyDetails renders the certificates sharing one public key.
func PubkeyDetails(k analytics.SharedPubkey) template.HTML {
	certs := make([]sharedCert, len(k.Certificates))
	for i, c := range k.Certificates {
		certs[i] = sharedCert{
			Serial:  c.SerialNumber.Or("N/A"),
			Issuer:  c.Issuer.Or("N/A"),
			Subject: c.Subject.Or("N/A"),
			From:    FormatDate(c.ValidityStart, LayoutShort),
			To:      FormatDate(c.ValidityEnd, LayoutShort),
		}
	}
	return render("pubkey", struct {
		Key                analytics.SharedPubkey
		Fingerprint, Short string
		Certs              []sharedCert
	}{k, string(k.Fingerprint), Abbrev(k.Fingerprint.Or("N/A"), 16), certs})
}

// Stat renders a stat card value.
func Stat(s string) template.HTML {
	return render("stat", s)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
