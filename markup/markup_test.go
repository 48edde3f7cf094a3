package markup

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certdash/analytics"
)

var now = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) analytics.Date {
	return analytics.Date{Time: time.Date(y, m, d, 12, 0, 0, 0, time.UTC)}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatNumber(1234567))
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "999", FormatNumber(999))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "N/A", FormatDate(analytics.Date{}, LayoutShort))
	assert.Equal(t, "Mar 15, 2025", FormatDate(date(2025, 3, 15), LayoutShort))
	assert.Equal(t, "March 2025", FormatDate(date(2025, 3, 15), LayoutMonth))
}

func TestDaysRemaining(t *testing.T) {
	assert.Equal(t, 0, DaysRemaining(analytics.Date{}, now))
	assert.Equal(t, 10, DaysRemaining(date(2025, 3, 25), now))
	assert.Less(t, DaysRemaining(date(2025, 3, 1), now), 0)

	// a partial day counts as a full one
	half := analytics.Date{Time: now.Add(12 * time.Hour)}
	assert.Equal(t, 1, DaysRemaining(half, now))

	// under a day past rounds up to 0, which still reads as expired
	lapsed := analytics.Date{Time: now.Add(-12 * time.Hour)}
	assert.Equal(t, 0, DaysRemaining(lapsed, now))
	assert.Equal(t, "Expired", ExpiryText(DaysRemaining(lapsed, now)))
	assert.Equal(t, -1, DaysRemaining(analytics.Date{Time: now.Add(-36 * time.Hour)}, now))
}

func TestExpiryBadgeClass(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{-3, "bg-danger"},
		{7, "bg-danger"},
		{8, "bg-warning"},
		{30, "bg-warning"},
		{31, "bg-info"},
		{90, "bg-info"},
		{91, "bg-success"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpiryBadgeClass(tt.days, DefaultThresholds), "days=%d", tt.days)
	}
}

func TestExpiryText(t *testing.T) {
	assert.Equal(t, "Expired", ExpiryText(0))
	assert.Equal(t, "Expired", ExpiryText(-5))
	assert.Equal(t, "1 day", ExpiryText(1))
	assert.Equal(t, "12 days", ExpiryText(12))
}

func TestStatusAndRisk(t *testing.T) {
	assert.Equal(t, "badge-active", StatusBadgeClass("Active"))
	assert.Equal(t, "badge-expired", StatusBadgeClass("Expired"))
	assert.Equal(t, "bg-secondary", StatusBadgeClass("Revoked"))

	assert.Equal(t, "risk-high", RiskClass(7))
	assert.Equal(t, "risk-medium", RiskClass(6.9))
	assert.Equal(t, "risk-medium", RiskClass(4))
	assert.Equal(t, "risk-low", RiskClass(3.99))
	assert.Equal(t, "High", RiskLevel(9.5))
	assert.Equal(t, "Low", RiskLevel(0))
}

func TestTruncateAndAbbrev(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Len(t, []rune(Truncate(strings.Repeat("é", 40), 30)), 30)

	assert.Equal(t, "0123456789abcdef...", Abbrev("0123456789abcdef0123", 16))
	assert.Equal(t, "0123", Abbrev("0123", 16))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(5, 0))
	assert.InDelta(t, 25.0, Percent(1, 4), 1e-9)
}

func TestRecentCertificates(t *testing.T) {
	certs := []analytics.Certificate{
		{Name: "old", IssueDate: date(2020, 1, 1)},
		{Name: "undated"},
		{Name: "newest", IssueDate: date(2024, 6, 1)},
		{Name: "tie-a", IssueDate: date(2023, 1, 1)},
		{Name: "tie-b", IssueDate: date(2023, 1, 1)},
		{Name: "mid", IssueDate: date(2022, 1, 1)},
		{Name: "older", IssueDate: date(2019, 1, 1)},
	}
	got := RecentCertificates(certs, 5)
	require.Len(t, got, 5)

	names := make([]string, len(got))
	for i, c := range got {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"newest", "tie-a", "tie-b", "mid", "old"}, names)
	assert.Equal(t, "old", certs[0].Name, "input must not be reordered")

	all := RecentCertificates(certs, 100)
	assert.Equal(t, "undated", all[len(all)-1].Name)
}

func TestSeriesAndTopWithOther(t *testing.T) {
	counts := []analytics.Count{
		{ID: "DV", Count: 50},
		{ID: "", Count: 20},
		{ID: "EV", Count: 10},
		{ID: "OV", Count: 5},
	}
	labels, values := Series(counts, "Unknown")
	assert.Equal(t, []string{"DV", "Unknown", "EV", "OV"}, labels)
	assert.Equal(t, []float64{50, 20, 10, 5}, values)

	top := TopWithOther(counts, 2, "Other")
	require.Len(t, top, 3)
	assert.Equal(t, analytics.Key("Other"), top[2].ID)
	assert.Equal(t, 15, top[2].Count)
	assert.Equal(t, 85, Total(counts))

	assert.Len(t, TopWithOther(counts, 10, "Other"), 4)
}

func TestGroupByMonth(t *testing.T) {
	certs := []analytics.Certificate{
		{Name: "b", ExpiryDate: date(2025, 5, 3)},
		{Name: "a", ExpiryDate: date(2025, 4, 20)},
		{Name: "c", ExpiryDate: date(2025, 5, 28)},
		{Name: "none"},
	}
	buckets := GroupByMonth(certs, analytics.Certificate.ExpiresAt)
	require.Len(t, buckets, 2)
	assert.Equal(t, "2025-04", buckets[0].Key)
	assert.Equal(t, "Apr 2025", buckets[0].Label)
	assert.Len(t, buckets[1].Certs, 2)
}

func TestClassifiers(t *testing.T) {
	assert.Equal(t, "Legacy", SecurityLevel("sha1WithRSAEncryption"))
	assert.Equal(t, "Modern", SecurityLevel("ecdsa-with-SHA384"))
	assert.Equal(t, "Standard", SecurityLevel("something-new"))

	assert.Equal(t, "com", DomainCategory("www.example.com"))
	assert.Equal(t, "io", DomainCategory("api.service.IO"))
	assert.Equal(t, "Other", DomainCategory("example.de"))
	assert.Equal(t, "Unknown", DomainCategory("localhost"))
	assert.Equal(t, "Unknown", DomainCategory(""))

	tld, sub := DomainParts("a.b.example.org")
	assert.Equal(t, "org", tld)
	assert.Equal(t, "a.b", sub)
	tld, sub = DomainParts("example.org")
	assert.Equal(t, "org", tld)
	assert.Empty(t, sub)

	assert.Equal(t, "ECDSA", KeyType("id-ecPublicKey"))
	assert.Equal(t, "RSA", KeyType("rsaEncryption"))
	assert.Equal(t, "Ed25519", KeyType("ED25519"))
	assert.Equal(t, "DSA", KeyType("dsa"))
	assert.Equal(t, "Other", KeyType("x25519"))
}

func TestPaginate(t *testing.T) {
	p := Paginate(95, 1, 10)
	assert.Equal(t, 10, p.TotalPages)
	assert.Equal(t, 0, p.Start)
	assert.Equal(t, 10, p.End)
	assert.False(t, p.HasPrev)
	assert.True(t, p.HasNext)
	assert.Len(t, p.Links, 5)
	assert.Equal(t, 1, p.Links[0].Number)

	p = Paginate(95, 10, 10)
	assert.Equal(t, 90, p.Start)
	assert.Equal(t, 95, p.End)
	assert.Equal(t, 6, p.Links[0].Number)
	assert.Equal(t, 10, p.Links[4].Number)
	assert.True(t, p.Links[4].Active)

	p = Paginate(95, 5, 10)
	assert.Equal(t, 3, p.Links[0].Number)
	assert.Equal(t, 7, p.Links[4].Number)

	assert.Equal(t, 10, Paginate(95, 99, 10).Page)
	assert.Equal(t, 1, Paginate(95, -1, 10).Page)
	assert.True(t, Paginate(0, 1, 10).Hidden())
	assert.True(t, Paginate(8, 1, 10).Hidden())
	assert.Equal(t, 8, Paginate(8, 1, 0).End)
}

func TestRowsEmptyAndEscaping(t *testing.T) {
	out := string(Rows(Table{Cols: 4, Empty: "Nothing here"}))
	assert.Contains(t, out, `colspan="4"`)
	assert.Contains(t, out, "Nothing here")

	out = string(Rows(Table{Cols: 1, Rows: []Row{Cells("<script>")}}))
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestCountRowsFooter(t *testing.T) {
	out := string(CountRows([]analytics.Count{{ID: "US", Count: 3}, {ID: "", Count: 1}}, "Unknown", "No data"))
	assert.Contains(t, out, "Unknown")
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "Total")
	assert.Contains(t, out, "100%")
}

func TestRecentRows(t *testing.T) {
	assert.Contains(t, string(RecentRows(nil, now)), "No certificates found")

	out := string(RecentRows([]analytics.Certificate{{
		CertificateID: "c-1", Name: "api.example.com", Type: "DV", Issuer: "Let's Encrypt",
		ExpiryDate: date(2025, 1, 1),
	}}, now))
	assert.Contains(t, out, "api.example.com")
	assert.Contains(t, out, "badge-expired")
	assert.Contains(t, out, `data-cert-details="c-1"`)
	assert.Contains(t, out, "Jan 1, 2025")
}

func TestPaginationFragment(t *testing.T) {
	assert.Empty(t, string(Pagination(Paginate(5, 1, 10), "certificates", "active_page", nil, "Active")))

	out := string(Pagination(Paginate(30, 2, 10), "certificates", "active_page", url.Values{"expired_page": {"3"}}, "Active"))
	assert.Contains(t, out, "/view/certificates?active_page=1&amp;expired_page=3")
	assert.Contains(t, out, "/view/certificates?active_page=3&amp;expired_page=3")
	assert.Contains(t, out, "page-item active")
}

func TestPredictionsPanel(t *testing.T) {
	assert.Contains(t, string(PredictionsPanel(nil)), "No predictions available. Try again later.")

	var preds []analytics.Prediction
	preds = append(preds, analytics.Prediction{Name: "hot.example.com", RiskCategory: "High", RiskScore: 8.25})
	for i := 0; i < 7; i++ {
		preds = append(preds, analytics.Prediction{Name: "m", RiskCategory: "Medium", RiskScore: 5})
	}
	out := string(PredictionsPanel(preds))
	assert.Contains(t, out, "hot.example.com")
	assert.Contains(t, out, "High Risk Certificates")
	assert.Contains(t, out, "Showing 5 of 7 medium risk certificates")
	assert.Equal(t, 5, strings.Count(out, "Schedule Renewal"))
}

func TestAnomaliesPanel(t *testing.T) {
	assert.Contains(t, string(AnomaliesPanel(nil)), "No anomalies detected.")

	out := string(AnomaliesPanel([]analytics.Anomaly{{Name: "odd.example.com", AnomalyType: "Unusual validity", Confidence: 0.87}}))
	assert.Contains(t, out, "Found 1 potential anomalies")
	assert.Contains(t, out, "87%")
}

func TestCertificateDetails(t *testing.T) {
	out := string(CertificateDetails(analytics.Certificate{
		CertificateID: "c-9", Name: "shop.example.com", KeyStrength: 2048, AutoRenewal: true,
		ExpiryDate: date(2025, 3, 20),
	}, now, DefaultThresholds))
	assert.Contains(t, out, "shop.example.com")
	assert.Contains(t, out, "2048 bits")
	assert.Contains(t, out, "Enabled")
	assert.Contains(t, out, "5 days")
	assert.Contains(t, out, "bg-danger")
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "75.0", FormatFloat(75, 1))
	assert.Equal(t, "1,234.57", FormatFloat(1234.567, 2))
	assert.Equal(t, "-12.5", FormatFloat(-12.5, 1))
	assert.Equal(t, "0.0", FormatFloat(-0.01, 1))
	assert.Equal(t, "3", FormatFloat(2.6, 0))
}
