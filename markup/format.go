// Package markup turns analytics records into HTML fragments and display
// strings. Everything here is a pure function of its arguments.
package markup

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"certdash/analytics"
)

const (
	LayoutFull  = "January 2, 2006 15:04"
	LayoutShort = "Jan 2, 2006"
	LayoutMonth = "January 2006"
	LayoutKey   = "2006-01"
)

// FormatNumber renders n with thousands separators.
func FormatNumber(n int) string {
	return humanize.Comma(int64(n))
}

// FormatFloat renders f with thousands separators and exactly the given decimals.
func FormatFloat(f float64, decimals int) string {
	s := strconv.FormatFloat(math.Abs(f), 'f', decimals, 64)
	whole, frac, _ := strings.Cut(s, ".")
	n, _ := strconv.ParseInt(whole, 10, 64)
	out := humanize.Comma(n)
	if frac != "" {
		out += "." + frac
	}
	if f < 0 && strings.Trim(s, "0.") != "" {
		out = "-" + out
	}
	return out
}

// FormatDate returns N/A for the zero date.
func FormatDate(d analytics.Date, layout string) string {
	if d.IsZero() {
		return "N/A"
	}
	return d.Format(layout)
}

// DaysRemaining is the ceiling of the day difference between d and now;
// negative once d has passed and 0 for the zero date.
func DaysRemaining(d analytics.Date, now time.Time) int {
	if d.IsZero() {
		return 0
	}
	days := d.Sub(now).Hours() / 24
	return int(math.Ceil(days))
}

// Thresholds are the expiry badge boundaries in days.
type Thresholds struct {
	Critical int
	Warning  int
	Notice   int
}

var DefaultThresholds = Thresholds{Critical: 7, Warning: 30, Notice: 90}

func StatusBadgeClass(status string) string {
	switch status {
	case analytics.StatusActive:
		return "badge-active"
	case analytics.StatusExpired:
		return "badge-expired"
	default:
		return "bg-secondary"
	}
}

func ExpiryBadgeClass(days int, t Thresholds) string {
	switch {
	case days <= t.Critical:
		return "bg-danger"
	case days <= t.Warning:
		return "bg-warning"
	case days <= t.Notice:
		return "bg-info"
	default:
		return "bg-success"
	}
}

func ExpiryText(days int) string {
	switch {
	case days <= 0:
		return "Expired"
	case days == 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", days)
	}
}

func RiskClass(score float64) string {
	switch {
	case score >= 7:
		return "risk-high"
	case score >= 4:
		return "risk-medium"
	default:
		return "risk-low"
	}
}

func RiskLevel(score float64) string {
	switch {
	case score >= 7:
		return "High"
	case score >= 4:
		return "Medium"
	default:
		return "Low"
	}
}

// Truncate shortens s to n runes, ending in "..." when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// Percent is part/total*100, or 0 for an empty total.
func Percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// Ago renders a relative time such as "3 weeks ago".
func Ago(d analytics.Date, now time.Time) string {
	if d.IsZero() {
		return "N/A"
	}
	return humanize.RelTime(d.Time, now, "ago", "from now")
}
