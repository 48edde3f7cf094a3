package markup

import (
	"sort"
	"strings"

	"certdash/analytics"
)

// Abbrev keeps the first n runes of s and appends "..." when s is longer.
func Abbrev(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// RecentCertificates returns the n most recently issued certificates,
// newest first. Ties keep their input order; undated records sort last.
func RecentCertificates(certs []analytics.Certificate, n int) []analytics.Certificate {
	sorted := make([]analytics.Certificate, len(certs))
	copy(sorted, certs)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].IssuedAt(), sorted[j].IssuedAt()
		if a.IsZero() != b.IsZero() {
			return b.IsZero()
		}
		return a.After(b.Time)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Series splits counts into chart labels and values, naming empty keys fallback.
func Series(counts []analytics.Count, fallback string) ([]string, []float64) {
	labels := make([]string, len(counts))
	values := make([]float64, len(counts))
	for i, c := range counts {
		labels[i] = c.ID.Or(fallback)
		values[i] = float64(c.Count)
	}
	return labels, values
}

// TopWithOther keeps the n largest counts (input order is assumed sorted
// descending) and folds the rest into a single entry named other.
func TopWithOther(counts []analytics.Count, n int, other string) []analytics.Count {
	if len(counts) <= n {
		return counts
	}
	out := make([]analytics.Count, n, n+1)
	copy(out, counts[:n])
	rest := 0
	for _, c := range counts[n:] {
		rest += c.Count
	}
	if rest > 0 {
		out = append(out, analytics.Count{ID: analytics.Key(other), Count: rest})
	}
	return out
}

// Top returns at most n entries.
func Top[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

// Total sums the counts.
func Total(counts []analytics.Count) int {
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	return total
}

// MonthBucket is one YYYY-MM group.
type MonthBucket struct {
	Key   string
	Label string
	Certs []analytics.Certificate
}

// GroupByMonth buckets certificates by the month of the given date, sorted
// chronologically. Certificates without that date are skipped.
func GroupByMonth(certs []analytics.Certificate, date func(analytics.Certificate) analytics.Date) []MonthBucket {
	idx := make(map[string]int)
	var buckets []MonthBucket
	for _, c := range certs {
		d := date(c)
		if d.IsZero() {
			continue
		}
		key := d.Format(LayoutKey)
		i, ok := idx[key]
		if !ok {
			i = len(buckets)
			idx[key] = i
			buckets = append(buckets, MonthBucket{Key: key, Label: d.Format("Jan 2006")})
		}
		buckets[i].Certs = append(buckets[i].Certs, c)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })
	return buckets
}

var SecurityLevels = []string{"Legacy", "Standard", "Enhanced", "Modern", "Future-Proof"}

// SecurityLevel classifies a signature algorithm name.
func SecurityLevel(algorithm string) string {
	switch algorithm {
	case "sha1WithRSAEncryption":
		return "Legacy"
	case "sha256WithRSAEncryption":
		return "Standard"
	case "sha384WithRSAEncryption", "sha512WithRSAEncryption":
		return "Enhanced"
	case "ecdsa-with-SHA256", "ecdsa-with-SHA384":
		return "Modern"
	case "ed25519", "ed448":
		return "Future-Proof"
	}
	return "Standard"
}

// DomainCategories is the display order of the TLD doughnut.
var DomainCategories = []string{"com", "org", "net", "edu", "gov", "io", "co", "me", "app", "Other", "Unknown"}

// DomainCategory buckets a common name by its top-level domain.
func DomainCategory(name string) string {
	name = strings.TrimSpace(strings.TrimSuffix(name, "."))
	if name == "" || !strings.Contains(name, ".") {
		return "Unknown"
	}
	tld := strings.ToLower(name[strings.LastIndex(name, ".")+1:])
	for _, c := range DomainCategories[:9] {
		if c == tld {
			return c
		}
	}
	return "Other"
}

// DomainParts splits a host name into its TLD and subdomain labels.
func DomainParts(name string) (tld, subdomain string) {
	labels := strings.Split(strings.TrimSuffix(name, "."), ".")
	if len(labels) < 2 {
		return "", ""
	}
	tld = labels[len(labels)-1]
	if len(labels) > 2 {
		subdomain = strings.Join(labels[:len(labels)-2], ".")
	}
	return tld, subdomain
}

// KeyType buckets a public key description into RSA, ECDSA, DSA, Ed25519 or Other.
func KeyType(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "ed25519"):
		return "Ed25519"
	case strings.Contains(n, "ecdsa"), strings.Contains(n, "ecpublickey"), n == "ec":
		return "ECDSA"
	case strings.Contains(n, "rsa"):
		return "RSA"
	case strings.Contains(n, "dsa"):
		return "DSA"
	}
	return "Other"
}
