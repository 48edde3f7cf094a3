package analytics

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Key is a grouping key as emitted by the API's aggregations. The wire value
// may be a string, a number, a boolean, null or an array of those.
type Key string

func (k *Key) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*k = ""
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*k = Key(data)
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*k = Key(s)
	case len(data) > 0 && data[0] == '[':
		var parts []Key
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		ss := make([]string, 0, len(parts))
		for _, p := range parts {
			if p != "" {
				ss = append(ss, string(p))
			}
		}
		*k = Key(strings.Join(ss, ", "))
	case len(data) > 0 && data[0] == '{':
		// compound group ids are not displayed
		*k = ""
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*k = Key(n.String())
	}
	return nil
}

func (k Key) String() string { return string(k) }

// Or returns k, or fallback when k is empty.
func (k Key) Or(fallback string) string {
	if k == "" {
		return fallback
	}
	return string(k)
}

// Keys decodes either a single value or an array of values.
type Keys []Key

func (ks *Keys) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []Key
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*ks = list
		return nil
	}
	var k Key
	if err := json.Unmarshal(data, &k); err != nil {
		return err
	}
	if k == "" {
		*ks = nil
	} else {
		*ks = Keys{k}
	}
	return nil
}

// First returns the first non-empty key.
func (ks Keys) First() string {
	for _, k := range ks {
		if k != "" {
			return string(k)
		}
	}
	return ""
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Date is a timestamp that accepts the ISO variants the API emits. A null or
// empty value decodes to the zero Date.
type Date struct {
	time.Time
}

func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Date{Time: t}, nil
		}
		lastErr = err
	}
	return Date{}, lastErr
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	// malformed dates decode as zero, the API does not validate them
	parsed, err := ParseDate(s)
	if err != nil {
		parsed = Date{}
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.Format(time.RFC3339))
}

// Count is the {_id, count} pair most aggregations return.
type Count struct {
	ID    Key `json:"_id"`
	Count int `json:"count"`
}

// RangeCount is a bucketed histogram entry.
type RangeCount struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

type Validity struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

type Name struct {
	CommonName   Keys `json:"common_name"`
	Organization Keys `json:"organization"`
	Country      Keys `json:"country"`
}

type Parsed struct {
	SerialNumber       Key      `json:"serial_number"`
	Validity           Validity `json:"validity"`
	Issuer             Name     `json:"issuer"`
	Subject            Name     `json:"subject"`
	SignatureAlgorithm struct {
		Name Key `json:"name"`
	} `json:"signature_algorithm"`
}

// Certificate is one certificate record. Older datasets carry the flat
// fields; newer ones only the parsed block, so accessors fall back to it.
type Certificate struct {
	CertificateID Key    `json:"certificate_id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Issuer        string `json:"issuer"`
	Status        string `json:"status"`
	Department    string `json:"department"`
	Region        string `json:"region"`
	IssueDate     Date   `json:"issue_date"`
	ExpiryDate    Date   `json:"expiry_date"`
	Algorithm     string `json:"algorithm"`
	KeyStrength   int    `json:"key_strength"`
	AutoRenewal   bool   `json:"auto_renewal"`
	DaysRemaining *int   `json:"days_remaining,omitempty"`
	Parsed        Parsed `json:"parsed"`
}

func (c Certificate) ID() string {
	if c.CertificateID != "" {
		return string(c.CertificateID)
	}
	return string(c.Parsed.SerialNumber)
}

func (c Certificate) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Parsed.Subject.CommonName.First()
}

func (c Certificate) IssuerName() string {
	if c.Issuer != "" {
		return c.Issuer
	}
	if org := c.Parsed.Issuer.Organization.First(); org != "" {
		return org
	}
	return c.Parsed.Issuer.CommonName.First()
}

func (c Certificate) TypeName() string {
	if c.Type != "" {
		return c.Type
	}
	return string(c.Parsed.SignatureAlgorithm.Name)
}

func (c Certificate) AlgorithmName() string {
	if name := string(c.Parsed.SignatureAlgorithm.Name); name != "" {
		return name
	}
	return c.Algorithm
}

func (c Certificate) IssuedAt() Date {
	if !c.IssueDate.IsZero() {
		return c.IssueDate
	}
	return c.Parsed.Validity.Start
}

func (c Certificate) ExpiresAt() Date {
	if !c.ExpiryDate.IsZero() {
		return c.ExpiryDate
	}
	return c.Parsed.Validity.End
}

// StatusAt returns the recorded status, or derives Active/Expired from the expiry date.
func (c Certificate) StatusAt(now time.Time) string {
	if c.Status != "" {
		return c.Status
	}
	exp := c.ExpiresAt()
	if exp.IsZero() {
		return ""
	}
	if exp.After(now) {
		return StatusActive
	}
	return StatusExpired
}

const (
	StatusActive  = "Active"
	StatusExpired = "Expired"
)

type DepartmentStatus struct {
	Department string `json:"department"`
	Status     string `json:"status"`
	Count      int    `json:"count"`
}

type Overview struct {
	Total              int                `json:"total"`
	Active             int                `json:"active"`
	Expired            int                `json:"expired"`
	ExpiringSoon       int                `json:"expiring_soon"`
	Types              []Count            `json:"types"`
	Issuers            []Count            `json:"issuers"`
	StatusDistribution []Count            `json:"status_distribution"`
	DepartmentStatus   []DepartmentStatus `json:"department_status"`
}

type TimelinePoint struct {
	Date  Date `json:"date"`
	Count int  `json:"count"`
}

type Prediction struct {
	CertificateID   Key      `json:"certificate_id"`
	Name            string   `json:"name"`
	ExpiryDate      Date     `json:"expiry_date"`
	DaysRemaining   int      `json:"days_remaining"`
	RiskScore       float64  `json:"risk_score"`
	RiskCategory    string   `json:"risk_category"`
	Recommendations []string `json:"recommendations"`
}

type Anomaly struct {
	CertificateID  Key     `json:"certificate_id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Department     string  `json:"department"`
	AnomalyType    string  `json:"anomaly_type"`
	Confidence     float64 `json:"confidence"`
	Recommendation string  `json:"recommendation"`
}

type ValidityTrend struct {
	Year        Key     `json:"_id"`
	AvgValidity float64 `json:"avg_validity"`
	Count       int     `json:"count"`
}

type AlgorithmCount struct {
	Algorithm string `json:"algorithm"`
	Count     int    `json:"count"`
}

type AlgorithmTrend struct {
	Year       int              `json:"year"`
	Algorithms []AlgorithmCount `json:"algorithms"`
}

type DomainCount struct {
	Domain Key `json:"domain"`
	Count  int `json:"count"`
}

type CADomains struct {
	CA      Key           `json:"_id"`
	Domains []DomainCount `json:"domains"`
	Total   int           `json:"total"`
}

type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// CAURLs covers both the aggregated shape ({ca, url_count, cert_count}) and
// the older grouped one ({_id, total, url_types}).
type CAURLs struct {
	CA             string      `json:"ca"`
	ID             Key         `json:"_id"`
	URLCount       int         `json:"url_count"`
	CertCount      int         `json:"cert_count"`
	AvgURLsPerCert float64     `json:"avg_urls_per_cert"`
	Total          int         `json:"total"`
	URLTypes       []TypeCount `json:"url_types"`
}

func (u CAURLs) Name() string {
	if u.CA != "" {
		return u.CA
	}
	return u.ID.Or("Unknown")
}

func (u CAURLs) URLs() int {
	if u.URLCount != 0 {
		return u.URLCount
	}
	return u.Total
}

type DuplicatedKey struct {
	Fingerprint   Key   `json:"pubkey_fingerprint"`
	Count         int   `json:"count"`
	SampleDomains []Key `json:"sample_domains"`
}

type CAPubkeys struct {
	CA                Key             `json:"_id"`
	DuplicatedKeys    []DuplicatedKey `json:"duplicated_keys"`
	TotalDuplications int             `json:"total_duplications"`
	ReuseRatio        float64         `json:"reuse_ratio"`
	KeyTypes          []TypeCount     `json:"key_types"`
}

type SharedCertificate struct {
	SerialNumber  Key  `json:"serial_number"`
	Issuer        Key  `json:"issuer"`
	Subject       Key  `json:"subject"`
	ValidityStart Date `json:"validity_start"`
	ValidityEnd   Date `json:"validity_end"`
}

type SharedPubkey struct {
	Fingerprint  Key                 `json:"_id"`
	Count        int                 `json:"count"`
	Issuers      []Key               `json:"issuers"`
	Domains      []Key               `json:"domains"`
	Certificates []SharedCertificate `json:"certificates"`
}

// Int parses a numeric key such as a year.
func (k Key) Int() (int, bool) {
	n, err := strconv.Atoi(string(k))
	if err != nil {
		return 0, false
	}
	return n, true
}
