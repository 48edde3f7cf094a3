package analytics

import "context"

const (
	EndpointOverview               = "/api/overview"
	EndpointCertificates           = "/api/certificates"
	EndpointActiveCertificates     = "/api/certificates/active"
	EndpointExpiredCertificates    = "/api/certificates/expired"
	EndpointTypes                  = "/api/types"
	EndpointTimeline               = "/api/timeline"
	EndpointIssuers                = "/api/issuers"
	EndpointExpiring               = "/api/expiring"
	EndpointRegions                = "/api/regions"
	EndpointDepartments            = "/api/departments"
	EndpointPredictions            = "/api/ml/predict-expiry"
	EndpointAnomalies              = "/api/ml/anomalies"
	EndpointValidityDistribution   = "/api/validity-distribution"
	EndpointHashAlgorithms         = "/api/hash-algorithms"
	EndpointSignatureAlgorithms    = "/api/signature-algorithms"
	EndpointCertificateAuthorities = "/api/certificate-authorities"
	EndpointIntermediateCAs        = "/api/intermediate-cas"
	EndpointSANDistribution        = "/api/san-distribution"
	EndpointSANDomains             = "/api/san-domains"
	EndpointValidityTrends         = "/api/validity-trends"
	EndpointAlgorithmTrends        = "/api/algorithm-trends"
	EndpointIssuerOrganization     = "/api/issuer-organization"
	EndpointIssuerCountry          = "/api/issuer-country"
	EndpointSubjectCommonNames     = "/api/subject-common-names"
	EndpointCADomainAnalysis       = "/api/ca-domain-analysis"
	EndpointCAURLAnalysis          = "/api/ca-url-analysis"
	EndpointCAPubkeyAnalysis       = "/api/ca-pubkey-analysis"
	EndpointSharedPubkeys          = "/api/shared-pubkeys"
)

// Every typed method takes an optional container id naming the section
// whose loader should be toggled; "" shows none.

func (c *Client) Overview(ctx context.Context, container string) (*Overview, error) {
	var out Overview
	if err := c.Get(ctx, EndpointOverview, container, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Certificates(ctx context.Context, container string) ([]Certificate, error) {
	return c.certificates(ctx, EndpointCertificates, container)
}

func (c *Client) ActiveCertificates(ctx context.Context, container string) ([]Certificate, error) {
	return c.certificates(ctx, EndpointActiveCertificates, container)
}

func (c *Client) ExpiredCertificates(ctx context.Context, container string) ([]Certificate, error) {
	return c.certificates(ctx, EndpointExpiredCertificates, container)
}

func (c *Client) certificates(ctx context.Context, endpoint, container string) ([]Certificate, error) {
	var out []Certificate
	if err := c.Get(ctx, endpoint, container, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Types(ctx context.Context, container string) ([]Count, error) {
	var out struct {
		Types []Count `json:"types"`
	}
	err := c.Get(ctx, EndpointTypes, container, &out)
	return out.Types, err
}

func (c *Client) Timeline(ctx context.Context, container string) ([]TimelinePoint, error) {
	var out struct {
		Timeline []TimelinePoint `json:"timeline"`
	}
	err := c.Get(ctx, EndpointTimeline, container, &out)
	return out.Timeline, err
}

func (c *Client) Issuers(ctx context.Context, container string) ([]Count, error) {
	var out struct {
		Issuers []Count `json:"issuers"`
	}
	err := c.Get(ctx, EndpointIssuers, container, &out)
	return out.Issuers, err
}

func (c *Client) Expiring(ctx context.Context, container string) ([]Certificate, error) {
	var out struct {
		Expiring []Certificate `json:"expiring"`
	}
	err := c.Get(ctx, EndpointExpiring, container, &out)
	return out.Expiring, err
}

func (c *Client) Regions(ctx context.Context, container string) ([]Count, error) {
	var out struct {
		Regions []Count `json:"regions"`
	}
	err := c.Get(ctx, EndpointRegions, container, &out)
	return out.Regions, err
}

func (c *Client) Departments(ctx context.Context, container string) ([]Count, error) {
	var out struct {
		Departments []Count `json:"departments"`
	}
	err := c.Get(ctx, EndpointDepartments, container, &out)
	return out.Departments, err
}

func (c *Client) Predictions(ctx context.Context, container string) ([]Prediction, error) {
	var out struct {
		Predictions []Prediction `json:"predictions"`
	}
	err := c.Get(ctx, EndpointPredictions, container, &out)
	return out.Predictions, err
}

func (c *Client) Anomalies(ctx context.Context, container string) ([]Anomaly, error) {
	var out struct {
		Anomalies []Anomaly `json:"anomalies"`
	}
	err := c.Get(ctx, EndpointAnomalies, container, &out)
	return out.Anomalies, err
}

func (c *Client) ValidityDistribution(ctx context.Context, container string) ([]RangeCount, error) {
	var out struct {
		ValidityPeriods []RangeCount `json:"validity_periods"`
	}
	err := c.Get(ctx, EndpointValidityDistribution, container, &out)
	return out.ValidityPeriods, err
}

func (c *Client) HashAlgorithms(ctx context.Context, container string) ([]Count, error) {
	var out struct {
		HashAlgorithms []Count `json:"hash_algorithms"`
	}
	err := c.Get(ctx, EndpointHashAlgorithms, container, &out)
	return out.HashAlgorithms, err
}

func (c *Client) SignatureAlgorithms(ctx context.Context, container string) ([]Count, error) {
	var out struct {
		SignatureAlgorithms []Count `json:"signature_algorithms"`
	}
	err := c.Get(ctx, EndpointSignatureAlgorithms, container, &out)
	return out.SignatureAlgorithms, err
}

func (c *Client) CertificateAuthorities(ctx context.Context, container string) ([]Count, error) {
	var out struct {
		CertificateAuthorities []Count `json:"certificate_authorities"`
	}
	err := c.Get(ctx, EndpointCertificateAuthorities, container, &out)
	return out.CertificateAuthorities, err
}

func (c *Client) IntermediateCAs(ctx context.Context, container string) ([]Count, error) {
	var out struct {
		IntermediateCAs []Count `json:"intermediate_cas"`
	}
	err := c.Get(ctx, EndpointIntermediateCAs, container, &out)
	return out.IntermediateCAs, err
}

func (c *Client) SANDistribution(ctx context.Context, container string) ([]RangeCount, error) {
	var out struct {
		SANDistribution []RangeCount `json:"san_distribution"`
	}
	err := c.Get(ctx, EndpointSANDistribution, container, &out)
	return out.SANDistribution, err
}

func (c *Client) SANDomains(ctx context.Context, container string) ([]Count, error) {
	var out struct {
		SANDomains []Count `json:"san_domains"`
	}
	err := c.Get(ctx, EndpointSANDomains, container, &out)
	return out.SANDomains, err
}

func (c *Client) ValidityTrends(ctx context.Context, container string) ([]ValidityTrend, error) {
	var out struct {
		ValidityTrends []ValidityTrend `json:"validity_trends"`
	}
	err := c.Get(ctx, EndpointValidityTrends, container, &out)
	return out.ValidityTrends, err
}

func (c *Client) AlgorithmTrends(ctx context.Context, container string) ([]AlgorithmTrend, error) {
	var out struct {
		AlgorithmTrends []AlgorithmTrend `json:"algorithm_trends"`
	}
	err := c.Get(ctx, EndpointAlgorithmTrends, container, &out)
	return out.AlgorithmTrends, err
}

func (c *Client) IssuerOrganizations(ctx context.Context, container string) ([]Count, error) {
	var out struct {
		IssuerOrganizations []Count `json:"issuer_organizations"`
	}
	err := c.Get(ctx, EndpointIssuerOrganization, container, &out)
	return out.IssuerOrganizations, err
}

func (c *Client) IssuerCountries(ctx context.Context, container string) ([]Count, error) {
	var out struct {
		IssuerCountries []Count `json:"issuer_countries"`
	}
	err := c.Get(ctx, EndpointIssuerCountry, container, &out)
	return out.IssuerCountries, err
}

func (c *Client) SubjectCommonNames(ctx context.Context, container string) ([]Count, error) {
	var out struct {
		SubjectCommonNames []Count `json:"subject_common_names"`
	}
	err := c.Get(ctx, EndpointSubjectCommonNames, container, &out)
	return out.SubjectCommonNames, err
}

func (c *Client) CADomains(ctx context.Context, container string) ([]CADomains, error) {
	var out struct {
		CADomains []CADomains `json:"ca_domains"`
	}
	err := c.Get(ctx, EndpointCADomainAnalysis, container, &out)
	return out.CADomains, err
}

func (c *Client) CAURLs(ctx context.Context, container string) ([]CAURLs, error) {
	var out struct {
		CAURLs []CAURLs `json:"ca_urls"`
	}
	err := c.Get(ctx, EndpointCAURLAnalysis, container, &out)
	return out.CAURLs, err
}

func (c *Client) CAPubkeys(ctx context.Context, container string) ([]CAPubkeys, error) {
	var out struct {
		CAPubkeys []CAPubkeys `json:"ca_pubkeys"`
	}
	err := c.Get(ctx, EndpointCAPubkeyAnalysis, container, &out)
	return out.CAPubkeys, err
}

func (c *Client) SharedPubkeys(ctx context.Context, container string) ([]SharedPubkey, error) {
	var out struct {
		SharedPubkeys []SharedPubkey `json:"shared_pubkeys"`
	}
	err := c.Get(ctx, EndpointSharedPubkeys, container, &out)
	return out.SharedPubkeys, err
}
