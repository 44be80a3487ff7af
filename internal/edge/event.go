package edge

import "strings"

// Event is a CloudFront origin-response event as delivered to a Lambda@Edge
// function. The stock aws-lambda-go CloudFront types predate response-body
// rewriting, so the shapes are declared here in full.
type Event struct {
	Records []Record `json:"Records"`
}

type Record struct {
	CF RecordData `json:"cf"`
}

type RecordData struct {
	Config   RecordConfig `json:"config"`
	Request  Request      `json:"request"`
	Response Response     `json:"response"`
}

type RecordConfig struct {
	DistributionDomainName string `json:"distributionDomainName"`
	DistributionID         string `json:"distributionId"`
	EventType              string `json:"eventType"`
	RequestID              string `json:"requestId"`
}

type Request struct {
	ClientIP    string  `json:"clientIp,omitempty"`
	Headers     Headers `json:"headers"`
	Method      string  `json:"method"`
	QueryString string  `json:"querystring"`
	URI         string  `json:"uri"`
	Origin      *Origin `json:"origin,omitempty"`
}

type Origin struct {
	S3     *S3Origin     `json:"s3,omitempty"`
	Custom *CustomOrigin `json:"custom,omitempty"`
}

type S3Origin struct {
	AuthMethod string `json:"authMethod,omitempty"`
	DomainName string `json:"domainName"`
	Path       string `json:"path,omitempty"`
	Region     string `json:"region,omitempty"`
}

type CustomOrigin struct {
	DomainName string `json:"domainName"`
	Port       int    `json:"port,omitempty"`
	Protocol   string `json:"protocol,omitempty"`
	Path       string `json:"path,omitempty"`
}

type Response struct {
	Status            string  `json:"status"`
	StatusDescription string  `json:"statusDescription,omitempty"`
	Headers           Headers `json:"headers"`
	Body              string  `json:"body,omitempty"`
	BodyEncoding      string  `json:"bodyEncoding,omitempty"`
}

type Header struct {
	Key   string `json:"key,omitempty"`
	Value string `json:"value"`
}

// Headers maps lower-cased header names to their ordered entries, matching the
// CloudFront header multimap.
type Headers map[string][]Header

// First returns the first value recorded for a header name.
func (h Headers) First(name string) (string, bool) {
	entries := h[strings.ToLower(name)]
	if len(entries) == 0 {
		return "", false
	}
	return entries[0].Value, true
}

// Set replaces all entries for a header name with a single one.
func (h Headers) Set(name, value string) {
	h[strings.ToLower(name)] = []Header{{Key: name, Value: value}}
}
