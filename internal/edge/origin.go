package edge

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// StorageLocation identifies the bucket an eligible origin points at. Region
// is empty for the legacy global endpoint.
type StorageLocation struct {
	Bucket string
	Region string
}

var storageHostPattern = regexp.MustCompile(`(?i)^(.+?)\.s3(?:\.([a-z0-9-]+))?\.amazonaws\.com$`)

// LocationFromOrigin derives the storage location from a request's origin
// descriptor. ok is false when the event does not point at an S3 origin or
// the domain lacks the virtual-hosted bucket shape.
func LocationFromOrigin(origin *Origin) (StorageLocation, bool) {
	if origin == nil || origin.S3 == nil {
		return StorageLocation{}, false
	}

	host := strings.TrimSpace(origin.S3.DomainName)
	if host == "" {
		return StorageLocation{}, false
	}

	m := storageHostPattern.FindStringSubmatch(host)
	if m == nil {
		return StorageLocation{}, false
	}
	return StorageLocation{Bucket: m[1], Region: strings.ToLower(m[2])}, true
}

// ObjectKeyFromURI converts a request URI into the key stored in the bucket:
// percent-decoded, leading slash stripped.
func ObjectKeyFromURI(uri string) (string, error) {
	decoded, err := url.PathUnescape(uri)
	if err != nil {
		return "", fmt.Errorf("decode request uri %q: %w", uri, err)
	}
	return strings.TrimPrefix(decoded, "/"), nil
}
