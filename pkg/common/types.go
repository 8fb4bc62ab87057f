// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-s3console.
//
// go-s3console is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package common

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	// BackendS3 selects the aws-sdk-go-v2 backend.
	BackendS3 = "s3"

	// BackendMinIO selects the minio-go backend.
	BackendMinIO = "minio"

	// BackendMemory selects the in-process backend.
	BackendMemory = "memory"

	// DefaultRegion is used when a connection does not name a region.
	DefaultRegion = "us-east-1"

	// Delimiter separates virtual folder segments in a key.
	Delimiter = "/"

	// MaxPageSize is the largest page the S3 API returns or deletes in one call.
	MaxPageSize = 1000
)

// Connection holds the endpoint credentials a user configured for their session.
// It is passed explicitly into every backend constructor and is never persisted.
type Connection struct {
	// Backend is the backend type (s3, minio, memory). Empty means s3.
	Backend string `json:"backend,omitempty"`

	// Endpoint is the service URL, e.g. "https://s3.example.com".
	Endpoint string `json:"endpoint"`

	// AccessKey is the access key ID.
	AccessKey string `json:"access_key"`

	// SecretKey is the secret access key.
	SecretKey string `json:"-"`

	// Region is the signing region. Empty means DefaultRegion.
	Region string `json:"region,omitempty"`

	// ForcePathStyle selects path-style bucket addressing.
	ForcePathStyle bool `json:"force_path_style,omitempty"`
}

// Validate reports ErrConfigurationMissing when any required field is blank.
func (c Connection) Validate() error {
	if c.BackendType() == BackendMemory {
		return nil
	}
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("%w: %w", ErrConfigurationMissing, ErrEndpointNotSet)
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return fmt.Errorf("%w: %w", ErrConfigurationMissing, ErrAccessKeyNotSet)
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return fmt.Errorf("%w: %w", ErrConfigurationMissing, ErrSecretKeyNotSet)
	}
	return nil
}

// BackendType returns the backend type, defaulting to s3.
func (c Connection) BackendType() string {
	if c.Backend == "" {
		return BackendS3
	}
	return c.Backend
}

// RegionOrDefault returns the region, defaulting to DefaultRegion.
func (c Connection) RegionOrDefault() string {
	if c.Region == "" {
		return DefaultRegion
	}
	return c.Region
}

// LogValue keeps credentials out of structured logs.
func (c Connection) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", c.BackendType()),
		slog.String("endpoint", c.Endpoint),
		slog.String("access_key", MaskSecret(c.AccessKey)),
		slog.String("region", c.RegionOrDefault()),
	)
}

// String implements fmt.Stringer without exposing the secret key.
func (c Connection) String() string {
	return fmt.Sprintf("%s %s (access key %s)", c.BackendType(), c.Endpoint, MaskSecret(c.AccessKey))
}

// MaskSecret keeps the first four characters of s and masks the rest.
func MaskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
}

// Bucket is a top-level container in the storage service.
type Bucket struct {
	Name         string    `json:"name"`
	CreationDate time.Time `json:"creation_date,omitempty"`
}

// ObjectInfo describes a single object as returned by a listing or a get.
type ObjectInfo struct {
	// Key is the full object key.
	Key string `json:"key"`

	// Size is the object size in bytes.
	Size int64 `json:"size"`

	// LastModified is the service-reported modification time.
	LastModified time.Time `json:"last_modified"`

	// ETag is the entity tag, if the service reports one.
	ETag string `json:"etag,omitempty"`

	// ContentType is only populated by GetObject.
	ContentType string `json:"content_type,omitempty"`
}

// ListOptions specifies a single listing request.
type ListOptions struct {
	// Prefix filters keys to those starting with this value.
	Prefix string

	// Delimiter groups keys sharing a segment after Prefix into CommonPrefixes.
	// Empty means a recursive listing.
	Delimiter string

	// MaxKeys caps the page size. 0 means the backend default.
	MaxKeys int

	// ContinuationToken resumes a listing from a previous ListPage.NextToken.
	ContinuationToken string
}

// ListPage is one page of a listing, in service order.
type ListPage struct {
	// Objects are the keys directly matched by the request.
	Objects []ObjectInfo

	// CommonPrefixes are the grouped prefixes when a delimiter was used.
	// Each one ends with the delimiter.
	CommonPrefixes []string

	// NextToken continues the listing. Empty when Truncated is false.
	NextToken string

	// Truncated is true when more pages follow.
	Truncated bool
}

// DeleteError reports a key the service refused to delete.
type DeleteError struct {
	Key     string `json:"key"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e DeleteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s: %s", e.Key, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}
