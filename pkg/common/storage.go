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
	"context"
	"io"
)

// Backend is the capability interface every object storage backend implements.
// Backends are thin: they return the service's own ordering and paging and
// never interpret keys as paths.
type Backend interface {
	// ListBuckets returns all buckets visible to the configured credentials.
	ListBuckets(ctx context.Context) ([]Bucket, error)

	// ListObjects returns a single page of a listing. Callers drain the
	// listing with a Paginator.
	ListObjects(ctx context.Context, bucket string, opts *ListOptions) (*ListPage, error)

	// PutObject stores body at key, overwriting any existing object.
	// A negative size means the length is unknown.
	PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error

	// GetObject opens the object for streaming. The caller must close the reader.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, *ObjectInfo, error)

	// DeleteObject removes a single object.
	DeleteObject(ctx context.Context, bucket, key string) error
}

// BatchDeleter is implemented by backends that can remove many keys in one request.
type BatchDeleter interface {
	// DeleteObjects removes keys and reports the ones the service refused.
	// A non-nil error means the request itself failed and nothing is known
	// about the individual keys.
	DeleteObjects(ctx context.Context, bucket string, keys []string) ([]DeleteError, error)
}
