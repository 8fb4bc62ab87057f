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

// Package minio implements the storage backend on minio-go. It speaks the
// S3 protocol and works with MinIO and most S3-compatible services.
package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/jeremyhahn/go-s3console/pkg/common"
)

// MinIO is a storage backend backed by a minio-go client.
type MinIO struct {
	client *minio.Client
}

// New returns a backend over an existing client.
func New(client *minio.Client) *MinIO {
	return &MinIO{client: client}
}

// NewFromConnection builds a client from the session connection. The
// endpoint scheme selects TLS. The region is always set so the client does
// not issue a bucket location lookup before every first request.
func NewFromConnection(conn common.Connection) (*MinIO, error) {
	if err := conn.Validate(); err != nil {
		return nil, err
	}
	if err := common.ValidateEndpoint(conn.Endpoint); err != nil {
		return nil, err
	}
	u, err := url.Parse(conn.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidEndpoint, err)
	}

	lookup := minio.BucketLookupAuto
	if conn.ForcePathStyle {
		lookup = minio.BucketLookupPath
	}

	client, err := minio.New(u.Host, &minio.Options{
		Creds:        credentials.NewStaticV4(conn.AccessKey, conn.SecretKey, ""),
		Secure:       u.Scheme == "https",
		Region:       conn.RegionOrDefault(),
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}
	return New(client), nil
}

// ListBuckets returns all buckets owned by the credentials.
func (m *MinIO) ListBuckets(ctx context.Context) ([]common.Bucket, error) {
	infos, err := m.client.ListBuckets(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	buckets := make([]common.Bucket, 0, len(infos))
	for _, b := range infos {
		buckets = append(buckets, common.Bucket{Name: b.Name, CreationDate: b.CreationDate})
	}
	return buckets, nil
}

// ListObjects issues a single ListObjectsV2 request through the core
// client so that continuation tokens come from the service.
func (m *MinIO) ListObjects(ctx context.Context, bucket string, opts *common.ListOptions) (*common.ListPage, error) {
	if opts == nil {
		opts = &common.ListOptions{}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit := common.MaxPageSize
	if opts.MaxKeys > 0 && opts.MaxKeys < limit {
		limit = opts.MaxKeys
	}

	core := minio.Core{Client: m.client}
	res, err := core.ListObjectsV2(bucket, opts.Prefix, "", opts.ContinuationToken, opts.Delimiter, limit)
	if err != nil {
		return nil, translateError(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page := &common.ListPage{
		Objects:        make([]common.ObjectInfo, 0, len(res.Contents)),
		CommonPrefixes: make([]string, 0, len(res.CommonPrefixes)),
		Truncated:      res.IsTruncated,
		NextToken:      res.NextContinuationToken,
	}
	for _, obj := range res.Contents {
		page.Objects = append(page.Objects, common.ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ETag:         strings.Trim(obj.ETag, `"`),
		})
	}
	for _, cp := range res.CommonPrefixes {
		page.CommonPrefixes = append(page.CommonPrefixes, cp.Prefix)
	}
	return page, nil
}

// PutObject streams body to the service. A negative size makes minio-go
// switch to a multipart upload.
func (m *MinIO) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return translateError(err)
	}
	return nil
}

// GetObject opens the object and issues the first request so that a missing
// key is reported here rather than on the first Read.
func (m *MinIO) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, *common.ObjectInfo, error) {
	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, translateError(err)
	}
	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, nil, translateError(err)
	}
	return obj, &common.ObjectInfo{
		Key:          key,
		Size:         stat.Size,
		LastModified: stat.LastModified,
		ETag:         stat.ETag,
		ContentType:  stat.ContentType,
	}, nil
}

// DeleteObject removes a single key.
func (m *MinIO) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := m.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return translateError(err)
	}
	return nil
}

// DeleteObjects removes keys with multi-object delete requests.
func (m *MinIO) DeleteObjects(ctx context.Context, bucket string, keys []string) ([]common.DeleteError, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		objectsCh <- minio.ObjectInfo{Key: k}
	}
	close(objectsCh)

	var (
		failed     []common.DeleteError
		requestErr error
	)
	// The channel is drained to the end so the producer goroutine exits.
	for rerr := range m.client.RemoveObjects(ctx, bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rerr.ObjectName == "" {
			// The request itself failed.
			if requestErr == nil {
				requestErr = translateError(rerr.Err)
			}
			continue
		}
		de := common.DeleteError{Key: rerr.ObjectName, Message: "delete failed"}
		if rerr.Err != nil {
			resp := minio.ToErrorResponse(rerr.Err)
			de.Code = resp.Code
			de.Message = rerr.Err.Error()
			if resp.Message != "" {
				de.Message = resp.Message
			}
		}
		failed = append(failed, de)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if requestErr != nil {
		return nil, requestErr
	}
	return failed, nil
}

// translateError turns minio error responses into *common.ServiceError.
// Errors without an S3 error code are returned unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) || resp.Code == "" {
		return err
	}
	svc := &common.ServiceError{
		Code:       resp.Code,
		Message:    resp.Message,
		StatusCode: resp.StatusCode,
	}
	if svc.StatusCode == 0 && (svc.Code == "NoSuchKey" || svc.Code == "NoSuchBucket") {
		svc.StatusCode = http.StatusNotFound
	}
	return svc
}

// Verify interface compliance at compile time
var (
	_ common.Backend      = (*MinIO)(nil)
	_ common.BatchDeleter = (*MinIO)(nil)
)
