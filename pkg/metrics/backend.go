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

package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/jeremyhahn/go-s3console/pkg/common"
)

// InstrumentBackend wraps b so every call is counted and timed under the
// backend label. The wrapper implements common.BatchDeleter exactly when b
// does, so callers keep choosing the same delete strategy.
func InstrumentBackend(b common.Backend, backend string) common.Backend {
	ib := &instrumented{next: b, backend: backend}
	if batch, ok := b.(common.BatchDeleter); ok {
		return &instrumentedBatch{instrumented: ib, batch: batch}
	}
	return ib
}

type instrumented struct {
	next    common.Backend
	backend string
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
		BackendOperationErrors.WithLabelValues(i.backend, op, ClassifyError(err)).Inc()
	}
	BackendOperationsTotal.WithLabelValues(i.backend, op, status).Inc()
	BackendOperationDuration.WithLabelValues(i.backend, op).Observe(time.Since(start).Seconds())
}

func (i *instrumented) ListBuckets(ctx context.Context) ([]common.Bucket, error) {
	start := time.Now()
	buckets, err := i.next.ListBuckets(ctx)
	i.observe("list_buckets", start, err)
	return buckets, err
}

func (i *instrumented) ListObjects(ctx context.Context, bucket string, opts *common.ListOptions) (*common.ListPage, error) {
	start := time.Now()
	page, err := i.next.ListObjects(ctx, bucket, opts)
	i.observe("list_objects", start, err)
	return page, err
}

func (i *instrumented) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	start := time.Now()
	err := i.next.PutObject(ctx, bucket, key, body, size, contentType)
	i.observe("put_object", start, err)
	if err == nil && size > 0 {
		TransferBytes.WithLabelValues("upload").Add(float64(size))
	}
	return err
}

func (i *instrumented) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, *common.ObjectInfo, error) {
	start := time.Now()
	rc, info, err := i.next.GetObject(ctx, bucket, key)
	i.observe("get_object", start, err)
	if err != nil {
		return nil, nil, err
	}
	return &countingReader{ReadCloser: rc}, info, nil
}

func (i *instrumented) DeleteObject(ctx context.Context, bucket, key string) error {
	start := time.Now()
	err := i.next.DeleteObject(ctx, bucket, key)
	i.observe("delete_object", start, err)
	return err
}

type instrumentedBatch struct {
	*instrumented
	batch common.BatchDeleter
}

func (i *instrumentedBatch) DeleteObjects(ctx context.Context, bucket string, keys []string) ([]common.DeleteError, error) {
	start := time.Now()
	failed, err := i.batch.DeleteObjects(ctx, bucket, keys)
	i.observe("delete_objects", start, err)
	if err == nil {
		DeleteBatchKeys.WithLabelValues(i.backend, "deleted").Add(float64(len(keys) - len(failed)))
		DeleteBatchKeys.WithLabelValues(i.backend, "failed").Add(float64(len(failed)))
	}
	return failed, err
}

// countingReader adds the bytes read to the download counter on Close.
type countingReader struct {
	io.ReadCloser
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.ReadCloser.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) Close() error {
	TransferBytes.WithLabelValues("download").Add(float64(c.n))
	c.n = 0
	return c.ReadCloser.Close()
}

// ClassifyError buckets err into a small label set.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, common.ErrBucketNotFound), errors.Is(err, common.ErrKeyNotFound):
		return "not_found"
	}

	var svc *common.ServiceError
	if errors.As(err, &svc) {
		switch {
		case svc.StatusCode == http.StatusForbidden || svc.Code == "AccessDenied":
			return "access_denied"
		case svc.StatusCode >= 500:
			return "server_error"
		}
		return "client_error"
	}
	var verr *common.ValidationError
	if errors.As(err, &verr) {
		return "validation"
	}
	return "transport"
}

// Verify interface compliance at compile time
var (
	_ common.Backend      = (*instrumented)(nil)
	_ common.BatchDeleter = (*instrumentedBatch)(nil)
)
