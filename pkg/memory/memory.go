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

// Package memory provides an in-memory implementation of the storage backend.
// It follows S3 listing semantics (lexicographic order, delimiter grouping,
// continuation tokens) and is used for tests and the demo mode of the console.
package memory

import (
	"bytes"
	"context"
	"crypto/md5" // #nosec G501 -- ETag compatibility, not security
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jeremyhahn/go-s3console/pkg/common"
)

// object represents a stored object with its data and metadata.
type object struct {
	data         []byte
	contentType  string
	etag         string
	lastModified time.Time
}

type bucket struct {
	created time.Time
	objects map[string]*object
}

// Memory is a storage backend that stores objects in memory.
type Memory struct {
	mu       sync.RWMutex
	buckets  map[string]*bucket
	pageSize int
	now      func() time.Time
}

// Option configures a Memory backend.
type Option func(*Memory)

// WithPageSize caps the number of entries returned per listing page.
func WithPageSize(n int) Option {
	return func(m *Memory) {
		if n > 0 {
			m.pageSize = n
		}
	}
}

// WithBuckets creates the named buckets up front.
func WithBuckets(names ...string) Option {
	return func(m *Memory) {
		for _, name := range names {
			m.buckets[name] = &bucket{created: m.now(), objects: make(map[string]*object)}
		}
	}
}

// WithClock overrides the time source used for modification times.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		m.now = now
	}
}

// New creates a new Memory storage backend.
func New(opts ...Option) *Memory {
	m := &Memory{
		buckets:  make(map[string]*bucket),
		pageSize: common.MaxPageSize,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateBucket adds an empty bucket. Creating an existing bucket is a no-op.
func (m *Memory) CreateBucket(name string) error {
	if err := common.ValidateBucketName(name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[name]; !ok {
		m.buckets[name] = &bucket{created: m.now(), objects: make(map[string]*object)}
	}
	return nil
}

// ListBuckets returns all buckets sorted by name.
func (m *Memory) ListBuckets(ctx context.Context) ([]common.Bucket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]common.Bucket, 0, len(m.buckets))
	for name, b := range m.buckets {
		out = append(out, common.Bucket{Name: name, CreationDate: b.created})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// lookup returns the bucket or a NoSuchBucket service error. Caller holds mu.
func (m *Memory) lookup(name string) (*bucket, error) {
	b, ok := m.buckets[name]
	if !ok {
		return nil, &common.ServiceError{
			Code:       "NoSuchBucket",
			Message:    "The specified bucket does not exist",
			StatusCode: http.StatusNotFound,
		}
	}
	return b, nil
}

// entry is a single listing row: either an object or a common prefix.
type entry struct {
	name   string
	obj    *object
	prefix bool
}

// ListObjects returns one page of keys in lexicographic order. Objects and
// common prefixes both count toward the page size, and NextToken is the
// last entry returned, in the manner of ListObjectsV2 start-after.
func (m *Memory) ListObjects(ctx context.Context, bucketName string, opts *common.ListOptions) (*common.ListPage, error) {
	if opts == nil {
		opts = &common.ListOptions{}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	b, err := m.lookup(bucketName)
	if err != nil {
		return nil, err
	}

	var keys []string
	for key := range b.objects {
		if strings.HasPrefix(key, opts.Prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	seen := make(map[string]bool)
	var entries []entry
	for _, key := range keys {
		if opts.Delimiter != "" {
			remainder := strings.TrimPrefix(key, opts.Prefix)
			if idx := strings.Index(remainder, opts.Delimiter); idx >= 0 {
				cp := opts.Prefix + remainder[:idx+len(opts.Delimiter)]
				if !seen[cp] {
					seen[cp] = true
					entries = append(entries, entry{name: cp, prefix: true})
				}
				continue
			}
		}
		entries = append(entries, entry{name: key, obj: b.objects[key]})
	}

	start := 0
	if opts.ContinuationToken != "" {
		start = sort.Search(len(entries), func(i int) bool {
			return entries[i].name > opts.ContinuationToken
		})
	}

	limit := m.pageSize
	if opts.MaxKeys > 0 && opts.MaxKeys < limit {
		limit = opts.MaxKeys
	}
	end := start + limit
	if end > len(entries) {
		end = len(entries)
	}

	page := &common.ListPage{}
	for _, e := range entries[start:end] {
		if e.prefix {
			page.CommonPrefixes = append(page.CommonPrefixes, e.name)
			continue
		}
		page.Objects = append(page.Objects, common.ObjectInfo{
			Key:          e.name,
			Size:         int64(len(e.obj.data)),
			LastModified: e.obj.lastModified,
			ETag:         e.obj.etag,
		})
	}
	if end < len(entries) {
		page.Truncated = true
		page.NextToken = entries[end-1].name
	}
	return page, nil
}

// PutObject stores an object, replacing any existing one at key.
func (m *Memory) PutObject(ctx context.Context, bucketName, key string, body io.Reader, size int64, contentType string) error {
	if key == "" {
		return &common.ValidationError{Field: "key", Message: "key cannot be empty"}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("short body: read %d of %d bytes", len(data), size)
	}

	sum := md5.Sum(data) // #nosec G401
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.lookup(bucketName)
	if err != nil {
		return err
	}
	b.objects[key] = &object{
		data:         data,
		contentType:  contentType,
		etag:         `"` + hex.EncodeToString(sum[:]) + `"`,
		lastModified: m.now().UTC(),
	}
	return nil
}

// GetObject returns a reader over a copy of the stored bytes.
func (m *Memory) GetObject(ctx context.Context, bucketName, key string) (io.ReadCloser, *common.ObjectInfo, error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	b, err := m.lookup(bucketName)
	if err != nil {
		return nil, nil, err
	}
	obj, ok := b.objects[key]
	if !ok {
		return nil, nil, &common.ServiceError{
			Code:       "NoSuchKey",
			Message:    "The specified key does not exist.",
			StatusCode: http.StatusNotFound,
		}
	}

	// Return a copy of the data to prevent mutation
	dataCopy := make([]byte, len(obj.data))
	copy(dataCopy, obj.data)

	info := &common.ObjectInfo{
		Key:          key,
		Size:         int64(len(obj.data)),
		LastModified: obj.lastModified,
		ETag:         obj.etag,
		ContentType:  obj.contentType,
	}
	return io.NopCloser(bytes.NewReader(dataCopy)), info, nil
}

// DeleteObject removes an object. Deleting a missing key succeeds, as on S3.
func (m *Memory) DeleteObject(ctx context.Context, bucketName, key string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.lookup(bucketName)
	if err != nil {
		return err
	}
	delete(b.objects, key)
	return nil
}

// DeleteObjects removes keys in one call. It never reports per-key failures.
func (m *Memory) DeleteObjects(ctx context.Context, bucketName string, keys []string) ([]common.DeleteError, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.lookup(bucketName)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		delete(b.objects, key)
	}
	return nil, nil
}

// Len returns the number of objects in a bucket.
func (m *Memory) Len(bucketName string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.buckets[bucketName]; ok {
		return len(b.objects)
	}
	return 0
}

// Verify interface compliance at compile time
var (
	_ common.Backend      = (*Memory)(nil)
	_ common.BatchDeleter = (*Memory)(nil)
)
