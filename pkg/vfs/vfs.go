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

// Package vfs presents a flat object key space as folders and files.
//
// A folder is a key prefix ending in "/". It exists when at least one key
// starts with it or when a zero-byte marker object with exactly that key
// exists. Nothing is cached: every call derives the view from a fresh listing.
package vfs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/jeremyhahn/go-s3console/pkg/adapters"
	"github.com/jeremyhahn/go-s3console/pkg/common"
)

const defaultContentType = "application/octet-stream"

// Folder is a child prefix of a listing.
type Folder struct {
	// Name is the single path segment shown to the user.
	Name string `json:"name"`

	// Prefix is the full prefix, ending with "/".
	Prefix string `json:"prefix"`
}

// File is a child object of a listing.
type File struct {
	Name         string    `json:"name"`
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Listing is the folder view of one prefix, in backend order.
type Listing struct {
	Bucket  string   `json:"bucket"`
	Prefix  string   `json:"prefix"`
	Folders []Folder `json:"folders"`
	Files   []File   `json:"files"`
}

// Download is an open object stream. The caller must close Body.
type Download struct {
	Body         io.ReadCloser
	Key          string
	Filename     string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// DeleteResult describes the outcome of DeleteEntry.
type DeleteResult struct {
	Key string `json:"key"`

	// Folder is true when key named a folder.
	Folder bool `json:"folder"`

	// ReturnPrefix is the prefix to show after the delete.
	ReturnPrefix string `json:"return_prefix"`

	// Deleted counts objects removed.
	Deleted int `json:"deleted"`

	// Failed lists objects that could not be removed.
	Failed []common.DeleteError `json:"failed,omitempty"`
}

// Adapter translates folder operations into backend calls. It holds no
// mutable state and is safe for concurrent use.
type Adapter struct {
	backend  common.Backend
	logger   adapters.Logger
	pageSize int
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger adapters.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithPageSize sets the list page size and the delete batch size.
// Values outside 1..1000 are ignored.
func WithPageSize(n int) Option {
	return func(a *Adapter) {
		if n > 0 && n <= common.MaxPageSize {
			a.pageSize = n
		}
	}
}

// New returns an Adapter over backend.
func New(backend common.Backend, opts ...Option) (*Adapter, error) {
	if backend == nil {
		return nil, common.ErrBackendRequired
	}
	a := &Adapter{
		backend:  backend,
		logger:   adapters.NewNoOpLogger(),
		pageSize: common.MaxPageSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Backend returns the underlying backend.
func (a *Adapter) Backend() common.Backend {
	return a.backend
}

// ListBuckets returns every bucket visible to the connection.
func (a *Adapter) ListBuckets(ctx context.Context) ([]common.Bucket, error) {
	buckets, err := a.backend.ListBuckets(ctx)
	if err != nil {
		return nil, common.NewBackendError("list buckets", "", "", err)
	}
	return buckets, nil
}

// ListFolder drains every page of a delimiter listing at prefix and splits
// it into child folders and child files. The folder marker whose key equals
// prefix is not reported as a file. On error no partial listing is returned.
func (a *Adapter) ListFolder(ctx context.Context, bucket, prefix string) (*Listing, error) {
	if err := common.ValidateBucketName(bucket); err != nil {
		return nil, err
	}
	if err := common.ValidatePrefix(prefix); err != nil {
		return nil, err
	}

	listing := &Listing{
		Bucket:  bucket,
		Prefix:  prefix,
		Folders: []Folder{},
		Files:   []File{},
	}

	p := common.NewPaginator(a.backend, bucket, common.ListOptions{
		Prefix:    prefix,
		Delimiter: common.Delimiter,
		MaxKeys:   a.pageSize,
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, common.NewBackendError("list", bucket, prefix, err)
		}
		for _, cp := range page.CommonPrefixes {
			listing.Folders = append(listing.Folders, Folder{
				Name:   DisplayName(prefix, cp),
				Prefix: cp,
			})
		}
		for _, obj := range page.Objects {
			if obj.Key == prefix {
				continue
			}
			listing.Files = append(listing.Files, File{
				Name:         strings.TrimPrefix(obj.Key, prefix),
				Key:          obj.Key,
				Size:         obj.Size,
				LastModified: obj.LastModified,
			})
		}
	}

	a.logger.Debug(ctx, "listed folder",
		adapters.Field{Key: "bucket", Value: bucket},
		adapters.Field{Key: "prefix", Value: common.SanitizeForLog(prefix)},
		adapters.Field{Key: "pages", Value: p.Pages()},
		adapters.Field{Key: "folders", Value: len(listing.Folders)},
		adapters.Field{Key: "files", Value: len(listing.Files)},
	)
	return listing, nil
}

// UploadObject stores body under prefix using a sanitized form of filename
// and returns the resulting key. An existing object at that key is replaced.
// A negative size means the length is unknown.
func (a *Adapter) UploadObject(ctx context.Context, bucket, prefix, filename string, body io.Reader, size int64, contentType string) (string, error) {
	if err := common.ValidateBucketName(bucket); err != nil {
		return "", err
	}
	if err := common.ValidatePrefix(prefix); err != nil {
		return "", err
	}
	if body == nil {
		return "", &common.ValidationError{Field: "file", Message: "no file provided"}
	}
	name, err := common.SanitizeFilename(filename)
	if err != nil {
		return "", err
	}
	key := JoinKey(prefix, name)
	if err := common.ValidateKey(key); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = defaultContentType
	}

	if err := a.backend.PutObject(ctx, bucket, key, body, size, contentType); err != nil {
		return "", common.NewBackendError("upload", bucket, key, err)
	}

	a.logger.Info(ctx, "object uploaded",
		adapters.Field{Key: "bucket", Value: bucket},
		adapters.Field{Key: "key", Value: common.SanitizeForLog(key)},
		adapters.Field{Key: "size", Value: size},
	)
	return key, nil
}

// CreateFolder writes a zero-byte marker object for folderName under prefix
// and returns its full path. Creating an existing folder succeeds.
func (a *Adapter) CreateFolder(ctx context.Context, bucket, prefix, folderName string) (string, error) {
	if err := common.ValidateBucketName(bucket); err != nil {
		return "", err
	}
	if err := common.ValidatePrefix(prefix); err != nil {
		return "", err
	}
	name, err := common.NormalizeFolderName(folderName)
	if err != nil {
		return "", err
	}
	fullPath := JoinKey(prefix, name)
	if err := common.ValidateKey(fullPath); err != nil {
		return "", err
	}

	if err := a.backend.PutObject(ctx, bucket, fullPath, bytes.NewReader(nil), 0, ""); err != nil {
		return "", common.NewBackendError("create folder", bucket, fullPath, err)
	}

	a.logger.Info(ctx, "folder created",
		adapters.Field{Key: "bucket", Value: bucket},
		adapters.Field{Key: "prefix", Value: common.SanitizeForLog(fullPath)},
	)
	return fullPath, nil
}

// DownloadObject opens key for streaming. Folder keys cannot be downloaded.
func (a *Adapter) DownloadObject(ctx context.Context, bucket, key string) (*Download, error) {
	if err := common.ValidateBucketName(bucket); err != nil {
		return nil, err
	}
	if err := common.ValidateKey(key); err != nil {
		return nil, err
	}
	if IsFolderKey(key) {
		return nil, &common.ValidationError{Field: "key", Message: "folders cannot be downloaded"}
	}

	body, info, err := a.backend.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, common.NewBackendError("download", bucket, key, err)
	}

	d := &Download{
		Body:        body,
		Key:         key,
		Filename:    SuggestedFilename(key),
		Size:        -1,
		ContentType: defaultContentType,
	}
	if info != nil {
		d.Size = info.Size
		d.LastModified = info.LastModified
		d.ETag = info.ETag
		if info.ContentType != "" {
			d.ContentType = info.ContentType
		}
	}
	return d, nil
}

// DeleteEntry removes a single object, or every object under key when key
// ends with "/". A folder delete is not transactional: it keeps going after
// individual failures and returns a *common.PartialFailureError naming the
// keys it could not remove. The result is always non-nil once validation
// has passed.
func (a *Adapter) DeleteEntry(ctx context.Context, bucket, key string) (*DeleteResult, error) {
	if err := common.ValidateBucketName(bucket); err != nil {
		return nil, err
	}
	if err := common.ValidateKey(key); err != nil {
		return nil, err
	}

	result := &DeleteResult{
		Key:          key,
		Folder:       IsFolderKey(key),
		ReturnPrefix: ParentPrefix(key),
	}

	if !result.Folder {
		if err := a.backend.DeleteObject(ctx, bucket, key); err != nil {
			return result, common.NewBackendError("delete", bucket, key, err)
		}
		result.Deleted = 1
		a.logger.Info(ctx, "object deleted",
			adapters.Field{Key: "bucket", Value: bucket},
			adapters.Field{Key: "key", Value: common.SanitizeForLog(key)},
		)
		return result, nil
	}

	err := a.deleteFolder(ctx, bucket, key, result)
	fields := []adapters.Field{
		{Key: "bucket", Value: bucket},
		{Key: "prefix", Value: common.SanitizeForLog(key)},
		{Key: "deleted", Value: result.Deleted},
		{Key: "failed", Value: len(result.Failed)},
	}
	if err != nil {
		a.logger.Warn(ctx, "folder delete incomplete", append(fields, adapters.Err(err))...)
		return result, err
	}
	a.logger.Info(ctx, "folder deleted", fields...)
	return result, nil
}

// deleteFolder walks the recursive listing of prefix one page at a time and
// deletes each page before fetching the next, so memory is bounded by the
// page size however large the folder is.
func (a *Adapter) deleteFolder(ctx context.Context, bucket, prefix string, result *DeleteResult) error {
	batcher, _ := a.backend.(common.BatchDeleter)

	p := common.NewPaginator(a.backend, bucket, common.ListOptions{
		Prefix:  prefix,
		MaxKeys: a.pageSize,
	})
	var listErr error
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			// The listing is the only record of what remains, so stop here.
			listErr = err
			break
		}

		keys := make([]string, 0, len(page.Objects))
		for _, obj := range page.Objects {
			keys = append(keys, obj.Key)
		}

		for start := 0; start < len(keys); start += a.pageSize {
			end := min(start+a.pageSize, len(keys))
			batch := keys[start:end]

			if batcher != nil {
				failed, err := batcher.DeleteObjects(ctx, bucket, batch)
				if err == nil {
					result.Deleted += len(batch) - len(failed)
					result.Failed = append(result.Failed, failed...)
					continue
				}
				a.logger.Warn(ctx, "batch delete rejected, deleting keys individually",
					adapters.Field{Key: "bucket", Value: bucket},
					adapters.Err(err),
				)
				batcher = nil
			}

			for _, k := range batch {
				if err := a.backend.DeleteObject(ctx, bucket, k); err != nil {
					result.Failed = append(result.Failed, toDeleteError(k, err))
					continue
				}
				result.Deleted++
			}
		}
	}

	return folderDeleteError(bucket, prefix, result, listErr)
}

// folderDeleteError classifies the outcome of a folder walk. Removing some
// objects while others remain, whether refused or never listed, is a
// partial failure. Removing none is a plain backend error carrying any
// refused keys.
func folderDeleteError(bucket, prefix string, result *DeleteResult, listErr error) error {
	incomplete := len(result.Failed) > 0 || listErr != nil
	switch {
	case !incomplete:
		return nil
	case result.Deleted > 0:
		return &common.PartialFailureError{
			Prefix:  prefix,
			Deleted: result.Deleted,
			Failed:  result.Failed,
			Cause:   common.NewBackendError("list", bucket, prefix, listErr),
		}
	case len(result.Failed) == 0:
		return common.NewBackendError("list", bucket, prefix, listErr)
	}

	cause := listErr
	if cause == nil {
		first := result.Failed[0]
		cause = &common.ServiceError{Code: first.Code, Message: first.Message}
	}
	return &common.BackendError{
		Op:     "delete",
		Bucket: bucket,
		Key:    prefix,
		Err:    cause,
		Failed: result.Failed,
	}
}

func toDeleteError(key string, err error) common.DeleteError {
	de := common.DeleteError{Key: key, Message: err.Error()}
	var svc *common.ServiceError
	if errors.As(err, &svc) {
		de.Code = svc.Code
		de.Message = svc.Message
		if de.Message == "" {
			de.Message = svc.Code
		}
	}
	return de
}
