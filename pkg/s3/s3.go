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

// Package s3 implements the storage backend on aws-sdk-go-v2. It works with
// AWS and with S3-compatible services reachable through a custom endpoint.
package s3

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/jeremyhahn/go-s3console/pkg/common"
)

// S3API is the subset of *s3.Client used by the backend.
type S3API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

var _ S3API = (*s3.Client)(nil)

// S3 is a storage backend for S3-compatible services.
type S3 struct {
	svc S3API
}

// New returns a backend over an existing client.
func New(svc S3API) *S3 {
	return &S3{svc: svc}
}

// NewFromConnection builds a client from the session connection. Static
// credentials from the connection always take precedence over the
// environment and shared config files.
func NewFromConnection(ctx context.Context, conn common.Connection) (*S3, error) {
	if err := conn.Validate(); err != nil {
		return nil, err
	}
	if err := common.ValidateEndpoint(conn.Endpoint); err != nil {
		return nil, err
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(conn.RegionOrDefault()),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conn.AccessKey, conn.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(conn.Endpoint)
		o.UsePathStyle = conn.ForcePathStyle
		// Many S3-compatible services reject the default CRC trailers.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})
	return New(client), nil
}

// ListBuckets returns all buckets owned by the credentials.
func (s *S3) ListBuckets(ctx context.Context) ([]common.Bucket, error) {
	out, err := s.svc.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, translateError(err)
	}
	buckets := make([]common.Bucket, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		buckets = append(buckets, common.Bucket{
			Name:         aws.ToString(b.Name),
			CreationDate: aws.ToTime(b.CreationDate),
		})
	}
	return buckets, nil
}

// ListObjects issues a single ListObjectsV2 request.
func (s *S3) ListObjects(ctx context.Context, bucket string, opts *common.ListOptions) (*common.ListPage, error) {
	if opts == nil {
		opts = &common.ListOptions{}
	}

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}
	if opts.Prefix != "" {
		input.Prefix = aws.String(opts.Prefix)
	}
	if opts.Delimiter != "" {
		input.Delimiter = aws.String(opts.Delimiter)
	}
	if opts.MaxKeys > 0 {
		input.MaxKeys = aws.Int32(int32(min(opts.MaxKeys, common.MaxPageSize))) // #nosec G115
	}
	if opts.ContinuationToken != "" {
		input.ContinuationToken = aws.String(opts.ContinuationToken)
	}

	out, err := s.svc.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, translateError(err)
	}

	page := &common.ListPage{
		Objects:        make([]common.ObjectInfo, 0, len(out.Contents)),
		CommonPrefixes: make([]string, 0, len(out.CommonPrefixes)),
		Truncated:      aws.ToBool(out.IsTruncated),
		NextToken:      aws.ToString(out.NextContinuationToken),
	}
	for _, obj := range out.Contents {
		if obj.Key == nil {
			continue
		}
		page.Objects = append(page.Objects, common.ObjectInfo{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
			ETag:         aws.ToString(obj.ETag),
		})
	}
	for _, cp := range out.CommonPrefixes {
		if cp.Prefix != nil {
			page.CommonPrefixes = append(page.CommonPrefixes, aws.ToString(cp.Prefix))
		}
	}
	return page, nil
}

// PutObject uploads body in a single request. Bodies that are not seekable
// need a known size.
func (s *S3) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.svc.PutObject(ctx, input); err != nil {
		return translateError(err)
	}
	return nil
}

// GetObject opens the object body for streaming.
func (s *S3) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, *common.ObjectInfo, error) {
	out, err := s.svc.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, nil, translateError(err)
	}

	info := &common.ObjectInfo{
		Key:          key,
		Size:         -1,
		LastModified: aws.ToTime(out.LastModified),
		ETag:         aws.ToString(out.ETag),
		ContentType:  aws.ToString(out.ContentType),
	}
	if out.ContentLength != nil {
		info.Size = *out.ContentLength
	}
	return out.Body, info, nil
}

// DeleteObject removes a single key.
func (s *S3) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := s.svc.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return translateError(err)
	}
	return nil
}

// DeleteObjects removes up to 1000 keys in one quiet-mode request and
// returns the per-key errors reported by the service.
func (s *S3) DeleteObjects(ctx context.Context, bucket string, keys []string) ([]common.DeleteError, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if len(keys) > common.MaxPageSize {
		return nil, &common.ValidationError{Field: "keys", Message: "at most 1000 keys per batch"}
	}

	ids := make([]types.ObjectIdentifier, len(keys))
	for i, k := range keys {
		ids[i] = types.ObjectIdentifier{Key: aws.String(k)}
	}

	out, err := s.svc.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{
			Objects: ids,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		return nil, translateError(err)
	}

	var failed []common.DeleteError
	for _, e := range out.Errors {
		failed = append(failed, common.DeleteError{
			Key:     aws.ToString(e.Key),
			Code:    aws.ToString(e.Code),
			Message: aws.ToString(e.Message),
		})
	}
	return failed, nil
}

// translateError turns smithy API errors into *common.ServiceError so that
// callers can map them without importing the SDK. Transport errors such as
// DNS failures or cancellation are returned unchanged.
func translateError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	svc := &common.ServiceError{
		Code:    apiErr.ErrorCode(),
		Message: apiErr.ErrorMessage(),
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		svc.StatusCode = respErr.HTTPStatusCode()
	}

	// HEAD-style 404s carry no body and surface as a generic NotFound.
	var nsk *types.NoSuchKey
	var nsb *types.NoSuchBucket
	switch {
	case errors.As(err, &nsk):
		svc.Code = "NoSuchKey"
	case errors.As(err, &nsb):
		svc.Code = "NoSuchBucket"
	}
	if svc.StatusCode == 0 {
		switch svc.Code {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			svc.StatusCode = http.StatusNotFound
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			svc.StatusCode = http.StatusForbidden
		}
	}
	return svc
}

// Verify interface compliance at compile time
var (
	_ common.Backend      = (*S3)(nil)
	_ common.BatchDeleter = (*S3)(nil)
)
