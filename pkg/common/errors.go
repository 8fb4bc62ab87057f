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
	"errors"
	"fmt"
	"strings"
)

var (
	// Configuration errors

	// ErrConfigurationMissing is returned when no usable credentials are configured.
	// All storage operations are blocked until the user configures an endpoint.
	ErrConfigurationMissing = errors.New("storage connection not configured")

	// ErrEndpointNotSet is returned when the required endpoint is not set.
	ErrEndpointNotSet = errors.New("endpoint not set")

	// ErrAccessKeyNotSet is returned when the required access key is not set.
	ErrAccessKeyNotSet = errors.New("accessKey not set")

	// ErrSecretKeyNotSet is returned when the required secret key is not set.
	ErrSecretKeyNotSet = errors.New("secretKey not set")

	// ErrInvalidEndpoint is returned when the endpoint is not an absolute http(s) URL.
	ErrInvalidEndpoint = errors.New("invalid endpoint URL")

	// Storage operation errors

	// ErrBackendRequired is returned when a nil backend is supplied.
	ErrBackendRequired = errors.New("storage backend is required")

	// ErrBucketNotFound is returned when a bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrKeyNotFound is returned when a key is not found in storage.
	ErrKeyNotFound = errors.New("key not found")

	// ErrPaginationStalled is returned when a backend reports more pages
	// without a continuation token.
	ErrPaginationStalled = errors.New("listing truncated without continuation token")

	// ErrNoMorePages is returned when NextPage is called on a drained paginator.
	ErrNoMorePages = errors.New("no more pages")
)

// BackendError wraps any failure reported by a storage backend.
type BackendError struct {
	Op     string
	Bucket string
	Key    string
	Err    error

	// Failed lists the objects a folder delete could not remove when it
	// removed none at all.
	Failed []DeleteError
}

func (e *BackendError) Error() string {
	target := e.Bucket
	if e.Key != "" {
		target += "/" + e.Key
	}
	if target == "" {
		return fmt.Sprintf("backend error: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("backend error: %s %s: %v", e.Op, target, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Detail returns the backend's own message, without the operation prefix,
// followed by the first keys that could not be deleted.
func (e *BackendError) Detail() string {
	var msg string
	var svc *ServiceError
	switch {
	case errors.As(e.Err, &svc):
		msg = svc.Error()
	case e.Err != nil:
		msg = e.Err.Error()
	}
	if len(e.Failed) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (%d could not be deleted: %s)", msg, len(e.Failed), ListKeys(e.Failed, MaxListedKeys))
}

// NewBackendError wraps err, leaving validation and configuration errors untouched.
func NewBackendError(op, bucket, key string, err error) error {
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) || errors.Is(err, ErrConfigurationMissing) {
		return err
	}
	var berr *BackendError
	if errors.As(err, &berr) {
		return err
	}
	return &BackendError{Op: op, Bucket: bucket, Key: key, Err: err}
}

// ServiceError is a normalized error response from an S3-compatible service.
type ServiceError struct {
	// Code is the S3 error code, e.g. "NoSuchBucket".
	Code string

	// Message is the human readable message from the service.
	Message string

	// StatusCode is the HTTP status returned by the service, 0 if unknown.
	StatusCode int
}

func (e *ServiceError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return e.Code + ": " + e.Message
	case e.Code != "":
		return e.Code
	default:
		return e.Message
	}
}

// Is lets errors.Is match the not-found sentinels against service codes.
func (e *ServiceError) Is(target error) bool {
	switch target {
	case ErrBucketNotFound:
		return e.Code == "NoSuchBucket"
	case ErrKeyNotFound:
		return e.Code == "NoSuchKey" || (e.Code == "NotFound" && e.StatusCode == 404)
	}
	return false
}

// PartialFailureError is returned by a folder delete that removed some
// objects but not all of them. No rollback is attempted. Cause is set when
// listing stopped before the folder was empty; objects past that point were
// not attempted and are not in Failed.
type PartialFailureError struct {
	Prefix  string
	Deleted int
	Failed  []DeleteError
	Cause   error
}

func (e *PartialFailureError) Error() string {
	msg := fmt.Sprintf("partial failure deleting %q: %d deleted, %d failed", e.Prefix, e.Deleted, len(e.Failed))
	if len(e.Failed) > 0 {
		msg += " (" + ListKeys(e.Failed, len(e.Failed)) + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *PartialFailureError) Unwrap() error {
	return e.Cause
}

// FailedKeys returns the keys that could not be deleted.
func (e *PartialFailureError) FailedKeys() []string {
	keys := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		keys[i] = f.Key
	}
	return keys
}

// MaxListedKeys bounds the failed keys spelled out in user-facing messages.
const MaxListedKeys = 10

// ListKeys joins the keys of failed up to limit, then "and N more".
func ListKeys(failed []DeleteError, limit int) string {
	n := min(len(failed), limit)
	keys := make([]string, n)
	for i := range keys {
		keys[i] = failed[i].Key
	}
	s := strings.Join(keys, ", ")
	if len(failed) > n {
		s += fmt.Sprintf(" and %d more", len(failed)-n)
	}
	return s
}
