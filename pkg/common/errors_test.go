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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackendError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, NewBackendError("list", "b", "", nil))
	})

	t.Run("wraps service errors", func(t *testing.T) {
		svc := &ServiceError{Code: "AccessDenied", Message: "Access Denied", StatusCode: 403}
		err := NewBackendError("list", "photos", "", svc)

		var berr *BackendError
		require.ErrorAs(t, err, &berr)
		assert.Equal(t, "list", berr.Op)
		assert.Equal(t, "photos", berr.Bucket)
		assert.Equal(t, "AccessDenied: Access Denied", berr.Detail())
		assert.Contains(t, err.Error(), "backend error: list photos")

		var got *ServiceError
		require.ErrorAs(t, err, &got)
		assert.Equal(t, 403, got.StatusCode)
	})

	t.Run("validation errors pass through", func(t *testing.T) {
		verr := &ValidationError{Field: "key", Message: "bad"}
		assert.Same(t, verr, NewBackendError("get", "b", "k", verr))
	})

	t.Run("configuration errors pass through", func(t *testing.T) {
		err := fmt.Errorf("%w: %w", ErrConfigurationMissing, ErrEndpointNotSet)
		assert.Equal(t, err, NewBackendError("get", "b", "k", err))
	})

	t.Run("no double wrapping", func(t *testing.T) {
		inner := NewBackendError("get", "b", "k", errors.New("boom"))
		outer := NewBackendError("download", "b", "k", inner)
		assert.Same(t, inner, outer)
	})

	t.Run("key is included", func(t *testing.T) {
		err := NewBackendError("get", "b", "dir/file.txt", errors.New("boom"))
		assert.Equal(t, "backend error: get b/dir/file.txt: boom", err.Error())
	})
}

func TestServiceError_Is(t *testing.T) {
	assert.ErrorIs(t, &ServiceError{Code: "NoSuchBucket"}, ErrBucketNotFound)
	assert.ErrorIs(t, &ServiceError{Code: "NoSuchKey"}, ErrKeyNotFound)
	assert.ErrorIs(t, &ServiceError{Code: "NotFound", StatusCode: 404}, ErrKeyNotFound)
	assert.NotErrorIs(t, &ServiceError{Code: "AccessDenied"}, ErrKeyNotFound)

	wrapped := NewBackendError("get", "b", "k", &ServiceError{Code: "NoSuchKey"})
	assert.ErrorIs(t, wrapped, ErrKeyNotFound)
}

func TestServiceError_Error(t *testing.T) {
	assert.Equal(t, "SlowDown", (&ServiceError{Code: "SlowDown"}).Error())
	assert.Equal(t, "timeout", (&ServiceError{Message: "timeout"}).Error())
}

func TestPartialFailureError(t *testing.T) {
	err := &PartialFailureError{
		Prefix:  "docs/",
		Deleted: 3,
		Failed: []DeleteError{
			{Key: "docs/a.txt", Code: "AccessDenied", Message: "denied"},
			{Key: "docs/b.txt", Message: "timeout"},
		},
	}

	assert.Equal(t, []string{"docs/a.txt", "docs/b.txt"}, err.FailedKeys())
	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, `partial failure deleting "docs/"`))
	assert.Contains(t, msg, "3 deleted, 2 failed")
	assert.Contains(t, msg, "docs/a.txt, docs/b.txt")
}

func TestPartialFailureError_Cause(t *testing.T) {
	cause := NewBackendError("list", "docs", "logs/", errors.New("connection reset"))
	err := &PartialFailureError{Prefix: "logs/", Deleted: 4, Cause: cause}

	assert.Equal(t, `partial failure deleting "logs/": 4 deleted, 0 failed: backend error: list docs/logs/: connection reset`, err.Error())

	var berr *BackendError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, "list", berr.Op)
	assert.Nil(t, (&PartialFailureError{}).Unwrap())
}

func TestBackendError_DetailListsFailedKeys(t *testing.T) {
	err := &BackendError{
		Op:  "delete",
		Err: &ServiceError{Code: "AccessDenied", Message: "denied"},
	}
	for i := 0; i < 12; i++ {
		err.Failed = append(err.Failed, DeleteError{Key: fmt.Sprintf("k%02d", i)})
	}

	assert.Equal(t, "AccessDenied: denied (12 could not be deleted: "+
		"k00, k01, k02, k03, k04, k05, k06, k07, k08, k09 and 2 more)", err.Detail())
}

func TestListKeys(t *testing.T) {
	failed := []DeleteError{{Key: "a"}, {Key: "b"}, {Key: "c"}}
	tests := []struct {
		limit int
		want  string
	}{
		{3, "a, b, c"},
		{5, "a, b, c"},
		{2, "a, b and 1 more"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ListKeys(failed, tt.limit), "limit %d", tt.limit)
	}
	assert.Empty(t, ListKeys(nil, MaxListedKeys))
}
