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

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-s3console/pkg/adapters"
	"github.com/jeremyhahn/go-s3console/pkg/audit"
	"github.com/jeremyhahn/go-s3console/pkg/common"
	"github.com/jeremyhahn/go-s3console/pkg/memory"
	"github.com/jeremyhahn/go-s3console/pkg/session"
)

// captureAuditLogger keeps every logged event for assertions.
type captureAuditLogger struct {
	mu     sync.Mutex
	events []*audit.AuditEvent
}

func (l *captureAuditLogger) LogEvent(_ context.Context, event *audit.AuditEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

func (l *captureAuditLogger) last(t *testing.T) *audit.AuditEvent {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	require.NotEmpty(t, l.events, "no audit event recorded")
	return l.events[len(l.events)-1]
}

func (l *captureAuditLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// failingDeletes reports a per-key error for one key in batch deletes.
type failingDeletes struct {
	*memory.Memory
	fail string
}

func (f *failingDeletes) DeleteObjects(ctx context.Context, bucket string, keys []string) ([]common.DeleteError, error) {
	var (
		keep   []string
		failed []common.DeleteError
	)
	for _, k := range keys {
		if k == f.fail {
			failed = append(failed, common.DeleteError{Key: k, Code: "AccessDenied", Message: "Access Denied"})
			continue
		}
		keep = append(keep, k)
	}
	rest, err := f.Memory.DeleteObjects(ctx, bucket, keep)
	if err != nil {
		return nil, err
	}
	return append(failed, rest...), nil
}

// interruptedWalk fails every recursive listing past its first page, which
// is how a folder delete sees a connection drop midway.
type interruptedWalk struct {
	*memory.Memory
}

func (w *interruptedWalk) ListObjects(ctx context.Context, bucket string, opts *common.ListOptions) (*common.ListPage, error) {
	if opts != nil && opts.Delimiter == "" && opts.ContinuationToken != "" {
		return nil, errors.New("connection reset by peer")
	}
	return w.Memory.ListObjects(ctx, bucket, opts)
}

// testClient drives a console server in-process and carries the session
// cookie between requests like a browser.
type testClient struct {
	t      *testing.T
	server *Server
	store  *memory.Memory
	audits *captureAuditLogger
	cookie *http.Cookie
}

func newTestClient(t *testing.T, configure ...func(*ServerConfig)) *testClient {
	t.Helper()
	store := memory.New(memory.WithBuckets("docs"))
	return newTestClientWithBackend(t, store, store, configure...)
}

func newTestClientWithBackend(t *testing.T, store *memory.Memory, backend common.Backend, configure ...func(*ServerConfig)) *testClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	audits := &captureAuditLogger{}
	config := DefaultServerConfig()
	config.Mode = gin.TestMode
	config.Logger = adapters.NewNoOpLogger()
	config.AuditLogger = audits
	config.Sessions = session.NewMemoryStore()
	config.BackendBuilder = func(context.Context, common.Connection) (common.Backend, error) {
		return backend, nil
	}
	for _, fn := range configure {
		fn(config)
	}

	server, err := NewServer(config)
	require.NoError(t, err)
	return &testClient{t: t, server: server, store: store, audits: audits}
}

func (tc *testClient) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	tc.t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tc.cookie != nil {
		req.AddCookie(tc.cookie)
	}
	rec := httptest.NewRecorder()
	tc.server.Router().ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.DefaultCookieName {
			tc.cookie = ck
		}
	}
	return rec
}

func (tc *testClient) get(target string) *httptest.ResponseRecorder {
	return tc.do(http.MethodGet, target, nil, "")
}

func (tc *testClient) postForm(target string, form map[string]string) *httptest.ResponseRecorder {
	values := url.Values{}
	for k, v := range form {
		values.Set(k, v)
	}
	return tc.do(http.MethodPost, target, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded")
}

func (tc *testClient) sendJSON(method, target string, v any) *httptest.ResponseRecorder {
	tc.t.Helper()
	b, err := json.Marshal(v)
	require.NoError(tc.t, err)
	return tc.do(method, target, bytes.NewReader(b), "application/json")
}

// upload posts a multipart form with one file part named "file".
func (tc *testClient) upload(target, prefix, filename string, content []byte) *httptest.ResponseRecorder {
	tc.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if prefix != "" {
		require.NoError(tc.t, w.WriteField("prefix", prefix))
	}
	part, err := w.CreateFormFile("file", filename)
	require.NoError(tc.t, err)
	_, err = part.Write(content)
	require.NoError(tc.t, err)
	require.NoError(tc.t, w.Close())
	return tc.do(http.MethodPost, target, &buf, w.FormDataContentType())
}

// configure stores a memory backend connection in the session.
func (tc *testClient) configure() {
	tc.t.Helper()
	rec := tc.sendJSON(http.MethodPut, "/api/v1/config", ConfigRequest{Backend: common.BackendMemory})
	require.Equal(tc.t, http.StatusOK, rec.Code, rec.Body.String())
}

// flashes pops the pending flash messages of the client's session.
func (tc *testClient) flashes() []session.Flash {
	tc.t.Helper()
	require.NotNil(tc.t, tc.cookie)
	flashes, err := tc.server.Sessions().PopFlashes(tc.cookie.Value)
	require.NoError(tc.t, err)
	return flashes
}

func (tc *testClient) putObject(key, content string) {
	tc.t.Helper()
	require.NoError(tc.t, tc.store.PutObject(context.Background(), "docs", key,
		strings.NewReader(content), int64(len(content)), "text/plain"))
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
