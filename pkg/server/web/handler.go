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
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jeremyhahn/go-s3console/pkg/adapters"
	"github.com/jeremyhahn/go-s3console/pkg/audit"
	"github.com/jeremyhahn/go-s3console/pkg/common"
	"github.com/jeremyhahn/go-s3console/pkg/factory"
	"github.com/jeremyhahn/go-s3console/pkg/metrics"
	"github.com/jeremyhahn/go-s3console/pkg/session"
	"github.com/jeremyhahn/go-s3console/pkg/vfs"
)

// BackendBuilder builds a backend for a session connection.
type BackendBuilder func(ctx context.Context, conn common.Connection) (common.Backend, error)

// StorageDefaults are the values offered by the configuration form and
// applied to connections that leave them out.
type StorageDefaults struct {
	Backend        string
	Endpoint       string
	Region         string
	ForcePathStyle bool
	PageSize       int
}

// Handler serves the console and the JSON API. It keeps no storage state:
// every request builds its backend from the session's connection.
type Handler struct {
	sessions      session.Store
	logger        adapters.Logger
	defaults      StorageDefaults
	newBackend    BackendBuilder
	maxUploadSize int64
}

// NewHandler creates a new Handler instance
func NewHandler(sessions session.Store, logger adapters.Logger, defaults StorageDefaults, newBackend BackendBuilder, maxUploadSize int64) *Handler {
	if logger == nil {
		logger = adapters.NewNoOpLogger()
	}
	if newBackend == nil {
		newBackend = factory.New
	}
	if defaults.Backend == "" {
		defaults.Backend = common.BackendS3
	}
	if defaults.PageSize <= 0 {
		defaults.PageSize = common.MaxPageSize
	}
	return &Handler{
		sessions:      sessions,
		logger:        logger,
		defaults:      defaults,
		newBackend:    newBackend,
		maxUploadSize: maxUploadSize,
	}
}

// connection returns the session's stored connection.
func (h *Handler) connection(c *gin.Context) (common.Connection, error) {
	sess, err := h.sessions.Get(session.ID(c))
	if err != nil || !sess.Configured() {
		return common.Connection{}, common.ErrConfigurationMissing
	}
	return *sess.Connection, nil
}

// adapter builds the virtual filesystem over the session's backend.
func (h *Handler) adapter(c *gin.Context) (*vfs.Adapter, common.Connection, error) {
	conn, err := h.connection(c)
	if err != nil {
		return nil, conn, err
	}
	backend, err := h.newBackend(c.Request.Context(), conn)
	if err != nil {
		return nil, conn, err
	}
	a, err := vfs.New(metrics.InstrumentBackend(backend, conn.BackendType()),
		vfs.WithLogger(h.logger.WithFields(adapters.Field{Key: "backend", Value: conn.BackendType()})),
		vfs.WithPageSize(h.defaults.PageSize),
	)
	return a, conn, err
}

// newConnection fills defaults into user input and validates the result.
// Nothing is sent to the backend.
func (h *Handler) newConnection(req ConfigRequest) (common.Connection, error) {
	conn := common.Connection{
		Backend:        strings.TrimSpace(req.Backend),
		Endpoint:       strings.TrimSpace(req.Endpoint),
		AccessKey:      strings.TrimSpace(req.AccessKey),
		SecretKey:      strings.TrimSpace(req.SecretKey),
		Region:         strings.TrimSpace(req.Region),
		ForcePathStyle: h.defaults.ForcePathStyle,
	}
	if conn.Backend == "" {
		conn.Backend = h.defaults.Backend
	}
	if conn.Region == "" {
		conn.Region = h.defaults.Region
	}
	if req.ForcePathStyle != nil {
		conn.ForcePathStyle = *req.ForcePathStyle
	}

	if !factory.Supported(conn.Backend) {
		return conn, &common.ValidationError{Field: "backend", Message: "unsupported backend " + conn.Backend}
	}
	if err := conn.Validate(); err != nil {
		return conn, err
	}
	if conn.BackendType() != common.BackendMemory {
		if err := common.ValidateEndpoint(conn.Endpoint); err != nil {
			return conn, err
		}
	}
	return conn, nil
}

// clearConnection drops the stored connection. A request without a session
// has nothing to clear.
func (h *Handler) clearConnection(c *gin.Context) error {
	id := session.ID(c)
	if id == "" {
		return nil
	}
	return h.sessions.ClearConnection(id)
}

func (h *Handler) flash(c *gin.Context, kind, message string) {
	if err := h.sessions.AddFlash(session.Ensure(c), session.Flash{Kind: kind, Message: message}); err != nil {
		h.logger.Warn(c.Request.Context(), "Failed to queue flash message", adapters.Err(err))
	}
}

// audit records event with the outcome of err. Redirect responses carry no
// error status, so the result is set here rather than by the middleware.
func (h *Handler) audit(c *gin.Context, event *audit.AuditEvent, err error) {
	switch {
	case err == nil:
		event.Result = audit.ResultSuccess
	case statusForError(err) == http.StatusMultiStatus:
		event.Result = audit.ResultPartial
		event.ErrorMessage = errorMessage(err)
	default:
		event.Result = audit.ResultFailure
		event.ErrorMessage = errorMessage(err)
	}
	audit.Record(c, event)
}

// browseURL is the console page for prefix in bucket.
func browseURL(bucket, prefix string) string {
	u := "/bucket/" + url.PathEscape(bucket)
	if prefix != "" {
		u += "?prefix=" + url.QueryEscape(prefix)
	}
	return u
}

// escapeKey percent-encodes each segment of key and keeps the separators.
func escapeKey(key string) string {
	segs := strings.Split(key, common.Delimiter)
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, common.Delimiter)
}

func downloadURL(bucket, key string) string {
	return "/download/" + url.PathEscape(bucket) + "/" + escapeKey(key)
}

func deleteURL(bucket, key string) string {
	return "/delete/" + url.PathEscape(bucket) + "/" + escapeKey(key)
}

// keyParam returns the wildcard key without its leading slash.
func keyParam(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("key"), "/")
}
