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

package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jeremyhahn/go-s3console/pkg/server/middleware"
)

// Context keys for storing audit logger and request info
type contextKey string

const (
	// AuditLoggerKey is the context key for the audit logger
	AuditLoggerKey contextKey = "audit_logger"

	// pendingEventKey is the gin key holding the event recorded by a handler
	pendingEventKey = "audit_event"
)

// WithAuditLogger returns a copy of ctx carrying logger
func WithAuditLogger(ctx context.Context, logger AuditLogger) context.Context {
	return context.WithValue(ctx, AuditLoggerKey, logger)
}

// GetAuditLogger retrieves the audit logger from the context
func GetAuditLogger(ctx context.Context) AuditLogger {
	if logger, ok := ctx.Value(AuditLoggerKey).(AuditLogger); ok {
		return logger
	}
	return NewNoOpAuditLogger()
}

// Record attaches event to the request. AuditMiddleware completes it with
// request details and logs it once the handler returns. A later call
// replaces an earlier one.
func Record(c *gin.Context, event *AuditEvent) {
	c.Set(pendingEventKey, event)
}

// Recorded returns the event attached to the request, if any.
func Recorded(c *gin.Context) (*AuditEvent, bool) {
	v, ok := c.Get(pendingEventKey)
	if !ok {
		return nil, false
	}
	event, ok := v.(*AuditEvent)
	return event, ok
}

// AuditMiddleware creates a Gin middleware for audit logging. Requests whose
// handler did not Record an event are not audited.
func AuditMiddleware(auditLogger AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Request = c.Request.WithContext(WithAuditLogger(c.Request.Context(), auditLogger))

		c.Next()

		event, ok := Recorded(c)
		if !ok {
			return
		}

		statusCode := c.Writer.Status()
		event.Method = c.Request.Method
		event.StatusCode = statusCode
		event.IPAddress = c.ClientIP()
		event.Duration = time.Since(startTime)
		event.RequestID = requestID(c)

		if event.Result == "" {
			switch {
			case statusCode == http.StatusMultiStatus:
				event.Result = ResultPartial
			case statusCode >= 400:
				event.Result = ResultFailure
			default:
				event.Result = ResultSuccess
			}
		}
		if event.ErrorMessage == "" && event.Result != ResultSuccess && len(c.Errors) > 0 {
			event.ErrorMessage = c.Errors.Last().Error()
		}

		_ = auditLogger.LogEvent(c.Request.Context(), event) // #nosec G104 -- Audit logging errors are logged internally, should not block operations
	}
}

// requestID prefers the ID assigned by the request ID middleware, then the
// response header, and generates one as a last resort.
func requestID(c *gin.Context) string {
	if id := middleware.RequestID(c); id != "" {
		return id
	}
	if id := c.Writer.Header().Get(middleware.RequestIDHeader); id != "" {
		return id
	}
	return uuid.New().String()
}
