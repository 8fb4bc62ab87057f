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

package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jeremyhahn/go-s3console/pkg/adapters"
	"github.com/jeremyhahn/go-s3console/pkg/common"
)

// LoggingMiddleware logs incoming requests and their response times
func LoggingMiddleware(logger adapters.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		latency := time.Since(startTime)
		statusCode := c.Writer.Status()

		fields := []adapters.Field{
			{Key: "method", Value: c.Request.Method},
			{Key: "path", Value: common.SanitizeForLog(c.Request.URL.Path)},
			{Key: "status", Value: statusCode},
			{Key: "latency", Value: latency.String()},
			{Key: "client_ip", Value: c.ClientIP()},
			{Key: "bytes", Value: c.Writer.Size()},
		}
		if len(c.Errors) > 0 {
			fields = append(fields, adapters.Field{Key: "error", Value: c.Errors.Last().Error()})
		}

		switch {
		case statusCode >= 500:
			logger.Error(c.Request.Context(), "HTTP request completed", fields...)
		case statusCode >= 400:
			logger.Warn(c.Request.Context(), "HTTP request completed", fields...)
		default:
			logger.Info(c.Request.Context(), "HTTP request completed", fields...)
		}
	}
}

// RecoveryMiddleware turns a handler panic into a logged 500
func RecoveryMiddleware(logger adapters.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.Error(c.Request.Context(), "Panic recovered",
			adapters.Field{Key: "panic", Value: recovered},
			adapters.Field{Key: "path", Value: common.SanitizeForLog(c.Request.URL.Path)},
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   http.StatusText(http.StatusInternalServerError),
			"code":    http.StatusInternalServerError,
			"message": "Internal server error",
		})
	})
}

// RequestSizeLimitMiddleware limits the maximum size of request bodies
func RequestSizeLimitMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPut || c.Request.Method == http.MethodPost {
			if c.Request.ContentLength > maxSize {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
					"error":   http.StatusText(http.StatusRequestEntityTooLarge),
					"code":    http.StatusRequestEntityTooLarge,
					"message": "Request entity too large",
				})
				return
			}

			// Limit the reader for chunked bodies without a Content-Length
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		}

		c.Next()
	}
}
