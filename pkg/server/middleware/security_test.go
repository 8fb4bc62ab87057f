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
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serveWithHeaders(config *SecurityHeadersConfig, req *http.Request) *httptest.ResponseRecorder {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware(config))
	router.GET("/*path", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "success"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("sets default security headers", func(t *testing.T) {
		w := serveWithHeaders(nil, httptest.NewRequest("GET", "/bucket/docs", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, ConsoleContentSecurityPolicy, w.Header().Get("Content-Security-Policy"))
		assert.Equal(t, "same-origin", w.Header().Get("Referrer-Policy"))
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		// HSTS should not be set without TLS
		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("skips CSP for exempt prefixes", func(t *testing.T) {
		w := serveWithHeaders(nil, httptest.NewRequest("GET", "/swagger/index.html", nil))

		assert.Empty(t, w.Header().Get("Content-Security-Policy"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	})

	t.Run("sets custom security headers", func(t *testing.T) {
		config := &SecurityHeadersConfig{
			ContentSecurityPolicy: "default-src 'none'",
			XFrameOptions:         "SAMEORIGIN",
			XContentTypeOptions:   "nosniff",
			ReferrerPolicy:        "no-referrer",
		}
		w := serveWithHeaders(config, httptest.NewRequest("GET", "/test", nil))

		assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "default-src 'none'", w.Header().Get("Content-Security-Policy"))
		assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
		assert.Empty(t, w.Header().Get("Cache-Control"))
	})

	t.Run("sets HSTS header when TLS is enabled", func(t *testing.T) {
		config := &SecurityHeadersConfig{
			EnableHSTS:            true,
			HSTSMaxAge:            31536000,
			HSTSIncludeSubdomains: true,
		}
		req := httptest.NewRequest("GET", "/test", nil)
		req.TLS = &tls.ConnectionState{}
		w := serveWithHeaders(config, req)

		assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("does not set HSTS without TLS", func(t *testing.T) {
		config := &SecurityHeadersConfig{EnableHSTS: true, HSTSMaxAge: 60}
		w := serveWithHeaders(config, httptest.NewRequest("GET", "/test", nil))

		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("allows empty header values", func(t *testing.T) {
		w := serveWithHeaders(&SecurityHeadersConfig{}, httptest.NewRequest("GET", "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-Content-Type-Options"))
		assert.Empty(t, w.Header().Get("X-Frame-Options"))
		assert.Empty(t, w.Header().Get("Content-Security-Policy"))
		assert.Empty(t, w.Header().Get("Referrer-Policy"))
	})
}

func TestFormatHSTSHeader(t *testing.T) {
	assert.Equal(t, "max-age=300", formatHSTSHeader(&SecurityHeadersConfig{HSTSMaxAge: 300}))
	assert.Equal(t, "", formatHSTSHeader(&SecurityHeadersConfig{HSTSIncludeSubdomains: true}))
}

func TestDefaultSecurityHeadersConfig(t *testing.T) {
	config := DefaultSecurityHeadersConfig()
	assert.False(t, config.EnableHSTS)
	assert.Equal(t, 31536000, config.HSTSMaxAge)
	assert.True(t, config.HSTSIncludeSubdomains)
	assert.Equal(t, ConsoleContentSecurityPolicy, config.ContentSecurityPolicy)
	assert.Equal(t, []string{"/swagger/"}, config.CSPExemptPrefixes)
	assert.Equal(t, "DENY", config.XFrameOptions)
	assert.Equal(t, "nosniff", config.XContentTypeOptions)
	assert.Equal(t, "same-origin", config.ReferrerPolicy)
	assert.Equal(t, "no-store", config.CacheControl)
}
