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
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// ConsoleContentSecurityPolicy allows the console's inline stylesheet and
// confirmation scripts and nothing from other origins.
const ConsoleContentSecurityPolicy = "default-src 'self'; style-src 'self' 'unsafe-inline'; " +
	"script-src 'self' 'unsafe-inline'; img-src 'self' data:; form-action 'self'; frame-ancestors 'none'"

// SecurityHeadersConfig holds security headers configuration
type SecurityHeadersConfig struct {
	// EnableHSTS enables HTTP Strict Transport Security
	EnableHSTS bool

	// HSTSMaxAge is the max-age for HSTS header (default: 31536000 = 1 year)
	HSTSMaxAge int

	// HSTSIncludeSubdomains includes subdomains in HSTS
	HSTSIncludeSubdomains bool

	// ContentSecurityPolicy sets the CSP header
	ContentSecurityPolicy string

	// CSPExemptPrefixes lists path prefixes served without a CSP, such as
	// the swagger UI which ships its own inline bootstrap
	CSPExemptPrefixes []string

	// XFrameOptions sets the X-Frame-Options header (default: "DENY")
	XFrameOptions string

	// XContentTypeOptions sets the X-Content-Type-Options header (default: "nosniff")
	XContentTypeOptions string

	// ReferrerPolicy sets the Referrer-Policy header (default: "same-origin")
	ReferrerPolicy string

	// CacheControl is set on every response that does not already carry one
	CacheControl string
}

// DefaultSecurityHeadersConfig returns security headers config for the console
func DefaultSecurityHeadersConfig() *SecurityHeadersConfig {
	return &SecurityHeadersConfig{
		EnableHSTS:            false, // Only enable when using TLS
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		ContentSecurityPolicy: ConsoleContentSecurityPolicy,
		CSPExemptPrefixes:     []string{"/swagger/"},
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "same-origin",
		CacheControl:          "no-store",
	}
}

// SecurityHeadersMiddleware creates a Gin middleware that sets security headers
func SecurityHeadersMiddleware(config *SecurityHeadersConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultSecurityHeadersConfig()
	}
	hsts := formatHSTSHeader(config)

	return func(c *gin.Context) {
		h := c.Writer.Header()

		if config.XContentTypeOptions != "" {
			h.Set("X-Content-Type-Options", config.XContentTypeOptions)
		}
		if config.XFrameOptions != "" {
			h.Set("X-Frame-Options", config.XFrameOptions)
		}
		if config.ContentSecurityPolicy != "" && !exempt(c.Request.URL.Path, config.CSPExemptPrefixes) {
			h.Set("Content-Security-Policy", config.ContentSecurityPolicy)
		}
		if config.ReferrerPolicy != "" {
			h.Set("Referrer-Policy", config.ReferrerPolicy)
		}
		if config.CacheControl != "" {
			h.Set("Cache-Control", config.CacheControl)
		}

		// Strict-Transport-Security: Only set if TLS is enabled
		if config.EnableHSTS && c.Request.TLS != nil && hsts != "" {
			h.Set("Strict-Transport-Security", hsts)
		}

		c.Next()
	}
}

func exempt(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// formatHSTSHeader formats the HSTS header value
func formatHSTSHeader(config *SecurityHeadersConfig) string {
	if config.HSTSMaxAge <= 0 {
		return ""
	}
	value := fmt.Sprintf("max-age=%d", config.HSTSMaxAge)
	if config.HSTSIncludeSubdomains {
		value += "; includeSubDomains"
	}
	return value
}
