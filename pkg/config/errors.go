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

package config

import "errors"

var (
	// ErrInvalidPort is returned for a port outside 1-65535.
	ErrInvalidPort = errors.New("server.port must be between 1 and 65535")

	// ErrInvalidUploadSize is returned for a non-positive upload cap.
	ErrInvalidUploadSize = errors.New("server.max-upload-size must be positive")

	// ErrInvalidPageSize is returned for a page size outside 1-1000.
	ErrInvalidPageSize = errors.New("storage.page-size must be between 1 and 1000")

	// ErrIncompleteTLS is returned when only one of tls-cert and tls-key is set.
	ErrIncompleteTLS = errors.New("server.tls-cert and server.tls-key must be set together")

	// ErrInvalidSessionTTL is returned for a non-positive session lifetime.
	ErrInvalidSessionTTL = errors.New("session.ttl must be positive")

	// ErrInvalidMaxSessions is returned for a non-positive session cap.
	ErrInvalidMaxSessions = errors.New("session.max-sessions must be positive")

	// ErrInvalidMetricsPath is returned when metrics.path is not absolute.
	ErrInvalidMetricsPath = errors.New("metrics.path must start with /")

	// ErrInvalidRateLimit is returned when the limiter is enabled without a rate.
	ErrInvalidRateLimit = errors.New("server.rate-limit.rps and burst must be positive")

	// ErrInvalidLogFormat is returned for a log format other than json or text.
	ErrInvalidLogFormat = errors.New("log.format must be json or text")
)
