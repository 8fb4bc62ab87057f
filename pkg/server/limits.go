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

// Package server holds the limits shared by the console server and its
// command.
package server

import "time"

// Server-wide limits and configuration constants
const (
	// MaxUploadSize is the default cap on a request body in bytes (1 GiB)
	MaxUploadSize = 1 << 30

	// MaxMultipartMemory is the part of a multipart upload kept in memory
	// before the rest is spooled to a temporary file (32 MiB)
	MaxMultipartMemory = 32 << 20

	// ReadHeaderTimeout bounds the time to read request headers
	ReadHeaderTimeout = 10 * time.Second

	// IdleTimeout closes keep-alive connections without traffic
	IdleTimeout = 120 * time.Second

	// ShutdownTimeout is how long in-flight transfers get to finish on shutdown
	ShutdownTimeout = 30 * time.Second

	// SessionSweepInterval is how often expired sessions are removed
	SessionSweepInterval = time.Minute
)
