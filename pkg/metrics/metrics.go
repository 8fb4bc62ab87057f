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

// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Storage backend metrics
var (
	BackendOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s3console_backend_operations_total",
			Help: "Total number of storage backend operations",
		},
		[]string{"backend", "operation", "status"},
	)

	BackendOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "s3console_backend_operation_duration_seconds",
			Help:    "Duration of storage backend operations in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		},
		[]string{"backend", "operation"},
	)

	BackendOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s3console_backend_operation_errors_total",
			Help: "Storage backend errors by kind",
		},
		[]string{"backend", "operation", "kind"},
	)

	DeleteBatchKeys = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s3console_delete_batch_keys_total",
			Help: "Keys submitted in multi-object deletes by outcome",
		},
		[]string{"backend", "result"},
	)
)

// Console traffic metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s3console_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "s3console_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	TransferBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s3console_transfer_bytes_total",
			Help: "Bytes streamed through the console",
		},
		[]string{"direction"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "s3console_sessions_active",
			Help: "Number of sessions held by the server",
		},
	)
)
