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

// Package audit records an audit trail of console actions that change or
// read stored data.
package audit

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jeremyhahn/go-s3console/pkg/common"
)

// EventType represents the type of audit event
type EventType string

const (
	// EventConfigUpdated indicates a session saved new connection settings
	EventConfigUpdated EventType = "CONFIG_UPDATED"

	// EventConfigCleared indicates a session dropped its connection settings
	EventConfigCleared EventType = "CONFIG_CLEARED"

	// EventObjectUploaded indicates a file was uploaded
	EventObjectUploaded EventType = "OBJECT_UPLOADED"

	// EventFolderCreated indicates a folder marker was written
	EventFolderCreated EventType = "FOLDER_CREATED"

	// EventObjectDownloaded indicates an object was streamed to a client
	EventObjectDownloaded EventType = "OBJECT_DOWNLOADED"

	// EventObjectDeleted indicates a single object was deleted
	EventObjectDeleted EventType = "OBJECT_DELETED"

	// EventFolderDeleted indicates every object under a prefix was deleted
	EventFolderDeleted EventType = "FOLDER_DELETED"
)

// Result represents the outcome of an audited operation
type Result string

const (
	// ResultSuccess indicates the operation succeeded
	ResultSuccess Result = "SUCCESS"

	// ResultFailure indicates the operation failed
	ResultFailure Result = "FAILURE"

	// ResultPartial indicates a folder delete that removed some objects but not all
	ResultPartial Result = "PARTIAL"
)

// AuditEvent represents a single audit log entry
type AuditEvent struct {
	// Timestamp when the event occurred
	Timestamp time.Time `json:"timestamp"`

	// EventType categorizes the type of event
	EventType EventType `json:"event_type"`

	// Endpoint is the storage service the session is connected to
	Endpoint string `json:"endpoint,omitempty"`

	// AccessKey is the masked access key of the session
	AccessKey string `json:"access_key,omitempty"`

	// Bucket is the bucket name if applicable
	Bucket string `json:"bucket,omitempty"`

	// Key is the object key or folder prefix if applicable
	Key string `json:"key,omitempty"`

	// Action describes what was attempted
	Action string `json:"action"`

	// Result indicates success or failure
	Result Result `json:"result"`

	// ErrorMessage contains error details if the operation failed
	ErrorMessage string `json:"error_message,omitempty"`

	// IPAddress is the client's IP address
	IPAddress string `json:"ip_address,omitempty"`

	// RequestID uniquely identifies the request
	RequestID string `json:"request_id,omitempty"`

	// Method is the HTTP method
	Method string `json:"method,omitempty"`

	// StatusCode is the HTTP status code
	StatusCode int `json:"status_code,omitempty"`

	// BytesTransferred indicates the amount of data transferred
	BytesTransferred int64 `json:"bytes_transferred,omitempty"`

	// Duration is how long the operation took
	Duration time.Duration `json:"duration,omitempty"`

	// Metadata contains additional event-specific data
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewEvent returns an event for conn with the credentials reduced to the
// endpoint and a masked access key.
func NewEvent(eventType EventType, conn common.Connection, bucket, key string) *AuditEvent {
	return &AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		Endpoint:  conn.Endpoint,
		AccessKey: common.MaskSecret(conn.AccessKey),
		Bucket:    bucket,
		Key:       common.SanitizeForLog(key),
		Action:    actionFor(eventType),
	}
}

func actionFor(eventType EventType) string {
	switch eventType {
	case EventConfigUpdated:
		return "configure"
	case EventConfigCleared:
		return "logout"
	case EventObjectUploaded:
		return "upload_object"
	case EventFolderCreated:
		return "create_folder"
	case EventObjectDownloaded:
		return "download_object"
	case EventObjectDeleted:
		return "delete_object"
	case EventFolderDeleted:
		return "delete_folder"
	}
	return "unknown"
}

// AuditLogger defines the interface for audit logging
type AuditLogger interface {
	// LogEvent writes event as one structured entry. A zero timestamp is set
// to now.
func (a *DefaultAuditLogger) LogEvent(ctx context.Context, event *AuditEvent) error {
	if event == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	e := *event
	if !a.config.IncludeMetadata {
		e.Metadata = nil
	}
	a.logger.LogAttrs(ctx, slog.LevelInfo, "Audit event: "+e.Action, e.LogValue().Group()...)
	return nil
}

// LogValue implements slog.LogValuer. Empty optional fields are omitted.
func (e AuditEvent) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Time("timestamp", e.Timestamp),
		slog.String("event_type", string(e.EventType)),
		slog.String("action", e.Action),
		slog.String("result", string(e.Result)),
	}
	str := func(key, value string) {
		if value != "" {
			attrs = append(attrs, slog.String(key, value))
		}
	}
	str("endpoint", e.Endpoint)
	str("access_key", e.AccessKey)
	str("bucket", e.Bucket)
	str("key", e.Key)
	str("error", e.ErrorMessage)
	str("ip_address", e.IPAddress)
	str("request_id", e.RequestID)
	str("method", e.Method)

	if e.StatusCode > 0 {
		attrs = append(attrs, slog.Int("status_code", e.StatusCode))
	}
	if e.BytesTransferred > 0 {
		attrs = append(attrs, slog.Int64("bytes_transferred", e.BytesTransferred))
	}
	if e.Duration > 0 {
		attrs = append(attrs, slog.Duration("duration", e.Duration))
	}
	if len(e.Metadata) > 0 {
		if b, err := json.Marshal(e.Metadata); err == nil {
			attrs = append(attrs, slog.String("metadata", string(b)))
		}
	}
	return slog.GroupValue(attrs...)
}

// NoOpAuditLogger is an audit logger that discards all events
type NoOpAuditLogger struct{}

// NewNoOpAuditLogger creates a new no-op audit logger
func NewNoOpAuditLogger() AuditLogger {
	return &NoOpAuditLogger{}
}

func (n *NoOpAuditLogger) LogEvent(ctx context.Context, event *AuditEvent) error {
	return nil
}
