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

// Package web serves the browser console and its JSON API over gin.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jeremyhahn/go-s3console/pkg/adapters"
	"github.com/jeremyhahn/go-s3console/pkg/audit"
	"github.com/jeremyhahn/go-s3console/pkg/metrics"
	"github.com/jeremyhahn/go-s3console/pkg/server"
	"github.com/jeremyhahn/go-s3console/pkg/server/middleware"
	"github.com/jeremyhahn/go-s3console/pkg/session"
)

// DefaultMaxUploadSize caps request bodies at 1 GiB.
const DefaultMaxUploadSize = server.MaxUploadSize

// Server represents the console HTTP server
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	handler    *Handler
	sessions   *session.MemoryStore
	config     *ServerConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	// Host is the hostname to bind to (default: "0.0.0.0")
	Host string

	// Port is the port to listen on (default: 8080)
	Port int

	// ReadHeaderTimeout bounds the time to read request headers
	ReadHeaderTimeout time.Duration

	// ReadTimeout and WriteTimeout are zero by default so that large
	// uploads and downloads are not cut off
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout time.Duration

	// MaxUploadSize is the maximum request body size in bytes (default: 1 GiB)
	MaxUploadSize int64

	// MaxMultipartMemory is the part of a multipart body kept in memory
	// before spooling to disk (default: 32 MiB)
	MaxMultipartMemory int64

	// TLS enables HTTPS when a key pair is set
	TLS adapters.ListenerTLS

	// EnableRateLimit enables rate limiting middleware
	EnableRateLimit bool

	// RateLimitConfig is the rate limiting configuration
	RateLimitConfig *middleware.RateLimitConfig

	// SecurityHeadersConfig is the security headers configuration
	SecurityHeadersConfig *middleware.SecurityHeadersConfig

	// CORSOrigins enables CORS on the JSON API for these origins
	CORSOrigins []string

	// EnableMetrics exposes Prometheus metrics at MetricsPath
	EnableMetrics bool
	MetricsPath   string

	// Sessions is the session store (default: in-memory with SessionCookie.MaxAge TTL)
	Sessions *session.MemoryStore

	// SessionCookie configures the session cookie
	SessionCookie session.CookieConfig

	// Storage holds connection defaults
	Storage StorageDefaults

	// BackendBuilder builds a backend per request (default: factory.New)
	BackendBuilder BackendBuilder

	// Mode sets the Gin mode: "debug", "release", or "test" (default: "release")
	Mode string

	// Logger is the pluggable logger adapter (default: DefaultLogger)
	Logger adapters.Logger

	// AuditLogger is the audit logger (default: enabled with JSON format)
	AuditLogger audit.AuditLogger

	// EnableAudit enables audit logging (default: true)
	EnableAudit bool
}

// DefaultServerConfig returns a ServerConfig with sensible defaults
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:                  "0.0.0.0",
		Port:                  8080,
		ReadHeaderTimeout:     server.ReadHeaderTimeout,
		IdleTimeout:           server.IdleTimeout,
		MaxUploadSize:         DefaultMaxUploadSize,
		MaxMultipartMemory:    server.MaxMultipartMemory,
		RateLimitConfig:       middleware.DefaultRateLimitConfig(),
		SecurityHeadersConfig: middleware.DefaultSecurityHeadersConfig(),
		EnableMetrics:         true,
		MetricsPath:           "/metrics",
		SessionCookie:         session.CookieConfig{Name: session.DefaultCookieName, MaxAge: session.DefaultTTL},
		Storage: StorageDefaults{
			Backend:        "s3",
			Endpoint:       "https://s3.amazonaws.com",
			Region:         "us-east-1",
			ForcePathStyle: true,
			PageSize:       1000,
		},
		Mode:        gin.ReleaseMode,
		Logger:      adapters.NewDefaultLogger(),
		AuditLogger: audit.NewDefaultAuditLogger(),
		EnableAudit: true,
	}
}

// NewServer creates a new console server
func NewServer(config *ServerConfig) (*Server, error) {
	if config == nil {
		config = DefaultServerConfig()
	}

	// Set defaults for nil fields
	if config.Logger == nil {
		config.Logger = adapters.NewDefaultLogger()
	}
	if config.AuditLogger == nil || !config.EnableAudit {
		config.AuditLogger = audit.NewNoOpAuditLogger()
	}
	if config.Sessions == nil {
		config.Sessions = session.NewMemoryStore(session.WithTTL(config.SessionCookie.MaxAge))
	}
	if config.SessionCookie.MaxAge <= 0 {
		config.SessionCookie.MaxAge = config.Sessions.TTL()
	}
	if config.MaxUploadSize <= 0 {
		config.MaxUploadSize = DefaultMaxUploadSize
	}
	if config.SecurityHeadersConfig == nil {
		config.SecurityHeadersConfig = middleware.DefaultSecurityHeadersConfig()
	}
	if config.MetricsPath == "" {
		config.MetricsPath = "/metrics"
	}

	tlsConfig, err := config.TLS.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS configuration: %w", err)
	}
	if tlsConfig != nil {
		config.SecurityHeadersConfig.EnableHSTS = true
	}

	renderer, err := newPageRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	gin.SetMode(config.Mode)
	router := gin.New()
	router.HTMLRender = renderer
	if config.MaxMultipartMemory > 0 {
		router.MaxMultipartMemory = config.MaxMultipartMemory
	}

	// Middleware order: recovery → request ID → metrics → rate limit →
	// security headers → logging → size limit
	router.Use(middleware.RecoveryMiddleware(config.Logger))
	router.Use(middleware.RequestIDMiddleware())
	if config.EnableMetrics {
		router.Use(metrics.GinMiddleware())
	}
	if config.EnableRateLimit {
		router.Use(middleware.RateLimitMiddleware(config.RateLimitConfig, config.Logger))
	}
	router.Use(middleware.SecurityHeadersMiddleware(config.SecurityHeadersConfig))
	router.Use(middleware.LoggingMiddleware(config.Logger))
	router.Use(middleware.RequestSizeLimitMiddleware(config.MaxUploadSize))

	if config.EnableMetrics {
		router.GET(config.MetricsPath, gin.WrapH(metrics.Handler()))
	}

	handler := NewHandler(config.Sessions, config.Logger, config.Storage, config.BackendBuilder, config.MaxUploadSize)
	app := router.Group("/",
		session.Middleware(config.Sessions, config.SessionCookie),
		audit.AuditMiddleware(config.AuditLogger),
	)
	SetupRoutes(router, app, handler, config.CORSOrigins)

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(config.Host, fmt.Sprint(config.Port)),
		Handler:           router,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
		ReadTimeout:       config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
	}

	return &Server{
		router:     router,
		httpServer: httpServer,
		handler:    handler,
		sessions:   config.Sessions,
		config:     config,
	}, nil
}

// Start listens on the configured address and serves until Shutdown.
// It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln, with TLS when configured.
func (s *Server) Serve(ln net.Listener) error {
	var err error
	if s.httpServer.TLSConfig != nil {
		s.config.Logger.Info(context.Background(), "Starting console server with TLS",
			adapters.Field{Key: "address", Value: ln.Addr().String()},
		)
		// ServeTLS takes empty cert/key params when TLSConfig carries them
		err = s.httpServer.ServeTLS(ln, "", "")
	} else {
		s.config.Logger.Info(context.Background(), "Starting console server",
			adapters.Field{Key: "address", Value: ln.Addr().String()},
		)
		err = s.httpServer.Serve(ln)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.config.Logger.Info(ctx, "Shutting down console server")
	return s.httpServer.Shutdown(ctx)
}

// RunJanitor sweeps expired sessions every interval and publishes the
// session count until ctx is done.
func (s *Server) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = server.SessionSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.sweepSessions(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) sweepSessions(ctx context.Context) {
	if removed := s.sessions.Sweep(); removed > 0 {
		s.config.Logger.Debug(ctx, "Expired sessions removed", adapters.Field{Key: "count", Value: removed})
	}
	metrics.SessionsActive.Set(float64(s.sessions.Len()))
}

// Router returns the underlying Gin router (useful for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Handler returns the HTTP handler
func (s *Server) Handler() *Handler {
	return s.handler
}

// Sessions returns the session store
func (s *Server) Sessions() *session.MemoryStore {
	return s.sessions
}

// Address returns the server address
func (s *Server) Address() string {
	return s.httpServer.Addr
}
