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

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-s3console/pkg/adapters"
	"github.com/jeremyhahn/go-s3console/pkg/audit"
	"github.com/jeremyhahn/go-s3console/pkg/config"
	"github.com/jeremyhahn/go-s3console/pkg/server"
	"github.com/jeremyhahn/go-s3console/pkg/server/middleware"
	"github.com/jeremyhahn/go-s3console/pkg/server/web"
	"github.com/jeremyhahn/go-s3console/pkg/session"
	"github.com/jeremyhahn/go-s3console/pkg/version"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(viperConfig)
	if err != nil {
		return err
	}

	level, _ := adapters.ParseLevel(cfg.Log.Level) // validated by Load
	logger := adapters.NewLogger(adapters.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	auditLogger := audit.NewAuditLogger(&audit.Config{
		Enabled:         cfg.Audit.Enabled,
		Format:          audit.OutputFormat(cfg.Log.Format),
		Output:          os.Stdout,
		IncludeMetadata: true,
	})

	srv, err := web.NewServer(newServerConfig(cfg, logger, auditLogger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting s3console",
		adapters.Field{Key: "version", Value: version.Get()},
		adapters.Field{Key: "address", Value: srv.Address()},
		adapters.Field{Key: "tls", Value: cfg.Server.TLSCert != ""},
		adapters.Field{Key: "default_backend", Value: cfg.Storage.Backend},
	)

	if config.Watch(viperConfig, logger, func(c *config.Config) {
		if err := config.ApplyLogLevel(logger, c.Log.Level); err != nil {
			logger.Warn(ctx, "Failed to apply log level", adapters.Err(err))
		}
	}) {
		logger.Info(ctx, "Watching config file", adapters.Field{Key: "file", Value: viperConfig.ConfigFileUsed()})
	}

	go srv.RunJanitor(ctx, server.SessionSweepInterval)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// newServerConfig maps the loaded configuration onto the web server.
func newServerConfig(cfg *config.Config, logger adapters.Logger, auditLogger audit.AuditLogger) *web.ServerConfig {
	sc := web.DefaultServerConfig()

	sc.Host = cfg.Server.Host
	sc.Port = cfg.Server.Port
	sc.ReadHeaderTimeout = cfg.Server.ReadHeaderTimeout
	sc.ReadTimeout = cfg.Server.ReadTimeout
	sc.WriteTimeout = cfg.Server.WriteTimeout
	sc.IdleTimeout = cfg.Server.IdleTimeout
	sc.MaxUploadSize = cfg.Server.MaxUploadSize
	sc.MaxMultipartMemory = cfg.Server.MaxMultipartMemory
	sc.TLS = adapters.ListenerTLS{
		CertFile:     cfg.Server.TLSCert,
		KeyFile:      cfg.Server.TLSKey,
		ClientCAFile: cfg.Server.TLSClientCA,
	}
	sc.CORSOrigins = cfg.Server.CORSOrigins

	sc.EnableRateLimit = cfg.Server.RateLimit.Enabled
	sc.RateLimitConfig = middleware.DefaultRateLimitConfig()
	sc.RateLimitConfig.RequestsPerSecond = cfg.Server.RateLimit.RPS
	sc.RateLimitConfig.Burst = cfg.Server.RateLimit.Burst
	sc.RateLimitConfig.PerIP = cfg.Server.RateLimit.PerIP

	sc.EnableMetrics = cfg.Metrics.Enabled
	sc.MetricsPath = cfg.Metrics.Path

	sc.Sessions = session.NewMemoryStore(
		session.WithTTL(cfg.Session.TTL),
		session.WithMaxSessions(cfg.Session.MaxSessions),
	)
	sc.SessionCookie = session.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.SecureCookie,
		MaxAge: cfg.Session.TTL,
	}

	sc.Storage = web.StorageDefaults{
		Backend:        cfg.Storage.Backend,
		Endpoint:       cfg.Storage.DefaultEndpoint,
		Region:         cfg.Storage.DefaultRegion,
		ForcePathStyle: cfg.Storage.ForcePathStyle,
		PageSize:       cfg.Storage.PageSize,
	}

	sc.Logger = logger
	sc.AuditLogger = auditLogger
	sc.EnableAudit = cfg.Audit.Enabled
	return sc
}
