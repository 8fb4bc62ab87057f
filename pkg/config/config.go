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

// Package config loads console settings with viper.
// Priority: flags > env vars > config file > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-s3console/pkg/adapters"
	"github.com/jeremyhahn/go-s3console/pkg/common"
	"github.com/jeremyhahn/go-s3console/pkg/server"
)

// EnvPrefix is prepended to every environment variable, e.g.
// S3CONSOLE_SERVER_PORT.
const EnvPrefix = "S3CONSOLE"

// Config holds the console configuration.
type Config struct {
	Server  ServerConfig
	Session SessionConfig
	Storage StorageConfig
	Log     LogConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host               string
	Port               int
	ReadHeaderTimeout  time.Duration
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	MaxUploadSize      int64
	MaxMultipartMemory int64
	TLSCert            string
	TLSKey             string
	TLSClientCA        string
	CORSOrigins        []string
	RateLimit          RateLimitConfig
}

// RateLimitConfig configures the request limiter.
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
	PerIP   bool
}

// SessionConfig configures browser sessions.
type SessionConfig struct {
	TTL          time.Duration
	MaxSessions  int
	CookieName   string
	SecureCookie bool
}

// StorageConfig holds the defaults offered by the configuration form.
type StorageConfig struct {
	Backend         string
	DefaultEndpoint string
	DefaultRegion   string
	ForcePathStyle  bool
	PageSize        int
}

// LogConfig configures the application logger.
type LogConfig struct {
	Level  string
	Format string
}

// AuditConfig toggles audit events.
type AuditConfig struct {
	Enabled bool
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Addr returns host:port for the listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read-header-timeout", server.ReadHeaderTimeout)
	v.SetDefault("server.read-timeout", time.Duration(0))
	v.SetDefault("server.write-timeout", time.Duration(0))
	v.SetDefault("server.idle-timeout", server.IdleTimeout)
	v.SetDefault("server.max-upload-size", int64(server.MaxUploadSize))
	v.SetDefault("server.max-multipart-memory", int64(server.MaxMultipartMemory))
	v.SetDefault("server.tls-cert", "")
	v.SetDefault("server.tls-key", "")
	v.SetDefault("server.tls-client-ca", "")
	v.SetDefault("server.cors-origins", []string{})
	v.SetDefault("server.rate-limit.enabled", false)
	v.SetDefault("server.rate-limit.rps", 50.0)
	v.SetDefault("server.rate-limit.burst", 100)
	v.SetDefault("server.rate-limit.per-ip", true)

	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.max-sessions", 10000)
	v.SetDefault("session.cookie-name", "s3console_session")
	v.SetDefault("session.secure-cookie", false)

	v.SetDefault("storage.backend", "s3")
	v.SetDefault("storage.default-endpoint", "https://s3.amazonaws.com")
	v.SetDefault("storage.default-region", common.DefaultRegion)
	v.SetDefault("storage.force-path-style", true)
	v.SetDefault("storage.page-size", common.MaxPageSize)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("audit.enabled", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// InitConfig builds a viper instance with defaults, environment binding and
// the config file. A missing config file is not an error unless cfgFile
// names it explicitly.
func InitConfig(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".s3console"))
		}
		v.AddConfigPath("/etc/s3console")
		v.AddConfigPath(".")
		v.SetConfigName("s3console")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// BindFlags binds command line flags to config keys. Flags are looked up
// by key name; missing flags are skipped.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		err = v.BindPFlag(f.Name, f)
	})
	return err
}

// Load extracts the configuration from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Port:               v.GetInt("server.port"),
			ReadHeaderTimeout:  v.GetDuration("server.read-header-timeout"),
			ReadTimeout:        v.GetDuration("server.read-timeout"),
			WriteTimeout:       v.GetDuration("server.write-timeout"),
			IdleTimeout:        v.GetDuration("server.idle-timeout"),
			MaxUploadSize:      v.GetInt64("server.max-upload-size"),
			MaxMultipartMemory: v.GetInt64("server.max-multipart-memory"),
			TLSCert:            v.GetString("server.tls-cert"),
			TLSKey:             v.GetString("server.tls-key"),
			TLSClientCA:        v.GetString("server.tls-client-ca"),
			CORSOrigins:        v.GetStringSlice("server.cors-origins"),
			RateLimit: RateLimitConfig{
				Enabled: v.GetBool("server.rate-limit.enabled"),
				RPS:     v.GetFloat64("server.rate-limit.rps"),
				Burst:   v.GetInt("server.rate-limit.burst"),
				PerIP:   v.GetBool("server.rate-limit.per-ip"),
			},
		},
		Session: SessionConfig{
			TTL:          v.GetDuration("session.ttl"),
			MaxSessions:  v.GetInt("session.max-sessions"),
			CookieName:   v.GetString("session.cookie-name"),
			SecureCookie: v.GetBool("session.secure-cookie"),
		},
		Storage: StorageConfig{
			Backend:         v.GetString("storage.backend"),
			DefaultEndpoint: v.GetString("storage.default-endpoint"),
			DefaultRegion:   v.GetString("storage.default-region"),
			ForcePathStyle:  v.GetBool("storage.force-path-style"),
			PageSize:        v.GetInt("storage.page-size"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Audit: AuditConfig{
			Enabled: v.GetBool("audit.enabled"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Path:    v.GetString("metrics.path"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail at runtime.
func (c *Config) Validate() error {
	switch {
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	case c.Server.MaxUploadSize <= 0:
		return fmt.Errorf("%w: %d", ErrInvalidUploadSize, c.Server.MaxUploadSize)
	case c.Storage.PageSize <= 0 || c.Storage.PageSize > common.MaxPageSize:
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, c.Storage.PageSize)
	case (c.Server.TLSCert == "") != (c.Server.TLSKey == ""):
		return ErrIncompleteTLS
	case c.Session.TTL <= 0:
		return fmt.Errorf("%w: %s", ErrInvalidSessionTTL, c.Session.TTL)
	case c.Session.MaxSessions <= 0:
		return fmt.Errorf("%w: %d", ErrInvalidMaxSessions, c.Session.MaxSessions)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidMetricsPath, c.Metrics.Path)
	}
	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.RPS <= 0 || c.Server.RateLimit.Burst <= 0) {
		return ErrInvalidRateLimit
	}
	if _, err := adapters.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Log.Format)
	}
	return nil
}
