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
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-s3console/pkg/config"
	"github.com/jeremyhahn/go-s3console/pkg/server"
	"github.com/jeremyhahn/go-s3console/pkg/session"
	"github.com/jeremyhahn/go-s3console/pkg/version"
)

var (
	cfgFile     string
	viperConfig *viper.Viper
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "s3console",
	Short: "A web console for S3-compatible object storage",
	Long: `s3console serves a browser console and a JSON API for browsing S3-compatible
object storage as folders and files.

Each browser session enters its own endpoint and credentials. They are kept
in server memory for the life of the session and are never written to disk.

Supported Storage Backends:
  - s3     : AWS S3 and S3-compatible services (aws-sdk-go-v2)
  - minio  : MinIO and S3-compatible services (minio-go)
  - memory : In-process demo store

Configuration can be provided via:
  - Command-line flags (highest priority)
  - Environment variables (S3CONSOLE_*, e.g. S3CONSOLE_SERVER_PORT)
  - Configuration file (~/.s3console/s3console.yaml, /etc/s3console, ./s3console.yaml)
  - Default values (lowest priority)

Running s3console without a command starts the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		viperConfig, err = config.InitConfig(cfgFile)
		if err != nil {
			return err
		}
		if err := config.BindFlags(viperConfig, cmd.Flags()); err != nil {
			return fmt.Errorf("failed to bind flags: %w", err)
		}
		return nil
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the console server",
	Example: `  s3console serve                                              # Listen on 0.0.0.0:8080
  s3console serve --server.port 9000 --log.level debug         # Custom port and verbose logs
  s3console serve --storage.default-endpoint http://minio:9000 # Prefill the connection form
  s3console serve --server.tls-cert cert.pem --server.tls-key key.pem`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.GetInfo().String())
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: s3console.yaml in ~/.s3console, /etc/s3console or .)")

	// Flag names are config keys so they bind one to one.
	flags.String("server.host", "0.0.0.0", "address to bind")
	flags.Int("server.port", 8080, "port to listen on")
	flags.Int64("server.max-upload-size", server.MaxUploadSize, "maximum request body size in bytes")
	flags.String("server.tls-cert", "", "TLS certificate file")
	flags.String("server.tls-key", "", "TLS private key file")
	flags.String("server.tls-client-ca", "", "CA bundle for client certificate verification")
	flags.StringSlice("server.cors-origins", nil, "origins allowed to call the JSON API")
	flags.Bool("server.rate-limit.enabled", false, "enable per-client rate limiting")
	flags.Duration("session.ttl", 24*time.Hour, "idle session lifetime")
	flags.Int("session.max-sessions", session.DefaultMaxSessions, "sessions kept in memory before the least recently used is dropped")
	flags.Bool("session.secure-cookie", false, "set the Secure attribute on the session cookie")
	flags.String("storage.backend", "s3", "default backend offered by the connection form")
	flags.String("storage.default-endpoint", "https://s3.amazonaws.com", "endpoint prefilled in the connection form")
	flags.String("storage.default-region", "us-east-1", "region used when a connection leaves it empty")
	flags.String("log.level", "info", "log level: debug, info, warn, error")
	flags.String("log.format", "json", "log format: json or text")
	flags.Bool("audit.enabled", true, "write audit events for storage changes")
	flags.Bool("metrics.enabled", true, "expose Prometheus metrics")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
