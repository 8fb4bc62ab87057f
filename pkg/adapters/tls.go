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

package adapters

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrInvalidCertificate is returned when the server key pair cannot be loaded.
	ErrInvalidCertificate = errors.New("invalid certificate")

	// ErrInvalidCAPool is returned when the client CA bundle cannot be loaded.
	ErrInvalidCAPool = errors.New("invalid CA pool")

	// ErrIncompleteKeyPair is returned when only one of certificate and key is set.
	ErrIncompleteKeyPair = errors.New("tls certificate and key must be set together")
)

// ListenerTLS describes HTTPS for the console listener. The zero value
// means plain HTTP.
type ListenerTLS struct {
	// CertFile and KeyFile are PEM files for the server key pair.
	CertFile string
	KeyFile  string

	// ClientCAFile, when set, requires browsers to present a client
	// certificate signed by one of these CAs.
	ClientCAFile string

	// MinVersion defaults to TLS 1.2.
	MinVersion uint16
}

// Enabled reports whether any TLS material is configured.
func (c ListenerTLS) Enabled() bool {
	return c.CertFile != "" || c.KeyFile != ""
}

// Build loads the key pair and returns a *tls.Config. It returns nil, nil
// when TLS is not enabled.
func (c ListenerTLS) Build() (*tls.Config, error) {
	if !c.Enabled() {
		if c.ClientCAFile != "" {
			return nil, ErrIncompleteKeyPair
		}
		return nil, nil
	}
	if c.CertFile == "" || c.KeyFile == "" {
		return nil, ErrIncompleteKeyPair
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
	}

	minVersion := c.MinVersion
	if minVersion == 0 {
		minVersion = tls.VersionTLS12
	}
	cfg := &tls.Config{
		MinVersion:   minVersion,
		Certificates: []tls.Certificate{cert},
	}

	if c.ClientCAFile != "" {
		pool, err := loadCAPool(c.ClientCAFile)
		if err != nil {
			return nil, err
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return cfg, nil
}

func loadCAPool(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCAPool, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, ErrInvalidCAPool
	}
	return pool, nil
}
