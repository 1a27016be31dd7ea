// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-onedatafs.
//
// go-onedatafs is dual-licensed:
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
)

var (
	// ErrInvalidCACertificate is returned when a CA bundle cannot be parsed.
	ErrInvalidCACertificate = errors.New("invalid CA certificate")
)

// ClientTLSConfig holds TLS settings for outbound connections to Onezone
// and Oneprovider endpoints. Both services always speak HTTPS; deployments
// with self-signed certificates either register their CA bundle here or
// disable verification.
type ClientTLSConfig struct {
	// InsecureSkipVerify disables certificate verification entirely.
	InsecureSkipVerify bool

	// CACertPEM is an additional CA bundle in PEM format, appended to the
	// system roots.
	CACertPEM []byte

	// MinVersion specifies the minimum TLS version (default: TLS 1.2).
	MinVersion uint16
}

// NewClientTLSConfig creates a client TLS configuration with secure defaults.
func NewClientTLSConfig() *ClientTLSConfig {
	return &ClientTLSConfig{
		MinVersion: tls.VersionTLS12,
	}
}

// WithInsecureSkipVerify disables certificate verification (use with caution).
func (c *ClientTLSConfig) WithInsecureSkipVerify(skip bool) *ClientTLSConfig {
	c.InsecureSkipVerify = skip
	return c
}

// WithCACertPEM adds a CA bundle from PEM data.
func (c *ClientTLSConfig) WithCACertPEM(caPEM []byte) *ClientTLSConfig {
	c.CACertPEM = caPEM
	return c
}

// WithMinVersion sets the minimum TLS version.
func (c *ClientTLSConfig) WithMinVersion(version uint16) *ClientTLSConfig {
	c.MinVersion = version
	return c
}

// Build creates a *tls.Config from the ClientTLSConfig.
func (c *ClientTLSConfig) Build() (*tls.Config, error) {
	minVersion := c.MinVersion
	if minVersion == 0 {
		minVersion = tls.VersionTLS12
	}

	config := &tls.Config{
		MinVersion:         minVersion,
		InsecureSkipVerify: c.InsecureSkipVerify, // #nosec G402 -- Configurable option for self-signed deployments, defaults to false
	}

	if len(c.CACertPEM) > 0 {
		pool, err := x509.SystemCertPool()
		if err != nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(c.CACertPEM) {
			return nil, ErrInvalidCACertificate
		}
		config.RootCAs = pool
	}

	return config, nil
}
