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
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"testing"
	"time"
)

func TestNewClientTLSConfig(t *testing.T) {
	config := NewClientTLSConfig()

	if config.MinVersion != tls.VersionTLS12 {
		t.Errorf("Default MinVersion = %v, want TLS 1.2", config.MinVersion)
	}

	if config.InsecureSkipVerify {
		t.Error("InsecureSkipVerify should default to false")
	}
}

func TestClientTLSConfig_Chaining(t *testing.T) {
	config := NewClientTLSConfig().
		WithInsecureSkipVerify(true).
		WithCACertPEM([]byte("ca")).
		WithMinVersion(tls.VersionTLS13)

	if !config.InsecureSkipVerify {
		t.Error("InsecureSkipVerify should be true")
	}
	if string(config.CACertPEM) != "ca" {
		t.Error("CACertPEM not set correctly")
	}
	if config.MinVersion != tls.VersionTLS13 {
		t.Errorf("MinVersion = %v, want TLS 1.3", config.MinVersion)
	}
}

func TestClientTLSConfig_Build_Defaults(t *testing.T) {
	tlsConfig, err := NewClientTLSConfig().Build()
	if err != nil {
		t.Fatalf("Build() error = %v, want nil", err)
	}
	if tlsConfig == nil {
		t.Fatal("Build() should return non-nil config")
	}
	if tlsConfig.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %v, want TLS 1.2", tlsConfig.MinVersion)
	}
	if tlsConfig.RootCAs != nil {
		t.Error("RootCAs should be nil (system roots) without a CA bundle")
	}
}

func TestClientTLSConfig_Build_ZeroValue(t *testing.T) {
	// A zero-value struct still yields a safe minimum version.
	config := &ClientTLSConfig{}
	tlsConfig, err := config.Build()
	if err != nil {
		t.Fatalf("Build() error = %v, want nil", err)
	}
	if tlsConfig.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %v, want TLS 1.2", tlsConfig.MinVersion)
	}
}

func TestClientTLSConfig_Build_Insecure(t *testing.T) {
	tlsConfig, err := NewClientTLSConfig().WithInsecureSkipVerify(true).Build()
	if err != nil {
		t.Fatalf("Build() error = %v, want nil", err)
	}
	if !tlsConfig.InsecureSkipVerify {
		t.Error("Build() should propagate InsecureSkipVerify")
	}
}

func TestClientTLSConfig_Build_WithValidCAPEM(t *testing.T) {
	caPEM, err := generateTestCAPEM()
	if err != nil {
		t.Fatalf("Failed to generate test CA: %v", err)
	}

	tlsConfig, err := NewClientTLSConfig().WithCACertPEM(caPEM).Build()
	if err != nil {
		t.Fatalf("Build() error = %v, want nil", err)
	}
	if tlsConfig.RootCAs == nil {
		t.Error("Build() should set RootCAs when a CA bundle is provided")
	}
}

func TestClientTLSConfig_Build_WithInvalidCAPEM(t *testing.T) {
	_, err := NewClientTLSConfig().WithCACertPEM([]byte("not a pem")).Build()
	if err == nil {
		t.Error("Build() should fail with invalid CA PEM")
	}
	if !errors.Is(err, ErrInvalidCACertificate) {
		t.Errorf("Build() error = %v, want ErrInvalidCACertificate", err)
	}
}

// generateTestCAPEM creates a self-signed CA certificate for testing.
func generateTestCAPEM() ([]byte, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}

	notBefore := time.Now()
	notAfter := notBefore.Add(24 * time.Hour)

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, err
	}

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"Test Org"},
			CommonName:   "Test CA",
		},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return nil, err
	}

	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: derBytes}), nil
}
