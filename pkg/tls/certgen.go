package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"time"
)

// ErrInvalidPEM is returned when PEM input holds no block of the expected
// type.
var ErrInvalidPEM = errors.New("invalid PEM data")

// Config describes a certificate to generate.
type Config struct {
	Organization string
	// Hosts are DNS names or IP addresses the certificate is valid for.
	Hosts    []string
	ValidFor time.Duration
}

// DefaultConfig is valid for one day on the loopback interfaces.
func DefaultConfig() Config {
	return Config{
		Organization: "ersatz",
		Hosts:        []string{"localhost", "127.0.0.1", "::1"},
		ValidFor:     24 * time.Hour,
	}
}

// Certificate is a generated key pair.
type Certificate struct {
	Leaf    *x509.Certificate
	Key     *ecdsa.PrivateKey
	CertPEM []byte
	KeyPEM  []byte
}

// Generate creates a self-signed P-256 certificate for cfg.
func Generate(cfg Config) (*Certificate, error) {
	if len(cfg.Hosts) == 0 {
		cfg.Hosts = DefaultConfig().Hosts
	}
	if cfg.ValidFor <= 0 {
		cfg.ValidFor = DefaultConfig().ValidFor
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("generating serial number: %w", err)
	}

	now := time.Now()
	tmpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{Organization: []string{cfg.Organization}, CommonName: cfg.Hosts[0]},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(cfg.ValidFor),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	for _, h := range cfg.Hosts {
		if ip := net.ParseIP(h); ip != nil {
			tmpl.IPAddresses = append(tmpl.IPAddresses, ip)
		} else {
			tmpl.DNSNames = append(tmpl.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("creating certificate: %w", err)
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("parsing certificate: %w", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshaling key: %w", err)
	}

	return &Certificate{
		Leaf:    leaf,
		Key:     key,
		CertPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		KeyPEM:  pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}),
	}, nil
}

// TLS returns the pair in crypto/tls form.
func (c *Certificate) TLS() tls.Certificate {
	return tls.Certificate{
		Certificate: [][]byte{c.Leaf.Raw},
		PrivateKey:  c.Key,
		Leaf:        c.Leaf,
	}
}

// ServerConfig returns a server configuration presenting c.
func (c *Certificate) ServerConfig() *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{c.TLS()},
		MinVersion:   tls.VersionTLS12,
	}
}

// Pool returns a pool trusting c, for clients talking to a server that
// presents it.
func (c *Certificate) Pool() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(c.Leaf)
	return pool
}

// WriteFiles stores the certificate and key as PEM files. The key file is
// readable only by its owner.
func (c *Certificate) WriteFiles(certPath, keyPath string) error {
	if err := os.WriteFile(certPath, c.CertPEM, 0o644); err != nil {
		return fmt.Errorf("writing certificate: %w", err)
	}
	if err := os.WriteFile(keyPath, c.KeyPEM, 0o600); err != nil {
		_ = os.Remove(certPath)
		return fmt.Errorf("writing key: %w", err)
	}
	return nil
}

// Load reads a certificate and EC key written by WriteFiles.
func Load(certPath, keyPath string) (*Certificate, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("reading certificate: %w", err)
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("reading key: %w", err)
	}

	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("%w: %s has no certificate", ErrInvalidPEM, certPath)
	}
	leaf, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing certificate: %w", err)
	}
	block, _ = pem.Decode(keyPEM)
	if block == nil || block.Type != "EC PRIVATE KEY" {
		return nil, fmt.Errorf("%w: %s has no EC private key", ErrInvalidPEM, keyPath)
	}
	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing key: %w", err)
	}
	return &Certificate{Leaf: leaf, Key: key, CertPEM: certPEM, KeyPEM: keyPEM}, nil
}
