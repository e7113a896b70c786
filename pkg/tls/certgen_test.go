package tls

import (
	"crypto/x509"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Defaults(t *testing.T) {
	cert, err := Generate(Config{})
	require.NoError(t, err)

	assert.Contains(t, cert.Leaf.DNSNames, "localhost")
	require.Len(t, cert.Leaf.IPAddresses, 2)
	assert.True(t, cert.Leaf.IPAddresses[0].Equal(net.ParseIP("127.0.0.1")))
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), cert.Leaf.NotAfter, time.Minute)
	assert.Contains(t, string(cert.CertPEM), "BEGIN CERTIFICATE")
	assert.Contains(t, string(cert.KeyPEM), "BEGIN EC PRIVATE KEY")
}

func TestGenerate_VerifiesAgainstPool(t *testing.T) {
	cert, err := Generate(Config{Organization: "test", Hosts: []string{"example.test"}})
	require.NoError(t, err)

	_, err = cert.Leaf.Verify(x509.VerifyOptions{
		DNSName: "example.test",
		Roots:   cert.Pool(),
	})
	assert.NoError(t, err)
	assert.Equal(t, "example.test", cert.Leaf.Subject.CommonName)
}

func TestServerConfig(t *testing.T) {
	cert, err := Generate(DefaultConfig())
	require.NoError(t, err)

	cfg := cert.ServerConfig()
	require.Len(t, cfg.Certificates, 1)
	assert.Same(t, cert.Leaf, cfg.Certificates[0].Leaf)
}

func TestWriteFilesAndLoad(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "cert.pem")
	keyPath := filepath.Join(dir, "key.pem")

	cert, err := Generate(DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, cert.WriteFiles(certPath, keyPath))

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(certPath, keyPath)
	require.NoError(t, err)
	assert.True(t, cert.Leaf.Equal(loaded.Leaf))
	assert.True(t, cert.Key.Equal(loaded.Key))
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "cert.pem")
	keyPath := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certPath, []byte("nope"), 0o644))
	require.NoError(t, os.WriteFile(keyPath, []byte("nope"), 0o600))

	_, err := Load(certPath, keyPath)
	assert.ErrorIs(t, err, ErrInvalidPEM)

	_, err = Load(filepath.Join(dir, "missing.pem"), keyPath)
	assert.Error(t, err)
}
