// Package pki loads the PEM material shared by all TLS backends.
package pki

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// CertDirEnv overrides [DefaultCertDir].
	CertDirEnv = "TLSINTEROP_CERT_DIR"

	// DefaultCertDir is the directory containing the PEM files.
	DefaultCertDir = "../certificates"
)

// File names inside the certificates directory.
const (
	CACertFile      = "ca-cert.pem"
	ServerChainFile = "server-chain.pem"
	ServerKeyFile   = "server-key.pem"
	ClientChainFile = "client-cert.pem"
	ClientKeyFile   = "client-key.pem"
)

// ErrNoPEMBlock indicates that a file did not contain the expected PEM block.
var ErrNoPEMBlock = errors.New("pki: no PEM block")

// Material is the PEM encoded trust anchor plus the server and client identities.
type Material struct {
	CACertPEM      []byte
	ServerChainPEM []byte
	ServerKeyPEM   []byte
	ClientChainPEM []byte
	ClientKeyPEM   []byte
}

// CertDir returns the certificates directory honouring [CertDirEnv].
func CertDir() string {
	if dir := os.Getenv(CertDirEnv); dir != "" {
		return dir
	}
	return DefaultCertDir
}

// Load reads the [Material] from dir.
func Load(dir string) (*Material, error) {
	m := &Material{}
	for name, dest := range map[string]*[]byte{
		CACertFile:      &m.CACertPEM,
		ServerChainFile: &m.ServerChainPEM,
		ServerKeyFile:   &m.ServerKeyPEM,
		ClientChainFile: &m.ClientChainPEM,
		ClientKeyFile:   &m.ClientKeyPEM,
	} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		*dest = data
	}
	return m, nil
}

// CertPool returns a pool containing the CA certificate.
func (m *Material) CertPool() (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(m.CACertPEM) {
		return nil, fmt.Errorf("%w: %s", ErrNoPEMBlock, CACertFile)
	}
	return pool, nil
}

// ParseChain decodes all the CERTIFICATE blocks in data.
func ParseChain(data []byte) ([]*x509.Certificate, error) {
	var chain []*x509.Certificate
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, err
		}
		chain = append(chain, cert)
	}
	if len(chain) <= 0 {
		return nil, fmt.Errorf("%w: CERTIFICATE", ErrNoPEMBlock)
	}
	return chain, nil
}

// ParsePrivateKey decodes the first private key block in data. PKCS8 is
// tried first, then the legacy PKCS1 and SEC1 encodings.
func ParsePrivateKey(data []byte) (crypto.Signer, error) {
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return nil, fmt.Errorf("%w: PRIVATE KEY", ErrNoPEMBlock)
		}
		switch block.Type {
		case "PRIVATE KEY":
			key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, err
			}
			signer, ok := key.(crypto.Signer)
			if !ok {
				return nil, fmt.Errorf("pki: unsupported key type %T", key)
			}
			return signer, nil
		case "RSA PRIVATE KEY":
			return x509.ParsePKCS1PrivateKey(block.Bytes)
		case "EC PRIVATE KEY":
			return x509.ParseECPrivateKey(block.Bytes)
		}
	}
}
