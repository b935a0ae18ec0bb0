// Package testingx contains helpers for writing tests: a throwaway PKI
// and an in-process network.
package testingx

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/tlsinterop/tlsinterop/internal/pki"
	"github.com/tlsinterop/tlsinterop/internal/runtimex"
)

// PKI is a throwaway certificate authority with a server identity valid
// for localhost and a client identity for mutual authentication.
type PKI struct {
	// Dir is the directory containing the PEM files.
	Dir string

	// Material is the content of the PEM files.
	Material *pki.Material
}

// MustNewPKI generates a new [PKI] and writes it inside dir using the
// file names that [pki.Load] expects.
func MustNewPKI(dir string) *PKI {
	now := time.Now()

	caKey := runtimex.Try1(ecdsa.GenerateKey(elliptic.P256(), rand.Reader))
	caTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "tlsinterop test CA"},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	caDER := runtimex.Try1(x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &caKey.PublicKey, caKey))
	caCert := runtimex.Try1(x509.ParseCertificate(caDER))

	serverKey := runtimex.Try1(ecdsa.GenerateKey(elliptic.P256(), rand.Reader))
	serverTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "localhost"},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}
	serverDER := runtimex.Try1(x509.CreateCertificate(rand.Reader, serverTemplate, caCert, &serverKey.PublicKey, caKey))

	clientKey := runtimex.Try1(ecdsa.GenerateKey(elliptic.P256(), rand.Reader))
	clientTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(3),
		Subject:      pkix.Name{CommonName: "tlsinterop test client"},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}
	clientDER := runtimex.Try1(x509.CreateCertificate(rand.Reader, clientTemplate, caCert, &clientKey.PublicKey, caKey))

	material := &pki.Material{
		CACertPEM:      encodeCertificates(caDER),
		ServerChainPEM: encodeCertificates(serverDER, caDER),
		ServerKeyPEM:   encodePrivateKey(serverKey),
		ClientChainPEM: encodeCertificates(clientDER, caDER),
		ClientKeyPEM:   encodePrivateKey(clientKey),
	}
	for name, data := range map[string][]byte{
		pki.CACertFile:      material.CACertPEM,
		pki.ServerChainFile: material.ServerChainPEM,
		pki.ServerKeyFile:   material.ServerKeyPEM,
		pki.ClientChainFile: material.ClientChainPEM,
		pki.ClientKeyFile:   material.ClientKeyPEM,
	} {
		runtimex.PanicOnError(os.WriteFile(filepath.Join(dir, name), data, 0600), "os.WriteFile failed")
	}
	return &PKI{Dir: dir, Material: material}
}

func encodeCertificates(ders ...[]byte) (out []byte) {
	for _, der := range ders {
		out = append(out, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})...)
	}
	return
}

func encodePrivateKey(key *ecdsa.PrivateKey) []byte {
	der := runtimex.Try1(x509.MarshalPKCS8PrivateKey(key))
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}
