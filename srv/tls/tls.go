// Package tls serves the web UI over HTTPS, creating a self-signed
// certificate on first start when none is configured.
package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	cryptotls "crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultHosts are the names a generated certificate is valid for.
var DefaultHosts = []string{"localhost", "127.0.0.1", "::1"}

// Config returns the TLS settings the server uses.
func Config() *cryptotls.Config {
	return &cryptotls.Config{
		MinVersion: cryptotls.VersionTLS12,
		CipherSuites: []uint16{
			cryptotls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			cryptotls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			cryptotls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
			cryptotls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
			cryptotls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			cryptotls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		},
	}
}

// ListenAndServeTLS makes sure certFile and keyFile exist and then serves srv
// over HTTPS. srv.TLSConfig is filled in when nil.
func ListenAndServeTLS(srv *http.Server, certFile, keyFile string) error {
	if _, err := EnsureCertificate(certFile, keyFile, DefaultHosts); err != nil {
		return err
	}
	if srv.TLSConfig == nil {
		srv.TLSConfig = Config()
	}
	return srv.ListenAndServeTLS(certFile, keyFile)
}

// EnsureCertificate writes a self-signed certificate for hosts when either
// file is missing, and reports whether it did. An existing pair is only
// checked for being loadable.
func EnsureCertificate(certFile, keyFile string, hosts []string) (bool, error) {
	if fileExists(certFile) && fileExists(keyFile) {
		if _, err := cryptotls.LoadX509KeyPair(certFile, keyFile); err != nil {
			return false, fmt.Errorf("loading certificate: %w", err)
		}
		return false, nil
	}
	if err := generateCertificate(certFile, keyFile, hosts); err != nil {
		return false, fmt.Errorf("generating certificate: %w", err)
	}
	return true, nil
}

func generateCertificate(certFile, keyFile string, hosts []string) error {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("private key: %w", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("serial number: %w", err)
	}

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"Book Writer Development Certificate"},
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return fmt.Errorf("certificate: %w", err)
	}
	privBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return fmt.Errorf("marshal private key: %w", err)
	}

	for _, f := range []string{certFile, keyFile} {
		if err := os.MkdirAll(filepath.Dir(f), 0o755); err != nil {
			return err
		}
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: derBytes})
	if err := os.WriteFile(certFile, certPEM, 0o644); err != nil {
		return err
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privBytes})
	return os.WriteFile(keyFile, keyPEM, 0o600)
}

func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}
