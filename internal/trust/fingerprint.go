// Package trust fetches a server's certificate chain out of band so a human
// can confirm it before the first authenticated call. No validation happens
// here; the output is a fingerprint and PEM text for eyeballs, and whether
// to trust them is the user's call.
package trust

import (
	"context"
	"crypto/sha1"
	"crypto/tls"
	"encoding/pem"
	"fmt"
	"net"
	"strings"

	"github.com/covaulthq/covault/internal/cverrors"
	"github.com/covaulthq/covault/internal/logging"
)

// CertificateBundle is the result of one retrieval: the leaf fingerprint
// and the full presented chain, leaf first, as PEM text. It is ephemeral;
// persisting an accepted certificate is the caller's job.
type CertificateBundle struct {
	Fingerprint string
	PEM         string
}

// Service retrieves certificate chains over raw TLS handshakes.
type Service struct {
	dialer *net.Dialer
	logger *logging.Logger
}

// NewService creates a trust service.
func NewService(logger *logging.Logger) *Service {
	return &Service{
		dialer: &net.Dialer{},
		logger: logger,
	}
}

// GetCertificate completes a TLS handshake with host:port, exchanges no
// application data, and returns the presented chain. Verification is
// disabled on purpose: retrieving a self-signed or not-yet-trusted
// certificate for inspection is the whole point of this call. A handshake
// that cannot complete at all returns *cverrors.ConnectionError; there is
// no retry.
func (s *Service) GetCertificate(ctx context.Context, host string, port int) (*CertificateBundle, error) {
	address := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	s.logger.Debug("fetching certificate chain from %s", address)

	conn, err := s.dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, &cverrors.ConnectionError{Host: host, Port: port, Err: err}
	}

	tlsConn := tls.Client(conn, &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: true,
	})
	defer tlsConn.Close()

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, &cverrors.ConnectionError{Host: host, Port: port, Err: err}
	}

	chain := tlsConn.ConnectionState().PeerCertificates
	if len(chain) == 0 {
		return nil, &cverrors.ConnectionError{
			Host: host,
			Port: port,
			Err:  fmt.Errorf("peer presented no certificates"),
		}
	}

	var pemText strings.Builder
	for i, cert := range chain {
		if i > 0 {
			pemText.WriteString("\n")
		}
		pem.Encode(&pemText, &pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	}

	return &CertificateBundle{
		Fingerprint: Fingerprint(chain[0].Raw),
		PEM:         pemText.String(),
	}, nil
}

// Fingerprint computes the display fingerprint over a certificate's DER
// encoding: SHA-1, uppercase hex octets joined by colons. SHA-1 is a
// display convention shared with the tooling this store interoperates with,
// not a security boundary; the user compares the string against one shown
// by the server operator.
func Fingerprint(der []byte) string {
	sum := sha1.Sum(der)
	parts := make([]string, len(sum))
	for i, b := range sum {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, ":")
}
