package tlsbackend

//
// Backend using crypto/tls
//

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"

	"github.com/tlsinterop/tlsinterop/internal/model"
	"github.com/tlsinterop/tlsinterop/internal/pki"
	"github.com/tlsinterop/tlsinterop/internal/shim"
)

// stdlibServer implements [shim.ServerTLS] using crypto/tls.
type stdlibServer struct {
	cert      tls.Certificate
	clientCAs *x509.CertPool
	logger    model.Logger
}

var _ shim.ServerTLS[*tls.Config, *tls.Config] = &stdlibServer{}

func newStdlibServer(material *pki.Material, logger model.Logger) (shim.ServerProgram, error) {
	cert, err := tls.X509KeyPair(material.ServerChainPEM, material.ServerKeyPEM)
	if err != nil {
		return nil, err
	}
	pool, err := material.CertPool()
	if err != nil {
		return nil, err
	}
	backend := &stdlibServer{cert: cert, clientCAs: pool, logger: logger}
	return shim.NewServerProgram[*tls.Config, *tls.Config](backend), nil
}

// ServerConfig implements shim.ServerTLS.
func (b *stdlibServer) ServerConfig(tc model.TestCase) (*tls.Config, bool, error) {
	config := &tls.Config{
		Certificates: []tls.Certificate{b.cert},
	}
	switch tc {
	case model.LargeDataDownloadWithKeyUpdates:
		// there is no API for sending a KeyUpdate on demand
		return nil, false, nil
	case model.MutualAuthRequestResponse:
		config.ClientAuth = tls.RequireAndVerifyClientCert
		config.ClientCAs = b.clientCAs
	}
	return config, true, nil
}

// NewAcceptor implements shim.ServerTLS. Session tickets are encrypted
// with keys bound to the config, so reusing it across connections is what
// allows resumption.
func (b *stdlibServer) NewAcceptor(config *tls.Config) *tls.Config {
	return config
}

// Accept implements shim.ServerTLS.
func (b *stdlibServer) Accept(ctx context.Context, config *tls.Config, conn net.Conn) (shim.Session, error) {
	tlsConn := tls.Server(conn, config)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, err
	}
	state := tlsConn.ConnectionState()
	shim.LogHandshake(b.logger, model.RoleServer, state.Version, state.CipherSuite, state.DidResume)
	return &stdlibSession{tlsConn}, nil
}

// stdlibClient implements [shim.ClientTLS] using crypto/tls.
type stdlibClient struct {
	cert   tls.Certificate
	roots  *x509.CertPool
	logger model.Logger
}

var _ shim.ClientTLS[*tls.Config, *tls.Config] = &stdlibClient{}

func newStdlibClient(material *pki.Material, logger model.Logger) (shim.ClientProgram, error) {
	cert, err := tls.X509KeyPair(material.ClientChainPEM, material.ClientKeyPEM)
	if err != nil {
		return nil, err
	}
	pool, err := material.CertPool()
	if err != nil {
		return nil, err
	}
	backend := &stdlibClient{cert: cert, roots: pool, logger: logger}
	return shim.NewClientProgram[*tls.Config, *tls.Config](backend), nil
}

// ClientConfig implements shim.ClientTLS.
func (b *stdlibClient) ClientConfig(tc model.TestCase) (*tls.Config, bool, error) {
	config := &tls.Config{
		RootCAs:    b.roots,
		ServerName: shim.Host,
	}
	if tc == model.MutualAuthRequestResponse {
		config.Certificates = []tls.Certificate{b.cert}
	}
	return config, true, nil
}

// NewConnector implements shim.ClientTLS.
func (b *stdlibClient) NewConnector(config *tls.Config) *tls.Config {
	config = config.Clone()
	config.ClientSessionCache = tls.NewLRUClientSessionCache(0)
	return config
}

// Connect implements shim.ClientTLS.
func (b *stdlibClient) Connect(ctx context.Context, config *tls.Config, conn net.Conn) (shim.Session, error) {
	tlsConn := tls.Client(conn, config)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, err
	}
	state := tlsConn.ConnectionState()
	shim.LogHandshake(b.logger, model.RoleClient, state.Version, state.CipherSuite, state.DidResume)
	return &stdlibSession{tlsConn}, nil
}

// stdlibSession is a crypto/tls [shim.Session] that reports resumption.
type stdlibSession struct {
	*tls.Conn
}

var (
	_ shim.Session            = &stdlibSession{}
	_ shim.ResumptionReporter = &stdlibSession{}
)

// DidResume implements shim.ResumptionReporter.
func (s *stdlibSession) DidResume() bool {
	return s.ConnectionState().DidResume
}
