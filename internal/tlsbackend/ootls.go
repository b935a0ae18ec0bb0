package tlsbackend

//
// Backend using github.com/ooni/oocrypto, a crypto/tls fork
//

import (
	"context"
	"crypto/x509"
	"net"

	ootls "github.com/ooni/oocrypto/tls"
	"github.com/tlsinterop/tlsinterop/internal/model"
	"github.com/tlsinterop/tlsinterop/internal/pki"
	"github.com/tlsinterop/tlsinterop/internal/shim"
)

// ooServer implements [shim.ServerTLS] using oocrypto.
type ooServer struct {
	cert      ootls.Certificate
	clientCAs *x509.CertPool
	logger    model.Logger
}

var _ shim.ServerTLS[*ootls.Config, *ootls.Config] = &ooServer{}

func newOOServer(material *pki.Material, logger model.Logger) (shim.ServerProgram, error) {
	cert, err := ootls.X509KeyPair(material.ServerChainPEM, material.ServerKeyPEM)
	if err != nil {
		return nil, err
	}
	pool, err := material.CertPool()
	if err != nil {
		return nil, err
	}
	backend := &ooServer{cert: cert, clientCAs: pool, logger: logger}
	return shim.NewServerProgram[*ootls.Config, *ootls.Config](backend), nil
}

// ServerConfig implements shim.ServerTLS.
func (b *ooServer) ServerConfig(tc model.TestCase) (*ootls.Config, bool, error) {
	config := &ootls.Config{
		Certificates: []ootls.Certificate{b.cert},
	}
	switch tc {
	case model.LargeDataDownloadWithKeyUpdates:
		// there is no API for sending a KeyUpdate on demand
		return nil, false, nil
	case model.MutualAuthRequestResponse:
		config.ClientAuth = ootls.RequireAndVerifyClientCert
		config.ClientCAs = b.clientCAs
	}
	return config, true, nil
}

// NewAcceptor implements shim.ServerTLS.
func (b *ooServer) NewAcceptor(config *ootls.Config) *ootls.Config {
	return config
}

// Accept implements shim.ServerTLS.
func (b *ooServer) Accept(ctx context.Context, config *ootls.Config, conn net.Conn) (shim.Session, error) {
	tlsConn := ootls.Server(conn, config)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, err
	}
	state := tlsConn.ConnectionState()
	shim.LogHandshake(b.logger, model.RoleServer, state.Version, state.CipherSuite, state.DidResume)
	return &ooSession{tlsConn}, nil
}

// ooClient implements [shim.ClientTLS] using oocrypto.
type ooClient struct {
	cert   ootls.Certificate
	roots  *x509.CertPool
	logger model.Logger
}

var _ shim.ClientTLS[*ootls.Config, *ootls.Config] = &ooClient{}

func newOOClient(material *pki.Material, logger model.Logger) (shim.ClientProgram, error) {
	cert, err := ootls.X509KeyPair(material.ClientChainPEM, material.ClientKeyPEM)
	if err != nil {
		return nil, err
	}
	pool, err := material.CertPool()
	if err != nil {
		return nil, err
	}
	backend := &ooClient{cert: cert, roots: pool, logger: logger}
	return shim.NewClientProgram[*ootls.Config, *ootls.Config](backend), nil
}

// ClientConfig implements shim.ClientTLS.
func (b *ooClient) ClientConfig(tc model.TestCase) (*ootls.Config, bool, error) {
	config := &ootls.Config{
		RootCAs:    b.roots,
		ServerName: shim.Host,
	}
	if tc == model.MutualAuthRequestResponse {
		config.Certificates = []ootls.Certificate{b.cert}
	}
	return config, true, nil
}

// NewConnector implements shim.ClientTLS.
func (b *ooClient) NewConnector(config *ootls.Config) *ootls.Config {
	config = config.Clone()
	config.ClientSessionCache = ootls.NewLRUClientSessionCache(0)
	return config
}

// Connect implements shim.ClientTLS.
func (b *ooClient) Connect(ctx context.Context, config *ootls.Config, conn net.Conn) (shim.Session, error) {
	tlsConn := ootls.Client(conn, config)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, err
	}
	state := tlsConn.ConnectionState()
	shim.LogHandshake(b.logger, model.RoleClient, state.Version, state.CipherSuite, state.DidResume)
	return &ooSession{tlsConn}, nil
}

// ooSession is an oocrypto [shim.Session] that reports resumption.
type ooSession struct {
	*ootls.Conn
}

var (
	_ shim.Session            = &ooSession{}
	_ shim.ResumptionReporter = &ooSession{}
)

// DidResume implements shim.ResumptionReporter.
func (s *ooSession) DidResume() bool {
	return s.ConnectionState().DidResume
}
