package tlsbackend

//
// Client backend using gitlab.com/yawning/utls.git
//

import (
	"context"
	"crypto/x509"
	"net"

	"github.com/tlsinterop/tlsinterop/internal/model"
	"github.com/tlsinterop/tlsinterop/internal/pki"
	"github.com/tlsinterop/tlsinterop/internal/shim"
	utls "gitlab.com/yawning/utls.git"
)

// utlsClientHelloID is the browser whose ClientHello we parrot.
var utlsClientHelloID = utls.HelloFirefox_Auto

// utlsClient implements [shim.ClientTLS] with a parroted ClientHello.
type utlsClient struct {
	cert   utls.Certificate
	roots  *x509.CertPool
	logger model.Logger
}

var _ shim.ClientTLS[*utls.Config, *utls.Config] = &utlsClient{}

func newUTLSClient(material *pki.Material, logger model.Logger) (shim.ClientProgram, error) {
	cert, err := utls.X509KeyPair(material.ClientChainPEM, material.ClientKeyPEM)
	if err != nil {
		return nil, err
	}
	pool, err := material.CertPool()
	if err != nil {
		return nil, err
	}
	backend := &utlsClient{cert: cert, roots: pool, logger: logger}
	return shim.NewClientProgram[*utls.Config, *utls.Config](backend), nil
}

// ClientConfig implements shim.ClientTLS.
func (b *utlsClient) ClientConfig(tc model.TestCase) (*utls.Config, bool, error) {
	config := &utls.Config{
		RootCAs:    b.roots,
		ServerName: shim.Host,
	}
	switch tc {
	case model.SessionResumption:
		// the parroted hello does not let us manage tickets
		return nil, false, nil
	case model.MutualAuthRequestResponse:
		config.Certificates = []utls.Certificate{b.cert}
	}
	return config, true, nil
}

// NewConnector implements shim.ClientTLS.
func (b *utlsClient) NewConnector(config *utls.Config) *utls.Config {
	return config
}

// Connect implements shim.ClientTLS. The handshake is interrupted by
// closing conn when ctx is done.
func (b *utlsClient) Connect(ctx context.Context, config *utls.Config, conn net.Conn) (shim.Session, error) {
	uconn := utls.UClient(conn, config, utlsClientHelloID)
	if err := uconn.Handshake(); err != nil {
		return nil, err
	}
	state := uconn.ConnectionState()
	shim.LogHandshake(b.logger, model.RoleClient, state.Version, state.CipherSuite, state.DidResume)
	return &utlsSession{uconn}, nil
}

// utlsSession is a [shim.Session] backed by a [*utls.UConn].
type utlsSession struct {
	*utls.UConn
}

var _ shim.Session = &utlsSession{}
