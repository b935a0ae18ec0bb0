package tlsbackend

//
// Backend using github.com/bifurcation/mint
//
// The pinned mint speaks a pre-RFC draft of TLS 1.3, so it is only
// expected to interoperate with itself. It is the only backend able to
// send KeyUpdate messages on demand.
//

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/bifurcation/mint"
	"github.com/tlsinterop/tlsinterop/internal/model"
	"github.com/tlsinterop/tlsinterop/internal/pki"
	"github.com/tlsinterop/tlsinterop/internal/shim"
)

var (
	// errMintHandshake wraps the alert returned by a failed mint handshake.
	errMintHandshake = errors.New("mint: handshake failed")

	// errMintHalfClose indicates that the transport cannot shut down
	// the writing direction alone.
	errMintHalfClose = errors.New("mint: transport does not support CloseWrite")
)

// mintSupports returns whether mint supports tc.
func mintSupports(tc model.TestCase) bool {
	switch tc {
	case model.MutualAuthRequestResponse, model.SessionResumption:
		return false
	default:
		return true
	}
}

// mintServer implements [shim.ServerTLS] using mint.
type mintServer struct {
	cert   *mint.Certificate
	logger model.Logger
}

var _ shim.ServerTLS[*mint.Config, *mint.Config] = &mintServer{}

func newMintServer(material *pki.Material, logger model.Logger) (shim.ServerProgram, error) {
	chain, err := pki.ParseChain(material.ServerChainPEM)
	if err != nil {
		return nil, err
	}
	key, err := pki.ParsePrivateKey(material.ServerKeyPEM)
	if err != nil {
		return nil, err
	}
	backend := &mintServer{
		cert:   &mint.Certificate{Chain: chain, PrivateKey: key},
		logger: logger,
	}
	return shim.NewServerProgram[*mint.Config, *mint.Config](backend), nil
}

// ServerConfig implements shim.ServerTLS.
func (b *mintServer) ServerConfig(tc model.TestCase) (*mint.Config, bool, error) {
	if !mintSupports(tc) {
		return nil, false, nil
	}
	config := &mint.Config{
		Certificates: []*mint.Certificate{b.cert},
	}
	return config, true, nil
}

// NewAcceptor implements shim.ServerTLS.
func (b *mintServer) NewAcceptor(config *mint.Config) *mint.Config {
	return config
}

// Accept implements shim.ServerTLS.
func (b *mintServer) Accept(ctx context.Context, config *mint.Config, conn net.Conn) (shim.Session, error) {
	tlsConn := mint.Server(conn, config)
	if alert := tlsConn.Handshake(); alert != mint.AlertNoAlert {
		return nil, fmt.Errorf("%w: alert %v", errMintHandshake, alert)
	}
	b.logger.Infof("%s: handshake done: mint", model.RoleServer)
	return &mintSession{Conn: tlsConn, transport: conn}, nil
}

// mintClient implements [shim.ClientTLS] using mint.
type mintClient struct {
	logger model.Logger
}

var _ shim.ClientTLS[*mint.Config, *mint.Config] = &mintClient{}

func newMintClient(material *pki.Material, logger model.Logger) (shim.ClientProgram, error) {
	return shim.NewClientProgram[*mint.Config, *mint.Config](&mintClient{logger: logger}), nil
}

// ClientConfig implements shim.ClientTLS.
func (b *mintClient) ClientConfig(tc model.TestCase) (*mint.Config, bool, error) {
	if !mintSupports(tc) {
		return nil, false, nil
	}
	return &mint.Config{ServerName: shim.Host}, true, nil
}

// NewConnector implements shim.ClientTLS.
func (b *mintClient) NewConnector(config *mint.Config) *mint.Config {
	return config
}

// Connect implements shim.ClientTLS.
func (b *mintClient) Connect(ctx context.Context, config *mint.Config, conn net.Conn) (shim.Session, error) {
	tlsConn := mint.Client(conn, config)
	if alert := tlsConn.Handshake(); alert != mint.AlertNoAlert {
		return nil, fmt.Errorf("%w: alert %v", errMintHandshake, alert)
	}
	b.logger.Infof("%s: handshake done: mint", model.RoleClient)
	return &mintSession{Conn: tlsConn, transport: conn}, nil
}

// mintSession is a [shim.Session] that can update its keys.
type mintSession struct {
	*mint.Conn

	// transport is the conn below the TLS layer.
	transport net.Conn

	// keyUpdates counts the KeyUpdate messages sent.
	keyUpdates int
}

var (
	_ shim.Session    = &mintSession{}
	_ shim.KeyUpdater = &mintSession{}
)

// SendKeyUpdate implements shim.KeyUpdater.
func (s *mintSession) SendKeyUpdate() error {
	if err := s.Conn.SendKeyUpdate(false); err != nil {
		return err
	}
	s.keyUpdates++
	return nil
}

// KeyUpdatesSent implements shim.KeyUpdater.
func (s *mintSession) KeyUpdatesSent() int {
	return s.keyUpdates
}

// CloseWrite implements shim.Session. Mint cannot send close_notify without
// closing the whole conn, so we only shut down the transport.
func (s *mintSession) CloseWrite() error {
	cw, ok := s.transport.(interface{ CloseWrite() error })
	if !ok {
		return errMintHalfClose
	}
	return cw.CloseWrite()
}
