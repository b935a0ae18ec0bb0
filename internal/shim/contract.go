package shim

import (
	"context"
	"io"
	"net"

	"github.com/tlsinterop/tlsinterop/internal/model"
)

// Session is an established TLS session.
type Session interface {
	io.Reader
	io.Writer

	// CloseWrite sends the TLS close_notify alert and shuts down
	// our writing direction. We may still read.
	CloseWrite() error

	// Close closes the session and the underlying transport.
	Close() error
}

// ServerTLS is the contract of the accepting side of a backend.
type ServerTLS[Config, Acceptor any] interface {
	// ServerConfig returns the configuration for the given test case. The
	// boolean is false when the backend does not support it.
	ServerConfig(tc model.TestCase) (Config, bool, error)

	// NewAcceptor binds an acceptor to the configuration. The acceptor is
	// reused for all the connections of a test case.
	NewAcceptor(config Config) Acceptor

	// Accept performs the server side of the TLS handshake over conn.
	Accept(ctx context.Context, acceptor Acceptor, conn net.Conn) (Session, error)
}

// ClientTLS is the contract of the connecting side of a backend.
type ClientTLS[Config, Connector any] interface {
	// ClientConfig returns the configuration for the given test case. The
	// boolean is false when the backend does not support it.
	ClientConfig(tc model.TestCase) (Config, bool, error)

	// NewConnector binds a connector to the configuration. The connector is
	// reused for all the connections of a test case, so it is where
	// backends keep their session cache.
	NewConnector(config Config) Connector

	// Connect performs the client side of the TLS handshake over conn.
	Connect(ctx context.Context, connector Connector, conn net.Conn) (Session, error)
}

// KeyUpdater is implemented by sessions that can update their traffic keys.
type KeyUpdater interface {
	// SendKeyUpdate sends a KeyUpdate message without requesting the
	// peer to update its own keys.
	SendKeyUpdate() error

	// KeyUpdatesSent returns the number of KeyUpdate messages sent.
	KeyUpdatesSent() int
}

// ResumptionReporter is implemented by sessions that know whether the
// handshake resumed a previous session.
type ResumptionReporter interface {
	DidResume() bool
}

// Capabilities contains the optional capabilities of a [Session]. Nil
// fields mean the session lacks the capability.
type Capabilities struct {
	KeyUpdater         KeyUpdater
	ResumptionReporter ResumptionReporter
}

// DetectCapabilities returns the optional capabilities of sess.
func DetectCapabilities(sess Session) Capabilities {
	var caps Capabilities
	if ku, ok := sess.(KeyUpdater); ok {
		caps.KeyUpdater = ku
	}
	if rr, ok := sess.(ResumptionReporter); ok {
		caps.ResumptionReporter = rr
	}
	return caps
}

// DidResume returns whether the session resumed a previous one, which
// is false when the session cannot tell.
func (c Capabilities) DidResume() bool {
	return c.ResumptionReporter != nil && c.ResumptionReporter.DidResume()
}
