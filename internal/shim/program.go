package shim

import (
	"context"
	"fmt"
	"net"

	"github.com/tlsinterop/tlsinterop/internal/model"
)

// ServerProgram is the type-erased accepting side of a backend.
type ServerProgram interface {
	// Serve accepts [Legs] connections from listener, one after the
	// other, and runs the server side of tc on each of them.
	Serve(ctx context.Context, params *Params, tc model.TestCase, listener net.Listener) error
}

// Dialer dials transport connections.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// ClientProgram is the type-erased connecting side of a backend.
type ClientProgram interface {
	// Connect dials [Legs] connections to address, one after the other,
	// and runs the client side of tc on each of them.
	Connect(ctx context.Context, params *Params, tc model.TestCase, dialer Dialer, address string) error
}

// NewServerProgram returns the [ServerProgram] of a backend.
func NewServerProgram[Config, Acceptor any](backend ServerTLS[Config, Acceptor]) ServerProgram {
	return &serverProgram[Config, Acceptor]{backend}
}

type serverProgram[Config, Acceptor any] struct {
	backend ServerTLS[Config, Acceptor]
}

func (p *serverProgram[Config, Acceptor]) Serve(ctx context.Context, params *Params, tc model.TestCase, listener net.Listener) error {
	config, supported, err := p.backend.ServerConfig(tc)
	if err != nil {
		return err
	}
	if !supported {
		return fmt.Errorf("%w: %s", ErrUnimplemented, tc)
	}
	acceptor := p.backend.NewAcceptor(config)
	for leg := 0; leg < Legs(tc); leg++ {
		conn, err := listener.Accept()
		if err != nil {
			return err
		}
		if err := p.serveConn(ctx, params, tc, leg, acceptor, conn); err != nil {
			return err
		}
	}
	return nil
}

func (p *serverProgram[Config, Acceptor]) serveConn(
	ctx context.Context, params *Params, tc model.TestCase, leg int, acceptor Acceptor, conn net.Conn) error {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()
	sess, err := p.backend.Accept(ctx, acceptor, conn)
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	return RunServerScenario(ctx, params, tc, leg, sess)
}

// NewClientProgram returns the [ClientProgram] of a backend.
func NewClientProgram[Config, Connector any](backend ClientTLS[Config, Connector]) ClientProgram {
	return &clientProgram[Config, Connector]{backend}
}

type clientProgram[Config, Connector any] struct {
	backend ClientTLS[Config, Connector]
}

func (p *clientProgram[Config, Connector]) Connect(
	ctx context.Context, params *Params, tc model.TestCase, dialer Dialer, address string) error {
	config, supported, err := p.backend.ClientConfig(tc)
	if err != nil {
		return err
	}
	if !supported {
		return fmt.Errorf("%w: %s", ErrUnimplemented, tc)
	}
	connector := p.backend.NewConnector(config)
	for leg := 0; leg < Legs(tc); leg++ {
		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			return err
		}
		if err := p.connectConn(ctx, params, tc, leg, connector, conn); err != nil {
			return err
		}
	}
	return nil
}

func (p *clientProgram[Config, Connector]) connectConn(
	ctx context.Context, params *Params, tc model.TestCase, leg int, connector Connector, conn net.Conn) error {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()
	sess, err := p.backend.Connect(ctx, connector, conn)
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	return RunClientScenario(ctx, params, tc, leg, sess)
}
