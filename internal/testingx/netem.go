package testingx

import (
	"net"
	"strconv"

	"github.com/ooni/netem"
	"github.com/tlsinterop/tlsinterop/internal/model"
	"github.com/tlsinterop/tlsinterop/internal/runtimex"
)

// Addresses of the hosts attached to a [StarNetwork].
const (
	StarNetworkServerAddress = "10.0.0.1"
	StarNetworkClientAddress = "10.0.0.2"
)

// StarNetwork is an in-process network with a server host and a client
// host attached to the same router. It allows running both sides of a
// scenario inside a single test process.
type StarNetwork struct {
	// Client is the client TCP/IP stack, which implements DialContext.
	Client *netem.UNetStack

	// Server is the server TCP/IP stack.
	Server *netem.UNetStack

	topology *netem.StarTopology
}

// MustNewStarNetwork creates a [StarNetwork] using the given link
// configuration for both hosts. A nil lc means a zero-delay link.
func MustNewStarNetwork(lc *netem.LinkConfig) *StarNetwork {
	if lc == nil {
		lc = &netem.LinkConfig{}
	}
	topology := netem.MustNewStarTopology(model.DiscardLogger)

	// note: stacks created with AddHost are closed by topology.Close
	server := runtimex.Try1(topology.AddHost(StarNetworkServerAddress, StarNetworkServerAddress, lc))
	client := runtimex.Try1(topology.AddHost(StarNetworkClientAddress, StarNetworkServerAddress, lc))

	return &StarNetwork{Client: client, Server: server, topology: topology}
}

// MustListenTCP listens on the server stack at the given port.
func (n *StarNetwork) MustListenTCP(port int) net.Listener {
	addr := &net.TCPAddr{IP: net.ParseIP(StarNetworkServerAddress), Port: port}
	return runtimex.Try1(n.Server.ListenTCP("tcp", addr))
}

// ServerEndpoint returns the endpoint of the server at the given port.
func (n *StarNetwork) ServerEndpoint(port int) string {
	return net.JoinHostPort(StarNetworkServerAddress, strconv.Itoa(port))
}

// Close shuts down the whole network.
func (n *StarNetwork) Close() error {
	return n.topology.Close()
}
