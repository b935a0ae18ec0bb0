// Package tlsbackend contains the TLS implementations driven by the shim.
//
// Each backend implements [shim.ServerTLS], [shim.ClientTLS] or both, and
// the registry maps the backend name used on the command line to the
// corresponding type-erased program.
package tlsbackend

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tlsinterop/tlsinterop/internal/model"
	"github.com/tlsinterop/tlsinterop/internal/pki"
	"github.com/tlsinterop/tlsinterop/internal/shim"
	"golang.org/x/exp/maps"
)

// ErrUnknownBackend indicates that no backend has the requested name.
var ErrUnknownBackend = errors.New("tlsbackend: unknown backend")

type serverFactory func(material *pki.Material, logger model.Logger) (shim.ServerProgram, error)

type clientFactory func(material *pki.Material, logger model.Logger) (shim.ClientProgram, error)

var servers = map[string]serverFactory{
	"mint":   newMintServer,
	"ootls":  newOOServer,
	"stdtls": newStdlibServer,
}

var clients = map[string]clientFactory{
	"mint":   newMintClient,
	"ootls":  newOOClient,
	"stdtls": newStdlibClient,
	"utls":   newUTLSClient,
}

// ServerNames returns the sorted names of the server backends.
func ServerNames() []string {
	names := maps.Keys(servers)
	slices.Sort(names)
	return names
}

// ClientNames returns the sorted names of the client backends.
func ClientNames() []string {
	names := maps.Keys(clients)
	slices.Sort(names)
	return names
}

// NewServer returns the server program of the named backend.
func NewServer(name string, material *pki.Material, logger model.Logger) (shim.ServerProgram, error) {
	factory, found := servers[name]
	if !found {
		return nil, fmt.Errorf("%w: server %q", ErrUnknownBackend, name)
	}
	return factory(material, model.ValidLoggerOrDefault(logger))
}

// NewClient returns the client program of the named backend.
func NewClient(name string, material *pki.Material, logger model.Logger) (shim.ClientProgram, error) {
	factory, found := clients[name]
	if !found {
		return nil, fmt.Errorf("%w: client %q", ErrUnknownBackend, name)
	}
	return factory(material, model.ValidLoggerOrDefault(logger))
}
