// Package shellxtesting contains mocks for shellx.
package shellxtesting

import (
	"os/exec"

	"github.com/tlsinterop/tlsinterop/internal/runtimex"
	"github.com/tlsinterop/tlsinterop/internal/shellx"
)

// Library implements shellx.Dependencies.
type Library struct {
	MockCmdStart func(c *exec.Cmd) error

	MockLookPath func(file string) (string, error)
}

var _ shellx.Dependencies = &Library{}

// CmdStart implements shellx.Dependencies
func (lib *Library) CmdStart(c *exec.Cmd) error {
	return lib.MockCmdStart(c)
}

// LookPath implements shellx.Dependencies
func (lib *Library) LookPath(file string) (string, error) {
	return lib.MockLookPath(file)
}

// MustArgv returns the [exec.Cmd]'s Argv or panics.
func MustArgv(c *exec.Cmd) []string {
	runtimex.Assert(len(c.Args) >= 1, "too few arguments")
	out := []string{c.Path}
	out = append(out, c.Args[1:]...)
	return out
}

// WithCustomLibrary executes the given function with a custom shellx.Library.
func WithCustomLibrary(library shellx.Dependencies, fn func()) {
	prev := shellx.Library
	defer func() {
		shellx.Library = prev
	}()
	shellx.Library = library
	fn()
}
