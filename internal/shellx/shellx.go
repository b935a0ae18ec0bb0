// Package shellx helps to spawn the processes participating in a scenario.
package shellx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/shlex"
	"github.com/tlsinterop/tlsinterop/internal/model"
	"golang.org/x/sys/execabs"
)

// Dependencies is the library on which this package depends.
type Dependencies interface {
	// CmdStart is equivalent to calling c.Start.
	CmdStart(c *execabs.Cmd) error

	// LookPath is equivalent to calling execabs.LookPath.
	LookPath(file string) (string, error)
}

// Library contains the default dependencies.
var Library Dependencies = &StdlibDependencies{}

// StdlibDependencies contains the stdlib implementation of the [Dependencies].
type StdlibDependencies struct{}

// CmdStart implements [Dependencies].
func (*StdlibDependencies) CmdStart(c *execabs.Cmd) error {
	return c.Start()
}

// LookPath implements [Dependencies].
func (*StdlibDependencies) LookPath(file string) (string, error) {
	return execabs.LookPath(file)
}

// Envp is the environment in which we execute commands.
type Envp struct {
	// V contains the OPTIONAL environment variables to add to the current
	// environment when we're executing commands.
	V []string
}

// Argv contains the complete argv.
type Argv struct {
	// P is the MANDATORY program to execute.
	P string

	// V contains the OPTIONAL arguments.
	V []string
}

// NewArgv creates a new [Argv] from the given command and arguments.
func NewArgv(command string, args ...string) (*Argv, error) {
	fullpath, err := Library.LookPath(command) // allows mocking
	if err != nil {
		return nil, err
	}
	argv := &Argv{
		P: fullpath,
		V: args,
	}
	return argv, nil
}

// SplitCommandLine splits a command line into the program and its arguments
// without resolving the program path, which [NewArgv] does later.
func SplitCommandLine(cmdline string) (string, []string, error) {
	args, err := shlex.Split(cmdline)
	if err != nil {
		return "", nil, err
	}
	if len(args) < 1 {
		return "", nil, ErrNoCommandToExecute
	}
	return args[0], args[1:], nil
}

// Append appends arguments to the command line.
func (a *Argv) Append(args ...string) {
	a.V = append(a.V, args...)
}

// String returns the quoted command line.
func (a *Argv) String() string {
	return quotedCommandLine(a.P, a.V...)
}

// Config contains config for executing programs.
type Config struct {
	// Logger is the OPTIONAL logger to use.
	Logger model.Logger

	// Stderr is the OPTIONAL writer receiving the child's stderr. When
	// nil, the child's stderr is discarded.
	Stderr io.Writer
}

// cmd creates a new [execabs.Cmd] instance.
func cmd(config *Config, argv *Argv, envp *Envp) *execabs.Cmd {
	cmd := execabs.Command(argv.P, argv.V...)
	cmd.Env = os.Environ()
	for _, entry := range envp.V {
		if config.Logger != nil {
			config.Logger.Infof("+ export %s", entry)
		}
		cmd.Env = append(cmd.Env, entry)
	}
	if config.Logger != nil {
		config.Logger.Infof("+ %s", argv.String())
	}
	cmd.SysProcAttr = newSysProcAttr()
	return cmd
}

// Process is a running child process whose stdout is an OS pipe.
//
// A background goroutine reaps the child as soon as it exits, so the
// process never lingers as a zombie regardless of what the caller does.
type Process struct {
	// Stdout is the read end of the pipe connected to the child's stdout. The
	// caller owns it and MUST close it when done draining.
	Stdout *os.File

	cmd  *execabs.Cmd
	done chan struct{}
	err  error
	once sync.Once
}

// Start starts the given program in its own process group with its
// stdout connected to [Process.Stdout].
func Start(config *Config, argv *Argv, envp *Envp) (*Process, error) {
	cmd := cmd(config, argv, envp)
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	cmd.Stdout = pw
	cmd.Stderr = config.Stderr
	if err := Library.CmdStart(cmd); err != nil { // allows mocking
		pr.Close()
		pw.Close()
		return nil, err
	}
	// the child holds its own copy of the write end
	pw.Close()
	proc := &Process{
		Stdout: pr,
		cmd:    cmd,
		done:   make(chan struct{}),
	}
	go proc.reap()
	return proc, nil
}

func (p *Process) reap() {
	p.err = p.cmd.Wait()
	close(p.done)
}

// Pid returns the child's process ID.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Done returns a channel closed once the child has been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// ErrProcessSignaled indicates the child was terminated by a signal.
var ErrProcessSignaled = errors.New("shellx: process terminated by a signal")

// WaitContext waits for the child to terminate and returns its exit
// code. It returns early with the context error if ctx expires first.
func (p *Process) WaitContext(ctx context.Context) (int, error) {
	select {
	case <-p.done:
		code := p.cmd.ProcessState.ExitCode()
		if code < 0 {
			return code, fmt.Errorf("%w: %s", ErrProcessSignaled, p.err.Error())
		}
		return code, nil
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

// Kill forcibly terminates the child's whole process group. Calling
// Kill more than once or after the child exited is safe.
func (p *Process) Kill() {
	p.once.Do(func() {
		select {
		case <-p.done:
			return
		default:
		}
		killProcessGroup(p.cmd.Process)
	})
}

// ErrNoCommandToExecute means that the command line is empty.
var ErrNoCommandToExecute = errors.New("shellx: no command to execute")

// quotedCommandLine returns a quoted command line.
func quotedCommandLine(command string, args ...string) string {
	v := []string{}
	v = append(v, maybeQuoteArg(command))
	for _, a := range args {
		v = append(v, maybeQuoteArg(a))
	}
	return strings.Join(v, " ")
}

// maybeQuoteArg quotes a command line argument if needed.
func maybeQuoteArg(a string) string {
	if strings.Contains(a, "\"") {
		a = strings.ReplaceAll(a, "\"", "\\\"")
	}
	if strings.Contains(a, " ") {
		a = "\"" + a + "\""
	}
	return a
}
