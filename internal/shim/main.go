package shim

import (
	"context"
	"errors"
	"net"
	"strconv"

	"github.com/tlsinterop/tlsinterop/internal/model"
)

// Host is the host where servers listen and clients connect.
const Host = "localhost"

// ExitCode maps the result of a scenario to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return model.ExitSuccess
	case errors.Is(err, ErrUnimplemented), errors.Is(err, model.ErrUnknownTestCase):
		return model.ExitUnimplemented
	default:
		return model.ExitFailure
	}
}

// parseArgs parses the test case name and the port.
func parseArgs(testCaseName, port string) (model.TestCase, string, error) {
	tc, err := model.ParseTestCase(testCaseName)
	if err != nil {
		return 0, "", err
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return 0, "", err
	}
	return tc, net.JoinHostPort(Host, port), nil
}

// ServeMain runs program for the given test case name and port and
// returns the process exit code.
func ServeMain(ctx context.Context, program ServerProgram, params *Params, testCaseName, port string) int {
	logger := params.logger()
	tc, address, err := parseArgs(testCaseName, port)
	if err != nil {
		logger.Warnf("server: %s", err.Error())
		return ExitCode(err)
	}
	listener, err := net.Listen("tcp", address)
	if err != nil {
		logger.Warnf("server: %s", err.Error())
		return ExitCode(err)
	}
	defer listener.Close()
	stop := context.AfterFunc(ctx, func() {
		listener.Close()
	})
	defer stop()
	logger.Infof("server: listening on %s", listener.Addr())
	err = program.Serve(ctx, params, tc, listener)
	logger.Infof("server: %s", model.ErrorToStringOrOK(err))
	return ExitCode(err)
}

// ConnectMain runs program for the given test case name and port and
// returns the process exit code.
func ConnectMain(ctx context.Context, program ClientProgram, params *Params, testCaseName, port string) int {
	logger := params.logger()
	tc, address, err := parseArgs(testCaseName, port)
	if err != nil {
		logger.Warnf("client: %s", err.Error())
		return ExitCode(err)
	}
	logger.Infof("client: connecting to %s", address)
	err = program.Connect(ctx, params, tc, &net.Dialer{}, address)
	logger.Infof("client: %s", model.ErrorToStringOrOK(err))
	return ExitCode(err)
}
