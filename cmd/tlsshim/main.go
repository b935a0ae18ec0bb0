// Command tlsshim runs one side of an interop scenario using one of the
// built-in TLS backends.
//
// Usage:
//
//	tlsshim server <backend> <test_case> <port>
//	tlsshim client <backend> <test_case> <port>
//
// The exit code is 0 on success, 127 when the backend does not support
// the test case, and 1 on any other failure.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/apex/log"
	"github.com/spf13/cobra"
	"github.com/tlsinterop/tlsinterop/internal/logx"
	"github.com/tlsinterop/tlsinterop/internal/model"
	"github.com/tlsinterop/tlsinterop/internal/pki"
	"github.com/tlsinterop/tlsinterop/internal/shim"
	"github.com/tlsinterop/tlsinterop/internal/tlsbackend"
)

// options contains the command line options.
type options struct {
	certDir string
	verbose bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command line and returns the exit code.
func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts options
	exitCode := model.ExitFailure

	root := &cobra.Command{
		Use:           "tlsshim",
		Short:         "Runs one side of a TLS interop scenario",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.certDir, "cert-dir", pki.CertDir(), "directory containing the PEM files")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(&cobra.Command{
		Use:   "server <backend> <test_case> <port>",
		Short: "Accepts connections as the named server backend. Backends: " + strings.Join(tlsbackend.ServerNames(), ", "),
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			exitCode = serverMain(ctx, &opts, args[0], args[1], args[2])
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "client <backend> <test_case> <port>",
		Short: "Connects as the named client backend. Backends: " + strings.Join(tlsbackend.ClientNames(), ", "),
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			exitCode = clientMain(ctx, &opts, args[0], args[1], args[2])
		},
	})

	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		log.Warnf("tlsshim: %s", err.Error())
		return model.ExitFailure
	}
	return exitCode
}

// loggingOnce guards the process-wide apex/log configuration.
var loggingOnce sync.Once

// setup configures logging and loads the PKI material.
func setup(opts *options) (*shim.Params, *pki.Material, error) {
	loggingOnce.Do(func() {
		logx.Setup(logx.NewPlainHandler(os.Stdout), opts.verbose)
	})
	params, err := shim.NewParams(log.Log)
	if err != nil {
		return nil, nil, err
	}
	material, err := pki.Load(opts.certDir)
	if err != nil {
		return nil, nil, err
	}
	return params, material, nil
}

func serverMain(ctx context.Context, opts *options, backend, testCase, port string) int {
	params, material, err := setup(opts)
	if err != nil {
		log.Warnf("server: %s", err.Error())
		return model.ExitFailure
	}
	program, err := tlsbackend.NewServer(backend, material, log.Log)
	if err != nil {
		log.Warnf("server: %s", err.Error())
		return model.ExitFailure
	}
	return shim.ServeMain(ctx, program, params, testCase, port)
}

func clientMain(ctx context.Context, opts *options, backend, testCase, port string) int {
	params, material, err := setup(opts)
	if err != nil {
		log.Warnf("client: %s", err.Error())
		return model.ExitFailure
	}
	program, err := tlsbackend.NewClient(backend, material, log.Log)
	if err != nil {
		log.Warnf("client: %s", err.Error())
		return model.ExitFailure
	}
	return shim.ConnectMain(ctx, program, params, testCase, port)
}
