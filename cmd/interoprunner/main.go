// Command interoprunner runs every (test case, server, client) scenario
// as a pair of processes and reports which combinations interoperate.
package main

//
// Main
//

import (
	"os"

	"github.com/apex/log"
	"github.com/spf13/cobra"
	"github.com/tlsinterop/tlsinterop/internal/logx"
	"github.com/tlsinterop/tlsinterop/internal/model"
)

// options contains the command line options.
type options struct {
	allowFailures bool
	clients       []string
	configPath    string
	logsDir       string
	parallel      int
	resultsFile   string
	servers       []string
	startupDelay  string
	tests         []string
	timeout       string
	verbose       bool
}

func main() {
	os.Exit(execute(os.Args[1:]))
}

// execute runs the command line and returns the exit code.
func execute(args []string) int {
	exitCode := model.ExitFailure
	root := newRootCommand(&options{}, &exitCode)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		log.Warnf("interoprunner: %s", err.Error())
		return model.ExitFailure
	}
	return exitCode
}

// newRootCommand creates the root command, which runs the catalogue and
// stores the exit code in exitCode.
func newRootCommand(opts *options, exitCode *int) *cobra.Command {
	root := &cobra.Command{
		Use:           "interoprunner",
		Short:         "Runs the TLS interop scenario matrix",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logx.Setup(logx.NewCLIHandler(cmd.ErrOrStderr()), opts.verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			*exitCode, err = runMain(cmd, opts)
			return
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "configuration file (.json, .jsonc, .hujson or .toml)")
	flags.StringSliceVar(&opts.tests, "test", nil, "only run the given test cases (can be repeated)")
	flags.StringSliceVar(&opts.servers, "server", nil, "only run the given servers (can be repeated)")
	flags.StringSliceVar(&opts.clients, "client", nil, "only run the given clients (can be repeated)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	runFlags := root.Flags()
	runFlags.IntVarP(&opts.parallel, "parallel", "j", 0, "maximum number of concurrent scenarios (default: half the CPUs)")
	runFlags.StringVar(&opts.timeout, "timeout", "", "time budget of each scenario (e.g. 7m)")
	runFlags.StringVar(&opts.startupDelay, "startup-delay", "", "time to wait between starting the server and the client")
	runFlags.StringVar(&opts.logsDir, "logs-dir", "", "directory where we write the per-process logs")
	runFlags.StringVar(&opts.resultsFile, "results-file", "", "path of the JSON results file")
	runFlags.BoolVar(&opts.allowFailures, "allow-failures", false, "exit with zero even when some scenarios failed")

	root.AddCommand(listSubcommand(opts))
	return root
}
