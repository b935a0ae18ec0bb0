package main

//
// Configuration loading
//

import (
	"github.com/spf13/cobra"
	"github.com/tlsinterop/tlsinterop/internal/config"
)

// loadConfig loads the configuration file, or the built-in default when
// none is given, applies the command line overrides and resolves it.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	file, err := loadFile(opts)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("parallel") {
		file.Parallelism = opts.parallel
	}
	if flags.Changed("timeout") {
		file.Timeout = opts.timeout
	}
	if flags.Changed("startup-delay") {
		file.StartupDelay = opts.startupDelay
	}
	if flags.Changed("logs-dir") {
		file.LogsDir = opts.logsDir
	}
	if flags.Changed("results-file") {
		file.ResultsFile = opts.resultsFile
	}
	return config.Resolve(file, &config.Filters{
		Tests:   opts.tests,
		Servers: opts.servers,
		Clients: opts.clients,
	})
}

func loadFile(opts *options) (*config.File, error) {
	if opts.configPath != "" {
		return config.Load(opts.configPath)
	}
	shimPath, err := config.ShimPath()
	if err != nil {
		return nil, err
	}
	return config.Default(shimPath), nil
}
