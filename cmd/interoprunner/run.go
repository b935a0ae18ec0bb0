package main

//
// Running the catalogue
//

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/spf13/cobra"
	"github.com/tlsinterop/tlsinterop/internal/aggregator"
	"github.com/tlsinterop/tlsinterop/internal/catalogue"
	"github.com/tlsinterop/tlsinterop/internal/executor"
	"github.com/tlsinterop/tlsinterop/internal/model"
	"github.com/tlsinterop/tlsinterop/internal/scheduler"
)

// runMain runs the whole catalogue and returns the exit code.
func runMain(cmd *cobra.Command, opts *options) (int, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return model.ExitFailure, err
	}
	specs, err := catalogue.Build(cfg)
	if err != nil {
		return model.ExitFailure, err
	}
	log.Infof("running %d scenarios with parallelism %d", len(specs), cfg.Parallelism)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exec := executor.New(&executor.Config{
		LogsDir:      cfg.LogsDir,
		StartupDelay: cfg.StartupDelay,
		Timeout:      cfg.Timeout,
		Logger:       log.Log,
		ServerStderr: os.Stderr,
	})
	sched := scheduler.New(exec, cfg.Parallelism, log.Log)

	stdout := cmd.OutOrStdout()
	agg := aggregator.New(stdout, log.Log)
	agg.Consume(sched.RunAll(ctx, specs))

	if err := agg.WriteReport(cfg.ResultsFile); err != nil {
		log.Warnf("cannot write results file: %s", err.Error())
	} else {
		log.Infof("results written to %s", cfg.ResultsFile)
	}
	if err := agg.WriteSummary(stdout); err != nil {
		log.Warnf("cannot write summary: %s", err.Error())
	}

	if agg.Failed() && !opts.allowFailures {
		return model.ExitFailure, nil
	}
	return model.ExitSuccess, nil
}
