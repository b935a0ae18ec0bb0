// Package executor runs a single scenario as a pair of OS processes.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/tlsinterop/tlsinterop/internal/iox"
	"github.com/tlsinterop/tlsinterop/internal/model"
	"github.com/tlsinterop/tlsinterop/internal/shellx"
	"golang.org/x/sync/errgroup"
)

// Config contains the executor configuration.
type Config struct {
	// LogsDir is the MANDATORY directory where we write the logs.
	LogsDir string

	// StartupDelay is the time we wait between starting the server and
	// starting the client.
	StartupDelay time.Duration

	// Timeout is the MANDATORY time budget for waiting for both processes
	// and draining both logs.
	Timeout time.Duration

	// Logger is the OPTIONAL logger.
	Logger model.Logger

	// ServerStderr is the OPTIONAL writer for the server's stderr. The
	// client's stderr is always discarded.
	ServerStderr io.Writer
}

// Executor runs scenarios. The zero value is invalid; use [New].
type Executor struct {
	config Config
	logger model.Logger
}

// New creates a new [Executor].
func New(config *Config) *Executor {
	return &Executor{
		config: *config,
		logger: model.ValidLoggerOrDefault(config.Logger),
	}
}

// LogPath returns the path of the log file of the given role.
func LogPath(dir string, spec *model.ScenarioSpec, role model.Role) string {
	name := fmt.Sprintf("%s_%s_%s_%s.log", spec.TestCase, spec.Server.Name, spec.Client.Name, role)
	return filepath.Join(dir, name)
}

// Classify reduces the two exit codes to an [model.Outcome].
func Classify(clientCode, serverCode int) model.Outcome {
	switch {
	case clientCode == model.ExitUnimplemented || serverCode == model.ExitUnimplemented:
		return model.Unimplemented
	case clientCode == model.ExitSuccess && serverCode == model.ExitSuccess:
		return model.Success
	default:
		return model.Failure
	}
}

// Run executes the scenario and returns its result. Run never returns
// before both processes have been reaped and all files have been closed.
func (e *Executor) Run(ctx context.Context, spec *model.ScenarioSpec) model.Result {
	t0 := time.Now()
	outcome := e.run(ctx, spec)
	elapsed := time.Since(t0)
	e.logger.Infof("%s: finished in %.1f seconds: %s", spec, elapsed.Seconds(), outcome)
	return model.Result{
		Spec:    *spec,
		Outcome: outcome,
		Elapsed: elapsed,
	}
}

// job is the running pair of processes with its log files.
type job struct {
	files []*os.File
	procs []*shellx.Process
}

func (j *job) start(config *shellx.Config, variant *model.Variant, spec *model.ScenarioSpec, logPath string) (*shellx.Process, *os.File, error) {
	file, err := os.Create(logPath)
	if err != nil {
		return nil, nil, err
	}
	j.files = append(j.files, file)
	argv, err := shellx.NewArgv(variant.Program, variant.Args...)
	if err != nil {
		return nil, nil, err
	}
	argv.Append(spec.Argv()...)
	proc, err := shellx.Start(config, argv, &shellx.Envp{V: variant.Env})
	if err != nil {
		return nil, nil, err
	}
	j.procs = append(j.procs, proc)
	if config.Logger != nil {
		config.Logger.Debugf("pid %d logging to %s", proc.Pid(), logPath)
	}
	return proc, file, nil
}

// destroy kills and reaps the processes that are still running and
// closes every pipe and file.
func (j *job) destroy() {
	for _, proc := range j.procs {
		proc.Kill()
	}
	for _, proc := range j.procs {
		<-proc.Done()
		proc.Stdout.Close()
	}
	for _, file := range j.files {
		file.Close()
	}
}

func (e *Executor) run(ctx context.Context, spec *model.ScenarioSpec) model.Outcome {
	if err := os.MkdirAll(e.config.LogsDir, 0755); err != nil {
		e.logger.Warnf("%s: cannot create logs dir: %s", spec, err.Error())
		return model.Failure
	}

	j := &job{}
	defer j.destroy()

	server, serverLog, err := j.start(&shellx.Config{
		Logger: e.logger,
		Stderr: e.config.ServerStderr,
	}, &spec.Server, spec, LogPath(e.config.LogsDir, spec, model.RoleServer))
	if err != nil {
		e.logger.Warnf("%s: cannot start server: %s", spec, err.Error())
		return model.Failure
	}

	select {
	case <-time.After(e.config.StartupDelay):
	case <-ctx.Done():
		e.logger.Warnf("%s: interrupted while starting: %s", spec, ctx.Err().Error())
		return model.Failure
	}

	client, clientLog, err := j.start(&shellx.Config{
		Logger: e.logger,
	}, &spec.Client, spec, LogPath(e.config.LogsDir, spec, model.RoleClient))
	if err != nil {
		e.logger.Warnf("%s: cannot start client: %s", spec, err.Error())
		return model.Failure
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()
	group, gctx := errgroup.WithContext(ctx)

	var (
		mu         sync.Mutex
		errs       *multierror.Error
		clientCode int
		serverCode int
	)
	collect := func(what string, err error) error {
		if err != nil {
			mu.Lock()
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", what, err))
			mu.Unlock()
		}
		return err
	}
	group.Go(func() (err error) {
		clientCode, err = client.WaitContext(gctx)
		return collect("wait client", err)
	})
	group.Go(func() (err error) {
		serverCode, err = server.WaitContext(gctx)
		return collect("wait server", err)
	})
	group.Go(func() error {
		_, err := iox.CopyContext(gctx, clientLog, client.Stdout)
		return collect("drain client log", err)
	})
	group.Go(func() error {
		_, err := iox.CopyContext(gctx, serverLog, server.Stdout)
		return collect("drain server log", err)
	})

	if err := group.Wait(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			e.logger.Warnf("%s: timed out after %s", spec, e.config.Timeout)
		}
		e.logger.Warnf("%s: %s", spec, errs.Error())
		return model.Failure
	}

	e.logger.Debugf("%s: client exited with %d, server exited with %d", spec, clientCode, serverCode)
	return Classify(clientCode, serverCode)
}
