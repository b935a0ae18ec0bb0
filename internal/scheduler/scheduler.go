// Package scheduler runs scenarios concurrently under a bounded budget.
//
// Each scenario runs two processes, so the default budget is half the
// number of CPUs. Every submitted scenario yields exactly one result on
// the completion channel.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tlsinterop/tlsinterop/internal/model"
	"golang.org/x/sync/semaphore"
)

// Runner runs a single scenario.
type Runner interface {
	Run(ctx context.Context, spec *model.ScenarioSpec) model.Result
}

// Scheduler is the concurrency scheduler. The zero value is invalid; use [New].
type Scheduler struct {
	logger     model.Logger
	maxRunning atomic.Int64
	results    chan model.Result
	runner     Runner
	running    atomic.Int64
	sema       *semaphore.Weighted
	wg         sync.WaitGroup
}

// New creates a [Scheduler] running at most parallelism scenarios at a time.
func New(runner Runner, parallelism int, logger model.Logger) *Scheduler {
	parallelism = max(1, parallelism)
	return &Scheduler{
		logger:  model.ValidLoggerOrDefault(logger),
		results: make(chan model.Result, parallelism),
		runner:  runner,
		sema:    semaphore.NewWeighted(int64(parallelism)),
	}
}

// Submit blocks until a permit is available and then runs the scenario in
// a background goroutine. When ctx is done before we obtain a permit, the
// scenario is reported as a failure rather than dropped.
//
// The caller MUST concurrently consume [Scheduler.Results].
func (s *Scheduler) Submit(ctx context.Context, spec model.ScenarioSpec) {
	s.wg.Add(1)
	if err := s.sema.Acquire(ctx, 1); err != nil {
		s.logger.Warnf("%s: not started: %s", &spec, err.Error())
		go s.deliver(model.Result{Spec: spec, Outcome: model.Failure})
		return
	}
	go s.run(ctx, spec)
}

func (s *Scheduler) run(ctx context.Context, spec model.ScenarioSpec) {
	result := s.runAndRelease(ctx, &spec)
	s.deliver(result)
}

func (s *Scheduler) runAndRelease(ctx context.Context, spec *model.ScenarioSpec) (result model.Result) {
	t0 := time.Now()
	n := s.running.Add(1)
	for {
		prev := s.maxRunning.Load()
		if n <= prev || s.maxRunning.CompareAndSwap(prev, n) {
			break
		}
	}
	defer func() {
		s.running.Add(-1)
		s.sema.Release(1)
		if r := recover(); r != nil {
			s.logger.Warnf("%s: executor panicked: %s", spec, fmt.Sprint(r))
			result = model.Result{Spec: *spec, Outcome: model.Failure, Elapsed: time.Since(t0)}
		}
	}()
	return s.runner.Run(ctx, spec)
}

func (s *Scheduler) deliver(result model.Result) {
	s.results <- result
	s.wg.Done()
}

// Results returns the completion channel, which is closed by [Scheduler.Close].
func (s *Scheduler) Results() <-chan model.Result {
	return s.results
}

// Close waits for all the submitted scenarios to complete and then closes
// the completion channel. Call Close once, after the last Submit.
func (s *Scheduler) Close() {
	s.wg.Wait()
	close(s.results)
}

// RunAll submits all the specs from a background goroutine, closes the
// scheduler when done, and returns the completion channel.
func (s *Scheduler) RunAll(ctx context.Context, specs []model.ScenarioSpec) <-chan model.Result {
	go func() {
		defer s.Close()
		for _, spec := range specs {
			s.Submit(ctx, spec)
		}
	}()
	return s.Results()
}

// Running returns the number of scenarios currently running.
func (s *Scheduler) Running() int {
	return int(s.running.Load())
}

// MaxRunning returns the maximum number of scenarios that ran concurrently.
func (s *Scheduler) MaxRunning() int {
	return int(s.maxRunning.Load())
}
